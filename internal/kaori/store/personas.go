package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mfaleiro/kaori/internal/kaori/persona"
)

// LoadPersona returns the stored persona for a user, or (nil, nil) when the
// user has no persona yet.
func (s *Store) LoadPersona(ctx context.Context, userID string) (*persona.StoredPersona, error) {
	var (
		personaJSON  string
		confidence   float64
		refreshedStr sql.NullString
		createdStr   string
		updatedStr   string
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT persona, confidence_score, last_refreshed_at, created_at, updated_at
		FROM user_personas
		WHERE user_id = ?
	`, userID).Scan(&personaJSON, &confidence, &refreshedStr, &createdStr, &updatedStr)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("persona store: load %s: %w", userID, err)
	}

	rec := &persona.Record{}
	if err := json.Unmarshal([]byte(personaJSON), rec); err != nil {
		return nil, fmt.Errorf("persona store: unmarshal persona for %s: %w", userID, err)
	}

	stored := &persona.StoredPersona{
		UserID:     userID,
		Record:     rec,
		Confidence: confidence,
	}
	if refreshedStr.Valid && refreshedStr.String != "" {
		t, err := time.Parse(time.RFC3339, refreshedStr.String)
		if err != nil {
			return nil, fmt.Errorf("persona store: parse last_refreshed_at for %s: %w", userID, err)
		}
		stored.LastRefreshedAt = t
	}
	if t, err := time.Parse(time.RFC3339, createdStr); err == nil {
		stored.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updatedStr); err == nil {
		stored.UpdatedAt = t
	}

	return stored, nil
}

// UpsertPersona writes a user's persona document, creating the row when
// absent and preserving created_at when present. The write is a single
// statement, so it is atomic by SQLite semantics.
func (s *Store) UpsertPersona(ctx context.Context, userID string, rec *persona.Record, confidence float64, refreshedAt time.Time) error {
	personaJSON, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("persona store: marshal persona for %s: %w", userID, err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_personas (user_id, persona, confidence_score, last_refreshed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			persona = excluded.persona,
			confidence_score = excluded.confidence_score,
			last_refreshed_at = excluded.last_refreshed_at,
			updated_at = excluded.updated_at
	`, userID, string(personaJSON), confidence, refreshedAt.UTC().Format(time.RFC3339), now, now)
	if err != nil {
		return fmt.Errorf("persona store: upsert %s: %w", userID, err)
	}

	return nil
}

// Compile-time interface satisfaction check.
var _ persona.Store = (*Store)(nil)
