package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mfaleiro/kaori/internal/kaori/persona"
)

// InsertInteraction appends one interaction to the audit log.
func (s *Store) InsertInteraction(ctx context.Context, in persona.Interaction) error {
	var payloadJSON []byte
	if len(in.Payload) > 0 {
		var err error
		payloadJSON, err = json.Marshal(in.Payload)
		if err != nil {
			return fmt.Errorf("interaction store: marshal payload: %w", err)
		}
	}

	var signalsJSON []byte
	if len(in.Signals) > 0 {
		var err error
		signalsJSON, err = json.Marshal(in.Signals)
		if err != nil {
			return fmt.Errorf("interaction store: marshal signals: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_interactions (id, user_id, type, payload, persona_signals, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, in.ID, in.UserID, string(in.Type), nullable(payloadJSON), nullable(signalsJSON),
		in.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("interaction store: insert: %w", err)
	}

	return nil
}

// RecentInteractions returns up to limit interactions for a user, newest
// first. Used by the operator CLI, not the merge path.
func (s *Store) RecentInteractions(ctx context.Context, userID string, limit int) ([]persona.Interaction, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, type, payload, persona_signals, created_at
		FROM user_interactions
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("interaction store: query: %w", err)
	}
	defer rows.Close()

	var out []persona.Interaction
	for rows.Next() {
		var (
			in          persona.Interaction
			typ         string
			payloadStr  sql.NullString
			signalsStr  sql.NullString
			createdAtTs string
		)
		if err := rows.Scan(&in.ID, &in.UserID, &typ, &payloadStr, &signalsStr, &createdAtTs); err != nil {
			return nil, fmt.Errorf("interaction store: scan: %w", err)
		}
		in.Type = persona.InteractionType(typ)

		if payloadStr.Valid && payloadStr.String != "" {
			if err := json.Unmarshal([]byte(payloadStr.String), &in.Payload); err != nil {
				return nil, fmt.Errorf("interaction store: unmarshal payload: %w", err)
			}
		}
		if signalsStr.Valid && signalsStr.String != "" {
			if err := json.Unmarshal([]byte(signalsStr.String), &in.Signals); err != nil {
				return nil, fmt.Errorf("interaction store: unmarshal signals: %w", err)
			}
		}
		if t, err := time.Parse(time.RFC3339, createdAtTs); err == nil {
			in.CreatedAt = t
		}

		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("interaction store: iterate rows: %w", err)
	}

	return out, nil
}

// nullable maps an empty JSON blob to SQL NULL.
func nullable(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
