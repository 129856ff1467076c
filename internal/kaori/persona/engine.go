package persona

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mfaleiro/kaori/common/retry"
)

// InteractionType classifies a logged user action.
type InteractionType string

const (
	InteractionSearch        InteractionType = "search"
	InteractionClick         InteractionType = "click"
	InteractionPurchase      InteractionType = "purchase"
	InteractionDismiss       InteractionType = "dismiss"
	InteractionFeedback      InteractionType = "feedback"
	InteractionChatStatement InteractionType = "chat_statement"
)

// Interaction is one observed user action plus the signals extracted from
// it. The action itself is kept for audit; the signals drive the merge.
type Interaction struct {
	ID        string
	UserID    string
	Type      InteractionType
	Payload   map[string]any
	Signals   []Signal
	CreatedAt time.Time
}

// StoredPersona is a persona record together with its persistence metadata.
type StoredPersona struct {
	UserID          string
	Record          *Record
	Confidence      float64
	LastRefreshedAt time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Store is the persistence boundary for personas. Implementations must
// provide atomic upsert-by-user semantics; the engine does not care about
// the storage technology beyond that.
type Store interface {
	// LoadPersona returns the stored persona for a user, or (nil, nil)
	// when none exists yet.
	LoadPersona(ctx context.Context, userID string) (*StoredPersona, error)

	// UpsertPersona writes the record, confidence, and refresh time for a
	// user, creating the row when absent.
	UpsertPersona(ctx context.Context, userID string, rec *Record, confidence float64, refreshedAt time.Time) error

	// InsertInteraction appends one interaction to the audit log.
	InsertInteraction(ctx context.Context, in Interaction) error
}

// lockShards is the size of the per-user mutex table. 32 shards keeps
// contention negligible for any realistic concurrent-user count while the
// table stays a few hundred bytes.
const lockShards = 32

// defaultAsyncTimeout bounds a fire-and-forget merge that no longer has a
// caller deadline to inherit.
const defaultAsyncTimeout = 5 * time.Second

// Engine orchestrates persona reads and updates against a Store.
//
// Concurrency model: merges are read-modify-write, so concurrent merges for
// the same user are serialized through a sharded mutex to avoid lost
// updates on the EMA/additive fields. Merges for different users proceed
// independently (modulo shard collisions, which only cost a short wait).
// This protects a single process; rare lost updates across processes are
// tolerated — personalization is best-effort.
type Engine struct {
	store  Store
	logger *slog.Logger
	retry  retry.Config

	locks [lockShards]sync.Mutex

	asyncTimeout time.Duration
	wg           sync.WaitGroup
}

// NewEngine creates an Engine. If logger is nil, the default slog logger
// is used.
func NewEngine(store Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:  store,
		logger: logger,
		retry: retry.Config{
			MaxAttempts:  3,
			InitialDelay: 50 * time.Millisecond,
			MaxDelay:     500 * time.Millisecond,
		},
		asyncTimeout: defaultAsyncTimeout,
	}
}

// lockFor returns the mutex guarding a user's read-modify-write cycle.
func (e *Engine) lockFor(userID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return &e.locks[h.Sum32()%lockShards]
}

// Get returns the stored persona for a user, or (nil, nil) when none
// exists.
func (e *Engine) Get(ctx context.Context, userID string) (*StoredPersona, error) {
	return e.store.LoadPersona(ctx, userID)
}

// Initialize creates (or overwrites) a user's persona. When initial is
// non-nil — an onboarding submission — the starting confidence is 0.2;
// a bare lazy initialization starts at 0. Missing locale/currency fall
// back to the neutral defaults.
func (e *Engine) Initialize(ctx context.Context, userID string, initial *Record) (*StoredPersona, error) {
	mu := e.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	rec := NewRecord()
	confidence := 0.0
	if initial != nil {
		rec = cloneRecord(initial)
		if rec.Locale == "" {
			rec.Locale = "en"
		}
		if rec.Currency == "" {
			rec.Currency = "USD"
		}
		confidence = 0.2
	}

	now := time.Now().UTC()
	if err := e.upsertWithRetry(ctx, userID, rec, confidence, now); err != nil {
		return nil, fmt.Errorf("persona: initialize %s: %w", userID, err)
	}

	return &StoredPersona{
		UserID:          userID,
		Record:          rec,
		Confidence:      confidence,
		LastRefreshedAt: now,
	}, nil
}

// LogInteraction records a user action and applies any signals it carries
// to the persona. A persistence failure is returned to the caller as a
// recoverable error: dropping a persona update is tolerable, so callers on
// the chat path should prefer LogInteractionAsync.
func (e *Engine) LogInteraction(ctx context.Context, in Interaction) error {
	if in.UserID == "" {
		return fmt.Errorf("persona: interaction has no user ID")
	}
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}

	if err := e.store.InsertInteraction(ctx, in); err != nil {
		return fmt.Errorf("persona: log interaction: %w", err)
	}

	if len(in.Signals) == 0 {
		return nil
	}
	return e.applySignals(ctx, in.UserID, in.Signals)
}

// LogInteractionAsync records an interaction on a background goroutine so
// the user-facing response path is never delayed or failed by persona
// bookkeeping. Errors are logged at WARN and dropped.
func (e *Engine) LogInteractionAsync(in Interaction) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), e.asyncTimeout)
		defer cancel()

		if err := e.LogInteraction(ctx, in); err != nil {
			e.logger.Warn("persona: dropped interaction update",
				"user_id", in.UserID,
				"type", in.Type,
				"signals", len(in.Signals),
				"err", err,
			)
		}
	}()
}

// Wait blocks until all in-flight asynchronous interaction updates have
// finished. Called on shutdown and by tests.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// ContextBlock renders the persona context block for a user's prompt.
// Returns "" when no persona exists yet.
func (e *Engine) ContextBlock(ctx context.Context, userID string) (string, error) {
	stored, err := e.store.LoadPersona(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("persona: context block for %s: %w", userID, err)
	}
	if stored == nil {
		return "", nil
	}
	return Render(stored.Record, stored.Confidence), nil
}

// applySignals runs the read-modify-write merge cycle for one user under
// the user's shard lock. The persona is created lazily with neutral
// defaults when absent.
func (e *Engine) applySignals(ctx context.Context, userID string, signals []Signal) error {
	mu := e.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	stored, err := e.store.LoadPersona(ctx, userID)
	if err != nil {
		return fmt.Errorf("persona: load %s: %w", userID, err)
	}

	rec := NewRecord()
	confidence := 0.0
	if stored != nil {
		rec = stored.Record
		confidence = stored.Confidence
	}

	boost := Merge(rec, signals)
	confidence = clamp(confidence+boost, 0, 1)

	now := time.Now().UTC()
	if err := e.upsertWithRetry(ctx, userID, rec, confidence, now); err != nil {
		return fmt.Errorf("persona: upsert %s: %w", userID, err)
	}

	e.logger.Debug("persona: merged signals",
		"user_id", userID,
		"signals", len(signals),
		"confidence", confidence,
	)
	return nil
}

// upsertWithRetry retries transient store failures (SQLite busy class)
// with short exponential backoff. The caller's deadline still bounds the
// total time spent.
func (e *Engine) upsertWithRetry(ctx context.Context, userID string, rec *Record, confidence float64, refreshedAt time.Time) error {
	return retry.Do(ctx, e.retry, func() error {
		return e.store.UpsertPersona(ctx, userID, rec, confidence, refreshedAt)
	})
}
