package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/antoniostano/todobot/internal/observability"
	"github.com/antoniostano/todobot/internal/policy"
	"github.com/antoniostano/todobot/internal/todo"
)

// Adapter loads the whole task store at startup and flushes it after every
// mutation. Durability is best effort: failures are logged and counted but
// never returned, so the in-memory state always stays authoritative.
type Adapter struct {
	backend Backend
	codec   Codec
	logger  *zap.Logger
	metrics *observability.Metrics
}

func NewAdapter(backend Backend, codec Codec, logger *zap.Logger, metrics *observability.Metrics) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		backend: backend,
		codec:   codec,
		logger:  logger.Named("persist"),
		metrics: metrics,
	}
}

// Mode reports the backend kind, e.g. "file".
func (a *Adapter) Mode() string {
	return a.backend.Mode()
}

// ErrMalformed marks a stored document the codec could not decode.
var ErrMalformed = errors.New("malformed state document")

// Read loads and migrates the durable state, returning the number of
// legacy fixes applied. Unlike Load it reports every failure; ErrAbsent
// means nothing was ever saved.
func (a *Adapter) Read(ctx context.Context) (*todo.Store, int, error) {
	data, err := a.backend.Load(ctx)
	if err != nil {
		return nil, 0, err
	}
	snap, err := a.codec.Decode(data)
	if err != nil {
		return nil, 0, fmt.Errorf("%w (%s): %v", ErrMalformed, a.codec.Name(), err)
	}
	store, fixes := todo.FromSnapshot(snap)
	return store, fixes, nil
}

// Load reads the durable state. A missing or unreadable document yields an
// empty store.
func (a *Adapter) Load(ctx context.Context) *todo.Store {
	store, fixes, err := a.Read(ctx)
	switch {
	case errors.Is(err, ErrAbsent):
		a.logger.Info("no saved state, starting empty", zap.String("backend", a.backend.Mode()))
		return todo.NewStore()
	case errors.Is(err, ErrMalformed):
		a.metrics.ObservePersistenceFailure("decode")
		a.logger.Warn("state malformed, starting empty", zap.String("backend", a.backend.Mode()), zap.Error(err))
		return todo.NewStore()
	case err != nil:
		a.metrics.ObservePersistenceFailure("load")
		a.logger.Warn("state unreadable, starting empty", zap.String("backend", a.backend.Mode()), zap.Error(err))
		return todo.NewStore()
	}

	if fixes > 0 {
		a.logger.Info("upgraded legacy records", zap.Int("fixes", fixes))
	}
	st := store.Stats()
	a.logger.Info("state loaded",
		zap.String("backend", a.backend.Mode()),
		zap.Int("users", st.Users),
		zap.Int("tasks", st.Tasks))
	return store
}

// Write encodes and stores the entire store, reporting any failure.
func (a *Adapter) Write(ctx context.Context, store *todo.Store) error {
	start := time.Now()
	data, err := a.codec.Encode(store.Snapshot())
	if err != nil {
		a.metrics.ObservePersistenceFailure("encode")
		return fmt.Errorf("encode state: %w", err)
	}
	if err := a.backend.Save(ctx, data); err != nil {
		a.metrics.ObservePersistenceFailure("save")
		return fmt.Errorf("save state to %s: %w", a.backend.Mode(), err)
	}
	st := store.Stats()
	a.metrics.ObserveSave(time.Since(start), st.Users, st.Tasks)
	return nil
}

// saveTimeout bounds a flush once it is detached from the caller.
const saveTimeout = 10 * time.Second

// Save is Write for callers that must not fail: errors are reported to
// the logger and metrics only. The flush ignores cancellation of ctx, so a
// client disconnect or shutdown after a mutation still persists it.
func (a *Adapter) Save(ctx context.Context, store *todo.Store) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()
	if err := a.Write(ctx, store); err != nil {
		a.logger.Error("persist state failed", zap.String("error", policy.RedactError(err)))
	}
}

func (a *Adapter) Close() error {
	return a.backend.Close()
}
