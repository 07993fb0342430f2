package analytics

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tasteline/tasteline/internal/cache"
)

// Common errors.
var (
	// ErrEmptyPeriod is returned when a snapshot is requested over a period
	// with no listening or feedback activity. A snapshot without data is
	// meaningless to persist, so this is a hard precondition failure, never
	// a soft default.
	ErrEmptyPeriod = errors.New("no activity in period")

	// ErrInvalidRange is returned when a query's date range is malformed.
	ErrInvalidRange = errors.New("invalid date range")
)

// Engine is the temporal preference analytics engine. It is stateless per
// call except for the result cache, consumes read-only stores, and never
// aggregates across users.
type Engine struct {
	feedback  FeedbackReader
	listening ListeningReader
	snapshots SnapshotStore
	results   *cache.Cache
	now       func() time.Time
	log       zerolog.Logger

	cacheTTL time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's time source. Used for deterministic
// cache-TTL and capture-time behavior in tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithCacheTTL sets how long aggregation results stay servable.
func WithCacheTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.cacheTTL = ttl
	}
}

// WithCache supplies a pre-built result cache, replacing the one the
// engine would otherwise construct.
func WithCache(c *cache.Cache) Option {
	return func(e *Engine) {
		e.results = c
	}
}

// New creates an Engine over the given readers and snapshot store.
func New(feedback FeedbackReader, listening ListeningReader, snapshots SnapshotStore, log zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		feedback:  feedback,
		listening: listening,
		snapshots: snapshots,
		now:       time.Now,
		log:       log.With().Str("component", "analytics").Logger(),
		cacheTTL:  cache.DefaultTTL,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.results == nil {
		e.results = cache.New(e.cacheTTL, cache.WithClock(cache.Clock(e.now)))
	}
	return e
}

// Invalidate clears one user's cached results, or every entry when userID
// is empty. Feedback writers are expected to call this through the
// Invalidator contract whenever a rating is added or changed.
func (e *Engine) Invalidate(userID string) {
	if userID == "" {
		e.results.InvalidateAll()
		e.log.Debug().Msg("cleared all cached results")
		return
	}
	e.results.Invalidate(userID)
	e.log.Debug().Str("user", userID).Msg("cleared cached results")
}

// Invalidator is the callback contract between feedback write paths and
// the engine's cache. Writers publish invalidations through it instead of
// reaching into the cache directly.
type Invalidator interface {
	Invalidate(userID string)
}

var _ Invalidator = (*Engine)(nil)

func validateRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidRange)
	}
	if !end.After(start) {
		return fmt.Errorf("%w: end %s is not after start %s",
			ErrInvalidRange, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return nil
}
