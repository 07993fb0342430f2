// Package ingest imports listening history from external providers
// into the local database.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tasteline/tasteline/internal/analytics"
	"github.com/tasteline/tasteline/internal/store"
)

// Common errors.
var (
	// ErrIngestTooRecent is returned when an import is attempted within
	// the cooldown period.
	ErrIngestTooRecent = errors.New("ingest attempted too recently")
)

// DefaultCooldown is the default minimum time between imports per user.
const DefaultCooldown = 15 * time.Minute

// Source yields recently played tracks for import. Implementations
// return events in any order; de-duplication happens at the database.
type Source interface {
	RecentlyPlayed(ctx context.Context) ([]analytics.ListeningEvent, error)
}

// Service imports listening history from a Source into the database.
type Service struct {
	db          *store.DB
	cooldown    time.Duration
	invalidator analytics.Invalidator
	now         func() time.Time
	log         zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCooldown sets the minimum time between imports per user.
func WithCooldown(d time.Duration) Option {
	return func(s *Service) {
		s.cooldown = d
	}
}

// WithInvalidator sets the cache invalidation callback fired after a
// successful import.
func WithInvalidator(inv analytics.Invalidator) Option {
	return func(s *Service) {
		s.invalidator = inv
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLogger sets the service logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// New creates an ingest service.
func New(database *store.DB, opts ...Option) *Service {
	s := &Service{
		db:       database,
		cooldown: DefaultCooldown,
		now:      time.Now,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result describes a completed import.
type Result struct {
	Fetched    int       `json:"fetched"`
	Inserted   int       `json:"inserted"`
	IngestedAt time.Time `json:"ingestedAt"`
}

// CanIngest reports whether enough time has passed since the user's
// last import, and when the next import becomes available if not.
func (s *Service) CanIngest(ctx context.Context, userID string) (bool, time.Time, error) {
	user, err := s.db.Users().Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		// New user, allow.
		return true, time.Time{}, nil
	}
	if err != nil {
		return false, time.Time{}, fmt.Errorf("getting user: %w", err)
	}

	if user.LastIngestAt == nil {
		return true, time.Time{}, nil
	}

	next := user.LastIngestAt.Add(s.cooldown)
	if s.now().Before(next) {
		return false, next, nil
	}
	return true, time.Time{}, nil
}

// Run fetches recently played tracks from the source and persists them
// for the user. Returns ErrIngestTooRecent if called within the
// cooldown period; set force=true to bypass the check.
func (s *Service) Run(ctx context.Context, src Source, userID string, force bool) (*Result, error) {
	if !force {
		ok, next, err := s.CanIngest(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: next ingest available at %s", ErrIngestTooRecent, next.Format(time.RFC3339))
		}
	}

	if err := s.db.Users().Ensure(ctx, userID); err != nil {
		return nil, err
	}

	events, err := src.RecentlyPlayed(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching recently played: %w", err)
	}
	for i := range events {
		events[i].UserID = userID
	}

	inserted := 0
	if len(events) > 0 {
		inserted, err = s.db.Listening().InsertBatch(ctx, events)
		if err != nil {
			return nil, fmt.Errorf("inserting listening events: %w", err)
		}
	}

	ingestedAt := s.now()
	if err := s.db.Users().SetLastIngest(ctx, userID, ingestedAt); err != nil {
		return nil, fmt.Errorf("updating last ingest: %w", err)
	}

	if inserted > 0 && s.invalidator != nil {
		s.invalidator.Invalidate(userID)
	}

	s.log.Info().
		Str("user_id", userID).
		Int("fetched", len(events)).
		Int("inserted", inserted).
		Msg("listening history imported")

	return &Result{
		Fetched:    len(events),
		Inserted:   inserted,
		IngestedAt: ingestedAt,
	}, nil
}
