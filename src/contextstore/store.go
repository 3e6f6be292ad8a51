package contextstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"life_tracker/src/logger"
	"life_tracker/src/model"
	"life_tracker/src/storage"
)

const (
	// DefaultTTL is the sliding idle window applied on every access
	DefaultTTL = 24 * time.Hour
	// DefaultKeyPrefix namespaces context records in the backing service
	DefaultKeyPrefix = "context:"
	// DefaultOpTimeout bounds a single backend round trip
	DefaultOpTimeout = 2 * time.Second
)

// Updates is a shallow partial update keyed by record field name
// (see the model.Field* constants). Each key replaces the whole field;
// a nil value clears a nullable field.
type Updates map[string]any

// Store keeps one context record per user in a shared Backend with a
// sliding TTL. It holds no in-process state, so any number of workers can
// share the same backend.
type Store struct {
	backend   storage.Backend
	ttl       time.Duration
	prefix    string
	opTimeout time.Duration
	now       func() time.Time
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithKeyPrefix overrides the key namespace
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// WithOpTimeout bounds every backend round trip. Zero disables the bound.
func WithOpTimeout(d time.Duration) Option {
	return func(s *Store) { s.opTimeout = d }
}

// New creates a Store on top of backend. A non-positive ttl falls back to DefaultTTL.
func New(backend storage.Backend, ttl time.Duration, opts ...Option) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		backend:   backend,
		ttl:       ttl,
		prefix:    DefaultKeyPrefix,
		opTimeout: DefaultOpTimeout,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the configured sliding window
func (s *Store) TTL() time.Duration {
	return s.ttl
}

func (s *Store) key(userID string) string {
	return s.prefix + userID
}

func (s *Store) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

// GetContext returns the user's record, creating and persisting the default
// record on first access. Every call resets the TTL to the full window.
// Backend failures return ErrUnavailable; a default is never substituted.
func (s *Store) GetContext(ctx context.Context, userID string) (*model.ContextRecord, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	key := s.key(userID)

	rec, err := s.read(ctx, key)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	rec = model.NewContextRecord(s.now())
	data, err := encodeRecord(rec)
	if err != nil {
		return nil, err
	}

	opCtx, cancel := s.opContext(ctx)
	created, err := s.backend.SetIfAbsent(opCtx, key, data, s.ttl)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", ErrUnavailable, key, err)
	}
	if created {
		logger.Debug().Str("key", key).Msg("Context record created")
		return rec, nil
	}

	// Another worker created the record between our read and write.
	rec, err = s.read(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s vanished during creation", ErrUnavailable, key)
	}
	return rec, err
}

// read fetches and decodes a record while refreshing its TTL
func (s *Store) read(ctx context.Context, key string) (*model.ContextRecord, error) {
	opCtx, cancel := s.opContext(ctx)
	data, err := s.backend.GetAndTouch(opCtx, key, s.ttl)
	cancel()
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: read %s: %w", ErrUnavailable, key, err)
	}

	rec, err := decodeRecord(data)
	if err != nil {
		logger.Error().Err(err).Str("key", key).Msg("Stored context record is malformed")
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedRecord, key, err)
	}
	return rec, nil
}

// UpdateContext applies updates onto the current record, stamps
// last_updated and writes the full record back with a fresh TTL.
// Concurrent updates for the same user race; the last write wins.
func (s *Store) UpdateContext(ctx context.Context, userID string, updates Updates) error {
	rec, err := s.GetContext(ctx, userID)
	if err != nil {
		return err
	}

	merged, err := applyUpdates(rec, updates)
	if err != nil {
		return err
	}
	return s.Save(ctx, userID, merged)
}

// Save writes a full record for userID with a fresh TTL and stamps last_updated
func (s *Store) Save(ctx context.Context, userID string, rec *model.ContextRecord) error {
	if userID == "" {
		return ErrInvalidUserID
	}
	key := s.key(userID)

	rec.LastUpdated = s.now().UTC()
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	opCtx, cancel := s.opContext(ctx)
	defer cancel()
	if err := s.backend.Set(opCtx, key, data, s.ttl); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrUnavailable, key, err)
	}
	return nil
}

// Ping checks that the backing service answers
func (s *Store) Ping(ctx context.Context) error {
	opCtx, cancel := s.opContext(ctx)
	defer cancel()
	if err := s.backend.Ping(opCtx); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}
