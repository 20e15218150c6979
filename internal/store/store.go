package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"dealership/internal/domain"
	"dealership/internal/models"
	"dealership/internal/worker"

	"github.com/rs/zerolog"
)

// Store owns every record collection, the service request queue and the admin
// action log. Calls are serialised; each Update is one unit of work whose
// dirtied collections are persisted together.
type Store struct {
	mu        sync.RWMutex
	st        *state
	persister domain.Persister
	retry     worker.RetryPolicy
	now       func() time.Time
	logger    *zerolog.Logger
}

type Option func(*Store)

// WithClock overrides time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithRetryPolicy(p worker.RetryPolicy) Option {
	return func(s *Store) { s.retry = p }
}

func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New builds an empty store. A nil persister keeps everything in memory.
func New(persister domain.Persister, opts ...Option) *Store {
	nop := zerolog.Nop()
	s := &Store{
		st:        newState(),
		persister: persister,
		retry:     worker.DefaultRetryPolicy(),
		now:       time.Now,
		logger:    &nop,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory state with what the persister holds.
func (s *Store) Load(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}

	snap, err := s.persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	s.mu.Lock()
	s.st = stateFromSnapshot(snap)
	s.mu.Unlock()

	s.logger.Info().
		Int("cars", len(snap.Cars)).
		Int("customers", len(snap.Customers)).
		Int("showrooms", len(snap.Showrooms)).
		Int("garages", len(snap.Garages)).
		Int("services", len(snap.Services)).
		Int("reservations", len(snap.Reservations)).
		Int("queued_requests", len(snap.ServiceRequests)).
		Int("admin_actions", len(snap.AdminActions)).
		Msg("records loaded")
	return nil
}

// Flush writes every collection.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persist(ctx, s.st.snapshot(), models.AllCollections)
}

func (s *Store) Now() time.Time {
	return s.now().Truncate(time.Second)
}

// Snapshot returns a copy of the full state.
func (s *Store) Snapshot() *models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.snapshot()
}

// IsEmpty reports whether no catalogue record exists yet.
func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.st.cars) == 0 && len(s.st.showrooms) == 0 &&
		len(s.st.garages) == 0 && len(s.st.services) == 0
}

// View runs fn against the current state without allowing mutation.
func (s *Store) View(fn func(r *Reader) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&Reader{st: s.st})
}

// Update runs fn against a private copy of the state. When fn fails nothing
// changes. Otherwise the collections fn touched are saved in one call and the
// copy becomes the current state; a save failure discards it as well.
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	tx := newTx(work, s.Now())
	if err := fn(tx); err != nil {
		return err
	}

	if cols := tx.collections(); len(cols) > 0 {
		if err := s.persist(ctx, work.snapshot(), cols); err != nil {
			return err
		}
	}

	s.st = work
	return nil
}

func (s *Store) persist(ctx context.Context, snap *models.Snapshot, cols []models.Collection) error {
	if s.persister == nil {
		return nil
	}

	err := s.retry.Do(ctx, func() error {
		return s.persister.Save(ctx, snap, cols...)
	}, func(attempt int, err error) {
		s.logger.Warn().Err(err).Int("attempt", attempt).Interface("collections", cols).Msg("save failed, retrying")
	})
	if err != nil {
		s.logger.Error().Err(err).Interface("collections", cols).Msg("save failed")
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}
