package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/erazemk/trgovina/internal/db"
	"github.com/erazemk/trgovina/internal/model"
)

// Store owns the items, sales, invoices and alerts collections. Writes are
// serialized; reads run against the last committed state.
type Store struct {
	db  *sqlx.DB
	log zerolog.Logger
	now func() time.Time
	loc *time.Location

	// mu is held for the whole of every write transaction.
	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLocation sets the zone that defines "today". Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) { s.loc = loc }
}

// New wraps an already migrated database.
func New(database *sqlx.DB, opts ...Option) *Store {
	s := &Store{
		db:  database,
		log: zerolog.Nop(),
		now: time.Now,
		loc: time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open opens (or creates) the database at path. A corrupt file is moved aside
// and the store starts empty.
func Open(path string, opts ...Option) (*Store, error) {
	database, moved, err := db.OpenOrRecover(path)
	if err != nil {
		return nil, &model.StorageError{Op: "opening store", Err: err}
	}
	s := New(database, opts...)
	if moved != "" {
		s.log.Warn().Str("path", path).Str("moved_to", moved).
			Msg("database was corrupt, starting with an empty store")
	}
	return s, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// withTx runs fn in a write transaction and commits if it returns nil.
func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storageErr(op, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return storageErr(op, err)
	}
	if err := tx.Commit(); err != nil {
		return storageErr(op, fmt.Errorf("committing: %w", err))
	}
	return nil
}

// storageErr passes domain errors through unchanged and wraps everything else
// as a storage failure.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, model.ErrValidation) || errors.Is(err, model.ErrNotFound) ||
		errors.Is(err, model.ErrInsufficientStock) || errors.Is(err, model.ErrImportFormat) ||
		errors.Is(err, model.ErrStorage) {
		return err
	}
	return &model.StorageError{Op: op, Err: err}
}

// timeLayout is fixed width so that stored timestamps sort as text.
const timeLayout = "2006-01-02 15:04:05.000000000-07:00"

func dbTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// startOfDay returns local midnight of the day containing t.
func (s *Store) startOfDay(t time.Time) time.Time {
	t = t.In(s.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
}
