package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/japaniel/mythos/pkg/store"
)

// Store implements store.Store over a *sql.DB.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at path and runs InitDB. ":memory:"
// is allowed and is pinned to one connection.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// Ensure single connection to avoid separate in-memory DBs per connection.
	conn.SetMaxOpenConns(1)
	if err := InitDB(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return New(conn), nil
}

// New wraps an already initialised connection.
func New(conn *sql.DB) *Store {
	return &Store{db: conn, now: func() time.Time { return time.Now().UTC() }}
}

// DB exposes the connection for inspection in tests and tools.
func (s *Store) DB() *sql.DB { return s.db }

// Get implements store.Store.
func (s *Store) Get(ctx context.Context, id string) (*store.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return GetEntity(s.db, id)
}

// Commit applies ops inside one transaction; any failure rolls back the
// whole batch.
func (s *Store) Commit(ctx context.Context, ops []store.Op) error {
	if len(ops) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()

	now := s.now()
	for _, op := range ops {
		switch op.Kind {
		case store.Insert:
			err = InsertEntity(tx, op.Doc, now)
		case store.Update:
			err = UpsertEntity(tx, op.Doc, now)
		default:
			err = fmt.Errorf("unknown op %v for %s", op.Kind, op.Doc.ID)
		}
		if err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch (%d items): %w", len(ops), err)
	}
	return nil
}

// Count implements store.Store.
func (s *Store) Count(ctx context.Context, field, value string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return CountEntities(s.db, field, value)
}

// Close closes the connection.
func (s *Store) Close() error { return s.db.Close() }
