// Package sqlite is the default single-node store, backed by
// modernc.org/sqlite through database/sql.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	_ "modernc.org/sqlite"

	"kinly/internal/store"
)

type Options struct {
	// BusyTimeout is handed to SQLite's busy_timeout pragma.
	BusyTimeout time.Duration
	// LockTimeout bounds how long busy statements are retried.
	LockTimeout  time.Duration
	MaxOpenConns int
}

type Store struct {
	db          *sql.DB
	lockTimeout time.Duration
	now         func() time.Time
}

var _ store.Store = (*Store)(nil)

func Open(ctx context.Context, path string, opts Options) (*Store, error) {
	busy := opts.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy.Milliseconds()))
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	db, err := sql.Open("sqlite", "file:"+path+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	s := &Store{db: db, lockTimeout: opts.LockTimeout, now: time.Now}
	if err := s.init(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init sqlite store: %w", err)
	}
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	if _, err := s.execContext(ctx, schemaSQL); err != nil {
		return err
	}
	version, err := s.schemaVersion(ctx)
	if err != nil {
		return err
	}
	if version == schemaVersion {
		return nil
	}
	if version > schemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported %d", version, schemaVersion)
	}
	return s.inTx(ctx, "set schema version", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM schema_version"); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "INSERT INTO schema_version(version) VALUES(?)", schemaVersion)
		return err
	})
}

func (s *Store) schemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.queryRowScan(ctx, "SELECT version FROM schema_version LIMIT 1", nil, &v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return v, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) stamp(t time.Time) int64 {
	if t.IsZero() {
		t = s.now()
	}
	return t.UTC().UnixNano()
}

func fromStamp(v int64) time.Time {
	return time.Unix(0, v).UTC()
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
