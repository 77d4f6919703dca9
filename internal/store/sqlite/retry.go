package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

func isSQLiteBusy(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code() & 0xff
	return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func retryDelay(attempt int) time.Duration {
	delay := time.Duration(attempt+1) * 40 * time.Millisecond
	if delay > 300*time.Millisecond {
		delay = 300 * time.Millisecond
	}
	return delay
}

func caller(skip int) string {
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return "unknown"
	}
	return file + ":" + fmt.Sprint(line)
}

// retry runs fn until it succeeds, fails with a non-busy error, the
// context ends or the lock timeout passes.
func (s *Store) retry(ctx context.Context, kind, query string, args []any, fn func() error) error {
	slog.Debug("sql "+kind, "query", query, "args", args, "caller", caller(2))
	start := time.Now()
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !isSQLiteBusy(err) {
			slog.Debug("sql "+kind+" done", "duration_ms", time.Since(start).Milliseconds(), "attempts", attempt+1, "err", err)
			return err
		}
		if s.lockTimeout <= 0 {
			slog.Debug("sql "+kind+" done", "duration_ms", time.Since(start).Milliseconds(), "attempts", attempt+1, "err", err, "reason", "no-timeout")
			return err
		}
		if ctx.Err() != nil {
			slog.Debug("sql "+kind+" done", "duration_ms", time.Since(start).Milliseconds(), "attempts", attempt+1, "err", ctx.Err(), "reason", "context")
			return ctx.Err()
		}
		if time.Since(start) >= s.lockTimeout {
			slog.Debug("sql "+kind+" done", "duration_ms", time.Since(start).Milliseconds(), "attempts", attempt+1, "err", err, "reason", "timeout")
			return err
		}
		slog.Debug("sql "+kind+" busy", "query", query, "attempt", attempt+1, "err", err)
		time.Sleep(retryDelay(attempt))
	}
}

func (s *Store) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := s.retry(ctx, "exec", query, args, func() error {
		var err error
		res, err = s.db.ExecContext(ctx, query, args...)
		return err
	})
	return res, err
}

func (s *Store) queryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	var rows *sql.Rows
	err := s.retry(ctx, "query", query, args, func() error {
		var err error
		rows, err = s.db.QueryContext(ctx, query, args...)
		return err
	})
	return rows, err
}

// queryRowScan runs a single-row query and scans it, retrying the pair on
// busy errors.
func (s *Store) queryRowScan(ctx context.Context, query string, args []any, dest ...any) error {
	return s.retry(ctx, "query row", query, args, func() error {
		return s.db.QueryRowContext(ctx, query, args...).Scan(dest...)
	})
}

// inTx runs fn inside one transaction. A busy error anywhere in fn rolls
// back and restarts the whole transaction.
func (s *Store) inTx(ctx context.Context, name string, fn func(tx *sql.Tx) error) error {
	return s.retry(ctx, "tx", name, nil, func() error {
		tx, start, err := s.beginTx(ctx, name)
		if err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			s.rollbackTx(tx, name, start)
			return err
		}
		return s.commitTx(tx, name, start)
	})
}

func (s *Store) beginTx(ctx context.Context, name string) (*sql.Tx, time.Time, error) {
	start := time.Now()
	slog.Debug("sql tx begin", "op", name)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Error("sql tx begin failed", "op", name, "err", err)
		return nil, start, err
	}
	return tx, start, nil
}

func (s *Store) commitTx(tx *sql.Tx, name string, start time.Time) error {
	if tx == nil {
		return sql.ErrTxDone
	}
	err := tx.Commit()
	slog.Debug("sql tx commit", "op", name, "duration_ms", time.Since(start).Milliseconds(), "err", err)
	return err
}

func (s *Store) rollbackTx(tx *sql.Tx, name string, start time.Time) {
	if tx == nil {
		return
	}
	err := tx.Rollback()
	if err == sql.ErrTxDone {
		slog.Debug("sql tx rollback", "op", name, "duration_ms", time.Since(start).Milliseconds(), "err", err)
		return
	}
	if err != nil {
		slog.Warn("sql tx rollback failed", "op", name, "duration_ms", time.Since(start).Milliseconds(), "err", err)
		return
	}
	slog.Debug("sql tx rollback", "op", name, "duration_ms", time.Since(start).Milliseconds())
}
