package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kinly/internal/model"
	"kinly/internal/store"
)

const userColumns = "id, email, password_hash, confirmed_at, created_at"

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var (
		u         model.User
		confirmed sql.NullInt64
		created   int64
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &confirmed, &created); err != nil {
		return model.User{}, err
	}
	if confirmed.Valid {
		at := fromStamp(confirmed.Int64)
		u.ConfirmedAt = &at
	}
	u.CreatedAt = fromStamp(created)
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u model.User) error {
	var confirmed any
	if u.ConfirmedAt != nil {
		confirmed = u.ConfirmedAt.UTC().UnixNano()
	}
	_, err := s.execContext(ctx,
		"INSERT INTO users(id, email, password_hash, confirmed_at, created_at) VALUES(?, ?, ?, ?, ?)",
		u.ID, model.NormalizeEmail(u.Email), u.PasswordHash, confirmed, s.stamp(u.CreatedAt))
	if isUniqueViolation(err) {
		return fmt.Errorf("create user %s: %w", u.Email, store.ErrConflict)
	}
	return err
}

func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	var u model.User
	err := s.retry(ctx, "query row", "get user", []any{id}, func() error {
		var err error
		u, err = scanUser(s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id=?", id))
		return err
	})
	return u, notFound(err)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	email = model.NormalizeEmail(email)
	err := s.retry(ctx, "query row", "get user by email", []any{email}, func() error {
		var err error
		u, err = scanUser(s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email=?", email))
		return err
	})
	return u, notFound(err)
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.queryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY email")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) ConfirmUser(ctx context.Context, id string, at time.Time) error {
	res, err := s.execContext(ctx,
		"UPDATE users SET confirmed_at=COALESCE(confirmed_at, ?) WHERE id=?", s.stamp(at), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *Store) SetPasswordHash(ctx context.Context, id, hash string) error {
	res, err := s.execContext(ctx, "UPDATE users SET password_hash=? WHERE id=?", hash, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
