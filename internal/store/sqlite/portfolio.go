package sqlite

import (
	"context"
	"database/sql"

	"kinly/internal/model"
)

const ipColumns = "id, user_id, title, description, owner, created_at, updated_at"

func scanIP(row interface{ Scan(...any) error }) (model.IP, error) {
	var (
		ip               model.IP
		created, updated int64
	)
	if err := row.Scan(&ip.ID, &ip.UserID, &ip.Title, &ip.Description, &ip.Owner, &created, &updated); err != nil {
		return model.IP{}, err
	}
	ip.CreatedAt = fromStamp(created)
	ip.UpdatedAt = fromStamp(updated)
	return ip, nil
}

func (s *Store) CreateIP(ctx context.Context, ip model.IP) error {
	created := s.stamp(ip.CreatedAt)
	updated := created
	if !ip.UpdatedAt.IsZero() {
		updated = s.stamp(ip.UpdatedAt)
	}
	_, err := s.execContext(ctx,
		"INSERT INTO ips(id, user_id, title, description, owner, created_at, updated_at) VALUES(?, ?, ?, ?, ?, ?, ?)",
		ip.ID, ip.UserID, ip.Title, ip.Description, ip.Owner, created, updated)
	return err
}

func (s *Store) GetIP(ctx context.Context, userID, id string) (model.IP, error) {
	var ip model.IP
	err := s.retry(ctx, "query row", "get ip", []any{userID, id}, func() error {
		var err error
		ip, err = scanIP(s.db.QueryRowContext(ctx,
			"SELECT "+ipColumns+" FROM ips WHERE id=? AND user_id=?", id, userID))
		return err
	})
	return ip, notFound(err)
}

func (s *Store) ListIPs(ctx context.Context, userID string) ([]model.IP, error) {
	rows, err := s.queryContext(ctx,
		"SELECT "+ipColumns+" FROM ips WHERE user_id=? ORDER BY created_at DESC, rowid DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.IP
	for rows.Next() {
		ip, err := scanIP(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ip)
	}
	return out, rows.Err()
}

func (s *Store) UpdateIP(ctx context.Context, ip model.IP) error {
	res, err := s.execContext(ctx,
		"UPDATE ips SET title=?, description=?, owner=?, updated_at=? WHERE id=? AND user_id=?",
		ip.Title, ip.Description, ip.Owner, s.stamp(ip.UpdatedAt), ip.ID, ip.UserID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *Store) DeleteIP(ctx context.Context, userID, id string) error {
	return s.inTx(ctx, "delete ip", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM content_items WHERE ip_id=? AND user_id=?", id, userID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM worlds WHERE ip_id=? AND user_id=?", id, userID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM ips WHERE id=? AND user_id=?", id, userID)
		if err != nil {
			return err
		}
		return requireAffected(res)
	})
}

func (s *Store) DeleteUserData(ctx context.Context, userID string) error {
	return s.inTx(ctx, "delete user data", func(tx *sql.Tx) error {
		stmts := []string{
			"DELETE FROM content_items WHERE ip_id IN (SELECT id FROM ips WHERE user_id=?)",
			"DELETE FROM worlds WHERE ip_id IN (SELECT id FROM ips WHERE user_id=?)",
			"DELETE FROM ips WHERE user_id=?",
		}
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt, userID); err != nil {
				return err
			}
		}
		return nil
	})
}

const worldColumns = "id, ip_id, user_id, name, created_at"

func scanWorld(row interface{ Scan(...any) error }) (model.World, error) {
	var (
		w       model.World
		created int64
	)
	if err := row.Scan(&w.ID, &w.IPID, &w.UserID, &w.Name, &created); err != nil {
		return model.World{}, err
	}
	w.CreatedAt = fromStamp(created)
	return w, nil
}

func (s *Store) CreateWorld(ctx context.Context, w model.World) error {
	res, err := s.execContext(ctx,
		`INSERT INTO worlds(id, ip_id, user_id, name, created_at)
		SELECT ?, ?, ?, ?, ? WHERE EXISTS (SELECT 1 FROM ips WHERE id=? AND user_id=?)`,
		w.ID, w.IPID, w.UserID, w.Name, s.stamp(w.CreatedAt), w.IPID, w.UserID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *Store) ListWorlds(ctx context.Context, userID, ipID string) ([]model.World, error) {
	rows, err := s.queryContext(ctx,
		"SELECT "+worldColumns+" FROM worlds WHERE ip_id=? AND user_id=? ORDER BY created_at DESC, rowid DESC",
		ipID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.World
	for rows.Next() {
		w, err := scanWorld(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *Store) CountWorlds(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.queryRowScan(ctx,
		"SELECT COUNT(*) FROM worlds WHERE ip_id IN (SELECT id FROM ips WHERE user_id=?)",
		[]any{userID}, &n)
	return n, err
}

const itemColumns = "id, world_id, ip_id, user_id, section, title, body, created_at"

func scanItem(row interface{ Scan(...any) error }) (model.ContentItem, error) {
	var (
		it      model.ContentItem
		created int64
	)
	if err := row.Scan(&it.ID, &it.WorldID, &it.IPID, &it.UserID, &it.Section, &it.Title, &it.Body, &created); err != nil {
		return model.ContentItem{}, err
	}
	it.CreatedAt = fromStamp(created)
	return it, nil
}

func (s *Store) CreateItem(ctx context.Context, it model.ContentItem) error {
	res, err := s.execContext(ctx,
		`INSERT INTO content_items(id, world_id, ip_id, user_id, section, title, body, created_at)
		SELECT ?, ?, ?, ?, ?, ?, ?, ? WHERE EXISTS (SELECT 1 FROM worlds WHERE id=? AND ip_id=? AND user_id=?)`,
		it.ID, it.WorldID, it.IPID, it.UserID, it.Section, it.Title, it.Body, s.stamp(it.CreatedAt),
		it.WorldID, it.IPID, it.UserID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *Store) ListItems(ctx context.Context, userID, worldID, section string) ([]model.ContentItem, error) {
	rows, err := s.queryContext(ctx,
		"SELECT "+itemColumns+" FROM content_items WHERE world_id=? AND section=? AND user_id=? ORDER BY created_at DESC, rowid DESC",
		worldID, section, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.ContentItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *Store) SectionCounts(ctx context.Context, userID, worldID string) (map[string]int, error) {
	rows, err := s.queryContext(ctx,
		"SELECT section, COUNT(*) FROM content_items WHERE world_id=? AND user_id=? GROUP BY section",
		worldID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var (
			section string
			n       int
		)
		if err := rows.Scan(&section, &n); err != nil {
			return nil, err
		}
		out[section] = n
	}
	return out, rows.Err()
}

func (s *Store) DeleteItem(ctx context.Context, userID, id string) error {
	res, err := s.execContext(ctx, "DELETE FROM content_items WHERE id=? AND user_id=?", id, userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *Store) CountItems(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.queryRowScan(ctx,
		"SELECT COUNT(*) FROM content_items WHERE ip_id IN (SELECT id FROM ips WHERE user_id=?)",
		[]any{userID}, &n)
	return n, err
}
