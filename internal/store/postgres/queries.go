package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"kinly/internal/model"
)

func (s *Store) CreateUser(ctx context.Context, u model.User) error {
	row := userRow{
		ID:           u.ID,
		Email:        model.NormalizeEmail(u.Email),
		PasswordHash: u.PasswordHash,
		CreatedAt:    s.stamp(u.CreatedAt),
	}
	if u.ConfirmedAt != nil {
		at := u.ConfirmedAt.UTC()
		row.ConfirmedAt = &at
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create user %s: %w", u.Email, mapErr(err))
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return model.User{}, mapErr(err)
	}
	return row.model(), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).Where("email = ?", model.NormalizeEmail(email)).Take(&row).Error; err != nil {
		return model.User{}, mapErr(err)
	}
	return row.model(), nil
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	var rows []userRow
	if err := s.db.WithContext(ctx).Order("email").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.User, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (s *Store) ConfirmUser(ctx context.Context, id string, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", id).
		Update("confirmed_at", gorm.Expr("COALESCE(confirmed_at, ?)", s.stamp(at)))
	return requireAffected(res)
}

func (s *Store) SetPasswordHash(ctx context.Context, id, hash string) error {
	res := s.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", id).Update("password_hash", hash)
	return requireAffected(res)
}

func (s *Store) CreateIP(ctx context.Context, ip model.IP) error {
	created := s.stamp(ip.CreatedAt)
	updated := created
	if !ip.UpdatedAt.IsZero() {
		updated = ip.UpdatedAt.UTC()
	}
	row := ipRow{
		ID:          ip.ID,
		UserID:      ip.UserID,
		Title:       ip.Title,
		Description: ip.Description,
		Owner:       ip.Owner,
		CreatedAt:   created,
		UpdatedAt:   updated,
	}
	return mapErr(s.db.WithContext(ctx).Create(&row).Error)
}

func (s *Store) GetIP(ctx context.Context, userID, id string) (model.IP, error) {
	var row ipRow
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Take(&row).Error; err != nil {
		return model.IP{}, mapErr(err)
	}
	return row.model(), nil
}

func (s *Store) ListIPs(ctx context.Context, userID string) ([]model.IP, error) {
	var rows []ipRow
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC, seq DESC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]model.IP, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (s *Store) UpdateIP(ctx context.Context, ip model.IP) error {
	res := s.db.WithContext(ctx).Model(&ipRow{}).
		Where("id = ? AND user_id = ?", ip.ID, ip.UserID).
		Updates(map[string]any{
			"title":       ip.Title,
			"description": ip.Description,
			"owner":       ip.Owner,
			"updated_at":  s.stamp(ip.UpdatedAt),
		})
	return requireAffected(res)
}

func (s *Store) DeleteIP(ctx context.Context, userID, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ip_id = ? AND user_id = ?", id, userID).Delete(&itemRow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("ip_id = ? AND user_id = ?", id, userID).Delete(&worldRow{}).Error; err != nil {
			return err
		}
		return requireAffected(tx.Where("id = ? AND user_id = ?", id, userID).Delete(&ipRow{}))
	})
}

func (s *Store) DeleteUserData(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := tx.Model(&ipRow{}).Select("id").Where("user_id = ?", userID)
		if err := tx.Where("ip_id IN (?)", owned).Delete(&itemRow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("ip_id IN (?)", owned).Delete(&worldRow{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).Delete(&ipRow{}).Error
	})
}

func (s *Store) CreateWorld(ctx context.Context, w model.World) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ip ipRow
		if err := tx.Select("id").Where("id = ? AND user_id = ?", w.IPID, w.UserID).
			Clauses(lockShare()).Take(&ip).Error; err != nil {
			return mapErr(err)
		}
		row := worldRow{
			ID:        w.ID,
			IPID:      w.IPID,
			UserID:    w.UserID,
			Name:      w.Name,
			CreatedAt: s.stamp(w.CreatedAt),
		}
		return mapErr(tx.Create(&row).Error)
	})
}

func (s *Store) ListWorlds(ctx context.Context, userID, ipID string) ([]model.World, error) {
	var rows []worldRow
	err := s.db.WithContext(ctx).Where("ip_id = ? AND user_id = ?", ipID, userID).
		Order("created_at DESC, seq DESC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]model.World, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (s *Store) CountWorlds(ctx context.Context, userID string) (int, error) {
	var n int64
	db := s.db.WithContext(ctx)
	owned := db.Model(&ipRow{}).Select("id").Where("user_id = ?", userID)
	err := db.Model(&worldRow{}).Where("ip_id IN (?)", owned).Count(&n).Error
	return int(n), err
}

func (s *Store) CreateItem(ctx context.Context, it model.ContentItem) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var w worldRow
		if err := tx.Select("id").
			Where("id = ? AND ip_id = ? AND user_id = ?", it.WorldID, it.IPID, it.UserID).
			Clauses(lockShare()).Take(&w).Error; err != nil {
			return mapErr(err)
		}
		row := itemRow{
			ID:        it.ID,
			WorldID:   it.WorldID,
			IPID:      it.IPID,
			UserID:    it.UserID,
			Section:   it.Section,
			Title:     it.Title,
			Body:      it.Body,
			CreatedAt: s.stamp(it.CreatedAt),
		}
		return mapErr(tx.Create(&row).Error)
	})
}

func (s *Store) ListItems(ctx context.Context, userID, worldID, section string) ([]model.ContentItem, error) {
	var rows []itemRow
	err := s.db.WithContext(ctx).
		Where("world_id = ? AND section = ? AND user_id = ?", worldID, section, userID).
		Order("created_at DESC, seq DESC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]model.ContentItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

func (s *Store) SectionCounts(ctx context.Context, userID, worldID string) (map[string]int, error) {
	var rows []struct {
		Section string
		N       int
	}
	err := s.db.WithContext(ctx).Model(&itemRow{}).
		Select("section, COUNT(*) AS n").
		Where("world_id = ? AND user_id = ?", worldID, userID).
		Group("section").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.Section] = r.N
	}
	return out, nil
}

func (s *Store) DeleteItem(ctx context.Context, userID, id string) error {
	return requireAffected(s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&itemRow{}))
}

func (s *Store) CountItems(ctx context.Context, userID string) (int, error) {
	var n int64
	db := s.db.WithContext(ctx)
	owned := db.Model(&ipRow{}).Select("id").Where("user_id = ?", userID)
	err := db.Model(&itemRow{}).Where("ip_id IN (?)", owned).Count(&n).Error
	return int(n), err
}
