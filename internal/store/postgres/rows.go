package postgres

import (
	"time"

	"kinly/internal/model"
)

type userRow struct {
	ID           string `gorm:"primaryKey;type:text"`
	Email        string `gorm:"type:text;uniqueIndex;not null"`
	PasswordHash string `gorm:"type:text;not null"`
	ConfirmedAt  *time.Time
	CreatedAt    time.Time `gorm:"not null"`
}

func (userRow) TableName() string { return "users" }

// Seq columns break created_at ties so newest-first listings follow
// insert order.
type ipRow struct {
	ID          string    `gorm:"primaryKey;type:text"`
	Seq         int64     `gorm:"autoIncrement"`
	UserID      string    `gorm:"type:text;not null;index:ips_by_user_created,priority:1"`
	Title       string    `gorm:"type:text;not null"`
	Description string    `gorm:"type:text;not null"`
	Owner       string    `gorm:"type:text;not null"`
	CreatedAt   time.Time `gorm:"not null;index:ips_by_user_created,priority:2"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (ipRow) TableName() string { return "ips" }

type worldRow struct {
	ID        string    `gorm:"primaryKey;type:text"`
	Seq       int64     `gorm:"autoIncrement"`
	IPID      string    `gorm:"column:ip_id;type:text;not null;index:worlds_by_ip,priority:1"`
	UserID    string    `gorm:"type:text;not null;index:worlds_by_ip,priority:2"`
	Name      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (worldRow) TableName() string { return "worlds" }

type itemRow struct {
	ID        string    `gorm:"primaryKey;type:text"`
	Seq       int64     `gorm:"autoIncrement"`
	WorldID   string    `gorm:"type:text;not null;index:content_items_by_world_section,priority:1"`
	IPID      string    `gorm:"column:ip_id;type:text;not null;index"`
	UserID    string    `gorm:"type:text;not null"`
	Section   string    `gorm:"type:text;not null;index:content_items_by_world_section,priority:2"`
	Title     string    `gorm:"type:text;not null"`
	Body      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (itemRow) TableName() string { return "content_items" }

func (r userRow) model() model.User {
	u := model.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
	}
	if r.ConfirmedAt != nil {
		at := r.ConfirmedAt.UTC()
		u.ConfirmedAt = &at
	}
	return u
}

func (r ipRow) model() model.IP {
	return model.IP{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Description: r.Description,
		Owner:       r.Owner,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func (r worldRow) model() model.World {
	return model.World{
		ID:        r.ID,
		IPID:      r.IPID,
		UserID:    r.UserID,
		Name:      r.Name,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

func (r itemRow) model() model.ContentItem {
	return model.ContentItem{
		ID:        r.ID,
		WorldID:   r.WorldID,
		IPID:      r.IPID,
		UserID:    r.UserID,
		Section:   r.Section,
		Title:     r.Title,
		Body:      r.Body,
		CreatedAt: r.CreatedAt.UTC(),
	}
}
