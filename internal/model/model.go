package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	ConfirmedAt  *time.Time
	CreatedAt    time.Time
}

func (u User) Confirmed() bool {
	return u.ConfirmedAt != nil
}

// DisplayName is the local part of the email, as shown in the settings menu.
func (u User) DisplayName() string {
	name, _, _ := strings.Cut(u.Email, "@")
	if name == "" {
		return "User"
	}
	return name
}

type IP struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Owner       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type World struct {
	ID        string
	IPID      string
	UserID    string
	Name      string
	CreatedAt time.Time
}

type ContentItem struct {
	ID        string
	WorldID   string
	IPID      string
	UserID    string
	Section   string
	Title     string
	Body      string
	CreatedAt time.Time
}

func NewID() string {
	return uuid.NewString()
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
