// Package store defines the repository every page and CLI command goes
// through. Every read and write is scoped by the owning user id, so a row
// that belongs to someone else is indistinguishable from a missing one.
package store

import (
	"context"
	"errors"
	"time"

	"kinly/internal/model"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

type Users interface {
	// CreateUser returns ErrConflict when the email is already registered.
	CreateUser(ctx context.Context, u model.User) error
	GetUser(ctx context.Context, id string) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	ConfirmUser(ctx context.Context, id string, at time.Time) error
	SetPasswordHash(ctx context.Context, id, hash string) error
}

type IPs interface {
	CreateIP(ctx context.Context, ip model.IP) error
	GetIP(ctx context.Context, userID, id string) (model.IP, error)
	// ListIPs returns the user's IPs newest first.
	ListIPs(ctx context.Context, userID string) ([]model.IP, error)
	// UpdateIP writes title, description, owner and updated_at of the row
	// matching ip.ID and ip.UserID.
	UpdateIP(ctx context.Context, ip model.IP) error
	// DeleteIP removes the IP with its worlds and items in one transaction.
	DeleteIP(ctx context.Context, userID, id string) error
}

type Worlds interface {
	// CreateWorld returns ErrNotFound unless w.IPID is owned by w.UserID.
	CreateWorld(ctx context.Context, w model.World) error
	// ListWorlds returns the worlds of one IP newest first.
	ListWorlds(ctx context.Context, userID, ipID string) ([]model.World, error)
	CountWorlds(ctx context.Context, userID string) (int, error)
}

type Items interface {
	// CreateItem returns ErrNotFound unless the world is owned by the same
	// user and belongs to it.IPID.
	CreateItem(ctx context.Context, it model.ContentItem) error
	// ListItems returns the items of one world and section newest first.
	ListItems(ctx context.Context, userID, worldID, section string) ([]model.ContentItem, error)
	// SectionCounts maps section label to item count for one world.
	SectionCounts(ctx context.Context, userID, worldID string) (map[string]int, error)
	DeleteItem(ctx context.Context, userID, id string) error
	CountItems(ctx context.Context, userID string) (int, error)
}

type Store interface {
	Users
	IPs
	Worlds
	Items
	// DeleteUserData removes every IP, world and item owned by userID in
	// one transaction. The user row is kept.
	DeleteUserData(ctx context.Context, userID string) error
	Ping(ctx context.Context) error
	Close() error
}
