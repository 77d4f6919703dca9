package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"kinly/internal/model"
	"kinly/internal/store"
)

// Cursor is the builder selection as carried in the URL. Empty fields mean
// "pick the default".
type Cursor struct {
	WorldID string
	Section string
}

type Builder struct {
	IP     model.IP
	Worlds []model.World
	// World is nil while the IP has no worlds.
	World   *model.World
	Section string
	Items   []model.ContentItem
	// Counts maps section label to item count for the selected world.
	Counts map[string]int
}

func (b Builder) Cursor() Cursor {
	c := Cursor{Section: b.Section}
	if b.World != nil {
		c.WorldID = b.World.ID
	}
	return c
}

// Builder resolves cur against the IP's worlds and the taxonomy and loads
// the items under the resulting selection. An unknown world falls back to
// the newest one and an unknown section to the first label.
func (p *Portfolio) Builder(ctx context.Context, userID, ipID string, cur Cursor) (Builder, error) {
	ip, err := p.store.GetIP(ctx, userID, ipID)
	if err != nil {
		return Builder{}, err
	}
	worlds, err := p.store.ListWorlds(ctx, userID, ipID)
	if err != nil {
		return Builder{}, fmt.Errorf("list worlds: %w", err)
	}
	b := Builder{
		IP:      ip,
		Worlds:  worlds,
		Section: p.taxonomy.Resolve(cur.Section),
		Counts:  map[string]int{},
	}
	b.World = selectWorld(worlds, cur.WorldID)
	if b.World == nil {
		return b, nil
	}
	b.Items, err = p.store.ListItems(ctx, userID, b.World.ID, b.Section)
	if err != nil {
		return Builder{}, fmt.Errorf("list items: %w", err)
	}
	b.Counts, err = p.store.SectionCounts(ctx, userID, b.World.ID)
	if err != nil {
		return Builder{}, fmt.Errorf("section counts: %w", err)
	}
	return b, nil
}

func selectWorld(worlds []model.World, id string) *model.World {
	if len(worlds) == 0 {
		return nil
	}
	for i := range worlds {
		if worlds[i].ID == id {
			return &worlds[i]
		}
	}
	return &worlds[0]
}

func (p *Portfolio) CreateWorld(ctx context.Context, userID, ipID string, in model.WorldInput) (model.World, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return model.World{}, err
	}
	w := model.World{
		ID:        model.NewID(),
		IPID:      ipID,
		UserID:    userID,
		Name:      in.Name,
		CreatedAt: p.now().UTC(),
	}
	if err := p.store.CreateWorld(ctx, w); err != nil {
		return model.World{}, fmt.Errorf("create world: %w", err)
	}
	slog.Info("world created", "user", userID, "ip", ipID, "world", w.ID)
	return w, nil
}

func (p *Portfolio) CreateItem(ctx context.Context, userID, ipID string, in model.ItemInput) (model.ContentItem, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return model.ContentItem{}, err
	}
	if !p.taxonomy.Contains(in.Section) {
		return model.ContentItem{}, &model.ValidationError{Field: "section", Msg: "unknown section " + in.Section}
	}
	it := model.ContentItem{
		ID:        model.NewID(),
		WorldID:   in.WorldID,
		IPID:      ipID,
		UserID:    userID,
		Section:   in.Section,
		Title:     in.Title,
		Body:      in.Body,
		CreatedAt: p.now().UTC(),
	}
	if err := p.store.CreateItem(ctx, it); err != nil {
		return model.ContentItem{}, fmt.Errorf("create item: %w", err)
	}
	slog.Info("item created", "user", userID, "world", it.WorldID, "item", it.ID)
	return it, nil
}

// Item looks up one item through the selected world's listing; it is used
// by the delete confirmation page.
func (p *Portfolio) Item(ctx context.Context, userID, ipID, itemID string, cur Cursor) (model.ContentItem, error) {
	b, err := p.Builder(ctx, userID, ipID, cur)
	if err != nil {
		return model.ContentItem{}, err
	}
	for _, it := range b.Items {
		if it.ID == itemID {
			return it, nil
		}
	}
	return model.ContentItem{}, store.ErrNotFound
}

func (p *Portfolio) DeleteItem(ctx context.Context, userID, itemID string) error {
	if err := p.store.DeleteItem(ctx, userID, itemID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete item: %w", err)
	}
	slog.Info("item deleted", "user", userID, "item", itemID)
	return nil
}
