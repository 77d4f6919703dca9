package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"kinly/internal/model"
	"kinly/internal/storage/fs"
	"kinly/internal/store"
	"kinly/internal/taxonomy"
)

// Portfolio is the IP, world and item side of the application. Inputs are
// validated before the store is touched.
type Portfolio struct {
	store    store.Store
	taxonomy *taxonomy.Taxonomy
	locks    *fs.Locker
	now      func() time.Time
}

func NewPortfolio(s store.Store, tax *taxonomy.Taxonomy) *Portfolio {
	if tax == nil {
		tax = taxonomy.Categorized()
	}
	return &Portfolio{store: s, taxonomy: tax, locks: fs.NewLocker(), now: time.Now}
}

func (p *Portfolio) Taxonomy() *taxonomy.Taxonomy {
	return p.taxonomy
}

type Dashboard struct {
	// IPs is the filtered list, newest first.
	IPs   []model.IP
	Query string
	Stats model.Stats
	// ListErr is set when the IP list failed to load. Stats.IPs is zero then.
	ListErr error
	// StatsErr is set when the aggregate counts failed to load.
	StatsErr error
}

func (d Dashboard) Filtered() bool {
	return d.Query != ""
}

// Dashboard loads the IP list and the world and item totals concurrently.
// Totals always cover every IP, not only the ones matching query. A failed
// load is logged and reported on the result, keeping whatever else loaded.
func (p *Portfolio) Dashboard(ctx context.Context, userID, query string) (Dashboard, error) {
	var (
		ips           []model.IP
		worlds, items int
		lists         errgroup.Group
	)
	lists.Go(func() error {
		var err error
		ips, err = p.store.ListIPs(ctx, userID)
		return err
	})
	counts, cctx := errgroup.WithContext(ctx)
	counts.Go(func() error {
		var err error
		worlds, err = p.store.CountWorlds(cctx, userID)
		return err
	})
	counts.Go(func() error {
		var err error
		items, err = p.store.CountItems(cctx, userID)
		return err
	})

	listErr := lists.Wait()
	countErr := counts.Wait()
	if err := ctx.Err(); err != nil {
		return Dashboard{}, err
	}
	d := Dashboard{
		IPs:   model.FilterIPs(ips, query),
		Query: query,
		Stats: model.Stats{IPs: len(ips), Worlds: worlds, Items: items},
	}
	if listErr != nil {
		slog.Warn("dashboard list", "user", userID, "err", listErr)
		d.ListErr = fmt.Errorf("list ips: %w", listErr)
	}
	if countErr != nil {
		slog.Warn("dashboard counts", "user", userID, "err", countErr)
		d.StatsErr = countErr
		d.Stats.Worlds, d.Stats.Items = 0, 0
	}
	return d, nil
}

func (p *Portfolio) CreateIP(ctx context.Context, userID string, in model.IPInput) (model.IP, error) {
	if err := in.Validate(); err != nil {
		return model.IP{}, err
	}
	now := p.now().UTC()
	ip := model.IP{
		ID:          model.NewID(),
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		Owner:       in.Owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := p.store.CreateIP(ctx, ip); err != nil {
		return model.IP{}, fmt.Errorf("create ip: %w", err)
	}
	slog.Info("ip created", "user", userID, "ip", ip.ID)
	return ip, nil
}

func (p *Portfolio) GetIP(ctx context.Context, userID, id string) (model.IP, error) {
	return p.store.GetIP(ctx, userID, id)
}

func (p *Portfolio) UpdateIP(ctx context.Context, userID, id string, in model.IPInput) (model.IP, error) {
	if err := in.Validate(); err != nil {
		return model.IP{}, err
	}
	ip, err := p.store.GetIP(ctx, userID, id)
	if err != nil {
		return model.IP{}, err
	}
	ip.Title = in.Title
	ip.Description = in.Description
	ip.Owner = in.Owner
	ip.UpdatedAt = p.now().UTC()
	if err := p.store.UpdateIP(ctx, ip); err != nil {
		return model.IP{}, fmt.Errorf("update ip: %w", err)
	}
	return ip, nil
}

// DeleteIP removes the IP with all its worlds and items.
func (p *Portfolio) DeleteIP(ctx context.Context, userID, id string) error {
	unlock := p.locks.Lock(userID)
	defer unlock()
	if err := p.store.DeleteIP(ctx, userID, id); err != nil {
		return fmt.Errorf("delete ip %s: %w", id, err)
	}
	slog.Info("ip deleted", "user", userID, "ip", id)
	return nil
}

// DeleteAccountData removes every IP, world and item the user owns. The
// account itself stays.
func (p *Portfolio) DeleteAccountData(ctx context.Context, userID string) error {
	unlock := p.locks.Lock(userID)
	defer unlock()
	if err := p.store.DeleteUserData(ctx, userID); err != nil {
		return fmt.Errorf("delete account data: %w", err)
	}
	slog.Info("account data deleted", "user", userID)
	return nil
}
