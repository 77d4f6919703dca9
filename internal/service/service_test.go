package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"kinly/internal/auth"
	"kinly/internal/model"
	"kinly/internal/store"
	"kinly/internal/store/sqlite"
	"kinly/internal/taxonomy"
)

var lightParams = auth.Params{Memory: 1024, Iterations: 1, Threads: 1, SaltLength: 16, KeyLength: 32}

// spyStore counts inserts so tests can prove validation ran first.
type spyStore struct {
	store.Store
	worldInserts atomic.Int32
	itemInserts  atomic.Int32
	failCounts   error
	failList     error
}

func (s *spyStore) CreateWorld(ctx context.Context, w model.World) error {
	s.worldInserts.Add(1)
	return s.Store.CreateWorld(ctx, w)
}

func (s *spyStore) CreateItem(ctx context.Context, it model.ContentItem) error {
	s.itemInserts.Add(1)
	return s.Store.CreateItem(ctx, it)
}

func (s *spyStore) CountItems(ctx context.Context, userID string) (int, error) {
	if s.failCounts != nil {
		return 0, s.failCounts
	}
	return s.Store.CountItems(ctx, userID)
}

func (s *spyStore) ListIPs(ctx context.Context, userID string) ([]model.IP, error) {
	if s.failList != nil {
		return nil, s.failList
	}
	return s.Store.ListIPs(ctx, userID)
}

func newSpyStore(t *testing.T) *spyStore {
	t.Helper()
	s, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "kinly.db"), sqlite.Options{LockTimeout: time.Second})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return &spyStore{Store: s}
}

func newSigner(t *testing.T) *auth.Signer {
	t.Helper()
	signer, err := auth.NewSigner([]byte("service-test-secret-0123456789"))
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	return signer
}

func newUser(t *testing.T, s store.Store, email string) model.User {
	t.Helper()
	u := model.User{ID: model.NewID(), Email: email, PasswordHash: "x"}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestCreateWorldRejectsBlankNameBeforeStore(t *testing.T) {
	st := newSpyStore(t)
	p := NewPortfolio(st, taxonomy.Flat())
	ctx := context.Background()
	u := newUser(t, st, "ann@example.com")
	ip, err := p.CreateIP(ctx, u.ID, model.IPInput{Title: "Dragon Saga"})
	if err != nil {
		t.Fatalf("create ip: %v", err)
	}

	for _, name := range []string{"", "   ", "\t\n"} {
		_, err := p.CreateWorld(ctx, u.ID, ip.ID, model.WorldInput{Name: name})
		if !errors.Is(err, model.ErrValidation) {
			t.Fatalf("expected validation error for %q, got %v", name, err)
		}
	}
	if n := st.worldInserts.Load(); n != 0 {
		t.Fatalf("expected no store insert, got %d", n)
	}

	w, err := p.CreateWorld(ctx, u.ID, ip.ID, model.WorldInput{Name: "  Northreach  "})
	if err != nil {
		t.Fatalf("create world: %v", err)
	}
	if w.Name != "Northreach" {
		t.Fatalf("expected trimmed name, got %q", w.Name)
	}
}

func TestCreateItemRejectsBlankTitleBeforeStore(t *testing.T) {
	st := newSpyStore(t)
	p := NewPortfolio(st, taxonomy.Flat())
	ctx := context.Background()
	u := newUser(t, st, "ann@example.com")
	ip, _ := p.CreateIP(ctx, u.ID, model.IPInput{Title: "Dragon Saga"})
	w, err := p.CreateWorld(ctx, u.ID, ip.ID, model.WorldInput{Name: "W1"})
	if err != nil {
		t.Fatalf("create world: %v", err)
	}

	_, err = p.CreateItem(ctx, u.ID, ip.ID, model.ItemInput{WorldID: w.ID, Section: "Lore", Title: "   "})
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = p.CreateItem(ctx, u.ID, ip.ID, model.ItemInput{WorldID: w.ID, Section: "Protagonists", Title: "Hero"})
	var ve *model.ValidationError
	if !errors.As(err, &ve) || ve.Field != "section" {
		t.Fatalf("expected section validation error, got %v", err)
	}
	_, err = p.CreateItem(ctx, u.ID, ip.ID, model.ItemInput{Section: "Lore", Title: "Hero"})
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected missing world error, got %v", err)
	}
	if n := st.itemInserts.Load(); n != 0 {
		t.Fatalf("expected no store insert, got %d", n)
	}

	it, err := p.CreateItem(ctx, u.ID, ip.ID, model.ItemInput{WorldID: w.ID, Section: "Lore", Title: " Hero ", Body: "text"})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if it.Title != "Hero" || it.IPID != ip.ID || it.UserID != u.ID {
		t.Fatalf("unexpected item %+v", it)
	}
}

func TestBuilderCursorResolution(t *testing.T) {
	st := newSpyStore(t)
	p := NewPortfolio(st, taxonomy.Flat())
	ctx := context.Background()
	u := newUser(t, st, "ann@example.com")
	ip, _ := p.CreateIP(ctx, u.ID, model.IPInput{Title: "Dragon Saga"})

	b, err := p.Builder(ctx, u.ID, ip.ID, Cursor{})
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	if b.World != nil || b.Section != "Characters" || len(b.Items) != 0 {
		t.Fatalf("unexpected empty builder %+v", b)
	}

	w1, _ := p.CreateWorld(ctx, u.ID, ip.ID, model.WorldInput{Name: "W1"})
	time.Sleep(2 * time.Millisecond)
	w2, _ := p.CreateWorld(ctx, u.ID, ip.ID, model.WorldInput{Name: "W2"})
	if _, err := p.CreateItem(ctx, u.ID, ip.ID, model.ItemInput{WorldID: w1.ID, Section: "Plot", Title: "W1 plot"}); err != nil {
		t.Fatalf("create item: %v", err)
	}

	b, err = p.Builder(ctx, u.ID, ip.ID, Cursor{Section: "Plot"})
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	if b.World == nil || b.World.ID != w2.ID {
		t.Fatalf("expected newest world selected, got %+v", b.World)
	}
	if len(b.Items) != 0 {
		t.Fatalf("expected W2 to have no items, got %d", len(b.Items))
	}

	b, err = p.Builder(ctx, u.ID, ip.ID, Cursor{WorldID: w1.ID, Section: "Plot"})
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	if len(b.Items) != 1 || b.Items[0].Title != "W1 plot" {
		t.Fatalf("expected W1 plot item, got %+v", b.Items)
	}
	if b.Counts["Plot"] != 1 {
		t.Fatalf("expected plot count 1, got %v", b.Counts)
	}
	if got := b.Cursor(); got.WorldID != w1.ID || got.Section != "Plot" {
		t.Fatalf("unexpected cursor %+v", got)
	}

	b, err = p.Builder(ctx, u.ID, ip.ID, Cursor{WorldID: "elsewhere", Section: "Nope"})
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	if b.World.ID != w2.ID || b.Section != "Characters" {
		t.Fatalf("expected fallbacks, got world %s section %s", b.World.ID, b.Section)
	}

	other := newUser(t, st, "bob@example.com")
	if _, err := p.Builder(ctx, other.ID, ip.ID, Cursor{}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found for foreign user, got %v", err)
	}
}

func TestDeleteIPCascade(t *testing.T) {
	st := newSpyStore(t)
	p := NewPortfolio(st, taxonomy.Flat())
	ctx := context.Background()
	u := newUser(t, st, "ann@example.com")
	ip, _ := p.CreateIP(ctx, u.ID, model.IPInput{Title: "A"})
	w, _ := p.CreateWorld(ctx, u.ID, ip.ID, model.WorldInput{Name: "W"})
	if _, err := p.CreateItem(ctx, u.ID, ip.ID, model.ItemInput{WorldID: w.ID, Section: "Lore", Title: "C"}); err != nil {
		t.Fatalf("create item: %v", err)
	}

	if err := p.DeleteIP(ctx, u.ID, ip.ID); err != nil {
		t.Fatalf("delete ip: %v", err)
	}
	if _, err := p.Builder(ctx, u.ID, ip.ID, Cursor{}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ip gone, got %v", err)
	}
	items, err := st.ListItems(ctx, u.ID, w.ID, "Lore")
	if err != nil || len(items) != 0 {
		t.Fatalf("expected items gone, got %d (%v)", len(items), err)
	}
	if err := p.DeleteIP(ctx, u.ID, ip.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestDashboardFilterAndStats(t *testing.T) {
	st := newSpyStore(t)
	p := NewPortfolio(st, taxonomy.Flat())
	ctx := context.Background()
	u := newUser(t, st, "ann@example.com")
	dragon, _ := p.CreateIP(ctx, u.ID, model.IPInput{Title: "Dragon Saga", Owner: "Ann"})
	space, _ := p.CreateIP(ctx, u.ID, model.IPInput{Title: "Space Opera", Owner: "Ann"})
	for _, ip := range []model.IP{dragon, space} {
		w, _ := p.CreateWorld(ctx, u.ID, ip.ID, model.WorldInput{Name: "W"})
		for i := 0; i < 2; i++ {
			if _, err := p.CreateItem(ctx, u.ID, ip.ID, model.ItemInput{WorldID: w.ID, Section: "Lore", Title: "C"}); err != nil {
				t.Fatalf("create item: %v", err)
			}
		}
	}
	if _, err := p.CreateItem(ctx, u.ID, dragon.ID, model.ItemInput{WorldID: mustFirstWorld(t, st, u.ID, dragon.ID), Section: "Plot", Title: "extra"}); err != nil {
		t.Fatalf("create item: %v", err)
	}

	d, err := p.Dashboard(ctx, u.ID, "dragon")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(d.IPs) != 1 || d.IPs[0].ID != dragon.ID {
		t.Fatalf("expected only Dragon Saga, got %+v", d.IPs)
	}
	if d.Stats != (model.Stats{IPs: 2, Worlds: 2, Items: 5}) {
		t.Fatalf("unexpected stats %+v", d.Stats)
	}
	if avg := d.Stats.AverageItemsPerIP(); avg != 3 {
		t.Fatalf("expected round(5/2)=3, got %d", avg)
	}

	st.failCounts = errors.New("boom")
	d, err = p.Dashboard(ctx, u.ID, "")
	if err != nil {
		t.Fatalf("dashboard with failing counts: %v", err)
	}
	if d.StatsErr == nil || len(d.IPs) != 2 {
		t.Fatalf("expected list with stats error, got %+v", d)
	}
}

func TestDashboardListErrorKeepsCounts(t *testing.T) {
	st := newSpyStore(t)
	p := NewPortfolio(st, taxonomy.Flat())
	ctx := context.Background()
	u := newUser(t, st, "ann@example.com")
	ip, _ := p.CreateIP(ctx, u.ID, model.IPInput{Title: "Dragon Saga"})
	w, _ := p.CreateWorld(ctx, u.ID, ip.ID, model.WorldInput{Name: "W"})
	if _, err := p.CreateItem(ctx, u.ID, ip.ID, model.ItemInput{WorldID: w.ID, Section: "Lore", Title: "C"}); err != nil {
		t.Fatalf("create item: %v", err)
	}

	st.failList = errors.New("connection reset")
	d, err := p.Dashboard(ctx, u.ID, "")
	if err != nil {
		t.Fatalf("dashboard with failing list: %v", err)
	}
	if d.ListErr == nil || !strings.Contains(d.ListErr.Error(), "connection reset") {
		t.Fatalf("expected list error, got %v", d.ListErr)
	}
	if len(d.IPs) != 0 || d.StatsErr != nil {
		t.Fatalf("unexpected dashboard %+v", d)
	}
	if d.Stats.Worlds != 1 || d.Stats.Items != 1 {
		t.Fatalf("expected counts to survive a list failure, got %+v", d.Stats)
	}
}

func TestDashboardCancelledContext(t *testing.T) {
	st := newSpyStore(t)
	p := NewPortfolio(st, taxonomy.Flat())
	u := newUser(t, st, "ann@example.com")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Dashboard(ctx, u.ID, ""); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func mustFirstWorld(t *testing.T, s store.Store, userID, ipID string) string {
	t.Helper()
	worlds, err := s.ListWorlds(context.Background(), userID, ipID)
	if err != nil || len(worlds) == 0 {
		t.Fatalf("list worlds: %v", err)
	}
	return worlds[0].ID
}

func TestDeleteAccountDataKeepsUser(t *testing.T) {
	st := newSpyStore(t)
	p := NewPortfolio(st, taxonomy.Flat())
	ctx := context.Background()
	u := newUser(t, st, "ann@example.com")
	other := newUser(t, st, "bob@example.com")
	if _, err := p.CreateIP(ctx, u.ID, model.IPInput{Title: "Mine"}); err != nil {
		t.Fatalf("create ip: %v", err)
	}
	if _, err := p.CreateIP(ctx, other.ID, model.IPInput{Title: "Theirs"}); err != nil {
		t.Fatalf("create ip: %v", err)
	}
	if err := p.DeleteAccountData(ctx, u.ID); err != nil {
		t.Fatalf("delete account data: %v", err)
	}
	d, err := p.Dashboard(ctx, u.ID, "")
	if err != nil || len(d.IPs) != 0 {
		t.Fatalf("expected no ips, got %+v (%v)", d.IPs, err)
	}
	if _, err := st.GetUser(ctx, u.ID); err != nil {
		t.Fatalf("expected user row to remain: %v", err)
	}
	d, _ = p.Dashboard(ctx, other.ID, "")
	if len(d.IPs) != 1 {
		t.Fatalf("expected other user's ip untouched, got %d", len(d.IPs))
	}
}

func TestUpdateIPForeignUser(t *testing.T) {
	st := newSpyStore(t)
	p := NewPortfolio(st, taxonomy.Flat())
	ctx := context.Background()
	u := newUser(t, st, "ann@example.com")
	other := newUser(t, st, "bob@example.com")
	ip, _ := p.CreateIP(ctx, u.ID, model.IPInput{Title: "Mine"})

	if _, err := p.UpdateIP(ctx, other.ID, ip.ID, model.IPInput{Title: "x"}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := p.CreateWorld(ctx, other.ID, ip.ID, model.WorldInput{Name: "W"}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	updated, err := p.UpdateIP(ctx, u.ID, ip.ID, model.IPInput{Title: "Renamed", Description: "d", Owner: "o"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.UpdatedAt.After(ip.UpdatedAt) && !updated.UpdatedAt.Equal(ip.UpdatedAt) {
		t.Fatalf("expected updated_at to move forward")
	}
}

func newAccounts(t *testing.T, st store.Store, requireConfirm bool, outbox string) *Accounts {
	t.Helper()
	return NewAccounts(st, newSigner(t), AccountsConfig{
		RequireConfirm: requireConfirm,
		BaseURL:        "http://kinly.test",
		OutboxDir:      outbox,
		Params:         lightParams,
	})
}

func TestSignUpConfirmSignIn(t *testing.T) {
	st := newSpyStore(t)
	outbox := filepath.Join(t.TempDir(), "outbox")
	a := newAccounts(t, st, true, outbox)
	ctx := context.Background()
	creds := model.Credentials{Email: "Ann@Example.com", Password: "long-enough"}

	res, err := a.SignUp(ctx, creds)
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if !res.NeedsConfirm || res.Session != "" {
		t.Fatalf("expected confirmation to be required, got %+v", res)
	}
	if !strings.HasPrefix(res.ConfirmURL, "http://kinly.test/auth-confirm?token=") {
		t.Fatalf("unexpected confirm url %q", res.ConfirmURL)
	}
	entries, err := os.ReadDir(outbox)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one outbox message, got %d (%v)", len(entries), err)
	}

	if _, _, err := a.SignIn(ctx, creds); !errors.Is(err, ErrEmailNotConfirmed) {
		t.Fatalf("expected unconfirmed error, got %v", err)
	}
	if _, _, err := a.SignIn(ctx, model.Credentials{Email: creds.Email, Password: "wrong-password"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, _, err := a.SignIn(ctx, model.Credentials{Email: "nobody@example.com", Password: "whatever1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown email, got %v", err)
	}

	token := strings.TrimPrefix(res.ConfirmURL, "http://kinly.test/auth-confirm?token=")
	u, session, err := a.Confirm(ctx, token)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !u.Confirmed() || session == "" {
		t.Fatalf("expected confirmed user with session, got %+v", u)
	}
	if _, _, err := a.Confirm(ctx, session); !errors.Is(err, auth.ErrTokenInvalid) {
		t.Fatalf("expected a session token to be rejected as confirmation, got %v", err)
	}

	u, session, err = a.SignIn(ctx, creds)
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	got, err := a.Session(ctx, session)
	if err != nil || got.ID != u.ID {
		t.Fatalf("session lookup: %+v %v", got, err)
	}

	if _, err := a.SignUp(ctx, creds); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict for duplicate sign up, got %v", err)
	}
}

func TestSignUpWithoutConfirmation(t *testing.T) {
	st := newSpyStore(t)
	a := newAccounts(t, st, false, "")
	res, err := a.SignUp(context.Background(), model.Credentials{Email: "ann@example.com", Password: "long-enough"})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if res.NeedsConfirm || res.Session == "" || !res.User.Confirmed() {
		t.Fatalf("expected immediate session, got %+v", res)
	}
}

func TestSignUpValidation(t *testing.T) {
	st := newSpyStore(t)
	a := newAccounts(t, st, true, "")
	_, err := a.SignUp(context.Background(), model.Credentials{Email: "ann@example.com", Password: "short"})
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSessionForDeletedUser(t *testing.T) {
	st := newSpyStore(t)
	signer := newSigner(t)
	a := NewAccounts(st, signer, AccountsConfig{Params: lightParams})
	tok, err := signer.Issue(auth.TokenSession, "ghost", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := a.Session(context.Background(), tok); !errors.Is(err, auth.ErrTokenInvalid) {
		t.Fatalf("expected invalid token for missing user, got %v", err)
	}
}

func TestSetPasswordCreatesThenUpdates(t *testing.T) {
	st := newSpyStore(t)
	a := newAccounts(t, st, true, "")
	ctx := context.Background()
	u, created, err := a.SetPassword(ctx, model.Credentials{Email: "ops@example.com", Password: "first-pass"})
	if err != nil || !created || !u.Confirmed() {
		t.Fatalf("expected confirmed new user, got %+v created=%v err=%v", u, created, err)
	}
	_, created, err = a.SetPassword(ctx, model.Credentials{Email: "ops@example.com", Password: "second-pass"})
	if err != nil || created {
		t.Fatalf("expected update, got created=%v err=%v", created, err)
	}
	if _, _, err := a.SignIn(ctx, model.Credentials{Email: "ops@example.com", Password: "second-pass"}); err != nil {
		t.Fatalf("sign in with new password: %v", err)
	}
}
