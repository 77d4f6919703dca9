// Package storetest holds the behaviour every store.Store implementation
// must share. Backends call Run from their own tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kinly/internal/model"
	"kinly/internal/store"
)

// Factory returns an empty store. The suite closes it.
type Factory func(t *testing.T) store.Store

func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"Users", testUsers},
		{"IPOwnership", testIPOwnership},
		{"IPUpdate", testIPUpdate},
		{"ListOrdering", testListOrdering},
		{"WorldRequiresOwnedIP", testWorldRequiresOwnedIP},
		{"ItemRequiresMatchingWorld", testItemRequiresMatchingWorld},
		{"SectionQueryScopedToWorld", testSectionQueryScopedToWorld},
		{"DeleteIPCascades", testDeleteIPCascades},
		{"DeleteItem", testDeleteItem},
		{"Counts", testCounts},
		{"DeleteUserData", testDeleteUserData},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tc.fn(t, s)
		})
	}
}

var base = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func at(n int) time.Time {
	return base.Add(time.Duration(n) * time.Minute)
}

func mustUser(t *testing.T, s store.Store, email string) model.User {
	t.Helper()
	u := model.User{ID: model.NewID(), Email: email, PasswordHash: "hash", CreatedAt: base}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func mustIP(t *testing.T, s store.Store, userID, title string, n int) model.IP {
	t.Helper()
	ip := model.IP{
		ID:          model.NewID(),
		UserID:      userID,
		Title:       title,
		Description: title + " description",
		Owner:       "Studio",
		CreatedAt:   at(n),
		UpdatedAt:   at(n),
	}
	require.NoError(t, s.CreateIP(context.Background(), ip))
	return ip
}

func mustWorld(t *testing.T, s store.Store, ip model.IP, name string, n int) model.World {
	t.Helper()
	w := model.World{ID: model.NewID(), IPID: ip.ID, UserID: ip.UserID, Name: name, CreatedAt: at(n)}
	require.NoError(t, s.CreateWorld(context.Background(), w))
	return w
}

func mustItem(t *testing.T, s store.Store, w model.World, section, title string, n int) model.ContentItem {
	t.Helper()
	it := model.ContentItem{
		ID:        model.NewID(),
		WorldID:   w.ID,
		IPID:      w.IPID,
		UserID:    w.UserID,
		Section:   section,
		Title:     title,
		Body:      "body of " + title,
		CreatedAt: at(n),
	}
	require.NoError(t, s.CreateItem(context.Background(), it))
	return it
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "Ann@Example.com ")

	got, err := s.GetUserByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, "ann@example.com", got.Email)
	require.False(t, got.Confirmed())

	dup := model.User{ID: model.NewID(), Email: "ANN@example.com", PasswordHash: "x"}
	require.ErrorIs(t, s.CreateUser(ctx, dup), store.ErrConflict)

	require.NoError(t, s.ConfirmUser(ctx, u.ID, at(5)))
	got, err = s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, got.Confirmed())
	require.True(t, got.ConfirmedAt.Equal(at(5)))

	require.NoError(t, s.ConfirmUser(ctx, u.ID, at(9)))
	got, err = s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, got.ConfirmedAt.Equal(at(5)), "first confirmation time is kept")

	require.NoError(t, s.SetPasswordHash(ctx, u.ID, "new-hash"))
	got, err = s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "new-hash", got.PasswordHash)

	_, err = s.GetUser(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, s.ConfirmUser(ctx, "missing", base), store.ErrNotFound)

	mustUser(t, s, "bob@example.com")
	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, "ann@example.com", users[0].Email)
}

func testIPOwnership(t *testing.T, s store.Store) {
	ctx := context.Background()
	ann := mustUser(t, s, "ann@example.com")
	bob := mustUser(t, s, "bob@example.com")
	annIP := mustIP(t, s, ann.ID, "Dragon Saga", 1)
	mustIP(t, s, bob.ID, "Space Opera", 2)

	ips, err := s.ListIPs(ctx, ann.ID)
	require.NoError(t, err)
	require.Len(t, ips, 1)
	for _, ip := range ips {
		require.Equal(t, ann.ID, ip.UserID)
	}

	_, err = s.GetIP(ctx, bob.ID, annIP.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	foreign := annIP
	foreign.UserID = bob.ID
	foreign.Title = "stolen"
	require.ErrorIs(t, s.UpdateIP(ctx, foreign), store.ErrNotFound)
	require.ErrorIs(t, s.DeleteIP(ctx, bob.ID, annIP.ID), store.ErrNotFound)

	got, err := s.GetIP(ctx, ann.ID, annIP.ID)
	require.NoError(t, err)
	require.Equal(t, "Dragon Saga", got.Title)
}

func testIPUpdate(t *testing.T, s store.Store) {
	ctx := context.Background()
	ann := mustUser(t, s, "ann@example.com")
	ip := mustIP(t, s, ann.ID, "Draft", 1)

	ip.Title = "Final"
	ip.Description = "Now with lore"
	ip.Owner = "Kinly Studio"
	ip.UpdatedAt = at(30)
	require.NoError(t, s.UpdateIP(ctx, ip))

	got, err := s.GetIP(ctx, ann.ID, ip.ID)
	require.NoError(t, err)
	require.Equal(t, "Final", got.Title)
	require.Equal(t, "Now with lore", got.Description)
	require.Equal(t, "Kinly Studio", got.Owner)
	require.True(t, got.UpdatedAt.Equal(at(30)))
	require.True(t, got.CreatedAt.Equal(at(1)))
}

func testListOrdering(t *testing.T, s store.Store) {
	ctx := context.Background()
	ann := mustUser(t, s, "ann@example.com")
	older := mustIP(t, s, ann.ID, "Older", 1)
	newer := mustIP(t, s, ann.ID, "Newer", 2)

	ips, err := s.ListIPs(ctx, ann.ID)
	require.NoError(t, err)
	require.Equal(t, []string{newer.ID, older.ID}, []string{ips[0].ID, ips[1].ID})

	w1 := mustWorld(t, s, older, "W1", 3)
	w2 := mustWorld(t, s, older, "W2", 3)
	worlds, err := s.ListWorlds(ctx, ann.ID, older.ID)
	require.NoError(t, err)
	require.Len(t, worlds, 2)
	require.Equal(t, w2.ID, worlds[0].ID, "later insert wins a timestamp tie")
	require.Equal(t, w1.ID, worlds[1].ID)

	i1 := mustItem(t, s, w1, "Lore", "first", 4)
	i2 := mustItem(t, s, w1, "Lore", "second", 5)
	items, err := s.ListItems(ctx, ann.ID, w1.ID, "Lore")
	require.NoError(t, err)
	require.Equal(t, []string{i2.ID, i1.ID}, []string{items[0].ID, items[1].ID})
}

func testWorldRequiresOwnedIP(t *testing.T, s store.Store) {
	ctx := context.Background()
	ann := mustUser(t, s, "ann@example.com")
	bob := mustUser(t, s, "bob@example.com")
	ip := mustIP(t, s, ann.ID, "Dragon Saga", 1)

	w := model.World{ID: model.NewID(), IPID: ip.ID, UserID: bob.ID, Name: "Intruder", CreatedAt: at(2)}
	require.ErrorIs(t, s.CreateWorld(ctx, w), store.ErrNotFound)

	w = model.World{ID: model.NewID(), IPID: "missing", UserID: ann.ID, Name: "Orphan", CreatedAt: at(2)}
	require.ErrorIs(t, s.CreateWorld(ctx, w), store.ErrNotFound)

	worlds, err := s.ListWorlds(ctx, ann.ID, ip.ID)
	require.NoError(t, err)
	require.Empty(t, worlds)
}

func testItemRequiresMatchingWorld(t *testing.T, s store.Store) {
	ctx := context.Background()
	ann := mustUser(t, s, "ann@example.com")
	bob := mustUser(t, s, "bob@example.com")
	ipA := mustIP(t, s, ann.ID, "A", 1)
	ipB := mustIP(t, s, ann.ID, "B", 2)
	w := mustWorld(t, s, ipA, "Realm", 3)

	wrongIP := model.ContentItem{ID: model.NewID(), WorldID: w.ID, IPID: ipB.ID, UserID: ann.ID, Section: "Lore", Title: "x", CreatedAt: at(4)}
	require.ErrorIs(t, s.CreateItem(ctx, wrongIP), store.ErrNotFound)

	wrongUser := model.ContentItem{ID: model.NewID(), WorldID: w.ID, IPID: ipA.ID, UserID: bob.ID, Section: "Lore", Title: "x", CreatedAt: at(4)}
	require.ErrorIs(t, s.CreateItem(ctx, wrongUser), store.ErrNotFound)
}

func testSectionQueryScopedToWorld(t *testing.T, s store.Store) {
	ctx := context.Background()
	ann := mustUser(t, s, "ann@example.com")
	ip := mustIP(t, s, ann.ID, "Dragon Saga", 1)
	w1 := mustWorld(t, s, ip, "W1", 2)
	w2 := mustWorld(t, s, ip, "W2", 3)
	mustItem(t, s, w1, "Characters", "Hero of W1", 4)
	mustItem(t, s, w1, "Locations", "Castle", 5)

	items, err := s.ListItems(ctx, ann.ID, w2.ID, "Characters")
	require.NoError(t, err)
	require.Empty(t, items)

	items, err = s.ListItems(ctx, ann.ID, w1.ID, "Characters")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Hero of W1", items[0].Title)

	counts, err := s.SectionCounts(ctx, ann.ID, w1.ID)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"Characters": 1, "Locations": 1}, counts)

	bob := mustUser(t, s, "bob@example.com")
	items, err = s.ListItems(ctx, bob.ID, w1.ID, "Characters")
	require.NoError(t, err)
	require.Empty(t, items)
}

func testDeleteIPCascades(t *testing.T, s store.Store) {
	ctx := context.Background()
	ann := mustUser(t, s, "ann@example.com")
	doomed := mustIP(t, s, ann.ID, "Doomed", 1)
	kept := mustIP(t, s, ann.ID, "Kept", 2)
	w := mustWorld(t, s, doomed, "W", 3)
	mustItem(t, s, w, "Lore", "C", 4)
	kw := mustWorld(t, s, kept, "KW", 5)
	mustItem(t, s, kw, "Lore", "KC", 6)

	require.NoError(t, s.DeleteIP(ctx, ann.ID, doomed.ID))

	_, err := s.GetIP(ctx, ann.ID, doomed.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	worlds, err := s.ListWorlds(ctx, ann.ID, doomed.ID)
	require.NoError(t, err)
	require.Empty(t, worlds)
	items, err := s.ListItems(ctx, ann.ID, w.ID, "Lore")
	require.NoError(t, err)
	require.Empty(t, items)

	worlds, err = s.ListWorlds(ctx, ann.ID, kept.ID)
	require.NoError(t, err)
	require.Len(t, worlds, 1)
	items, err = s.ListItems(ctx, ann.ID, kw.ID, "Lore")
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.ErrorIs(t, s.DeleteIP(ctx, ann.ID, doomed.ID), store.ErrNotFound)
}

func testDeleteItem(t *testing.T, s store.Store) {
	ctx := context.Background()
	ann := mustUser(t, s, "ann@example.com")
	bob := mustUser(t, s, "bob@example.com")
	ip := mustIP(t, s, ann.ID, "A", 1)
	w := mustWorld(t, s, ip, "W", 2)
	it := mustItem(t, s, w, "Lore", "C", 3)

	require.ErrorIs(t, s.DeleteItem(ctx, bob.ID, it.ID), store.ErrNotFound)
	require.NoError(t, s.DeleteItem(ctx, ann.ID, it.ID))
	require.ErrorIs(t, s.DeleteItem(ctx, ann.ID, it.ID), store.ErrNotFound)
}

func testCounts(t *testing.T, s store.Store) {
	ctx := context.Background()
	ann := mustUser(t, s, "ann@example.com")
	bob := mustUser(t, s, "bob@example.com")
	a := mustIP(t, s, ann.ID, "A", 1)
	b := mustIP(t, s, ann.ID, "B", 2)
	wa := mustWorld(t, s, a, "WA", 3)
	wb := mustWorld(t, s, b, "WB", 4)
	mustItem(t, s, wa, "Lore", "1", 5)
	mustItem(t, s, wa, "Plot", "2", 6)
	mustItem(t, s, wb, "Lore", "3", 7)
	bobIP := mustIP(t, s, bob.ID, "Bob", 8)
	mustItem(t, s, mustWorld(t, s, bobIP, "WBob", 9), "Lore", "bob", 10)

	worlds, err := s.CountWorlds(ctx, ann.ID)
	require.NoError(t, err)
	require.Equal(t, 2, worlds)
	items, err := s.CountItems(ctx, ann.ID)
	require.NoError(t, err)
	require.Equal(t, 3, items)

	worlds, err = s.CountWorlds(ctx, "nobody")
	require.NoError(t, err)
	require.Zero(t, worlds)
}

func testDeleteUserData(t *testing.T, s store.Store) {
	ctx := context.Background()
	ann := mustUser(t, s, "ann@example.com")
	bob := mustUser(t, s, "bob@example.com")
	for i, title := range []string{"A", "B"} {
		ip := mustIP(t, s, ann.ID, title, i)
		w := mustWorld(t, s, ip, "W"+title, 10+i)
		mustItem(t, s, w, "Lore", "C"+title, 20+i)
	}
	bobIP := mustIP(t, s, bob.ID, "Bob", 30)
	bobWorld := mustWorld(t, s, bobIP, "WBob", 31)
	mustItem(t, s, bobWorld, "Lore", "bob", 32)

	require.NoError(t, s.DeleteUserData(ctx, ann.ID))

	ips, err := s.ListIPs(ctx, ann.ID)
	require.NoError(t, err)
	require.Empty(t, ips)
	n, err := s.CountWorlds(ctx, ann.ID)
	require.NoError(t, err)
	require.Zero(t, n)
	n, err = s.CountItems(ctx, ann.ID)
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = s.GetUser(ctx, ann.ID)
	require.NoError(t, err, "user row is kept")

	n, err = s.CountItems(ctx, bob.ID)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.NoError(t, s.DeleteUserData(ctx, ann.ID), "deleting nothing is not an error")
}
