package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shirin_shop/internal/models"
	"github.com/Skotchmaster/shirin_shop/internal/repo"
	"github.com/Skotchmaster/shirin_shop/internal/service"
	"github.com/Skotchmaster/shirin_shop/internal/testdb"
	"github.com/Skotchmaster/shirin_shop/internal/transport"
	"github.com/Skotchmaster/shirin_shop/pkg/metrics"
	"github.com/Skotchmaster/shirin_shop/pkg/tokens"
)

type recorded struct {
	Topic string
	Key   string
	Event service.Event
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recorded
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ev, ok := event.(service.Event); ok {
		p.events = append(p.events, recorded{Topic: topic, Key: key, Event: ev})
	}
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Event.Type)
	}
	return out
}

type fixture struct {
	DB      *gorm.DB
	Repo    *repo.GormRepo
	Events  *recordingPublisher
	Auth    *service.AuthService
	Catalog *service.CatalogService
	Cart    *service.CartService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := testdb.SQLite(t)
	r := &repo.GormRepo{DB: gdb}
	ev := &recordingPublisher{}
	m := metrics.New()
	return &fixture{
		DB:      gdb,
		Repo:    r,
		Events:  ev,
		Auth:    &service.AuthService{Repo: r, Tokens: tokens.NewService([]byte("svc-secret"), time.Minute), Events: ev, Metrics: m},
		Catalog: &service.CatalogService{Repo: r, Events: ev, Metrics: m},
		Cart:    &service.CartService{Repo: r, Events: ev, Metrics: m},
	}
}

func ptr[T any](v T) *T { return &v }

func TestAuth_RegisterAndLogin(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	u, err := f.Auth.Register(ctx, "alice", "Secret123")
	require.NoError(t, err)
	assert.False(t, u.IsAdmin)
	assert.NotEqual(t, "Secret123", u.PasswordHash)

	_, err = f.Auth.Register(ctx, "alice", "Other456")
	assert.ErrorIs(t, err, service.ErrConflict)

	res, err := f.Auth.Login(ctx, "alice", "Secret123")
	require.NoError(t, err)
	sub, err := f.Auth.Tokens.Verify(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)

	_, err = f.Auth.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = f.Auth.Login(ctx, "nobody", "Secret123")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	assert.Equal(t, []string{"user_registered"}, f.Events.types())
}

func TestAuth_UsernameTrimmedOnRegisterAndLogin(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	u, err := f.Auth.Register(ctx, " bob ", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, "bob", u.Username)

	for _, name := range []string{" bob ", "bob", "\tbob"} {
		res, err := f.Auth.Login(ctx, name, "Secret123")
		require.NoError(t, err, name)
		assert.Equal(t, u.ID, res.User.ID)
	}

	_, err = f.Auth.Register(ctx, "bob  ", "Other456")
	assert.ErrorIs(t, err, service.ErrConflict)
}

func TestAuth_RegisterValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.Auth.Register(context.Background(), "  ", "Secret123")
	assert.ErrorIs(t, err, service.ErrValidation)

	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	_, err = f.Auth.Register(context.Background(), "bob", string(long))
	assert.ErrorIs(t, err, service.ErrValidation)
}

func TestAuth_EnsureAdminAndCreateAdmin(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	created, err := f.Auth.EnsureAdmin(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.Auth.EnsureAdmin(ctx, "admin", "changed")
	require.NoError(t, err)
	assert.False(t, created)

	_, err = f.Auth.Login(ctx, "admin", "admin123")
	require.NoError(t, err)

	_, err = f.Auth.Register(ctx, "carol", "Secret123")
	require.NoError(t, err)
	promoted, err := f.Auth.CreateAdmin(ctx, "carol", "NewPass1")
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin)
	_, err = f.Auth.Login(ctx, "carol", "NewPass1")
	require.NoError(t, err)

	u, err := f.Auth.UserByUsername(ctx, "carol")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)

	_, err = f.Auth.UserByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestCart_AddMergesAndValidates(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	cat := testdb.Category(t, f.DB, "sweets")
	p := testdb.Product(t, f.DB, cat.ID, "halva", 4.5)
	u := testdb.User(t, f.DB, "alice", false)

	item, err := f.Cart.Add(ctx, u.ID, p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)

	item, err = f.Cart.Add(ctx, u.ID, p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, item.Quantity)

	for _, q := range []int{0, -1} {
		_, err = f.Cart.Add(ctx, u.ID, p.ID, q)
		assert.ErrorIs(t, err, service.ErrValidation)
	}
	_, err = f.Cart.Add(ctx, u.ID, 999, 1)
	assert.ErrorIs(t, err, service.ErrNotFound)

	view, err := f.Cart.View(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 22.5, view.Total)
}

func TestCart_ConcurrentAddsMergeIntoOneLine(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	cat := testdb.Category(t, f.DB, "sweets")
	p := testdb.Product(t, f.DB, cat.ID, "halva", 1.5)
	alice := testdb.User(t, f.DB, "alice", false)
	bob := testdb.User(t, f.DB, "bob", false)

	const perUser = 8
	var wg sync.WaitGroup
	errs := make(chan error, 2*perUser)
	for i := 0; i < perUser; i++ {
		for _, uid := range []uint{alice.ID, bob.ID} {
			wg.Add(1)
			go func(uid uint, qty int) {
				defer wg.Done()
				_, err := f.Cart.Add(ctx, uid, p.ID, qty)
				errs <- err
			}(uid, i+1)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	want := perUser * (perUser + 1) / 2
	for _, uid := range []uint{alice.ID, bob.ID} {
		view, err := f.Cart.View(ctx, uid)
		require.NoError(t, err)
		require.Len(t, view.Items, 1)
		assert.Equal(t, want, view.Items[0].Quantity)
		assert.Equal(t, float64(want)*1.5, view.Total)
	}
}

func TestCart_SetQuantity(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	cat := testdb.Category(t, f.DB, "sweets")
	p := testdb.Product(t, f.DB, cat.ID, "halva", 4.5)
	alice := testdb.User(t, f.DB, "alice", false)
	bob := testdb.User(t, f.DB, "bob", false)

	item, err := f.Cart.Add(ctx, alice.ID, p.ID, 2)
	require.NoError(t, err)

	_, err = f.Cart.SetQuantity(ctx, bob.ID, item.ID, 4)
	assert.ErrorIs(t, err, service.ErrNotFound)

	removed, err := f.Cart.SetQuantity(ctx, alice.ID, item.ID, 4)
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = f.Cart.SetQuantity(ctx, alice.ID, item.ID, 0)
	require.NoError(t, err)
	assert.True(t, removed)

	view, err := f.Cart.View(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Zero(t, view.Total)

	_, err = f.Cart.SetQuantity(ctx, alice.ID, item.ID, 1)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestCart_TotalFollowsLivePrice(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	cat := testdb.Category(t, f.DB, "sweets")
	p1 := testdb.Product(t, f.DB, cat.ID, "halva", 0.1)
	p2 := testdb.Product(t, f.DB, cat.ID, "nougat", 0.2)
	u := testdb.User(t, f.DB, "alice", false)

	_, err := f.Cart.Add(ctx, u.ID, p1.ID, 1)
	require.NoError(t, err)
	_, err = f.Cart.Add(ctx, u.ID, p2.ID, 1)
	require.NoError(t, err)

	view, err := f.Cart.View(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.3, view.Total)

	_, err = f.Catalog.UpdateProduct(ctx, p1.ID, transport.ProductInput{
		Name: "halva", Price: ptr(10.0), CategoryID: cat.ID,
	})
	require.NoError(t, err)

	view, err = f.Cart.View(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 10.2, view.Total)
}

func TestCart_DanglingProductReported(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	cat := testdb.Category(t, f.DB, "sweets")
	p := testdb.Product(t, f.DB, cat.ID, "halva", 2)
	u := testdb.User(t, f.DB, "alice", false)

	_, err := f.Cart.Add(ctx, u.ID, p.ID, 1)
	require.NoError(t, err)

	orphan := models.CartItem{UserID: u.ID, ProductID: 999, Quantity: 3}
	require.NoError(t, f.DB.Create(&orphan).Error)

	view, err := f.Cart.View(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
	assert.Equal(t, 2.0, view.Total)
	assert.Equal(t, []uint{orphan.ID}, view.Unavailable)
}

func TestCart_ClearAndRemove(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	u := testdb.User(t, f.DB, "alice", false)

	n, err := f.Cart.Clear(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.ErrorIs(t, f.Cart.Remove(ctx, u.ID, 12345), service.ErrNotFound)

	cat := testdb.Category(t, f.DB, "sweets")
	p := testdb.Product(t, f.DB, cat.ID, "halva", 2)
	item, err := f.Cart.Add(ctx, u.ID, p.ID, 1)
	require.NoError(t, err)
	require.NoError(t, f.Cart.Remove(ctx, u.ID, item.ID))

	assert.Equal(t, []string{"cart_cleared", "cart_item_added", "cart_item_removed"}, f.Events.types())
}

func TestCart_PublishFailureDoesNotFailRequest(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.Events.err = errors.New("broker down")
	u := testdb.User(t, f.DB, "alice", false)

	_, err := f.Cart.Clear(context.Background(), u.ID)
	require.NoError(t, err)
}

func TestCatalog_CategoryLifecycle(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	_, err := f.Catalog.CreateCategory(ctx, transport.CategoryInput{Name: " "})
	assert.ErrorIs(t, err, service.ErrValidation)

	cat, err := f.Catalog.CreateCategory(ctx, transport.CategoryInput{Name: "Sweets", Description: ptr("sugar")})
	require.NoError(t, err)

	updated, err := f.Catalog.UpdateCategory(ctx, cat.ID, transport.CategoryInput{Name: "Candy"})
	require.NoError(t, err)
	assert.Equal(t, "Candy", updated.Name)
	assert.Nil(t, updated.Description)

	_, err = f.Catalog.UpdateCategory(ctx, 999, transport.CategoryInput{Name: "x"})
	assert.ErrorIs(t, err, service.ErrNotFound)

	p, err := f.Catalog.CreateProduct(ctx, transport.ProductInput{Name: "halva", Price: ptr(3.0), CategoryID: cat.ID})
	require.NoError(t, err)

	assert.ErrorIs(t, f.Catalog.DeleteCategory(ctx, cat.ID), service.ErrConflict)
	require.NoError(t, f.Catalog.DeleteProduct(ctx, p.ID))
	require.NoError(t, f.Catalog.DeleteCategory(ctx, cat.ID))
	assert.ErrorIs(t, f.Catalog.DeleteCategory(ctx, cat.ID), service.ErrNotFound)

	cats, err := f.Catalog.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, cats)
}

func TestCatalog_ProductValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	cat := testdb.Category(t, f.DB, "sweets")

	tests := []struct {
		name string
		in   transport.ProductInput
		want error
	}{
		{name: "negative price", in: transport.ProductInput{Name: "x", Price: ptr(-1.0), CategoryID: cat.ID}, want: service.ErrValidation},
		{name: "missing price", in: transport.ProductInput{Name: "x", CategoryID: cat.ID}, want: service.ErrValidation},
		{name: "negative stock", in: transport.ProductInput{Name: "x", Price: ptr(1.0), CategoryID: cat.ID, Stock: -2}, want: service.ErrValidation},
		{name: "empty name", in: transport.ProductInput{Price: ptr(1.0), CategoryID: cat.ID}, want: service.ErrValidation},
		{name: "unknown category", in: transport.ProductInput{Name: "x", Price: ptr(1.0), CategoryID: 999}, want: service.ErrCategoryNotFound},
	}
	for _, tt := range tests {
		_, err := f.Catalog.CreateProduct(ctx, tt.in)
		assert.ErrorIs(t, err, tt.want, tt.name)
	}

	_, err := f.Catalog.GetProduct(ctx, 999)
	assert.ErrorIs(t, err, service.ErrProductNotFound)
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.ErrorIs(t, f.Catalog.DeleteProduct(ctx, 999), service.ErrProductNotFound)
}

func TestCatalog_UpdateProductNotFoundKinds(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	cat := testdb.Category(t, f.DB, "sweets")
	p := testdb.Product(t, f.DB, cat.ID, "halva", 2)

	_, err := f.Catalog.UpdateProduct(ctx, p.ID, transport.ProductInput{Name: "halva", Price: ptr(2.0), CategoryID: 999})
	assert.ErrorIs(t, err, service.ErrCategoryNotFound)
	assert.NotErrorIs(t, err, service.ErrProductNotFound)

	_, err = f.Catalog.UpdateProduct(ctx, 999, transport.ProductInput{Name: "halva", Price: ptr(2.0), CategoryID: cat.ID})
	assert.ErrorIs(t, err, service.ErrProductNotFound)
	assert.NotErrorIs(t, err, service.ErrCategoryNotFound)

	_, err = f.Catalog.UpdateCategory(ctx, 999, transport.CategoryInput{Name: "x"})
	assert.ErrorIs(t, err, service.ErrCategoryNotFound)
}

type fakeIndex struct {
	indexed []uint
	deleted []uint
	fail    bool
}

func (x *fakeIndex) IndexProduct(_ context.Context, p *models.Product) error {
	x.indexed = append(x.indexed, p.ID)
	return nil
}

func (x *fakeIndex) DeleteProduct(_ context.Context, id uint) error {
	x.deleted = append(x.deleted, id)
	return nil
}

func (x *fakeIndex) Search(context.Context, string, int, int) (int64, []models.Product, error) {
	if x.fail {
		return 0, nil, errors.New("cluster down")
	}
	return 1, []models.Product{{ID: 77, Name: "from index"}}, nil
}

func TestCatalog_SearchIndexMirrorAndFallback(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	idx := &fakeIndex{}
	f.Catalog.Index = idx
	ctx := context.Background()
	cat := testdb.Category(t, f.DB, "sweets")

	p, err := f.Catalog.CreateProduct(ctx, transport.ProductInput{Name: "Halva", Price: ptr(3.0), CategoryID: cat.ID})
	require.NoError(t, err)
	_, err = f.Catalog.UpdateProduct(ctx, p.ID, transport.ProductInput{Name: "Halva", Price: ptr(4.0), CategoryID: cat.ID})
	require.NoError(t, err)

	n, err := f.Catalog.Reindex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []uint{p.ID, p.ID, p.ID}, idx.indexed)

	_, items, err := f.Catalog.SearchProducts(ctx, "halva", 0, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "from index", items[0].Name)

	idx.fail = true
	total, items, err := f.Catalog.SearchProducts(ctx, "halva", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Halva", items[0].Name)

	_, _, err = f.Catalog.SearchProducts(ctx, "  ", 0, 10)
	assert.ErrorIs(t, err, service.ErrValidation)

	require.NoError(t, f.Catalog.DeleteProduct(ctx, p.ID))
	assert.Equal(t, []uint{p.ID}, idx.deleted)

	assert.Equal(t, []string{"product_created", "product_updated", "product_deleted"}, f.Events.types())
}
