package trade

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	cartapp "github.com/rotem1230/gal1/internal/application/cart"
	"github.com/rotem1230/gal1/internal/domain/cart"
	"github.com/rotem1230/gal1/internal/domain/catalog"
	"github.com/rotem1230/gal1/internal/domain/partner"
	"github.com/rotem1230/gal1/internal/domain/pricing"
	"github.com/rotem1230/gal1/internal/domain/shared"
	"github.com/rotem1230/gal1/internal/infrastructure/cache"
	"github.com/rotem1230/gal1/internal/infrastructure/config"
	"github.com/rotem1230/gal1/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMetrics struct {
	mu     sync.Mutex
	orders int
	items  int
}

func (m *recordingMetrics) RecordOrderSettled(_ context.Context, items int, _ decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders++
	m.items += items
}

type fixture struct {
	products  *persistence.GormProductRepository
	customers *persistence.GormCustomerRepository
	orders    *persistence.GormOrderRepository
	carts     *cartapp.Service
	svc       *SettlementService
	metrics   *recordingMetrics
	session   cart.Session
	category  *catalog.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:", AutoMigrate: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := cache.NewInMemoryCartStore(0)
	t.Cleanup(func() { _ = store.Close() })

	f := &fixture{
		products:  persistence.NewGormProductRepository(db.DB),
		customers: persistence.NewGormCustomerRepository(db.DB),
		orders:    persistence.NewGormOrderRepository(db.DB),
		metrics:   &recordingMetrics{},
		session:   cart.Session{ID: "s-1"},
	}
	f.carts = cartapp.NewService(store, f.products, f.customers, nil)
	f.svc = NewSettlementService(f.orders, f.customers, f.carts, nil, WithMetrics(f.metrics))

	f.category, err = catalog.NewCategory("ריהוט", nil)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormCategoryRepository(db.DB).Save(context.Background(), f.category))
	return f
}

func (f *fixture) product(t *testing.T, name string, exclusive int64, variations ...string) *catalog.Product {
	t.Helper()
	ctx := context.Background()
	pair, err := pricing.Derive(decimal.NewFromInt(exclusive), pricing.Exclusive)
	require.NoError(t, err)
	p, err := catalog.NewProduct(name, pair, f.category.ID, nil)
	require.NoError(t, err)
	require.NoError(t, f.products.Save(ctx, p))
	for _, vn := range variations {
		v, err := catalog.NewVariation(p.ID, vn, pair, nil)
		require.NoError(t, err)
		require.NoError(t, f.products.SaveVariation(ctx, v))
		p.Variations = append(p.Variations, *v)
	}
	return p
}

func (f *fixture) customer(t *testing.T, name string) *partner.Customer {
	t.Helper()
	c, err := partner.NewCustomer(name, "רחוב הרצל 1", "050-1234567", "")
	require.NoError(t, err)
	require.NoError(t, f.customers.Save(context.Background(), c))
	return c
}

func (f *fixture) add(t *testing.T, p *catalog.Product, qty int, variation *uuid.UUID) {
	t.Helper()
	_, err := f.carts.Add(context.Background(), f.session, cartapp.AddItemRequest{ProductID: p.ID, Quantity: qty, VariationID: variation})
	require.NoError(t, err)
}

func TestSettleNew(t *testing.T) {
	ctx := context.Background()

	t.Run("exclusive 100 settles to 118 inclusive", func(t *testing.T) {
		f := newFixture(t)
		c := f.customer(t, "דנה")
		p := f.product(t, "שולחן", 100)
		f.add(t, p, 1, nil)

		order, agg, err := f.svc.SettleNew(ctx, f.session, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "118.00", order.Total.WithVAT.StringFixed(2))
		assert.Equal(t, "100.00", order.Total.WithoutVAT.StringFixed(2))
		require.Len(t, order.Items, 1)
		assert.Len(t, agg.Items, 1)

		stored, err := f.orders.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, "118.00", stored.Total.WithVAT.StringFixed(2))
		assert.Equal(t, 1, f.metrics.orders)
	})

	t.Run("one item per product and variation", func(t *testing.T) {
		f := newFixture(t)
		c := f.customer(t, "דנה")
		shirt := f.product(t, "חולצה", 50, "L")
		cola := f.product(t, "קולה", 5)
		f.add(t, cola, 2, nil)
		f.add(t, shirt, 1, &shirt.Variations[0].ID)
		f.add(t, cola, 1, nil)

		order, _, err := f.svc.SettleNew(ctx, f.session, c.ID)
		require.NoError(t, err)
		require.Len(t, order.Items, 2)
		assert.Equal(t, "קולה", order.Items[0].ProductName)
		assert.Equal(t, 3, order.Items[0].Quantity)
		assert.Equal(t, "חולצה (L)", order.Items[1].ProductName)
	})

	t.Run("validation order", func(t *testing.T) {
		f := newFixture(t)

		_, _, err := f.svc.SettleNew(ctx, f.session, uuid.Nil)
		require.Error(t, err)
		assert.Equal(t, "no customer selected", err.Error())

		_, _, err = f.svc.SettleNew(ctx, f.session, uuid.New())
		assert.True(t, shared.IsNotFound(err), "customer existence is checked before the cart")

		c := f.customer(t, "דנה")
		_, _, err = f.svc.SettleNew(ctx, f.session, c.ID)
		require.Error(t, err)
		assert.Equal(t, "cart is empty", err.Error())
		assert.Equal(t, 0, f.metrics.orders)
	})

	t.Run("cart is kept and a second call records another order", func(t *testing.T) {
		f := newFixture(t)
		c := f.customer(t, "דנה")
		f.add(t, f.product(t, "שולחן", 100), 1, nil)

		first, _, err := f.svc.SettleNew(ctx, f.session, c.ID)
		require.NoError(t, err)
		second, _, err := f.svc.SettleNew(ctx, f.session, c.ID)
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, second.ID)

		page, err := f.svc.History(ctx, HistoryFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Total)
	})
}

func TestReopen(t *testing.T) {
	ctx := context.Background()

	t.Run("survives product deletion", func(t *testing.T) {
		f := newFixture(t)
		c := f.customer(t, "דנה")
		shirt := f.product(t, "חולצה", 50, "L")
		f.add(t, shirt, 2, &shirt.Variations[0].ID)
		order, _, err := f.svc.SettleNew(ctx, f.session, c.ID)
		require.NoError(t, err)

		require.NoError(t, f.products.Delete(ctx, shirt.ID))

		snap, err := f.svc.Reopen(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, "דנה", snap.Customer.Name)
		assert.Equal(t, "רחוב הרצל 1", snap.Customer.Address)
		require.Len(t, snap.Items, 1)
		assert.Equal(t, "חולצה (L)", snap.Items[0].ProductName)
		assert.Equal(t, 2, snap.Items[0].Quantity)
		assert.Equal(t, "118.00", snap.Items[0].LineTotal.WithVAT.StringFixed(2))
		assert.Equal(t, "118.00", snap.Total.WithVAT.StringFixed(2))
	})

	t.Run("unknown order", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Reopen(ctx, uuid.New())
		assert.True(t, shared.IsNotFound(err))
	})
}

func TestHistoryAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.customer(t, "דנה")
	f.add(t, f.product(t, "שולחן", 100), 1, nil)

	clock := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return clock }
	older, _, err := f.svc.SettleNew(ctx, f.session, c.ID)
	require.NoError(t, err)
	clock = clock.Add(time.Hour)
	newer, _, err := f.svc.SettleNew(ctx, f.session, c.ID)
	require.NoError(t, err)

	page, err := f.svc.History(ctx, HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, newer.ID, page.Items[0].ID)
	assert.Equal(t, "דנה", page.Items[0].CustomerName)

	require.NoError(t, f.svc.Delete(ctx, older.ID))
	_, err = f.svc.Reopen(ctx, older.ID)
	assert.True(t, shared.IsNotFound(err))

	err = f.svc.Delete(ctx, older.ID)
	assert.True(t, shared.IsNotFound(err))
}
