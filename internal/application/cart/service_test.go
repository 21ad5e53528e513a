package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
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
	"gorm.io/gorm"
)

type fixture struct {
	db        *gorm.DB
	store     *cache.InMemoryCartStore
	products  *persistence.GormProductRepository
	customers *persistence.GormCustomerRepository
	svc       *Service
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
		db:        db.DB,
		store:     store,
		products:  persistence.NewGormProductRepository(db.DB),
		customers: persistence.NewGormCustomerRepository(db.DB),
		session:   cart.Session{ID: "s-1"},
	}
	f.svc = NewService(store, f.products, f.customers, nil)

	f.category, err = catalog.NewCategory("ריהוט", nil)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormCategoryRepository(db.DB).Save(context.Background(), f.category))
	return f
}

func (f *fixture) product(t *testing.T, name, inclusive string, variations ...string) *catalog.Product {
	t.Helper()
	ctx := context.Background()
	p, err := catalog.NewProduct(name, mustPrice(t, inclusive), f.category.ID, nil)
	require.NoError(t, err)
	require.NoError(t, f.products.Save(ctx, p))
	for _, vn := range variations {
		v, err := catalog.NewVariation(p.ID, vn, mustPrice(t, inclusive), nil)
		require.NoError(t, err)
		require.NoError(t, f.products.SaveVariation(ctx, v))
		p.Variations = append(p.Variations, *v)
	}
	return p
}

func (f *fixture) customer(t *testing.T, name string) *partner.Customer {
	t.Helper()
	c, err := partner.NewCustomer(name, "", "", "")
	require.NoError(t, err)
	require.NoError(t, f.customers.Save(context.Background(), c))
	return c
}

func mustPrice(t *testing.T, inclusive string) pricing.Pair {
	t.Helper()
	p, err := pricing.ParseAndDerive(inclusive, pricing.Inclusive)
	require.NoError(t, err)
	return p
}

func TestService_Add(t *testing.T) {
	ctx := context.Background()

	t.Run("appends one entry per unit at the current price", func(t *testing.T) {
		f := newFixture(t)
		p := f.product(t, "שולחן", "118")

		agg, err := f.svc.Add(ctx, f.session, AddItemRequest{ProductID: p.ID, Quantity: 3})
		require.NoError(t, err)
		require.Len(t, agg.Items, 1)
		assert.Equal(t, 3, agg.Items[0].Quantity)
		assert.True(t, agg.Total.WithVAT.Equal(decimal.NewFromInt(354)))

		entries, _ := f.store.Get(ctx, f.session.ID)
		assert.Len(t, entries, 3)
	})

	t.Run("quantity below one", func(t *testing.T) {
		f := newFixture(t)
		p := f.product(t, "שולחן", "118")

		_, err := f.svc.Add(ctx, f.session, AddItemRequest{ProductID: p.ID, Quantity: 0})
		require.Error(t, err)
		assert.Equal(t, "quantity must be at least 1", err.Error())
	})

	t.Run("unknown product", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Add(ctx, f.session, AddItemRequest{ProductID: uuid.New(), Quantity: 1})
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("product with variations requires one", func(t *testing.T) {
		f := newFixture(t)
		p := f.product(t, "חולצה", "59", "S", "M")

		_, err := f.svc.Add(ctx, f.session, AddItemRequest{ProductID: p.ID, Quantity: 1})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("variation of another product", func(t *testing.T) {
		f := newFixture(t)
		p := f.product(t, "חולצה", "59", "S")
		other := f.product(t, "מכנסיים", "59", "L")

		_, err := f.svc.Add(ctx, f.session, AddItemRequest{ProductID: p.ID, Quantity: 1, VariationID: &other.Variations[0].ID})
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("override price applies to a chosen variation", func(t *testing.T) {
		f := newFixture(t)
		p := f.product(t, "חולצה", "59", "S")
		override := decimal.RequireFromString("11.8")

		agg, err := f.svc.Add(ctx, f.session, AddItemRequest{
			ProductID: p.ID, Quantity: 2, VariationID: &p.Variations[0].ID, PriceWithVAT: &override,
		})
		require.NoError(t, err)
		require.Len(t, agg.Items, 1)
		assert.Equal(t, "S", agg.Items[0].VariationName)
		assert.Equal(t, "10", agg.Items[0].UnitPrice.WithoutVAT.String())
		assert.Equal(t, "23.6", agg.Total.WithVAT.String())
	})

	t.Run("frozen price survives a catalog price change", func(t *testing.T) {
		f := newFixture(t)
		p := f.product(t, "שולחן", "118")
		_, err := f.svc.Add(ctx, f.session, AddItemRequest{ProductID: p.ID, Quantity: 1})
		require.NoError(t, err)

		require.NoError(t, p.Update(p.Name, mustPrice(t, "236"), p.CategoryID, nil))
		require.NoError(t, f.products.Save(ctx, p))
		_, err = f.svc.Add(ctx, f.session, AddItemRequest{ProductID: p.ID, Quantity: 1})
		require.NoError(t, err)

		agg, err := f.svc.Aggregate(ctx, f.session)
		require.NoError(t, err)
		require.Len(t, agg.Items, 1)
		assert.Equal(t, 2, agg.Items[0].Quantity)
		assert.Equal(t, "118", agg.Items[0].UnitPrice.WithVAT.String(), "the group keeps its first entry's price")
	})
}

func TestService_SetQuantityAndRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("resizes only the targeted product", func(t *testing.T) {
		f := newFixture(t)
		a := f.product(t, "שולחן", "118")
		b := f.product(t, "כיסא", "59")
		_, _ = f.svc.Add(ctx, f.session, AddItemRequest{ProductID: a.ID, Quantity: 2})
		_, _ = f.svc.Add(ctx, f.session, AddItemRequest{ProductID: b.ID, Quantity: 1})

		five := 5
		agg, err := f.svc.SetQuantity(ctx, f.session, a.ID, SetQuantityRequest{Quantity: &five})
		require.NoError(t, err)
		require.Len(t, agg.Items, 2)
		assert.Equal(t, a.ID, agg.Items[0].ProductID)
		assert.Equal(t, 5, agg.Items[0].Quantity)
		assert.Equal(t, 1, agg.Items[1].Quantity)
	})

	t.Run("several variation groups need a variation", func(t *testing.T) {
		f := newFixture(t)
		p := f.product(t, "חולצה", "59", "S", "M")
		_, _ = f.svc.Add(ctx, f.session, AddItemRequest{ProductID: p.ID, Quantity: 1, VariationID: &p.Variations[0].ID})
		_, _ = f.svc.Add(ctx, f.session, AddItemRequest{ProductID: p.ID, Quantity: 1, VariationID: &p.Variations[1].ID})

		zero := 0
		_, err := f.svc.SetQuantity(ctx, f.session, p.ID, SetQuantityRequest{Quantity: &zero})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		agg, err := f.svc.SetQuantity(ctx, f.session, p.ID, SetQuantityRequest{Quantity: &zero, VariationID: &p.Variations[0].ID})
		require.NoError(t, err)
		require.Len(t, agg.Items, 1)
		assert.Equal(t, p.Variations[1].Name, agg.Items[0].VariationName)
	})

	t.Run("product not in cart", func(t *testing.T) {
		f := newFixture(t)
		one := 1
		_, err := f.svc.SetQuantity(ctx, f.session, uuid.New(), SetQuantityRequest{Quantity: &one})
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("remove drops all variations of the product", func(t *testing.T) {
		f := newFixture(t)
		p := f.product(t, "חולצה", "59", "S", "M")
		other := f.product(t, "כיסא", "59")
		_, _ = f.svc.Add(ctx, f.session, AddItemRequest{ProductID: p.ID, Quantity: 1, VariationID: &p.Variations[0].ID})
		_, _ = f.svc.Add(ctx, f.session, AddItemRequest{ProductID: other.ID, Quantity: 1})
		_, _ = f.svc.Add(ctx, f.session, AddItemRequest{ProductID: p.ID, Quantity: 2, VariationID: &p.Variations[1].ID})

		agg, err := f.svc.Remove(ctx, f.session, p.ID)
		require.NoError(t, err)
		require.Len(t, agg.Items, 1)
		assert.Equal(t, other.ID, agg.Items[0].ProductID)
	})
}

func TestService_ViewClearFinish(t *testing.T) {
	ctx := context.Background()

	t.Run("view lists customers by name and skips deleted products", func(t *testing.T) {
		f := newFixture(t)
		f.customer(t, "בני")
		f.customer(t, "אבי")
		kept := f.product(t, "כיסא", "59")
		gone := f.product(t, "שולחן", "118")
		_, _ = f.svc.Add(ctx, f.session, AddItemRequest{ProductID: gone.ID, Quantity: 1})
		_, _ = f.svc.Add(ctx, f.session, AddItemRequest{ProductID: kept.ID, Quantity: 2})
		require.NoError(t, f.products.Delete(ctx, gone.ID))

		view, err := f.svc.View(ctx, f.session)
		require.NoError(t, err)
		require.Len(t, view.Items, 1)
		assert.Equal(t, 2, view.Quantity)
		require.Len(t, view.Customers, 2)
		assert.Equal(t, "אבי", view.Customers[0].Name)
	})

	t.Run("clear empties the cart", func(t *testing.T) {
		f := newFixture(t)
		p := f.product(t, "כיסא", "59")
		_, _ = f.svc.Add(ctx, f.session, AddItemRequest{ProductID: p.ID, Quantity: 1})

		require.NoError(t, f.svc.Clear(ctx, f.session))
		agg, err := f.svc.Aggregate(ctx, f.session)
		require.NoError(t, err)
		assert.True(t, agg.IsEmpty())
	})

	t.Run("finish validates the customer before clearing", func(t *testing.T) {
		f := newFixture(t)
		p := f.product(t, "כיסא", "59")
		_, _ = f.svc.Add(ctx, f.session, AddItemRequest{ProductID: p.ID, Quantity: 1})

		err := f.svc.Finish(ctx, f.session, uuid.New())
		assert.True(t, shared.IsNotFound(err))
		entries, _ := f.store.Get(ctx, f.session.ID)
		assert.Len(t, entries, 1)

		c := f.customer(t, "אבי")
		require.NoError(t, f.svc.Finish(ctx, f.session, c.ID))
		entries, _ = f.store.Get(ctx, f.session.ID)
		assert.Empty(t, entries)
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		f := newFixture(t)
		p := f.product(t, "כיסא", "59")
		_, _ = f.svc.Add(ctx, f.session, AddItemRequest{ProductID: p.ID, Quantity: 1})

		agg, err := f.svc.Aggregate(ctx, cart.Session{ID: "s-2"})
		require.NoError(t, err)
		assert.True(t, agg.IsEmpty())
	})
}
