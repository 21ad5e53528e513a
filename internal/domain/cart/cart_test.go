package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rotem1230/gal1/internal/domain/catalog"
	"github.com/rotem1230/gal1/internal/domain/pricing"
	"github.com/rotem1230/gal1/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	products map[uuid.UUID]*catalog.Product
	err      error
	calls    int
}

func (f *fakeCatalog) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func pair(excl string) pricing.Pair {
	p, _ := pricing.Derive(decimal.RequireFromString(excl), pricing.Exclusive)
	return p
}

func product(name string, variations ...string) *catalog.Product {
	p := &catalog.Product{BaseEntity: shared.NewBaseEntity(), Name: name, Price: pair("10")}
	for _, v := range variations {
		p.Variations = append(p.Variations, catalog.Variation{BaseEntity: shared.NewBaseEntity(), ProductID: p.ID, Name: v})
	}
	return p
}

func entry(p *catalog.Product, variation *uuid.UUID, excl string) Entry {
	return Entry{ProductID: p.ID, VariationID: variation, Price: pair(excl)}
}

func TestAggregate(t *testing.T) {
	ctx := context.Background()

	t.Run("groups by product and variation in first seen order", func(t *testing.T) {
		p1 := product("Cola")
		p2 := product("Shirt", "Large")
		v1 := p2.Variations[0].ID
		reader := &fakeCatalog{products: map[uuid.UUID]*catalog.Product{p1.ID: p1, p2.ID: p2}}

		entries := []Entry{entry(p1, nil, "10"), entry(p1, nil, "10"), entry(p2, &v1, "50")}
		agg, err := Aggregate(ctx, entries, reader)
		require.NoError(t, err)

		require.Len(t, agg.Items, 2)
		assert.Equal(t, p1.ID, agg.Items[0].ProductID)
		assert.Equal(t, 2, agg.Items[0].Quantity)
		assert.Nil(t, agg.Items[0].VariationID)
		assert.Equal(t, p2.ID, agg.Items[1].ProductID)
		assert.Equal(t, 1, agg.Items[1].Quantity)
		assert.Equal(t, "Shirt (Large)", agg.Items[1].DisplayName())

		assert.True(t, agg.Total.WithoutVAT.Equal(decimal.NewFromInt(70)))
		assert.True(t, agg.Total.WithVAT.Equal(decimal.RequireFromString("82.6")))
		assert.Equal(t, 3, agg.Quantity())
		assert.Equal(t, 2, reader.calls)
	})

	t.Run("unit price comes from the first entry of a group", func(t *testing.T) {
		p := product("Bread")
		reader := &fakeCatalog{products: map[uuid.UUID]*catalog.Product{p.ID: p}}

		agg, err := Aggregate(ctx, []Entry{entry(p, nil, "5"), entry(p, nil, "7")}, reader)
		require.NoError(t, err)

		require.Len(t, agg.Items, 1)
		assert.True(t, agg.Items[0].UnitPrice.WithoutVAT.Equal(decimal.NewFromInt(5)))
		assert.True(t, agg.Items[0].LineTotal.WithoutVAT.Equal(decimal.NewFromInt(10)))
	})

	t.Run("drops groups of deleted products", func(t *testing.T) {
		kept := product("Milk")
		gone := product("Ghost")
		reader := &fakeCatalog{products: map[uuid.UUID]*catalog.Product{kept.ID: kept}}

		agg, err := Aggregate(ctx, []Entry{entry(gone, nil, "1"), entry(kept, nil, "2"), entry(gone, nil, "1")}, reader)
		require.NoError(t, err)

		require.Len(t, agg.Items, 1)
		assert.Equal(t, "Milk", agg.Items[0].ProductName)
		assert.Equal(t, []uuid.UUID{gone.ID}, agg.Dropped)
	})

	t.Run("keeps line with empty label when variation vanished", func(t *testing.T) {
		p := product("Shirt")
		stale := uuid.New()
		reader := &fakeCatalog{products: map[uuid.UUID]*catalog.Product{p.ID: p}}

		agg, err := Aggregate(ctx, []Entry{entry(p, &stale, "20")}, reader)
		require.NoError(t, err)

		require.Len(t, agg.Items, 1)
		assert.Empty(t, agg.Items[0].VariationName)
		assert.Equal(t, "Shirt", agg.Items[0].DisplayName())
	})

	t.Run("empty cart", func(t *testing.T) {
		agg, err := Aggregate(ctx, nil, &fakeCatalog{})
		require.NoError(t, err)
		assert.True(t, agg.IsEmpty())
		assert.True(t, agg.Total.Equal(pricing.Zero))
	})

	t.Run("propagates catalog failures", func(t *testing.T) {
		p := product("Cola")
		reader := &fakeCatalog{err: errors.New("db down")}

		_, err := Aggregate(ctx, []Entry{entry(p, nil, "1")}, reader)
		assert.EqualError(t, err, "db down")
	})
}

func TestSetQuantity(t *testing.T) {
	p1 := product("Cola")
	p2 := product("Shirt", "S", "L")
	small, large := p2.Variations[0].ID, p2.Variations[1].ID

	t.Run("resizes the single group in place", func(t *testing.T) {
		entries := []Entry{entry(p1, nil, "10"), entry(p2, &small, "40"), entry(p1, nil, "12")}

		out, err := SetQuantity(entries, p1.ID, nil, 3)
		require.NoError(t, err)

		require.Len(t, out, 4)
		for i := 0; i < 3; i++ {
			assert.Equal(t, p1.ID, out[i].ProductID)
			assert.True(t, out[i].Price.WithoutVAT.Equal(decimal.NewFromInt(10)))
		}
		assert.Equal(t, p2.ID, out[3].ProductID)
	})

	t.Run("preserves variation and leaves other groups untouched", func(t *testing.T) {
		entries := []Entry{entry(p2, &small, "40"), entry(p2, &large, "50"), entry(p1, nil, "10")}

		out, err := SetQuantity(entries, p2.ID, &large, 2)
		require.NoError(t, err)

		require.Len(t, out, 4)
		assert.Equal(t, small, *out[0].VariationID)
		assert.Equal(t, large, *out[1].VariationID)
		assert.Equal(t, large, *out[2].VariationID)
		assert.Equal(t, p1.ID, out[3].ProductID)
	})

	t.Run("requires variation when the product has several groups", func(t *testing.T) {
		entries := []Entry{entry(p2, &small, "40"), entry(p2, &large, "50")}

		_, err := SetQuantity(entries, p2.ID, nil, 1)
		assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
	})

	t.Run("zero removes the group", func(t *testing.T) {
		entries := []Entry{entry(p1, nil, "10"), entry(p1, nil, "10"), entry(p2, &small, "40")}

		out, err := SetQuantity(entries, p1.ID, nil, 0)
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, p2.ID, out[0].ProductID)
	})

	t.Run("product not in cart", func(t *testing.T) {
		_, err := SetQuantity([]Entry{entry(p1, nil, "10")}, p2.ID, nil, 1)
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("unknown variation", func(t *testing.T) {
		_, err := SetQuantity([]Entry{entry(p2, &small, "10")}, p2.ID, &large, 1)
		assert.True(t, shared.IsNotFound(err))
	})

	t.Run("negative quantity", func(t *testing.T) {
		_, err := SetQuantity([]Entry{entry(p1, nil, "10")}, p1.ID, nil, -1)
		assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
	})
}

func TestRemoveProduct(t *testing.T) {
	p1 := product("Cola")
	p2 := product("Shirt", "S")
	v := p2.Variations[0].ID

	out := RemoveProduct([]Entry{entry(p2, &v, "1"), entry(p1, nil, "1"), entry(p2, nil, "1")}, p2.ID)
	require.Len(t, out, 1)
	assert.Equal(t, p1.ID, out[0].ProductID)
}

func TestNewSession(t *testing.T) {
	s, err := NewSession(" abc ")
	require.NoError(t, err)
	assert.Equal(t, "abc", s.ID)

	_, err = NewSession("")
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
}
