package bulk

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rotem1230/gal1/internal/domain/catalog"
	"github.com/rotem1230/gal1/internal/domain/pricing"
	"github.com/rotem1230/gal1/internal/domain/shared"
	"github.com/rotem1230/gal1/internal/infrastructure/config"
	csvimport "github.com/rotem1230/gal1/internal/infrastructure/import"
	"github.com/rotem1230/gal1/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImages map[string]bool

func (f fakeImages) Exists(_ context.Context, key string) (bool, error) { return f[key], nil }
func (f fakeImages) Delete(_ context.Context, key string) error       { delete(f, key); return nil }

type rowMetrics map[string]int64

func (m rowMetrics) RecordRowsImported(_ context.Context, entity string, rows int64) {
	m[entity] += rows
}

type fixture struct {
	exchange   *persistence.GormExchangeRepository
	categories *persistence.GormCategoryRepository
	products   *persistence.GormProductRepository
	metrics    rowMetrics
	svc        *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:", AutoMigrate: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{
		exchange:   persistence.NewGormExchangeRepository(db.DB),
		categories: persistence.NewGormCategoryRepository(db.DB),
		products:   persistence.NewGormProductRepository(db.DB),
		metrics:    rowMetrics{},
	}
	f.svc = NewService(f.exchange, f.categories, fakeImages{"shirt.png": true}, nil, WithMetrics(f.metrics))
	return f
}

// seed creates two categories, three products and two variations
func (f *fixture) seed(t *testing.T) (*catalog.Category, *catalog.Product) {
	t.Helper()
	ctx := context.Background()
	var first *catalog.Category
	for _, name := range []string{"ביגוד", "משקאות"} {
		c, err := catalog.NewCategory(name, nil)
		require.NoError(t, err)
		require.NoError(t, f.categories.Save(ctx, c))
		if first == nil {
			first = c
		}
	}

	var shirt *catalog.Product
	for _, name := range []string{"חולצה", "מכנסיים", "גרביים"} {
		price, err := pricing.Derive(decimal.NewFromInt(59), pricing.Inclusive)
		require.NoError(t, err)
		p, err := catalog.NewProduct(name, price, first.ID, nil)
		require.NoError(t, err)
		require.NoError(t, f.products.Save(ctx, p))
		if shirt == nil {
			shirt = p
		}
	}
	for _, size := range []string{"M", "L"} {
		price, err := pricing.Derive(decimal.NewFromInt(65), pricing.Inclusive)
		require.NoError(t, err)
		v, err := catalog.NewVariation(shirt.ID, size, price, nil)
		require.NoError(t, err)
		require.NoError(t, f.products.SaveVariation(ctx, v))
	}
	return first, shirt
}

func (f *fixture) counts(t *testing.T) (int, int, int) {
	t.Helper()
	dump, err := f.exchange.Dump(context.Background())
	require.NoError(t, err)
	return len(dump.Categories), len(dump.Products), len(dump.Variations)
}

func rowErrorDetails(t *testing.T, err error) RowErrorDetails {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	details, ok := de.Details.(RowErrorDetails)
	require.True(t, ok, "details: %#v", de.Details)
	return details
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeAppend, m)
	m, err = ParseMode("Replace")
	require.NoError(t, err)
	assert.Equal(t, ModeReplace, m)
	_, err = ParseMode("merge")
	assert.Error(t, err)

	e, ok := ParseEntity("Products.csv")
	assert.True(t, ok)
	assert.Equal(t, EntityProducts, e)
	_, ok = ParseEntity("orders")
	assert.False(t, ok)
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, shirt := f.seed(t)

	archive, err := f.svc.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, "catalog_export.zip", archive.Filename)

	entries, err := csvimport.ReadArchive(archive.Data, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	products, err := csvimport.ParseTable(entries["products"], productColumns)
	require.NoError(t, err)
	assert.Equal(t, productColumns, products.Headers)

	files, err := f.svc.FilesFromArchive(archive.Data)
	require.NoError(t, err)
	result, err := f.svc.Import(ctx, files, ModeReplace)
	require.NoError(t, err)

	assert.Equal(t, EntityResult{RowsInserted: 2, RowsDeleted: 2}, result.Entities[EntityCategories])
	assert.Equal(t, EntityResult{RowsInserted: 3, RowsDeleted: 3}, result.Entities[EntityProducts])
	assert.Equal(t, EntityResult{RowsInserted: 2, RowsDeleted: 2}, result.Entities[EntityVariations])

	c, p, v := f.counts(t)
	assert.Equal(t, []int{2, 3, 2}, []int{c, p, v})

	reloaded, err := f.products.FindByID(ctx, shirt.ID)
	require.NoError(t, err, "ids survive the round trip")
	assert.Len(t, reloaded.Variations, 2)
	assert.Equal(t, "59.00", reloaded.Price.WithVAT.StringFixed(2))
	assert.Equal(t, int64(3), f.metrics["products"])
}

func TestImportReplace(t *testing.T) {
	ctx := context.Background()

	t.Run("categories only leaves products and variations", func(t *testing.T) {
		f := newFixture(t)
		first, _ := f.seed(t)

		csv := "id,name\n" + first.ID.String() + ",בגדים\n"
		result, err := f.svc.Import(ctx, Files{EntityCategories: []byte(csv)}, ModeReplace)
		require.NoError(t, err)
		assert.Equal(t, EntityResult{RowsInserted: 1, RowsDeleted: 2}, result.Entities[EntityCategories])
		assert.NotContains(t, result.Entities, EntityProducts)

		c, p, v := f.counts(t)
		assert.Equal(t, []int{1, 3, 2}, []int{c, p, v})
		renamed, err := f.categories.FindByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "בגדים", renamed.Name)
	})

	t.Run("missing required column rejects before writing", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t)

		_, err := f.svc.Import(ctx, Files{
			EntityCategories: []byte("name\nחדש\n"),
			EntityProducts:   []byte("name,price_with_vat\nכובע,20\n"),
		}, ModeReplace)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing required columns: category_id")
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, MissingColumnsDetails{File: "products.csv", Missing: []string{"category_id"}}, de.Details)

		c, p, v := f.counts(t)
		assert.Equal(t, []int{2, 3, 2}, []int{c, p, v}, "categories file was not applied either")
	})

	t.Run("variation referencing an unknown product", func(t *testing.T) {
		f := newFixture(t)
		_, shirt := f.seed(t)

		csv := "product_id,name,price_with_vat\n" +
			shirt.ID.String() + ",XL,70\n" +
			uuid.New().String() + ",S,50\n"
		details := rowErrorDetails(t, func() error {
			_, err := f.svc.Import(ctx, Files{EntityVariations: []byte(csv)}, ModeReplace)
			return err
		}())
		require.Len(t, details.Errors, 1)
		assert.Equal(t, "variations.csv", details.File)
		assert.Equal(t, csvimport.ErrCodeUnknownReference, details.Errors[0].Code)
		assert.Equal(t, 3, details.Errors[0].Row)

		_, _, v := f.counts(t)
		assert.Equal(t, 2, v)
	})

	t.Run("wide variation columns replace the variation table", func(t *testing.T) {
		f := newFixture(t)
		first, _ := f.seed(t)

		csv := "name,price_with_vat,category_id,size_name,size_price_with_vat,size_image\n" +
			"חולצה,59," + first.ID.String() + ",L,65,shirt.png\n" +
			"כובע,20," + first.ID.String() + ",,,\n"
		result, err := f.svc.Import(ctx, Files{EntityProducts: []byte(csv)}, ModeReplace)
		require.NoError(t, err)
		assert.Equal(t, int64(2), result.Entities[EntityProducts].RowsInserted)
		assert.Equal(t, EntityResult{RowsInserted: 1, RowsDeleted: 2}, result.Entities[EntityVariations])
		assert.Empty(t, result.Warnings)

		_, p, v := f.counts(t)
		assert.Equal(t, []int{2, 1}, []int{p, v})
	})

	t.Run("products only prunes variations of removed products", func(t *testing.T) {
		f := newFixture(t)
		first, _ := f.seed(t)

		csv := "name,price_with_vat,category_id\nכובע,20," + first.ID.String() + "\n"
		result, err := f.svc.Import(ctx, Files{EntityProducts: []byte(csv)}, ModeReplace)
		require.NoError(t, err)
		assert.Equal(t, EntityResult{RowsInserted: 1, RowsDeleted: 3}, result.Entities[EntityProducts])
		assert.Equal(t, EntityResult{RowsDeleted: 2}, result.Entities[EntityVariations])

		c, p, v := f.counts(t)
		assert.Equal(t, []int{2, 1, 0}, []int{c, p, v})

		archive, err := f.svc.Export(ctx)
		require.NoError(t, err)
		files, err := f.svc.FilesFromArchive(archive.Data)
		require.NoError(t, err)
		_, err = f.svc.Import(ctx, files, ModeReplace)
		require.NoError(t, err, "the catalog re-imports its own export")

		c, p, v = f.counts(t)
		assert.Equal(t, []int{2, 1, 0}, []int{c, p, v})
	})

	t.Run("categories only refuses to orphan products", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t)

		_, err := f.svc.Import(ctx, Files{EntityCategories: []byte("name\nחדש\n")}, ModeReplace)
		require.Error(t, err)
		assert.Equal(t, shared.CodeReferentialConflict, shared.CodeOf(err))
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		details, ok := de.Details.(OrphanedRowsDetails)
		require.True(t, ok, "details: %#v", de.Details)
		assert.Equal(t, EntityProducts, details.Entity)
		assert.Equal(t, 3, details.TotalIDs)

		c, p, v := f.counts(t)
		assert.Equal(t, []int{2, 3, 2}, []int{c, p, v})
	})

	t.Run("categories with products may move every product", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t)

		_, err := f.svc.Import(ctx, Files{
			EntityCategories: []byte("name\nחדש\n"),
			EntityProducts:   []byte("name,price_with_vat,category_id\nכובע,20,חדש\n"),
		}, ModeReplace)
		require.NoError(t, err)

		c, p, v := f.counts(t)
		assert.Equal(t, []int{1, 1, 0}, []int{c, p, v})
	})

	t.Run("variation group without a price column", func(t *testing.T) {
		f := newFixture(t)
		first, _ := f.seed(t)

		csv := "name,price_with_vat,category_id,size_name,size_image\n" +
			"חולצה,59," + first.ID.String() + ",L,shirt.png\n"
		_, err := f.svc.Import(ctx, Files{EntityProducts: []byte(csv)}, ModeReplace)
		require.Error(t, err)
		assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, MissingColumnsDetails{File: "products.csv", Missing: []string{"size_price_with_vat"}}, de.Details)

		c, p, v := f.counts(t)
		assert.Equal(t, []int{2, 3, 2}, []int{c, p, v})
	})

	t.Run("bad price is reported with its row", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t)

		csv := "name,price_with_vat,category_id\nכובע,abc,ביגוד\nצעיף,-5,ביגוד\n"
		details := rowErrorDetails(t, func() error {
			_, err := f.svc.Import(ctx, Files{EntityProducts: []byte(csv)}, ModeReplace)
			return err
		}())
		require.Len(t, details.Errors, 2)
		assert.Equal(t, csvimport.ErrCodeInvalidPrice, details.Errors[0].Code)
		assert.Equal(t, "price_with_vat", details.Errors[0].Column)
		assert.Equal(t, 2, details.TotalErrors)
	})
}

func TestImportAppend(t *testing.T) {
	ctx := context.Background()

	t.Run("category by name or id with inline variations", func(t *testing.T) {
		f := newFixture(t)
		first, _ := f.seed(t)

		csv := "\ufeffName,Price_With_VAT,Category,color_name,color_price_with_vat,image\n" +
			"כובע,23.6,ביגוד,אדום,23.6,\n" +
			"צעיף,11.8," + first.ID.String() + ",,,missing.png\n"
		result, err := f.svc.Import(ctx, Files{EntityProducts: []byte(csv)}, ModeAppend)
		require.NoError(t, err)
		assert.Equal(t, int64(2), result.Entities[EntityProducts].RowsInserted)
		assert.Equal(t, int64(1), result.Entities[EntityVariations].RowsInserted)
		require.Len(t, result.Warnings, 1)
		assert.True(t, strings.Contains(result.Warnings[0], "missing.png"))

		_, p, v := f.counts(t)
		assert.Equal(t, []int{5, 3}, []int{p, v})

		found, err := f.products.FindAll(ctx, catalog.ProductQuery{Search: "כובע"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "20.00", found[0].Price.WithoutVAT.StringFixed(2))
	})

	t.Run("unknown category rejects the whole file", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t)

		csv := "name,price_with_vat,category\nכובע,20,ביגוד\nמיץ,8,פירות\n"
		details := rowErrorDetails(t, func() error {
			_, err := f.svc.Import(ctx, Files{EntityProducts: []byte(csv)}, ModeAppend)
			return err
		}())
		require.Len(t, details.Errors, 1)
		assert.Equal(t, csvimport.ErrCodeUnknownReference, details.Errors[0].Code)
		assert.Equal(t, "category", details.Errors[0].Column)
		assert.Equal(t, "פירות", details.Errors[0].Value)

		_, p, _ := f.counts(t)
		assert.Equal(t, 3, p, "nothing was written")
		assert.Empty(t, f.metrics)
	})

	t.Run("partial variation group rejects the file", func(t *testing.T) {
		f := newFixture(t)
		f.seed(t)

		csv := "name,price_with_vat,category,color_price_with_vat\nכובע,20,ביגוד,25\n"
		_, err := f.svc.Import(ctx, Files{EntityProducts: []byte(csv)}, ModeAppend)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "color_name")

		_, p, _ := f.counts(t)
		assert.Equal(t, 3, p)
	})

	t.Run("only products are accepted", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Import(ctx, Files{EntityCategories: []byte("name\nx\n")}, ModeAppend)
		assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
	})
}

func TestFilesFromArchive(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.FilesFromArchive([]byte("not a zip"))
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))

	_, err = f.svc.Import(context.Background(), Files{}, ModeReplace)
	assert.Equal(t, shared.CodeValidation, shared.CodeOf(err))
}
