package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotem1230/gal1/internal/domain/shared"
)

// ProductSort orders product listings
type ProductSort string

const (
	SortByName      ProductSort = "name"
	SortByPriceAsc  ProductSort = "price_asc"
	SortByPriceDesc ProductSort = "price_desc"
)

// ParseProductSort maps a query value to a sort, defaulting to name
func ParseProductSort(s string) ProductSort {
	switch ProductSort(s) {
	case SortByPriceAsc, SortByPriceDesc:
		return ProductSort(s)
	default:
		return SortByName
	}
}

// ProductQuery filters product listings
type ProductQuery struct {
	Search     string
	CategoryID *uuid.UUID
	Sort       ProductSort
	Limit      int
}

// CategoryRepository defines persistence for categories
type CategoryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)
	FindAll(ctx context.Context) ([]Category, error)
	Save(ctx context.Context, category *Category) error
	// Delete refuses with a referential conflict while products reference the category
	Delete(ctx context.Context, id uuid.UUID) error
	CountProducts(ctx context.Context, id uuid.UUID) (int64, error)
}

// ProductRepository defines persistence for products and their variations
type ProductRepository interface {
	// FindByID loads the product with its variations
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindAll(ctx context.Context, query ProductQuery) ([]Product, error)
	Save(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteAll removes every variation and product in one transaction
	DeleteAll(ctx context.Context) (int64, error)
	CountOrderReferences(ctx context.Context, id uuid.UUID) (int64, error)

	FindVariations(ctx context.Context, productID uuid.UUID) ([]Variation, error)
	SaveVariation(ctx context.Context, variation *Variation) error
}

// CatalogReader is the read-only view the cart aggregator needs
type CatalogReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
}

var _ CatalogReader = (ProductRepository)(nil)

// ErrCategoryInUse is returned when deleting a category that still owns products
var ErrCategoryInUse = shared.NewReferentialConflictError("category still has products")

// ErrProductInUse is returned when deleting a product referenced by orders or carts
var ErrProductInUse = shared.NewReferentialConflictError("product is referenced by orders or carts")

// Dump is a flat copy of the whole catalog
type Dump struct {
	Categories []Category
	Products   []Product
	Variations []Variation
}

// ReplaceResult reports the rows touched by a table replacement
type ReplaceResult struct {
	Deleted  int64
	Inserted int64
}

// ExchangeRepository moves whole tables in and out of the catalog. Each
// method runs in its own transaction.
type ExchangeRepository interface {
	Dump(ctx context.Context) (*Dump, error)
	// AppendProducts inserts products and their variations
	AppendProducts(ctx context.Context, products []Product) error
	ReplaceCategories(ctx context.Context, categories []Category) (ReplaceResult, error)
	// ReplaceProducts swaps the product table. When withVariations is set the
	// variation table is swapped for the products' nested variations as well;
	// otherwise variations left without a product are deleted.
	ReplaceProducts(ctx context.Context, products []Product, withVariations bool) (productRows, variationRows ReplaceResult, err error)
	ReplaceVariations(ctx context.Context, variations []Variation) (ReplaceResult, error)
}
