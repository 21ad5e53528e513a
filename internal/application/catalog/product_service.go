package catalog

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rotem1230/gal1/internal/domain/cart"
	"github.com/rotem1230/gal1/internal/domain/catalog"
	"go.uber.org/zap"
)

// Quick search tuning
const (
	SearchMinLength = 2
	SearchLimit     = 5
)

// ProductService handles product and variation operations
type ProductService struct {
	productRepo  catalog.ProductRepository
	categoryRepo catalog.CategoryRepository
	carts        cart.Inspector
	images       ImageStore
	logger       *zap.Logger
}

// NewProductService creates a new ProductService. carts and images may be nil;
// without carts the delete guard only checks orders.
func NewProductService(
	productRepo catalog.ProductRepository,
	categoryRepo catalog.CategoryRepository,
	carts cart.Inspector,
	images ImageStore,
	logger *zap.Logger,
) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		carts:        carts,
		images:       images,
		logger:       logger,
	}
}

// Create creates a new product in an existing category
func (s *ProductService) Create(ctx context.Context, req ProductRequest) (*ProductResponse, error) {
	price, err := req.Resolve()
	if err != nil {
		return nil, err
	}
	if _, err := s.categoryRepo.FindByID(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	product, err := catalog.NewProduct(req.Name, price, req.CategoryID, req.Image)
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	resp := ToProductResponse(product)
	return &resp, nil
}

// GetByID retrieves a product with its variations
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// List returns products matching the filter
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) ([]ProductResponse, error) {
	categoryID, err := filter.categoryID()
	if err != nil {
		return nil, err
	}
	products, err := s.productRepo.FindAll(ctx, catalog.ProductQuery{
		Search:     strings.TrimSpace(filter.Search),
		CategoryID: categoryID,
		Sort:       catalog.ParseProductSort(filter.Sort),
	})
	if err != nil {
		return nil, err
	}
	return ToProductResponses(products), nil
}

// Search is the type-ahead lookup: queries shorter than two characters
// match nothing, and at most five products are returned.
func (s *ProductService) Search(ctx context.Context, q string) ([]ProductResponse, error) {
	q = strings.TrimSpace(q)
	if utf8.RuneCountInString(q) < SearchMinLength {
		return []ProductResponse{}, nil
	}
	products, err := s.productRepo.FindAll(ctx, catalog.ProductQuery{
		Search: q,
		Sort:   catalog.SortByName,
		Limit:  SearchLimit,
	})
	if err != nil {
		return nil, err
	}
	return ToProductResponses(products), nil
}

// Update replaces a product's editable fields
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req ProductRequest) (*ProductResponse, error) {
	price, err := req.Resolve()
	if err != nil {
		return nil, err
	}
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.CategoryID != req.CategoryID {
		if _, err := s.categoryRepo.FindByID(ctx, req.CategoryID); err != nil {
			return nil, err
		}
	}

	previous := product.Image
	if err := product.Update(req.Name, price, req.CategoryID, req.Image); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	if previous != nil && (product.Image == nil || *product.Image != *previous) {
		removeImages(ctx, s.images, s.logger, previous)
	}

	resp := ToProductResponse(product)
	return &resp, nil
}

// Delete removes a product and its variations. Products still referenced by
// an order line or sitting in any cart are refused.
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	refs, err := s.productRepo.CountOrderReferences(ctx, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return catalog.ErrProductInUse.WithDetails(map[string]any{"order_items": refs})
	}
	if s.carts != nil {
		inCart, err := s.carts.ReferencesProduct(ctx, id)
		if err != nil {
			return err
		}
		if inCart {
			return catalog.ErrProductInUse.WithDetails(map[string]any{"in_cart": true})
		}
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}

	keys := []*string{product.Image}
	for i := range product.Variations {
		keys = append(keys, product.Variations[i].Image)
	}
	removeImages(ctx, s.images, s.logger, keys...)

	s.logger.Info("Product deleted", zap.String("product_id", id.String()))
	return nil
}

// DeleteAll removes every product together with its variations
func (s *ProductService) DeleteAll(ctx context.Context) (int64, error) {
	n, err := s.productRepo.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info("All products deleted", zap.Int64("count", n))
	return n, nil
}

// AddVariation adds a priced variation to a product
func (s *ProductService) AddVariation(ctx context.Context, productID uuid.UUID, req VariationRequest) (*VariationResponse, error) {
	price, err := req.Resolve()
	if err != nil {
		return nil, err
	}
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	variation, err := catalog.NewVariation(productID, req.Name, price, req.Image)
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.SaveVariation(ctx, variation); err != nil {
		return nil, err
	}

	resp := ToVariationResponse(variation)
	return &resp, nil
}

// ListVariations returns the variations of a product ordered by name
func (s *ProductService) ListVariations(ctx context.Context, productID uuid.UUID) ([]VariationResponse, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	variations, err := s.productRepo.FindVariations(ctx, productID)
	if err != nil {
		return nil, err
	}
	return ToVariationResponses(variations), nil
}
