package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/rotem1230/gal1/internal/domain/catalog"
	"github.com/rotem1230/gal1/internal/domain/pricing"
	"github.com/rotem1230/gal1/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PriceInput carries exactly one authoritative price. The tax-inclusive
// value is the normal input; the tax-exclusive one is accepted on its own.
type PriceInput struct {
	PriceWithVAT    *decimal.Decimal `json:"price_with_vat"`
	PriceWithoutVAT *decimal.Decimal `json:"price_without_vat"`
}

// Resolve derives the full price pair
func (in PriceInput) Resolve() (pricing.Pair, error) {
	switch {
	case in.PriceWithVAT != nil && in.PriceWithoutVAT != nil:
		return pricing.Pair{}, shared.NewValidationError("supply either price_with_vat or price_without_vat, not both")
	case in.PriceWithVAT != nil:
		return pricing.Derive(*in.PriceWithVAT, pricing.Inclusive)
	case in.PriceWithoutVAT != nil:
		return pricing.Derive(*in.PriceWithoutVAT, pricing.Exclusive)
	default:
		return pricing.Pair{}, shared.NewValidationError("price is required")
	}
}

// CategoryRequest creates or updates a category
type CategoryRequest struct {
	Name  string  `json:"name" binding:"required,min=1,max=200"`
	Image *string `json:"image" binding:"omitempty,max=500"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Image     *string   `json:"image,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductRequest creates or updates a product
type ProductRequest struct {
	Name       string    `json:"name" binding:"required,min=1,max=200"`
	CategoryID uuid.UUID `json:"category_id" binding:"required"`
	Image      *string   `json:"image" binding:"omitempty,max=500"`
	PriceInput
}

// VariationRequest adds a variation to a product
type VariationRequest struct {
	Name  string  `json:"name" binding:"required,min=1,max=200"`
	Image *string `json:"image" binding:"omitempty,max=500"`
	PriceInput
}

// ProductListFilter represents the query string of product listings
type ProductListFilter struct {
	Search     string `form:"search"`
	CategoryID string `form:"category_id" binding:"omitempty,uuid"`
	Sort       string `form:"sort" binding:"omitempty,oneof=name price_asc price_desc"`
}

// categoryID returns the parsed category filter, nil when absent
func (f ProductListFilter) categoryID() (*uuid.UUID, error) {
	if f.CategoryID == "" {
		return nil, nil
	}
	id, err := uuid.Parse(f.CategoryID)
	if err != nil {
		return nil, shared.NewValidationError("category_id must be a UUID")
	}
	return &id, nil
}

// VariationResponse represents a variation in API responses
type VariationResponse struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	pricing.Pair
	Image *string `json:"image,omitempty"`
}

// ProductResponse represents a product with its variations
type ProductResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	CategoryID uuid.UUID `json:"category_id"`
	pricing.Pair
	Image      *string             `json:"image,omitempty"`
	Variations []VariationResponse `json:"variations"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// ToCategoryResponse converts a domain Category
func ToCategoryResponse(c *catalog.Category) CategoryResponse {
	return CategoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		Image:     c.Image,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// ToCategoryResponses converts a slice of domain Categories
func ToCategoryResponses(categories []catalog.Category) []CategoryResponse {
	out := make([]CategoryResponse, len(categories))
	for i := range categories {
		out[i] = ToCategoryResponse(&categories[i])
	}
	return out
}

// ToVariationResponse converts a domain Variation
func ToVariationResponse(v *catalog.Variation) VariationResponse {
	return VariationResponse{
		ID:        v.ID,
		ProductID: v.ProductID,
		Name:      v.Name,
		Pair:      v.Price,
		Image:     v.Image,
	}
}

// ToVariationResponses converts a slice of domain Variations
func ToVariationResponses(variations []catalog.Variation) []VariationResponse {
	out := make([]VariationResponse, len(variations))
	for i := range variations {
		out[i] = ToVariationResponse(&variations[i])
	}
	return out
}

// ToProductResponse converts a domain Product
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:         p.ID,
		Name:       p.Name,
		CategoryID: p.CategoryID,
		Pair:       p.Price,
		Image:      p.Image,
		Variations: ToVariationResponses(p.Variations),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

// ToProductResponses converts a slice of domain Products
func ToProductResponses(products []catalog.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = ToProductResponse(&products[i])
	}
	return out
}
