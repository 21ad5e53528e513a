package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/rotem1230/gal1/internal/domain/pricing"
	"github.com/rotem1230/gal1/internal/domain/shared"
)

// Product is a sellable catalog item.
// PriceWithVAT is always PriceWithoutVAT grossed up by the tax rate.
type Product struct {
	shared.BaseEntity
	Name       string
	Price      pricing.Pair
	Image      *string
	CategoryID uuid.UUID
	Variations []Variation
}

// NewProduct creates a product from an already derived price pair
func NewProduct(name string, price pricing.Pair, categoryID uuid.UUID, image *string) (*Product, error) {
	name = strings.TrimSpace(name)
	if err := validateName("product", name); err != nil {
		return nil, err
	}
	if categoryID == uuid.Nil {
		return nil, shared.NewValidationError("category is required")
	}
	if price.WithVAT.IsNegative() || price.WithoutVAT.IsNegative() {
		return nil, shared.NewValidationError("price cannot be negative")
	}
	return &Product{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Price:      price,
		Image:      normalizeImage(image),
		CategoryID: categoryID,
	}, nil
}

// Update replaces the editable product fields
func (p *Product) Update(name string, price pricing.Pair, categoryID uuid.UUID, image *string) error {
	name = strings.TrimSpace(name)
	if err := validateName("product", name); err != nil {
		return err
	}
	if categoryID == uuid.Nil {
		return shared.NewValidationError("category is required")
	}
	p.Name = name
	p.Price = price
	p.CategoryID = categoryID
	p.Image = normalizeImage(image)
	p.Touch()
	return nil
}

// HasVariations reports whether a variation must be chosen on cart insertion
func (p *Product) HasVariations() bool {
	return len(p.Variations) > 0
}

// Variation returns the variation with the given id
func (p *Product) Variation(id uuid.UUID) (*Variation, bool) {
	for i := range p.Variations {
		if p.Variations[i].ID == id {
			return &p.Variations[i], true
		}
	}
	return nil, false
}
