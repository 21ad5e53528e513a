package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/rotem1230/gal1/internal/domain/pricing"
	"github.com/rotem1230/gal1/internal/domain/shared"
)

// Variation is a priced flavour of a product (size, colour, ...)
type Variation struct {
	shared.BaseEntity
	ProductID uuid.UUID
	Name      string
	Price     pricing.Pair
	Image     *string
}

// NewVariation creates a variation. Interactive entry requires a positive
// price; imported rows may carry zero and go through NewImportedVariation.
func NewVariation(productID uuid.UUID, name string, price pricing.Pair, image *string) (*Variation, error) {
	if price.WithVAT.Sign() <= 0 {
		return nil, shared.NewValidationError("variation price must be greater than zero")
	}
	return NewImportedVariation(productID, name, price, image)
}

// NewImportedVariation creates a variation without the positive price rule
func NewImportedVariation(productID uuid.UUID, name string, price pricing.Pair, image *string) (*Variation, error) {
	name = strings.TrimSpace(name)
	if err := validateName("variation", name); err != nil {
		return nil, err
	}
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("product is required")
	}
	if price.WithVAT.IsNegative() {
		return nil, shared.NewValidationError("price cannot be negative")
	}
	return &Variation{
		BaseEntity: shared.NewBaseEntity(),
		ProductID:  productID,
		Name:       name,
		Price:      price,
		Image:      normalizeImage(image),
	}, nil
}
