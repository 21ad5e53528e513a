package catalog

import (
	"strings"

	"github.com/rotem1230/gal1/internal/domain/shared"
)

// Category groups products for browsing
type Category struct {
	shared.BaseEntity
	Name  string
	Image *string
}

// NewCategory creates a new category
func NewCategory(name string, image *string) (*Category, error) {
	name = strings.TrimSpace(name)
	if err := validateName("category", name); err != nil {
		return nil, err
	}
	return &Category{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Image:      normalizeImage(image),
	}, nil
}

// Update changes the category name and image
func (c *Category) Update(name string, image *string) error {
	name = strings.TrimSpace(name)
	if err := validateName("category", name); err != nil {
		return err
	}
	c.Name = name
	c.Image = normalizeImage(image)
	c.Touch()
	return nil
}

func validateName(kind, name string) error {
	if name == "" {
		return shared.NewValidationError(kind + " name is required")
	}
	if len([]rune(name)) > 200 {
		return shared.NewValidationError(kind + " name cannot exceed 200 characters")
	}
	return nil
}

func normalizeImage(image *string) *string {
	if image == nil {
		return nil
	}
	v := strings.TrimSpace(*image)
	if v == "" {
		return nil
	}
	return &v
}
