package models

import (
	"github.com/google/uuid"
	"github.com/rotem1230/gal1/internal/domain/catalog"
	"github.com/rotem1230/gal1/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

// CategoryModel is the persistence model for the Category domain entity.
type CategoryModel struct {
	BaseModel
	Name  string  `gorm:"type:varchar(200);not null"`
	Image *string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the persistence model to a domain Category entity.
func (m *CategoryModel) ToDomain() *catalog.Category {
	return &catalog.Category{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Image:      m.Image,
	}
}

// CategoryModelFromDomain creates a new persistence model from a domain Category entity.
func CategoryModelFromDomain(c *catalog.Category) *CategoryModel {
	m := &CategoryModel{Name: c.Name, Image: c.Image}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}

// ProductModel is the persistence model for the Product domain entity.
type ProductModel struct {
	BaseModel
	Name            string           `gorm:"type:varchar(200);not null;index"`
	PriceWithoutVAT decimal.Decimal  `gorm:"column:price_without_vat;type:decimal(18,6);not null"`
	PriceWithVAT    decimal.Decimal  `gorm:"column:price_with_vat;type:decimal(18,6);not null"`
	Image           *string          `gorm:"type:varchar(500)"`
	CategoryID      uuid.UUID        `gorm:"type:uuid;not null;index"`
	Variations      []VariationModel `gorm:"foreignKey:ProductID"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
// Variations are included when they were preloaded.
func (m *ProductModel) ToDomain() *catalog.Product {
	p := &catalog.Product{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Price:      pricing.Pair{WithoutVAT: m.PriceWithoutVAT, WithVAT: m.PriceWithVAT},
		Image:      m.Image,
		CategoryID: m.CategoryID,
	}
	for i := range m.Variations {
		p.Variations = append(p.Variations, *m.Variations[i].ToDomain())
	}
	return p
}

// ProductModelFromDomain creates a new persistence model from a domain Product
// entity. Variations are persisted separately.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{
		Name:            p.Name,
		PriceWithoutVAT: p.Price.WithoutVAT,
		PriceWithVAT:    p.Price.WithVAT,
		Image:           p.Image,
		CategoryID:      p.CategoryID,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}

// VariationModel is the persistence model for the Variation domain entity.
type VariationModel struct {
	BaseModel
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name            string          `gorm:"type:varchar(200);not null"`
	PriceWithoutVAT decimal.Decimal `gorm:"column:price_without_vat;type:decimal(18,6);not null"`
	PriceWithVAT    decimal.Decimal `gorm:"column:price_with_vat;type:decimal(18,6);not null"`
	Image           *string         `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (VariationModel) TableName() string {
	return "variations"
}

// ToDomain converts the persistence model to a domain Variation entity.
func (m *VariationModel) ToDomain() *catalog.Variation {
	return &catalog.Variation{
		BaseEntity: m.BaseModel.ToDomain(),
		ProductID:  m.ProductID,
		Name:       m.Name,
		Price:      pricing.Pair{WithoutVAT: m.PriceWithoutVAT, WithVAT: m.PriceWithVAT},
		Image:      m.Image,
	}
}

// VariationModelFromDomain creates a new persistence model from a domain Variation entity.
func VariationModelFromDomain(v *catalog.Variation) *VariationModel {
	m := &VariationModel{
		ProductID:       v.ProductID,
		Name:            v.Name,
		PriceWithoutVAT: v.Price.WithoutVAT,
		PriceWithVAT:    v.Price.WithVAT,
		Image:           v.Image,
	}
	m.FromDomainBaseEntity(v.BaseEntity)
	return m
}
