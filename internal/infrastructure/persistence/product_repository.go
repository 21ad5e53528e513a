package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rotem1230/gal1/internal/domain/catalog"
	"github.com/rotem1230/gal1/internal/domain/shared"
	"github.com/rotem1230/gal1/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func preloadVariations(db *gorm.DB) *gorm.DB {
	return db.Order("name ASC")
}

// FindByID finds a product and its variations
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).
		Preload("Variations", preloadVariations).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists products matching the query, variations included
func (r *GormProductRepository) FindAll(ctx context.Context, query catalog.ProductQuery) ([]catalog.Product, error) {
	db := r.db.WithContext(ctx).Model(&models.ProductModel{}).Preload("Variations", preloadVariations)

	if search := strings.TrimSpace(query.Search); search != "" {
		db = db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if query.CategoryID != nil {
		db = db.Where("category_id = ?", *query.CategoryID)
	}
	switch query.Sort {
	case catalog.SortByPriceAsc:
		db = db.Order("price_with_vat ASC").Order("name ASC")
	case catalog.SortByPriceDesc:
		db = db.Order("price_with_vat DESC").Order("name ASC")
	default:
		db = db.Order("name ASC")
	}
	if query.Limit > 0 {
		db = db.Limit(query.Limit)
	}

	var rows []models.ProductModel
	if err := db.Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	products := make([]catalog.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products, nil
}

// Save creates or updates the product row. Variations are saved through SaveVariation.
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	model := models.ProductModelFromDomain(product)
	return translateError(r.db.WithContext(ctx).Omit("Variations").Save(model).Error)
}

// Delete removes a product together with its variations
func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return translateError(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.VariationModel{}, "product_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.ProductModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	}))
}

// DeleteAll removes every variation and then every product
func (r *GormProductRepository) DeleteAll(ctx context.Context) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.VariationModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("1 = 1").Delete(&models.ProductModel{})
		deleted = result.RowsAffected
		return result.Error
	})
	return deleted, translateError(err)
}

// CountOrderReferences counts order items pointing at the product
func (r *GormProductRepository) CountOrderReferences(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OrderItemModel{}).Where("product_id = ?", id).Count(&count).Error
	return count, translateError(err)
}

// FindVariations lists the variations of a product ordered by name
func (r *GormProductRepository) FindVariations(ctx context.Context, productID uuid.UUID) ([]catalog.Variation, error) {
	var rows []models.VariationModel
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	variations := make([]catalog.Variation, len(rows))
	for i := range rows {
		variations[i] = *rows[i].ToDomain()
	}
	return variations, nil
}

// SaveVariation creates or updates a variation
func (r *GormProductRepository) SaveVariation(ctx context.Context, variation *catalog.Variation) error {
	return translateError(r.db.WithContext(ctx).Save(models.VariationModelFromDomain(variation)).Error)
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)
