package persistence

import (
	"context"

	"github.com/rotem1230/gal1/internal/domain/catalog"
	"github.com/rotem1230/gal1/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

const insertBatchSize = 200

// GormExchangeRepository implements catalog.ExchangeRepository using GORM
type GormExchangeRepository struct {
	db *gorm.DB
}

// NewGormExchangeRepository creates a new GormExchangeRepository
func NewGormExchangeRepository(db *gorm.DB) *GormExchangeRepository {
	return &GormExchangeRepository{db: db}
}

// Dump reads every category, product and variation
func (r *GormExchangeRepository) Dump(ctx context.Context) (*catalog.Dump, error) {
	db := r.db.WithContext(ctx)

	var categories []models.CategoryModel
	if err := db.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, translateError(err)
	}
	var products []models.ProductModel
	if err := db.Order("name ASC").Find(&products).Error; err != nil {
		return nil, translateError(err)
	}
	var variations []models.VariationModel
	if err := db.Order("product_id ASC").Order("name ASC").Find(&variations).Error; err != nil {
		return nil, translateError(err)
	}

	dump := &catalog.Dump{
		Categories: make([]catalog.Category, len(categories)),
		Products:   make([]catalog.Product, len(products)),
		Variations: make([]catalog.Variation, len(variations)),
	}
	for i := range categories {
		dump.Categories[i] = *categories[i].ToDomain()
	}
	for i := range products {
		dump.Products[i] = *products[i].ToDomain()
	}
	for i := range variations {
		dump.Variations[i] = *variations[i].ToDomain()
	}
	return dump, nil
}

// AppendProducts inserts products and their nested variations in one transaction
func (r *GormExchangeRepository) AppendProducts(ctx context.Context, products []catalog.Product) error {
	productRows, variationRows := flattenProducts(products)
	return translateError(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := insertAll(tx, productRows); err != nil {
			return err
		}
		return insertAll(tx, variationRows)
	}))
}

// ReplaceCategories deletes every category and inserts the given ones
func (r *GormExchangeRepository) ReplaceCategories(ctx context.Context, categories []catalog.Category) (catalog.ReplaceResult, error) {
	rows := make([]*models.CategoryModel, len(categories))
	for i := range categories {
		rows[i] = models.CategoryModelFromDomain(&categories[i])
	}

	var res catalog.ReplaceResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deleted, err := deleteAll(tx, &models.CategoryModel{})
		if err != nil {
			return err
		}
		res.Deleted = deleted
		if err := insertAll(tx, rows); err != nil {
			return err
		}
		res.Inserted = int64(len(rows))
		return nil
	})
	if err != nil {
		return catalog.ReplaceResult{}, translateError(err)
	}
	return res, nil
}

// ReplaceProducts deletes every product and inserts the given ones. Without
// withVariations, variations whose product is gone are deleted in the same
// transaction and reported as deleted variation rows.
func (r *GormExchangeRepository) ReplaceProducts(ctx context.Context, products []catalog.Product, withVariations bool) (catalog.ReplaceResult, catalog.ReplaceResult, error) {
	productRows, variationRows := flattenProducts(products)

	var pres, vres catalog.ReplaceResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if withVariations {
			deleted, err := deleteAll(tx, &models.VariationModel{})
			if err != nil {
				return err
			}
			vres.Deleted = deleted
		}
		deleted, err := deleteAll(tx, &models.ProductModel{})
		if err != nil {
			return err
		}
		pres.Deleted = deleted
		if err := insertAll(tx, productRows); err != nil {
			return err
		}
		pres.Inserted = int64(len(productRows))
		if withVariations {
			if err := insertAll(tx, variationRows); err != nil {
				return err
			}
			vres.Inserted = int64(len(variationRows))
			return nil
		}
		orphans := tx.Where("product_id NOT IN (?)", tx.Model(&models.ProductModel{}).Select("id")).
			Delete(&models.VariationModel{})
		if orphans.Error != nil {
			return orphans.Error
		}
		vres.Deleted = orphans.RowsAffected
		return nil
	})
	if err != nil {
		return catalog.ReplaceResult{}, catalog.ReplaceResult{}, translateError(err)
	}
	return pres, vres, nil
}

// ReplaceVariations deletes every variation and inserts the given ones
func (r *GormExchangeRepository) ReplaceVariations(ctx context.Context, variations []catalog.Variation) (catalog.ReplaceResult, error) {
	rows := make([]*models.VariationModel, len(variations))
	for i := range variations {
		rows[i] = models.VariationModelFromDomain(&variations[i])
	}

	var res catalog.ReplaceResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		deleted, err := deleteAll(tx, &models.VariationModel{})
		if err != nil {
			return err
		}
		res.Deleted = deleted
		if err := insertAll(tx, rows); err != nil {
			return err
		}
		res.Inserted = int64(len(rows))
		return nil
	})
	if err != nil {
		return catalog.ReplaceResult{}, translateError(err)
	}
	return res, nil
}

func flattenProducts(products []catalog.Product) ([]*models.ProductModel, []*models.VariationModel) {
	productRows := make([]*models.ProductModel, 0, len(products))
	var variationRows []*models.VariationModel
	for i := range products {
		productRows = append(productRows, models.ProductModelFromDomain(&products[i]))
		for j := range products[i].Variations {
			variationRows = append(variationRows, models.VariationModelFromDomain(&products[i].Variations[j]))
		}
	}
	return productRows, variationRows
}

func deleteAll(tx *gorm.DB, model any) (int64, error) {
	result := tx.Where("1 = 1").Delete(model)
	return result.RowsAffected, result.Error
}

func insertAll[T any](tx *gorm.DB, rows []*T) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.CreateInBatches(rows, insertBatchSize).Error
}

var _ catalog.ExchangeRepository = (*GormExchangeRepository)(nil)
