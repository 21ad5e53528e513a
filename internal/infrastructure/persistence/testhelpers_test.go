package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rotem1230/gal1/internal/domain/catalog"
	"github.com/rotem1230/gal1/internal/domain/partner"
	"github.com/rotem1230/gal1/internal/domain/pricing"
	"github.com/rotem1230/gal1/internal/infrastructure/config"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newTestDB opens a migrated in-memory SQLite database
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:", AutoMigrate: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db.DB
}

func price(t *testing.T, inclusive string) pricing.Pair {
	t.Helper()
	p, err := pricing.ParseAndDerive(inclusive, pricing.Inclusive)
	require.NoError(t, err)
	return p
}

func seedCategory(t *testing.T, db *gorm.DB, name string) *catalog.Category {
	t.Helper()
	c, err := catalog.NewCategory(name, nil)
	require.NoError(t, err)
	require.NoError(t, NewGormCategoryRepository(db).Save(context.Background(), c))
	return c
}

func seedProduct(t *testing.T, db *gorm.DB, categoryID uuid.UUID, name, inclusive string, variations ...string) *catalog.Product {
	t.Helper()
	repo := NewGormProductRepository(db)
	p, err := catalog.NewProduct(name, price(t, inclusive), categoryID, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), p))
	for _, vn := range variations {
		v, err := catalog.NewVariation(p.ID, vn, price(t, inclusive), nil)
		require.NoError(t, err)
		require.NoError(t, repo.SaveVariation(context.Background(), v))
		p.Variations = append(p.Variations, *v)
	}
	return p
}

func seedCustomer(t *testing.T, db *gorm.DB, name string) *partner.Customer {
	t.Helper()
	c, err := partner.NewCustomer(name, "", "", "")
	require.NoError(t, err)
	require.NoError(t, NewGormCustomerRepository(db).Save(context.Background(), c))
	return c
}
