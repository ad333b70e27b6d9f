package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/bilsportlisens/lisensbutikk-backend/pkg/db/models"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`
CREATE TABLE IF NOT EXISTS license_products (
  id TEXT PRIMARY KEY,
  category TEXT NOT NULL,
  sub_type TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`).Error)
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, category enums.LicenseCategory, subType, name string, active bool) *models.LicenseProduct {
	t.Helper()
	product := &models.LicenseProduct{
		ID:       uuid.New(),
		Category: category,
		SubType:  subType,
		Name:     name,
		Price:    decimal.NewFromInt(450),
		Active:   active,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestListProductsFilters(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedProduct(t, db, enums.LicenseCategoryKonkurranse, "bilcross", "Engangslisens Bilcross", true)
	seedProduct(t, db, enums.LicenseCategoryKonkurranse, "rallycross", "Engangslisens Rallycross", true)
	seedProduct(t, db, enums.LicenseCategoryTrening, "trening", "Treningslisens", true)
	seedProduct(t, db, enums.LicenseCategoryKonkurranse, "bilcross", "Utgått lisens", false)

	all, err := repo.ListProducts(ctx, ProductFilters{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	active, err := repo.ListProducts(ctx, ProductFilters{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, 3)

	category := enums.LicenseCategoryKonkurranse
	konkurranse, err := repo.ListProducts(ctx, ProductFilters{Category: &category, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, konkurranse, 2)
	assert.Equal(t, "bilcross", konkurranse[0].SubType)
	assert.Equal(t, "rallycross", konkurranse[1].SubType)

	bilcross, err := repo.ListProducts(ctx, ProductFilters{SubType: "bilcross", ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, bilcross, 1)
	assert.Equal(t, "Engangslisens Bilcross", bilcross[0].Name)
}

func TestInactiveProductStaysInactive(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := seedProduct(t, db, enums.LicenseCategoryKonkurranse, "bilcross", "Utgått lisens", false)

	found, err := repo.FindProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.False(t, found.Active, "inactive product must not come back active")
}

func TestFindProduct(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	product := seedProduct(t, db, enums.LicenseCategoryBanedag, "banedag", "Banedaglisens", true)

	found, err := repo.FindProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Banedaglisens", found.Name)

	_, err = repo.FindProduct(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
