package catalog

import (
	"context"

	"github.com/bilsportlisens/lisensbutikk-backend/pkg/db/models"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the license catalog.
type Repository interface {
	ListProducts(ctx context.Context, filters ProductFilters) ([]models.LicenseProduct, error)
	FindProduct(ctx context.Context, id uuid.UUID) (*models.LicenseProduct, error)
}

// ProductFilters narrows the catalog listing.
type ProductFilters struct {
	Category   *enums.LicenseCategory
	SubType    string
	ActiveOnly bool
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListProducts(ctx context.Context, filters ProductFilters) ([]models.LicenseProduct, error) {
	query := r.db.WithContext(ctx).Model(&models.LicenseProduct{})
	if filters.Category != nil {
		query = query.Where("category = ?", *filters.Category)
	}
	if filters.SubType != "" {
		query = query.Where("sub_type = ?", filters.SubType)
	}
	if filters.ActiveOnly {
		query = query.Where("active = ?", true)
	}

	var products []models.LicenseProduct
	if err := query.Order("category ASC, sub_type ASC, name ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.LicenseProduct, error) {
	var product models.LicenseProduct
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}
