package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/bilsportlisens/lisensbutikk-backend/pkg/db/models"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/enums"
	pkgerrors "github.com/bilsportlisens/lisensbutikk-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category is one entry of the category listing.
type Category struct {
	Value    enums.LicenseCategory `json:"value"`
	Label    string                `json:"label"`
	SubTypes []string              `json:"sub_types"`
}

// Service exposes catalog reads for the storefront.
type Service interface {
	ListProducts(ctx context.Context, filters ProductFilters) ([]models.LicenseProduct, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.LicenseProduct, error)
	ListCategories(ctx context.Context) ([]Category, error)
}

type service struct {
	repo Repository
}

// NewService builds the catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListProducts(ctx context.Context, filters ProductFilters) ([]models.LicenseProduct, error) {
	products, err := s.repo.ListProducts(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing license products")
	}
	return products, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.LicenseProduct, error) {
	product, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "license product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading license product")
	}
	return product, nil
}

// ListCategories returns every category with the sub types that currently
// have active products.
func (s *service) ListCategories(ctx context.Context) ([]Category, error) {
	products, err := s.repo.ListProducts(ctx, ProductFilters{ActiveOnly: true})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing catalog categories")
	}

	subTypes := make(map[enums.LicenseCategory][]string)
	seen := make(map[enums.LicenseCategory]map[string]bool)
	for _, product := range products {
		if seen[product.Category] == nil {
			seen[product.Category] = make(map[string]bool)
		}
		if !seen[product.Category][product.SubType] {
			seen[product.Category][product.SubType] = true
			subTypes[product.Category] = append(subTypes[product.Category], product.SubType)
		}
	}

	categories := make([]Category, 0, len(enums.LicenseCategories()))
	for _, category := range enums.LicenseCategories() {
		categories = append(categories, Category{
			Value:    category,
			Label:    category.Label(),
			SubTypes: subTypes[category],
		})
	}
	return categories, nil
}
