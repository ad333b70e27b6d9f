package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bilsportlisens/lisensbutikk-backend/api/responses"
	"github.com/bilsportlisens/lisensbutikk-backend/internal/catalog"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/db/models"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/enums"
	pkgerrors "github.com/bilsportlisens/lisensbutikk-backend/pkg/errors"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/logger"
)

type licenseProductResponse struct {
	ID          uuid.UUID `json:"id"`
	Category    string    `json:"category"`
	SubType     string    `json:"sub_type"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
}

func newLicenseProductResponse(product models.LicenseProduct) licenseProductResponse {
	return licenseProductResponse{
		ID:          product.ID,
		Category:    product.Category.String(),
		SubType:     product.SubType,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price.StringFixed(2),
	}
}

// LicenseList returns the purchasable catalog, optionally filtered by
// category and sub type.
func LicenseList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters := catalog.ProductFilters{ActiveOnly: true}

		if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
			category, err := enums.ParseLicenseCategory(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
				return
			}
			filters.Category = &category
		}
		filters.SubType = strings.TrimSpace(r.URL.Query().Get("sub_type"))

		products, err := svc.ListProducts(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]licenseProductResponse, 0, len(products))
		for _, product := range products {
			out = append(out, newLicenseProductResponse(product))
		}
		responses.WriteSuccess(w, out)
	}
}

// LicenseDetail returns one catalog entry.
func LicenseDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "licenseId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid license product id"))
			return
		}

		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newLicenseProductResponse(*product))
	}
}

// LicenseCategories lists every license category with its active sub types.
func LicenseCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

// LicenseSubTypes lists the active sub types within one category.
func LicenseSubTypes(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.URL.Query().Get("category"))
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "category query parameter is required"))
			return
		}
		category, err := enums.ParseLicenseCategory(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category"))
			return
		}

		categories, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		for _, entry := range categories {
			if entry.Value == category {
				responses.WriteSuccess(w, map[string]any{
					"category":  entry.Value,
					"sub_types": entry.SubTypes,
				})
				return
			}
		}
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "category not found"))
	}
}
