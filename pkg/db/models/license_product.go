package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bilsportlisens/lisensbutikk-backend/pkg/enums"
)

// LicenseProduct is a purchasable catalog entry.
type LicenseProduct struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Category    enums.LicenseCategory `gorm:"column:category;not null"`
	SubType     string                `gorm:"column:sub_type;not null"`
	Name        string                `gorm:"column:name;not null"`
	Description string                `gorm:"column:description;not null"`
	Price       decimal.Decimal       `gorm:"column:price;type:numeric(10,2);not null"`

	// No default tag here: GORM drops zero-value fields that carry one on
	// Create, which would silently turn an inactive product active. The
	// column default lives in the migration.
	Active bool `gorm:"column:active;not null"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
