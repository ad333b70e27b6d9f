package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bilsportlisens/lisensbutikk-backend/pkg/enums"
)

// License is the purchased snapshot of a catalog product. Catalog rows can
// change price or wording later without rewriting what the customer bought.
type License struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID   *uuid.UUID            `gorm:"column:product_id;type:uuid"`
	Category    enums.LicenseCategory `gorm:"column:category;not null"`
	Name        string                `gorm:"column:name;not null"`
	Description string                `gorm:"column:description;not null"`
	Price       decimal.Decimal       `gorm:"column:price;type:numeric(10,2);not null"`
	ValidFrom   time.Time             `gorm:"column:valid_from;not null"`
	ValidTo     time.Time             `gorm:"column:valid_to;not null"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
