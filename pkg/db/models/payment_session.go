package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentSession records one hosted checkout session at the gateway.
// FulfilledAt is the exactly-once claim for receipt dispatch: the first
// verification to set it owns sending the email.
type PaymentSession struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentID   string     `gorm:"column:payment_id;not null;unique"`
	OrderNumber string     `gorm:"column:order_number;not null"`
	AmountMinor int64      `gorm:"column:amount_minor;not null"`
	Currency    string     `gorm:"column:currency;not null;default:'NOK'"`
	FulfilledAt *time.Time `gorm:"column:fulfilled_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}
