package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bilsportlisens/lisensbutikk-backend/pkg/enums"
)

// Order is one cart line of a checkout. Every order carries exactly one
// license; orders created together share the order number prefix of their
// OrderRef and, once the gateway session exists, the same PaymentSessionID.
type Order struct {
	ID uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`

	// OrderRef is the human readable reference, "{YEAR}-{seq}-{idx}".
	OrderRef string `gorm:"column:order_ref;not null;unique"`

	// LineNo is the 1-based cart position. Listings sort on it because the
	// textual OrderRef puts "-10" before "-2".
	LineNo int `gorm:"column:line_no;not null"`

	LicenseID uuid.UUID  `gorm:"column:license_id;type:uuid;not null;unique"`
	ClubID    *uuid.UUID `gorm:"column:club_id;type:uuid"`

	PaymentSessionID *uuid.UUID `gorm:"column:payment_session_id;type:uuid"`

	// TransactionID is "{paymentId}-{idx}", kept for human correlation with
	// the gateway dashboard. Reconciliation joins on PaymentSessionID.
	TransactionID *string `gorm:"column:transaction_id"`

	Status        enums.OrderStatus    `gorm:"column:status;not null;default:'PENDING'"`
	PaymentStatus *enums.PaymentStatus `gorm:"column:payment_status"`
	PaymentMethod *string              `gorm:"column:payment_method"`

	TotalAmount decimal.Decimal `gorm:"column:total_amount;type:numeric(10,2);not null"`

	CustomerEmail string  `gorm:"column:customer_email;not null"`
	CustomerPhone string  `gorm:"column:customer_phone;not null"`
	DriverName    string  `gorm:"column:driver_name;not null"`
	VehicleReg    *string `gorm:"column:vehicle_reg"`

	ValidFrom time.Time `gorm:"column:valid_from;not null"`
	ValidTo   time.Time `gorm:"column:valid_to;not null"`
	OrderDate time.Time `gorm:"column:order_date;not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
