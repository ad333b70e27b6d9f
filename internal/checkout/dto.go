package checkout

import (
	"time"

	"github.com/bilsportlisens/lisensbutikk-backend/pkg/db/models"
	"github.com/google/uuid"
)

// CartItem is one license the customer is buying.
type CartItem struct {
	ProductID  uuid.UUID
	ClubID     *uuid.UUID
	DriverName string
	VehicleReg *string
	ValidFrom  time.Time
	ValidTo    time.Time
}

// CheckoutInput carries the whole cart plus contact details.
type CheckoutInput struct {
	Items         []CartItem
	CustomerEmail string
	CustomerPhone string
}

// CheckoutResult is returned once the gateway session exists.
type CheckoutResult struct {
	OrderNumber          string
	OrderRefs            []string
	PaymentID            string
	HostedPaymentPageURL string
}

// VerifyResult reports the reconciled state after a verification call.
type VerifyResult struct {
	PaymentID   string
	OrderNumber string

	// Status is the gateway's own status string, passed through untouched.
	Status string

	Completed   bool
	ReceiptSent bool
	Orders      []models.Order
}
