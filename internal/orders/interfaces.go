package orders

import (
	"context"
	"time"

	"github.com/bilsportlisens/lisensbutikk-backend/pkg/db/models"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the order and payment tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	NextOrderNumber(ctx context.Context, year int) (string, error)

	CreateLicense(ctx context.Context, license *models.License) (*models.License, error)
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreatePaymentSession(ctx context.Context, session *models.PaymentSession) (*models.PaymentSession, error)

	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error

	FindSessionByPaymentID(ctx context.Context, paymentID string) (*models.PaymentSession, error)
	FindSessionByID(ctx context.Context, sessionID uuid.UUID) (*models.PaymentSession, error)
	FindOrdersBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Order, error)
	FindOrderByRef(ctx context.Context, orderRef string) (*models.Order, error)
	FindLicenseByID(ctx context.Context, licenseID uuid.UUID) (*models.License, error)
	FindClubByID(ctx context.Context, clubID uuid.UUID) (*models.Club, error)
	FindPendingOrdersBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error)

	UpdateOrdersPaymentResult(ctx context.Context, sessionID uuid.UUID, status enums.OrderStatus, paymentStatus enums.PaymentStatus, paymentMethod string) error
	ClaimFulfillment(ctx context.Context, sessionID uuid.UUID, at time.Time) (bool, error)
	CancelPendingOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
}
