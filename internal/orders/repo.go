package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/bilsportlisens/lisensbutikk-backend/pkg/db/models"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const counterRowID = "counter"

// Works on both Postgres and SQLite; the RETURNING clause makes the
// increment and the read one statement.
const nextSequenceSQL = `
INSERT INTO order_counters (id, sequence, updated_at)
VALUES (?, 1, CURRENT_TIMESTAMP)
ON CONFLICT (id) DO UPDATE
SET sequence = order_counters.sequence + 1, updated_at = CURRENT_TIMESTAMP
RETURNING sequence`

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// NextOrderNumber atomically advances the shared counter and formats the
// order number as "{YEAR}-{sequence}" with the sequence padded to 5 digits.
func (r *repository) NextOrderNumber(ctx context.Context, year int) (string, error) {
	var sequence int64
	err := r.db.WithContext(ctx).Raw(nextSequenceSQL, counterRowID).Scan(&sequence).Error
	if err != nil {
		return "", fmt.Errorf("advancing order counter: %w", err)
	}
	return fmt.Sprintf("%d-%05d", year, sequence), nil
}

func (r *repository) CreateLicense(ctx context.Context, license *models.License) (*models.License, error) {
	if err := r.db.WithContext(ctx).Create(license).Error; err != nil {
		return nil, err
	}
	return license, nil
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreatePaymentSession(ctx context.Context, session *models.PaymentSession) (*models.PaymentSession, error) {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (r *repository) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

func (r *repository) FindSessionByPaymentID(ctx context.Context, paymentID string) (*models.PaymentSession, error) {
	var session models.PaymentSession
	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repository) FindSessionByID(ctx context.Context, sessionID uuid.UUID) (*models.PaymentSession, error) {
	var session models.PaymentSession
	err := r.db.WithContext(ctx).
		Where("id = ?", sessionID).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *repository) FindOrdersBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("payment_session_id = ?", sessionID).
		Order("line_no ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) FindOrderByRef(ctx context.Context, orderRef string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("order_ref = ?", orderRef).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindLicenseByID(ctx context.Context, licenseID uuid.UUID) (*models.License, error) {
	var license models.License
	err := r.db.WithContext(ctx).
		Where("id = ?", licenseID).
		First(&license).Error
	if err != nil {
		return nil, err
	}
	return &license, nil
}

func (r *repository) FindClubByID(ctx context.Context, clubID uuid.UUID) (*models.Club, error) {
	var club models.Club
	err := r.db.WithContext(ctx).
		Where("id = ?", clubID).
		First(&club).Error
	if err != nil {
		return nil, err
	}
	return &club, nil
}

func (r *repository) FindPendingOrdersBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", enums.OrderStatusPending, cutoff).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrdersPaymentResult rewrites the payment outcome for every order in
// the session. COMPLETED is terminal: a later gateway read that no longer
// shows the charge must not downgrade settled orders, so those rows are
// excluded from the rewrite.
func (r *repository) UpdateOrdersPaymentResult(ctx context.Context, sessionID uuid.UUID, status enums.OrderStatus, paymentStatus enums.PaymentStatus, paymentMethod string) error {
	updates := map[string]any{
		"status":         status,
		"payment_status": paymentStatus,
	}
	if paymentMethod != "" {
		updates["payment_method"] = paymentMethod
	}
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("payment_session_id = ? AND status <> ?", sessionID, enums.OrderStatusCompleted).
		Updates(updates).Error
}

// ClaimFulfillment marks the session fulfilled if nobody has yet. Only the
// caller that flips the NULL gets true; every later caller gets false.
func (r *repository) ClaimFulfillment(ctx context.Context, sessionID uuid.UUID, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PaymentSession{}).
		Where("id = ? AND fulfilled_at IS NULL", sessionID).
		Update("fulfilled_at", at)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CancelPendingOrder cancels an order only while it is still pending.
func (r *repository) CancelPendingOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, enums.OrderStatusPending).
		Updates(map[string]any{
			"status":         enums.OrderStatusCancelled,
			"payment_status": enums.PaymentStatusFailed,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
