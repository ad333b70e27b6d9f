package sweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bilsportlisens/lisensbutikk-backend/internal/checkout"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/db/models"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/logger"
)

const defaultPendingOrderTTL = 24 * time.Hour

type pendingOrderReader interface {
	FindPendingOrdersBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error)
	FindSessionByID(ctx context.Context, sessionID uuid.UUID) (*models.PaymentSession, error)
	CancelPendingOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
}

type paymentVerifier interface {
	VerifyPayment(ctx context.Context, paymentID string) (*checkout.VerifyResult, error)
}

// PendingOrdersJobParams configure the stale order sweep.
type PendingOrdersJobParams struct {
	Logger    *logger.Logger
	Reader    pendingOrderReader
	Verifier  paymentVerifier
	TTL       time.Duration
	BatchSize int
}

// NewPendingOrdersJob builds the job that resolves orders stuck in PENDING.
// An order with a payment session gets one last verification against the
// gateway before it is given up on; orders that never reached the gateway
// are cancelled outright.
func NewPendingOrdersJob(params PendingOrdersJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("pending order reader required")
	}
	if params.Verifier == nil {
		return nil, fmt.Errorf("payment verifier required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultPendingOrderTTL
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	return &pendingOrdersJob{
		logg:      params.Logger,
		reader:    params.Reader,
		verifier:  params.Verifier,
		ttl:       ttl,
		batchSize: batchSize,
		now:       time.Now,
	}, nil
}

type pendingOrdersJob struct {
	logg      *logger.Logger
	reader    pendingOrderReader
	verifier  paymentVerifier
	ttl       time.Duration
	batchSize int
	now       func() time.Time
}

func (j *pendingOrdersJob) Name() string { return "pending-orders" }

func (j *pendingOrdersJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	stale, err := j.reader.FindPendingOrdersBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("query stale pending orders: %w", err)
	}
	if len(stale) > j.batchSize {
		stale = stale[:j.batchSize]
	}

	// One verification per session; orders created together resolve together.
	sessionCompleted := make(map[uuid.UUID]bool)
	var recovered, cancelled int
	for _, order := range stale {
		if order.PaymentSessionID != nil {
			completed, seen := sessionCompleted[*order.PaymentSessionID]
			if !seen {
				completed = j.verifySession(ctx, *order.PaymentSessionID)
				sessionCompleted[*order.PaymentSessionID] = completed
			}
			if completed {
				recovered++
				continue
			}
		}

		done, err := j.reader.CancelPendingOrder(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("cancel order %s: %w", order.OrderRef, err)
		}
		if done {
			cancelled++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"stale":     len(stale),
		"recovered": recovered,
		"cancelled": cancelled,
	})
	j.logg.Info(logCtx, "pending order sweep complete")
	return nil
}

// verifySession replays verification for a session that still has pending
// orders. Any failure means the orders proceed to cancellation.
func (j *pendingOrdersJob) verifySession(ctx context.Context, sessionID uuid.UUID) bool {
	session, err := j.reader.FindSessionByID(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			j.logg.Error(ctx, "loading session for stale order", err)
		}
		return false
	}
	result, err := j.verifier.VerifyPayment(ctx, session.PaymentID)
	if err != nil {
		logCtx := j.logg.WithPaymentID(ctx, session.PaymentID)
		j.logg.Warn(logCtx, "late verification failed; orders will be cancelled")
		return false
	}
	return result.Completed
}
