package fulfillment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/bilsportlisens/lisensbutikk-backend/internal/orders"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/db/models"
	pkgerrors "github.com/bilsportlisens/lisensbutikk-backend/pkg/errors"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/logger"
)

type orderSource interface {
	FindSessionByID(ctx context.Context, sessionID uuid.UUID) (*models.PaymentSession, error)
	FindOrdersBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Order, error)
	FindLicenseByID(ctx context.Context, licenseID uuid.UUID) (*models.License, error)
	FindClubByID(ctx context.Context, clubID uuid.UUID) (*models.Club, error)
}

type receiptMailer interface {
	SendReceipt(ctx context.Context, toEmail, orderNumber string, attachments []Attachment) error
}

// Dispatcher assembles and mails the receipt bundle for a paid session.
type Dispatcher struct {
	source orderSource
	mailer receiptMailer
	logg   *logger.Logger
}

// NewDispatcher builds the receipt dispatcher.
func NewDispatcher(source orderSource, mailer receiptMailer, logg *logger.Logger) (*Dispatcher, error) {
	if source == nil {
		return nil, fmt.Errorf("order source required")
	}
	if mailer == nil {
		return nil, fmt.Errorf("receipt mailer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Dispatcher{source: source, mailer: mailer, logg: logg}, nil
}

// Dispatch renders one receipt PDF per order in the session and sends them in
// a single email to the customer.
func (d *Dispatcher) Dispatch(ctx context.Context, sessionID uuid.UUID) error {
	session, err := d.source.FindSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "payment session not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading payment session")
	}

	sessionOrders, err := d.source.FindOrdersBySession(ctx, sessionID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading session orders")
	}
	if len(sessionOrders) == 0 {
		return pkgerrors.New(pkgerrors.CodeInternal, "payment session has no orders")
	}

	var (
		attachments []Attachment
		buildErrs   error
	)
	for i, order := range sessionOrders {
		ordinal := order.LineNo
		if ordinal < 1 {
			ordinal = i + 1
		}
		detail := orders.OrderDetail{Order: order, Ordinal: ordinal, Total: len(sessionOrders)}

		license, err := d.source.FindLicenseByID(ctx, order.LicenseID)
		if err != nil {
			buildErrs = multierr.Append(buildErrs, fmt.Errorf("order %s: loading license: %w", order.OrderRef, err))
			continue
		}
		detail.License = *license

		if order.ClubID != nil {
			club, err := d.source.FindClubByID(ctx, *order.ClubID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				buildErrs = multierr.Append(buildErrs, fmt.Errorf("order %s: loading club: %w", order.OrderRef, err))
				continue
			}
			if err == nil {
				detail.Club = club
			}
		}

		pdf, err := BuildReceipt(detail)
		if err != nil {
			buildErrs = multierr.Append(buildErrs, fmt.Errorf("order %s: %w", order.OrderRef, err))
			continue
		}
		attachments = append(attachments, Attachment{
			Filename: ReceiptFilename(detail.Ordinal, order.DriverName),
			Content:  pdf,
		})
	}
	if len(attachments) == 0 {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, buildErrs, "no receipts could be rendered")
	}
	if buildErrs != nil {
		logCtx := d.logg.WithOrderNumber(ctx, session.OrderNumber)
		d.logg.Warn(logCtx, "some receipts could not be rendered")
	}

	if err := d.mailer.SendReceipt(ctx, sessionOrders[0].CustomerEmail, session.OrderNumber, attachments); err != nil {
		return multierr.Append(buildErrs, err)
	}

	logCtx := d.logg.WithFields(ctx, map[string]any{
		"order_number": session.OrderNumber,
		"receipts":     len(attachments),
	})
	d.logg.Info(logCtx, "receipt email sent")
	return nil
}
