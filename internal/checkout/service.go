package checkout

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bilsportlisens/lisensbutikk-backend/internal/orders"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/db/models"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/enums"
	pkgerrors "github.com/bilsportlisens/lisensbutikk-backend/pkg/errors"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/logger"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/metrics"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/nexi"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const currencyNOK = "NOK"

// Norwegian mobile or landline number in international form.
var phoneRe = regexp.MustCompile(`^\+47\d{8}$`)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type paymentGateway interface {
	CreatePayment(ctx context.Context, params nexi.CreatePaymentParams) (*nexi.CreatePaymentResponse, error)
	GetPayment(ctx context.Context, paymentID string) (*nexi.Payment, error)
}

type productLoader interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*models.LicenseProduct, error)
}

type receiptDispatcher interface {
	Dispatch(ctx context.Context, sessionID uuid.UUID) error
}

// Service executes the order creation and payment verification pipeline.
type Service interface {
	CreateOrders(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
	VerifyPayment(ctx context.Context, paymentID string) (*VerifyResult, error)
}

type service struct {
	tx         txRunner
	ordersRepo orders.Repository
	products   productLoader
	gateway    paymentGateway
	dispatcher receiptDispatcher
	metrics    *metrics.CheckoutMetrics
	logg       *logger.Logger
	appBaseURL string
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	ordersRepo orders.Repository,
	products productLoader,
	gateway paymentGateway,
	dispatcher receiptDispatcher,
	checkoutMetrics *metrics.CheckoutMetrics,
	logg *logger.Logger,
	appBaseURL string,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("receipt dispatcher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(appBaseURL) == "" {
		return nil, fmt.Errorf("app base url required")
	}
	return &service{
		tx:         tx,
		ordersRepo: ordersRepo,
		products:   products,
		gateway:    gateway,
		dispatcher: dispatcher,
		metrics:    checkoutMetrics,
		logg:       logg,
		appBaseURL: strings.TrimRight(appBaseURL, "/"),
	}, nil
}

// CreateOrders persists one license and one order per cart item, then
// registers a hosted checkout session at the gateway and links every order
// to it. Orders stay PENDING until verification; if the gateway call fails
// they remain PENDING and the stale-order sweep cancels them later.
func (s *service) CreateOrders(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	now := time.Now()
	var (
		orderNumber   string
		createdOrders []*models.Order
		gatewayItems  []nexi.OrderItem
		totalMinor    int64
	)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.ordersRepo.WithTx(tx)

		number, err := repo.NextOrderNumber(ctx, now.Year())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "allocating order number")
		}
		orderNumber = number

		for i, item := range input.Items {
			product, err := s.products.FindProduct(ctx, item.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown license product %s", item.ProductID))
				}
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading license product")
			}
			if !product.Active {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("license product %s is no longer sold", product.Name))
			}

			license, err := repo.CreateLicense(ctx, &models.License{
				ProductID:   &product.ID,
				Category:    product.Category,
				Name:        product.Name,
				Description: product.Description,
				Price:       product.Price,
				ValidFrom:   item.ValidFrom,
				ValidTo:     item.ValidTo,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating license")
			}

			orderRef := fmt.Sprintf("%s-%d", orderNumber, i+1)
			order, err := repo.CreateOrder(ctx, &models.Order{
				OrderRef:      orderRef,
				LineNo:        i + 1,
				LicenseID:     license.ID,
				ClubID:        item.ClubID,
				Status:        enums.OrderStatusPending,
				TotalAmount:   product.Price,
				CustomerEmail: input.CustomerEmail,
				CustomerPhone: input.CustomerPhone,
				DriverName:    item.DriverName,
				VehicleReg:    item.VehicleReg,
				ValidFrom:     item.ValidFrom,
				ValidTo:       item.ValidTo,
				OrderDate:     now,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
			}
			createdOrders = append(createdOrders, order)

			priceMinor := minorUnits(product.Price)
			totalMinor += priceMinor
			gatewayItems = append(gatewayItems, nexi.OrderItem{
				Reference:        orderRef,
				Name:             product.Name,
				Quantity:         1,
				Unit:             "stk",
				UnitPrice:        priceMinor,
				GrossTotalAmount: priceMinor,
				NetTotalAmount:   priceMinor,
			})
		}
		return nil
	})
	if err != nil {
		s.metrics.IncOrdersCreated("failed", len(input.Items))
		return nil, err
	}

	payment, err := s.gateway.CreatePayment(ctx, nexi.CreatePaymentParams{
		Order: nexi.PaymentOrder{
			Items:     gatewayItems,
			Amount:    totalMinor,
			Currency:  currencyNOK,
			Reference: orderNumber,
		},
		ReturnURL:      fmt.Sprintf("%s/bekreftelse?ordre=%s", s.appBaseURL, orderNumber),
		IdempotencyKey: fmt.Sprintf("payment.create-%s", uuid.NewString()),
	})
	if err != nil {
		ctx = s.logg.WithOrderNumber(ctx, orderNumber)
		s.logg.Error(ctx, "gateway payment creation failed, orders left pending", err)
		s.metrics.IncOrdersCreated("gateway_failed", len(createdOrders))
		return nil, err
	}

	orderRefs := make([]string, len(createdOrders))
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.ordersRepo.WithTx(tx)

		session, err := repo.CreatePaymentSession(ctx, &models.PaymentSession{
			PaymentID:   payment.PaymentID,
			OrderNumber: orderNumber,
			AmountMinor: totalMinor,
			Currency:    currencyNOK,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating payment session")
		}

		for i, order := range createdOrders {
			orderRefs[i] = order.OrderRef
			transactionID := fmt.Sprintf("%s-%d", payment.PaymentID, i+1)
			if err := repo.UpdateOrder(ctx, order.ID, map[string]any{
				"payment_session_id": session.ID,
				"transaction_id":     transactionID,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "linking order to payment session")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_number": orderNumber,
		"payment_id":   payment.PaymentID,
		"orders":       len(createdOrders),
	})
	s.logg.Info(ctx, "checkout session created")
	s.metrics.IncOrdersCreated("created", len(createdOrders))

	return &CheckoutResult{
		OrderNumber:          orderNumber,
		OrderRefs:            orderRefs,
		PaymentID:            payment.PaymentID,
		HostedPaymentPageURL: payment.HostedPaymentPageURL,
	}, nil
}

// VerifyPayment reconciles local order state with what the gateway reports.
// The call is idempotent: repeating it rewrites the same outcome, and the
// receipt email is sent at most once per session via the fulfillment claim.
func (s *service) VerifyPayment(ctx context.Context, paymentID string) (*VerifyResult, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}

	payment, err := s.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		s.metrics.IncVerification("gateway_error")
		return nil, err
	}

	session, err := s.ordersRepo.FindSessionByPaymentID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.IncVerification("unknown_session")
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no orders found for payment")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading payment session")
	}

	completed := payment.Charged()

	// A fulfilled session already settled once. A later gateway read that no
	// longer shows the charge must not downgrade the terminal orders.
	if !completed && session.FulfilledAt != nil {
		s.metrics.IncVerification("already_completed")
		sessionOrders, err := s.ordersRepo.FindOrdersBySession(ctx, session.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading session orders")
		}
		return &VerifyResult{
			PaymentID:   paymentID,
			OrderNumber: session.OrderNumber,
			Status:      payment.Status,
			Completed:   true,
			Orders:      sessionOrders,
		}, nil
	}

	status := enums.OrderStatusFailed
	paymentStatus := enums.PaymentStatusFailed
	if completed {
		status = enums.OrderStatusCompleted
		paymentStatus = enums.PaymentStatusCompleted
	}

	if err := s.ordersRepo.UpdateOrdersPaymentResult(ctx, session.ID, status, paymentStatus, payment.PaymentDetails.PaymentMethod); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order payment result")
	}

	result := &VerifyResult{
		PaymentID:   paymentID,
		OrderNumber: session.OrderNumber,
		Status:      payment.Status,
		Completed:   completed,
	}

	if completed {
		s.metrics.IncVerification("completed")
		claimed, err := s.ordersRepo.ClaimFulfillment(ctx, session.ID, time.Now())
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "claiming receipt fulfillment")
		}
		if claimed {
			// A lost receipt must not fail verification; support can
			// resend from the receipt endpoint.
			if err := s.dispatcher.Dispatch(ctx, session.ID); err != nil {
				ctx := s.logg.WithPaymentID(ctx, paymentID)
				s.logg.Error(ctx, "receipt dispatch failed", err)
				s.metrics.IncFulfillment("error")
			} else {
				result.ReceiptSent = true
				s.metrics.IncFulfillment("sent")
			}
		}
	} else {
		s.metrics.IncVerification("failed")
	}

	sessionOrders, err := s.ordersRepo.FindOrdersBySession(ctx, session.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading session orders")
	}
	result.Orders = sessionOrders

	return result, nil
}

func validateInput(input CheckoutInput) error {
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart contains no items")
	}
	if strings.TrimSpace(input.CustomerEmail) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer email is required")
	}
	if !phoneRe.MatchString(input.CustomerPhone) {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer phone must be +47 followed by 8 digits")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart item is missing a product")
		}
		if strings.TrimSpace(item.DriverName) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "driver name is required")
		}
		if !item.ValidTo.After(item.ValidFrom) {
			return pkgerrors.New(pkgerrors.CodeValidation, "license validity window is empty")
		}
	}
	return nil
}

// minorUnits converts a NOK amount to øre.
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
