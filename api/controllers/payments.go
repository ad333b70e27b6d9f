package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bilsportlisens/lisensbutikk-backend/api/responses"
	"github.com/bilsportlisens/lisensbutikk-backend/api/validators"
	checkoutsvc "github.com/bilsportlisens/lisensbutikk-backend/internal/checkout"
	"github.com/bilsportlisens/lisensbutikk-backend/internal/fulfillment"
	ordersvc "github.com/bilsportlisens/lisensbutikk-backend/internal/orders"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/enums"
	pkgerrors "github.com/bilsportlisens/lisensbutikk-backend/pkg/errors"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/logger"
)

type paymentItemRequest struct {
	ProductID  uuid.UUID  `json:"product_id" validate:"required,uuid4"`
	ClubID     *uuid.UUID `json:"club_id,omitempty" validate:"omitempty,uuid4"`
	DriverName string     `json:"driver_name" validate:"required,min=2,max=120"`
	VehicleReg *string    `json:"vehicle_reg,omitempty" validate:"omitempty,max=16"`
	ValidFrom  time.Time  `json:"valid_from" validate:"required"`
	ValidTo    time.Time  `json:"valid_to" validate:"required"`
}

type paymentCreateRequest struct {
	Items         []paymentItemRequest `json:"items" validate:"required,min=1,max=20,dive"`
	CustomerEmail string               `json:"customer_email" validate:"required,email"`
	CustomerPhone string               `json:"customer_phone" validate:"required"`
}

type paymentCreateResponse struct {
	OrderNumber          string   `json:"order_number"`
	OrderRefs            []string `json:"order_refs"`
	PaymentID            string   `json:"payment_id"`
	HostedPaymentPageURL string   `json:"hosted_payment_page_url"`
}

// PaymentCreate turns the submitted cart into pending orders plus a hosted
// gateway session the storefront redirects to.
func PaymentCreate(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload paymentCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]checkoutsvc.CartItem, 0, len(payload.Items))
		for _, item := range payload.Items {
			items = append(items, checkoutsvc.CartItem{
				ProductID:  item.ProductID,
				ClubID:     item.ClubID,
				DriverName: item.DriverName,
				VehicleReg: item.VehicleReg,
				ValidFrom:  item.ValidFrom,
				ValidTo:    item.ValidTo,
			})
		}

		result, err := svc.CreateOrders(r.Context(), checkoutsvc.CheckoutInput{
			Items:         items,
			CustomerEmail: payload.CustomerEmail,
			CustomerPhone: payload.CustomerPhone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, paymentCreateResponse{
			OrderNumber:          result.OrderNumber,
			OrderRefs:            result.OrderRefs,
			PaymentID:            result.PaymentID,
			HostedPaymentPageURL: result.HostedPaymentPageURL,
		})
	}
}

type paymentVerifyResponse struct {
	PaymentID   string                 `json:"payment_id"`
	OrderNumber string                 `json:"order_number"`
	Status      string                 `json:"status"`
	Completed   bool                   `json:"completed"`
	ReceiptSent bool                   `json:"receipt_sent"`
	Orders      []orderSummaryResponse `json:"orders"`
}

// PaymentVerify reconciles local order state against the gateway. Safe to
// call repeatedly; the storefront hits it on every return from the hosted
// payment page.
func PaymentVerify(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		paymentID := strings.TrimSpace(r.URL.Query().Get("paymentId"))
		if paymentID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "paymentId query parameter is required"))
			return
		}

		result, err := svc.VerifyPayment(r.Context(), paymentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := paymentVerifyResponse{
			PaymentID:   result.PaymentID,
			OrderNumber: result.OrderNumber,
			Status:      result.Status,
			Completed:   result.Completed,
			ReceiptSent: result.ReceiptSent,
			Orders:      make([]orderSummaryResponse, 0, len(result.Orders)),
		}
		for _, order := range result.Orders {
			out.Orders = append(out.Orders, newOrderSummaryResponse(order))
		}
		responses.WriteSuccess(w, out)
	}
}

// PaymentReceipt streams the receipt PDF for one completed order.
func PaymentReceipt(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderRef := chi.URLParam(r, "orderRef")

		detail, err := svc.GetOrderDetail(r.Context(), orderRef)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if detail.Order.Status != enums.OrderStatusCompleted {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeConflict, "receipt is available once the payment is completed"))
			return
		}

		pdf, err := fulfillment.BuildReceipt(*detail)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rendering receipt"))
			return
		}

		filename := fulfillment.ReceiptFilename(detail.Ordinal, detail.Order.DriverName)
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(pdf)
	}
}
