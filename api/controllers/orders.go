package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bilsportlisens/lisensbutikk-backend/api/responses"
	ordersvc "github.com/bilsportlisens/lisensbutikk-backend/internal/orders"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/db/models"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/logger"
)

type orderSummaryResponse struct {
	OrderRef      string    `json:"order_ref"`
	Status        string    `json:"status"`
	PaymentStatus *string   `json:"payment_status,omitempty"`
	PaymentMethod *string   `json:"payment_method,omitempty"`
	TotalAmount   string    `json:"total_amount"`
	DriverName    string    `json:"driver_name"`
	ValidFrom     time.Time `json:"valid_from"`
	ValidTo       time.Time `json:"valid_to"`
	OrderDate     time.Time `json:"order_date"`
}

func newOrderSummaryResponse(order models.Order) orderSummaryResponse {
	summary := orderSummaryResponse{
		OrderRef:    order.OrderRef,
		Status:      order.Status.String(),
		TotalAmount: order.TotalAmount.StringFixed(2),
		DriverName:  order.DriverName,
		ValidFrom:   order.ValidFrom,
		ValidTo:     order.ValidTo,
		OrderDate:   order.OrderDate,
	}
	if order.PaymentStatus != nil {
		status := order.PaymentStatus.String()
		summary.PaymentStatus = &status
	}
	summary.PaymentMethod = order.PaymentMethod
	return summary
}

type orderDetailResponse struct {
	orderSummaryResponse

	LicenseName     string        `json:"license_name"`
	LicenseCategory string        `json:"license_category"`
	Club            *clubResponse `json:"club,omitempty"`
	CustomerEmail   string        `json:"customer_email"`
	CustomerPhone   string        `json:"customer_phone"`
	VehicleReg      *string       `json:"vehicle_reg,omitempty"`
	Ordinal         int           `json:"ordinal"`
	Total           int           `json:"total"`
}

func newOrderDetailResponse(detail ordersvc.OrderDetail) orderDetailResponse {
	out := orderDetailResponse{
		orderSummaryResponse: newOrderSummaryResponse(detail.Order),
		LicenseName:          detail.License.Name,
		LicenseCategory:      detail.License.Category.String(),
		CustomerEmail:        detail.Order.CustomerEmail,
		CustomerPhone:        detail.Order.CustomerPhone,
		VehicleReg:           detail.Order.VehicleReg,
		Ordinal:              detail.Ordinal,
		Total:                detail.Total,
	}
	if detail.Club != nil {
		club := newClubResponse(*detail.Club)
		out.Club = &club
	}
	return out
}

// OrderDetail serves the confirmation page lookup by order reference.
func OrderDetail(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderRef := chi.URLParam(r, "orderRef")

		detail, err := svc.GetOrderDetail(r.Context(), orderRef)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderDetailResponse(*detail))
	}
}
