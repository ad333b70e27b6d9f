package metrics

import "github.com/prometheus/client_golang/prometheus"

// CheckoutMetrics counts the outcomes of the order and payment pipeline.
type CheckoutMetrics struct {
	ordersCreated *prometheus.CounterVec
	verifications *prometheus.CounterVec
	fulfillments  *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout pipeline metrics.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_orders_created_total",
		Help: "Orders created per checkout outcome.",
	}, []string{"outcome"})
	verifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verifications_total",
		Help: "Payment verification results.",
	}, []string{"result"})
	fulfillments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "receipt_fulfillments_total",
		Help: "Receipt dispatch attempts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(ordersCreated, verifications, fulfillments)
	return &CheckoutMetrics{
		ordersCreated: ordersCreated,
		verifications: verifications,
		fulfillments:  fulfillments,
	}
}

// IncOrdersCreated counts created orders for the given outcome label.
func (m *CheckoutMetrics) IncOrdersCreated(outcome string, n int) {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.WithLabelValues(normalizeLabel(outcome)).Add(float64(n))
}

// IncVerification counts one verification with the given result label.
func (m *CheckoutMetrics) IncVerification(result string) {
	if m == nil || m.verifications == nil {
		return
	}
	m.verifications.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncFulfillment counts one receipt dispatch attempt.
func (m *CheckoutMetrics) IncFulfillment(outcome string) {
	if m == nil || m.fulfillments == nil {
		return
	}
	m.fulfillments.WithLabelValues(normalizeLabel(outcome)).Inc()
}
