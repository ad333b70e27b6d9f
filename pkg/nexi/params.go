package nexi

// Wire types for the Nets Easy payment API. All amounts are in minor units
// (øre for NOK).

// OrderItem is one line of the gateway order.
type OrderItem struct {
	Reference        string `json:"reference"`
	Name             string `json:"name"`
	Quantity         int    `json:"quantity"`
	Unit             string `json:"unit"`
	UnitPrice        int64  `json:"unitPrice"`
	GrossTotalAmount int64  `json:"grossTotalAmount"`
	NetTotalAmount   int64  `json:"netTotalAmount"`
}

// PaymentOrder is the order block of a create payment request.
type PaymentOrder struct {
	Items     []OrderItem `json:"items"`
	Amount    int64       `json:"amount"`
	Currency  string      `json:"currency"`
	Reference string      `json:"reference"`
}

// CheckoutOptions selects the hosted payment page flow.
type CheckoutOptions struct {
	IntegrationType string `json:"integrationType"`
	ReturnURL       string `json:"returnUrl"`
	TermsURL        string `json:"termsUrl"`
	Charge          bool   `json:"charge"`
}

// CreatePaymentRequest is the full create payment payload.
type CreatePaymentRequest struct {
	Order    PaymentOrder    `json:"order"`
	Checkout CheckoutOptions `json:"checkout"`
}

// CreatePaymentParams carries what the caller decides; the client fills in
// the hosted checkout block.
type CreatePaymentParams struct {
	Order          PaymentOrder
	ReturnURL      string
	IdempotencyKey string
}

// CreatePaymentResponse is the gateway's answer to a create payment call.
type CreatePaymentResponse struct {
	PaymentID            string `json:"paymentId"`
	HostedPaymentPageURL string `json:"hostedPaymentPageUrl"`
}

// Charge is one settled charge on a payment.
type Charge struct {
	ChargeID string `json:"chargeId"`
	Amount   int64  `json:"amount"`
}

// OrderDetails echoes the order the payment was created with.
type OrderDetails struct {
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Reference string `json:"reference"`
}

// PaymentDetails describes how the customer paid.
type PaymentDetails struct {
	PaymentMethod string `json:"paymentMethod"`
	PaymentType   string `json:"paymentType"`
}

// PaymentSummary aggregates the money state of a payment.
type PaymentSummary struct {
	ReservedAmount  int64 `json:"reservedAmount"`
	ChargedAmount   int64 `json:"chargedAmount"`
	RefundedAmount  int64 `json:"refundedAmount"`
	CancelledAmount int64 `json:"cancelledAmount"`
}

// Payment is the retrieved state of a gateway payment.
type Payment struct {
	PaymentID      string         `json:"paymentId"`
	Status         string         `json:"status"`
	OrderDetails   OrderDetails   `json:"orderDetails"`
	PaymentDetails PaymentDetails `json:"paymentDetails"`
	Summary        PaymentSummary `json:"summary"`
	Charges        []Charge       `json:"charges"`
}

// Charged reports whether the payment settled for the full order amount.
// A payment counts as charged only when the first charge covers exactly
// what the order asked for.
func (p *Payment) Charged() bool {
	if p == nil || len(p.Charges) == 0 {
		return false
	}
	return p.Charges[0].Amount == p.OrderDetails.Amount
}

type getPaymentEnvelope struct {
	Payment Payment `json:"payment"`
}

type gatewayErrorBody struct {
	Errors  map[string][]string `json:"errors"`
	Message string              `json:"message"`
}
