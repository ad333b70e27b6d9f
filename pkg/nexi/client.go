package nexi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bilsportlisens/lisensbutikk-backend/pkg/config"
	pkgerrors "github.com/bilsportlisens/lisensbutikk-backend/pkg/errors"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/logger"
)

const (
	paymentsPath          = "/v1/payments"
	integrationHostedPage = "HostedPaymentPage"

	headerIdempotencyKey = "Idempotency-Key"
)

var (
	errSecretKeyRequired = errors.New("nexi secret key is required")
	errBaseURLRequired   = errors.New("nexi base url is required")
	errLoggerRequired    = errors.New("nexi logger is required")
)

// Client exposes the Nets Easy payment primitives with centralized auth,
// logging, idempotency, and error mapping.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
	termsURL   string
	logger     *logger.Logger
}

// NewClient initializes the gateway wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.NexiConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}

	secretKey := strings.TrimSpace(cfg.SecretKey)
	if secretKey == "" {
		return nil, errSecretKeyRequired
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		secretKey:  secretKey,
		termsURL:   cfg.TermsURL,
		logger:     logg,
	}

	logg.Info(ctx, "nexi client initialized")
	return c, nil
}

// NewIdempotencyKey returns a unique key for gateway create operations.
func (c *Client) NewIdempotencyKey(prefix string) string {
	key := strings.TrimSpace(prefix)
	if key == "" {
		key = "lisens"
	}
	return fmt.Sprintf("%s-%s", key, uuid.NewString())
}

// CreatePayment registers a hosted checkout session for the given order.
func (c *Client) CreatePayment(ctx context.Context, params CreatePaymentParams) (*CreatePaymentResponse, error) {
	req := CreatePaymentRequest{
		Order: params.Order,
		Checkout: CheckoutOptions{
			IntegrationType: integrationHostedPage,
			ReturnURL:       params.ReturnURL,
			TermsURL:        c.termsURL,
			Charge:          true,
		},
	}

	c.log(ctx, "request", "create_payment", map[string]any{
		"reference": params.Order.Reference,
		"amount":    params.Order.Amount,
		"currency":  params.Order.Currency,
		"items":     len(params.Order.Items),
	})

	idempotencyKey := c.ensureIdempotencyKey("payment.create", params.IdempotencyKey)

	var out CreatePaymentResponse
	if err := c.do(ctx, http.MethodPost, paymentsPath, idempotencyKey, req, &out); err != nil {
		c.log(ctx, "error", "create_payment", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "create_payment", map[string]any{
		"payment_id": out.PaymentID,
	})
	return &out, nil
}

// GetPayment retrieves the current state of a gateway payment.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}

	c.log(ctx, "request", "get_payment", map[string]any{"payment_id": paymentID})

	var envelope getPaymentEnvelope
	path := fmt.Sprintf("%s/%s", paymentsPath, paymentID)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &envelope); err != nil {
		c.log(ctx, "error", "get_payment", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "get_payment", map[string]any{
		"payment_id": envelope.Payment.PaymentID,
		"charged":    envelope.Payment.Charged(),
	})
	return &envelope.Payment, nil
}

func (c *Client) do(ctx context.Context, method, path, idempotencyKey string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding gateway request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building gateway request")
	}
	req.Header.Set("Authorization", c.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set(headerIdempotencyKey, idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling payment gateway")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading gateway response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.mapGatewayError(resp.StatusCode, raw)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding gateway response")
	}
	return nil
}

func (c *Client) mapGatewayError(status int, raw []byte) error {
	detail := gatewayMessage(raw)
	err := fmt.Errorf("gateway status %d: %s", status, detail)
	return pkgerrors.Wrap(domainCodeForStatus(status), err, "payment gateway rejected request")
}

func gatewayMessage(raw []byte) string {
	var body gatewayErrorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if len(body.Errors) > 0 {
			parts := make([]string, 0, len(body.Errors))
			for field, msgs := range body.Errors {
				parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(msgs, "; ")))
			}
			return strings.Join(parts, ", ")
		}
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return "no response body"
	}
	return trimmed
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return pkgerrors.CodeValidation
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}

func (c *Client) ensureIdempotencyKey(prefix, provided string) string {
	if strings.TrimSpace(provided) != "" {
		return provided
	}
	return c.NewIdempotencyKey(prefix)
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("nexi %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("nexi %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"secret", "token", "email", "phone", "card"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}
