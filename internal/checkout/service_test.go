package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/bilsportlisens/lisensbutikk-backend/pkg/db/models"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/enums"
	pkgerrors "github.com/bilsportlisens/lisensbutikk-backend/pkg/errors"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/logger"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/nexi"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bilsportlisens/lisensbutikk-backend/internal/orders"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOrdersRepo struct {
	sequence int64
	licenses map[uuid.UUID]*models.License
	orders   []*models.Order
	sessions map[string]*models.PaymentSession

	claimReturns  []bool
	claimCalls    int
	updateResults []updateResultCall
}

type updateResultCall struct {
	sessionID     uuid.UUID
	status        enums.OrderStatus
	paymentStatus enums.PaymentStatus
	paymentMethod string
}

func newStubOrdersRepo() *stubOrdersRepo {
	return &stubOrdersRepo{
		licenses: make(map[uuid.UUID]*models.License),
		sessions: make(map[string]*models.PaymentSession),
	}
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubOrdersRepo) NextOrderNumber(ctx context.Context, year int) (string, error) {
	s.sequence++
	return fmt.Sprintf("%d-%05d", year, s.sequence), nil
}

func (s *stubOrdersRepo) CreateLicense(ctx context.Context, license *models.License) (*models.License, error) {
	license.ID = uuid.New()
	s.licenses[license.ID] = license
	return license, nil
}

func (s *stubOrdersRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	order.ID = uuid.New()
	s.orders = append(s.orders, order)
	return order, nil
}

func (s *stubOrdersRepo) CreatePaymentSession(ctx context.Context, session *models.PaymentSession) (*models.PaymentSession, error) {
	session.ID = uuid.New()
	s.sessions[session.PaymentID] = session
	return session, nil
}

func (s *stubOrdersRepo) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	for _, order := range s.orders {
		if order.ID != orderID {
			continue
		}
		if v, ok := updates["payment_session_id"]; ok {
			id := v.(uuid.UUID)
			order.PaymentSessionID = &id
		}
		if v, ok := updates["transaction_id"]; ok {
			tid := v.(string)
			order.TransactionID = &tid
		}
		if v, ok := updates["status"]; ok {
			order.Status = v.(enums.OrderStatus)
		}
	}
	return nil
}

func (s *stubOrdersRepo) FindSessionByPaymentID(ctx context.Context, paymentID string) (*models.PaymentSession, error) {
	if session, ok := s.sessions[paymentID]; ok {
		return session, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) FindSessionByID(ctx context.Context, sessionID uuid.UUID) (*models.PaymentSession, error) {
	for _, session := range s.sessions {
		if session.ID == sessionID {
			return session, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) FindOrdersBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Order, error) {
	var out []models.Order
	for _, order := range s.orders {
		if order.PaymentSessionID != nil && *order.PaymentSessionID == sessionID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (s *stubOrdersRepo) FindOrderByRef(ctx context.Context, orderRef string) (*models.Order, error) {
	for _, order := range s.orders {
		if order.OrderRef == orderRef {
			return order, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) FindLicenseByID(ctx context.Context, licenseID uuid.UUID) (*models.License, error) {
	if license, ok := s.licenses[licenseID]; ok {
		return license, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) FindClubByID(ctx context.Context, clubID uuid.UUID) (*models.Club, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) FindPendingOrdersBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error) {
	return nil, nil
}

func (s *stubOrdersRepo) UpdateOrdersPaymentResult(ctx context.Context, sessionID uuid.UUID, status enums.OrderStatus, paymentStatus enums.PaymentStatus, paymentMethod string) error {
	s.updateResults = append(s.updateResults, updateResultCall{sessionID, status, paymentStatus, paymentMethod})
	for _, order := range s.orders {
		if order.PaymentSessionID != nil && *order.PaymentSessionID == sessionID {
			order.Status = status
			ps := paymentStatus
			order.PaymentStatus = &ps
			if paymentMethod != "" {
				pm := paymentMethod
				order.PaymentMethod = &pm
			}
		}
	}
	return nil
}

func (s *stubOrdersRepo) ClaimFulfillment(ctx context.Context, sessionID uuid.UUID, at time.Time) (bool, error) {
	s.claimCalls++
	claimed := true
	if len(s.claimReturns) > 0 {
		claimed = s.claimReturns[0]
		s.claimReturns = s.claimReturns[1:]
	}
	if claimed {
		for _, session := range s.sessions {
			if session.ID == sessionID {
				fulfilledAt := at
				session.FulfilledAt = &fulfilledAt
			}
		}
	}
	return claimed, nil
}

func (s *stubOrdersRepo) CancelPendingOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	return false, nil
}

type stubProducts struct {
	byID map[uuid.UUID]*models.LicenseProduct
}

func (s *stubProducts) FindProduct(ctx context.Context, id uuid.UUID) (*models.LicenseProduct, error) {
	if p, ok := s.byID[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubGateway struct {
	createResp  *nexi.CreatePaymentResponse
	createErr   error
	createCalls []nexi.CreatePaymentParams

	getResp *nexi.Payment
	getErr  error
}

func (s *stubGateway) CreatePayment(ctx context.Context, params nexi.CreatePaymentParams) (*nexi.CreatePaymentResponse, error) {
	s.createCalls = append(s.createCalls, params)
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.createResp, nil
}

func (s *stubGateway) GetPayment(ctx context.Context, paymentID string) (*nexi.Payment, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.getResp, nil
}

type stubDispatcher struct {
	calls []uuid.UUID
	err   error
}

func (s *stubDispatcher) Dispatch(ctx context.Context, sessionID uuid.UUID) error {
	s.calls = append(s.calls, sessionID)
	return s.err
}

func testCheckoutLogger() *logger.Logger {
	return logger.New(logger.Options{
		ServiceName: "checkout-test",
		Level:       zerolog.Disabled,
		Output:      io.Discard,
	})
}

func newTestService(t *testing.T, repo *stubOrdersRepo, products *stubProducts, gateway *stubGateway, dispatcher *stubDispatcher) Service {
	t.Helper()
	svc, err := NewService(stubTxRunner{}, repo, products, gateway, dispatcher, nil, testCheckoutLogger(), "https://lisens.bilsport.no/")
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc
}

func validInput(productIDs ...uuid.UUID) CheckoutInput {
	items := make([]CartItem, len(productIDs))
	for i, id := range productIDs {
		items[i] = CartItem{
			ProductID:  id,
			DriverName: "Kari Nordmann",
			ValidFrom:  time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC),
			ValidTo:    time.Date(2026, 9, 6, 0, 0, 0, 0, time.UTC),
		}
	}
	return CheckoutInput{
		Items:         items,
		CustomerEmail: "kari@example.no",
		CustomerPhone: "+4798765432",
	}
}

func seedProducts(prices ...int64) (*stubProducts, []uuid.UUID) {
	products := &stubProducts{byID: make(map[uuid.UUID]*models.LicenseProduct)}
	ids := make([]uuid.UUID, len(prices))
	for i, price := range prices {
		id := uuid.New()
		ids[i] = id
		products.byID[id] = &models.LicenseProduct{
			ID:       id,
			Category: enums.LicenseCategoryKonkurranse,
			SubType:  "bilcross",
			Name:     fmt.Sprintf("Lisens %d", i+1),
			Price:    decimal.NewFromInt(price),
			Active:   true,
		}
	}
	return products, ids
}

func TestCreateOrdersHappyPath(t *testing.T) {
	repo := newStubOrdersRepo()
	products, ids := seedProducts(450, 250)
	gateway := &stubGateway{createResp: &nexi.CreatePaymentResponse{
		PaymentID:            "pay-abc",
		HostedPaymentPageURL: "https://checkout.test/pay-abc",
	}}
	svc := newTestService(t, repo, products, gateway, &stubDispatcher{})

	result, err := svc.CreateOrders(context.Background(), validInput(ids...))
	if err != nil {
		t.Fatalf("CreateOrders failed: %v", err)
	}

	if len(result.OrderRefs) != 2 {
		t.Fatalf("expected 2 order refs, got %v", result.OrderRefs)
	}
	wantRefs := []string{result.OrderNumber + "-1", result.OrderNumber + "-2"}
	for i, want := range wantRefs {
		if result.OrderRefs[i] != want {
			t.Fatalf("expected ref %s, got %s", want, result.OrderRefs[i])
		}
	}
	if result.HostedPaymentPageURL != "https://checkout.test/pay-abc" {
		t.Fatalf("unexpected hosted page url %q", result.HostedPaymentPageURL)
	}

	if len(gateway.createCalls) != 1 {
		t.Fatalf("expected 1 gateway call, got %d", len(gateway.createCalls))
	}
	call := gateway.createCalls[0]
	if call.Order.Amount != 70000 {
		t.Fatalf("expected total 70000 øre, got %d", call.Order.Amount)
	}
	if call.Order.Currency != "NOK" {
		t.Fatalf("unexpected currency %q", call.Order.Currency)
	}
	if call.Order.Reference != result.OrderNumber {
		t.Fatalf("gateway reference %q != order number %q", call.Order.Reference, result.OrderNumber)
	}
	if call.IdempotencyKey == "" {
		t.Fatal("expected client-generated idempotency key")
	}
	for i, item := range call.Order.Items {
		if item.Quantity != 1 || item.Unit != "stk" {
			t.Fatalf("unexpected item shape %+v", item)
		}
		if item.Reference != wantRefs[i] {
			t.Fatalf("item reference %q != order ref %q", item.Reference, wantRefs[i])
		}
	}

	session, ok := repo.sessions["pay-abc"]
	if !ok {
		t.Fatal("expected payment session to be created")
	}
	if session.AmountMinor != 70000 || session.OrderNumber != result.OrderNumber {
		t.Fatalf("unexpected session %+v", session)
	}

	for i, order := range repo.orders {
		if order.Status != enums.OrderStatusPending {
			t.Fatalf("order %d not pending: %s", i, order.Status)
		}
		if order.LineNo != i+1 {
			t.Fatalf("order %d line no = %d, want %d", i, order.LineNo, i+1)
		}
		if order.PaymentSessionID == nil || *order.PaymentSessionID != session.ID {
			t.Fatalf("order %d not linked to session", i)
		}
		wantTxn := fmt.Sprintf("pay-abc-%d", i+1)
		if order.TransactionID == nil || *order.TransactionID != wantTxn {
			t.Fatalf("order %d transaction id = %v, want %s", i, order.TransactionID, wantTxn)
		}
	}
}

func TestCreateOrdersValidation(t *testing.T) {
	repo := newStubOrdersRepo()
	products, ids := seedProducts(450)
	gateway := &stubGateway{}
	svc := newTestService(t, repo, products, gateway, &stubDispatcher{})

	cases := []struct {
		name  string
		input CheckoutInput
	}{
		{"empty cart", CheckoutInput{CustomerEmail: "a@b.no", CustomerPhone: "+4798765432"}},
		{"missing email", func() CheckoutInput {
			in := validInput(ids...)
			in.CustomerEmail = " "
			return in
		}()},
		{"phone without country code", func() CheckoutInput {
			in := validInput(ids...)
			in.CustomerPhone = "98765432"
			return in
		}()},
		{"phone wrong length", func() CheckoutInput {
			in := validInput(ids...)
			in.CustomerPhone = "+47987654321"
			return in
		}()},
		{"missing driver", func() CheckoutInput {
			in := validInput(ids...)
			in.Items[0].DriverName = ""
			return in
		}()},
		{"empty validity window", func() CheckoutInput {
			in := validInput(ids...)
			in.Items[0].ValidTo = in.Items[0].ValidFrom
			return in
		}()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateOrders(context.Background(), tc.input)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	if len(gateway.createCalls) != 0 {
		t.Fatal("gateway must not be called for invalid input")
	}
}

func TestCreateOrdersUnknownProduct(t *testing.T) {
	repo := newStubOrdersRepo()
	products, _ := seedProducts(450)
	svc := newTestService(t, repo, products, &stubGateway{}, &stubDispatcher{})

	_, err := svc.CreateOrders(context.Background(), validInput(uuid.New()))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unknown product, got %v", err)
	}
}

func TestCreateOrdersInactiveProduct(t *testing.T) {
	repo := newStubOrdersRepo()
	products, ids := seedProducts(450)
	products.byID[ids[0]].Active = false
	svc := newTestService(t, repo, products, &stubGateway{}, &stubDispatcher{})

	_, err := svc.CreateOrders(context.Background(), validInput(ids...))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for inactive product, got %v", err)
	}
}

func TestCreateOrdersGatewayFailureLeavesOrdersPending(t *testing.T) {
	repo := newStubOrdersRepo()
	products, ids := seedProducts(450)
	gateway := &stubGateway{createErr: pkgerrors.New(pkgerrors.CodeDependency, "gateway down")}
	svc := newTestService(t, repo, products, gateway, &stubDispatcher{})

	_, err := svc.CreateOrders(context.Background(), validInput(ids...))
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}

	if len(repo.sessions) != 0 {
		t.Fatal("no payment session must exist after gateway failure")
	}
	if len(repo.orders) != 1 {
		t.Fatalf("expected created order to remain, got %d", len(repo.orders))
	}
	if repo.orders[0].Status != enums.OrderStatusPending {
		t.Fatalf("order must stay pending, got %s", repo.orders[0].Status)
	}
	if repo.orders[0].PaymentSessionID != nil {
		t.Fatal("order must not be linked to a session")
	}
}

func seedSession(repo *stubOrdersRepo, paymentID string, amountMinor int64, orderCount int) *models.PaymentSession {
	session := &models.PaymentSession{
		ID:          uuid.New(),
		PaymentID:   paymentID,
		OrderNumber: "2026-00042",
		AmountMinor: amountMinor,
		Currency:    "NOK",
	}
	repo.sessions[paymentID] = session
	for i := 0; i < orderCount; i++ {
		sessionID := session.ID
		repo.orders = append(repo.orders, &models.Order{
			ID:               uuid.New(),
			OrderRef:         fmt.Sprintf("2026-00042-%d", i+1),
			LineNo:           i + 1,
			PaymentSessionID: &sessionID,
			Status:           enums.OrderStatusPending,
		})
	}
	return session
}

func chargedPayment(amount int64) *nexi.Payment {
	return &nexi.Payment{
		PaymentID:      "pay-abc",
		Status:         "CHARGED",
		OrderDetails:   nexi.OrderDetails{Amount: amount, Currency: "NOK", Reference: "2026-00042"},
		PaymentDetails: nexi.PaymentDetails{PaymentMethod: "Visa"},
		Charges:        []nexi.Charge{{ChargeID: "ch-1", Amount: amount}},
	}
}

func TestVerifyPaymentCompletedSendsReceiptOnce(t *testing.T) {
	repo := newStubOrdersRepo()
	session := seedSession(repo, "pay-abc", 45000, 2)
	gateway := &stubGateway{getResp: chargedPayment(45000)}
	dispatcher := &stubDispatcher{}
	svc := newTestService(t, repo, &stubProducts{}, gateway, dispatcher)

	result, err := svc.VerifyPayment(context.Background(), "pay-abc")
	if err != nil {
		t.Fatalf("VerifyPayment failed: %v", err)
	}

	if !result.Completed {
		t.Fatal("expected completed result")
	}
	if result.Status != "CHARGED" {
		t.Fatalf("gateway status = %q, want CHARGED", result.Status)
	}
	if !result.ReceiptSent {
		t.Fatal("expected receipt to be sent")
	}
	if len(result.Orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(result.Orders))
	}
	for _, order := range result.Orders {
		if order.Status != enums.OrderStatusCompleted {
			t.Fatalf("order not completed: %s", order.Status)
		}
		if order.PaymentStatus == nil || *order.PaymentStatus != enums.PaymentStatusCompleted {
			t.Fatal("payment status not completed")
		}
		if order.PaymentMethod == nil || *order.PaymentMethod != "Visa" {
			t.Fatal("payment method not recorded")
		}
	}
	if len(dispatcher.calls) != 1 || dispatcher.calls[0] != session.ID {
		t.Fatalf("expected one dispatch for session, got %v", dispatcher.calls)
	}
}

func TestVerifyPaymentIsIdempotent(t *testing.T) {
	repo := newStubOrdersRepo()
	seedSession(repo, "pay-abc", 45000, 1)
	repo.claimReturns = []bool{true, false}
	gateway := &stubGateway{getResp: chargedPayment(45000)}
	dispatcher := &stubDispatcher{}
	svc := newTestService(t, repo, &stubProducts{}, gateway, dispatcher)

	first, err := svc.VerifyPayment(context.Background(), "pay-abc")
	if err != nil {
		t.Fatalf("first verify failed: %v", err)
	}
	second, err := svc.VerifyPayment(context.Background(), "pay-abc")
	if err != nil {
		t.Fatalf("second verify failed: %v", err)
	}

	if !first.ReceiptSent {
		t.Fatal("first verify must send the receipt")
	}
	if second.ReceiptSent {
		t.Fatal("second verify must not resend the receipt")
	}
	if !second.Completed {
		t.Fatal("second verify must still report completed")
	}
	if len(dispatcher.calls) != 1 {
		t.Fatalf("expected exactly one dispatch, got %d", len(dispatcher.calls))
	}
	if len(repo.updateResults) != 2 {
		t.Fatalf("expected both verifies to rewrite the outcome, got %d", len(repo.updateResults))
	}
}

func TestVerifyPaymentKeepsCompletedOrdersOnLaterRead(t *testing.T) {
	repo := newStubOrdersRepo()
	seedSession(repo, "pay-abc", 45000, 2)
	gateway := &stubGateway{getResp: chargedPayment(45000)}
	dispatcher := &stubDispatcher{}
	svc := newTestService(t, repo, &stubProducts{}, gateway, dispatcher)

	first, err := svc.VerifyPayment(context.Background(), "pay-abc")
	if err != nil {
		t.Fatalf("first verify failed: %v", err)
	}
	if !first.Completed {
		t.Fatal("first verify must complete the orders")
	}

	// The gateway no longer shows the charge on a later read.
	gateway.getResp = &nexi.Payment{
		PaymentID:    "pay-abc",
		Status:       "CREATED",
		OrderDetails: nexi.OrderDetails{Amount: 45000, Currency: "NOK", Reference: "2026-00042"},
	}

	second, err := svc.VerifyPayment(context.Background(), "pay-abc")
	if err != nil {
		t.Fatalf("second verify failed: %v", err)
	}

	if !second.Completed {
		t.Fatal("second verify must keep reporting completed")
	}
	for _, order := range second.Orders {
		if order.Status != enums.OrderStatusCompleted {
			t.Fatalf("order status = %s, want COMPLETED", order.Status)
		}
	}
	if len(repo.updateResults) != 1 {
		t.Fatalf("settled orders must not be rewritten, got %d rewrites", len(repo.updateResults))
	}
	if len(dispatcher.calls) != 1 {
		t.Fatalf("expected exactly one dispatch, got %d", len(dispatcher.calls))
	}
}

func TestVerifyPaymentAmountMismatchFails(t *testing.T) {
	repo := newStubOrdersRepo()
	seedSession(repo, "pay-abc", 45000, 1)
	payment := chargedPayment(45000)
	payment.Charges[0].Amount = 40000
	gateway := &stubGateway{getResp: payment}
	dispatcher := &stubDispatcher{}
	svc := newTestService(t, repo, &stubProducts{}, gateway, dispatcher)

	result, err := svc.VerifyPayment(context.Background(), "pay-abc")
	if err != nil {
		t.Fatalf("VerifyPayment failed: %v", err)
	}

	if result.Completed {
		t.Fatal("partial charge must not complete the orders")
	}
	if len(dispatcher.calls) != 0 {
		t.Fatal("no receipt for failed payments")
	}
	for _, order := range result.Orders {
		if order.Status != enums.OrderStatusFailed {
			t.Fatalf("order status = %s, want FAILED", order.Status)
		}
	}
}

func TestVerifyPaymentUnknownSession(t *testing.T) {
	repo := newStubOrdersRepo()
	gateway := &stubGateway{getResp: chargedPayment(45000)}
	svc := newTestService(t, repo, &stubProducts{}, gateway, &stubDispatcher{})

	_, err := svc.VerifyPayment(context.Background(), "pay-unknown")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestVerifyPaymentDispatchErrorDoesNotFailVerification(t *testing.T) {
	repo := newStubOrdersRepo()
	seedSession(repo, "pay-abc", 45000, 1)
	gateway := &stubGateway{getResp: chargedPayment(45000)}
	dispatcher := &stubDispatcher{err: errors.New("smtp down")}
	svc := newTestService(t, repo, &stubProducts{}, gateway, dispatcher)

	result, err := svc.VerifyPayment(context.Background(), "pay-abc")
	if err != nil {
		t.Fatalf("VerifyPayment must not fail on dispatch error: %v", err)
	}
	if !result.Completed {
		t.Fatal("expected completed result")
	}
	if result.ReceiptSent {
		t.Fatal("receipt must not be reported as sent")
	}
}

func TestVerifyPaymentGatewayError(t *testing.T) {
	repo := newStubOrdersRepo()
	gateway := &stubGateway{getErr: pkgerrors.New(pkgerrors.CodeDependency, "gateway down")}
	svc := newTestService(t, repo, &stubProducts{}, gateway, &stubDispatcher{})

	_, err := svc.VerifyPayment(context.Background(), "pay-abc")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
