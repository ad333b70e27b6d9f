package orders

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/bilsportlisens/lisensbutikk-backend/pkg/db/models"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/enums"
	pkgerrors "github.com/bilsportlisens/lisensbutikk-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type stubRepo struct {
	Repository

	ordersByRef    map[string]*models.Order
	licensesByID   map[uuid.UUID]*models.License
	clubsByID      map[uuid.UUID]*models.Club
	sessionsOrders map[uuid.UUID][]models.Order
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		ordersByRef:    make(map[string]*models.Order),
		licensesByID:   make(map[uuid.UUID]*models.License),
		clubsByID:      make(map[uuid.UUID]*models.Club),
		sessionsOrders: make(map[uuid.UUID][]models.Order),
	}
}

func (s *stubRepo) FindOrderByRef(ctx context.Context, ref string) (*models.Order, error) {
	order, ok := s.ordersByRef[ref]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (s *stubRepo) FindLicenseByID(ctx context.Context, id uuid.UUID) (*models.License, error) {
	license, ok := s.licensesByID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return license, nil
}

func (s *stubRepo) FindClubByID(ctx context.Context, id uuid.UUID) (*models.Club, error) {
	club, ok := s.clubsByID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return club, nil
}

func (s *stubRepo) FindOrdersBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Order, error) {
	return s.sessionsOrders[sessionID], nil
}

func (s *stubRepo) addOrder(ref string, sessionID *uuid.UUID, clubID *uuid.UUID) *models.Order {
	license := &models.License{ID: uuid.New(), Name: "Engangslisens Bilcross"}
	s.licensesByID[license.ID] = license
	lineNo, _ := strconv.Atoi(ref[strings.LastIndex(ref, "-")+1:])
	order := &models.Order{
		ID:               uuid.New(),
		OrderRef:         ref,
		LicenseID:        license.ID,
		ClubID:           clubID,
		LineNo:           lineNo,
		PaymentSessionID: sessionID,
		Status:           enums.OrderStatusPending,
		OrderDate:        time.Now(),
	}
	s.ordersByRef[ref] = order
	if sessionID != nil {
		s.sessionsOrders[*sessionID] = append(s.sessionsOrders[*sessionID], *order)
	}
	return order
}

func TestGetOrderDetailNotFound(t *testing.T) {
	svc, err := NewService(newStubRepo())
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	_, err = svc.GetOrderDetail(context.Background(), "2026-99999-1")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestGetOrderDetailResolvesOrdinalWithinSession(t *testing.T) {
	repo := newStubRepo()
	session := uuid.New()
	repo.addOrder("2026-00010-1", &session, nil)
	repo.addOrder("2026-00010-2", &session, nil)
	repo.addOrder("2026-00010-3", &session, nil)

	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	detail, err := svc.GetOrderDetail(context.Background(), "2026-00010-2")
	if err != nil {
		t.Fatalf("GetOrderDetail failed: %v", err)
	}

	if detail.Ordinal != 2 {
		t.Fatalf("expected ordinal 2, got %d", detail.Ordinal)
	}
	if detail.Total != 3 {
		t.Fatalf("expected total 3, got %d", detail.Total)
	}
	if detail.License.Name != "Engangslisens Bilcross" {
		t.Fatalf("unexpected license %q", detail.License.Name)
	}
}

func TestGetOrderDetailWithoutSessionDefaultsToSingle(t *testing.T) {
	repo := newStubRepo()
	club := &models.Club{ID: uuid.New(), Name: "NMK Gardermoen"}
	repo.clubsByID[club.ID] = club
	repo.addOrder("2026-00011-1", nil, &club.ID)

	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	detail, err := svc.GetOrderDetail(context.Background(), "2026-00011-1")
	if err != nil {
		t.Fatalf("GetOrderDetail failed: %v", err)
	}

	if detail.Ordinal != 1 || detail.Total != 1 {
		t.Fatalf("expected 1 of 1, got %d of %d", detail.Ordinal, detail.Total)
	}
	if detail.Club == nil || detail.Club.Name != "NMK Gardermoen" {
		t.Fatalf("expected club resolved, got %+v", detail.Club)
	}
}

func TestGetSessionOrderDetailsReturnsWholeCheckout(t *testing.T) {
	repo := newStubRepo()
	session := uuid.New()
	repo.addOrder("2026-00012-1", &session, nil)
	repo.addOrder("2026-00012-2", &session, nil)

	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	details, err := svc.GetSessionOrderDetails(context.Background(), "2026-00012-1")
	if err != nil {
		t.Fatalf("GetSessionOrderDetails failed: %v", err)
	}
	if len(details) != 2 {
		t.Fatalf("expected 2 details, got %d", len(details))
	}
	for i, detail := range details {
		if detail.Ordinal != i+1 {
			t.Fatalf("expected ordinal %d, got %d", i+1, detail.Ordinal)
		}
		if detail.Total != 2 {
			t.Fatalf("expected total 2, got %d", detail.Total)
		}
	}
}

func TestNewServiceRequiresRepo(t *testing.T) {
	if _, err := NewService(nil); err == nil {
		t.Fatal("expected error for nil repository")
	}
}
