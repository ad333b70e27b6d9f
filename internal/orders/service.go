package orders

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/bilsportlisens/lisensbutikk-backend/pkg/errors"
	"gorm.io/gorm"
)

// Service defines order lookups beyond plain repository reads.
type Service interface {
	GetOrderDetail(ctx context.Context, orderRef string) (*OrderDetail, error)
	GetSessionOrderDetails(ctx context.Context, orderRef string) ([]OrderDetail, error)
}

type service struct {
	repo Repository
}

// NewService builds the order lookup service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetOrderDetail(ctx context.Context, orderRef string) (*OrderDetail, error) {
	order, err := s.repo.FindOrderByRef(ctx, orderRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}

	detail := OrderDetail{Order: *order, Ordinal: lineOrdinal(order.LineNo, 0), Total: 1}

	license, err := s.repo.FindLicenseByID(ctx, order.LicenseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading license for order")
	}
	detail.License = *license

	if order.ClubID != nil {
		club, err := s.repo.FindClubByID(ctx, *order.ClubID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading club for order")
		}
		if err == nil {
			detail.Club = club
		}
	}

	if order.PaymentSessionID != nil {
		siblings, err := s.repo.FindOrdersBySession(ctx, *order.PaymentSessionID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading sibling orders")
		}
		detail.Total = len(siblings)
	}

	return &detail, nil
}

// lineOrdinal returns the stored cart position, falling back to the list
// index when no position was recorded.
func lineOrdinal(lineNo, index int) int {
	if lineNo > 0 {
		return lineNo
	}
	return index + 1
}

// GetSessionOrderDetails resolves the full set of orders bought together
// with the referenced one, in receipt order.
func (s *service) GetSessionOrderDetails(ctx context.Context, orderRef string) ([]OrderDetail, error) {
	anchor, err := s.GetOrderDetail(ctx, orderRef)
	if err != nil {
		return nil, err
	}
	if anchor.Order.PaymentSessionID == nil {
		return []OrderDetail{*anchor}, nil
	}

	siblings, err := s.repo.FindOrdersBySession(ctx, *anchor.Order.PaymentSessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading sibling orders")
	}

	details := make([]OrderDetail, 0, len(siblings))
	for i, order := range siblings {
		detail := OrderDetail{Order: order, Ordinal: lineOrdinal(order.LineNo, i), Total: len(siblings)}

		license, err := s.repo.FindLicenseByID(ctx, order.LicenseID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading license for order")
		}
		detail.License = *license

		if order.ClubID != nil {
			club, err := s.repo.FindClubByID(ctx, *order.ClubID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading club for order")
			}
			if err == nil {
				detail.Club = club
			}
		}

		details = append(details, detail)
	}
	return details, nil
}
