package clubs

import (
	"context"
	"errors"
	"fmt"

	"github.com/bilsportlisens/lisensbutikk-backend/pkg/db/models"
	pkgerrors "github.com/bilsportlisens/lisensbutikk-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service exposes club reads for the storefront.
type Service interface {
	ListClubs(ctx context.Context, activity string) ([]models.Club, error)
	GetClub(ctx context.Context, id uuid.UUID) (*models.Club, error)
}

type service struct {
	repo Repository
}

// NewService builds the clubs service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("clubs repository is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListClubs(ctx context.Context, activity string) ([]models.Club, error) {
	clubs, err := s.repo.ListClubs(ctx, activity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing clubs")
	}
	return clubs, nil
}

func (s *service) GetClub(ctx context.Context, id uuid.UUID) (*models.Club, error) {
	club, err := s.repo.FindClub(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "club not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading club")
	}
	return club, nil
}
