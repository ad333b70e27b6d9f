package clubs

import (
	"context"
	"strings"

	"github.com/bilsportlisens/lisensbutikk-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository defines persistence operations for member clubs.
type Repository interface {
	ListClubs(ctx context.Context, activity string) ([]models.Club, error)
	FindClub(ctx context.Context, id uuid.UUID) (*models.Club, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a clubs repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListClubs(ctx context.Context, activity string) ([]models.Club, error) {
	query := r.db.WithContext(ctx).Model(&models.Club{})
	if activity = strings.TrimSpace(activity); activity != "" {
		query = query.Where("activities LIKE ?", "%"+activity+"%")
	}

	var clubs []models.Club
	if err := query.Order("name ASC").Find(&clubs).Error; err != nil {
		return nil, err
	}
	return clubs, nil
}

func (r *repository) FindClub(ctx context.Context, id uuid.UUID) (*models.Club, error) {
	var club models.Club
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&club).Error
	if err != nil {
		return nil, err
	}
	return &club, nil
}
