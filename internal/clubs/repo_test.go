package clubs

import (
	"context"
	"fmt"
	"testing"

	"github.com/bilsportlisens/lisensbutikk-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupClubsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`
CREATE TABLE IF NOT EXISTS clubs (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  activities TEXT NOT NULL DEFAULT '',
  created_at DATETIME,
  updated_at DATETIME
);`).Error)
	return db
}

func seedClub(t *testing.T, db *gorm.DB, name, activities string) *models.Club {
	t.Helper()
	club := &models.Club{
		ID:         uuid.New(),
		Name:       name,
		Email:      "post@klubb.no",
		Activities: activities,
	}
	require.NoError(t, db.Create(club).Error)
	return club
}

func TestListClubsSortsAndFilters(t *testing.T) {
	db := setupClubsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedClub(t, db, "NMK Gardermoen", "bilcross,rallycross")
	seedClub(t, db, "KNA Kongsvinger", "rallycross")
	seedClub(t, db, "NMK Bardu", "bilcross,trening")

	all, err := repo.ListClubs(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "KNA Kongsvinger", all[0].Name)

	bilcross, err := repo.ListClubs(ctx, "bilcross")
	require.NoError(t, err)
	assert.Len(t, bilcross, 2)
}

func TestFindClub(t *testing.T) {
	db := setupClubsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	club := seedClub(t, db, "NMK Modum Sigdal", "bilcross")

	found, err := repo.FindClub(ctx, club.ID)
	require.NoError(t, err)
	assert.Equal(t, club.Name, found.Name)
	assert.Equal(t, []string{"bilcross"}, found.ActivityList())

	_, err = repo.FindClub(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
