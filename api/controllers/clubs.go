package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/bilsportlisens/lisensbutikk-backend/api/responses"
	"github.com/bilsportlisens/lisensbutikk-backend/internal/clubs"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/db/models"
	"github.com/bilsportlisens/lisensbutikk-backend/pkg/logger"
)

type clubResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Activities []string  `json:"activities"`
}

func newClubResponse(club models.Club) clubResponse {
	return clubResponse{
		ID:         club.ID,
		Name:       club.Name,
		Email:      club.Email,
		Activities: club.ActivityList(),
	}
}

// ClubList returns member clubs, optionally filtered by activity tag.
func ClubList(svc clubs.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activity := strings.TrimSpace(r.URL.Query().Get("activity"))

		list, err := svc.ListClubs(r.Context(), activity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]clubResponse, 0, len(list))
		for _, club := range list {
			out = append(out, newClubResponse(club))
		}
		responses.WriteSuccess(w, out)
	}
}
