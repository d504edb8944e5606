package api

import (
	"net/http"

	"gridlock.dev/forecast/internal/repository"
)

// TeamRoutes exposes the 32-team roster.
type TeamRoutes struct {
	repo *repository.TeamRepository
}

// NewTeamRoutes constructs TeamRoutes.
func NewTeamRoutes(repo *repository.TeamRepository) *TeamRoutes {
	return &TeamRoutes{repo: repo}
}

func (tr *TeamRoutes) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/teams", tr.handleListTeams)
}

// handleListTeams godoc
// @Summary List teams
// @Description Get the full 32-team roster
// @Tags teams
// @Accept json
// @Produce json
// @Success 200 {array} core.Team
// @Failure 500 {object} ErrorResponse
// @Router /teams [get]
func (tr *TeamRoutes) handleListTeams(w http.ResponseWriter, r *http.Request) {
	roster, err := tr.repo.Roster(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roster.All())
}
