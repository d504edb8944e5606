package api

import (
	"net/http"

	"gridlock.dev/forecast/internal/repository"
)

// GameRoutes exposes completed games and the remaining schedule.
type GameRoutes struct {
	games *repository.GameRepository
	teams *repository.TeamRepository
}

// NewGameRoutes constructs GameRoutes.
func NewGameRoutes(games *repository.GameRepository, teams *repository.TeamRepository) *GameRoutes {
	return &GameRoutes{games: games, teams: teams}
}

func (gr *GameRoutes) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/games/completed", gr.handleCompletedGames)
	mux.HandleFunc("GET /v1/games/schedule", gr.handleRemainingSchedule)
}

// handleCompletedGames godoc
// @Summary List completed games
// @Description Get every completed game, in ascending game_id order
// @Tags games
// @Accept json
// @Produce json
// @Success 200 {array} core.CompletedGame
// @Failure 500 {object} ErrorResponse
// @Router /games/completed [get]
func (gr *GameRoutes) handleCompletedGames(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	roster, err := gr.teams.Roster(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	games, err := gr.games.CompletedGames(ctx, roster)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// handleRemainingSchedule godoc
// @Summary List remaining schedule
// @Description Get every not-yet-completed game, in ascending game_id order
// @Tags games
// @Accept json
// @Produce json
// @Success 200 {array} core.Game
// @Failure 500 {object} ErrorResponse
// @Router /games/schedule [get]
func (gr *GameRoutes) handleRemainingSchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	roster, err := gr.teams.Roster(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	games, err := gr.games.RemainingSchedule(ctx, roster)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, games)
}
