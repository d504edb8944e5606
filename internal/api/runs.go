package api

import (
	"net/http"

	"github.com/google/uuid"
	"gridlock.dev/forecast/internal/repository"
)

// RunRoutes exposes aggregated per-team probabilities for a completed
// simulation run (spec.md §4.7 output).
type RunRoutes struct {
	repo *repository.RunRepository
}

// NewRunRoutes constructs RunRoutes.
func NewRunRoutes(repo *repository.RunRepository) *RunRoutes {
	return &RunRoutes{repo: repo}
}

func (rr *RunRoutes) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/runs/{id}/aggregates", rr.handleAggregates)
}

// handleAggregates godoc
// @Summary Get run aggregates
// @Description Get the aggregated per-team probabilities for a simulation run
// @Tags runs
// @Accept json
// @Produce json
// @Param id path string true "Simulation run ID"
// @Success 200 {object} map[string]aggregate.TeamStats
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /runs/{id}/aggregates [get]
func (rr *RunRoutes) handleAggregates(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeBadRequest(w, "invalid run id: "+err.Error())
		return
	}

	stats, err := rr.repo.Aggregates(r.Context(), runID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
