package api

import (
	"net/http"

	"gridlock.dev/forecast/internal/repository"
)

// RatingRoutes exposes the current Rating Store snapshot and, on a
// separate route, the versioned calibration maps.
type RatingRoutes struct {
	ratings      *repository.RatingRepository
	calibrations *repository.CalibrationMapRepository
	teams        *repository.TeamRepository
}

// NewRatingRoutes constructs RatingRoutes.
func NewRatingRoutes(ratings *repository.RatingRepository, calibrations *repository.CalibrationMapRepository, teams *repository.TeamRepository) *RatingRoutes {
	return &RatingRoutes{ratings: ratings, calibrations: calibrations, teams: teams}
}

func (rr *RatingRoutes) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/ratings", rr.handleRatings)
	mux.HandleFunc("GET /v1/calibration/{version}", rr.handleCalibrationMap)
}

// handleRatings godoc
// @Summary Get current ratings
// @Description Get the current ELO rating for every team
// @Tags ratings
// @Accept json
// @Produce json
// @Success 200 {object} map[string]float64
// @Failure 500 {object} ErrorResponse
// @Router /ratings [get]
func (rr *RatingRoutes) handleRatings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	roster, err := rr.teams.Roster(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	snapshot, err := rr.ratings.LoadSnapshot(ctx, roster)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make(map[string]float64, len(snapshot))
	for idx, rating := range snapshot {
		out[roster.Team(idx).Name] = rating
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCalibrationMap godoc
// @Summary Get a calibration map
// @Description Get the isotonic calibration map stored under the given version
// @Tags ratings
// @Accept json
// @Produce json
// @Param version path string true "Calibration map version"
// @Success 200 {object} core.CalibrationMap
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /calibration/{version} [get]
func (rr *RatingRoutes) handleCalibrationMap(w http.ResponseWriter, r *http.Request) {
	version := r.PathValue("version")

	m, err := rr.calibrations.Load(r.Context(), version)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
