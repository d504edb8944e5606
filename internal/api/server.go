// Package api provides HTTP handlers for the forecast API.
//
// @title NFL Forecast API
// @description.markdown
// @version 1.0
// @BasePath /v1
//
// @tag.name teams
// @tag.description NFL team roster
//
// @tag.name games
// @tag.description Completed games and remaining schedule
//
// @tag.name ratings
// @tag.description Current ELO ratings and calibration maps
//
// @tag.name runs
// @tag.description Simulation run results
package api

import (
	"database/sql"
	_ "expvar"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
	"gridlock.dev/forecast/internal/cache"
	"gridlock.dev/forecast/internal/docs"
	"gridlock.dev/forecast/internal/echo"
	"gridlock.dev/forecast/internal/repository"
)

// Server serves the forecast HTTP API over a single mux.
type Server struct {
	mux *http.ServeMux
}

// NewServer wires every repository and route group against db and
// cacheClient.
func NewServer(db *sql.DB, cacheClient *cache.Client) *Server {
	echo.Info("Initializing repositories...")

	teamRepo := repository.NewTeamRepository(db, cacheClient)
	gameRepo := repository.NewGameRepository(db, cacheClient)
	ratingRepo := repository.NewRatingRepository(db)
	calibrationRepo := repository.NewCalibrationMapRepository(db)
	runRepo := repository.NewRunRepository(db)

	echo.Info("Registering routes...")

	return newServer(
		NewTeamRoutes(teamRepo),
		NewGameRoutes(gameRepo, teamRepo),
		NewRatingRoutes(ratingRepo, calibrationRepo, teamRepo),
		NewRunRoutes(runRepo),
	)
}

// newServer wires registrars into one mux alongside health check, swagger
// docs, and debug/vars routes.
func newServer(registrars ...Registrar) *Server {
	docs.SwaggerInfo.BasePath = "/v1"

	mux := http.NewServeMux()

	for _, r := range registrars {
		r.RegisterRoutes(mux)
	}

	// Health check endpoint
	// @Summary Health check
	// @Description Check if the API server is running
	// @Tags health
	// @Accept json
	// @Produce json
	// @Success 200 {object} HealthResponse
	// @Router /health [get]
	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	})

	mux.HandleFunc("/docs/", httpSwagger.WrapHandler)
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/", http.StatusMovedPermanently)
	})

	mux.Handle("GET /debug/vars", http.DefaultServeMux)
	return &Server{mux: mux}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
