package api

import "net/http"

// Registrar attaches a resource's routes to mux. Each resource in
// internal/api implements this so Server can wire them uniformly.
type Registrar interface {
	RegisterRoutes(mux *http.ServeMux)
}
