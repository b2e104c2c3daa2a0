// Package httpapi exposes criteria parsing, recommendations and the curation
// jobs over JSON.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter returns a chi router with the standard middleware and all routes mounted.
func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	RegisterRoutes(r, h)
	return r
}

// RegisterRoutes mounts the API handlers on r.
func RegisterRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/criteria/parse", h.ParseCriteria)
		r.Post("/recommendations", h.Recommend)

		r.Post("/curation/run", h.RunCuration)
		r.Post("/feeds/ingest", h.IngestFeeds)

		r.Get("/trending", h.ListTrending)
		r.Get("/articles/curated", h.ListCurated)
	})
}
