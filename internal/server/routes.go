package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"radiocalico/internal/metrics"
)

// Handler builds the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestContext)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(s.corsMiddleware())
	if s.cfg.Server.MetricsEnabled {
		r.Use(metrics.Middleware)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	if s.cfg.Server.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimit())

		r.Get("/health", s.handleHealth)
		r.Get("/test", s.handleDatabaseInfo)
		r.Post("/users/register", s.handleRegisterUser)

		r.Post("/ratings", s.handleSubmitRating)
		r.Get("/ratings/top", s.handleTopRated)
		r.Get("/ratings/{artist}/{title}", s.handleSongRating)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.adminAuth(s.cfg.Server.AdminToken))
			r.Get("/data", s.handleAdminData)
			r.Post("/init-db", s.handleInitDatabase)
		})
	})
	return r
}
