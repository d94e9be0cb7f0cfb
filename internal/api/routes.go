package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// RouterConfig holds the router's tunables.
type RouterConfig struct {
	AllowedOrigins []string
	PlanBurst      int
	PlanRefill     time.Duration
}

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)

	// Plan generation calls a paid external service
	planLimiter := NewRateLimiter(cfg.PlanBurst, cfg.PlanRefill)

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Get("/health", h.Health)
		r.Get("/steps", h.Steps)

		// Protected routes (auth required)
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.apiKey))
			r.Post("/sessions", h.CreateSession)

			r.Route("/sessions/{id}", func(r chi.Router) {
				r.Use(h.SessionCtx)
				r.Get("/", h.GetSession)
				r.Delete("/", h.DeleteSession)
				r.Patch("/answers", h.UpdateAnswers)
				r.Post("/coach-notes", h.AppendCoachNotes)
				r.Post("/advance", h.Advance)
				r.Post("/retreat", h.Retreat)
				r.Get("/metrics", h.Metrics)
				r.Get("/program-request", h.ProgramRequest)
				r.With(planLimiter.Middleware).Post("/plan", h.GeneratePlan)
				r.Get("/plan", h.LatestPlan)
			})
		})
	})

	return cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(r)
}
