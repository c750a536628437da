package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	_ "github.com/pratik-mahalle/amiaudit/docs"
	"github.com/pratik-mahalle/amiaudit/internal/api/handlers"
	"github.com/pratik-mahalle/amiaudit/internal/api/middleware"
	"github.com/pratik-mahalle/amiaudit/internal/auth"
	"github.com/pratik-mahalle/amiaudit/internal/config"
	"github.com/pratik-mahalle/amiaudit/internal/pkg/logger"
	"github.com/pratik-mahalle/amiaudit/internal/pkg/metrics"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Health  *handlers.HealthHandler
	Rule    *handlers.RuleHandler
	Run     *handlers.RunHandler
	Finding *handlers.FindingHandler
}

func New(cfg *config.Config, log *logger.Logger, limiter *middleware.RateLimiter, h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(metrics.Middleware)

	// Probes and metrics
	r.Get("/healthz", h.Health.Healthz)
	r.Get("/readyz", h.Health.Readyz)
	r.Handle("/metrics", metrics.Handler())

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.SecurityHeaders)
		r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
		r.Use(middleware.RateLimit(limiter))
		r.Use(middleware.AuthMiddleware(cfg.Server.AuthSecret))

		r.With(middleware.RequireScope(auth.ScopeRead)).Get("/rules", h.Rule.List)

		r.Route("/runs", func(r chi.Router) {
			r.With(middleware.RequireScope(auth.ScopeRead)).Get("/", h.Run.List)
			r.With(middleware.RequireScope(auth.ScopeRun)).Post("/", h.Run.Create)
			r.With(middleware.RequireScope(auth.ScopeRead)).Get("/{id}", h.Run.Get)
		})

		r.Route("/findings", func(r chi.Router) {
			r.Use(middleware.RequireScope(auth.ScopeRead))
			r.Get("/", h.Finding.List)
			r.Get("/lookup", h.Finding.Lookup)
			r.Get("/summary", h.Finding.Summary)
		})
	})

	return r
}
