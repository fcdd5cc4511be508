package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/novatech/internal/auth"
	"github.com/BradenHooton/novatech/internal/handlers"
	"github.com/BradenHooton/novatech/internal/middleware"
	"github.com/BradenHooton/novatech/internal/models"
	"github.com/BradenHooton/novatech/internal/security"
	pkghttp "github.com/BradenHooton/novatech/pkg/http"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Dependencies carries everything the router wires together
type Dependencies struct {
	Env    string
	Logger *slog.Logger

	AuthHandler       *handlers.AuthHandler
	SubmissionHandler *handlers.SubmissionHandler
	AnalyticsHandler  *handlers.AnalyticsHandler
	Authenticator     *auth.Authenticator

	Guard    *security.Guard
	Limiter  *security.Limiter
	Policies map[string]security.RoutePolicy
	IPConfig *pkghttp.IPConfig
	CORS     *middleware.CORSConfig

	// UserWriteLimit caps authenticated mutations per user per UserWriteWindow
	UserWriteLimit  int
	UserWriteWindow time.Duration
	RequestTimeout  time.Duration

	Health http.HandlerFunc
}

// NewRouter builds the request pipeline: security headers, logging, the blacklist
// and default rate gate, CORS, recovery, then the routes. The gate runs before CORS
// so a blocked identity is refused preflight too.
func NewRouter(deps Dependencies) *chi.Mux {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = 60 * time.Second
	}
	if deps.UserWriteWindow <= 0 {
		deps.UserWriteWindow = time.Minute
	}
	if deps.CORS == nil {
		deps.CORS = middleware.NewCORSConfig(nil)
	}

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(middleware.SecurityHeaders(middleware.SecurityHeadersConfig{Env: deps.Env}))
	router.Use(middleware.SecureLogger(deps.Logger, deps.IPConfig))
	router.Use(middleware.Throttle(deps.Guard, deps.Limiter, middleware.ThrottleConfig{
		Default:  deps.Policies[security.ClassDefault],
		IPConfig: deps.IPConfig,
		Logger:   deps.Logger,
	}))
	router.Use(middleware.CORS(deps.CORS))
	router.Use(chimw.Recoverer)
	router.Use(chimw.Timeout(deps.RequestTimeout))

	if deps.Health != nil {
		router.Get("/health", deps.Health)
	}

	RegisterRoutes(router, deps)
	return router
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, deps Dependencies) {
	routeLimit := func(class string) func(http.Handler) http.Handler {
		return middleware.RouteLimit(deps.Limiter, class, middleware.RouteLimitConfig{
			Policy:   deps.Policies[class],
			IPConfig: deps.IPConfig,
			Logger:   deps.Logger,
		})
	}

	router.Route("/api", func(r chi.Router) {
		// Login budgets are enforced inside the auth service, after the blacklist check
		r.Post("/auth/login", deps.AuthHandler.Login)
		r.Post("/auth/master-login", deps.AuthHandler.MasterLogin)

		// Public lead forms
		r.With(routeLimit(security.ClassContact)).Post("/submissions/contact", deps.SubmissionHandler.SubmitContact)
		r.With(routeLimit(security.ClassApplication)).Post("/submissions/application", deps.SubmissionHandler.SubmitApplication)
		r.With(routeLimit(security.ClassTrialLesson)).Post("/trial-lessons", deps.SubmissionHandler.SubmitTrialLesson)

		// Analytics beacon; over-budget views are dropped by the service with 200
		r.Post("/analytics/pageview", deps.AnalyticsHandler.TrackPageView)

		// Protected routes - authentication required
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(deps.Authenticator))
			r.Use(auth.RequireRole(models.RoleAdmin, models.RoleEditor))

			r.Get("/auth/me", deps.AuthHandler.Me)
			r.Get("/submissions", deps.SubmissionHandler.List)
			r.Get("/analytics/summary", deps.AnalyticsHandler.Summary)

			r.Group(func(r chi.Router) {
				if deps.UserWriteLimit > 0 {
					r.Use(middleware.RateLimitByUser(deps.UserWriteLimit, deps.UserWriteWindow))
				}
				r.Put("/auth/credentials", deps.AuthHandler.UpdateCredentials)
				r.Put("/submissions/{id}/read", deps.SubmissionHandler.MarkRead)
				r.Delete("/submissions/{id}", deps.SubmissionHandler.Delete)
			})
		})
	})
}
