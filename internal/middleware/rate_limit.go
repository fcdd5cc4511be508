package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/novatech/internal/auth"
	"github.com/BradenHooton/novatech/internal/security"
	pkghttp "github.com/BradenHooton/novatech/pkg/http"
	"github.com/go-chi/httprate"
)

// ThrottleConfig holds the global request gate configuration
type ThrottleConfig struct {
	Default  security.RoutePolicy
	IPConfig *pkghttp.IPConfig
	Logger   *slog.Logger
}

// Throttle rejects blacklisted identities and identities over the default budget with 429.
// It runs before routing so every endpoint is covered.
func Throttle(guard *security.Guard, limiter *security.Limiter, config ThrottleConfig) func(http.Handler) http.Handler {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := pkghttp.ClientIdentity(r, config.IPConfig)

			allowed := gate(logger, func() bool {
				if guard.IsBlocked(identity) {
					return false
				}
				return limiter.AllowPolicy(identity, security.ClassDefault, config.Default)
			})
			if !allowed {
				pkghttp.WriteTooManyRequests(w, pkghttp.TooManyRequestsMessage)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RouteLimitConfig holds the budget for one route class
type RouteLimitConfig struct {
	Policy   security.RoutePolicy
	IPConfig *pkghttp.IPConfig
	Logger   *slog.Logger
}

// RouteLimit applies a stricter per-route budget on top of Throttle
func RouteLimit(limiter *security.Limiter, class string, config RouteLimitConfig) func(http.Handler) http.Handler {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := pkghttp.ClientIdentity(r, config.IPConfig)

			allowed := gate(logger, func() bool {
				return limiter.AllowPolicy(identity, class, config.Policy)
			})
			if !allowed {
				pkghttp.WriteTooManyRequests(w, pkghttp.TooManyRequestsMessage)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// gate runs check and turns a panic into a rejection
func gate(logger *slog.Logger, check func() bool) (allowed bool) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("request gate panicked, rejecting request", slog.Any("panic", rec))
			allowed = false
		}
	}()
	return check()
}

// RateLimitByUser caps requests per authenticated user. It must run after auth.RequireAuth;
// anonymous requests fall back to the client address.
func RateLimitByUser(requestLimit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestLimit,
		window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if user := auth.GetUserFromContext(r); user != nil {
				return "user:" + user.ID, nil
			}
			return httprate.KeyByIP(r)
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			pkghttp.WriteTooManyRequests(w, pkghttp.TooManyRequestsMessage)
		}),
	)
}
