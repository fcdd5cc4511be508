package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BradenHooton/novatech/internal/auth"
	"github.com/BradenHooton/novatech/internal/background"
	"github.com/BradenHooton/novatech/internal/config"
	"github.com/BradenHooton/novatech/internal/database"
	"github.com/BradenHooton/novatech/internal/handlers"
	"github.com/BradenHooton/novatech/internal/middleware"
	"github.com/BradenHooton/novatech/internal/repositories"
	"github.com/BradenHooton/novatech/internal/routes"
	"github.com/BradenHooton/novatech/internal/security"
	"github.com/BradenHooton/novatech/internal/services"
	"github.com/BradenHooton/novatech/pkg/clock"
	pkghttp "github.com/BradenHooton/novatech/pkg/http"
	pkglogger "github.com/BradenHooton/novatech/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))
	if cfg.Auth.JWTSecretGenerated {
		logger.Warn("JWT_SECRET not set, using a generated secret; tokens will not survive a restart")
	}
	if cfg.Auth.MasterLoginEnabled {
		logger.Warn("master login is enabled; it grants access to any account with the two master passphrases")
	}

	ctx := context.Background()

	// Initialize database
	db, err := database.NewConnection(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(ctx, cfg.Database.DSN(), logger); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	submissionRepo := repositories.NewSubmissionRepository(db)
	pageViewRepo := repositories.NewPageViewRepository(db)

	// In-memory security state
	clk := clock.Real()
	limiter := security.NewLimiter(clk, logger)
	guard := security.NewGuard(cfg.RateLimit.MaxAttempts, cfg.RateLimit.BlockDuration, clk, logger)
	policies := cfg.RateLimit.Policies()
	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, clk)
	authenticator := auth.NewAuthenticator(tokenManager, userRepo)
	auditLogger := pkglogger.NewAuditLogger(logger)

	// Submission notifications
	var notifier services.Notifier = services.NopNotifier{}
	if cfg.Notify.Enabled() {
		ses, err := services.NewSESNotifier(ctx, cfg.Notify.AWSRegion, cfg.Notify.EmailFrom, cfg.Notify.EmailTo, logger)
		if err != nil {
			logger.Error("failed to initialize email notifier", slog.Any("error", err))
			os.Exit(1)
		}
		notifier = ses
	}

	// Initialize services
	authService := services.NewAuthService(userRepo, tokenManager, guard, limiter, services.AuthConfig{
		LoginPolicy:        policies[security.ClassLogin],
		MasterLoginPolicy:  policies[security.ClassMasterLogin],
		MasterLoginEnabled: cfg.Auth.MasterLoginEnabled,
		MasterPassword1:    cfg.Auth.MasterPassword1,
		MasterPassword2:    cfg.Auth.MasterPassword2,
	}, logger, auditLogger)
	submissionService := services.NewSubmissionService(submissionRepo, notifier, clk, logger)
	analyticsService := services.NewAnalyticsService(pageViewRepo, limiter, policies[security.ClassAnalytics], clk, logger)

	// Bootstrap first admin user if configured
	bootstrapCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := authService.EnsureAdmin(bootstrapCtx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	cancel()

	// Periodic sweep of idle limiter keys and expired blacklist entries
	cleanupManager := background.NewCleanupManager(map[string]background.Sweeper{
		"rate_limiter": limiter,
		"blacklist":    guard,
	}, cfg.RateLimit.SweepInterval, cfg.RateLimit.IdleTTL, logger)
	cleanupManager.OnTick(db.LogStats)

	router := routes.NewRouter(routes.Dependencies{
		Env:               cfg.Server.Env,
		Logger:            logger,
		AuthHandler:       handlers.NewAuthHandler(authService, ipConfig),
		SubmissionHandler: handlers.NewSubmissionHandler(submissionService, ipConfig),
		AnalyticsHandler:  handlers.NewAnalyticsHandler(analyticsService, ipConfig),
		Authenticator:     authenticator,
		Guard:             guard,
		Limiter:           limiter,
		Policies:          policies,
		IPConfig:          ipConfig,
		CORS:              middleware.NewCORSConfig(cfg.Server.AllowedOrigins),
		UserWriteLimit:    cfg.RateLimit.UserWriteLimit,
		UserWriteWindow:   cfg.RateLimit.Window,
		Health:            healthHandler(db),
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(ctx)
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// healthHandler reports database reachability
func healthHandler(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.HealthCheck(r.Context()); err != nil {
			pkghttp.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "database": "down"})
			return
		}
		pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy", "database": "up"})
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
