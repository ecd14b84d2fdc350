// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atlastrail/atlas-backend/internal/admin"
	"github.com/atlastrail/atlas-backend/internal/auth"
	"github.com/atlastrail/atlas-backend/internal/config"
	"github.com/atlastrail/atlas-backend/internal/core"
	"github.com/atlastrail/atlas-backend/internal/entitlement"
	"github.com/atlastrail/atlas-backend/internal/health"
	"github.com/atlastrail/atlas-backend/internal/identity"
	"github.com/atlastrail/atlas-backend/internal/middleware"
	"github.com/atlastrail/atlas-backend/internal/partner"
	"github.com/atlastrail/atlas-backend/internal/poi"
	"github.com/atlastrail/atlas-backend/internal/server"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	identityRepo := identity.NewRepository(db.DB)
	identitySvc := identity.NewService(identityRepo)
	identityHandler := identity.NewHandler(identitySvc)

	authRepo := auth.NewRepository(db.DB)
	authSvc := auth.NewService(
		authRepo,
		jwtManager,
		identitySvc,
		redis.Client,
		auth.LogMailer{},
	)
	authHandler := auth.NewHandler(authSvc)

	poiRepo := poi.NewRepository(db.DB)
	checker := entitlement.NewChecker(poiRepo)
	poiSvc := poi.NewService(poiRepo, identitySvc, checker)
	poiHandler := poi.NewHandler(poiSvc)

	entitlementHandler := entitlement.NewHandler(checker, identitySvc, identitySvc)

	partnerRepo := partner.NewRepository(db.DB)
	partnerSvc := partner.NewService(partnerRepo, identitySvc)
	partnerHandler := partner.NewHandler(partnerSvc)

	healthHandler := health.NewHandler(db, redis)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		AuthSvc:    authSvc,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.App.Environment == "production"))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	accessControl := middleware.AccessControl(
		identitySvc,
		middleware.DefaultAccessPolicy(),
	)
	tiered := middleware.TieredRateLimiter(
		redis.Client,
		middleware.DefaultTiers,
	)

	authenticator := middleware.Authenticator(jwtManager)
	optionalAuth := middleware.OptionalAuth(jwtManager)
	adminOnly := middleware.RequireAdmin
	staffOnly := middleware.RequireStaff
	superAdminOnly := middleware.RequireSuperAdmin

	// Every authenticated route runs the full chain: token verification,
	// then the per-account access checks, then tier-based rate limits.
	protected := func(next http.Handler) http.Handler {
		return authenticator(accessControl(tiered(next)))
	}
	public := func(next http.Handler) http.Handler {
		return optionalAuth(accessControl(next))
	}

	router.Route("/api/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, protected)

		r.Post("/users", authHandler.Register)

		poiHandler.RegisterRoutes(r, public)
		poiHandler.RegisterPartnerRoutes(r, protected)
		poiHandler.RegisterContentRoutes(r, protected, staffOnly)

		// Deeper mounts go first so the shorter prefixes do not
		// swallow them.
		entitlementHandler.RegisterRoutes(r, protected)

		identityHandler.RegisterRoutes(r, protected)
		identityHandler.RegisterAdminRoutes(r, protected, adminOnly)

		partnerHandler.RegisterRoutes(r, protected)
		partnerHandler.RegisterAdminRoutes(r, protected, adminOnly)

		entitlementHandler.RegisterAdminRoutes(r, protected, adminOnly)

		adminHandler.RegisterRoutes(r, protected, adminOnly, superAdminOnly)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
