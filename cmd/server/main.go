package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kaisan-events/registration-service/internal/browser"
	"github.com/kaisan-events/registration-service/internal/config"
	"github.com/kaisan-events/registration-service/internal/domain"
	"github.com/kaisan-events/registration-service/internal/handler"
	"github.com/kaisan-events/registration-service/internal/middleware"
	"github.com/kaisan-events/registration-service/internal/repository/postgres"
	"github.com/kaisan-events/registration-service/internal/repository/redis"
	"github.com/kaisan-events/registration-service/internal/service"
	"github.com/kaisan-events/registration-service/internal/template"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup logger
	logLevel := slog.LevelInfo
	if cfg.App.LogLevel == "debug" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("starting registration service",
		"env", cfg.App.Env,
		"port", cfg.Server.Port,
	)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Run database migrations
	if err := postgres.Migrate(cfg.Database.URL); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("database migrations applied")

	// Initialize PostgreSQL
	db, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to PostgreSQL")

	// Initialize Redis
	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		logger.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	logger.Info("connected to Redis")

	// Initialize repositories
	registrantRepo := postgres.NewRegistrantRepository(db)
	dispatchLogRepo := postgres.NewDispatchLogRepository(db)
	rateLimiter := redis.NewRateLimiter(redisClient, cfg.Dispatch.RateLimitPerMin)
	profileLock := redis.NewProfileLock(redisClient, cfg.Dispatch.LockTTL)

	// Initialize the reminder catalog and browser session manager
	catalog := template.NewCatalog(template.EventDetails{
		Name:         cfg.Event.Name,
		Date:         cfg.Event.Date,
		Venue:        cfg.Event.Venue,
		Fee:          cfg.Event.Fee,
		PaymentLink:  cfg.Event.PaymentLink,
		ContactPhone: cfg.Event.ContactPhone,
		ContactEmail: cfg.Event.ContactEmail,
		Organizer:    cfg.Event.Organizer,
	})

	sessions := browser.NewManager(browser.Config{
		ControlURL:     cfg.Browser.ControlURL,
		APIKey:         cfg.Browser.APIKey,
		ProfileDir:     cfg.Browser.ProfileDir,
		Headless:       cfg.Browser.Headless,
		NoSandbox:      cfg.Browser.NoSandbox,
		AcquireTimeout: cfg.Browser.AcquireTimeout,
	}, logger)
	prober := browser.NewProber()

	// Initialize services
	registrationService := service.NewRegistrationService(registrantRepo, logger, cfg.Event)
	dispatchService := service.NewDispatchService(
		registrantRepo,
		dispatchLogRepo,
		catalog,
		sessions,
		prober,
		rateLimiter,
		profileLock,
		logger,
		cfg.Dispatch,
	)

	// Initialize WebSocket hub
	wsHub := handler.NewWebSocketHub(logger)
	go wsHub.Run()

	dispatchService.SetStatusBroadcast(func(attempt *domain.DispatchAttempt) {
		wsHub.BroadcastAttempt(attempt)
	})

	// Initialize handlers
	registrantHandler := handler.NewRegistrantHandler(registrationService)
	metrics := handler.NewMetrics()
	dispatchHandler := handler.NewDispatchHandler(dispatchService, metrics)
	healthHandler := handler.NewHealthHandler()
	healthHandler.AddChecker("postgres", db)
	healthHandler.AddChecker("redis", redisClient)

	metricsHandler := handler.NewMetricsHandler(metrics)
	wsHandler := handler.NewWebSocketHandler(wsHub)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Correlation)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics(metrics))
	r.Use(chimiddleware.Compress(5))

	// Health endpoints
	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	// Metrics endpoint
	r.Handle("/metrics", metricsHandler.Handler())

	// WebSocket endpoint
	r.Get("/ws", wsHandler.HandleWebSocket)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/registrations", func(r chi.Router) {
			registrantHandler.RegisterRoutes(r)
		})

		r.Route("/reminders", func(r chi.Router) {
			dispatchHandler.RegisterRoutes(r)
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server listening", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	cancel()

	logger.Info("server stopped")
}
