package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dafibh/washpos/washpos-backend/internal/config"
	"github.com/dafibh/washpos/washpos-backend/internal/domain"
	"github.com/dafibh/washpos/washpos-backend/internal/handler"
	"github.com/dafibh/washpos/washpos-backend/internal/middleware"
	"github.com/dafibh/washpos/washpos-backend/internal/repository/postgres"
	"github.com/dafibh/washpos/washpos-backend/internal/repository/redisstore"
	"github.com/dafibh/washpos/washpos-backend/internal/repository/storage"
	"github.com/dafibh/washpos/washpos-backend/internal/service"
	"github.com/dafibh/washpos/washpos-backend/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// @title WashPOS API
// @version 1.0
// @description Cash session reconciliation for car wash branches.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx := context.Background()

	// Connect to database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	operatorRepo := postgres.NewOperatorRepository(pool)
	sessionRepo := postgres.NewCashSessionRepository(pool)
	saleRepo := postgres.NewSaleRepository(pool)
	expenseRepo := postgres.NewExpenseRepository(pool)

	// Real-time event hub
	hub := websocket.NewHub()

	// Initialize services
	reportService := service.NewReportService(saleRepo, expenseRepo)
	reportService.SetLocation(cfg.BranchTimezone)
	sessionService := service.NewSessionService(sessionRepo, reportService)
	sessionService.SetEventPublisher(hub)
	ledgerService := service.NewLedgerService(sessionRepo, saleRepo, expenseRepo)
	ledgerService.SetEventPublisher(hub)

	// Redis backs close locking and the crew location feed
	var crewHandler *handler.CrewHandler
	var poller *service.LocationPoller
	if cfg.Redis.Enabled() {
		redisClient, err := redisstore.NewClient(ctx, cfg.Redis.Address, cfg.Redis.Password)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
		log.Info().Str("address", cfg.Redis.Address).Msg("Connected to Redis")

		sessionService.SetLocker(redisstore.NewSessionLocker(redisClient, redisstore.DefaultLockTTL))

		var locationRepo domain.CrewLocationRepository = redisstore.NewCrewLocationRepository(redisClient)
		crewHandler = handler.NewCrewHandler(service.NewCrewService(locationRepo))

		if len(cfg.Location.Branches) > 0 {
			source := service.NewSyntheticLocationSource(cfg.Location.CrewPerBranch, time.Now().UnixNano())
			poller = service.NewLocationPoller(source, locationRepo, log.Logger, service.LocationPollerConfig{
				Interval: cfg.Location.PollInterval,
				Branches: cfg.Location.Branches,
			})
			poller.SetEventPublisher(hub)
		}
	} else {
		log.Warn().Msg("REDIS_ADDRESS not set: close locking and crew locations disabled")
	}

	// S3 keeps a copy of every closing
	if cfg.S3.Enabled() {
		archive, err := storage.NewS3ClosingArchive(ctx, cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize closing archive")
		}
		sessionService.SetArchive(archive)
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Closing archive enabled")
	}

	// Initialize auth middleware
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience, operatorRepo)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}

	wsValidator, err := websocket.NewAuth0JWTValidator(cfg.Auth0Domain, cfg.Auth0Audience, operatorRepo)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create websocket token validator")
	}

	limits := handler.RouteLimits{
		Reconcile: middleware.NewRateLimiterWithConfig(cfg.ReconcileRateLimit, middleware.ReconcileBurstSize),
		Close:     middleware.NewRateLimiterWithConfig(cfg.CloseRateLimit, middleware.DefaultBurstSize),
	}

	// Initialize handlers
	sessionHandler := handler.NewSessionHandler(sessionService)
	ledgerHandler := handler.NewLedgerHandler(ledgerService)
	reportHandler := handler.NewReportHandler(reportService)
	wsHandler := handler.NewWebSocketHandler(hub, wsValidator, cfg.CORSOrigins)
	docsHandler := handler.NewOpenAPIHandler(cfg.OpenAPIServers)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(middleware.RequestLogger())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Register API routes
	handler.RegisterRoutes(e, authMiddleware, limits, sessionHandler, ledgerHandler, reportHandler, crewHandler, wsHandler, docsHandler)

	// Background workers
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	if poller != nil {
		poller.Start(workerCtx)
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	if poller != nil {
		poller.Stop()
	}
	stopWorkers()
	limits.Reconcile.Stop()
	limits.Close.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	hub.Shutdown()

	log.Info().Msg("Server exited")
}
