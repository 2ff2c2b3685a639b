package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"

	"github.com/inkweave/inkweave-backend/internal/cache"
	"github.com/inkweave/inkweave-backend/internal/config"
	"github.com/inkweave/inkweave-backend/internal/database"
	"github.com/inkweave/inkweave-backend/internal/handlers"
	"github.com/inkweave/inkweave-backend/internal/logging"
	"github.com/inkweave/inkweave-backend/internal/middleware"
	"github.com/inkweave/inkweave-backend/internal/routes"
	"github.com/inkweave/inkweave-backend/internal/services"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// Database log handler (WARN+ async batch)
	dbLogHandler := logging.NewDBHandler(database.DB)
	logging.AttachDatabase(dbLogHandler)

	// Log cleanup
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cfg.LogRetention, cleanupDone)

	// Derived-set cache: durable when CACHE_DIR is set, in-memory otherwise.
	var blockCache cache.Cache
	var badgerCache *cache.Badger
	if cfg.CacheDir != "" {
		var err error
		badgerCache, err = cache.OpenBadger(cfg.CacheDir)
		if err != nil {
			slog.Error("cache open failed", "dir", cfg.CacheDir, "error", err)
			os.Exit(1)
		}
		blockCache = badgerCache
		slog.Info("block cache opened", "dir", cfg.CacheDir)
	} else {
		blockCache = cache.NewMemory()
	}

	// Services
	authService := services.NewAuthService(database.DB, cfg)
	accessPolicy := services.NewAccessPolicy(database.DB)
	blockIndex := services.NewBlockIndex(database.DB, blockCache)
	viewTracker := services.NewViewTracker(database.DB, accessPolicy)
	ledger := services.NewAuthorshipLedger(database.DB, cfg.OwedHiatusWindow)
	feedAssembler := services.NewFeedAssembler(database.DB, blockIndex, cfg.OwedHiatusWindow)
	threadService := services.NewThreadService(database.DB, accessPolicy, blockIndex, ledger)
	boardService := services.NewBoardService(database.DB)
	circleService := services.NewCircleService(database.DB, blockIndex)
	favoriteService := services.NewFavoriteService(database.DB)
	tagService := services.NewTagService(database.DB, accessPolicy)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	healthHandler := handlers.NewHealthHandler()
	boardHandler := handlers.NewBoardHandler(boardService, viewTracker)
	threadHandler := handlers.NewThreadHandler(database.DB, threadService, viewTracker, ledger)
	feedHandler := handlers.NewFeedHandler(feedAssembler)
	blockHandler := handlers.NewBlockHandler(blockIndex)
	circleHandler := handlers.NewCircleHandler(circleService)
	favoriteHandler := handlers.NewFavoriteHandler(favoriteService)
	tagHandler := handlers.NewTagHandler(tagService)

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg,
		authHandler, healthHandler, boardHandler, threadHandler,
		feedHandler, blockHandler, circleHandler, favoriteHandler, tagHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(cleanupDone)
	dbLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if badgerCache != nil {
		if err := badgerCache.Close(); err != nil {
			slog.Error("cache close error", "error", err)
		}
	}

	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
