package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	_ "github.com/johnquangdev/medical-scribe/docs"
	pkgvalidator "github.com/johnquangdev/medical-scribe/pkg/validator"

	"github.com/johnquangdev/medical-scribe/internal/adapter/handler"
	"github.com/johnquangdev/medical-scribe/internal/adapter/repository"
	"github.com/johnquangdev/medical-scribe/internal/infrastructure/cache"
	"github.com/johnquangdev/medical-scribe/internal/infrastructure/database"
	"github.com/johnquangdev/medical-scribe/internal/infrastructure/queue"
	"github.com/johnquangdev/medical-scribe/internal/infrastructure/storage"
	"github.com/johnquangdev/medical-scribe/internal/usecase/extraction"
	"github.com/johnquangdev/medical-scribe/internal/usecase/letter"
	"github.com/johnquangdev/medical-scribe/internal/usecase/pipeline"
	"github.com/johnquangdev/medical-scribe/internal/usecase/recording"
	"github.com/johnquangdev/medical-scribe/internal/usecase/soap"
	"github.com/johnquangdev/medical-scribe/internal/usecase/validation"
	pkgai "github.com/johnquangdev/medical-scribe/pkg/ai"
	"github.com/johnquangdev/medical-scribe/pkg/config"
	"github.com/johnquangdev/medical-scribe/pkg/jwt"
)

// @title           Medical Scribe API
// @version         1.0
// @description     Turns consultation recordings into validated SOAP notes and referral letters.

// @BasePath  /v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.Server.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	rootCtx, stopRoot := context.WithCancel(context.Background())
	defer stopRoot()

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Cookie"},
		AllowCredentials: true,
	}))

	// Multipart overhead on top of the audio itself
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dK", cfg.Server.UploadMaxBytes/1024+1024)))

	logger.Info("🔧 Initializing dependencies...")

	// Initialize Database
	logger.Info("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	// Run AutoMigrate only when explicitly enabled in config.
	// Production deployments should manage schema via sql-migrate.
	if cfg.Database.AutoMigrate {
		if cfg.Server.Environment == "production" {
			logger.Fatal("AutoMigrate is enabled in production. Disable DB_AUTO_MIGRATE or manage schema with sql-migrate.")
		}
		logger.Info("🔄 Running GORM AutoMigrate (development only) ...")
		if err := database.AutoMigrate(db, logger); err != nil {
			logger.Fatal("Failed to run AutoMigrate", zap.Error(err))
		}
	} else {
		logger.Info("🔄 Skipping GORM AutoMigrate; use sql-migrate for schema migrations in CI/CD/production")
	}

	// Initialize object storage
	logger.Info("🪣 Connecting to object storage...")
	objects, err := storage.NewMinIOClient(rootCtx, &cfg.Storage, logger)
	if err != nil {
		logger.Fatal("Failed to connect to object storage", zap.Error(err))
	}

	// Initialize Redis
	var redisClient *redis.Client
	if cfg.UsesRedis() {
		logger.Info("📦 Connecting to Redis...")
		redisClient, err = cache.NewRedisClient(rootCtx, cfg)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
	}

	// Initialize repositories
	logger.Info("⚙️  Initializing repositories...")
	recordingRepo := repository.NewRecordingRepository(db)
	noteRepo := repository.NewMedicalNoteRepository(db)

	// Engines are resolved lazily on first use
	logger.Info("🤖 Initializing engine registry...",
		zap.String("transcription", cfg.Engines.TranscriptionProvider),
		zap.String("generation", cfg.Engines.GenerationProvider),
	)
	engines := pkgai.NewRegistry(cfg.Engines, logger)

	specialties := soap.NewSpecialtyTable(cfg.Pipeline.DefaultSpecialty)
	if cfg.Pipeline.SpecialtyFile != "" {
		specialties, err = soap.LoadSpecialtyFile(cfg.Pipeline.SpecialtyFile, cfg.Pipeline.DefaultSpecialty)
		if err != nil {
			logger.Fatal("Failed to load specialty file", zap.String("path", cfg.Pipeline.SpecialtyFile), zap.Error(err))
		}
	}

	// Initialize queue
	var jobs queue.Queue
	switch cfg.Pipeline.QueueBackend {
	case "redis":
		jobs = queue.NewRedisQueue(redisClient, cfg.Pipeline.QueueKey)
	default:
		jobs = queue.NewMemoryQueue(cfg.Pipeline.QueueBuffer)
	}
	logger.Info("📬 Job queue ready", zap.String("backend", cfg.Pipeline.QueueBackend))

	// Initialize letter cache
	var letterCache cache.Store
	switch cfg.Letter.CacheBackend {
	case "redis":
		letterCache = cache.NewRedisStore(redisClient, "medical-scribe:")
	default:
		memoryCache := cache.NewMemoryStore(time.Minute)
		defer memoryCache.Close()
		letterCache = memoryCache
	}

	// Initialize pipeline
	logger.Info("🩺 Initializing pipeline...")
	orchestrator := pipeline.NewOrchestrator(
		recordingRepo,
		noteRepo,
		objects,
		engines,
		extraction.NewExtractor(engines, logger),
		soap.NewComposer(engines, specialties, logger),
		validation.NewValidator(),
		jobs,
		cfg.Pipeline,
		logger,
	)

	recordingService := recording.NewRecordingService(recordingRepo, objects, cfg.Server.UploadMaxBytes, logger)
	letterService := letter.NewService(
		recordingRepo,
		noteRepo,
		letter.NewComposer(engines, logger),
		letterCache,
		cfg.Letter.CacheTTL,
		logger,
	)

	// Initialize JWT manager
	logger.Info("🔑 Initializing JWT manager...")
	jwtManager := jwt.NewManager(cfg.Auth.AccessSecret, cfg.Auth.AccessExpiry, cfg.Auth.Issuer)

	// Initialize handlers
	recordingHandler := handler.NewRecordingHandler(recordingService, orchestrator, cfg.Server.UploadMaxBytes, logger)
	noteHandler := handler.NewNoteHandler(recordingService, orchestrator, letterService, logger)
	healthHandler := handler.NewHealthHandler(cfg.Server.Environment, map[string]handler.HealthCheck{
		"database": func(ctx context.Context) error { return database.Ping(ctx, db) },
		"storage":  objects.Ping,
	}, engines, orchestrator, logger)

	// Setup router with handlers
	logger.Info("🛣️  Setting up routes...")
	router := handler.NewRouter(
		jwtManager,
		recordingService,
		recordingHandler,
		noteHandler,
		healthHandler,
		cfg.Server.Environment != "production",
	)
	router.Setup(e)

	// Start worker pool
	if err := orchestrator.StartWorkerPool(rootCtx, cfg.Pipeline.Workers); err != nil {
		logger.Fatal("Failed to start worker pool", zap.Error(err))
	}

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		logger.Info("🚀 Starting server",
			zap.String("addr", addr),
			zap.String("environment", cfg.Server.Environment),
		)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("❌ Server forced to shutdown", zap.Error(err))
	}

	if err := orchestrator.StopWorkerPool(); err != nil {
		logger.Warn("Worker pool did not stop cleanly", zap.Error(err))
	}
	if err := jobs.Close(); err != nil {
		logger.Warn("Failed to close job queue", zap.Error(err))
	}
	stopRoot()

	logger.Info("✅ Server stopped gracefully")
}

func newLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
