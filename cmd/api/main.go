package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/engtrack/internal/config"
	"github.com/noah-isme/engtrack/internal/database"
	"github.com/noah-isme/engtrack/internal/handler"
	"github.com/noah-isme/engtrack/internal/middleware"
	"github.com/noah-isme/engtrack/internal/models"
	"github.com/noah-isme/engtrack/internal/observability"
	"github.com/noah-isme/engtrack/internal/repository"
	"github.com/noah-isme/engtrack/internal/router"
	"github.com/noah-isme/engtrack/internal/service"
	"github.com/noah-isme/engtrack/internal/session"
	"github.com/noah-isme/engtrack/internal/view"
	"github.com/noah-isme/engtrack/pkg/filestore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to access database handle: %v", err)
	}
	defer sqlDB.Close()

	var sessionStorage fiber.Storage
	if cfg.RedisURL != "" {
		redisClient, err := database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		sessionStorage = session.NewRedisStorage(redisClient, "")
	} else {
		logger.Warn().Msg("redis url not configured; sessions are kept in memory")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable; change events disabled")
		} else {
			defer natsConn.Drain()
		}
	}

	files, err := filestore.New(filestore.Config{Root: cfg.UploadDir, MaxBytes: cfg.MaxUploadBytes()}, logger)
	if err != nil {
		log.Fatalf("failed to prepare upload directory: %v", err)
	}

	observability.RegisterMetrics()
	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	orderRepo := repository.NewProductionOrderRepository(db)
	historyRepo := repository.NewHistoryRepository(db)

	userService := service.NewUserService(userRepo, logger)
	historyFeedService := service.NewHistoryFeedService(historyRepo, logger)
	notifier := service.NewChangeNotifier(natsConn, cfg.NATSSubject, logger)
	activityService := service.NewActivityService(activityRepo, files, notifier, validate, logger)
	orderService := service.NewProductionOrderService(orderRepo, files, validate, logger)

	userService.Bootstrap(context.Background(), cfg.UsersFile)

	engine := view.New()
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		Views:        engine,
		ErrorHandler: handler.ErrorHandler(logger),
		BodyLimit:    int(cfg.MaxUploadBytes()) + 1024*1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AccessLog: !cfg.IsProduction()})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:            handler.NewAuthHandler(userService, logger),
		DashboardHandler:       handler.NewDashboardHandler(activityService, orderService, logger),
		ActivityHandler:        handler.NewActivityHandler(activityService, logger),
		ProductionOrderHandler: handler.NewProductionOrderHandler(orderService, logger),
		AttachmentHandler:      handler.NewAttachmentHandler(files, logger),
		HistoryFeedHandler:     handler.NewHistoryFeedHandler(historyFeedService, logger),
		Health:                 handler.HealthCheck(cfg, sqlDB),
		Sessions:               middleware.Sessions(session.NewStore(cfg, sessionStorage), logger),
		RequireLogin:           middleware.RequireLogin(userService, logger),
		LoginLimiter:           middleware.RateLimit("login", cfg.LoginRateLimit, time.Minute, fiber.MethodPost),
		AdminOnly:              middleware.RequireRole(models.RoleAdmin),
	})

	go func() {
		logger.Info().Str("address", cfg.HTTPAddress()).Msg("http server listening")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
