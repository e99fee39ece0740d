package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/complaint-service/internal/api/http"
	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/directory"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/persistence"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/service"
	"github.com/spec-kit/complaint-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(cfg.Postgres, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var complaintRepo repository.ComplaintRepository
	if pg.Enabled() {
		complaintRepo = repository.NewPostgresComplaintRepository(pg.Pool)
	} else {
		complaintRepo = repository.NewMemoryComplaintRepository()
	}

	seed, err := directory.LoadFile(cfg.Directory.File)
	if err != nil {
		logger.Fatal("failed to load directory", zap.String("file", cfg.Directory.File), zap.Error(err))
	}
	logger.Info("directory loaded", zap.Int("actors", seed.Len()))
	actors := directory.NewCachedDirectory(seed, redis.Client, cfg.Redis.DirectoryCacheTTL(), logger)

	metrics := observability.NewMetrics()
	complaintService := service.NewComplaintService(service.ComplaintDependencies{
		ComplaintRepo: complaintRepo,
		Logger:        logger,
		Metrics:       metrics,
	})
	inboxService := service.NewInboxService(complaintRepo)

	dispatcher := events.NewInMemoryDispatcher()
	notifications := service.NewNotificationService(dispatcher, logger, cfg.Notification, redis.Client)
	notifier := worker.NewNotificationWorker(dispatcher, notifications, logger, 0)
	notifier.Start(ctx)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewMiddleware(tokens, actors, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Complaints:     handlers.NewComplaintsHandler(complaintService, notifier, logger),
		Inbox:          handlers.NewInboxHandler(inboxService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("fiber shutdown", zap.Error(err))
	}
	notifier.Stop()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
