package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/devpokerapp/devpoker-services/internal/bus"
	"github.com/devpokerapp/devpoker-services/internal/config"
	"github.com/devpokerapp/devpoker-services/internal/database"
	"github.com/devpokerapp/devpoker-services/internal/gateway"
	"github.com/devpokerapp/devpoker-services/internal/handler"
	"github.com/devpokerapp/devpoker-services/internal/job"
	"github.com/devpokerapp/devpoker-services/internal/metrics"
	"github.com/devpokerapp/devpoker-services/internal/repository"
	"github.com/devpokerapp/devpoker-services/internal/router"
	"github.com/devpokerapp/devpoker-services/internal/service"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Server.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Estimate Service",
		zap.Int("port", cfg.Server.Port),
		zap.String("env", cfg.Server.Env),
		zap.String("base_path", cfg.Server.BasePath),
	)

	db, err := database.New(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	logger.Info("Database connected successfully")

	redisClient, err := database.NewRedis(cfg)
	if err != nil {
		logger.Warn("Redis unavailable, room fanout stays process-local", zap.Error(err))
		redisClient = nil
	} else {
		logger.Info("Redis connected successfully")
	}

	m := metrics.New()

	// Repositories
	sessionRepo := repository.NewSessionRepository(db)
	itemRepo := repository.NewItemRepository(db)
	roundRepo := repository.NewRoundRepository(db)
	voteRepo := repository.NewVoteRepository(db)
	participantRepo := repository.NewParticipantRepository(db)
	eventRepo := repository.NewEventRepository(db)
	inviteRepo := repository.NewInviteRepository(db)

	// Gateway hub: room registry plus cross-replica fanout over redis.
	hub := gateway.NewHub(redisClient, logger)

	// In-process event bus
	eventBus := bus.New(logger)

	// Services
	inviteService := service.NewInviteService(inviteRepo, cfg.Invite.TTL, m, logger)
	participantService := service.NewParticipantService(participantRepo, sessionRepo, inviteService, hub, logger)
	roundService := service.NewRoundService(db, roundRepo, voteRepo, itemRepo, sessionRepo, participantRepo, hub, m, logger)
	eventService := service.NewEventService(eventRepo, itemRepo, participantRepo, hub, m, logger)
	sessionService := service.NewSessionService(sessionRepo, itemRepo, inviteService, hub, logger)
	itemService := service.NewItemService(itemRepo, eventBus, hub, logger)

	// A created item gets its first voting round opened by the round
	// engine; EnsureOpen keeps redelivery harmless.
	eventBus.Subscribe(bus.TopicItemCreated, func(ctx context.Context, payload any) {
		created, ok := payload.(bus.ItemCreated)
		if !ok {
			return
		}
		if _, err := roundService.EnsureOpen(ctx, created.Item.ID); err != nil {
			logger.Error("Failed to open round for new item",
				zap.String("item_id", created.Item.ID.String()),
				zap.Error(err))
		}
	})

	// Gateway wiring
	dispatcher := gateway.NewDispatcher(logger)
	gateway.RegisterRoutes(dispatcher, hub, participantService, roundService, eventService, sessionService)
	wsHandler := gateway.NewWSHandler(hub, dispatcher, m, logger)

	// Handlers
	sessionHandler := handler.NewSessionHandler(sessionService, participantService, inviteService)
	itemHandler := handler.NewItemHandler(itemService, eventService)

	// Cron jobs
	cronRunner := cron.New()
	cleanupJob := job.NewInviteCleanupJob(inviteRepo, cfg.Invite.CleanupGrace, logger)
	if err := cleanupJob.Schedule(cronRunner, cfg.Invite.CleanupSchedule); err != nil {
		logger.Fatal("Failed to schedule invite cleanup", zap.Error(err))
	}
	cronRunner.Start()

	r := router.Setup(cfg, db, redisClient, m, wsHandler, sessionHandler, itemHandler, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("Estimate Service started successfully",
			zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	cronRunner.Stop()
	hub.Close()

	logger.Info("Server exited gracefully")
}

// initLogger initializes the zap logger with the specified level
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      zapLevel == zapcore.DebugLevel,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}
