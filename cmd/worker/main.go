// cmd/worker/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/greencycle-be/internal/adapters/catalog"
	"github.com/ammerola/greencycle-be/internal/adapters/db"
	redis_a "github.com/ammerola/greencycle-be/internal/adapters/redis_adapter"
	"github.com/ammerola/greencycle-be/internal/core/services"
	"github.com/ammerola/greencycle-be/internal/pkg/config"
	"github.com/ammerola/greencycle-be/internal/pkg/logger"
	"github.com/ammerola/greencycle-be/internal/workers"
)

// refreshLockTTL bounds how long one worker may hold the refresh lock
const refreshLockTTL = 2 * time.Minute

func main() {
	slogger := logger.SetupLogger("info", "json")

	cfg, err := config.Load(slogger.Logger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger.Info("starting worker",
		slog.String("environment", cfg.App.Environment),
		slog.String("redis_addr", cfg.Asynq.RedisAddr))

	ctx := context.Background()
	database, err := initDatabase(ctx, cfg, slogger.Logger)
	if err != nil {
		slogger.Error("failed to initialize database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	defer redisClient.Close()
	cache := redis_a.NewCache(redisClient, cfg.Redis.TTL, slogger.Logger)

	repo := db.NewItemRepository(database, slogger.Logger)
	source := catalog.NewCachedSource(repo, cache, cfg.Catalog.SnapshotTTL, slogger.Logger)
	itemService := services.NewItemService(repo, source, nil, slogger.Logger)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:     cfg.Asynq.Concurrency,
		Queues:          cfg.Asynq.Queues,
		StrictPriority:  cfg.Asynq.StrictPriority,
		ErrorHandler:    asynq.ErrorHandlerFunc(handleError),
		RetryDelayFunc:  exponentialBackoff,
		ShutdownTimeout: cfg.Asynq.ShutdownTimeout,
		HealthCheckFunc: healthCheck,
		Logger:          newAsynqLogger(slogger.Logger),
	})

	mux := asynq.NewServeMux()
	mux.Use(taskContext)

	importProcessor := workers.NewImportProcessor(itemService, slogger.Logger)
	mux.HandleFunc(workers.TypeCatalogImport, importProcessor.ProcessImport)

	refreshProcessor := workers.NewRefreshProcessor(source, cache, refreshLockTTL, slogger.Logger)
	mux.HandleFunc(workers.TypeCatalogRefresh, refreshProcessor.ProcessRefresh)

	cleanupProcessor := workers.NewCleanupProcessor(cfg.Import.TempDir, cfg.Import.MaxFileAge, slogger.Logger)
	mux.HandleFunc(workers.TypeCleanupTemp, cleanupProcessor.CleanupTempFiles)

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Logger: newAsynqLogger(slogger.Logger),
	})
	if err := registerPeriodicTasks(scheduler, cfg); err != nil {
		slogger.Error("failed to register periodic tasks", slog.String("error", err.Error()))
		os.Exit(1)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Run(mux); err != nil {
			slogger.Error("failed to run worker server", slog.String("error", err.Error()))
			shutdown <- syscall.SIGTERM
		}
	}()

	if err := scheduler.Start(); err != nil {
		slogger.Error("failed to start scheduler", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slogger.Info("worker started successfully",
		slog.Int("concurrency", cfg.Asynq.Concurrency),
		slog.Any("queues", cfg.Asynq.Queues),
		slog.Duration("refresh_every", cfg.Catalog.RefreshEvery),
		slog.Duration("cleanup_interval", cfg.Import.CleanupInterval))

	sig := <-shutdown
	slogger.Info("shutdown signal received", slog.String("signal", sig.String()))

	scheduler.Shutdown()
	srv.Shutdown()
	slogger.Info("worker shutdown complete")
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*db.Database, error) {
	dbConfig := db.ConfigFrom(cfg.Database)
	// Fewer connections for worker
	dbConfig.MaxConnections = 10
	dbConfig.MinConnections = 2

	return db.NewDatabase(ctx, dbConfig, logger)
}

func registerPeriodicTasks(scheduler *asynq.Scheduler, cfg *config.Config) error {
	if cfg.Catalog.RefreshEvery > 0 {
		spec := fmt.Sprintf("@every %s", cfg.Catalog.RefreshEvery)
		if _, err := scheduler.Register(spec, workers.NewRefreshTask()); err != nil {
			return fmt.Errorf("failed to schedule catalog refresh: %w", err)
		}
	}
	if cfg.Import.CleanupInterval > 0 {
		spec := fmt.Sprintf("@every %s", cfg.Import.CleanupInterval)
		if _, err := scheduler.Register(spec, workers.NewCleanupTask()); err != nil {
			return fmt.Errorf("failed to schedule temp cleanup: %w", err)
		}
	}
	return nil
}

// taskContext tags every log line of a task with its ID
func taskContext(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		if id, ok := asynq.GetTaskID(ctx); ok {
			ctx = context.WithValue(ctx, logger.ContextKeyTaskID, id)
		}
		return next.ProcessTask(ctx, t)
	})
}

func handleError(ctx context.Context, task *asynq.Task, err error) {
	slog.ErrorContext(ctx, "task processing failed",
		slog.String("type", task.Type()),
		slog.String("error", err.Error()))
}

func exponentialBackoff(n int, e error, t *asynq.Task) time.Duration {
	baseDelay := time.Second
	maxDelay := 10 * time.Minute
	delay := baseDelay * time.Duration(1<<uint(n))
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

func healthCheck(err error) {
	if err != nil {
		slog.Error("worker health check failed", slog.String("error", err.Error()))
	}
}

// asynqLogger adapts slog for Asynq
type asynqLogger struct {
	logger *slog.Logger
}

func newAsynqLogger(logger *slog.Logger) *asynqLogger {
	return &asynqLogger{
		logger: logger.With(slog.String("component", "asynq")),
	}
}

func (l *asynqLogger) Debug(args ...any) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...any) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...any) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...any) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...any) {
	l.logger.Error(fmt.Sprint(args...))
	os.Exit(1)
}
