// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ammerola/greencycle-be/internal/adapters/catalog"
	"github.com/ammerola/greencycle-be/internal/adapters/db"
	redis_a "github.com/ammerola/greencycle-be/internal/adapters/redis_adapter"
	"github.com/ammerola/greencycle-be/internal/adapters/storage"
	"github.com/ammerola/greencycle-be/internal/core/ports"
	"github.com/ammerola/greencycle-be/internal/core/services"
	"github.com/ammerola/greencycle-be/internal/handlers"
	"github.com/ammerola/greencycle-be/internal/handlers/middleware"
	"github.com/ammerola/greencycle-be/internal/pkg/config"
	"github.com/ammerola/greencycle-be/internal/pkg/logger"
)

// Build information injected at compile time
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

func main() {
	slogger := logger.SetupLogger("debug", "json")

	slogger.Info("starting greencycle listing api",
		slog.String("version", Version),
		slog.String("build_time", BuildTime),
		slog.String("go_version", GoVersion),
	)

	cfg, err := config.Load(slogger.Logger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slogger = logger.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	slogger.Info("configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("catalog_source", cfg.Catalog.Source),
		slog.String("image_storage", cfg.Storage.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	deps, err := initializeDependencies(ctx, cfg, slogger.Logger)
	if err != nil {
		slogger.Error("failed to initialize dependencies", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer deps.cleanup()

	server := setupHTTPServer(ctx, cfg, deps, slogger.Logger)

	serverErrors := make(chan error, 1)
	go func() {
		slogger.Info("starting HTTP server", slog.String("address", cfg.GetServerAddress()))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.Error("server error", slog.String("error", err.Error()))
		}
	case <-ctx.Done():
		slogger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slogger.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
			server.Close()
		}

		slogger.Info("server shutdown complete")
	}
}

// dependencies holds all application dependencies. database and the item,
// cart and import handlers stay nil when the catalog is served from a seed file.
type dependencies struct {
	database       *db.Database
	redisClient    *redis.Client
	cache          *redis_a.Cache
	asynqClient    *asynq.Client
	asynqInspector *asynq.Inspector

	listingHandler *handlers.ListingHandler
	itemHandler    *handlers.ItemHandler
	cartHandler    *handlers.CartHandler
	importHandler  *handlers.ImportHandler
	healthHandler  *handlers.HealthHandler
}

func (d *dependencies) cleanup() {
	if d.database != nil {
		d.database.Close()
	}
	if d.redisClient != nil {
		d.redisClient.Close()
	}
	if d.asynqClient != nil {
		d.asynqClient.Close()
	}
	if d.asynqInspector != nil {
		d.asynqInspector.Close()
	}
}

func initializeDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*dependencies, error) {
	deps := &dependencies{}

	logger.Info("connecting to Redis", slog.String("addr", cfg.GetRedisAddr()))
	redisClient := redis.NewClient(redisOptions(cfg))
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	deps.redisClient = redisClient
	deps.cache = redis_a.NewCache(redisClient, cfg.Redis.TTL, logger)

	asynqRedisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Asynq.RedisAddr,
		Password: cfg.Asynq.RedisPassword,
		DB:       cfg.Asynq.RedisDB,
	}
	deps.asynqClient = asynq.NewClient(asynqRedisOpt)
	deps.asynqInspector = asynq.NewInspector(asynqRedisOpt)

	var (
		source   ports.CatalogSource
		database ports.Database
	)

	switch cfg.Catalog.Source {
	case "seed":
		logger.Warn("serving catalog from seed file; item, cart and import endpoints are disabled",
			slog.String("path", cfg.Catalog.SeedPath))
		static, err := catalog.NewStaticSource(cfg.Catalog.SeedPath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to load seed catalog: %w", err)
		}
		source = static

	default:
		logger.Info("connecting to database",
			slog.String("host", cfg.Database.Host),
			slog.String("database", cfg.Database.Name))

		pg, err := db.NewDatabase(ctx, db.ConfigFrom(cfg.Database), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		deps.database = pg
		database = pg

		if !cfg.IsProduction() {
			if err := runMigrations(ctx, cfg, logger); err != nil {
				logger.Error("failed to run migrations", slog.String("error", err.Error()))
			}
		}

		repo := db.NewItemRepository(pg, logger)
		source = catalog.NewCachedSource(repo, deps.cache, cfg.Catalog.SnapshotTTL, logger)

		images, err := newImageStore(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}

		itemService := services.NewItemService(repo, source, images, logger)
		cartStore := redis_a.NewCartStore(deps.cache, cfg.Cart.KeyPrefix, cfg.Cart.TTL)
		cartService := services.NewCartService(cartStore, repo, logger)

		deps.itemHandler = handlers.NewItemHandler(itemService, logger)
		deps.cartHandler = handlers.NewCartHandler(cartService, logger)

		maxFileSize := int64(cfg.Import.MaxSizeMB) << 20
		deps.importHandler = handlers.NewImportHandler(deps.asynqClient, deps.asynqInspector, logger, maxFileSize, cfg.Import.TempDir)
	}

	listingService := services.NewListingService(source, cfg.Catalog.PageSize, logger)
	deps.listingHandler = handlers.NewListingHandler(listingService, cfg.Catalog.MaxPageSize, logger)

	deps.healthHandler = handlers.NewHealthHandler(database, deps.cache, deps.asynqInspector,
		handlers.BuildInfo{Version: Version, Environment: cfg.App.Environment}, logger)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

func redisOptions(cfg *config.Config) *redis.Options {
	return &redis.Options{
		Addr:            cfg.GetRedisAddr(),
		Password:        cfg.Redis.Password,
		DB:              cfg.Redis.DB,
		MaxRetries:      cfg.Redis.MaxRetries,
		MinRetryBackoff: cfg.Redis.MinRetryBackoff,
		MaxRetryBackoff: cfg.Redis.MaxRetryBackoff,
		DialTimeout:     cfg.Redis.DialTimeout,
		ReadTimeout:     cfg.Redis.ReadTimeout,
		WriteTimeout:    cfg.Redis.WriteTimeout,
		PoolSize:        cfg.Redis.PoolSize,
		MinIdleConns:    cfg.Redis.MinIdleConns,
		PoolTimeout:     cfg.Redis.PoolTimeout,
	}
}

func newImageStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.ImageStore, error) {
	if cfg.Storage.Driver == "local" {
		return storage.NewLocalImageStore(cfg.Storage.LocalDir, cfg.Storage.LocalBaseURL, logger), nil
	}

	store, err := storage.NewS3ImageStore(ctx, &storage.S3Config{
		Region:          cfg.AWS.Region,
		Bucket:          cfg.AWS.S3Bucket,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		Endpoint:        cfg.AWS.S3Endpoint,
		UsePathStyle:    cfg.AWS.UsePathStyle,
		PublicBaseURL:   cfg.AWS.PublicBaseURL,
		EnsureBucket:    !cfg.IsProduction(),
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize image storage: %w", err)
	}
	return store, nil
}

func setupHTTPServer(ctx context.Context, cfg *config.Config, deps *dependencies, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	registerRoutes(mux, cfg, deps)

	chain := middleware.Chain(ctx, middleware.Options{
		RequestIDHeader:   cfg.Security.RequestIDHeader,
		SessionHeader:     cfg.Security.SessionHeader,
		AllowedOrigins:    cfg.Security.AllowedOrigins,
		TrustedProxies:    cfg.Security.TrustedProxies,
		RateLimitRequests: cfg.Security.RateLimitRequests,
		RateLimitDuration: cfg.Security.RateLimitDuration,
		SecureHeaders:     cfg.Security.SecureHeaders,
		RequestTimeout:    cfg.Server.RequestTimeout,
	}, logger)

	return &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        chain.Then(mux),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}

func registerRoutes(mux *http.ServeMux, cfg *config.Config, deps *dependencies) {
	apiV1 := "/api/v1"

	mux.HandleFunc("GET /health", deps.healthHandler.Health)
	mux.HandleFunc("GET /health/live", deps.healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", deps.healthHandler.Readiness)

	mux.HandleFunc("GET "+apiV1+"/listings", deps.listingHandler.List)
	mux.HandleFunc("GET "+apiV1+"/listings/export", deps.listingHandler.Export)

	// Imports write through the item repository, so they need postgres.
	if deps.importHandler != nil {
		mux.HandleFunc("POST "+apiV1+"/catalog/import", deps.importHandler.Import)
		mux.HandleFunc("GET "+apiV1+"/catalog/import/{taskId}", deps.importHandler.ImportStatus)
		mux.HandleFunc("POST "+apiV1+"/catalog/refresh", deps.importHandler.Refresh)
	}

	if deps.itemHandler != nil {
		mux.HandleFunc("POST "+apiV1+"/items", deps.itemHandler.Create)
		mux.HandleFunc("GET "+apiV1+"/items/{id}", deps.itemHandler.Get)
		mux.HandleFunc("PUT "+apiV1+"/items/{id}", deps.itemHandler.Update)
		mux.HandleFunc("DELETE "+apiV1+"/items/{id}", deps.itemHandler.Delete)
		mux.HandleFunc("POST "+apiV1+"/items/{id}/like", deps.itemHandler.Like)
		mux.HandleFunc("POST "+apiV1+"/items/{id}/images", deps.itemHandler.UploadImage)
	}

	if deps.cartHandler != nil {
		mux.HandleFunc("GET "+apiV1+"/cart", deps.cartHandler.Get)
		mux.HandleFunc("POST "+apiV1+"/cart/items", deps.cartHandler.AddItem)
		mux.HandleFunc("DELETE "+apiV1+"/cart/items/{id}", deps.cartHandler.RemoveItem)
		mux.HandleFunc("POST "+apiV1+"/cart/coupon", deps.cartHandler.ApplyCoupon)
		mux.HandleFunc("DELETE "+apiV1+"/cart", deps.cartHandler.Clear)
	}

	// Local photos are served from disk; S3 URLs point at the bucket or CDN.
	if cfg.Storage.Driver == "local" && strings.HasPrefix(cfg.Storage.LocalBaseURL, "/") {
		prefix := strings.TrimRight(cfg.Storage.LocalBaseURL, "/") + "/"
		mux.Handle("GET "+prefix, http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.Storage.LocalDir))))
	}
}

func runMigrations(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("running database migrations")

	return db.RunMigrationsWithRetry(ctx, &db.MigrationConfig{
		DatabaseURL: db.ConfigFrom(cfg.Database).URL(),
		TableName:   "schema_migrations",
		SchemaName:  "public",
	}, logger, 3)
}
