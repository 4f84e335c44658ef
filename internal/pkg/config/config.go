// internal/pkg/config/config.go
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrMissingRequiredConfig is returned when a required value is unset
var ErrMissingRequiredConfig = errors.New("missing required configuration")

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Asynq    AsynqConfig
	AWS      AWSConfig
	Storage  StorageConfig
	Catalog  CatalogConfig
	Cart     CartConfig
	Import   ImportConfig
	Security SecurityConfig
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `required:"true"`
	Environment string // development, staging, production
	Version     string
	LogLevel    string
	LogFormat   string // json, text
	Debug       bool
	SecretsName string // AWS Secrets Manager secret holding passwords
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host               string `required:"true"`
	Port               string `required:"true"`
	User               string `required:"true"`
	Password           string
	Name               string `required:"true"`
	SSLMode            string
	MaxConnections     int32
	MinConnections     int32
	MaxConnLifetime    time.Duration
	MaxConnIdleTime    time.Duration
	HealthCheckPeriod  time.Duration
	ConnectTimeout     time.Duration
	StatementCacheMode string
	EnableQueryLogging bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host            string `required:"true"`
	Port            string `required:"true"`
	Password        string
	DB              int
	MaxRetries      int
	MinRetryBackoff time.Duration
	MaxRetryBackoff time.Duration
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	PoolSize        int
	MinIdleConns    int
	PoolTimeout     time.Duration
	TTL             time.Duration
}

// AsynqConfig holds Asynq configuration
type AsynqConfig struct {
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	Concurrency     int
	Queues          map[string]int // queue name -> priority
	StrictPriority  bool
	RetryMax        int
	ShutdownTimeout time.Duration
}

// AWSConfig holds AWS configuration
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	S3Endpoint      string // For MinIO in development
	UsePathStyle    bool   // For MinIO compatibility
	PublicBaseURL   string // CDN prefix for image URLs, bucket URL when empty
}

// StorageConfig selects where listing photos are kept
type StorageConfig struct {
	Driver       string // s3 or local
	LocalDir     string
	LocalBaseURL string
}

// CatalogConfig controls how listing pages are built
type CatalogConfig struct {
	PageSize     int
	MaxPageSize  int
	Source       string // postgres or seed
	SeedPath     string
	SnapshotTTL  time.Duration
	RefreshEvery time.Duration
}

// CartConfig controls cart persistence
type CartConfig struct {
	KeyPrefix string
	TTL       time.Duration
}

// ImportConfig holds spreadsheet import configuration
type ImportConfig struct {
	MaxSizeMB         int
	ProcessingTimeout time.Duration
	TempDir           string
	CleanupInterval   time.Duration
	MaxFileAge        time.Duration
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	RateLimitRequests int
	RateLimitDuration time.Duration
	AllowedOrigins    []string
	TrustedProxies    []string
	SecureHeaders     bool
	RequestIDHeader   string
	SessionHeader     string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string `required:"true"`
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	RequestTimeout  time.Duration
	MaxHeaderBytes  int
	GracefulTimeout time.Duration
}

// env reads typed values through viper with per-key defaults
type env struct {
	v *viper.Viper
}

func newEnv() env {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return env{v: v}
}

func (e env) str(key, def string) string {
	e.v.SetDefault(key, def)
	return e.v.GetString(key)
}

func (e env) boolean(key string, def bool) bool {
	e.v.SetDefault(key, def)
	return e.v.GetBool(key)
}

func (e env) integer(key string, def int) int {
	e.v.SetDefault(key, def)
	return e.v.GetInt(key)
}

func (e env) duration(key string, def time.Duration) time.Duration {
	e.v.SetDefault(key, def)
	return e.v.GetDuration(key)
}

func (e env) slice(key string, def []string) []string {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Load loads configuration from environment variables
func Load(logger *slog.Logger) (*Config, error) {
	environment := os.Getenv("APP_ENV")
	if environment == "" {
		environment = "development"
	}

	// Load .env file in development
	if environment == "development" || environment == "local" {
		if err := godotenv.Load(); err != nil {
			logger.Warn("no .env file found, using environment variables",
				slog.String("error", err.Error()))
		} else {
			logger.Info(".env file loaded successfully")
		}
	}

	cfg := FromEnv(environment)

	if cfg.App.SecretsName != "" {
		sm, err := NewAWSSecretsManager(context.Background(), cfg.AWS.Region, cfg.App.SecretsName, logger)
		if err != nil {
			return nil, err
		}
		if err := cfg.ApplySecrets(context.Background(), sm); err != nil {
			return nil, fmt.Errorf("failed to apply secrets: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// FromEnv builds a Config from the process environment without validating it
func FromEnv(environment string) *Config {
	e := newEnv()
	dev := environment == "development" || environment == "local"

	redisHost := e.str("REDIS_HOST", "localhost")
	redisPort := e.str("REDIS_PORT", "6379")

	return &Config{
		App: AppConfig{
			Name:        e.str("APP_NAME", "greencycle-api"),
			Environment: environment,
			Version:     e.str("APP_VERSION", "dev"),
			LogLevel:    e.str("LOG_LEVEL", "debug"),
			LogFormat:   e.str("LOG_FORMAT", "json"),
			Debug:       e.boolean("APP_DEBUG", dev),
			SecretsName: e.str("AWS_SECRETS_NAME", ""),
		},
		Database: DatabaseConfig{
			Host:               e.str("DB_HOST", "localhost"),
			Port:               e.str("DB_PORT", "5432"),
			User:               e.str("DB_USER", "greencycle"),
			Password:           e.str("DB_PASSWORD", "greencycle_dev"),
			Name:               e.str("DB_NAME", "greencycle"),
			SSLMode:            e.str("DB_SSL_MODE", "disable"),
			MaxConnections:     int32(e.integer("DB_MAX_CONNECTIONS", 25)),
			MinConnections:     int32(e.integer("DB_MIN_CONNECTIONS", 5)),
			MaxConnLifetime:    e.duration("DB_CONNECTION_LIFETIME", time.Hour),
			MaxConnIdleTime:    e.duration("DB_IDLE_TIME", 30*time.Minute),
			HealthCheckPeriod:  e.duration("DB_HEALTH_CHECK_PERIOD", time.Minute),
			ConnectTimeout:     e.duration("DB_CONNECT_TIMEOUT", 10*time.Second),
			StatementCacheMode: e.str("DB_STATEMENT_CACHE_MODE", "describe"),
			EnableQueryLogging: e.boolean("DB_QUERY_LOGGING", dev),
		},
		Redis: RedisConfig{
			Host:            redisHost,
			Port:            redisPort,
			Password:        e.str("REDIS_PASSWORD", ""),
			DB:              e.integer("REDIS_DB", 0),
			MaxRetries:      e.integer("REDIS_MAX_RETRIES", 3),
			MinRetryBackoff: e.duration("REDIS_MIN_RETRY_BACKOFF", 8*time.Millisecond),
			MaxRetryBackoff: e.duration("REDIS_MAX_RETRY_BACKOFF", 512*time.Millisecond),
			DialTimeout:     e.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:     e.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:    e.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolSize:        e.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns:    e.integer("REDIS_MIN_IDLE_CONNS", 2),
			PoolTimeout:     e.duration("REDIS_POOL_TIMEOUT", 4*time.Second),
			TTL:             e.duration("REDIS_TTL", time.Hour),
		},
		Asynq: AsynqConfig{
			RedisAddr:       fmt.Sprintf("%s:%s", redisHost, redisPort),
			RedisPassword:   e.str("REDIS_PASSWORD", ""),
			RedisDB:         e.integer("ASYNQ_REDIS_DB", 1),
			Concurrency:     e.integer("ASYNQ_CONCURRENCY", 10),
			Queues:          parseQueues(e.str("ASYNQ_QUEUES", "critical:6,default:3,low:1")),
			StrictPriority:  e.boolean("ASYNQ_STRICT_PRIORITY", false),
			RetryMax:        e.integer("ASYNQ_RETRY_MAX", 3),
			ShutdownTimeout: e.duration("ASYNQ_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		AWS: AWSConfig{
			Region:          e.str("AWS_REGION", "ap-northeast-2"),
			AccessKeyID:     e.str("AWS_ACCESS_KEY_ID", "minioadmin"),
			SecretAccessKey: e.str("AWS_SECRET_ACCESS_KEY", "minioadmin123"),
			S3Bucket:        e.str("AWS_S3_BUCKET", "greencycle-images"),
			S3Endpoint:      e.str("AWS_S3_ENDPOINT", ""),
			UsePathStyle:    e.boolean("AWS_S3_PATH_STYLE", dev),
			PublicBaseURL:   e.str("AWS_S3_PUBLIC_URL", ""),
		},
		Storage: StorageConfig{
			Driver:       e.str("IMAGE_STORAGE", storageDriver(dev)),
			LocalDir:     e.str("IMAGE_LOCAL_DIR", "data/images"),
			LocalBaseURL: e.str("IMAGE_LOCAL_URL", "/images"),
		},
		Catalog: CatalogConfig{
			PageSize:     e.integer("CATALOG_PAGE_SIZE", 12),
			MaxPageSize:  e.integer("CATALOG_MAX_PAGE_SIZE", 100),
			Source:       e.str("CATALOG_SOURCE", "postgres"),
			SeedPath:     e.str("CATALOG_SEED_PATH", "seed/catalog.yaml"),
			SnapshotTTL:  e.duration("CATALOG_SNAPSHOT_TTL", 5*time.Minute),
			RefreshEvery: e.duration("CATALOG_REFRESH_EVERY", 10*time.Minute),
		},
		Cart: CartConfig{
			KeyPrefix: e.str("CART_KEY_PREFIX", "greenCycleCart"),
			TTL:       e.duration("CART_TTL", 30*24*time.Hour),
		},
		Import: ImportConfig{
			MaxSizeMB:         e.integer("IMPORT_MAX_SIZE_MB", 20),
			ProcessingTimeout: e.duration("IMPORT_TIMEOUT", 5*time.Minute),
			TempDir:           e.str("TEMP_DIR", os.TempDir()),
			CleanupInterval:   e.duration("CLEANUP_INTERVAL", time.Hour),
			MaxFileAge:        e.duration("IMPORT_MAX_FILE_AGE", 24*time.Hour),
		},
		Security: SecurityConfig{
			RateLimitRequests: e.integer("RATE_LIMIT_REQUESTS", 100),
			RateLimitDuration: e.duration("RATE_LIMIT_DURATION", time.Minute),
			AllowedOrigins:    e.slice("ALLOWED_ORIGINS", []string{"*"}),
			TrustedProxies:    e.slice("TRUSTED_PROXIES", []string{}),
			SecureHeaders:     e.boolean("SECURE_HEADERS", environment == "production"),
			RequestIDHeader:   e.str("REQUEST_ID_HEADER", "X-Request-ID"),
			SessionHeader:     e.str("SESSION_HEADER", "X-Session-ID"),
		},
		Server: ServerConfig{
			Host:            e.str("SERVER_HOST", "0.0.0.0"),
			Port:            e.str("SERVER_PORT", "8080"),
			ReadTimeout:     e.duration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    e.duration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     e.duration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			RequestTimeout:  e.duration("SERVER_REQUEST_TIMEOUT", 20*time.Second),
			MaxHeaderBytes:  e.integer("SERVER_MAX_HEADER_BYTES", 1<<20), // 1 MB
			GracefulTimeout: e.duration("SERVER_GRACEFUL_TIMEOUT", 30*time.Second),
		},
	}
}

// Validate runs the validators that apply to the current environment
func (c *Config) Validate() error {
	validators := []Validator{&BasicValidator{}, &CatalogValidator{}}
	if c.IsProduction() {
		validators = append(validators, &ProductionValidator{})
	}
	for _, v := range validators {
		if err := v.Validate(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplySecrets overrides passwords and image bucket keys with values from
// sm. Keys that sm does not hold keep their environment value.
func (c *Config) ApplySecrets(ctx context.Context, sm SecretsManager) error {
	secrets, err := sm.GetSecrets(ctx, []string{
		SecretDBPassword, SecretRedisPassword, SecretImageAccessKey, SecretImageSecretKey,
	})
	if err != nil {
		return err
	}

	targets := map[string][]*string{
		SecretDBPassword:     {&c.Database.Password},
		SecretRedisPassword:  {&c.Redis.Password, &c.Asynq.RedisPassword},
		SecretImageAccessKey: {&c.AWS.AccessKeyID},
		SecretImageSecretKey: {&c.AWS.SecretAccessKey},
	}
	for key, fields := range targets {
		val, ok := secrets[key]
		if !ok {
			continue
		}
		for _, f := range fields {
			*f = val
		}
	}
	return nil
}

// GetDatabaseURL returns the formatted database connection string
func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns host:port for the cache connection
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// GetServerAddress returns the formatted server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "local"
}

func storageDriver(dev bool) string {
	if dev {
		return "local"
	}
	return "s3"
}

func parseQueues(queuesStr string) map[string]int {
	queues := make(map[string]int)
	for _, pair := range strings.Split(queuesStr, ",") {
		name, prio, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		priority, err := strconv.Atoi(strings.TrimSpace(prio))
		if err == nil {
			queues[strings.TrimSpace(name)] = priority
		}
	}
	if len(queues) == 0 {
		queues["default"] = 1
	}
	return queues
}
