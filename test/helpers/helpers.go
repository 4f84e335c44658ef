// test/helpers/helpers.go
package helpers

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/greencycle-be/internal/adapters/db"
	"github.com/ammerola/greencycle-be/internal/core/domain"
	"github.com/ammerola/greencycle-be/internal/pkg/config"
)

// TestDB represents a test database instance
type TestDB struct {
	PgxPool  *pgxpool.Pool
	Database *db.Database
	Resource *dockertest.Resource
	Pool     *dockertest.Pool
	Config   *db.Config
}

// TestRedis represents a test Redis instance
type TestRedis struct {
	Client *redis.Client
	Server *miniredis.Miniredis
}

// TestLogger returns a test logger
func TestLogger() *slog.Logger {
	level := slog.LevelError
	if testing.Verbose() {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

// SetupTestDB starts a PostgreSQL container and applies the embedded migrations
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "Could not connect to Docker")

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=test_greencycle",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "Could not start PostgreSQL container")

	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Could not purge resource: %s", err)
		}
	})

	dbConfig := db.DefaultConfig()
	dbConfig.Port = resource.GetPort("5432/tcp")
	dbConfig.User = "test"
	dbConfig.Password = "test"
	dbConfig.Database = "test_greencycle"
	dbConfig.MaxConnections = 5
	dbConfig.MinConnections = 1
	dbConfig.EnableQueryLogging = testing.Verbose()

	var database *db.Database
	err = pool.Retry(func() error {
		var err error
		database, err = db.NewDatabase(context.Background(), dbConfig, TestLogger())
		return err
	})
	require.NoError(t, err, "Could not connect to PostgreSQL")
	t.Cleanup(database.Close)

	err = db.RunMigrationsWithRetry(context.Background(), &db.MigrationConfig{
		DatabaseURL: dbConfig.URL(),
	}, TestLogger(), 3)
	require.NoError(t, err, "Could not run migrations")

	return &TestDB{
		PgxPool:  database.Pool(),
		Database: database,
		Resource: resource,
		Pool:     pool,
		Config:   dbConfig,
	}
}

// SetupTestRedis creates an in-memory Redis instance for testing
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		client.Close()
	})

	return &TestRedis{Client: client, Server: mr}
}

// SetupMockDB creates a sqlmock-backed database/sql handle
func SetupMockDB(t *testing.T) (sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create mock DB")

	t.Cleanup(func() {
		conn.Close()
	})

	return mock, conn
}

// LoadTestConfig returns a development configuration suitable for tests
func LoadTestConfig() *config.Config {
	cfg := config.FromEnv("test")
	cfg.App.Name = "test-api"
	cfg.App.LogLevel = "debug"
	cfg.App.LogFormat = "text"
	cfg.Database.Name = "test_greencycle"
	cfg.Catalog.PageSize = 12
	cfg.Security.RateLimitRequests = 100
	cfg.Security.RateLimitDuration = time.Minute
	return cfg
}

// CreateTestItem creates a market listing with sensible defaults
func CreateTestItem(overrides ...func(*domain.Item)) *domain.Item {
	original := int64(120000)
	now := time.Now().UTC().Truncate(time.Microsecond)
	item := &domain.Item{
		ID:            uuid.New(),
		SellerID:      "seller-1",
		Title:         "아이패드 에어 4세대",
		Description:   "생활기스 조금 있어요. 충전기 포함",
		Category:      domain.CategoryElectronics,
		Kind:          domain.KindMarket,
		Price:         85000,
		OriginalPrice: &original,
		Status:        domain.StatusAvailable,
		DistanceKm:    1.2,
		Location:      "역삼동",
		Images:        []string{"https://images.greencycle.kr/items/ipad.jpg"},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	for _, override := range overrides {
		override(item)
	}
	return item
}

// CreateTestItems creates count listings spread over categories, prices and ages
func CreateTestItems(count int) []domain.Item {
	categories := []domain.Category{
		domain.CategoryElectronics,
		domain.CategoryFurniture,
		domain.CategoryClothing,
		domain.CategoryBooks,
		domain.CategorySports,
	}

	base := time.Now().UTC().Truncate(time.Microsecond)
	items := make([]domain.Item, count)
	for i := 0; i < count; i++ {
		items[i] = *CreateTestItem(func(item *domain.Item) {
			item.Title = fmt.Sprintf("테스트 상품 %d", i+1)
			item.Category = categories[i%len(categories)]
			item.Price = int64(10000 + i*5000)
			item.OriginalPrice = nil
			item.DistanceKm = float64(i%10) / 2
			item.CreatedAt = base.Add(-time.Duration(i) * time.Hour)
			item.UpdatedAt = item.CreatedAt
		})
	}
	return items
}

// TruncateAllTables truncates all tables in the test database
func TruncateAllTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	for _, table := range []string{"items"} {
		_, err := pool.Exec(context.Background(), fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		require.NoError(t, err, "Failed to truncate table: %s", table)
	}
}

// CreateTempFile writes content to a temporary file removed at cleanup
func CreateTempFile(t *testing.T, content []byte, extension string) string {
	t.Helper()

	file, err := os.CreateTemp(t.TempDir(), fmt.Sprintf("test-*%s", extension))
	require.NoError(t, err, "Failed to create temp file")

	_, err = file.Write(content)
	require.NoError(t, err, "Failed to write to temp file")
	require.NoError(t, file.Close())

	return file.Name()
}

// AssertEventuallyWithTimeout asserts that a condition is met within a timeout
func AssertEventuallyWithTimeout(t *testing.T, condition func() bool, timeout time.Duration, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Errorf("Condition not met within %v: %s", timeout, msg)
}
