// cmd/seeder/seed.go
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/ammerola/greencycle-be/internal/adapters/catalog"
	"github.com/ammerola/greencycle-be/internal/adapters/db"
	redis_a "github.com/ammerola/greencycle-be/internal/adapters/redis_adapter"
	"github.com/ammerola/greencycle-be/internal/core/domain"
	"github.com/ammerola/greencycle-be/internal/core/ports"
	"github.com/ammerola/greencycle-be/internal/core/services"
)

var (
	seedFile     string
	seedTruncate bool
	seedDryRun   bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a YAML or xlsx catalog into the listings table",
	Long: `Loads every item of --file, validating the whole file before the first
insert. YAML seeds may give an "age" (30m, 2h, 3d, 2w) instead of created_at.
The cached catalog snapshot is dropped afterwards so listings show the new rows.`,
	RunE: runSeedCmd,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "Seed file (.yaml, .yml or .xlsx)")
	seedCmd.Flags().BoolVar(&seedTruncate, "truncate", false, "Remove every existing listing first")
	seedCmd.Flags().BoolVar(&seedDryRun, "dry-run", false, "Parse and validate only")
	_ = seedCmd.MarkFlagRequired("file")
}

func runSeedCmd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	items, err := catalog.LoadSeedFile(seedFile)
	if err != nil {
		return err
	}

	if seedDryRun {
		summarize(cmd.OutOrStdout(), items)
		return nil
	}

	database, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	repo := db.NewItemRepository(database, slogger)
	cache := redis_a.NewCache(redisClient, cfg.Redis.TTL, slogger)
	source := catalog.NewCachedSource(repo, cache, cfg.Catalog.SnapshotTTL, slogger)

	s := &seeder{
		repo:   repo,
		items:  services.NewItemService(repo, source, nil, slogger),
		logger: slogger,
	}
	if err := s.Seed(ctx, items, seedTruncate); err != nil {
		return err
	}

	summarize(cmd.OutOrStdout(), items)
	return nil
}

// seeder writes a parsed catalog through the item service
type seeder struct {
	repo   ports.ItemRepository
	items  ports.ItemService
	logger *slog.Logger
}

func (s *seeder) Seed(ctx context.Context, items []domain.Item, truncate bool) error {
	if truncate {
		before, err := s.repo.Count(ctx)
		if err != nil {
			return fmt.Errorf("failed to count items: %w", err)
		}
		if err := s.repo.Truncate(ctx); err != nil {
			return fmt.Errorf("failed to truncate items: %w", err)
		}
		s.logger.InfoContext(ctx, "removed existing items", slog.Int64("count", before))
	}

	if err := s.items.CreateBatch(ctx, items); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "catalog seeded", slog.Int("count", len(items)))
	return nil
}

func summarize(w io.Writer, items []domain.Item) {
	byKind := make(map[domain.Kind]int)
	for _, item := range items {
		byKind[item.Kind]++
	}
	fmt.Fprintf(w, "%d items (market %d, sharing %d)\n",
		len(items), byKind[domain.KindMarket], byKind[domain.KindSharing])
}
