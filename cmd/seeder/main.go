// cmd/seeder/main.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ammerola/greencycle-be/internal/adapters/db"
	"github.com/ammerola/greencycle-be/internal/pkg/config"
	"github.com/ammerola/greencycle-be/internal/pkg/logger"
)

var (
	logLevel string
	cfg      *config.Config
	slogger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "seeder",
	Short: "Load GreenCycle catalogs and manage the database schema",
	Long: `Seeder loads demo or bulk catalogs into the listings table and runs the
embedded schema migrations.

Examples:
  seeder migrate up
  seeder seed --file seed/catalog.yaml --truncate
  seeder seed --file export.xlsx --dry-run`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l := logger.SetupLogger(logLevel, "text")

		loaded, err := config.Load(l.Logger)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
		slogger = l.Logger
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.AddCommand(seedCmd, migrateCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func openDatabase(ctx context.Context) (*db.Database, error) {
	dbConfig := db.ConfigFrom(cfg.Database)
	dbConfig.MaxConnections = 4
	dbConfig.MinConnections = 1
	return db.NewDatabase(ctx, dbConfig, slogger)
}
