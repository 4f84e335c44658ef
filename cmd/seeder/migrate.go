// cmd/seeder/migrate.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ammerola/greencycle-be/internal/adapters/db"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status]",
	Short:     "Apply, roll back or inspect the embedded schema migrations",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "status"},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		m, err := db.NewMigrator(&db.MigrationConfig{
			DatabaseURL: db.ConfigFrom(cfg.Database).URL(),
		}, slogger)
		if err != nil {
			return err
		}
		defer m.Close()

		switch args[0] {
		case "up":
			return m.Up(ctx)
		case "down":
			return m.Down(ctx)
		}

		status, err := m.Status(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "version %d (dirty: %t)\n", status.CurrentVersion, status.IsDirty)
		for _, a := range status.Applied {
			fmt.Fprintf(out, "  applied %d\n", a.Version)
		}
		for _, v := range status.Pending {
			fmt.Fprintf(out, "  pending %d\n", v)
		}
		return nil
	},
}
