// Command migrate applies the amiaudit schema to the configured database.
package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/amiaudit/internal/config"
	"github.com/pratik-mahalle/amiaudit/internal/pkg/logger"
	"github.com/pratik-mahalle/amiaudit/internal/repository/postgres"
	"github.com/pratik-mahalle/amiaudit/migrations"
)

func main() {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the amiaudit database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(cfg *config.Config, db *sql.DB, log *logger.Logger) error {
				applied, err := postgres.RunMigrations(db, cfg.Database.Driver, migrations.GetFS(), log)
				if err != nil {
					return fmt.Errorf("migration failed after %d applied: %w", applied, err)
				}
				if applied == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Database is up to date")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s)\n", applied)
				return nil
			})
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "List migrations that have not been applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(_ *config.Config, db *sql.DB, _ *logger.Logger) error {
				pending, err := postgres.PendingMigrations(db, migrations.GetFS())
				if err != nil {
					return err
				}
				if len(pending) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Database is up to date")
					return nil
				}
				for _, name := range pending {
					fmt.Fprintln(cmd.OutOrStdout(), "pending", name)
				}
				return nil
			})
		},
	}

	root.AddCommand(up, status)
	// a bare "migrate" keeps applying migrations
	root.RunE = up.RunE

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func withDB(fn func(*config.Config, *sql.DB, *logger.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}).WithComponent("migrate")

	db, err := postgres.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	return fn(cfg, db, log)
}
