package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/avstrong/studio/internal/app"
	"github.com/avstrong/studio/internal/config"
	"github.com/avstrong/studio/internal/storage/sqlite"
)

func withSQLite(fn func(db *sqlite.DB) error) error {
	cfg, l, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	if cfg.Storage.Driver != config.DriverSQLite {
		return fmt.Errorf("migrations need the %q storage driver, configured %q", config.DriverSQLite, cfg.Storage.Driver)
	}

	db, err := app.OpenSQLite(cfg, l)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(db)
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSQLite(func(db *sqlite.DB) error {
				return db.Migrate()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSQLite(func(db *sqlite.DB) error {
				status, err := db.MigrationStatus()
				if err != nil {
					return err
				}

				fmt.Printf("Current version: %d\n", status.CurrentVersion)
				fmt.Printf("Latest version:  %d\n", status.LatestVersion)
				fmt.Printf("Pending:         %v\n", status.Pending)

				if status.Dirty {
					fmt.Println("Warning: schema is dirty, a migration failed halfway.")
				}

				return nil
			})
		},
	})

	return cmd
}
