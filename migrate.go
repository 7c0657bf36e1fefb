package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"saveit/internal/config"
	"saveit/internal/database"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg := config.Get()
			if cfg.Database.Driver == "sqlite" {
				if err := ensureDir(filepath.Dir(cfg.Database.Path)); err != nil {
					return fmt.Errorf("create data dir: %w", err)
				}
			}

			db, err := database.Init(cfg.Database)
			if err != nil {
				return fmt.Errorf("init database: %w", err)
			}
			defer database.Close(db)

			if err := database.AutoMigrate(db); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
			slog.Info("schema up to date", "driver", cfg.Database.Driver)
			return nil
		},
	}
}
