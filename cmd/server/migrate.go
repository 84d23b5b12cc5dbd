package main

import (
	"errors"

	"github.com/spf13/cobra"

	"bondbook/internal/platform/logger"
	"bondbook/internal/platform/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Database.URL == "" {
			return errors.New("database.url is required to migrate")
		}
		log := logger.New(cfg.LogLevel)
		if err := postgres.Migrate(cfg.Database.URL); err != nil {
			return err
		}
		log.InfoContext(cmd.Context(), "migrations applied")
		return nil
	},
}
