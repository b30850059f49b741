package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/movesmart/service-route/internal/config"
	"github.com/movesmart/service-route/internal/platform/database"
	"github.com/movesmart/service-route/internal/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Storage != config.StoragePostgres {
			return errors.New("migrate requires the postgres storage driver")
		}
		return database.RunMigrations(cfg.DBConfig.DatabaseURL(), repository.Migrations, repository.MigrationsDir, log)
	},
}
