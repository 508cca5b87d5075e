package main

import (
	"github.com/spf13/cobra"

	"spendly/internal/cli"
	applog "spendly/internal/log"
	"spendly/internal/storage"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := storage.Migrate(cli.StorageConfig(appCfg)); err != nil {
				return err
			}
			logger.Info("Migrations applied", applog.FieldOperation, applog.OpMigrate, "db_driver", appCfg.DBDriver)
			return nil
		},
	}
}
