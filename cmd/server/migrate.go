package main

import (
	"github.com/spf13/cobra"

	"knowdex/internal/platform/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := database.New(cmd.Context(), cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer func() {
			if err := database.Close(db); err != nil {
				log.Warn().Err(err).Msg("close database failed")
			}
		}()
		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Info().Str("driver", cfg.Database.Driver).Msg("schema migrated")
		return nil
	},
}
