package main

import (
	"scanorder-backend/internal/config"
	"scanorder-backend/internal/database"
	"scanorder-backend/internal/logging"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(envFile)
		if err != nil {
			return err
		}
		logging.Setup(cfg.LogLevel, cfg.LogFormat)

		db, err := database.Open(cfg)
		if err != nil {
			return err
		}
		return database.Migrate(db)
	},
}
