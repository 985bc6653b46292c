package main

import (
	"github.com/m7modfayez/sakr-sports/pkg/database"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// migrateCmd creates or updates the catalog tables
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the catalog tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		appConfig, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync()

		conn, err := database.InitDB(appConfig)
		if err != nil {
			log.Error("Failed to initialize database", zap.Error(err))
			return err
		}
		defer database.Close()

		if err := database.Migrate(conn); err != nil {
			log.Error("Migration failed", zap.Error(err))
			return err
		}

		log.Info("Database migrated", zap.String("db_name", appConfig.DB.DBName))
		return nil
	},
}
