package main

import (
	"fmt"
	"os"

	"github.com/m7modfayez/sakr-sports/pkg/config"
	"github.com/m7modfayez/sakr-sports/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const serviceName = "storefront"

// rootCmd runs the web server when no subcommand is given
var rootCmd = &cobra.Command{
	Use:   serviceName,
	Short: "Sakr Sports storefront and admin dashboard",
	Long: `Serves the public storefront pages, the admin dashboard and the
products/categories JSON API on top of the hosted Postgres database.

Available subcommands:
  serve   - Start the HTTP server (default)
  migrate - Create or update the catalog tables and exit`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL")
	rootCmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Run migrations before serving")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

var logLevel string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap loads configuration and initializes the global logger
func bootstrap() (*config.Config, *zap.Logger, error) {
	appConfig, err := config.Load(serviceName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		appConfig.Log.Level = logLevel
	}

	if err := logger.InitLogger(&logger.LogConfig{
		Level:       appConfig.Log.Level,
		Environment: appConfig.Server.Env,
		ServiceName: appConfig.ServiceName,
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return appConfig, logger.GetLogger(), nil
}
