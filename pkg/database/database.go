package database

import (
	"fmt"

	"github.com/m7modfayez/sakr-sports/internal/model"
	"github.com/m7modfayez/sakr-sports/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

// InitDB opens the connection to the hosted Postgres and applies pool settings
func InitDB(config *config.Config) (*gorm.DB, error) {
	pgConfig := postgres.Config{
		DSN:                  config.DB.GetDSN(),
		PreferSimpleProtocol: true, // the hosted pooler runs in transaction mode
	}

	conn, err := gorm.Open(postgres.New(pgConfig), &gorm.Config{
		Logger: logger.Default.LogMode(config.DB.LogLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}

	sqlDB.SetMaxIdleConns(config.DB.MaxIdleConns)
	sqlDB.SetMaxOpenConns(config.DB.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(config.DB.ConnMaxLifetime)

	db = conn
	return conn, nil
}

// Migrate creates or updates the catalog tables
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("database is not initialized")
	}

	if err := conn.AutoMigrate(&model.Category{}, &model.Product{}); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	return nil
}

// GetDB returns the database instance opened by InitDB
func GetDB() *gorm.DB {
	return db
}

// Close releases the underlying connection pool
func Close() error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
