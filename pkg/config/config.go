package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// ErrMissingAppID is returned when the tenant identifier is not configured
var ErrMissingAppID = errors.New("APP_ID is required")

// DBConfig holds database configuration
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// JWTConfig holds the secret the auth provider signs access tokens with
type JWTConfig struct {
	SigningKey string
}

// SessionConfig holds the dashboard session cookie settings
type SessionConfig struct {
	Secret string
	Name   string
	MaxAge int
	Secure bool
}

// PlatformConfig points at the hosted backend (auth and object storage)
type PlatformConfig struct {
	URL            string
	AnonKey        string
	ServiceRoleKey string
	Bucket         string
	Timeout        time.Duration
}

// TenantConfig holds the fixed tenant identifier of this deployment
type TenantConfig struct {
	AppID string
}

// RedisConfig holds the optional product cache settings.
// An empty Addr disables caching.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// StoreConfig holds storefront presentation settings
type StoreConfig struct {
	Name          string
	WhatsAppPhone string
	PublicURL     string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Prefix string
}

// Config holds all configuration
type Config struct {
	ServiceName string
	DB          DBConfig
	Server      ServerConfig
	JWT         JWTConfig
	Session     SessionConfig
	Platform    PlatformConfig
	Tenant      TenantConfig
	Redis       RedisConfig
	Store       StoreConfig
	Log         LogConfig
	Metrics     MetricsConfig
}

// Load loads configuration from the .env file and environment variables
func Load(serviceName string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	config := &Config{
		ServiceName: serviceName,
		DB: DBConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "password"),
			DBName:          getEnv("DB_NAME", "postgres"),
			SSLMode:         getEnv("DB_SSL_MODE", "require"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 50),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Error),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("APP_ENV", "development"),
		},
		JWT: JWTConfig{
			SigningKey: getEnv("PLATFORM_JWT_SECRET", ""),
		},
		Session: SessionConfig{
			Secret: getEnv("SESSION_SECRET", "change-me-session-secret"),
			Name:   getEnv("SESSION_NAME", "sakr_session"),
			MaxAge: getEnvAsInt("SESSION_MAX_AGE", 7*24*3600),
			Secure: getEnvAsBool("SESSION_SECURE", false),
		},
		Platform: PlatformConfig{
			URL:            getEnv("PLATFORM_URL", ""),
			AnonKey:        getEnv("PLATFORM_ANON_KEY", ""),
			ServiceRoleKey: getEnv("PLATFORM_SERVICE_ROLE_KEY", ""),
			Bucket:         getEnv("PLATFORM_BUCKET", "product-images"),
			Timeout:        getEnvAsDuration("PLATFORM_TIMEOUT", 10*time.Second),
		},
		Tenant: TenantConfig{
			AppID: getEnv("APP_ID", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      getEnvAsDuration("REDIS_TTL", 10*time.Minute),
		},
		Store: StoreConfig{
			Name:          getEnv("STORE_NAME", "Sakr Sports"),
			WhatsAppPhone: getEnv("STORE_WHATSAPP_PHONE", ""),
			PublicURL:     getEnv("STORE_PUBLIC_URL", ""),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", "storefront"),
		},
	}

	if config.Tenant.AppID == "" {
		return nil, ErrMissingAppID
	}

	return config, nil
}

// IsProduction reports whether the service runs with APP_ENV=production
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// LogConfig returns the configuration as a zap logger-friendly format
func (c *Config) LogConfig() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("app_id", c.Tenant.AppID),
		zap.String("db_host", c.DB.Host),
		zap.String("db_name", c.DB.DBName),
		zap.String("platform_url", c.Platform.URL),
		zap.Bool("cache_enabled", c.Redis.Addr != ""),
		zap.String("server_port", c.Server.Port),
	}
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as durations
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as log levels
func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	valueStr := getEnv(key, "")
	switch valueStr {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}
