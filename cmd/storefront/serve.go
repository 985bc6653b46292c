package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m7modfayez/sakr-sports/internal/middleware"
	"github.com/m7modfayez/sakr-sports/internal/repository"
	"github.com/m7modfayez/sakr-sports/internal/server"
	"github.com/m7modfayez/sakr-sports/pkg/config"
	"github.com/m7modfayez/sakr-sports/pkg/database"
	"github.com/m7modfayez/sakr-sports/pkg/jwtutil"
	"github.com/m7modfayez/sakr-sports/pkg/platform"
	"github.com/m7modfayez/sakr-sports/prometheus"
	"github.com/m7modfayez/sakr-sports/web"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var autoMigrate bool

// serveCmd starts the HTTP server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Run migrations before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	appConfig, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("Starting "+serviceName, appConfig.LogConfig()...)

	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	conn, err := database.InitDB(appConfig)
	if err != nil {
		log.Error("Failed to initialize database", zap.Error(err))
		return err
	}
	defer database.Close()
	log.Info("Database connection established")

	if autoMigrate {
		if err := database.Migrate(conn); err != nil {
			log.Error("Migration failed", zap.Error(err))
			return err
		}
		log.Info("Database migrated")
	}

	platformClient := platform.NewClientFromConfig(&appConfig.Platform, log.Named("platform"))
	if appConfig.Platform.URL == "" {
		log.Warn("PLATFORM_URL is not set; sign-in and image storage are unavailable")
	}

	products := repository.NewProductRepository(conn, appConfig.Tenant.AppID, platformClient)
	if redisClient := connectRedis(cmd.Context(), appConfig.Redis, log); redisClient != nil {
		defer redisClient.Close()
		products = repository.NewCachedProductRepository(products, redisClient, appConfig.Tenant.AppID, appConfig.Redis.TTL)
	}
	categories := repository.NewCategoryRepository(conn, appConfig.Tenant.AppID)

	renderer, err := web.NewRenderer()
	if err != nil {
		log.Error("Failed to parse templates", zap.Error(err))
		return err
	}

	store := middleware.NewCookieStore(appConfig.Session)
	gate := middleware.NewSessionGate(store, appConfig.Session.Name, tokenVerifier(appConfig, platformClient, log))

	e := server.New(server.Deps{
		DB:         conn,
		Products:   products,
		Categories: categories,
		Gate:       gate,
		Auth:       platformClient,
		Uploader:   platformClient,
		Store:      appConfig.Store,
		Renderer:   renderer,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("port", appConfig.Server.Port))
		if err := e.Start(":" + appConfig.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("Server error", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// tokenVerifier prefers local JWT verification and falls back to asking the auth API
func tokenVerifier(appConfig *config.Config, client *platform.Client, log *zap.Logger) middleware.TokenVerifier {
	jwt := jwtutil.NewJWTUtil(appConfig.JWT.SigningKey)
	if jwt.Enabled() {
		log.Info("Verifying sessions with the provider JWT secret")
		return middleware.JWTVerifier(jwt)
	}
	log.Info("PLATFORM_JWT_SECRET not set; verifying sessions through the auth API")
	return middleware.RemoteVerifier(client)
}

// connectRedis returns nil when caching is disabled or Redis is unreachable
func connectRedis(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis unreachable; product cache disabled", zap.String("addr", cfg.Addr), zap.Error(err))
		_ = client.Close()
		return nil
	}

	log.Info("Product cache enabled", zap.String("addr", cfg.Addr), zap.Duration("ttl", cfg.TTL))
	return client
}
