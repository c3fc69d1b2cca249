package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"expensetracker/internal/config"
	"expensetracker/internal/database"
	"expensetracker/internal/gateway"
	"expensetracker/internal/handlers"
	"expensetracker/internal/logger"
	"expensetracker/internal/middleware"
	"expensetracker/internal/notify"
	"expensetracker/internal/store"
	"expensetracker/internal/workspace"

	_ "expensetracker/internal/docs" // Import swagger docs
)

// @title           Expense Tracker API
// @version         1.0
// @description     Personal expense tracking: a monthly budget, categorized expenses, statistics and spreadsheet or PDF exports.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token returned by sign-in.

const shutdownTimeout = 10 * time.Second

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	connector, closeConnector, err := newConnector(appConfig)
	if err != nil {
		return err
	}
	defer closeConnector()

	tokens, err := newTokenStore(ctx, appConfig)
	if err != nil {
		return err
	}

	alertPolicy, err := store.ParseAlertPolicy(appConfig.BudgetAlertPolicy)
	if err != nil {
		return err
	}

	opts := workspace.Options{
		Size:               appConfig.WorkspaceCacheSize,
		TTL:                appConfig.WorkspaceTTL,
		NotificationBuffer: appConfig.NotificationBuffer,
		AlertPolicy:        alertPolicy,
	}
	if appConfig.AMQPURL != "" {
		client, err := notify.NewAMQPClient(appConfig.AMQPURL, appConfig.AMQPExchange)
		if err != nil {
			return fmt.Errorf("failed to connect to message broker: %w", err)
		}
		defer func() {
			if err := client.Close(); err != nil {
				log.Warnf("message broker close error: %v", err)
			}
		}()
		events := notify.NewEventPublisher(client, notify.DefaultEventBuffer)
		defer func() {
			drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := events.Close(drainCtx); err != nil {
				log.Warnf("event publisher close error: %v", err)
			}
		}()
		opts.Events = events
		log.Infof("Publishing events to exchange %s", appConfig.AMQPExchange)
	}

	registry := workspace.NewRegistry(connector, tokens, opts)
	defer registry.Close()

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(appConfig.CORSOrigins))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "workspaces": registry.Len()})
	})

	// API v1 group
	v1 := router.Group("/api/v1")
	handlers.RegisterRoutes(v1, registry, handlers.NewHandlers(appConfig.CORSOrigins))

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting expense tracker server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// newConnector opens the configured remote data gateway. The returned func
// releases whatever the gateway holds.
func newConnector(appConfig *config.Config) (gateway.Connector, func(), error) {
	log := logger.Get()

	if appConfig.GatewayBackend == config.GatewaySupabase {
		log.Infof("Using Supabase gateway at %s", appConfig.SupabaseURL)
		client := &http.Client{Timeout: appConfig.GatewayTimeout}
		return gateway.NewSupabaseBackend(appConfig.SupabaseURL, appConfig.SupabaseAnonKey, client), func() {}, nil
	}

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database manager: %w", err)
	}
	if err := dbManager.RunMigrations(); err != nil {
		_ = dbManager.Close()
		return nil, nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	backend := gateway.NewDatabaseBackend(dbManager.DB(), gateway.TokenConfig{
		Secret: appConfig.JWTSecret,
		Expiry: appConfig.JWTExpirationDur,
	})
	return backend, func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}, nil
}

// newTokenStore keeps session tokens in Redis when REDIS_ADDR is set so that
// sessions survive restarts, and in memory otherwise.
func newTokenStore(ctx context.Context, appConfig *config.Config) (workspace.TokenStore, error) {
	if appConfig.RedisAddr == "" {
		return workspace.NewMemoryTokenStore(), nil
	}
	rdb, err := workspace.ConnectRedis(ctx, appConfig.RedisAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Get().Infof("Session tokens stored in redis at %s", appConfig.RedisAddr)
	return workspace.NewRedisTokenStore(rdb, appConfig.JWTExpirationDur), nil
}
