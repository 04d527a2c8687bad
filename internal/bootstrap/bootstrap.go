package bootstrap

import (
	"fmt"
	"net/http"

	"github.com/elixpo/accounts/internal/config"
	"github.com/elixpo/accounts/internal/metrics"
	"github.com/elixpo/accounts/internal/services"
	"github.com/elixpo/accounts/internal/store"
	"github.com/elixpo/accounts/internal/token"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config

	// Core infrastructure
	DB                   *store.Store
	TokenProvider        *token.Provider
	MetricsRecorder      metrics.Recorder
	RateLimitRedisClient *redis.Client

	// Services
	AuditService         *services.AuditService
	UserService          *services.UserService
	TokenService         *services.TokenService
	ClientService        *services.ClientService
	AuthorizationService *services.AuthorizationService
	RateLimitService     *services.RateLimitService

	// HTTP
	Handlers handlerSet
	Router   *gin.Engine
	Server   *http.Server
}

// Run initializes and starts the application
func Run(cfg *config.Config) error {
	app := &Application{Config: cfg}

	// Phase 1: Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Phase 2: Initialize infrastructure
	if err := app.initializeInfrastructure(); err != nil {
		return err
	}

	// Phase 3: Initialize business layer
	app.initializeBusinessLayer()

	// Phase 4: Initialize HTTP layer
	if err := app.initializeHTTPLayer(); err != nil {
		return err
	}

	// Phase 5: Start server with graceful shutdown
	app.startWithGracefulShutdown()

	return nil
}

// initializeInfrastructure sets up the database, token signer, and metrics
func (app *Application) initializeInfrastructure() error {
	var err error

	app.DB, err = store.New(app.Config.DatabaseDriver, app.Config.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}

	signer, err := token.NewSigner(app.Config)
	if err != nil {
		return fmt.Errorf("failed to initialize token signer: %w", err)
	}
	app.TokenProvider = token.NewProvider(app.Config, signer)

	app.MetricsRecorder = metrics.Init(app.Config.MetricsEnabled)
	return nil
}

// initializeBusinessLayer sets up services
func (app *Application) initializeBusinessLayer() {
	// Audit service first: every other service logs through it
	app.AuditService = services.NewAuditService(
		app.DB,
		app.Config.EnableAuditLogging,
		app.Config.AuditLogBufferSize,
	)

	app.UserService = services.NewUserService(app.DB, app.AuditService)
	app.TokenService = services.NewTokenService(app.DB, app.TokenProvider, app.AuditService, app.Config)
	app.ClientService = services.NewClientService(app.DB, app.Config.AllowedScopes, app.Config.IsProduction)
	app.AuthorizationService = services.NewAuthorizationService(
		app.DB, app.Config, app.ClientService, app.AuditService,
	)
	app.RateLimitService = services.NewRateLimitService(app.DB, app.AuditService)
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() error {
	app.Handlers = initializeHandlers(app)

	router, redisClient, err := setupRouter(app)
	if err != nil {
		return err
	}
	app.Router = router
	app.RateLimitRedisClient = redisClient

	app.Server = createHTTPServer(app.Config, app.Router)
	return nil
}

// startWithGracefulShutdown starts the server and handles graceful shutdown
func (app *Application) startWithGracefulShutdown() {
	m := graceful.NewManager()

	addServerRunningJob(m, app.Server)
	addServerShutdownJob(m, app.Server)
	addRedisClientShutdownJob(m, app.RateLimitRedisClient)
	addAuditServiceShutdownJob(m, app.AuditService)
	addCleanupJob(m, app)

	<-m.Done()
}
