package bootstrap

import (
	"log"

	"github.com/elixpo/accounts/internal/config"
	"github.com/elixpo/accounts/internal/metrics"
	"github.com/elixpo/accounts/internal/middleware"
	"github.com/elixpo/accounts/internal/services"
	"github.com/elixpo/accounts/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// setupRouter configures the Gin router with all routes and middleware.
// Returns the redis client backing the global limiter when enabled.
func setupRouter(app *Application) (*gin.Engine, *redis.Client, error) {
	cfg := app.Config
	setupGinMode(cfg)
	r := gin.New()

	r.Use(metrics.HTTPMetricsMiddleware(app.MetricsRecorder))
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(util.IPMiddleware())

	// Global per-IP limiter fronting the whole API
	globalLimiter, redisClient, err := middleware.NewGlobalRateLimiter(middleware.GlobalRateLimitConfig{
		RequestsPerMinute: cfg.GlobalRequestsPerMin,
		RedisEnabled:      cfg.RateLimitRedisEnabled,
		RedisAddr:         cfg.RateLimitRedisAddr,
		RedisPassword:     cfg.RateLimitRedisPassword,
		RedisDB:           cfg.RateLimitRedisDB,
	})
	if err != nil {
		return nil, nil, err
	}
	r.Use(globalLimiter)

	r.GET("/health", app.Handlers.health.Health)
	setupMetricsEndpoint(r, app)

	// Store-backed per-endpoint limiters with escalating blocks
	loginLimiter := middleware.EndpointRateLimit(
		app.RateLimitService, services.RuleLogin, app.MetricsRecorder,
	)
	registerLimiter := middleware.EndpointRateLimit(
		app.RateLimitService, services.RuleRegister, app.MetricsRecorder,
	)

	// Account session endpoints
	r.POST("/register", registerLimiter, app.Handlers.auth.Register)
	r.POST("/login", loginLimiter, app.Handlers.auth.Login)
	r.POST("/logout", app.Handlers.auth.Logout)

	// Authorization code flow
	r.GET("/authorize", app.Handlers.authorization.Authorize)
	r.POST("/authorize", app.Handlers.authorization.Consent)

	// Token endpoints (server-to-server)
	r.POST("/token", app.Handlers.token.Token)
	r.POST("/revoke", app.Handlers.token.Revoke)

	// Token verification for relying services
	r.GET("/sso/verify", app.Handlers.sso.Verify)
	r.POST("/sso/verify", app.Handlers.sso.Verify)

	// Client registration management
	clients := r.Group("/oauth-clients")
	{
		clients.POST("", app.Handlers.client.Create)
		clients.GET("/:client_id", app.Handlers.client.Get)
		clients.PUT("/:client_id", app.Handlers.client.Update)
		clients.DELETE("/:client_id", app.Handlers.client.Deactivate)
		clients.POST("/:client_id/rotate-secret", app.Handlers.client.RotateSecret)
	}

	logServerStartup(cfg)
	return r, redisClient, nil
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, app *Application) {
	cfg := app.Config
	switch {
	case !cfg.MetricsEnabled:
		log.Printf("Prometheus metrics disabled")
	case cfg.MetricsToken != "":
		log.Printf("Prometheus metrics enabled at /metrics with Bearer token authentication")
		r.GET("/metrics", middleware.MetricsAuth(cfg.MetricsToken), gin.WrapH(promhttp.Handler()))
	default:
		log.Printf("Prometheus metrics enabled at /metrics (no authentication)")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// setupGinMode sets Gin mode based on environment configuration
func setupGinMode(cfg *config.Config) {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
}

func logServerStartup(cfg *config.Config) {
	log.Printf("Signing mode: %s", cfg.SigningMode)
	log.Printf("Authorization server starting on %s", cfg.ServerAddr)
	log.Printf("Issuer: %s", cfg.BaseURL)
}
