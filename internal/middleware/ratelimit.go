package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/elixpo/accounts/internal/metrics"
	"github.com/elixpo/accounts/internal/services"
	"github.com/elixpo/accounts/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterRedis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// EndpointRateLimit enforces a per-(ip, endpoint) rule backed by the
// shared store. Storage failures fail open inside the service; only an
// explicit deny produces a 429.
func EndpointRateLimit(
	rl *services.RateLimitService,
	rule services.RateLimitRule,
	m metrics.Recorder,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := rl.Check(c.Request.Context(), util.GetIPFromContext(c), rule)

		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		if !result.Allowed {
			m.RecordRateLimitBlock(rule.Endpoint)
			c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":             "invalid_request",
				"error_description": "Too many attempts. Try again later.",
				"retry_after":       int(result.RetryAfter.Seconds()),
			})
			return
		}

		c.Next()
	}
}

// GlobalRateLimitConfig configures the per-IP limiter fronting the whole
// API. The memory store only protects a single instance; multi-instance
// deployments set RedisEnabled.
type GlobalRateLimitConfig struct {
	RequestsPerMinute int
	RedisEnabled      bool
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
}

// NewGlobalRateLimiter builds the ulule/limiter middleware with a memory
// or redis store. The returned redis client is non-nil only for the
// redis store and must be closed on shutdown.
func NewGlobalRateLimiter(cfg GlobalRateLimitConfig) (gin.HandlerFunc, *redis.Client, error) {
	rate := limiter.Rate{
		Period: 1 * time.Minute,
		Limit:  int64(cfg.RequestsPerMinute),
	}

	var store limiter.Store
	var client *redis.Client

	if cfg.RedisEnabled {
		client = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}

		var err error
		store, err = limiterRedis.NewStoreWithOptions(client, limiter.StoreOptions{
			Prefix:          "ratelimit",
			CleanUpInterval: 5 * time.Minute,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create redis rate limit store: %w", err)
		}
	} else {
		store = memory.NewStore()
	}

	instance := limiter.New(store, rate)
	middleware := mgin.NewMiddleware(instance, mgin.WithLimitReachedHandler(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":             "invalid_request",
			"error_description": "Too many requests. Try again later.",
		})
	}))

	return middleware, client, nil
}
