package bootstrap

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/elixpo/accounts/internal/config"
	"github.com/elixpo/accounts/internal/services"

	"github.com/appleboy/graceful"
	"github.com/redis/go-redis/v9"
)

// createHTTPServer creates the HTTP server instance
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// addServerRunningJob adds the HTTP server running job
func addServerRunningJob(m *graceful.Manager, srv *http.Server) {
	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()
		<-ctx.Done()
		return nil
	})
}

// addServerShutdownJob adds HTTP server shutdown handler
func addServerShutdownJob(m *graceful.Manager, srv *http.Server) {
	m.AddShutdownJob(func() error {
		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
			return err
		}

		log.Println("Server exited")
		return nil
	})
}

// addRedisClientShutdownJob adds Redis client shutdown handler
func addRedisClientShutdownJob(m *graceful.Manager, redisClient *redis.Client) {
	if redisClient == nil {
		return
	}

	m.AddShutdownJob(func() error {
		log.Println("Closing Redis connection...")
		if err := redisClient.Close(); err != nil {
			log.Printf("Error closing Redis client: %v", err)
			return err
		}
		log.Println("Redis connection closed")
		return nil
	})
}

// addAuditServiceShutdownJob drains buffered audit entries on shutdown
func addAuditServiceShutdownJob(m *graceful.Manager, auditService *services.AuditService) {
	m.AddShutdownJob(func() error {
		log.Println("Shutting down audit service...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := auditService.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down audit service: %v", err)
			return err
		}
		return nil
	})
}

// addCleanupJob runs the periodic storage sweeps: expired authorization
// codes, refresh tokens past retention, stale rate-limit rows, and old
// audit logs.
func addCleanupJob(m *graceful.Manager, app *Application) {
	interval := app.Config.CleanupInterval
	if interval <= 0 {
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		// Sweep immediately on startup
		runCleanup(app)

		for {
			select {
			case <-ticker.C:
				runCleanup(app)
			case <-ctx.Done():
				return nil
			}
		}
	})
}

func runCleanup(app *Application) {
	if err := app.AuthorizationService.CleanupExpired(); err != nil {
		log.Printf("[Cleanup] expired authorization codes: %v", err)
	}
	if err := app.TokenService.CleanupExpired(app.Config.RevokedTokenRetention); err != nil {
		log.Printf("[Cleanup] expired refresh tokens: %v", err)
	}
	if err := app.RateLimitService.CleanupStale(); err != nil {
		log.Printf("[Cleanup] stale rate limits: %v", err)
	}
	if app.Config.EnableAuditLogging && app.Config.AuditLogRetention > 0 {
		if err := app.AuditService.CleanupOldLogs(app.Config.AuditLogRetention); err != nil {
			log.Printf("[Cleanup] old audit logs: %v", err)
		}
	}
}
