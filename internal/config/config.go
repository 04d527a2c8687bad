package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Token signing modes. HMAC uses a shared secret and suits local
// development; RSA uses a PEM private key and suits deployed
// environments where verifiers only hold the public key.
const (
	SigningModeHMAC = "hmac"
	SigningModeRSA  = "rsa"
)

type Config struct {
	// Server settings
	ServerAddr   string
	BaseURL      string
	IsProduction bool

	// Token signing
	SigningMode      string
	JWTSecret        string
	RSAPrivateKeyPEM string

	// Token lifetimes
	AccessTokenExpiration  time.Duration
	RefreshTokenExpiration time.Duration
	EnableTokenRotation    bool
	// How long expired refresh-token rows are kept for reuse detection
	// before the cleanup sweep removes them.
	RevokedTokenRetention time.Duration

	// Authorization codes
	AuthCodeExpiration time.Duration

	// Client registry
	AllowedScopes []string

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string

	// Global API rate limiting
	RateLimitRedisEnabled  bool
	RateLimitRedisAddr     string
	RateLimitRedisPassword string
	RateLimitRedisDB       int
	GlobalRequestsPerMin   int

	// Audit logging
	EnableAuditLogging bool
	AuditLogBufferSize int
	AuditLogRetention  time.Duration

	// Metrics
	MetricsEnabled bool
	MetricsToken   string

	// Background cleanup
	CleanupInterval time.Duration
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	isProduction := getEnv("APP_ENV", "development") == "production"

	// Production defaults to asymmetric signing.
	defaultSigningMode := SigningModeHMAC
	if isProduction {
		defaultSigningMode = SigningModeRSA
	}

	driver := getEnv("DATABASE_DRIVER", "sqlite")
	defaultDSN := ""
	if driver == "sqlite" {
		defaultDSN = "accounts.db"
	}

	return &Config{
		ServerAddr:   getEnv("SERVER_ADDR", ":8080"),
		BaseURL:      getEnv("BASE_URL", "http://localhost:8080"),
		IsProduction: isProduction,

		SigningMode:      getEnv("SIGNING_MODE", defaultSigningMode),
		JWTSecret:        getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		RSAPrivateKeyPEM: getEnv("RSA_PRIVATE_KEY", ""),

		AccessTokenExpiration:  getEnvDuration("ACCESS_TOKEN_EXPIRATION", 15*time.Minute),
		RefreshTokenExpiration: getEnvDuration("REFRESH_TOKEN_EXPIRATION", 720*time.Hour),
		EnableTokenRotation:    getEnvBool("ENABLE_TOKEN_ROTATION", true),
		RevokedTokenRetention:  getEnvDuration("REVOKED_TOKEN_RETENTION", 30*24*time.Hour),

		AuthCodeExpiration: getEnvDuration("AUTH_CODE_EXPIRATION", 10*time.Minute),

		AllowedScopes: getEnvSlice("ALLOWED_SCOPES",
			[]string{"openid", "profile", "email", "offline_access"}),

		DatabaseDriver: driver,
		DatabaseDSN:    getEnv("DATABASE_DSN", defaultDSN),

		RateLimitRedisEnabled:  getEnvBool("RATE_LIMIT_REDIS_ENABLED", false),
		RateLimitRedisAddr:     getEnv("RATE_LIMIT_REDIS_ADDR", "localhost:6379"),
		RateLimitRedisPassword: getEnv("RATE_LIMIT_REDIS_PASSWORD", ""),
		RateLimitRedisDB:       getEnvInt("RATE_LIMIT_REDIS_DB", 0),
		GlobalRequestsPerMin:   getEnvInt("GLOBAL_REQUESTS_PER_MINUTE", 300),

		EnableAuditLogging: getEnvBool("ENABLE_AUDIT_LOGGING", true),
		AuditLogBufferSize: getEnvInt("AUDIT_LOG_BUFFER_SIZE", 1000),
		AuditLogRetention:  getEnvDuration("AUDIT_LOG_RETENTION", 90*24*time.Hour),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
		MetricsToken:   getEnv("METRICS_TOKEN", ""),

		CleanupInterval: getEnvDuration("CLEANUP_INTERVAL", time.Hour),
	}
}

// Validate catches configurations that would fail at first use.
func (c *Config) Validate() error {
	if c.SigningMode != SigningModeHMAC && c.SigningMode != SigningModeRSA {
		return fmt.Errorf("invalid SIGNING_MODE %q (want %q or %q)",
			c.SigningMode, SigningModeHMAC, SigningModeRSA)
	}
	if c.SigningMode == SigningModeHMAC && c.IsProduction &&
		c.JWTSecret == "dev-secret-change-in-production" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.DatabaseDriver != "sqlite" && c.DatabaseDriver != "postgres" {
		return fmt.Errorf("invalid DATABASE_DRIVER %q (want sqlite or postgres)", c.DatabaseDriver)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required for driver %q", c.DatabaseDriver)
	}
	if c.AccessTokenExpiration <= 0 || c.RefreshTokenExpiration <= 0 {
		return fmt.Errorf("token expirations must be positive")
	}
	if c.AuthCodeExpiration <= 0 {
		return fmt.Errorf("AUTH_CODE_EXPIRATION must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var n int
		if _, err := fmt.Sscanf(value, "%d", &n); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
