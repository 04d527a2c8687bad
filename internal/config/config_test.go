package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, SigningModeHMAC, cfg.SigningMode)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenExpiration)
	assert.Equal(t, 720*time.Hour, cfg.RefreshTokenExpiration)
	assert.Equal(t, 10*time.Minute, cfg.AuthCodeExpiration)
	assert.True(t, cfg.EnableTokenRotation)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, []string{"openid", "profile", "email", "offline_access"}, cfg.AllowedScopes)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9090")
	t.Setenv("SIGNING_MODE", "rsa")
	t.Setenv("ACCESS_TOKEN_EXPIRATION", "5m")
	t.Setenv("ENABLE_TOKEN_ROTATION", "false")
	t.Setenv("ALLOWED_SCOPES", "openid, email ,api:read")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.Equal(t, SigningModeRSA, cfg.SigningMode)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenExpiration)
	assert.False(t, cfg.EnableTokenRotation)
	assert.Equal(t, []string{"openid", "email", "api:read"}, cfg.AllowedScopes)
}

func TestLoadProductionDefaultsToRSA(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	cfg := Load()

	assert.True(t, cfg.IsProduction)
	assert.Equal(t, SigningModeRSA, cfg.SigningMode)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			SigningMode:            SigningModeHMAC,
			JWTSecret:              "test-secret",
			DatabaseDriver:         "sqlite",
			DatabaseDSN:            ":memory:",
			AccessTokenExpiration:  15 * time.Minute,
			RefreshTokenExpiration: 720 * time.Hour,
			AuthCodeExpiration:     10 * time.Minute,
		}
	}

	require.NoError(t, valid().Validate())

	t.Run("bad signing mode", func(t *testing.T) {
		cfg := valid()
		cfg.SigningMode = "none"
		assert.Error(t, cfg.Validate())
	})

	t.Run("default secret in production", func(t *testing.T) {
		cfg := valid()
		cfg.IsProduction = true
		cfg.JWTSecret = "dev-secret-change-in-production"
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := valid()
		cfg.DatabaseDriver = "mysql"
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing dsn", func(t *testing.T) {
		cfg := valid()
		cfg.DatabaseDSN = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive code expiration", func(t *testing.T) {
		cfg := valid()
		cfg.AuthCodeExpiration = 0
		assert.Error(t, cfg.Validate())
	})
}
