package services

import (
	"testing"
	"time"

	"github.com/elixpo/accounts/internal/config"
	"github.com/elixpo/accounts/internal/store"
	"github.com/elixpo/accounts/internal/token"

	"github.com/stretchr/testify/require"
)

// setupTestStore creates a fresh in-memory store pinned to a single
// connection (each sqlite :memory: connection is its own database).
func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New("sqlite", ":memory:")
	require.NoError(t, err)
	sqlDB, err := s.DB().DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return s
}

func testConfig() *config.Config {
	return &config.Config{
		BaseURL:                "http://localhost:8080",
		SigningMode:            config.SigningModeHMAC,
		JWTSecret:              "test-secret",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 720 * time.Hour,
		AuthCodeExpiration:     10 * time.Minute,
		EnableTokenRotation:    true,
		AllowedScopes:          []string{"openid", "profile", "email", "offline_access"},
	}
}

func newTestTokenProvider(t *testing.T, cfg *config.Config) *token.Provider {
	t.Helper()
	signer, err := token.NewSigner(cfg)
	require.NoError(t, err)
	return token.NewProvider(cfg, signer)
}
