package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOAuthClientRedirectURIMatch(t *testing.T) {
	client := &OAuthClient{
		RedirectURIs: "https://app.example.com/cb,https://app.example.com/alt",
	}

	assert.True(t, client.HasRedirectURI("https://app.example.com/cb"))
	assert.True(t, client.HasRedirectURI("https://app.example.com/alt"))
	// exact match only; trailing slash is a different URI
	assert.False(t, client.HasRedirectURI("https://app.example.com/cb/"))
	assert.False(t, client.HasRedirectURI("https://app.example.com"))
}

func TestOAuthClientScopeList(t *testing.T) {
	client := &OAuthClient{Scopes: "openid email profile"}
	assert.Equal(t, []string{"openid", "email", "profile"}, client.ScopeList())

	empty := &OAuthClient{}
	assert.Empty(t, empty.ScopeList())
	assert.Nil(t, empty.RedirectURIList())
}

func TestAuthRequestLifecycle(t *testing.T) {
	req := &AuthRequest{ExpiresAt: time.Now().Add(10 * time.Minute)}
	assert.False(t, req.IsExpired())
	assert.False(t, req.IsConsumed())

	now := time.Now()
	req.ConsumedAt = &now
	assert.True(t, req.IsConsumed())

	req.ExpiresAt = time.Now().Add(-time.Second)
	assert.True(t, req.IsExpired())
}

func TestRefreshTokenUsable(t *testing.T) {
	tok := &RefreshToken{ExpiresAt: time.Now().Add(time.Hour)}
	assert.True(t, tok.IsUsable())

	tok.Revoked = true
	assert.False(t, tok.IsUsable())

	expired := &RefreshToken{ExpiresAt: time.Now().Add(-time.Hour)}
	assert.False(t, expired.IsUsable())
}

func TestRateLimitWindows(t *testing.T) {
	now := time.Now()
	entry := &RateLimit{WindowResetAt: now.Add(time.Minute)}

	assert.False(t, entry.WindowExpired(now))
	assert.True(t, entry.WindowExpired(now.Add(2*time.Minute)))
	assert.False(t, entry.BlockActive(now))

	until := now.Add(15 * time.Minute)
	entry.IsBlocked = true
	entry.BlockedUntil = &until
	assert.True(t, entry.BlockActive(now))
	assert.False(t, entry.BlockActive(now.Add(16*time.Minute)))
}
