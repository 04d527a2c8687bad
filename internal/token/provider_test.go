package token

import (
	"testing"
	"time"

	"github.com/elixpo/accounts/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, mode string) *Provider {
	t.Helper()
	cfg := &config.Config{
		BaseURL:                "http://localhost:8080",
		SigningMode:            mode,
		JWTSecret:              "test-secret",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 720 * time.Hour,
	}
	signer, err := NewSigner(cfg)
	require.NoError(t, err)
	return NewProvider(cfg, signer)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	p := newTestProvider(t, config.SigningModeHMAC)

	tokenString, err := p.CreateAccessToken("user-1", "user@example.com", "google")
	require.NoError(t, err)

	claims, err := p.VerifyAccess(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "google", claims.Provider)
	assert.Equal(t, TypeAccess, claims.Type)
	assert.NotEmpty(t, claims.JTI)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.Expiry, 5*time.Second)
}

func TestProviderClaimOmittedWhenEmpty(t *testing.T) {
	p := newTestProvider(t, config.SigningModeHMAC)

	tokenString, err := p.CreateAccessToken("user-1", "user@example.com", "")
	require.NoError(t, err)

	parsed, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	require.NoError(t, err)
	_, present := parsed.Claims.(jwt.MapClaims)["provider"]
	assert.False(t, present)
}

func TestRefreshTokenCarriesNoEmail(t *testing.T) {
	p := newTestProvider(t, config.SigningModeHMAC)

	tokenString, err := p.CreateRefreshToken("user-1", "email")
	require.NoError(t, err)

	claims, err := p.VerifyRefresh(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Empty(t, claims.Email)
	assert.Equal(t, TypeRefresh, claims.Type)
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	p := newTestProvider(t, config.SigningModeHMAC)

	tokenString, err := p.CreateAccessToken("user-1", "user@example.com", "")
	require.NoError(t, err)

	// flip one character of the signature
	tampered := []byte(tokenString)
	last := len(tampered) - 1
	if tampered[last] == 'A' {
		tampered[last] = 'B'
	} else {
		tampered[last] = 'A'
	}

	_, err = p.VerifyAccess(string(tampered))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongTokenType(t *testing.T) {
	p := newTestProvider(t, config.SigningModeHMAC)

	refresh, err := p.CreateRefreshToken("user-1", "")
	require.NoError(t, err)
	_, err = p.VerifyAccess(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)

	access, err := p.CreateAccessToken("user-1", "e@x.test", "")
	require.NoError(t, err)
	_, err = p.VerifyRefresh(access)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestVerifyRejectsMalformedInput(t *testing.T) {
	p := newTestProvider(t, config.SigningModeHMAC)

	for _, input := range []string{"", "garbage", "a.b.c"} {
		_, err := p.Verify(input)
		assert.Error(t, err, "input=%q", input)
	}
}

func TestRSASignerRoundTrip(t *testing.T) {
	p := newTestProvider(t, config.SigningModeRSA)

	tokenString, err := p.CreateAccessToken("user-1", "user@example.com", "")
	require.NoError(t, err)

	claims, err := p.VerifyAccess(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestAlgorithmMismatchFailsVerification(t *testing.T) {
	hmacProvider := newTestProvider(t, config.SigningModeHMAC)
	rsaProvider := newTestProvider(t, config.SigningModeRSA)

	hmacToken, err := hmacProvider.CreateAccessToken("user-1", "e@x.test", "")
	require.NoError(t, err)
	rsaToken, err := rsaProvider.CreateAccessToken("user-1", "e@x.test", "")
	require.NoError(t, err)

	// Neither side falls back to the other's algorithm.
	_, err = rsaProvider.Verify(hmacToken)
	assert.Error(t, err)
	_, err = hmacProvider.Verify(rsaToken)
	assert.Error(t, err)
}

func TestRSAProductionRequiresConfiguredKey(t *testing.T) {
	cfg := &config.Config{
		SigningMode:  config.SigningModeRSA,
		IsProduction: true,
	}
	_, err := NewSigner(cfg)
	assert.ErrorIs(t, err, ErrPrivateKeyInvalid)
}

func TestExpiredTokenFailsClosed(t *testing.T) {
	cfg := &config.Config{
		BaseURL:                "http://localhost:8080",
		SigningMode:            config.SigningModeHMAC,
		JWTSecret:              "test-secret",
		AccessTokenExpiration:  -time.Minute,
		RefreshTokenExpiration: -time.Minute,
	}
	signer, err := NewSigner(cfg)
	require.NoError(t, err)
	p := NewProvider(cfg, signer)

	access, err := p.CreateAccessToken("user-1", "e@x.test", "")
	require.NoError(t, err)
	_, err = p.Verify(access)
	assert.ErrorIs(t, err, ErrExpiredToken)

	refresh, err := p.CreateRefreshToken("user-1", "")
	require.NoError(t, err)
	_, err = p.VerifyRefresh(refresh)
	assert.ErrorIs(t, err, ErrExpiredRefreshToken)
}
