package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/elixpo/accounts/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types carried in the "type" claim
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Claims is the fixed payload shape for issued tokens. Provider is
// optional and omitted when empty rather than dynamically spread in.
type Claims struct {
	Subject  string
	Email    string
	Provider string
	Type     string
	JTI      string
	IssuedAt time.Time
	Expiry   time.Time
}

// Provider mints and verifies signed, expiring access and refresh
// tokens. Verification fails closed: any parse, signature, type, or
// expiry problem yields an error, never a partial payload.
type Provider struct {
	signer     Signer
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewProvider(cfg *config.Config, signer Signer) *Provider {
	return &Provider{
		signer:     signer,
		issuer:     cfg.BaseURL,
		accessTTL:  cfg.AccessTokenExpiration,
		refreshTTL: cfg.RefreshTokenExpiration,
	}
}

// AccessTTL returns the configured access token lifetime.
func (p *Provider) AccessTTL() time.Duration { return p.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (p *Provider) RefreshTTL() time.Duration { return p.refreshTTL }

// CreateAccessToken mints a short-lived access token. Provider may be
// empty for clients with no upstream identity.
func (p *Provider) CreateAccessToken(userID, email, provider string) (string, error) {
	return p.generateJWT(Claims{
		Subject:  userID,
		Email:    email,
		Provider: provider,
		Type:     TypeAccess,
		Expiry:   time.Now().Add(p.accessTTL),
	})
}

// CreateRefreshToken mints a long-lived refresh token. Refresh tokens
// carry no email to minimize blast radius if leaked into logs.
func (p *Provider) CreateRefreshToken(userID, provider string) (string, error) {
	return p.generateJWT(Claims{
		Subject:  userID,
		Provider: provider,
		Type:     TypeRefresh,
		Expiry:   time.Now().Add(p.refreshTTL),
	})
}

func (p *Provider) generateJWT(c Claims) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   c.Subject,
		"email": c.Email,
		"type":  c.Type,
		"iat":   now.Unix(),
		"exp":   c.Expiry.Unix(),
		"iss":   p.issuer,
		"jti":   uuid.New().String(),
	}
	if c.Provider != "" {
		claims["provider"] = c.Provider
	}

	token := jwt.NewWithClaims(p.signer.Method(), claims)
	tokenString, err := token.SignedString(p.signer.SignKey())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	return tokenString, nil
}

// Verify checks signature and expiry and returns the parsed claims.
func (p *Provider) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return p.signer.VerifyKey(), nil
	}, jwt.WithValidMethods([]string{p.signer.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claimsFromMap(mapClaims)
}

// VerifyAccess verifies the token and requires type "access".
func (p *Provider) VerifyAccess(tokenString string) (*Claims, error) {
	claims, err := p.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != TypeAccess {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// VerifyRefresh verifies the token and requires type "refresh".
func (p *Provider) VerifyRefresh(tokenString string) (*Claims, error) {
	claims, err := p.Verify(tokenString)
	if err != nil {
		if errors.Is(err, ErrExpiredToken) {
			return nil, ErrExpiredRefreshToken
		}
		return nil, ErrInvalidRefreshToken
	}
	if claims.Type != TypeRefresh {
		return nil, ErrInvalidRefreshToken
	}
	return claims, nil
}

func claimsFromMap(m jwt.MapClaims) (*Claims, error) {
	sub, _ := m["sub"].(string)
	if sub == "" {
		return nil, ErrInvalidToken
	}
	exp, ok := m["exp"].(float64)
	if !ok {
		return nil, ErrInvalidToken
	}
	iat, _ := m["iat"].(float64)
	email, _ := m["email"].(string)
	provider, _ := m["provider"].(string)
	tokenType, _ := m["type"].(string)
	jti, _ := m["jti"].(string)

	return &Claims{
		Subject:  sub,
		Email:    email,
		Provider: provider,
		Type:     tokenType,
		JTI:      jti,
		IssuedAt: time.Unix(int64(iat), 0),
		Expiry:   time.Unix(int64(exp), 0),
	}, nil
}
