package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/elixpo/accounts/internal/config"
	"github.com/elixpo/accounts/internal/models"
	"github.com/elixpo/accounts/internal/store"
	"github.com/elixpo/accounts/internal/token"
	"github.com/elixpo/accounts/internal/util"

	"github.com/google/uuid"
)

// TokenPair is the result of an issuance: a short-lived access token and
// a long-lived refresh token whose hash is persisted for revocation.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // access token lifetime in seconds
}

// TokenService issues and refreshes token pairs. Signed refresh tokens
// are only trusted together with their unrevoked persisted record;
// the signature alone cannot be recalled before expiry.
type TokenService struct {
	store    *store.Store
	provider *token.Provider
	audit    *AuditService
	rotation bool
}

func NewTokenService(
	s *store.Store,
	provider *token.Provider,
	audit *AuditService,
	cfg *config.Config,
) *TokenService {
	return &TokenService{
		store:    s,
		provider: provider,
		audit:    audit,
		rotation: cfg.EnableTokenRotation,
	}
}

// IssueTokenPair mints an access/refresh pair for a user and persists
// the refresh token's hash. clientID is empty for first-party sessions.
func (s *TokenService) IssueTokenPair(
	ctx context.Context,
	userID, email, provider, clientID string,
) (*TokenPair, error) {
	accessToken, err := s.provider.CreateAccessToken(userID, email, provider)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.provider.CreateRefreshToken(userID, provider)
	if err != nil {
		return nil, err
	}

	record := &models.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    userID,
		ClientID:  clientID,
		TokenHash: util.SHA256Hex(refreshToken),
		ExpiresAt: time.Now().Add(s.provider.RefreshTTL()),
	}
	if err := s.store.CreateRefreshToken(record); err != nil {
		return nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}

	if s.audit != nil {
		s.audit.Log(ctx, AuditEntry{
			EventType: models.EventAccessTokenIssued,
			UserID:    userID,
			Provider:  provider,
			Details:   models.AuditDetails{"client_id": clientID},
		})
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.provider.AccessTTL().Seconds()),
	}, nil
}

// Refresh exchanges a refresh token for a new access token. With
// rotation enabled the old record is revoked and a replacement persisted
// in one transaction, so the old token never outlives its successor.
func (s *TokenService) Refresh(ctx context.Context, refreshToken, clientID string) (*TokenPair, error) {
	claims, err := s.provider.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	record, err := s.store.GetRefreshTokenByHash(util.SHA256Hex(refreshToken))
	if err != nil {
		return nil, token.ErrInvalidRefreshToken
	}
	if record.Revoked {
		// Reuse of a revoked token is a strong signal of theft.
		if s.audit != nil {
			s.audit.Log(ctx, AuditEntry{
				EventType: models.EventRefreshTokenReuseAfterRevocation,
				Status:    models.StatusFailure,
				UserID:    record.UserID,
				Details:   models.AuditDetails{"client_id": record.ClientID},
			})
		}
		return nil, ErrRefreshTokenRevoked
	}
	if record.IsExpired() {
		return nil, token.ErrExpiredRefreshToken
	}
	if clientID != "" && record.ClientID != "" && record.ClientID != clientID {
		return nil, token.ErrInvalidRefreshToken
	}

	user, err := s.store.GetUserByID(claims.Subject)
	if err != nil || !user.IsActive {
		return nil, token.ErrInvalidRefreshToken
	}

	accessToken, err := s.provider.CreateAccessToken(user.ID, user.Email, claims.Provider)
	if err != nil {
		return nil, err
	}

	pair := &TokenPair{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.provider.AccessTTL().Seconds()),
	}

	if s.rotation {
		newRefresh, err := s.provider.CreateRefreshToken(user.ID, claims.Provider)
		if err != nil {
			return nil, err
		}
		replacement := &models.RefreshToken{
			ID:        uuid.New().String(),
			UserID:    user.ID,
			ClientID:  record.ClientID,
			TokenHash: util.SHA256Hex(newRefresh),
			ExpiresAt: time.Now().Add(s.provider.RefreshTTL()),
		}
		if err := s.store.RotateRefreshToken(record.ID, replacement); err != nil {
			if errors.Is(err, store.ErrTokenAlreadyRevoked) {
				return nil, ErrRefreshTokenRevoked
			}
			return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
		}
		pair.RefreshToken = newRefresh
	}

	if s.audit != nil {
		s.audit.Log(ctx, AuditEntry{
			EventType: models.EventTokenRefreshed,
			UserID:    user.ID,
			Details:   models.AuditDetails{"client_id": record.ClientID, "rotated": s.rotation},
		})
	}

	return pair, nil
}

// IssueClientCredentials mints an access token for a service client with
// no user context. The subject is synthetic and never a user ID; no
// refresh token is issued.
func (s *TokenService) IssueClientCredentials(ctx context.Context, clientID string) (*TokenPair, error) {
	accessToken, err := s.provider.CreateAccessToken("client:"+clientID, "", "")
	if err != nil {
		return nil, err
	}

	if s.audit != nil {
		s.audit.Log(ctx, AuditEntry{
			EventType: models.EventClientCredentialsIssued,
			Details:   models.AuditDetails{"client_id": clientID},
		})
	}

	return &TokenPair{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.provider.AccessTTL().Seconds()),
	}, nil
}

// VerifyAccess validates an access token and returns its claims.
func (s *TokenService) VerifyAccess(tokenString string) (*token.Claims, error) {
	return s.provider.VerifyAccess(tokenString)
}

// Revoke marks the refresh token's persisted record revoked. Unknown
// tokens are a no-op per RFC 7009; the caller still reports success.
func (s *TokenService) Revoke(ctx context.Context, refreshToken string) error {
	if err := s.store.RevokeRefreshTokenByHash(util.SHA256Hex(refreshToken)); err != nil {
		return err
	}
	if s.audit != nil {
		s.audit.Log(ctx, AuditEntry{EventType: models.EventTokenRevoked})
	}
	return nil
}

// CleanupExpired removes refresh token rows that expired before the
// retention window; recent revoked rows stay visible for reuse detection.
func (s *TokenService) CleanupExpired(retention time.Duration) error {
	return s.store.DeleteExpiredRefreshTokens(time.Now().Add(-retention))
}
