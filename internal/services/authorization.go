package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/elixpo/accounts/internal/config"
	"github.com/elixpo/accounts/internal/models"
	"github.com/elixpo/accounts/internal/store"
	"github.com/elixpo/accounts/internal/util"

	"github.com/google/uuid"
)

// AuthorizationRequest holds validated parameters for an authorization request
type AuthorizationRequest struct {
	Client              *models.OAuthClient
	RedirectURI         string
	Scopes              string
	State               string
	Nonce               string
	CodeChallenge       string
	CodeChallengeMethod string
}

// AuthorizationService manages the OAuth 2.0 Authorization Code Flow
// (RFC 6749): request validation, code minting, and consume-once
// exchange with PKCE verification (RFC 7636).
type AuthorizationService struct {
	store   *store.Store
	config  *config.Config
	clients *ClientService
	audit   *AuditService
}

func NewAuthorizationService(
	s *store.Store,
	cfg *config.Config,
	clients *ClientService,
	audit *AuditService,
) *AuthorizationService {
	return &AuthorizationService{
		store:   s,
		config:  cfg,
		clients: clients,
		audit:   audit,
	}
}

// ValidateAuthorizationRequest validates all parameters of an incoming
// authorization request. Returns the parsed AuthorizationRequest on success.
func (s *AuthorizationService) ValidateAuthorizationRequest(
	responseType, clientID, redirectURI, scope, state, nonce,
	codeChallenge, codeChallengeMethod string,
) (*AuthorizationRequest, error) {
	// 1. Required parameters
	if clientID == "" || redirectURI == "" || state == "" || responseType == "" {
		return nil, ErrMissingParameter
	}

	// 2. response_type must be "code"
	if responseType != "code" {
		return nil, ErrUnsupportedResponseType
	}

	// 3. Client must exist and be active
	client, err := s.clients.GetActiveClient(clientID)
	if err != nil {
		return nil, err
	}

	// 4. redirect_uri must exactly match one of the registered URIs
	if !client.HasRedirectURI(redirectURI) {
		return nil, ErrRedirectURIMismatch
	}

	// 5. Requested scope must be a subset of the client's scopes
	if scope != "" && !isScopeSubset(client.Scopes, scope) {
		return nil, ErrInvalidScope
	}
	if scope == "" {
		scope = client.Scopes // Default to all client scopes
	}

	// 6. Optional PKCE: challenge method must be supported when present
	if codeChallenge != "" {
		if codeChallengeMethod == "" {
			codeChallengeMethod = models.PKCEMethodS256
		}
		if codeChallengeMethod != models.PKCEMethodS256 &&
			codeChallengeMethod != models.PKCEMethodPlain {
			return nil, ErrUnsupportedPKCEMethod
		}
	} else {
		codeChallengeMethod = ""
	}

	return &AuthorizationRequest{
		Client:              client,
		RedirectURI:         redirectURI,
		Scopes:              scope,
		State:               state,
		Nonce:               nonce,
		CodeChallenge:       codeChallenge,
		CodeChallengeMethod: codeChallengeMethod,
	}, nil
}

// CreateAuthorizationCode mints a single-use code for an approved
// consent and persists its record. Returns the plaintext code for the
// redirect; only the SHA-256 hash is stored.
func (s *AuthorizationService) CreateAuthorizationCode(
	ctx context.Context,
	req *AuthorizationRequest,
	userID string,
) (string, *models.AuthRequest, error) {
	plainCode, err := util.GenerateAuthCode()
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate authorization code: %w", err)
	}

	record := &models.AuthRequest{
		ID:                  uuid.New().String(),
		CodeHash:            util.SHA256Hex(plainCode),
		CodePrefix:          plainCode[:16],
		ClientID:            req.Client.ClientID,
		UserID:              userID,
		RedirectURI:         req.RedirectURI,
		Scopes:              req.Scopes,
		State:               req.State,
		Nonce:               req.Nonce,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: req.CodeChallengeMethod,
		ExpiresAt:           time.Now().Add(s.config.AuthCodeExpiration),
	}

	if err := s.store.CreateAuthRequest(record); err != nil {
		return "", nil, fmt.Errorf("failed to save authorization code: %w", err)
	}

	if s.audit != nil {
		s.audit.Log(ctx, AuditEntry{
			EventType: models.EventAuthorizationCodeIssued,
			UserID:    userID,
			Details: models.AuditDetails{
				"client_id":    req.Client.ClientID,
				"scopes":       req.Scopes,
				"pkce":         req.CodeChallenge != "",
				"redirect_uri": req.RedirectURI,
			},
		})
	}

	return plainCode, record, nil
}

// DenyAuthorization records a declined consent. No code is issued; the
// caller redirects back with error=access_denied.
func (s *AuthorizationService) DenyAuthorization(ctx context.Context, req *AuthorizationRequest, userID string) {
	if s.audit == nil {
		return
	}
	s.audit.Log(ctx, AuditEntry{
		EventType: models.EventAuthorizationDenied,
		Status:    models.StatusFailure,
		UserID:    userID,
		Details: models.AuditDetails{
			"client_id": req.Client.ClientID,
			"scopes":    req.Scopes,
		},
	})
}

// ExchangeCode validates a plaintext authorization code and atomically
// marks it consumed. The caller issues tokens after this succeeds.
func (s *AuthorizationService) ExchangeCode(
	ctx context.Context,
	plainCode, clientID, clientSecret, redirectURI, codeVerifier string,
) (*models.AuthRequest, error) {
	// Client authentication comes first so an attacker without the
	// secret learns nothing about the code.
	if err := s.clients.VerifyClientSecret(clientID, clientSecret); err != nil {
		return nil, err
	}

	record, err := s.store.GetAuthRequestByCodeHash(util.SHA256Hex(plainCode))
	if err != nil {
		return nil, ErrInvalidAuthCode
	}

	if record.IsConsumed() {
		return nil, ErrInvalidAuthCode
	}
	if record.IsExpired() {
		return nil, ErrAuthCodeExpired
	}
	if record.ClientID != clientID {
		// Don't reveal the code exists for another client
		return nil, ErrInvalidAuthCode
	}
	if record.RedirectURI != redirectURI {
		return nil, ErrRedirectURIMismatch
	}

	// A recorded challenge makes the verifier mandatory.
	if record.CodeChallenge != "" {
		if !verifyPKCE(record.CodeChallenge, record.CodeChallengeMethod, codeVerifier) {
			return nil, ErrPKCEVerificationFailed
		}
	}

	// Mark consumed atomically (WHERE consumed_at IS NULL ensures only one
	// concurrent request wins; the loser receives the store error).
	now := time.Now()
	if err := s.store.MarkAuthRequestConsumed(record.ID); err != nil {
		if errors.Is(err, store.ErrAuthCodeAlreadyConsumed) {
			return nil, ErrInvalidAuthCode
		}
		return nil, fmt.Errorf("failed to mark code consumed: %w", err)
	}
	record.ConsumedAt = &now // Reflect DB state in the returned struct

	if s.audit != nil {
		s.audit.Log(ctx, AuditEntry{
			EventType: models.EventAuthorizationCodeExchanged,
			UserID:    record.UserID,
			Details: models.AuditDetails{
				"client_id": clientID,
				"scopes":    record.Scopes,
			},
		})
	}

	return record, nil
}

// CleanupExpired removes expired code records.
func (s *AuthorizationService) CleanupExpired() error {
	return s.store.DeleteExpiredAuthRequests()
}

// verifyPKCE validates code_verifier against the stored code_challenge
func verifyPKCE(codeChallenge, method, codeVerifier string) bool {
	if codeVerifier == "" {
		return false
	}
	switch method {
	case models.PKCEMethodS256:
		return util.PKCEChallengeS256(codeVerifier) == codeChallenge
	case models.PKCEMethodPlain:
		return codeVerifier == codeChallenge
	default:
		return false
	}
}

// isScopeSubset reports whether every requested scope appears in the
// space-separated allowed set.
func isScopeSubset(allowedScopes, requestedScopes string) bool {
	allowed := make(map[string]bool)
	for _, sc := range strings.Fields(allowedScopes) {
		allowed[sc] = true
	}
	for _, sc := range strings.Fields(requestedScopes) {
		if !allowed[sc] {
			return false
		}
	}
	return true
}
