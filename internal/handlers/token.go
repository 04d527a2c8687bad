package handlers

import (
	"errors"
	"net/http"

	"github.com/elixpo/accounts/internal/metrics"
	"github.com/elixpo/accounts/internal/services"
	"github.com/elixpo/accounts/internal/token"

	"github.com/gin-gonic/gin"
)

const (
	// https://datatracker.ietf.org/doc/html/rfc6749#section-4.1
	GrantTypeAuthorizationCode = "authorization_code"
	// https://datatracker.ietf.org/doc/html/rfc6749#section-6
	GrantTypeRefreshToken = "refresh_token"
	// https://datatracker.ietf.org/doc/html/rfc6749#section-4.4
	GrantTypeClientCredentials = "client_credentials"
)

// tokenRequest covers every grant's parameters. Binds from
// x-www-form-urlencoded or JSON depending on Content-Type.
type tokenRequest struct {
	GrantType    string `form:"grant_type" json:"grant_type"`
	Code         string `form:"code" json:"code"`
	RedirectURI  string `form:"redirect_uri" json:"redirect_uri"`
	ClientID     string `form:"client_id" json:"client_id"`
	ClientSecret string `form:"client_secret" json:"client_secret"`
	CodeVerifier string `form:"code_verifier" json:"code_verifier"`
	RefreshToken string `form:"refresh_token" json:"refresh_token"`
}

type TokenHandler struct {
	tokenService         *services.TokenService
	authorizationService *services.AuthorizationService
	clientService        *services.ClientService
	userService          *services.UserService
	metrics              metrics.Recorder
}

func NewTokenHandler(
	ts *services.TokenService,
	as *services.AuthorizationService,
	cs *services.ClientService,
	us *services.UserService,
	m metrics.Recorder,
) *TokenHandler {
	return &TokenHandler{
		tokenService:         ts,
		authorizationService: as,
		clientService:        cs,
		userService:          us,
		metrics:              m,
	}
}

// Token handles POST /token: grant-type dispatch per RFC 6749 §3.2.
func (h *TokenHandler) Token(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "Malformed token request body",
		})
		return
	}

	// HTTP Basic Auth is the preferred client authentication (§2.3.1);
	// form/JSON body parameters are the fallback.
	if basicID, basicSecret, ok := c.Request.BasicAuth(); ok {
		req.ClientID = basicID
		req.ClientSecret = basicSecret
	}

	switch req.GrantType {
	case GrantTypeAuthorizationCode:
		h.handleAuthorizationCodeGrant(c, req)
	case GrantTypeRefreshToken:
		h.handleRefreshTokenGrant(c, req)
	case GrantTypeClientCredentials:
		h.handleClientCredentialsGrant(c, req)
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "unsupported_grant_type",
			"error_description": "Supported grant types: authorization_code, refresh_token, client_credentials",
		})
	}
}

// handleAuthorizationCodeGrant exchanges a single-use code for a token
// pair (RFC 6749 §4.1.3).
func (h *TokenHandler) handleAuthorizationCodeGrant(c *gin.Context, req tokenRequest) {
	if req.Code == "" || req.RedirectURI == "" || req.ClientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "code, redirect_uri, and client_id are required",
		})
		return
	}

	record, err := h.authorizationService.ExchangeCode(
		c.Request.Context(),
		req.Code, req.ClientID, req.ClientSecret, req.RedirectURI, req.CodeVerifier,
	)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrClientNotFound),
			errors.Is(err, services.ErrClientInactive),
			errors.Is(err, services.ErrInvalidClientSecret):
			h.metrics.RecordCodeExchange("invalid_client")
			unauthorizedClient(c)
		case errors.Is(err, services.ErrInvalidAuthCode),
			errors.Is(err, services.ErrAuthCodeExpired),
			errors.Is(err, services.ErrRedirectURIMismatch),
			errors.Is(err, services.ErrPKCEVerificationFailed):
			h.metrics.RecordCodeExchange("invalid_grant")
			c.JSON(http.StatusBadRequest, gin.H{
				"error":             "invalid_grant",
				"error_description": "Authorization code is invalid, expired, or already used",
			})
		default:
			h.metrics.RecordCodeExchange("server_error")
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":             "server_error",
				"error_description": "Code exchange failed",
			})
		}
		return
	}

	user, err := h.userService.GetUser(record.UserID)
	if err != nil {
		// The account vanished or was deactivated after consent.
		h.metrics.RecordCodeExchange("invalid_grant")
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_grant",
			"error_description": "The authorizing account is no longer active",
		})
		return
	}

	pair, err := h.tokenService.IssueTokenPair(
		c.Request.Context(), user.ID, user.Email, "", record.ClientID,
	)
	if err != nil {
		h.metrics.RecordCodeExchange("server_error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":             "server_error",
			"error_description": "Failed to issue tokens",
		})
		return
	}

	h.metrics.RecordCodeExchange("success")
	h.metrics.RecordTokenIssued("access", GrantTypeAuthorizationCode)
	c.JSON(http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    "Bearer",
		"expires_in":    pair.ExpiresIn,
		"scope":         record.Scopes,
	})
}

// handleRefreshTokenGrant mints a replacement access token (RFC 6749 §6).
func (h *TokenHandler) handleRefreshTokenGrant(c *gin.Context, req tokenRequest) {
	if req.RefreshToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "refresh_token is required",
		})
		return
	}

	pair, err := h.tokenService.Refresh(c.Request.Context(), req.RefreshToken, req.ClientID)
	if err != nil {
		h.metrics.RecordTokenRefresh(false)
		switch {
		case errors.Is(err, token.ErrInvalidRefreshToken),
			errors.Is(err, token.ErrExpiredRefreshToken),
			errors.Is(err, services.ErrRefreshTokenRevoked):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":             "invalid_grant",
				"error_description": "Refresh token is invalid, expired, or revoked",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":             "server_error",
				"error_description": "Token refresh failed",
			})
		}
		return
	}

	h.metrics.RecordTokenRefresh(true)
	resp := gin.H{
		"access_token": pair.AccessToken,
		"token_type":   "Bearer",
		"expires_in":   pair.ExpiresIn,
	}
	if pair.RefreshToken != "" {
		resp["refresh_token"] = pair.RefreshToken
	}
	c.JSON(http.StatusOK, resp)
}

// handleClientCredentialsGrant issues a machine token (RFC 6749 §4.4).
// The subject is the client itself; no refresh token is returned (§4.4.3).
func (h *TokenHandler) handleClientCredentialsGrant(c *gin.Context, req tokenRequest) {
	if req.ClientID == "" || req.ClientSecret == "" {
		c.Header("WWW-Authenticate", `Basic realm="accounts"`)
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "invalid_client",
			"error_description": "Client authentication required: use HTTP Basic Auth or provide client_id and client_secret in the request body",
		})
		return
	}

	if err := h.clientService.VerifyClientSecret(req.ClientID, req.ClientSecret); err != nil {
		// RFC 6749 §5.2: invalid_client uses 401 + WWW-Authenticate
		c.Header("WWW-Authenticate", `Basic realm="accounts"`)
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "invalid_client",
			"error_description": "Client authentication failed",
		})
		return
	}

	pair, err := h.tokenService.IssueClientCredentials(c.Request.Context(), req.ClientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":             "server_error",
			"error_description": "Token issuance failed",
		})
		return
	}

	h.metrics.RecordTokenIssued("access", GrantTypeClientCredentials)
	c.JSON(http.StatusOK, gin.H{
		"access_token": pair.AccessToken,
		"token_type":   "Bearer",
		"expires_in":   pair.ExpiresIn,
	})
}

// Revoke handles POST /revoke (RFC 7009). The server answers 200 for
// both revoked and unknown tokens to prevent token scanning.
func (h *TokenHandler) Revoke(c *gin.Context) {
	var req struct {
		Token         string `form:"token" json:"token"`
		TokenTypeHint string `form:"token_type_hint" json:"token_type_hint"`
	}
	if err := c.ShouldBind(&req); err != nil || req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "token parameter is required",
		})
		return
	}

	// Only refresh tokens are revocable; access tokens simply expire.
	// The hint is advisory (§2.1) so a lookup miss is still a success.
	if err := h.tokenService.Revoke(c.Request.Context(), req.Token); err == nil {
		h.metrics.RecordTokenRevoked("user_request")
	}
	c.Status(http.StatusOK)
}

func unauthorizedClient(c *gin.Context) {
	c.Header("WWW-Authenticate", `Basic realm="accounts"`)
	c.JSON(http.StatusUnauthorized, gin.H{
		"error":             "invalid_client",
		"error_description": "Client authentication failed",
	})
}
