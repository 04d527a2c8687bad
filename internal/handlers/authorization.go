package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/elixpo/accounts/internal/metrics"
	"github.com/elixpo/accounts/internal/services"

	"github.com/gin-gonic/gin"
)

// AuthorizationHandler serves the authorization code flow entry points
// (RFC 6749 §4.1): request validation and the consent decision.
type AuthorizationHandler struct {
	authorizationService *services.AuthorizationService
	tokenService         *services.TokenService
	metrics              metrics.Recorder
}

func NewAuthorizationHandler(
	as *services.AuthorizationService,
	ts *services.TokenService,
	m metrics.Recorder,
) *AuthorizationHandler {
	return &AuthorizationHandler{
		authorizationService: as,
		tokenService:         ts,
		metrics:              m,
	}
}

// Authorize handles GET /authorize. It validates the request and returns
// the consent context (client name, requested scopes) for the caller to
// present. Errors never redirect: the redirect URI is only trusted after
// it has been matched against the client's registration, and by then the
// remaining failures are all pre-redirect validation problems.
func (h *AuthorizationHandler) Authorize(c *gin.Context) {
	req, err := h.authorizationService.ValidateAuthorizationRequest(
		c.Query("response_type"),
		c.Query("client_id"),
		c.Query("redirect_uri"),
		c.Query("scope"),
		c.Query("state"),
		c.Query("nonce"),
		c.Query("code_challenge"),
		c.Query("code_challenge_method"),
	)
	if err != nil {
		h.metrics.RecordAuthorizationRequest(authorizeErrorCode(err))
		respondAuthorizeError(c, err)
		return
	}

	h.metrics.RecordAuthorizationRequest("valid")
	c.JSON(http.StatusOK, gin.H{
		"client": gin.H{
			"client_id": req.Client.ClientID,
			"name":      req.Client.Name,
		},
		"redirect_uri":          req.RedirectURI,
		"scope":                 req.Scopes,
		"state":                 req.State,
		"code_challenge":        req.CodeChallenge,
		"code_challenge_method": req.CodeChallengeMethod,
	})
}

type consentRequest struct {
	ClientID            string `json:"client_id" binding:"required"`
	RedirectURI         string `json:"redirect_uri" binding:"required"`
	Scope               string `json:"scope"`
	State               string `json:"state" binding:"required"`
	Nonce               string `json:"nonce"`
	CodeChallenge       string `json:"code_challenge"`
	CodeChallengeMethod string `json:"code_challenge_method"`
	Approved            bool   `json:"approved"`
}

// Consent handles POST /authorize: the authenticated user's decision.
// Approval mints a single-use code; denial carries error=access_denied.
// Either way the response is {redirect_url} with the original state
// echoed verbatim.
func (h *AuthorizationHandler) Consent(c *gin.Context) {
	userID, ok := h.authenticatedUser(c)
	if !ok {
		return
	}

	var req consentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "client_id, redirect_uri, and state are required",
		})
		return
	}

	// Re-validate: the client or its registration may have changed
	// between the GET and the decision.
	authReq, err := h.authorizationService.ValidateAuthorizationRequest(
		"code", req.ClientID, req.RedirectURI, req.Scope, req.State,
		req.Nonce, req.CodeChallenge, req.CodeChallengeMethod,
	)
	if err != nil {
		respondAuthorizeError(c, err)
		return
	}

	if !req.Approved {
		h.authorizationService.DenyAuthorization(c.Request.Context(), authReq, userID)
		c.JSON(http.StatusOK, gin.H{
			"redirect_url": redirectWith(authReq.RedirectURI, url.Values{
				"error": {"access_denied"},
				"state": {authReq.State},
			}),
		})
		return
	}

	code, _, err := h.authorizationService.CreateAuthorizationCode(
		c.Request.Context(), authReq, userID,
	)
	if err != nil {
		h.metrics.RecordCodeIssued(false)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":             "server_error",
			"error_description": "Failed to issue authorization code",
		})
		return
	}

	h.metrics.RecordCodeIssued(true)
	c.JSON(http.StatusOK, gin.H{
		"redirect_url": redirectWith(authReq.RedirectURI, url.Values{
			"code":  {code},
			"state": {authReq.State},
		}),
	})
}

// authenticatedUser resolves the acting user from the access_token
// cookie or a bearer header. Writes the 401 itself when absent.
func (h *AuthorizationHandler) authenticatedUser(c *gin.Context) (string, bool) {
	tokenString := bearerOrCookieToken(c)
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "access_denied",
			"error_description": "Authentication required",
		})
		return "", false
	}

	claims, err := h.tokenService.VerifyAccess(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "access_denied",
			"error_description": "Invalid or expired session",
		})
		return "", false
	}
	return claims.Subject, true
}

// redirectWith appends query parameters to a registered redirect URI,
// preserving any parameters the client already included.
func redirectWith(redirectURI string, params url.Values) string {
	u, err := url.Parse(redirectURI)
	if err != nil {
		// Registration already validated the URI; this should not happen.
		return redirectURI
	}
	q := u.Query()
	for key, values := range params {
		for _, v := range values {
			q.Set(key, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func authorizeErrorCode(err error) string {
	switch {
	case errors.Is(err, services.ErrMissingParameter),
		errors.Is(err, services.ErrRedirectURIMismatch),
		errors.Is(err, services.ErrUnsupportedPKCEMethod):
		return "invalid_request"
	case errors.Is(err, services.ErrUnsupportedResponseType):
		return "unsupported_response_type"
	case errors.Is(err, services.ErrClientNotFound), errors.Is(err, services.ErrClientInactive):
		return "unauthorized_client"
	case errors.Is(err, services.ErrInvalidScope):
		return "invalid_scope"
	default:
		return "server_error"
	}
}

func respondAuthorizeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrMissingParameter):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "response_type, client_id, redirect_uri, and state are required",
		})
	case errors.Is(err, services.ErrUnsupportedResponseType):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "unsupported_response_type",
			"error_description": "Only response_type=code is supported",
		})
	case errors.Is(err, services.ErrClientNotFound), errors.Is(err, services.ErrClientInactive):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "unauthorized_client",
			"error_description": "Unknown or inactive client",
		})
	case errors.Is(err, services.ErrRedirectURIMismatch):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "redirect_uri is not registered for this client",
		})
	case errors.Is(err, services.ErrInvalidScope):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_scope",
			"error_description": "Requested scope exceeds the client's allowed scopes",
		})
	case errors.Is(err, services.ErrUnsupportedPKCEMethod):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "Unsupported code_challenge_method",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":             "server_error",
			"error_description": "Authorization request failed",
		})
	}
}
