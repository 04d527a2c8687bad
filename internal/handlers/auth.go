package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/elixpo/accounts/internal/config"
	"github.com/elixpo/accounts/internal/metrics"
	"github.com/elixpo/accounts/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	CookieAccessToken  = "access_token"
	CookieRefreshToken = "refresh_token"
	CookieUserID       = "user_id"
)

// AuthHandler owns the first-party session surface: register, login,
// logout, and the cookie contract shared by all three.
type AuthHandler struct {
	userService  *services.UserService
	tokenService *services.TokenService
	config       *config.Config
	metrics      metrics.Recorder
}

func NewAuthHandler(
	us *services.UserService,
	ts *services.TokenService,
	cfg *config.Config,
	m metrics.Recorder,
) *AuthHandler {
	return &AuthHandler{
		userService:  us,
		tokenService: ts,
		config:       cfg,
		metrics:      m,
	}
}

type registerRequest struct {
	Email          string `json:"email" binding:"required"`
	Password       string `json:"password"`
	Provider       string `json:"provider" binding:"required"`
	ProviderUserID string `json:"provider_id"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password"`
	Provider string `json:"provider" binding:"required"`
}

// Register handles POST /register: creates the account and starts a
// session in one step, mirroring the login cookie contract.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "email and provider are required",
		})
		return
	}

	user, err := h.userService.Register(c.Request.Context(), services.RegisterRequest{
		Email:          req.Email,
		Password:       req.Password,
		Provider:       req.Provider,
		ProviderUserID: req.ProviderUserID,
		UserAgent:      c.Request.UserAgent(),
	})
	if err != nil {
		h.metrics.RecordRegistration(req.Provider, false)
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{
				"error":             "invalid_request",
				"error_description": "Email is already registered",
			})
		case errors.Is(err, services.ErrInvalidCredentials):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":             "invalid_request",
				"error_description": "Missing or invalid registration fields",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":             "server_error",
				"error_description": "Registration failed",
			})
		}
		return
	}

	h.metrics.RecordRegistration(req.Provider, true)
	h.startSession(c, user.ID, user.Email, req.Provider, http.StatusCreated)
}

// Login handles POST /login. Invalid email and invalid password collapse
// into the same response so the endpoint cannot be used to probe for
// registered addresses.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "email and provider are required",
		})
		return
	}

	user, err := h.userService.Login(c.Request.Context(), services.LoginRequest{
		Email:     req.Email,
		Password:  req.Password,
		Provider:  req.Provider,
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		h.metrics.RecordLogin(req.Provider, false)
		switch {
		case errors.Is(err, services.ErrProviderMismatch):
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":             "access_denied",
				"error_description": "This account uses a different sign-in provider",
			})
		case errors.Is(err, services.ErrUserInactive):
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":             "access_denied",
				"error_description": "Account is deactivated",
			})
		case errors.Is(err, services.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":             "access_denied",
				"error_description": "Invalid email or password",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":             "server_error",
				"error_description": "Login failed",
			})
		}
		return
	}

	h.metrics.RecordLogin(req.Provider, true)
	h.startSession(c, user.ID, user.Email, req.Provider, http.StatusOK)
}

// Logout handles POST /logout: best-effort refresh token revocation plus
// cookie clearing. Always succeeds from the client's point of view.
func (h *AuthHandler) Logout(c *gin.Context) {
	if refreshToken, err := c.Cookie(CookieRefreshToken); err == nil && refreshToken != "" {
		if err := h.tokenService.Revoke(c.Request.Context(), refreshToken); err == nil {
			h.metrics.RecordTokenRevoked("logout")
		}
	}

	h.clearSessionCookies(c)
	h.metrics.RecordLogout()
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// startSession issues the token pair and writes the cookie triplet:
// httpOnly access/refresh tokens plus a readable user_id for frontends.
func (h *AuthHandler) startSession(c *gin.Context, userID, email, provider string, status int) {
	pair, err := h.tokenService.IssueTokenPair(c.Request.Context(), userID, email, provider, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":             "server_error",
			"error_description": "Failed to issue session tokens",
		})
		return
	}

	secure := h.config.IsProduction
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieAccessToken, pair.AccessToken,
		int(h.config.AccessTokenExpiration.Seconds()), "/", "", secure, true)
	c.SetCookie(CookieRefreshToken, pair.RefreshToken,
		int(h.config.RefreshTokenExpiration.Seconds()), "/", "", secure, true)
	c.SetCookie(CookieUserID, userID,
		int(h.config.RefreshTokenExpiration.Seconds()), "/", "", secure, false)

	c.JSON(status, gin.H{
		"user": gin.H{
			"id":    userID,
			"email": email,
		},
		"access_token": pair.AccessToken,
		"token_type":   "Bearer",
		"expires_in":   pair.ExpiresIn,
	})
}

func (h *AuthHandler) clearSessionCookies(c *gin.Context) {
	secure := h.config.IsProduction
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieAccessToken, "", -1, "/", "", secure, true)
	c.SetCookie(CookieRefreshToken, "", -1, "/", "", secure, true)
	c.SetCookie(CookieUserID, "", -1, "/", "", secure, false)
}

// bearerOrCookieToken extracts an access token from the Authorization
// header, falling back to the session cookie.
func bearerOrCookieToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if cookie, err := c.Cookie(CookieAccessToken); err == nil {
		return cookie
	}
	return ""
}
