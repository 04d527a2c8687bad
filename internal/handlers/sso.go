package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/elixpo/accounts/internal/metrics"
	"github.com/elixpo/accounts/internal/services"

	"github.com/gin-gonic/gin"
)

// SSOHandler answers "is this access token good, and for whom" for
// relying services. GET takes the token as a query parameter; POST takes
// a bearer header.
type SSOHandler struct {
	tokenService *services.TokenService
	metrics      metrics.Recorder
}

func NewSSOHandler(ts *services.TokenService, m metrics.Recorder) *SSOHandler {
	return &SSOHandler{tokenService: ts, metrics: m}
}

// Verify handles GET and POST /sso/verify.
func (h *SSOHandler) Verify(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	if tokenString == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": "missing_token",
		})
		return
	}

	start := time.Now()
	claims, err := h.tokenService.VerifyAccess(tokenString)
	if err != nil {
		h.metrics.RecordTokenValidation("invalid", time.Since(start))
		c.JSON(http.StatusUnauthorized, gin.H{
			"valid": false,
			"error": "invalid_token",
		})
		return
	}
	h.metrics.RecordTokenValidation("valid", time.Since(start))

	// Machine tokens carry a synthetic client subject, never a user id.
	subjectType := "user"
	if strings.HasPrefix(claims.Subject, "client:") {
		subjectType = "client"
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":        true,
		"user_id":      claims.Subject,
		"subject_type": subjectType,
		"email":        claims.Email,
		"provider":     claims.Provider,
		"expires_at":   claims.Expiry.Unix(),
	})
}
