package handlers

import (
	"net/http"

	"github.com/elixpo/accounts/internal/store"
	"github.com/elixpo/accounts/internal/version"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports liveness plus store connectivity.
type HealthHandler struct {
	store *store.Store
}

func NewHealthHandler(s *store.Store) *HealthHandler {
	return &HealthHandler{store: s}
}

// Health handles GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	if err := h.store.Health(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unavailable",
			"version": version.String(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": version.String(),
	})
}
