package handlers

import (
	"errors"
	"net/http"

	"github.com/elixpo/accounts/internal/models"
	"github.com/elixpo/accounts/internal/services"

	"github.com/gin-gonic/gin"
)

// ClientHandler exposes OAuth client registration CRUD. Responses only
// ever include the plaintext secret at creation and rotation; reads
// return the public fields.
type ClientHandler struct {
	clientService *services.ClientService
	audit         *services.AuditService
}

func NewClientHandler(cs *services.ClientService, audit *services.AuditService) *ClientHandler {
	return &ClientHandler{clientService: cs, audit: audit}
}

type createClientRequest struct {
	Name         string   `json:"name" binding:"required"`
	RedirectURIs []string `json:"redirect_uris" binding:"required"`
	Scopes       []string `json:"scopes" binding:"required"`
}

type updateClientRequest struct {
	Name         *string  `json:"name"`
	RedirectURIs []string `json:"redirect_uris"`
	Scopes       []string `json:"scopes"`
	IsActive     *bool    `json:"is_active"`
}

// Create handles POST /oauth-clients. The client_secret in the response
// is shown exactly once.
func (h *ClientHandler) Create(c *gin.Context) {
	var req createClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "name, redirect_uris, and scopes are required",
		})
		return
	}

	client, creds, err := h.clientService.CreateClient(services.CreateClientRequest{
		Name:         req.Name,
		RedirectURIs: req.RedirectURIs,
		Scopes:       req.Scopes,
	})
	if err != nil {
		respondClientError(c, err)
		return
	}

	h.logClientEvent(c, models.EventClientCreated, client.ClientID)
	c.JSON(http.StatusCreated, gin.H{
		"client_id":     creds.ClientID,
		"client_secret": creds.ClientSecret,
		"name":          client.Name,
		"redirect_uris": client.RedirectURIList(),
		"scopes":        client.ScopeList(),
		"created_at":    client.CreatedAt,
	})
}

// Get handles GET /oauth-clients/:client_id.
func (h *ClientHandler) Get(c *gin.Context) {
	client, err := h.clientService.GetClient(c.Param("client_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":             "invalid_request",
			"error_description": "Client not found",
		})
		return
	}
	c.JSON(http.StatusOK, publicClient(client))
}

// Update handles PUT /oauth-clients/:client_id: partial update, omitted
// fields keep their values.
func (h *ClientHandler) Update(c *gin.Context) {
	var req updateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "Malformed update body",
		})
		return
	}

	client, err := h.clientService.UpdateClient(c.Param("client_id"), services.UpdateClientRequest{
		Name:         req.Name,
		RedirectURIs: req.RedirectURIs,
		Scopes:       req.Scopes,
		IsActive:     req.IsActive,
	})
	if err != nil {
		respondClientError(c, err)
		return
	}

	h.logClientEvent(c, models.EventClientUpdated, client.ClientID)
	c.JSON(http.StatusOK, publicClient(client))
}

// Deactivate handles DELETE /oauth-clients/:client_id (soft delete).
func (h *ClientHandler) Deactivate(c *gin.Context) {
	clientID := c.Param("client_id")
	if err := h.clientService.DeactivateClient(clientID); err != nil {
		respondClientError(c, err)
		return
	}

	h.logClientEvent(c, models.EventClientDeactivated, clientID)
	c.Status(http.StatusNoContent)
}

// RotateSecret handles POST /oauth-clients/:client_id/rotate-secret.
// The old secret stops working immediately.
func (h *ClientHandler) RotateSecret(c *gin.Context) {
	clientID := c.Param("client_id")
	newSecret, err := h.clientService.RotateSecret(clientID)
	if err != nil {
		respondClientError(c, err)
		return
	}

	h.logClientEvent(c, models.EventClientSecretRotated, clientID)
	c.JSON(http.StatusOK, gin.H{
		"client_id":     clientID,
		"client_secret": newSecret,
	})
}

// publicClient strips the secret hash from API responses.
func publicClient(client *models.OAuthClient) gin.H {
	return gin.H{
		"client_id":     client.ClientID,
		"name":          client.Name,
		"redirect_uris": client.RedirectURIList(),
		"scopes":        client.ScopeList(),
		"is_active":     client.IsActive,
		"created_at":    client.CreatedAt,
		"updated_at":    client.UpdatedAt,
	}
}

func respondClientError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrClientNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":             "invalid_request",
			"error_description": "Client not found",
		})
	case errors.Is(err, services.ErrClientNameRequired):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "Client name is required",
		})
	case errors.Is(err, services.ErrInvalidRedirectURI):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_request",
			"error_description": "redirect_uris must be absolute http(s) URLs; https is required outside local development",
		})
	case errors.Is(err, services.ErrInvalidScope):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "invalid_scope",
			"error_description": "One or more scopes are not in the allow-list",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":             "server_error",
			"error_description": "Client operation failed",
		})
	}
}

func (h *ClientHandler) logClientEvent(c *gin.Context, event models.EventType, clientID string) {
	if h.audit == nil {
		return
	}
	h.audit.Log(c.Request.Context(), services.AuditEntry{
		EventType: event,
		UserAgent: c.Request.UserAgent(),
		Details:   models.AuditDetails{"client_id": clientID},
	})
}
