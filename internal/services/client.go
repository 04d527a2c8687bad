package services

import (
	"crypto/subtle"
	"net/url"
	"strings"

	"github.com/elixpo/accounts/internal/models"
	"github.com/elixpo/accounts/internal/store"
	"github.com/elixpo/accounts/internal/util"
)

// ClientService owns OAuthClient rows: registration, lookup, updates,
// deactivation, and secret verification. Secrets are 256-bit random
// values hashed with unsalted SHA-256; the plaintext appears only in the
// creation and rotation responses.
type ClientService struct {
	store         *store.Store
	allowedScopes map[string]bool
	isProduction  bool
}

func NewClientService(s *store.Store, allowedScopes []string, isProduction bool) *ClientService {
	allowed := make(map[string]bool, len(allowedScopes))
	for _, scope := range allowedScopes {
		allowed[scope] = true
	}
	return &ClientService{
		store:         s,
		allowedScopes: allowed,
		isProduction:  isProduction,
	}
}

type CreateClientRequest struct {
	Name         string
	RedirectURIs []string
	Scopes       []string
}

type UpdateClientRequest struct {
	Name         *string
	RedirectURIs []string
	Scopes       []string
	IsActive     *bool
}

// ClientCredentials is returned exactly once at creation; the secret is
// never retrievable afterwards.
type ClientCredentials struct {
	ClientID     string
	ClientSecret string
}

func (s *ClientService) CreateClient(req CreateClientRequest) (*models.OAuthClient, *ClientCredentials, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, nil, ErrClientNameRequired
	}
	if err := s.validateRedirectURIs(req.RedirectURIs); err != nil {
		return nil, nil, err
	}
	if err := s.validateScopes(req.Scopes); err != nil {
		return nil, nil, err
	}

	clientID, err := util.GenerateClientID()
	if err != nil {
		return nil, nil, err
	}
	clientSecret, err := util.GenerateClientSecret()
	if err != nil {
		return nil, nil, err
	}

	client := &models.OAuthClient{
		ClientID:         clientID,
		ClientSecretHash: util.SHA256Hex(clientSecret),
		Name:             strings.TrimSpace(req.Name),
		RedirectURIs:     strings.Join(req.RedirectURIs, ","),
		Scopes:           strings.Join(req.Scopes, " "),
		IsActive:         true,
	}

	if err := s.store.CreateClient(client); err != nil {
		return nil, nil, err
	}

	return client, &ClientCredentials{ClientID: clientID, ClientSecret: clientSecret}, nil
}

func (s *ClientService) GetClient(clientID string) (*models.OAuthClient, error) {
	client, err := s.store.GetClient(clientID)
	if err != nil {
		return nil, ErrClientNotFound
	}
	return client, nil
}

// GetActiveClient resolves a client and rejects deactivated ones. Used
// by every authorization and token-exchange check.
func (s *ClientService) GetActiveClient(clientID string) (*models.OAuthClient, error) {
	client, err := s.GetClient(clientID)
	if err != nil {
		return nil, err
	}
	if !client.IsActive {
		return nil, ErrClientInactive
	}
	return client, nil
}

func (s *ClientService) UpdateClient(clientID string, req UpdateClientRequest) (*models.OAuthClient, error) {
	client, err := s.GetClient(clientID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, ErrClientNameRequired
		}
		client.Name = strings.TrimSpace(*req.Name)
	}
	if req.RedirectURIs != nil {
		if err := s.validateRedirectURIs(req.RedirectURIs); err != nil {
			return nil, err
		}
		client.RedirectURIs = strings.Join(req.RedirectURIs, ",")
	}
	if req.Scopes != nil {
		if err := s.validateScopes(req.Scopes); err != nil {
			return nil, err
		}
		client.Scopes = strings.Join(req.Scopes, " ")
	}
	if req.IsActive != nil {
		client.IsActive = *req.IsActive
	}

	if err := s.store.UpdateClient(client); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *ClientService) DeactivateClient(clientID string) error {
	if _, err := s.GetClient(clientID); err != nil {
		return err
	}
	return s.store.DeactivateClient(clientID)
}

func (s *ClientService) ListClients() ([]models.OAuthClient, error) {
	return s.store.ListClients()
}

// RotateSecret issues a replacement secret, invalidating the old one.
// The only remedy for a lost secret.
func (s *ClientService) RotateSecret(clientID string) (string, error) {
	client, err := s.GetClient(clientID)
	if err != nil {
		return "", err
	}

	newSecret, err := util.GenerateClientSecret()
	if err != nil {
		return "", err
	}
	client.ClientSecretHash = util.SHA256Hex(newSecret)
	if err := s.store.UpdateClient(client); err != nil {
		return "", err
	}

	return newSecret, nil
}

// VerifyClientSecret recomputes the hash and compares. Used only during
// token exchange, never during redirect-based flows.
func (s *ClientService) VerifyClientSecret(clientID, clientSecret string) error {
	client, err := s.GetActiveClient(clientID)
	if err != nil {
		return err
	}

	presented := util.SHA256Hex(clientSecret)
	if subtle.ConstantTimeCompare([]byte(presented), []byte(client.ClientSecretHash)) != 1 {
		return ErrInvalidClientSecret
	}
	return nil
}

func (s *ClientService) validateRedirectURIs(uris []string) error {
	if len(uris) == 0 {
		return ErrInvalidRedirectURI
	}
	for _, raw := range uris {
		u, err := url.Parse(raw)
		if err != nil || !u.IsAbs() || u.Host == "" {
			return ErrInvalidRedirectURI
		}
		switch u.Scheme {
		case "https":
		case "http":
			// HTTPS required outside local development
			if s.isProduction && u.Hostname() != "localhost" && u.Hostname() != "127.0.0.1" {
				return ErrInvalidRedirectURI
			}
		default:
			return ErrInvalidRedirectURI
		}
		if strings.Contains(raw, ",") {
			return ErrInvalidRedirectURI
		}
	}
	return nil
}

func (s *ClientService) validateScopes(scopes []string) error {
	if len(scopes) == 0 {
		return ErrInvalidScope
	}
	for _, scope := range scopes {
		if !s.allowedScopes[scope] {
			return ErrInvalidScope
		}
	}
	return nil
}
