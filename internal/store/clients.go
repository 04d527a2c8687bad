package store

import (
	"github.com/elixpo/accounts/internal/models"
)

// OAuth client operations

func (s *Store) CreateClient(client *models.OAuthClient) error {
	return s.db.Create(client).Error
}

func (s *Store) GetClient(clientID string) (*models.OAuthClient, error) {
	var client models.OAuthClient
	if err := s.db.Where("client_id = ?", clientID).First(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (s *Store) ListClients() ([]models.OAuthClient, error) {
	var clients []models.OAuthClient
	if err := s.db.Order("created_at DESC").Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

func (s *Store) UpdateClient(client *models.OAuthClient) error {
	return s.db.Save(client).Error
}

// DeactivateClient soft-deletes a client registration. Deactivated
// clients are rejected at every authorization and token-exchange check.
func (s *Store) DeactivateClient(clientID string) error {
	return s.db.Model(&models.OAuthClient{}).
		Where("client_id = ?", clientID).
		Update("is_active", false).Error
}
