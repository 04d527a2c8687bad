package store

import (
	"time"

	"github.com/elixpo/accounts/internal/models"
)

// Authorization code operations

func (s *Store) CreateAuthRequest(req *models.AuthRequest) error {
	return s.db.Create(req).Error
}

// GetAuthRequestByCodeHash retrieves a code record by the SHA-256 hash
// of the plaintext code.
func (s *Store) GetAuthRequestByCodeHash(codeHash string) (*models.AuthRequest, error) {
	var req models.AuthRequest
	if err := s.db.Where("code_hash = ?", codeHash).First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// MarkAuthRequestConsumed atomically consumes an authorization code.
// The conditional UPDATE guarantees exactly one winner under concurrent
// exchange attempts: a second caller sees 0 rows updated and receives
// ErrAuthCodeAlreadyConsumed.
func (s *Store) MarkAuthRequestConsumed(id string) error {
	result := s.db.Model(&models.AuthRequest{}).
		Where("id = ? AND consumed_at IS NULL", id).
		Update("consumed_at", time.Now())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAuthCodeAlreadyConsumed
	}
	return nil
}

// DeleteExpiredAuthRequests removes code records past their expiry.
// Expiry is enforced at exchange time; this is storage hygiene only.
func (s *Store) DeleteExpiredAuthRequests() error {
	return s.db.Where("expires_at < ?", time.Now()).
		Delete(&models.AuthRequest{}).Error
}
