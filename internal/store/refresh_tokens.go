package store

import (
	"time"

	"github.com/elixpo/accounts/internal/models"
)

// Refresh token operations

func (s *Store) CreateRefreshToken(token *models.RefreshToken) error {
	return s.db.Create(token).Error
}

func (s *Store) GetRefreshTokenByHash(tokenHash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := s.db.Where("token_hash = ?", tokenHash).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// RevokeRefreshToken marks a record revoked by primary key.
func (s *Store) RevokeRefreshToken(id string) error {
	now := time.Now()
	return s.db.Model(&models.RefreshToken{}).
		Where("id = ?", id).
		Updates(map[string]any{"revoked": true, "revoked_at": now}).Error
}

// RevokeRefreshTokenByHash marks a record revoked by token hash. Used by
// logout and the revocation endpoint; revoking an unknown hash is a no-op.
func (s *Store) RevokeRefreshTokenByHash(tokenHash string) error {
	now := time.Now()
	return s.db.Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked = ?", tokenHash, false).
		Updates(map[string]any{"revoked": true, "revoked_at": now}).Error
}

// RevokeRefreshTokensByUser revokes every live record for (user, client).
// Keeps a single active rotation chain per pair.
func (s *Store) RevokeRefreshTokensByUser(userID, clientID string) error {
	now := time.Now()
	return s.db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND client_id = ? AND revoked = ?", userID, clientID, false).
		Updates(map[string]any{"revoked": true, "revoked_at": now}).Error
}

// RotateRefreshToken revokes the old record and inserts its replacement
// in one transaction, so there is no window where both tokens validate.
// Returns ErrTokenAlreadyRevoked if a concurrent exchange won the race.
func (s *Store) RotateRefreshToken(oldID string, replacement *models.RefreshToken) error {
	tx := s.db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	now := time.Now()
	result := tx.Model(&models.RefreshToken{}).
		Where("id = ? AND revoked = ?", oldID, false).
		Updates(map[string]any{"revoked": true, "revoked_at": now})
	if result.Error != nil {
		tx.Rollback()
		return result.Error
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return ErrTokenAlreadyRevoked
	}

	if err := tx.Create(replacement).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// DeleteExpiredRefreshTokens removes records that expired before cutoff.
// Retention keeps recently revoked rows visible for reuse detection.
func (s *Store) DeleteExpiredRefreshTokens(cutoff time.Time) error {
	return s.db.Where("expires_at < ?", cutoff).
		Delete(&models.RefreshToken{}).Error
}
