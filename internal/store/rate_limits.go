package store

import (
	"time"

	"github.com/elixpo/accounts/internal/models"
)

// Rate limit operations

func (s *Store) GetRateLimit(ip, endpoint string) (*models.RateLimit, error) {
	var entry models.RateLimit
	if err := s.db.Where("ip_address = ? AND endpoint = ?", ip, endpoint).
		First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// SaveRateLimit upserts a counter row. The composite primary key makes
// Save an insert-or-replace on both drivers.
func (s *Store) SaveRateLimit(entry *models.RateLimit) error {
	return s.db.Save(entry).Error
}

// DeleteStaleRateLimits removes rows whose window and block have both
// elapsed. The limiter relies only on lazy expiry, so this is storage
// hygiene, not a correctness requirement.
func (s *Store) DeleteStaleRateLimits() error {
	now := time.Now()
	return s.db.
		Where("window_reset_at < ? AND (blocked_until IS NULL OR blocked_until < ?)", now, now).
		Delete(&models.RateLimit{}).Error
}
