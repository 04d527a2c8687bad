package store

import (
	"time"

	"github.com/elixpo/accounts/internal/models"
)

// Audit log operations

// CreateAuditLogs batch-inserts entries flushed from the audit buffer.
func (s *Store) CreateAuditLogs(entries []*models.AuditLog) error {
	if len(entries) == 0 {
		return nil
	}
	return s.db.Create(entries).Error
}

func (s *Store) CreateAuditLog(entry *models.AuditLog) error {
	return s.db.Create(entry).Error
}

// DeleteAuditLogsBefore enforces the retention window.
func (s *Store) DeleteAuditLogsBefore(cutoff time.Time) error {
	return s.db.Where("created_at < ?", cutoff).
		Delete(&models.AuditLog{}).Error
}
