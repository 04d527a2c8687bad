package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the type of audit event
type EventType string

const (
	// Authentication events
	EventUserRegistered        EventType = "USER_REGISTERED"
	EventAuthenticationSuccess EventType = "AUTHENTICATION_SUCCESS"
	EventAuthenticationFailure EventType = "AUTHENTICATION_FAILURE"
	EventLogout                EventType = "LOGOUT"

	// Authorization code flow events (RFC 6749)
	EventAuthorizationCodeIssued    EventType = "AUTHORIZATION_CODE_ISSUED"
	EventAuthorizationCodeExchanged EventType = "AUTHORIZATION_CODE_EXCHANGED"
	EventAuthorizationDenied        EventType = "AUTHORIZATION_DENIED"

	// Token events
	EventAccessTokenIssued                EventType = "ACCESS_TOKEN_ISSUED"
	EventTokenRefreshed                   EventType = "TOKEN_REFRESHED"
	EventTokenRevoked                     EventType = "TOKEN_REVOKED"
	EventClientCredentialsIssued          EventType = "CLIENT_CREDENTIALS_TOKEN_ISSUED" //nolint:gosec // G101: event name, not a credential
	EventRefreshTokenReuseAfterRevocation EventType = "REFRESH_TOKEN_REUSE"             //nolint:gosec // G101: event name, not a credential

	// Client registry events
	EventClientCreated       EventType = "CLIENT_CREATED"
	EventClientUpdated       EventType = "CLIENT_UPDATED"
	EventClientDeactivated   EventType = "CLIENT_DEACTIVATED"
	EventClientSecretRotated EventType = "CLIENT_SECRET_ROTATED" //nolint:gosec // G101: event name, not a credential

	// Security events
	EventRateLimitExceeded EventType = "RATE_LIMIT_EXCEEDED"
)

// EventStatus marks whether the audited action succeeded
type EventStatus string

const (
	StatusSuccess EventStatus = "success"
	StatusFailure EventStatus = "failure"
)

// AuditDetails stores additional event-specific information as JSON
type AuditDetails map[string]any

// Value implements the driver.Valuer interface for database storage
func (a AuditDetails) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil //nolint:nilnil // nil driver.Value represents SQL NULL
	}
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface for database retrieval
func (a *AuditDetails) Scan(value any) error {
	if value == nil {
		*a = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("failed to unmarshal AuditDetails value: %v", value)
	}

	result := make(AuditDetails)
	if err := json.Unmarshal(bytes, &result); err != nil {
		return err
	}

	*a = result
	return nil
}

// AuditLog is an append-only record of a security-relevant action.
type AuditLog struct {
	ID string `gorm:"primaryKey;type:varchar(36)" json:"id"`

	EventType EventType   `gorm:"type:varchar(50);index;not null" json:"event_type"`
	Status    EventStatus `gorm:"type:varchar(10);not null"       json:"status"`

	UserID   string `gorm:"type:varchar(36);index" json:"user_id,omitempty"`
	Provider string `gorm:"type:varchar(20)"       json:"provider,omitempty"`

	IPAddress string `gorm:"type:varchar(45);index" json:"ip_address"`
	UserAgent string `gorm:"type:varchar(500)"      json:"user_agent,omitempty"`

	Details      AuditDetails `gorm:"type:json" json:"details,omitempty"`
	ErrorMessage string       `gorm:"type:text" json:"error_message,omitempty"`

	// No UpdatedAt: logs are immutable
	CreatedAt time.Time `gorm:"index;not null" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
