package models

import "time"

// PKCE challenge methods (RFC 7636)
const (
	PKCEMethodS256  = "S256"
	PKCEMethodPlain = "plain"
)

// AuthRequest stores OAuth 2.0 authorization codes (RFC 6749). Codes are
// short-lived (default 10 minutes) and single-use.
type AuthRequest struct {
	ID string `gorm:"primaryKey;type:varchar(36)"`

	// Code storage: SHA256 hash for security, prefix for quick lookup
	CodeHash   string `gorm:"uniqueIndex;not null"`   // SHA256(plainCode)
	CodePrefix string `gorm:"index;not null;size:16"` // leading chars of the plain code

	ClientID string `gorm:"not null;index"`
	UserID   string `gorm:"not null;index"`

	RedirectURI string `gorm:"not null"`
	Scopes      string `gorm:"not null"` // space-separated
	State       string `gorm:"not null"` // opaque caller value, echoed verbatim
	Nonce       string

	// PKCE (RFC 7636)
	CodeChallenge       string `gorm:"default:''"` // empty = PKCE not used
	CodeChallengeMethod string `gorm:"default:''"` // "S256" or "plain"

	ExpiresAt  time.Time
	ConsumedAt *time.Time // Set exactly once at exchange; prevents replay
	CreatedAt  time.Time
}

func (a *AuthRequest) IsExpired() bool {
	return time.Now().After(a.ExpiresAt)
}

func (a *AuthRequest) IsConsumed() bool {
	return a.ConsumedAt != nil
}

func (AuthRequest) TableName() string {
	return "auth_requests"
}
