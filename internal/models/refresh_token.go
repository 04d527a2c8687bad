package models

import "time"

// RefreshToken is the persisted, revocable record backing a signed
// refresh token. Only the SHA-256 hash of the token is stored; a revoked
// or expired record must never mint a new access token.
type RefreshToken struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	UserID    string `gorm:"not null;index"`
	ClientID  string `gorm:"index"` // empty for first-party session tokens
	TokenHash string `gorm:"uniqueIndex;not null"`
	ExpiresAt time.Time
	Revoked   bool `gorm:"not null;default:false;index"`
	RevokedAt *time.Time
	CreatedAt time.Time
}

func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// IsUsable reports whether the record may still back a refresh exchange.
func (t *RefreshToken) IsUsable() bool {
	return !t.Revoked && !t.IsExpired()
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}
