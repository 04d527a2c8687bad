package models

import (
	"time"
)

// Identity providers
const (
	ProviderEmail  = "email"
	ProviderGoogle = "google"
	ProviderGithub = "github"
)

// Identity links a user to an authentication provider. A user owns zero
// or more identities; (provider, provider_user_id) is unique.
type Identity struct {
	ID             string `gorm:"primaryKey;type:varchar(36)"`
	UserID         string `gorm:"not null;index"`
	Provider       string `gorm:"not null;uniqueIndex:idx_provider_subject"`
	ProviderUserID string `gorm:"not null;uniqueIndex:idx_provider_subject"`
	ProviderEmail  string
	Verified       bool `gorm:"not null;default:false"`
	CreatedAt      time.Time
}

func (Identity) TableName() string {
	return "identities"
}
