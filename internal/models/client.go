package models

import (
	"strings"
	"time"
)

type OAuthClient struct {
	ClientID         string `gorm:"primaryKey"`
	ClientSecretHash string `gorm:"not null"` // SHA256(plaintext secret); plaintext shown once at creation
	Name             string `gorm:"not null"`
	RedirectURIs     string `gorm:"type:text;not null"` // comma-separated absolute URLs
	Scopes           string `gorm:"not null"`           // space-separated scopes
	IsActive         bool   `gorm:"not null;default:true"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// RedirectURIList splits the stored comma-separated redirect URIs.
func (c *OAuthClient) RedirectURIList() []string {
	if c.RedirectURIs == "" {
		return nil
	}
	return strings.Split(c.RedirectURIs, ",")
}

// ScopeList splits the stored space-separated scopes.
func (c *OAuthClient) ScopeList() []string {
	return strings.Fields(c.Scopes)
}

// HasRedirectURI reports whether uri exactly matches a registered
// redirect URI. Matching is byte-for-byte, never prefix-based.
func (c *OAuthClient) HasRedirectURI(uri string) bool {
	for _, registered := range c.RedirectURIList() {
		if registered == uri {
			return true
		}
	}
	return false
}

func (OAuthClient) TableName() string {
	return "oauth_clients"
}
