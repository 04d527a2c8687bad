package services

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// Client registry
	ErrClientNotFound      = errors.New("client not found")
	ErrClientInactive      = errors.New("client is deactivated")
	ErrClientNameRequired  = errors.New("client name is required")
	ErrInvalidRedirectURI  = errors.New("invalid redirect uri")
	ErrInvalidScope        = errors.New("invalid scope")
	ErrInvalidClientSecret = errors.New("invalid client secret")

	// Authorization flow
	ErrUnsupportedResponseType = errors.New("unsupported response type")
	ErrMissingParameter        = errors.New("missing required parameter")
	ErrRedirectURIMismatch     = errors.New("redirect uri does not match registration")
	ErrUnsupportedPKCEMethod   = errors.New("unsupported code challenge method")
	ErrInvalidAuthCode         = errors.New("invalid authorization code")
	ErrAuthCodeExpired         = errors.New("authorization code expired")
	ErrPKCEVerificationFailed  = errors.New("pkce verification failed")

	// Token exchange
	ErrRefreshTokenRevoked = errors.New("refresh token revoked")
	ErrUnsupportedGrant    = errors.New("unsupported grant type")

	// Accounts
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is deactivated")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrProviderMismatch   = errors.New("account registered with a different provider")
)

// isNotFound reports whether err is the store's missing-record error.
func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
