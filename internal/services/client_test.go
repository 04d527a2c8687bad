package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClientService(t *testing.T, isProduction bool) *ClientService {
	t.Helper()
	return NewClientService(setupTestStore(t), testConfig().AllowedScopes, isProduction)
}

func TestCreateClientReturnsSecretOnce(t *testing.T) {
	svc := newTestClientService(t, false)

	client, creds, err := svc.CreateClient(CreateClientRequest{
		Name:         "X",
		RedirectURIs: []string{"https://x.test/cb"},
		Scopes:       []string{"openid", "email"},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(creds.ClientID, "cli_"))
	assert.True(t, strings.HasPrefix(creds.ClientSecret, "secret_"))
	assert.NotEqual(t, creds.ClientSecret, client.ClientSecretHash)
	assert.NotContains(t, client.ClientSecretHash, "secret_")

	// fetching the client returns only the hash, never the plaintext
	fetched, err := svc.GetClient(creds.ClientID)
	require.NoError(t, err)
	assert.Equal(t, client.ClientSecretHash, fetched.ClientSecretHash)
}

func TestCreateClientValidation(t *testing.T) {
	svc := newTestClientService(t, false)

	_, _, err := svc.CreateClient(CreateClientRequest{
		Name:         "",
		RedirectURIs: []string{"https://x.test/cb"},
		Scopes:       []string{"openid"},
	})
	assert.ErrorIs(t, err, ErrClientNameRequired)

	_, _, err = svc.CreateClient(CreateClientRequest{
		Name:         "X",
		RedirectURIs: []string{"not-a-url"},
		Scopes:       []string{"openid"},
	})
	assert.ErrorIs(t, err, ErrInvalidRedirectURI)

	_, _, err = svc.CreateClient(CreateClientRequest{
		Name:         "X",
		RedirectURIs: []string{"ftp://x.test/cb"},
		Scopes:       []string{"openid"},
	})
	assert.ErrorIs(t, err, ErrInvalidRedirectURI)

	_, _, err = svc.CreateClient(CreateClientRequest{
		Name:         "X",
		RedirectURIs: []string{"https://x.test/cb"},
		Scopes:       []string{"admin:everything"},
	})
	assert.ErrorIs(t, err, ErrInvalidScope)
}

func TestCreateClientHTTPSRequiredInProduction(t *testing.T) {
	svc := newTestClientService(t, true)

	_, _, err := svc.CreateClient(CreateClientRequest{
		Name:         "X",
		RedirectURIs: []string{"http://x.test/cb"},
		Scopes:       []string{"openid"},
	})
	assert.ErrorIs(t, err, ErrInvalidRedirectURI)

	// localhost stays exempt for development tooling
	_, _, err = svc.CreateClient(CreateClientRequest{
		Name:         "X",
		RedirectURIs: []string{"http://localhost:3000/cb"},
		Scopes:       []string{"openid"},
	})
	assert.NoError(t, err)
}

func TestVerifyClientSecret(t *testing.T) {
	svc := newTestClientService(t, false)

	_, creds, err := svc.CreateClient(CreateClientRequest{
		Name:         "X",
		RedirectURIs: []string{"https://x.test/cb"},
		Scopes:       []string{"openid"},
	})
	require.NoError(t, err)

	assert.NoError(t, svc.VerifyClientSecret(creds.ClientID, creds.ClientSecret))
	assert.ErrorIs(t, svc.VerifyClientSecret(creds.ClientID, "secret_wrong"), ErrInvalidClientSecret)
	assert.ErrorIs(t, svc.VerifyClientSecret("cli_missing", creds.ClientSecret), ErrClientNotFound)
}

func TestRotateSecretInvalidatesOld(t *testing.T) {
	svc := newTestClientService(t, false)

	_, creds, err := svc.CreateClient(CreateClientRequest{
		Name:         "X",
		RedirectURIs: []string{"https://x.test/cb"},
		Scopes:       []string{"openid"},
	})
	require.NoError(t, err)

	newSecret, err := svc.RotateSecret(creds.ClientID)
	require.NoError(t, err)
	assert.NotEqual(t, creds.ClientSecret, newSecret)

	assert.Error(t, svc.VerifyClientSecret(creds.ClientID, creds.ClientSecret))
	assert.NoError(t, svc.VerifyClientSecret(creds.ClientID, newSecret))
}

func TestDeactivatedClientRejectedEverywhere(t *testing.T) {
	svc := newTestClientService(t, false)

	_, creds, err := svc.CreateClient(CreateClientRequest{
		Name:         "X",
		RedirectURIs: []string{"https://x.test/cb"},
		Scopes:       []string{"openid"},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateClient(creds.ClientID))

	_, err = svc.GetActiveClient(creds.ClientID)
	assert.ErrorIs(t, err, ErrClientInactive)
	assert.ErrorIs(t, svc.VerifyClientSecret(creds.ClientID, creds.ClientSecret), ErrClientInactive)
}

func TestUpdateClientPartial(t *testing.T) {
	svc := newTestClientService(t, false)

	_, creds, err := svc.CreateClient(CreateClientRequest{
		Name:         "X",
		RedirectURIs: []string{"https://x.test/cb"},
		Scopes:       []string{"openid", "email"},
	})
	require.NoError(t, err)

	name := "Renamed"
	updated, err := svc.UpdateClient(creds.ClientID, UpdateClientRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	// untouched fields survive
	assert.Equal(t, "openid email", updated.Scopes)
	assert.Equal(t, "https://x.test/cb", updated.RedirectURIs)
}
