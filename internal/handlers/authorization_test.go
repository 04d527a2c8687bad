package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getAuthorize(t *testing.T, env *testEnv, params url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, "/authorize?"+params.Encode(), nil)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestAuthorizeReturnsConsentContext(t *testing.T) {
	env := setupTestEnv(t)
	clientID, _ := createTestClient(t, env, "https://app.example.com/cb")

	w := getAuthorize(t, env, url.Values{
		"response_type": {"code"},
		"client_id":     {clientID},
		"redirect_uri":  {"https://app.example.com/cb"},
		"state":         {"abc123"},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeJSON(t, w)
	assert.Equal(t, "abc123", resp["state"])
	assert.Equal(t, "openid email", resp["scope"]) // defaults to all client scopes

	client, ok := resp["client"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, clientID, client["client_id"])
	assert.Equal(t, "Test App", client["name"])
}

func TestAuthorizeValidationErrors(t *testing.T) {
	env := setupTestEnv(t)
	clientID, _ := createTestClient(t, env, "https://app.example.com/cb")

	tests := []struct {
		name      string
		params    url.Values
		wantError string
	}{
		{
			name: "missing state",
			params: url.Values{
				"response_type": {"code"},
				"client_id":     {clientID},
				"redirect_uri":  {"https://app.example.com/cb"},
			},
			wantError: "invalid_request",
		},
		{
			name: "wrong response type",
			params: url.Values{
				"response_type": {"token"},
				"client_id":     {clientID},
				"redirect_uri":  {"https://app.example.com/cb"},
				"state":         {"s"},
			},
			wantError: "unsupported_response_type",
		},
		{
			name: "unknown client",
			params: url.Values{
				"response_type": {"code"},
				"client_id":     {"cli_unknown"},
				"redirect_uri":  {"https://app.example.com/cb"},
				"state":         {"s"},
			},
			wantError: "unauthorized_client",
		},
		{
			name: "trailing slash on redirect",
			params: url.Values{
				"response_type": {"code"},
				"client_id":     {clientID},
				"redirect_uri":  {"https://app.example.com/cb/"},
				"state":         {"s"},
			},
			wantError: "invalid_request",
		},
		{
			name: "scope outside client grant",
			params: url.Values{
				"response_type": {"code"},
				"client_id":     {clientID},
				"redirect_uri":  {"https://app.example.com/cb"},
				"state":         {"s"},
				"scope":         {"profile"},
			},
			wantError: "invalid_scope",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := getAuthorize(t, env, tc.params)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.wantError, decodeJSON(t, w)["error"])
		})
	}
}

func TestConsentApprovalIssuesCode(t *testing.T) {
	env := setupTestEnv(t)
	clientID, _ := createTestClient(t, env, "https://app.example.com/cb")
	_, accessToken := registerTestUser(t, env, "user@example.com")

	w := postJSONWithBearer(t, env, "/authorize", accessToken, map[string]any{
		"client_id":    clientID,
		"redirect_uri": "https://app.example.com/cb",
		"state":        "abc123",
		"approved":     true,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	redirectURL, ok := decodeJSON(t, w)["redirect_url"].(string)
	require.True(t, ok)

	parsed, err := url.Parse(redirectURL)
	require.NoError(t, err)
	assert.Equal(t, "app.example.com", parsed.Host)
	assert.Equal(t, "abc123", parsed.Query().Get("state"))
	assert.NotEmpty(t, parsed.Query().Get("code"))
	assert.Contains(t, parsed.Query().Get("code"), "code_")
}

func TestConsentDenialRedirectsWithAccessDenied(t *testing.T) {
	env := setupTestEnv(t)
	clientID, _ := createTestClient(t, env, "https://app.example.com/cb")
	_, accessToken := registerTestUser(t, env, "user@example.com")

	w := postJSONWithBearer(t, env, "/authorize", accessToken, map[string]any{
		"client_id":    clientID,
		"redirect_uri": "https://app.example.com/cb",
		"state":        "abc123",
		"approved":     false,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	redirectURL, ok := decodeJSON(t, w)["redirect_url"].(string)
	require.True(t, ok)

	parsed, err := url.Parse(redirectURL)
	require.NoError(t, err)
	assert.Equal(t, "access_denied", parsed.Query().Get("error"))
	assert.Equal(t, "abc123", parsed.Query().Get("state"))
	assert.Empty(t, parsed.Query().Get("code"))
}

func TestConsentRequiresAuthentication(t *testing.T) {
	env := setupTestEnv(t)
	clientID, _ := createTestClient(t, env, "https://app.example.com/cb")

	w := postJSON(t, env.router, "/authorize", map[string]any{
		"client_id":    clientID,
		"redirect_uri": "https://app.example.com/cb",
		"state":        "abc123",
		"approved":     true,
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "access_denied", decodeJSON(t, w)["error"])
}

func TestConsentAcceptsSessionCookie(t *testing.T) {
	env := setupTestEnv(t)
	clientID, _ := createTestClient(t, env, "https://app.example.com/cb")
	_, accessToken := registerTestUser(t, env, "user@example.com")

	payload := map[string]any{
		"client_id":    clientID,
		"redirect_uri": "https://app.example.com/cb",
		"state":        "s1",
		"approved":     true,
	}
	w := postJSONRequest(t, env, "/authorize", payload, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: CookieAccessToken, Value: accessToken})
	})

	assert.Equal(t, http.StatusOK, w.Code)
}
