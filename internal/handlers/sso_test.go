package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSOVerifyQueryParam(t *testing.T) {
	env := setupTestEnv(t)
	userID, accessToken := registerTestUser(t, env, "user@example.com")

	w := getPath(t, env, "/sso/verify?token="+accessToken)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeJSON(t, w)
	assert.Equal(t, true, resp["valid"])
	assert.Equal(t, userID, resp["user_id"])
	assert.Equal(t, "user", resp["subject_type"])
	assert.Equal(t, "user@example.com", resp["email"])
	assert.NotNil(t, resp["expires_at"])
}

func TestSSOVerifyBearerHeader(t *testing.T) {
	env := setupTestEnv(t)
	userID, accessToken := registerTestUser(t, env, "user@example.com")

	req, err := http.NewRequest(http.MethodPost, "/sso/verify", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	w := newRecorderServe(env, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, decodeJSON(t, w)["user_id"])
}

func TestSSOVerifyInvalidToken(t *testing.T) {
	env := setupTestEnv(t)

	w := getPath(t, env, "/sso/verify?token=garbage")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	resp := decodeJSON(t, w)
	assert.Equal(t, false, resp["valid"])
	assert.Equal(t, "invalid_token", resp["error"])
}

func TestSSOVerifyMissingToken(t *testing.T) {
	env := setupTestEnv(t)

	w := getPath(t, env, "/sso/verify")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing_token", decodeJSON(t, w)["error"])
}

func TestSSOVerifyRejectsRefreshToken(t *testing.T) {
	env := setupTestEnv(t)
	userID, _ := registerTestUser(t, env, "user@example.com")

	refreshToken, err := env.provider.CreateRefreshToken(userID, "")
	require.NoError(t, err)

	w := getPath(t, env, "/sso/verify?token="+refreshToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSSOVerifyClientSubjectType(t *testing.T) {
	env := setupTestEnv(t)
	clientID, _ := createTestClient(t, env, "https://app.example.com/cb")

	accessToken, err := env.provider.CreateAccessToken("client:"+clientID, "", "")
	require.NoError(t, err)

	w := getPath(t, env, "/sso/verify?token="+accessToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "client", decodeJSON(t, w)["subject_type"])
}

func TestHealthEndpoint(t *testing.T) {
	env := setupTestEnv(t)

	w := getPath(t, env, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeJSON(t, w)["status"])
}
