package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/elixpo/accounts/internal/config"
	"github.com/elixpo/accounts/internal/metrics"
	"github.com/elixpo/accounts/internal/services"
	"github.com/elixpo/accounts/internal/store"
	"github.com/elixpo/accounts/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// testEnv wires the full handler surface against an in-memory store.
type testEnv struct {
	router   *gin.Engine
	store    *store.Store
	config   *config.Config
	users    *services.UserService
	tokens   *services.TokenService
	clients  *services.ClientService
	authz    *services.AuthorizationService
	provider *token.Provider
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		BaseURL:                "http://localhost:8080",
		SigningMode:            config.SigningModeHMAC,
		JWTSecret:              "test-secret",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 720 * time.Hour,
		AuthCodeExpiration:     10 * time.Minute,
		EnableTokenRotation:    true,
		AllowedScopes:          []string{"openid", "profile", "email", "offline_access"},
	}

	s, err := store.New("sqlite", ":memory:")
	require.NoError(t, err)
	sqlDB, err := s.DB().DB()
	require.NoError(t, err)
	// Each sqlite :memory: connection is its own database
	sqlDB.SetMaxOpenConns(1)

	signer, err := token.NewSigner(cfg)
	require.NoError(t, err)
	provider := token.NewProvider(cfg, signer)

	recorder := metrics.NewNoopRecorder()
	auditSvc := services.NewAuditService(s, false, 0)
	userSvc := services.NewUserService(s, auditSvc)
	tokenSvc := services.NewTokenService(s, provider, auditSvc, cfg)
	clientSvc := services.NewClientService(s, cfg.AllowedScopes, false)
	authzSvc := services.NewAuthorizationService(s, cfg, clientSvc, auditSvc)

	authHandler := NewAuthHandler(userSvc, tokenSvc, cfg, recorder)
	authzHandler := NewAuthorizationHandler(authzSvc, tokenSvc, recorder)
	tokenHandler := NewTokenHandler(tokenSvc, authzSvc, clientSvc, userSvc, recorder)
	clientHandler := NewClientHandler(clientSvc, auditSvc)
	ssoHandler := NewSSOHandler(tokenSvc, recorder)
	healthHandler := NewHealthHandler(s)

	r := gin.New()
	r.GET("/health", healthHandler.Health)
	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)
	r.POST("/logout", authHandler.Logout)
	r.GET("/authorize", authzHandler.Authorize)
	r.POST("/authorize", authzHandler.Consent)
	r.POST("/token", tokenHandler.Token)
	r.POST("/revoke", tokenHandler.Revoke)
	r.GET("/sso/verify", ssoHandler.Verify)
	r.POST("/sso/verify", ssoHandler.Verify)
	r.POST("/oauth-clients", clientHandler.Create)
	r.GET("/oauth-clients/:client_id", clientHandler.Get)
	r.PUT("/oauth-clients/:client_id", clientHandler.Update)
	r.DELETE("/oauth-clients/:client_id", clientHandler.Deactivate)
	r.POST("/oauth-clients/:client_id/rotate-secret", clientHandler.RotateSecret)

	return &testEnv{
		router:   r,
		store:    s,
		config:   cfg,
		users:    userSvc,
		tokens:   tokenSvc,
		clients:  clientSvc,
		authz:    authzSvc,
		provider: provider,
	}
}

// postJSON sends a JSON body and decodes the JSON response.
func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// postForm sends an x-www-form-urlencoded body.
func postForm(t *testing.T, r *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// postJSONRequest sends a JSON body after letting the caller mutate the
// request (cookies, headers).
func postJSONRequest(
	t *testing.T,
	env *testEnv,
	path string,
	body any,
	mutate func(*http.Request),
) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func postJSONWithBearer(
	t *testing.T,
	env *testEnv,
	path, accessToken string,
	body any,
) *httptest.ResponseRecorder {
	t.Helper()
	return postJSONRequest(t, env, path, body, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	})
}

func newRecorderServe(env *testEnv, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

// registerTestUser creates an email-provider account and returns its id
// and a valid access token.
func registerTestUser(t *testing.T, env *testEnv, email string) (string, string) {
	t.Helper()
	user, err := env.users.Register(context.Background(), services.RegisterRequest{
		Email:    email,
		Password: "correct horse battery staple",
		Provider: "email",
	})
	require.NoError(t, err)

	accessToken, err := env.provider.CreateAccessToken(user.ID, user.Email, "")
	require.NoError(t, err)
	return user.ID, accessToken
}

// createTestClient registers an OAuth client and returns it with the
// plaintext secret.
func createTestClient(t *testing.T, env *testEnv, redirectURI string) (clientID, clientSecret string) {
	t.Helper()
	_, creds, err := env.clients.CreateClient(services.CreateClientRequest{
		Name:         "Test App",
		RedirectURIs: []string{redirectURI},
		Scopes:       []string{"openid", "email"},
	})
	require.NoError(t, err)
	return creds.ClientID, creds.ClientSecret
}
