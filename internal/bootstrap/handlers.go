package bootstrap

import (
	"github.com/elixpo/accounts/internal/handlers"
)

// handlerSet groups all HTTP handlers
type handlerSet struct {
	auth          *handlers.AuthHandler
	authorization *handlers.AuthorizationHandler
	token         *handlers.TokenHandler
	client        *handlers.ClientHandler
	sso           *handlers.SSOHandler
	health        *handlers.HealthHandler
}

func initializeHandlers(app *Application) handlerSet {
	return handlerSet{
		auth: handlers.NewAuthHandler(
			app.UserService, app.TokenService, app.Config, app.MetricsRecorder,
		),
		authorization: handlers.NewAuthorizationHandler(
			app.AuthorizationService, app.TokenService, app.MetricsRecorder,
		),
		token: handlers.NewTokenHandler(
			app.TokenService, app.AuthorizationService, app.ClientService,
			app.UserService, app.MetricsRecorder,
		),
		client: handlers.NewClientHandler(app.ClientService, app.AuditService),
		sso:    handlers.NewSSOHandler(app.TokenService, app.MetricsRecorder),
		health: handlers.NewHealthHandler(app.DB),
	}
}
