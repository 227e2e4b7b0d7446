// Package userauth gates a net/http API behind one of a closed set of authentication
// strategies, chosen from configuration: none, Basic, cookie sessions, and cookie
// sessions that expire, kept in memory, scs, redis or postgres.
// It logs every session lifecycle event, never with the raw session key.
package userauth

import (
	"context"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/trussworks/userauth/pkg/auth"
	"github.com/trussworks/userauth/pkg/config"
	"github.com/trussworks/userauth/pkg/domain"
	"github.com/trussworks/userauth/pkg/seshttp"
	"github.com/trussworks/userauth/pkg/session"
)

// UserAuth is the configured authentication strategy plus the handlers that go with it.
type UserAuth struct {
	cfg          config.Config
	log          domain.LogService
	errorHandler http.Handler
	clock        session.Clock
	db           *sqlx.DB
	redis        *redis.Client
	store        domain.SessionStorageService

	users    domain.UserRepository
	verifier domain.CredentialVerifier

	authenticator auth.Authenticator
	sessionAuth   *auth.SessionAuth
	sessions      *session.Service
	accounts      auth.Accounts
}

// Authenticator returns the strategy selected by AUTH_TYPE
func (a *UserAuth) Authenticator() auth.Authenticator {
	return a.authenticator
}

// SessionAuth returns the session strategy, or nil when the strategy is not session based.
func (a *UserAuth) SessionAuth() *auth.SessionAuth {
	return a.sessionAuth
}

// Accounts returns the account service over the configured user repository
func (a *UserAuth) Accounts() auth.Accounts {
	return a.accounts
}

// Middleware returns the request gate for the configured strategy and excluded paths.
// Authenticated requests carry their user, see UserFromContext.
func (a *UserAuth) Middleware(next http.Handler) http.Handler {
	gate := seshttp.NewGate(a.authenticator, a.cfg.ExcludedPaths, a.log, a.errorHandler)
	return gate.Middleware(next)
}

// Handler returns the API routes behind the gate.
func (a *UserAuth) Handler() http.Handler {
	users := seshttp.NewUserHandlers(a.users, a.accounts, a.log)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/status", seshttp.Status)
	mux.HandleFunc("GET /api/v1/status/{$}", seshttp.Status)
	mux.HandleFunc("GET /api/v1/stats/{$}", users.Stats)
	mux.HandleFunc("GET /api/v1/unauthorized/{$}", seshttp.Unauthorized)
	mux.HandleFunc("GET /api/v1/forbidden/{$}", seshttp.Forbidden)

	mux.HandleFunc("GET /api/v1/users", users.List)
	mux.HandleFunc("POST /api/v1/users", users.Create)
	mux.HandleFunc("GET /api/v1/users/{user_id}", users.Get)
	mux.HandleFunc("PUT /api/v1/users/{user_id}", users.Update)
	mux.HandleFunc("DELETE /api/v1/users/{user_id}", users.Delete)

	mux.HandleFunc("POST /api/v1/reset_password/{$}", users.ResetPasswordToken)
	mux.HandleFunc("PUT /api/v1/reset_password/{$}", users.UpdatePassword)

	if a.sessionAuth != nil {
		sessions := seshttp.NewSessionHandlers(a.sessionAuth, a.log)
		mux.HandleFunc("POST /api/v1/auth_session/login", sessions.Login)
		mux.HandleFunc("POST /api/v1/auth_session/login/{$}", sessions.Login)
		mux.HandleFunc("DELETE /api/v1/auth_session/logout", sessions.Logout)
		mux.HandleFunc("DELETE /api/v1/auth_session/logout/{$}", sessions.Logout)
	}

	mux.HandleFunc("/", seshttp.NotFound)

	return a.Middleware(mux)
}

// UserFromContext returns the user the gate authenticated, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *domain.User {
	return seshttp.UserFromContext(ctx)
}

// ErrorFromContext returns the error that caused the gate to call the error handler:
// domain.ErrMissingCredentials, domain.ErrUnauthenticated, or an error wrapping domain.ErrUnavailable.
func ErrorFromContext(ctx context.Context) error {
	return seshttp.ErrorFromContext(ctx)
}

// Close releases the session storage
func (a *UserAuth) Close() error {
	if a.sessions != nil {
		return a.sessions.Close()
	}
	return nil
}
