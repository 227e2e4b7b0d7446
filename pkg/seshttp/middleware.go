package seshttp

import (
	"context"
	"net/http"

	"github.com/trussworks/userauth/pkg/auth"
	"github.com/trussworks/userauth/pkg/domain"
)

// Gate runs the configured Authenticator on every request before the wrapped handler.
type Gate struct {
	authenticator auth.Authenticator
	excluded      []string
	log           domain.LogService
	errorHandler  http.Handler
}

// NewGate returns a Gate. errorHandler is called with the failure stored in the request
// context, see ErrorFromContext.
func NewGate(authenticator auth.Authenticator, excluded []string, log domain.LogService, errorHandler http.Handler) Gate {
	return Gate{
		authenticator: authenticator,
		excluded:      excluded,
		log:           log,
		errorHandler:  errorHandler,
	}
}

// Middleware rejects requests that need authentication and don't have it. Authenticated
// requests carry their user in the context, see UserFromContext.
func (g Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		outcome, err := g.authenticator.Authenticate(r.URL.Path, g.excluded, r)
		if err != nil {
			g.log.WarnError(domain.SessionUnexpectedError, err, domain.LogFields{"path": r.URL.Path})
			g.errorHandler.ServeHTTP(w, reqWithValue(r, errorContextKey, err))
			return
		}

		switch outcome.Kind {
		case auth.MissingCredentials:
			g.errorHandler.ServeHTTP(w, reqWithValue(r, errorContextKey, domain.ErrMissingCredentials))
			return
		case auth.Unauthenticated:
			g.errorHandler.ServeHTTP(w, reqWithValue(r, errorContextKey, domain.ErrUnauthenticated))
			return
		case auth.Authenticated:
			r = reqWithValue(r, userContextKey, outcome.User)
		}

		next.ServeHTTP(w, r)
	})
}

// -- Context Storage
type authContextKey string

const (
	userContextKey  authContextKey = "USER"
	errorContextKey authContextKey = "ERROR"
)

func reqWithValue(r *http.Request, key interface{}, value interface{}) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), key, value))
}

// ContextWithUser returns a copy of ctx carrying user, as the gate does for authenticated requests.
func ContextWithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the user the gate authenticated, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userContextKey).(*domain.User)
	return user
}

// ErrorFromContext returns the error that caused the gate to call its error handler.
// It is domain.ErrMissingCredentials, domain.ErrUnauthenticated, or an error that wraps
// domain.ErrUnavailable. Outside of an error handler it returns nil.
func ErrorFromContext(ctx context.Context) error {
	err, _ := ctx.Value(errorContextKey).(error)
	return err
}
