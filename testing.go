package userauth

// Everything exported in this file is intended to make testing code that is protected by userauth easier.

import (
	"context"
	"errors"
	"net/http"

	"github.com/trussworks/userauth/pkg/domain"
	"github.com/trussworks/userauth/pkg/seshttp"
)

// ErrNoSessionStrategy is returned by the session test helpers when the strategy doesn't use sessions
var ErrNoSessionStrategy = errors.New("the configured strategy does not use sessions")

// ContextWithTestUser is not used in the operation of userauth. It is intended to
// be used in your tests, to mimic what the gate does for authenticated requests.
func ContextWithTestUser(ctx context.Context, user domain.User) context.Context {
	return seshttp.ContextWithUser(ctx, &user)
}

// AuthenticateUserAndAddToTestRequest is not used in the operation of userauth. It is intended to
// be used in your tests to create a valid session for a request, alleviating you from having to make
// a login request as part of the test.
func (a *UserAuth) AuthenticateUserAndAddToTestRequest(r *http.Request, userID string) error {
	if a.sessionAuth == nil {
		return ErrNoSessionStrategy
	}

	sessionKey, err := a.sessions.CreateSession(r.Context(), userID)
	if err != nil {
		return err
	}

	return a.sessionAuth.Cookies().AddSessionKeyToRequest(r, sessionKey)
}
