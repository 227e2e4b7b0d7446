package auth

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/trussworks/userauth/pkg/domain"
)

// BasicAuth authenticates every request from an "Authorization: Basic" header
// carrying base64(email:password).
type BasicAuth struct {
	users    domain.UserRepository
	verifier domain.CredentialVerifier
	log      domain.LogService
}

// NewBasicAuth returns a BasicAuth
func NewBasicAuth(users domain.UserRepository, verifier domain.CredentialVerifier, log domain.LogService) BasicAuth {
	return BasicAuth{
		users:    users,
		verifier: verifier,
		log:      log,
	}
}

// Authenticate gates a request on its Authorization header.
func (b BasicAuth) Authenticate(path string, excluded []string, r *http.Request) (Outcome, error) {
	return authenticate(path, excluded, r, b.log, hasAuthorizationHeader, b.CurrentUser)
}

// CurrentUser returns the user named by the header, or nil when the header is
// missing, malformed, names no user or carries the wrong password.
func (b BasicAuth) CurrentUser(r *http.Request) (*domain.User, error) {
	email, password, ok := r.BasicAuth()
	if !ok || email == "" {
		return nil, nil
	}

	return b.userFromCredentials(r, email, password)
}

func (b BasicAuth) userFromCredentials(r *http.Request, email string, password string) (*domain.User, error) {
	users, err := b.users.Find(r.Context(), domain.Filter{domain.FieldEmail: email})
	if err != nil {
		return nil, domain.Unavailable(errors.Wrap(err, "failed to look up user"))
	}
	if len(users) == 0 {
		return nil, nil
	}

	user := users[0]
	ok, err := b.verifier.Verify(password, user.HashedPassword)
	if err != nil {
		return nil, domain.Unavailable(errors.Wrap(err, "failed to verify password"))
	}
	if !ok {
		return nil, nil
	}

	return &user, nil
}
