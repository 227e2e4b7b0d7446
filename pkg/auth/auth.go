// Package auth holds the authentication strategies a request gate can be configured with.
package auth

import (
	"net/http"

	"github.com/trussworks/userauth/pkg/domain"
	"github.com/trussworks/userauth/pkg/pathpolicy"
)

// OutcomeKind is the verdict of an Authenticator for one request.
type OutcomeKind int

const (
	// NoAuthNeeded means the path is excluded from authentication
	NoAuthNeeded OutcomeKind = iota
	// MissingCredentials means the request carried neither an authorization header nor a session cookie
	MissingCredentials
	// Unauthenticated means credentials were presented but did not resolve to a user
	Unauthenticated
	// Authenticated means the request belongs to Outcome.User
	Authenticated
)

func (k OutcomeKind) String() string {
	switch k {
	case NoAuthNeeded:
		return "no-auth-needed"
	case MissingCredentials:
		return "missing-credentials"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	}
	return "unknown"
}

// Outcome is the result of Authenticate. User is only set for Authenticated.
type Outcome struct {
	Kind OutcomeKind
	User *domain.User
}

// Authenticator is implemented by every strategy.
// Expected failures are returned as outcomes or a nil user; the error return is
// reserved for infrastructure failures, which satisfy errors.Is(err, domain.ErrUnavailable).
type Authenticator interface {
	Authenticate(path string, excluded []string, r *http.Request) (Outcome, error)
	CurrentUser(r *http.Request) (*domain.User, error)
}

// presenceFunc reports whether the request carries any credentials at all.
type presenceFunc func(r *http.Request) bool

// authenticate runs the gate shared by the credential-checking strategies.
func authenticate(path string, excluded []string, r *http.Request, log domain.LogService, present presenceFunc, currentUser func(*http.Request) (*domain.User, error)) (Outcome, error) {
	if !pathpolicy.RequiresAuth(path, excluded) {
		return Outcome{Kind: NoAuthNeeded}, nil
	}

	if !present(r) {
		log.Info(domain.RequestIsMissingCredentials, domain.LogFields{"path": path})
		return Outcome{Kind: MissingCredentials}, nil
	}

	user, err := currentUser(r)
	if err != nil {
		return Outcome{}, err
	}

	if user == nil {
		log.Info(domain.RequestIsUnauthenticated, domain.LogFields{"path": path})
		return Outcome{Kind: Unauthenticated}, nil
	}

	return Outcome{Kind: Authenticated, User: user}, nil
}

func hasAuthorizationHeader(r *http.Request) bool {
	return r.Header.Get("Authorization") != ""
}

// NoAuth lets every request through anonymously.
type NoAuth struct{}

// Authenticate always returns NoAuthNeeded
func (NoAuth) Authenticate(path string, excluded []string, r *http.Request) (Outcome, error) {
	return Outcome{Kind: NoAuthNeeded}, nil
}

// CurrentUser never finds a user
func (NoAuth) CurrentUser(r *http.Request) (*domain.User, error) {
	return nil, nil
}
