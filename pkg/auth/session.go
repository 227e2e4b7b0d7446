package auth

import (
	"context"
	"errors"
	"net/http"

	pkgerrors "github.com/pkg/errors"

	"github.com/trussworks/userauth/pkg/cookie"
	"github.com/trussworks/userauth/pkg/domain"
	"github.com/trussworks/userauth/pkg/session"
)

// SessionAuth authenticates requests by the session cookie. Whether sessions
// expire, and where they are stored, is decided by the session.Service it wraps.
type SessionAuth struct {
	sessions *session.Service
	users    domain.UserRepository
	verifier domain.CredentialVerifier
	cookies  cookie.Service
	log      domain.LogService
}

// NewSessionAuth returns a SessionAuth
func NewSessionAuth(sessions *session.Service, users domain.UserRepository, verifier domain.CredentialVerifier, cookies cookie.Service, log domain.LogService) *SessionAuth {
	return &SessionAuth{
		sessions: sessions,
		users:    users,
		verifier: verifier,
		cookies:  cookies,
		log:      log,
	}
}

// Cookies returns the cookie service used to read and write the session cookie
func (s *SessionAuth) Cookies() cookie.Service {
	return s.cookies
}

// Authenticate gates a request on its session cookie. A request carrying only an
// Authorization header still counts as having presented credentials.
func (s *SessionAuth) Authenticate(path string, excluded []string, r *http.Request) (Outcome, error) {
	return authenticate(path, excluded, r, s.log, s.hasCredentials, s.CurrentUser)
}

func (s *SessionAuth) hasCredentials(r *http.Request) bool {
	if hasAuthorizationHeader(r) {
		return true
	}
	_, present := s.cookies.SessionKeyFromRequest(r)
	return present
}

// CurrentUser returns the user behind the request's session cookie, or nil when there is
// no cookie, the session is unknown or expired, or the user has since been deleted.
func (s *SessionAuth) CurrentUser(r *http.Request) (*domain.User, error) {
	sessionKey, present := s.cookies.SessionKeyFromRequest(r)
	if !present || sessionKey == "" {
		return nil, nil
	}

	ctx := r.Context()
	userID, err := s.sessions.ResolveUserID(ctx, sessionKey)
	if err != nil {
		if errors.Is(err, domain.ErrValidSessionNotFound) {
			return nil, nil
		}
		return nil, err
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.log.Info(domain.SessionUserMissing, domain.LogFields{"session_hash": session.HashSessionKey(sessionKey)})
			return nil, nil
		}
		return nil, domain.Unavailable(pkgerrors.Wrap(err, "failed to load session user"))
	}

	return &user, nil
}

// Login checks a user's password and opens a new session for them.
// It returns a domain.ValidationError for a blank email or password, ErrUserNotFound
// when no user has the email and ErrBadCredentials when the password is wrong.
func (s *SessionAuth) Login(ctx context.Context, email string, password string) (string, domain.User, error) {
	if email == "" {
		return "", domain.User{}, domain.ValidationError{Field: "email"}
	}
	if password == "" {
		return "", domain.User{}, domain.ValidationError{Field: "password"}
	}

	users, err := s.users.Find(ctx, domain.Filter{domain.FieldEmail: email})
	if err != nil {
		return "", domain.User{}, domain.Unavailable(pkgerrors.Wrap(err, "failed to look up user"))
	}
	if len(users) == 0 {
		s.log.Info(domain.LoginUnknownEmail, domain.LogFields{})
		return "", domain.User{}, domain.ErrUserNotFound
	}

	user := users[0]
	ok, err := s.verifier.Verify(password, user.HashedPassword)
	if err != nil {
		return "", domain.User{}, domain.Unavailable(pkgerrors.Wrap(err, "failed to verify password"))
	}
	if !ok {
		s.log.Info(domain.LoginWrongPassword, domain.LogFields{"user_id": user.ID})
		return "", domain.User{}, domain.ErrBadCredentials
	}

	sessionKey, err := s.sessions.CreateSession(ctx, user.ID)
	if err != nil {
		return "", domain.User{}, err
	}

	return sessionKey, user, nil
}

// Logout destroys the session named by the request's cookie and reports whether one was destroyed.
func (s *SessionAuth) Logout(r *http.Request) (bool, error) {
	sessionKey, present := s.cookies.SessionKeyFromRequest(r)
	if !present || sessionKey == "" {
		return false, nil
	}

	err := s.sessions.DestroySession(r.Context(), sessionKey)
	if err != nil {
		if errors.Is(err, domain.ErrValidSessionNotFound) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}
