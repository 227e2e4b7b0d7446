package cookie

import (
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/pkg/errors"
)

// DefaultName is the session cookie name used when none is configured
const DefaultName = "_my_session_id"

// Service reads and writes the session cookie. With a hash key the value is
// signed with securecookie and unsigned or tampered cookies read as empty.
type Service struct {
	name   string
	secure bool
	codec  *securecookie.SecureCookie
}

// NewService returns a cookie Service. An empty name uses DefaultName; a nil hashKey disables signing.
func NewService(name string, secure bool, hashKey []byte) Service {
	if name == "" {
		name = DefaultName
	}

	s := Service{
		name:   name,
		secure: secure,
	}

	if len(hashKey) > 0 {
		s.codec = securecookie.New(hashKey, nil)
	}

	return s
}

// Name returns the cookie name
func (s Service) Name() string {
	return s.name
}

func (s Service) encode(sessionKey string) (string, error) {
	if s.codec == nil {
		return sessionKey, nil
	}
	encoded, err := s.codec.Encode(s.name, sessionKey)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign session cookie")
	}
	return encoded, nil
}

func (s Service) sessionCookie(value string) *http.Cookie {
	// The domain must be "" for localhost to work
	// Secure must be false for http to work
	return &http.Cookie{
		Secure:   s.secure,
		Name:     s.name,
		Value:    value,
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		// Omit MaxAge and Expires to make this a session cookie.
	}
}

// AddSessionKeyToResponse sets the session cookie on a response
func (s Service) AddSessionKeyToResponse(w http.ResponseWriter, sessionKey string) error {
	value, err := s.encode(sessionKey)
	if err != nil {
		return err
	}

	http.SetCookie(w, s.sessionCookie(value))
	return nil
}

// AddSessionKeyToRequest adds the session cookie to a request
func (s Service) AddSessionKeyToRequest(r *http.Request, sessionKey string) error {
	value, err := s.encode(sessionKey)
	if err != nil {
		return err
	}

	r.AddCookie(s.sessionCookie(value))
	return nil
}

// SessionKeyFromRequest returns the session key carried by r. present is true whenever
// the named cookie exists, even if its value is empty or fails verification.
func (s Service) SessionKeyFromRequest(r *http.Request) (sessionKey string, present bool) {
	c, err := r.Cookie(s.name)
	if err != nil {
		return "", false
	}

	if s.codec == nil {
		return c.Value, true
	}

	var decoded string
	if err := s.codec.Decode(s.name, c.Value, &decoded); err != nil {
		return "", true
	}
	return decoded, true
}

// DeleteSessionCookie tells the client to drop the session cookie
func (s Service) DeleteSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
	})
}
