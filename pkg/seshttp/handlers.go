package seshttp

import (
	"errors"
	"net/http"

	"github.com/trussworks/userauth/pkg/auth"
	"github.com/trussworks/userauth/pkg/domain"
)

// Error messages returned by the session handlers
const (
	noUserForEmailMessage = "no user found for this email"
	notFoundMessage       = "Not found"
)

// SessionHandlers serves login and logout for the cookie-session strategies.
type SessionHandlers struct {
	sessions *auth.SessionAuth
	log      domain.LogService
}

// NewSessionHandlers returns SessionHandlers
func NewSessionHandlers(sessions *auth.SessionAuth, log domain.LogService) SessionHandlers {
	return SessionHandlers{
		sessions: sessions,
		log:      log,
	}
}

// Login reads the form values email and password, opens a session, sets the session
// cookie and responds with the user.
func (h SessionHandlers) Login(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	sessionKey, user, err := h.sessions.Login(r.Context(), email, password)
	if err != nil {
		var validation domain.ValidationError
		switch {
		case errors.As(err, &validation):
			RespondWithStructuredError(w, validation.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrUserNotFound):
			RespondWithStructuredError(w, noUserForEmailMessage, http.StatusNotFound)
		case errors.Is(err, domain.ErrBadCredentials):
			RespondWithStructuredError(w, domain.ErrBadCredentials.Error(), http.StatusUnauthorized)
		default:
			h.log.WarnError(domain.SessionCreationFailed, err, domain.LogFields{})
			RespondWithStructuredError(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	if err := h.sessions.Cookies().AddSessionKeyToResponse(w, sessionKey); err != nil {
		h.log.WarnError(domain.SessionCreationFailed, err, domain.LogFields{})
		RespondWithStructuredError(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	RespondWithJSON(w, user.ToJSON(), http.StatusOK)
}

// Logout destroys the session named by the cookie. It responds {} on success and 404
// when there was no session to destroy.
func (h SessionHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	destroyed, err := h.sessions.Logout(r)
	if err != nil {
		h.log.WarnError(domain.SessionUnexpectedError, err, domain.LogFields{})
		RespondWithStructuredError(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if !destroyed {
		RespondWithStructuredError(w, notFoundMessage, http.StatusNotFound)
		return
	}

	h.sessions.Cookies().DeleteSessionCookie(w)
	RespondWithJSON(w, struct{}{}, http.StatusOK)
}

// Status always responds {"status": "OK"}
func Status(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, map[string]string{"status": "OK"}, http.StatusOK)
}

// Unauthorized always responds 401
func Unauthorized(w http.ResponseWriter, r *http.Request) {
	RespondWithStructuredError(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
}

// Forbidden always responds 403
func Forbidden(w http.ResponseWriter, r *http.Request) {
	RespondWithStructuredError(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}

// NotFound responds with the structured 404
func NotFound(w http.ResponseWriter, r *http.Request) {
	RespondWithStructuredError(w, notFoundMessage, http.StatusNotFound)
}
