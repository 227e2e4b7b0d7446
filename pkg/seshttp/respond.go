package seshttp

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/trussworks/userauth/pkg/domain"
)

type structuredError struct {
	Error string `json:"error"`
}

// RespondWithJSON writes value as a json body with the given status code
func RespondWithJSON(w http.ResponseWriter, value interface{}, code int) {
	// Encode first so that a failure can still become a 500.
	body, err := json.Marshal(value)
	if err != nil {
		http.Error(w, "Internal Server Error: failed to encode json", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(body)
	w.Write([]byte("\n"))
}

// RespondWithStructuredError writes an error code and a json error response: {"error": message}
func RespondWithStructuredError(w http.ResponseWriter, errorMessage string, code int) {
	RespondWithJSON(w, structuredError{Error: errorMessage}, code)
}

// ErrorHandler is the gate's default error handler. Missing credentials are a 401,
// credentials that don't resolve to a user are a 403 and everything else is a 500.
type ErrorHandler struct{}

func (h ErrorHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := ErrorFromContext(r.Context())

	switch {
	case errors.Is(err, domain.ErrMissingCredentials):
		RespondWithStructuredError(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
	case errors.Is(err, domain.ErrUnauthenticated):
		RespondWithStructuredError(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
	default:
		RespondWithStructuredError(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
