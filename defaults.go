package userauth

import (
	"net/http"

	"github.com/trussworks/userauth/pkg/domain"
	"github.com/trussworks/userauth/pkg/logger"
	"github.com/trussworks/userauth/pkg/seshttp"
)

// newDefaultErrorHandler answers 401 for missing credentials, 403 for credentials that
// did not resolve to a user and 500 when the backends failed.
func newDefaultErrorHandler() http.Handler {
	return seshttp.ErrorHandler{}
}

// newDefaultLogger is the logger that is used if no optional one is provided.
// PII fields are redacted before anything is written.
func newDefaultLogger(format string) domain.LogService {
	return logger.NewRedactingLogger(logger.NewLogger(format))
}
