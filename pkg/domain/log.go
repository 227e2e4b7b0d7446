package domain

// log messages
var (
	SessionExpired              = "Auth failed because of an expired session"
	SessionDoesNotExist         = "Auth failed because of an invalid session"
	SessionUnexpectedError      = "An unexpected error occurred while checking the session."
	SessionCreationFailed       = "An unexpected error occurred creating a session"
	RequestIsMissingCredentials = "Unauthorized: Request carries neither an authorization header nor a session cookie"
	RequestIsUnauthenticated    = "Forbidden: Request credentials did not resolve to a user"
	SessionUserMissing          = "Session resolved to a user that no longer exists"

	SessionCreated   = "New Session Created"
	SessionDestroyed = "Session Was Destroyed"

	LoginUnknownEmail   = "Login failed: no user for email"
	LoginWrongPassword  = "Login failed: wrong password"
	UserRegistered      = "New User Registered"
	PasswordResetIssued = "Password reset token issued"
	PasswordUpdated     = "Password updated with a reset token"
)

// LogFields are the structured key/values attached to a log line.
type LogFields map[string]string

type LogService interface {
	Info(message string, fields LogFields)
	WarnError(message string, err error, fields LogFields)
}
