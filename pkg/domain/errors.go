package domain

import (
	"errors"
	"fmt"
)

// errors
var (
	// ErrValidSessionNotFound is returned when a valid session is not found
	ErrValidSessionNotFound = errors.New("Valid session not found")

	// ErrSessionExists is returned by storage when a session key is already taken
	ErrSessionExists = errors.New("Session key already exists")

	// ErrEmptyUserID is returned when a session is requested for an empty user id
	ErrEmptyUserID = errors.New("a user with an empty id cannot login")

	// ErrUserNotFound is returned when a user lookup matched nothing
	ErrUserNotFound = errors.New("no user found")

	// ErrUserExists is returned when registering an email that is already taken
	ErrUserExists = errors.New("user already exists")

	// ErrBadCredentials is returned when the password did not match the stored hash
	ErrBadCredentials = errors.New("wrong password")

	// ErrInvalidResetToken is returned when a password reset token matches no user
	ErrInvalidResetToken = errors.New("invalid reset token")

	// ErrEmptyExclusion is returned when an excluded path pattern is blank
	ErrEmptyExclusion = errors.New("excluded path patterns cannot be empty")

	// ErrUnknownField is returned when a user filter or update names an unknown field
	ErrUnknownField = errors.New("unknown user field")

	// ErrMissingCredentials is handed to the gate's error handler when a protected request
	// carries neither an authorization header nor a session cookie
	ErrMissingCredentials = errors.New("Unauthorized")

	// ErrUnauthenticated is handed to the gate's error handler when the presented
	// credentials did not resolve to a user
	ErrUnauthenticated = errors.New("Forbidden")

	// ErrUnavailable marks failures of the user repository, the credential verifier
	// or the session storage. These are never treated as "unauthenticated".
	ErrUnavailable = errors.New("authentication backend unavailable")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field string
}

func (e ValidationError) Error() string {
	return e.Field + " missing"
}

type unavailableError struct {
	err error
}

func (e unavailableError) Error() string {
	return fmt.Sprintf("%s: %v", ErrUnavailable.Error(), e.err)
}

func (e unavailableError) Unwrap() error {
	return e.err
}

func (e unavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

// Unavailable wraps an infrastructure error so that errors.Is(err, ErrUnavailable) holds.
// Wrapping an already unavailable error, or nil, returns it unchanged.
func Unavailable(err error) error {
	if err == nil || errors.Is(err, ErrUnavailable) {
		return err
	}
	return unavailableError{err}
}
