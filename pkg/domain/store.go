package domain

import (
	"context"
	"time"
)

// Session maps an opaque session key to the user that authenticated with it.
// UserID never changes for the life of a session.
type Session struct {
	SessionKey string    `db:"session_id" json:"session_id"`
	UserID     string    `db:"user_id" json:"user_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// SessionStorageService persists session records. Implementations never judge expiration,
// that is left to the session service reading the records.
type SessionStorageService interface {
	// Close closes the storage connection
	Close() error

	// CreateSession stores a new session. It returns ErrSessionExists if the key is taken.
	CreateSession(ctx context.Context, session Session) error

	// FetchSession returns the session stored under sessionKey, or ErrValidSessionNotFound.
	FetchSession(ctx context.Context, sessionKey string) (Session, error)

	// DeleteSession removes a session record. It returns ErrValidSessionNotFound if there was none.
	DeleteSession(ctx context.Context, sessionKey string) error
}
