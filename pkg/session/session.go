package session

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"time"

	"github.com/gorilla/securecookie"
	pkgerrors "github.com/pkg/errors"

	"github.com/trussworks/userauth/pkg/domain"
)

// Clock returns the current time. Tests swap in a manual clock.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// Service maps session keys to user ids on top of a SessionStorageService.
// Expiration is evaluated lazily on every resolve by the configured ExpirationPolicy.
type Service struct {
	store   domain.SessionStorageService
	log     domain.LogService
	expired ExpirationPolicy
	clock   Clock
}

// Option configures a Service
type Option func(*Service)

// WithExpiration sets the expiration policy. The default is NeverExpire.
func WithExpiration(policy ExpirationPolicy) Option {
	return func(s *Service) {
		s.expired = policy
	}
}

// WithClock sets the clock used to stamp and check sessions.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// NewSessionService returns a Service
func NewSessionService(store domain.SessionStorageService, log domain.LogService, options ...Option) *Service {
	s := &Service{
		store:   store,
		log:     log,
		expired: NeverExpire,
		clock:   realClock{},
	}

	for _, option := range options {
		option(s)
	}

	return s
}

// generateSessionKey generates a cryptographically random session key, 256 bits, hex encoded.
func generateSessionKey() (string, error) {
	secureBytes := securecookie.GenerateRandomKey(32)
	if secureBytes == nil {
		return "", pkgerrors.New("Failed to generate random data for a key")
	}

	return hex.EncodeToString(secureBytes), nil
}

// HashSessionKey returns a short, non-reversible fingerprint of a session key that is safe to log.
func HashSessionKey(sessionKey string) string {
	hashed := sha512.Sum512([]byte(sessionKey))
	hexEncoded := hex.EncodeToString(hashed[:])
	return hexEncoded[:12]
}

// CreateSession creates a session for userID and returns its new key.
// It returns ErrEmptyUserID for an empty id; storage failures are wrapped as unavailable.
func (s Service) CreateSession(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", domain.ErrEmptyUserID
	}

	sessionKey, keyErr := generateSessionKey()
	if keyErr != nil {
		return "", domain.Unavailable(keyErr)
	}

	session := domain.Session{
		SessionKey: sessionKey,
		UserID:     userID,
		CreatedAt:  s.clock.Now(),
	}

	createErr := s.store.CreateSession(ctx, session)
	if createErr != nil {
		s.log.WarnError(domain.SessionCreationFailed, createErr, domain.LogFields{"session_hash": HashSessionKey(sessionKey)})
		return "", domain.Unavailable(pkgerrors.Wrap(createErr, "Unexpectedly failed to create a session"))
	}

	s.log.Info(domain.SessionCreated, domain.LogFields{"session_hash": HashSessionKey(sessionKey)})

	return sessionKey, nil
}

// ResolveUserID returns the user id of a live session.
// Unknown, empty and expired keys all return ErrValidSessionNotFound; the difference is only logged.
func (s Service) ResolveUserID(ctx context.Context, sessionKey string) (string, error) {
	if sessionKey == "" {
		return "", domain.ErrValidSessionNotFound
	}

	session, fetchErr := s.store.FetchSession(ctx, sessionKey)
	if fetchErr != nil {
		if errors.Is(fetchErr, domain.ErrValidSessionNotFound) {
			s.log.Info(domain.SessionDoesNotExist, domain.LogFields{"session_hash": HashSessionKey(sessionKey)})
			return "", domain.ErrValidSessionNotFound
		}
		s.log.WarnError(domain.SessionUnexpectedError, fetchErr, domain.LogFields{"session_hash": HashSessionKey(sessionKey)})
		return "", domain.Unavailable(fetchErr)
	}

	if s.expired(session.CreatedAt, s.clock.Now()) {
		s.log.Info(domain.SessionExpired, domain.LogFields{"session_hash": HashSessionKey(sessionKey)})
		return "", domain.ErrValidSessionNotFound
	}

	return session.UserID, nil
}

// DestroySession removes a session. A second destroy of the same key returns ErrValidSessionNotFound.
func (s Service) DestroySession(ctx context.Context, sessionKey string) error {
	if sessionKey == "" {
		return domain.ErrValidSessionNotFound
	}

	delErr := s.store.DeleteSession(ctx, sessionKey)
	if delErr != nil {
		if errors.Is(delErr, domain.ErrValidSessionNotFound) {
			return domain.ErrValidSessionNotFound
		}
		return domain.Unavailable(delErr)
	}

	s.log.Info(domain.SessionDestroyed, domain.LogFields{"session_hash": HashSessionKey(sessionKey)})

	return nil
}

// Close closes the underlying storage.
func (s Service) Close() error {
	return s.store.Close()
}
