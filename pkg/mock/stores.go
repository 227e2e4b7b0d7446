package mock

import (
	"context"
	"errors"

	"github.com/trussworks/userauth/pkg/domain"
)

// ErrBackendDown is returned by the failing fakes below
var ErrBackendDown = errors.New("connection refused")

// FailingSessionStore fails every call with ErrBackendDown
type FailingSessionStore struct{}

func (FailingSessionStore) Close() error { return nil }

func (FailingSessionStore) CreateSession(ctx context.Context, session domain.Session) error {
	return ErrBackendDown
}

func (FailingSessionStore) FetchSession(ctx context.Context, sessionKey string) (domain.Session, error) {
	return domain.Session{}, ErrBackendDown
}

func (FailingSessionStore) DeleteSession(ctx context.Context, sessionKey string) error {
	return ErrBackendDown
}

// FailingUserRepository fails every call with ErrBackendDown
type FailingUserRepository struct{}

func (FailingUserRepository) Find(ctx context.Context, filter domain.Filter) ([]domain.User, error) {
	return nil, ErrBackendDown
}

func (FailingUserRepository) Get(ctx context.Context, id string) (domain.User, error) {
	return domain.User{}, ErrBackendDown
}

func (FailingUserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	return domain.User{}, ErrBackendDown
}

func (FailingUserRepository) Update(ctx context.Context, id string, fields domain.Fields) error {
	return ErrBackendDown
}

func (FailingUserRepository) Delete(ctx context.Context, id string) error {
	return ErrBackendDown
}

// PlainVerifier stores passwords as-is. Only fit for tests where bcrypt's cost would dominate.
type PlainVerifier struct{}

func (PlainVerifier) Hash(plaintext string) (string, error) {
	return "plain:" + plaintext, nil
}

func (PlainVerifier) Verify(plaintext string, hash string) (bool, error) {
	return hash == "plain:"+plaintext, nil
}
