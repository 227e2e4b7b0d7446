package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trussworks/userauth/pkg/domain"
)

// Accounts registers users and manages their passwords.
type Accounts struct {
	users    domain.UserRepository
	verifier domain.CredentialVerifier
	log      domain.LogService
}

// NewAccounts returns an Accounts
func NewAccounts(users domain.UserRepository, verifier domain.CredentialVerifier, log domain.LogService) Accounts {
	return Accounts{
		users:    users,
		verifier: verifier,
		log:      log,
	}
}

func (a Accounts) findByEmail(ctx context.Context, email string) ([]domain.User, error) {
	users, err := a.users.Find(ctx, domain.Filter{domain.FieldEmail: email})
	if err != nil {
		return nil, domain.Unavailable(errors.Wrap(err, "failed to look up user"))
	}
	return users, nil
}

// RegisterUser creates a user with a hashed password. It returns ErrUserExists if the email is taken.
func (a Accounts) RegisterUser(ctx context.Context, email string, password string, profile domain.Fields) (domain.User, error) {
	if email == "" {
		return domain.User{}, domain.ValidationError{Field: "email"}
	}
	if password == "" {
		return domain.User{}, domain.ValidationError{Field: "password"}
	}

	existing, err := a.findByEmail(ctx, email)
	if err != nil {
		return domain.User{}, err
	}
	if len(existing) > 0 {
		return domain.User{}, domain.ErrUserExists
	}

	hashed, err := a.verifier.Hash(password)
	if err != nil {
		return domain.User{}, domain.Unavailable(err)
	}

	user := domain.User{
		Email:          email,
		HashedPassword: hashed,
	}
	for name, value := range profile {
		if name == domain.FieldEmail || name == domain.FieldHashedPassword || name == domain.FieldResetToken {
			continue
		}
		if err := user.SetField(name, value); err != nil {
			return domain.User{}, err
		}
	}

	created, err := a.users.Create(ctx, user)
	if err != nil {
		return domain.User{}, domain.Unavailable(errors.Wrap(err, "failed to create user"))
	}

	a.log.Info(domain.UserRegistered, domain.LogFields{"user_id": created.ID})

	return created, nil
}

// ValidLogin reports whether the email and password belong to a user.
func (a Accounts) ValidLogin(ctx context.Context, email string, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}

	users, err := a.findByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	if len(users) == 0 {
		return false, nil
	}

	ok, err := a.verifier.Verify(password, users[0].HashedPassword)
	if err != nil {
		return false, domain.Unavailable(err)
	}
	return ok, nil
}

// GetResetPasswordToken stores and returns a fresh reset token for the user. It returns ErrUserNotFound for an unknown email.
func (a Accounts) GetResetPasswordToken(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", domain.ValidationError{Field: "email"}
	}

	users, err := a.findByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if len(users) == 0 {
		return "", domain.ErrUserNotFound
	}

	token := uuid.New().String()
	if err := a.users.Update(ctx, users[0].ID, domain.Fields{domain.FieldResetToken: token}); err != nil {
		return "", domain.Unavailable(errors.Wrap(err, "failed to store reset token"))
	}

	a.log.Info(domain.PasswordResetIssued, domain.LogFields{"user_id": users[0].ID})

	return token, nil
}

// UpdatePassword sets a new password for the user holding resetToken and spends the token.
// It returns ErrInvalidResetToken when no user holds it.
func (a Accounts) UpdatePassword(ctx context.Context, resetToken string, password string) error {
	if resetToken == "" {
		return domain.ErrInvalidResetToken
	}
	if password == "" {
		return domain.ValidationError{Field: "password"}
	}

	users, err := a.users.Find(ctx, domain.Filter{domain.FieldResetToken: resetToken})
	if err != nil {
		return domain.Unavailable(errors.Wrap(err, "failed to look up reset token"))
	}
	if len(users) == 0 {
		return domain.ErrInvalidResetToken
	}

	hashed, err := a.verifier.Hash(password)
	if err != nil {
		return domain.Unavailable(err)
	}

	fields := domain.Fields{
		domain.FieldHashedPassword: hashed,
		domain.FieldResetToken:     "",
	}
	if err := a.users.Update(ctx, users[0].ID, fields); err != nil {
		return domain.Unavailable(errors.Wrap(err, "failed to update password"))
	}

	a.log.Info(domain.PasswordUpdated, domain.LogFields{"user_id": users[0].ID})

	return nil
}
