package domain

import (
	"context"
	"time"
)

// User field names accepted by Filter and Fields.
const (
	FieldEmail          = "email"
	FieldHashedPassword = "hashed_password"
	FieldFirstName      = "first_name"
	FieldLastName       = "last_name"
	FieldResetToken     = "reset_token"
)

// UserFields lists every field a Filter or Fields may name.
var UserFields = []string{
	FieldEmail,
	FieldHashedPassword,
	FieldFirstName,
	FieldLastName,
	FieldResetToken,
}

// IsUserField reports whether name is one of UserFields.
func IsUserField(name string) bool {
	for _, f := range UserFields {
		if f == name {
			return true
		}
	}
	return false
}

// User is a stored user record.
type User struct {
	ID             string    `db:"id"`
	Email          string    `db:"email"`
	HashedPassword string    `db:"hashed_password"`
	FirstName      string    `db:"first_name"`
	LastName       string    `db:"last_name"`
	ResetToken     string    `db:"reset_token"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Field returns the value of a named field, and whether the name is known.
func (u User) Field(name string) (string, bool) {
	switch name {
	case FieldEmail:
		return u.Email, true
	case FieldHashedPassword:
		return u.HashedPassword, true
	case FieldFirstName:
		return u.FirstName, true
	case FieldLastName:
		return u.LastName, true
	case FieldResetToken:
		return u.ResetToken, true
	}
	return "", false
}

// SetField assigns a named field. It returns ErrUnknownField for names outside UserFields.
func (u *User) SetField(name string, value string) error {
	switch name {
	case FieldEmail:
		u.Email = value
	case FieldHashedPassword:
		u.HashedPassword = value
	case FieldFirstName:
		u.FirstName = value
	case FieldLastName:
		u.LastName = value
	case FieldResetToken:
		u.ResetToken = value
	default:
		return ErrUnknownField
	}
	return nil
}

// DisplayName is built from the names, falling back to the email.
func (u User) DisplayName() string {
	switch {
	case u.FirstName == "" && u.LastName == "":
		return u.Email
	case u.LastName == "":
		return u.FirstName
	case u.FirstName == "":
		return u.LastName
	}
	return u.FirstName + " " + u.LastName
}

// UserJSON is the public representation of a user. It never carries the password hash.
type UserJSON struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

const timestampFormat = "2006-01-02T15:04:05"

// ToJSON returns the public representation of the user.
func (u User) ToJSON() UserJSON {
	return UserJSON{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt.UTC().Format(timestampFormat),
		UpdatedAt: u.UpdatedAt.UTC().Format(timestampFormat),
	}
}

// Filter selects users whose fields equal every given value.
type Filter map[string]string

// Fields is a set of field assignments for an update.
type Fields map[string]string

// UserRepository owns the user records. Lookups that match nothing are not errors for Find;
// Get returns ErrUserNotFound. Any other error is an infrastructure failure.
type UserRepository interface {
	Find(ctx context.Context, filter Filter) ([]User, error)
	Get(ctx context.Context, id string) (User, error)
	Create(ctx context.Context, user User) (User, error)
	Update(ctx context.Context, id string, fields Fields) error
	Delete(ctx context.Context, id string) error
}

// CredentialVerifier hashes passwords one way and compares them.
// Verify returns false with a nil error on a mismatch.
type CredentialVerifier interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext string, hash string) (bool, error)
}
