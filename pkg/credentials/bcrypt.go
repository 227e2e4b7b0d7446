package credentials

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// BcryptVerifier hashes passwords with bcrypt.
type BcryptVerifier struct {
	cost int
}

// Option configures a BcryptVerifier
type Option func(*BcryptVerifier)

// WithCost sets the bcrypt cost. Out of range costs fall back to bcrypt.DefaultCost.
func WithCost(cost int) Option {
	return func(v *BcryptVerifier) {
		v.cost = cost
	}
}

// NewBcryptVerifier returns a BcryptVerifier
func NewBcryptVerifier(options ...Option) BcryptVerifier {
	v := BcryptVerifier{
		cost: bcrypt.DefaultCost,
	}

	for _, option := range options {
		option(&v)
	}

	if v.cost < bcrypt.MinCost || v.cost > bcrypt.MaxCost {
		v.cost = bcrypt.DefaultCost
	}

	return v
}

// Hash returns a salted bcrypt hash of plaintext.
func (v BcryptVerifier) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), v.cost)
	if err != nil {
		return "", errors.Wrap(err, "failed to hash password")
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches hash. A mismatch, or a user without a
// password hash, is (false, nil).
func (v BcryptVerifier) Verify(plaintext string, hash string) (bool, error) {
	if hash == "" {
		return false, nil
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, errors.Wrap(err, "failed to compare password hash")
}
