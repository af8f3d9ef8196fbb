package auth

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 10

const (
	minPasswordLen = 6
	maxPasswordLen = 72
)

var (
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", minPasswordLen)
	ErrPasswordTooLong  = fmt.Errorf("password must be at most %d bytes", maxPasswordLen)
)

// Hasher hashes and verifies passwords with bcrypt.
type Hasher struct {
	cost int

	placeholderOnce sync.Once
	placeholder     []byte
}

// NewHasher returns a hasher with the given work factor.
// Out-of-range costs fall back to DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns a salted bcrypt digest. Two calls with the same input differ.
func (h *Hasher) Hash(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether password matches digest. Malformed digests fail closed.
func (h *Hasher) Verify(password, digest string) bool {
	return CheckPassword(password, digest)
}

// VerifyMissing runs a bcrypt comparison at the hasher's cost against a
// placeholder digest and always reports false. Login calls it for unknown
// usernames so they take as long as a wrong password.
func (h *Hasher) VerifyMissing(password string) bool {
	h.placeholderOnce.Do(func() {
		h.placeholder, _ = bcrypt.GenerateFromPassword([]byte("absent-account"), h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.placeholder, []byte(password))
	return false
}

// HashPassword hashes with DefaultCost.
func HashPassword(password string) (string, error) {
	return NewHasher(DefaultCost).Hash(password)
}

// CheckPassword validates a password against a bcrypt digest.
func CheckPassword(password, digest string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

// ValidatePassword enforces length bounds. bcrypt ignores input past 72 bytes.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLen {
		return ErrPasswordTooShort
	}
	if len(password) > maxPasswordLen {
		return ErrPasswordTooLong
	}
	return nil
}

// IsPolicyError reports whether err came from ValidatePassword.
func IsPolicyError(err error) bool {
	return errors.Is(err, ErrPasswordTooShort) || errors.Is(err, ErrPasswordTooLong)
}
