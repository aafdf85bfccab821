package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/pbkdf2"

	"github.com/mrlokans/librarian/internal/config"
)

// MinPasswordLength applies to passwords set through ChangePassword and SetPassword.
const MinPasswordLength = 6

// SaltLength is the number of hex characters that prefix every stored hash.
const SaltLength = 64

// derivedKeyLength matches the SHA-512 digest size.
const derivedKeyLength = sha512.Size

var (
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrPasswordMismatch = errors.New("new password and confirmation do not match")
)

// Hasher derives and checks salted PBKDF2-HMAC-SHA512 password hashes.
// A stored hash is the 64-character hex salt followed by the hex derived key.
type Hasher struct {
	iterations int
}

// NewHasher returns a hasher using the given iteration count. Counts below
// config.DefaultPBKDF2Iterations are raised to it.
func NewHasher(iterations int) *Hasher {
	if iterations < config.DefaultPBKDF2Iterations {
		iterations = config.DefaultPBKDF2Iterations
	}
	return &Hasher{iterations: iterations}
}

// Hash returns salt‖hex(derivedKey) for the password with a fresh random salt.
func (h *Hasher) Hash(password string) (string, error) {
	salt, err := newSalt()
	if err != nil {
		return "", err
	}
	return salt + h.derive(password, salt), nil
}

// Verify reports whether password matches the stored hash. Malformed stored
// values never match.
func (h *Hasher) Verify(stored, password string) bool {
	if len(stored) <= SaltLength {
		return false
	}
	salt, want := stored[:SaltLength], stored[SaltLength:]
	if _, err := hex.DecodeString(want); err != nil {
		return false
	}
	got := h.derive(password, salt)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func (h *Hasher) derive(password, salt string) string {
	dk := pbkdf2.Key([]byte(password), []byte(salt), h.iterations, derivedKeyLength, sha512.New)
	return hex.EncodeToString(dk)
}

// newSalt hashes 60 random bytes down to a 64-character hex string.
func newSalt() (string, error) {
	raw := make([]byte, 60)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// ValidateNewPassword checks the rules applied whenever a password is replaced.
func ValidateNewPassword(password, confirmation string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if password != confirmation {
		return ErrPasswordMismatch
	}
	return nil
}

// GenerateSessionSecret creates a random 32-byte secret for session and token signing.
func GenerateSessionSecret() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
