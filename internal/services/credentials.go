package services

import (
	"crypto/rand"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a password with bcrypt at the default cost (10 rounds).
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ComparePassword checks a candidate against a bcrypt hash.
func ComparePassword(candidate, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}

// NewEmailToken generates a high-entropy token for email verification and
// password reset links. The plaintext goes into the mail; only the bcrypt
// hash is persisted, and candidates are checked with ComparePassword. Reusing
// the password-hashing primitive for these one-time secrets is deliberate.
func NewEmailToken() (plain, hashed string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	plain = hex.EncodeToString(b)
	hashed, err = HashPassword(plain)
	if err != nil {
		return "", "", err
	}
	return plain, hashed, nil
}
