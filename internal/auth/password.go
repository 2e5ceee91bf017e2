package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password, in characters, an account may use.
const MinPasswordLength = 12

// bcrypt ignores input past 72 bytes.
const maxPasswordBytes = 72

// secretBytes is the entropy of API tokens and generated session secrets.
const secretBytes = 32

var (
	ErrInvalidPassword    = errors.New("invalid password")
	ErrPasswordTooShort   = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong    = fmt.Errorf("password exceeds maximum length of %d bytes", maxPasswordBytes)
	ErrPasswordIsUsername = errors.New("password must differ from the username")
)

// ValidatePassword applies the account password policy. An empty username
// skips the username comparison.
func ValidatePassword(username, password string) error {
	switch {
	case utf8.RuneCountInString(password) < MinPasswordLength:
		return ErrPasswordTooShort
	case len(password) > maxPasswordBytes:
		return ErrPasswordTooLong
	case username != "" && strings.EqualFold(password, username):
		return ErrPasswordIsUsername
	}
	return nil
}

// HashPassword bcrypt-hashes a password that passes ValidatePassword.
func HashPassword(password string, cost int) (string, error) {
	if err := ValidatePassword("", password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports ErrInvalidPassword when password does not match hash.
func CheckPassword(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidPassword
	}
	return err
}

// GenerateAPIToken returns a new bearer token and the hash stored for it.
// Only the hash is persisted; the plaintext is shown to the user once.
func GenerateAPIToken() (plaintext, hash string, err error) {
	plaintext, err = randomHex(secretBytes)
	if err != nil {
		return "", "", err
	}
	return plaintext, HashToken(plaintext), nil
}

// HashToken returns the hex SHA-256 of an API token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// GenerateSessionSecret returns a hex-encoded random secret for CSRF and
// session signing when none is configured.
func GenerateSessionSecret() (string, error) {
	return randomHex(secretBytes)
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
