// Package auth implements staff/rep/trade/customer login, session
// issuance, device trust, and the role-gate echo middlewares that sit
// in front of every non-public route. Grounded on the teacher's
// internal/auth/password.go (bcrypt swapped for scrypt per spec) and
// internal/middleware/ratelimit.go's texture, though the login rate
// limit itself is DB-backed (store.CountRecentLoginAttempts) so it
// survives a process restart.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const (
	// MinPasswordLength is the minimum acceptable password length.
	MinPasswordLength = 8

	scryptN      = 1 << 14 // spec.md §4.2: N >= 2^14
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 16
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordMismatch = errors.New("password does not match")
)

// HashPassword derives a scrypt hash of password under a fresh random
// salt and encodes both into a single "$scrypt$N$r$p$salt$hash" string.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("auth: generate salt: %w", err)
	}

	hash, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", fmt.Errorf("auth: scrypt: %w", err)
	}

	return fmt.Sprintf("$scrypt$%d$%d$%d$%s$%s",
		scryptN, scryptR, scryptP,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyPassword checks password against an encoded hash produced by
// HashPassword, comparing in constant time.
func VerifyPassword(password, encoded string) error {
	parts := strings.Split(encoded, "$")
	if len(parts) != 7 || parts[0] != "" || parts[1] != "scrypt" {
		return fmt.Errorf("auth: malformed password hash")
	}

	var n, r, p int
	if _, err := fmt.Sscanf(parts[2], "%d", &n); err != nil {
		return fmt.Errorf("auth: malformed password hash: %w", err)
	}
	if _, err := fmt.Sscanf(parts[3], "%d", &r); err != nil {
		return fmt.Errorf("auth: malformed password hash: %w", err)
	}
	if _, err := fmt.Sscanf(parts[4], "%d", &p); err != nil {
		return fmt.Errorf("auth: malformed password hash: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return fmt.Errorf("auth: malformed password hash: %w", err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[6])
	if err != nil {
		return fmt.Errorf("auth: malformed password hash: %w", err)
	}

	got, err := scrypt.Key([]byte(password), salt, n, r, p, len(want))
	if err != nil {
		return fmt.Errorf("auth: scrypt: %w", err)
	}

	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}
