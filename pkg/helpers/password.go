package helpers

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes the plain text password using bcrypt
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CompareHashAndPassword compares a bcrypt hash with a plain password
func CompareHashAndPassword(hash string, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

const minPasswordLength = 8

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordNumeric  = errors.New("password cannot be entirely numeric")
	ErrPasswordCommon   = errors.New("password is too common")
	ErrPasswordSimilar  = errors.New("password is too similar to account attributes")
)

// A short list of frequently used passwords; checked case-insensitively.
var commonPasswords = map[string]struct{}{
	"password":    {},
	"password1":   {},
	"password123": {},
	"12345678":    {},
	"123456789":   {},
	"qwerty123":   {},
	"qwertyuiop":  {},
	"iloveyou":    {},
	"letmein123":  {},
	"admin123":    {},
	"welcome1":    {},
	"sunshine":    {},
	"football":    {},
	"monkey123":   {},
	"dragon123":   {},
}

// ValidatePasswordStrength checks a candidate password against the
// account's attributes: minimum length, not purely numeric, not a common
// password, and not too similar to the email or names.
func ValidatePasswordStrength(password string, attributes ...string) error {
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	numeric := true
	for _, r := range password {
		if !unicode.IsDigit(r) {
			numeric = false
			break
		}
	}
	if numeric {
		return ErrPasswordNumeric
	}
	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		return ErrPasswordCommon
	}
	lower := strings.ToLower(password)
	for _, attr := range attributes {
		attr = strings.ToLower(strings.TrimSpace(attr))
		if attr == "" {
			continue
		}
		// email local part counts on its own as well
		parts := []string{attr}
		if at := strings.IndexByte(attr, '@'); at > 0 {
			parts = append(parts, attr[:at])
		}
		for _, p := range parts {
			if len(p) >= 4 && (strings.Contains(lower, p) || strings.Contains(p, lower)) {
				return ErrPasswordSimilar
			}
		}
	}
	return nil
}
