package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	BcryptCost = 12

	// MinPasswordLen applies to new passwords set through the reset flow.
	MinPasswordLen = 8

	// MaxLoginPasswordLen bounds the password accepted at login before any
	// hashing happens. Bcrypt cost amplification makes unbounded input a
	// cheap denial-of-service vector.
	MaxLoginPasswordLen = 10000
)

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
