package service

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	apperrors "authcodelab/internal/errors"
)

const (
	bcryptCost = 10
	// maxPasswordBytes is the longest input bcrypt accepts.
	maxPasswordBytes = 72
)

// dummyHash is compared against when no account matches the email, so an
// unknown address costs one bcrypt comparison like a wrong password does.
var dummyHash = sync.OnceValue(func() string {
	hashed, err := bcrypt.GenerateFromPassword([]byte("authcodelab-no-such-user"), bcryptCost)
	if err != nil {
		panic(fmt.Sprintf("hash dummy password: %v", err))
	}
	return string(hashed)
})

func hashPassword(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", fmt.Errorf("password is %d bytes, limit is %d: %w", len(password), maxPasswordBytes, apperrors.ErrValidation)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
