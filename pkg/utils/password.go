package utils

import (
	"errors"
	"fmt"

	"user-backend/pkg/apperror"

	"golang.org/x/crypto/bcrypt"
)

// DefaultPasswordCost is the bcrypt work factor used outside tests.
const DefaultPasswordCost = 12

type PasswordHasher struct {
	cost      int
	dummyHash []byte
}

// NewPasswordHasher falls back to DefaultPasswordCost when cost is out of bcrypt's range.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultPasswordCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), cost)
	if err != nil {
		panic(fmt.Sprintf("generate dummy hash: %v", err))
	}
	return &PasswordHasher{cost: cost, dummyHash: dummy}
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperror.Validation([]apperror.FieldError{{
			Field:   "password",
			Message: fmt.Sprintf("Maximum length is %d bytes", MaxPasswordBytes),
		}})
	}
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Compare reports whether password matches hash. A malformed hash is a mismatch.
func (h *PasswordHasher) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// CompareDummy spends the same work as Compare for lookups that found no user.
func (h *PasswordHasher) CompareDummy(password string) {
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(password))
}
