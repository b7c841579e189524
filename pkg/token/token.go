// Package token issues and verifies the signed access tokens and mints the
// single-use tokens used for password reset and email verification.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"user-backend/internal/data/entity"
	"user-backend/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	MinSecretLength  = 32
	DefaultExpiry    = 24 * time.Hour
	PasswordResetTTL = 10 * time.Minute
	opaqueTokenBytes = 32
)

var ErrWeakSecret = fmt.Errorf("jwt secret must be at least %d characters", MinSecretLength)

type Claims struct {
	UserID string          `json:"id"`
	Email  string          `json:"email"`
	Role   entity.UserRole `json:"role"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewManager(secret string, expiry time.Duration) (*Manager, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Manager{secret: []byte(secret), expiry: expiry, now: time.Now}, nil
}

// WithClock replaces the time source used for issuing and verifying.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

func (m *Manager) Expiry() time.Duration {
	return m.expiry
}

// Issue signs an HS256 token for user and returns it with its expiry instant.
func (m *Manager) Issue(user *entity.User) (string, time.Time, error) {
	issuedAt := m.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(m.expiry)

	claims := Claims{
		UserID: user.ID.String(),
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature, algorithm and expiry. Expiry maps to ErrTokenExpired,
// every other failure to ErrTokenInvalid.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperror.ErrTokenExpired
		}
		return nil, apperror.ErrTokenInvalid
	}
	if !token.Valid {
		return nil, apperror.ErrTokenInvalid
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, apperror.ErrTokenInvalid
	}

	return claims, nil
}

// UserUUID returns the parsed subject id. Verify guarantees it parses.
func (c *Claims) UserUUID() uuid.UUID {
	id, _ := uuid.Parse(c.UserID)
	return id
}

// NewOpaque returns 256 bits of randomness, hex encoded.
func NewOpaque() (string, error) {
	b := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Digest is the form single-use tokens are stored in.
func Digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
