// Package token issues and verifies the signed, time-boxed identity tokens
// carried in the x-auth-token header.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/loancalc/internal/common"
	"github.com/atinyakov/loancalc/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the lifetime of an issued token.
const DefaultTTL = 24 * time.Hour

// Claims is the JWT payload: the subject is the user id.
type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Manager signs and verifies HS256 tokens with a shared secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager returns a Manager. A non-positive ttl falls back to DefaultTTL.
func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for the given user.
func (m *Manager) Issue(userID string, role models.Role) (string, error) {
	now := m.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of raw and returns the identity it
// carries. Every failure is reported as common.ErrUnauthenticated.
func (m *Manager) Verify(raw string) (models.Identity, error) {
	if raw == "" {
		return models.Identity{}, common.ErrUnauthenticated
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %v", common.ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return models.Identity{}, fmt.Errorf("%w: %v", common.ErrUnauthenticated, errors.New("token has no subject"))
	}

	return models.Identity{UserID: claims.Subject, Role: claims.Role}, nil
}
