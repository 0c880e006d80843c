// Package token issues and verifies the JWT pair used by the HTTP API.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskboard/taskboard/internal/apperr"
	"github.com/taskboard/taskboard/internal/models"
)

const refreshType = "refresh"

// Claims is the payload carried by an access token.
type Claims struct {
	jwt.RegisteredClaims
	Email string      `json:"email,omitempty"`
	Role  models.Role `json:"role,omitempty"`
	Type  string      `json:"type,omitempty"`
}

// Manager signs and verifies tokens. Now is injectable for tests and
// defaults to time.Now.
type Manager struct {
	secret        []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewManager creates a token manager. The refresh secret is derived from
// the main secret when not provided separately.
func NewManager(secret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret is required")
	}
	if refreshSecret == "" {
		refreshSecret = secret + "_refresh"
	}
	return &Manager{
		secret:        []byte(secret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}, nil
}

// SetNow overrides the clock, for tests.
func (m *Manager) SetNow(now func() time.Time) {
	m.now = now
}

// Issue signs an access token for the user.
func (m *Manager) Issue(user *models.User) (string, error) {
	now := m.now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
		},
		Email: user.Email,
		Role:  user.Role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// IssueRefresh signs a refresh token for the user.
func (m *Manager) IssueRefresh(user *models.User) (string, error) {
	now := m.now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.refreshTTL)),
		},
		Type: refreshType,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.refreshSecret)
}

// Verify parses and validates an access token, returning its claims.
func (m *Manager) Verify(raw string) (*Claims, error) {
	claims, err := m.parse(raw, m.secret)
	if err != nil {
		return nil, err
	}
	if claims.Type == refreshType {
		return nil, apperr.Unauthorized("refresh token cannot be used for access")
	}
	return claims, nil
}

// VerifyRefresh parses and validates a refresh token.
func (m *Manager) VerifyRefresh(raw string) (*Claims, error) {
	claims, err := m.parse(raw, m.refreshSecret)
	if err != nil {
		return nil, err
	}
	if claims.Type != refreshType {
		return nil, apperr.Unauthorized("invalid refresh token")
	}
	return claims, nil
}

func (m *Manager) parse(raw string, secret []byte) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Unauthorized("token is expired")
		}
		return nil, apperr.Unauthorized("invalid token")
	}
	if claims.Subject == "" {
		return nil, apperr.Unauthorized("invalid token")
	}
	return &claims, nil
}
