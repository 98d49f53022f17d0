// Package auth validates bearer tokens and exposes the verified identity to handlers.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config holds signer verification parameters.
type Config struct {
	Secret string
	Issuer string
}

// Role enumerates the account kinds the API distinguishes.
type Role string

const (
	RoleMember  Role = "member"
	RoleTrainer Role = "trainer"
	RoleAdmin   Role = "admin"
)

// Claims represents the payload extracted from a JWT.
type Claims struct {
	UserID    string
	Role      Role
	ExpiresAt time.Time
}

// ErrMissingToken is returned when the Authorization header is absent.
var ErrMissingToken = errors.New("missing bearer token")

// ErrInvalidToken wraps parsing/validation errors.
var ErrInvalidToken = errors.New("invalid bearer token")

// Parse validates a JWT and returns normalized claims.
func Parse(token string, cfg Config) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	}, jwt.WithIssuer(cfg.Issuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	subject, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if subject == "" {
		return nil, ErrInvalidToken
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, fmt.Errorf("%w: missing expiry", ErrInvalidToken)
	}

	return &Claims{
		UserID:    subject,
		Role:      normalizeRole(role),
		ExpiresAt: exp.Time,
	}, nil
}

func normalizeRole(value string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleTrainer:
		return RoleTrainer
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleMember
	}
}

// IsTrainer reports whether the claims carry trainer (or admin) privileges.
func (c *Claims) IsTrainer() bool {
	if c == nil {
		return false
	}
	return c.Role == RoleTrainer || c.Role == RoleAdmin
}

// IsAdmin reports whether the claims carry admin privileges.
func (c *Claims) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}
