package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Common errors
var (
	ErrMissingToken     = errors.New("missing session token")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrMissingUserID    = errors.New("missing user id in claims")
	ErrTokenBlacklisted = errors.New("token has been revoked")
)

// Claims are the fields the web tier reads from a backend session token.
// The backend has used several names for the user identifier over time.
type Claims struct {
	jwt.RegisteredClaims
	PlainID  string `json:"id,omitempty"`
	UserID   string `json:"userId,omitempty"`
	UserIDv1 string `json:"user_id,omitempty"`
	Email    string `json:"email,omitempty"`
	Tier     string `json:"tier,omitempty"`
}

// User returns the user identifier carried by the token
func (c *Claims) User() string {
	for _, v := range []string{c.UserID, c.UserIDv1, c.PlainID, c.Subject} {
		if v != "" {
			return v
		}
	}
	return ""
}

// GetExpiresAtTime returns the token's expiration time as time.Time
func (c *Claims) GetExpiresAtTime() time.Time {
	if c.ExpiresAt != nil {
		return c.ExpiresAt.Time
	}
	return time.Time{}
}

// GetRemainingTTL returns the remaining time until the token expires
func (c *Claims) GetRemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	remaining := time.Until(c.ExpiresAt.Time)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// TokenInspector reads backend-issued session tokens. The backend owns the
// signing key, so signatures are verified there on every proxied call; this
// side only needs the identity and expiry to scope local state.
type TokenInspector struct {
	parser *jwt.Parser
	now    func() time.Time
	leeway time.Duration
}

// NewTokenInspector creates a token inspector
func NewTokenInspector() *TokenInspector {
	return &TokenInspector{
		parser: jwt.NewParser(),
		now:    time.Now,
		leeway: 30 * time.Second,
	}
}

// Inspect parses a token without verifying its signature and checks that it
// is unexpired and names a user.
func (i *TokenInspector) Inspect(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	if _, _, err := i.parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.ExpiresAt != nil && i.now().After(claims.ExpiresAt.Add(i.leeway)) {
		return nil, ErrExpiredToken
	}
	if claims.User() == "" {
		return nil, ErrMissingUserID
	}
	return claims, nil
}

// CookieMaxAge returns how long the session cookie should live: the token's
// remaining lifetime, capped at max.
func (i *TokenInspector) CookieMaxAge(tokenString string, max time.Duration) time.Duration {
	claims, err := i.Inspect(tokenString)
	if err != nil || claims.ExpiresAt == nil {
		return max
	}
	remaining := claims.ExpiresAt.Sub(i.now())
	if remaining <= 0 {
		return 0
	}
	if remaining < max {
		return remaining
	}
	return max
}
