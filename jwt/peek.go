package jwt

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT is returned by Peek for opaque (non-JWT) tokens.
var ErrNotJWT = errors.New("token is not a JWT")

// Peek decodes the claims of token without verifying its signature.
func Peek(token string) (*Claims, error) {
	if strings.Count(token, ".") != 2 {
		return nil, ErrNotJWT
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, errors.Join(ErrNotJWT, err)
	}
	return claims, nil
}

// ExpiresAtMillis returns the exp claim in unix milliseconds.
func (c *Claims) ExpiresAtMillis() (int64, bool) {
	if c == nil || c.ExpiresAt == nil {
		return 0, false
	}
	return c.ExpiresAt.Time.UnixMilli(), true
}
