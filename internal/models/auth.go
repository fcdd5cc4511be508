package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the signed session assertion. Subject carries the user id and ID the jti.
type TokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the subject of the token
func (c *TokenClaims) UserID() string {
	return c.Subject
}
