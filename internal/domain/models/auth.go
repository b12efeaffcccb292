package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims are the JWT claims issued by the identity provider.
type SessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AuthScheme identifies how a request was authenticated.
type AuthScheme string

const (
	AuthSchemeSession AuthScheme = "session"
	AuthSchemeAPIKey  AuthScheme = "apikey"
)

// Principal is the authenticated user associated with a request.
type Principal struct {
	UserID string
	Email  string
	Scheme AuthScheme
}
