package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims are the access-token claims carried through the middleware.
type JWTClaims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
