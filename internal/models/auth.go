package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds the teacher credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued access token.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}
