package tokenizer

import "github.com/golang-jwt/jwt/v5"

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// AccessClaims are the claims of a short-lived access token. rid ties the
// token to the refresh token it was issued with, so rotating or revoking
// that refresh token also kills the access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	TokenType string `json:"token_type"`
	RefreshID string `json:"rid"`
}

type RefreshClaims struct {
	jwt.RegisteredClaims
	TokenType string `json:"token_type"`
}
