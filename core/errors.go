package core

import "errors"

// Client-side session errors
var (
	ErrUnauthenticated     = errors.New("session ended")
	ErrNoRefreshCredential = errors.New("no refresh credential")
	ErrRefreshFailed       = errors.New("credential refresh failed")
	ErrRefreshTimeout      = errors.New("credential refresh timed out")
)

// Backend errors
var (
	ErrTokenExpired       = errors.New("token has expired")
	ErrTokenInvalidated   = errors.New("token has been invalidated")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
)
