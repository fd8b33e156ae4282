package core

import "time"

// Identity is the authenticated user as reported by the user endpoint
type Identity struct {
	ID          int    `json:"pk"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	ProfileID   int    `json:"profile_id"`
}

// Credentials is the access/refresh pair held by the client
type Credentials struct {
	Access  string `json:"access" yaml:"access"`
	Refresh string `json:"refresh" yaml:"refresh"`
}

// Empty reports whether neither token is set
func (c Credentials) Empty() bool {
	return c.Access == "" && c.Refresh == ""
}

// Session represents an authenticated backend session
type Session struct {
	ID            string    // Unique session identifier
	Username      string    // Subject of the tokens
	IssuedAt      time.Time // When the session was created
	RefreshExpiry time.Time // When the refresh capability expires
	AccessExpiry  time.Time // When the access capability expires
	RefreshID     string    // Unique identifier for the refresh token
}

// SessionEndReason explains why a client session was torn down
type SessionEndReason string

const (
	SessionEndSignedOut     SessionEndReason = "signed_out"
	SessionEndRefreshFailed SessionEndReason = "refresh_failed"
)
