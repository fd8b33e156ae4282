package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/layer-3/recipebook/core"
	"github.com/layer-3/recipebook/ports"
)

const (
	PathRegistration = "/dj-rest-auth/registration/"
	PathLogin        = "/dj-rest-auth/login/"
	PathUser         = "/dj-rest-auth/user/"
	PathRefresh      = "/dj-rest-auth/token/refresh/"
	PathLogout       = "/dj-rest-auth/logout/"
)

// AuthClient calls the auth endpoints that must not go through the guard.
// Its http.Client should be a plain one.
type AuthClient struct {
	endpoint
}

var _ ports.Authenticator = (*AuthClient)(nil)

// NewAuthClient creates an auth client for baseURL
func NewAuthClient(baseURL string, httpClient *http.Client) (*AuthClient, error) {
	e, err := newEndpoint(baseURL, httpClient)
	if err != nil {
		return nil, err
	}
	return &AuthClient{endpoint: e}, nil
}

// LoginResponse is the body returned by the login endpoint
type LoginResponse struct {
	Access  string         `json:"access"`
	Refresh string         `json:"refresh"`
	User    *core.Identity `json:"user"`
}

// TokenResponse is the body returned by the refresh endpoint
type TokenResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

func (c *AuthClient) Login(ctx context.Context, username, password string) (core.Credentials, *core.Identity, error) {
	req := map[string]string{"username": username, "password": password}

	var resp LoginResponse
	if err := c.call(ctx, http.MethodPost, PathLogin, nil, req, &resp, nil); err != nil {
		return core.Credentials{}, nil, fmt.Errorf("login failed: %w", err)
	}
	if resp.Access == "" {
		return core.Credentials{}, nil, fmt.Errorf("login failed: %w", core.ErrInvalidToken)
	}

	return core.Credentials{Access: resp.Access, Refresh: resp.Refresh}, resp.User, nil
}

func (c *AuthClient) Register(ctx context.Context, username, password string) error {
	req := map[string]string{"username": username, "password1": password, "password2": password}

	if err := c.call(ctx, http.MethodPost, PathRegistration, nil, req, nil, nil); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	return nil
}

// Refresh exchanges refreshToken for new credentials
func (c *AuthClient) Refresh(ctx context.Context, refreshToken string) (core.Credentials, error) {
	req := map[string]string{"refresh": refreshToken}

	var resp TokenResponse
	if err := c.call(ctx, http.MethodPost, PathRefresh, nil, req, &resp, nil); err != nil {
		return core.Credentials{}, err
	}

	return core.Credentials{Access: resp.Access, Refresh: resp.Refresh}, nil
}

// Logout invalidates the refresh credential on the server
func (c *AuthClient) Logout(ctx context.Context, creds core.Credentials) error {
	header := http.Header{}
	if creds.Access != "" {
		header.Set("Authorization", "Bearer "+creds.Access)
	}
	req := map[string]string{"refresh": creds.Refresh}

	if err := c.call(ctx, http.MethodPost, PathLogout, nil, req, nil, header); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	return nil
}
