package client

import (
	"context"
	"net/http"

	"github.com/noah-isme/study-planner/internal/models"
	appErrors "github.com/noah-isme/study-planner/pkg/errors"
)

// AuthClient calls the remote auth service.
type AuthClient struct {
	base
}

// NewAuthClient builds an auth service client.
func NewAuthClient(opts Options) *AuthClient {
	return &AuthClient{base: newBase(serviceAuth, opts)}
}

// Login exchanges credentials for a token.
func (c *AuthClient) Login(ctx context.Context, creds models.Credentials) (*models.AuthResult, error) {
	var out models.AuthResult
	err := c.do(ctx, call{method: http.MethodPost, path: "/login", operation: "login", body: creds, out: &out})
	if appErrors.Is(err, appErrors.ErrUnauthorized) {
		return nil, appErrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account and returns its first token.
func (c *AuthClient) Register(ctx context.Context, creds models.Credentials) (*models.AuthResult, error) {
	var out models.AuthResult
	if err := c.do(ctx, call{method: http.MethodPost, path: "/register", operation: "register", body: creds, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// Validate asks the auth service whether token is still valid. A rejected token yields
// ErrUnauthorized.
func (c *AuthClient) Validate(ctx context.Context, token string) (*models.TokenValidation, error) {
	if token == "" {
		return nil, appErrors.ErrUnauthorized
	}
	var out models.TokenValidation
	if err := c.do(ctx, call{method: http.MethodGet, path: "/validate", operation: "validate", token: token, out: &out}); err != nil {
		return nil, err
	}
	if !out.Valid {
		return nil, appErrors.ErrUnauthorized
	}
	return &out, nil
}
