package vtuapi

import (
	"context"
	"net/http"

	"github.com/datapadi/web/internal/domain/shared"
)

// Login signs a user in and returns the issued token
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	env, err := c.call(ctx, Request{Method: http.MethodPost, Path: "/auth/login", Body: req})
	if err != nil {
		return nil, err
	}
	if env.Token == "" {
		return nil, decodeError("token missing from response")
	}

	result := &LoginResult{Token: env.Token}
	if len(env.User) > 0 {
		if err := decodeInto(env.User, "user", &result.User); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Register creates an account and returns the backend confirmation message
func (c *Client) Register(ctx context.Context, req RegisterRequest) (string, error) {
	if req.Email == "" || req.Password == "" || req.UserName == "" {
		return "", shared.NewValidationError("user name, email and password are required")
	}
	env, err := c.call(ctx, Request{Method: http.MethodPost, Path: "/auth/register", Body: req})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}
