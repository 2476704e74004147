package client

import (
	"context"
	"errors"
	"net/http"

	"github.com/InsulaLabs/sphere/db/models"
)

// Register creates an account and keeps the returned session token.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.doRequest(ctx, http.MethodPost, "register", nil, req, &resp); err != nil {
		return nil, err
	}
	c.SetSessionToken(resp.SessionToken)
	return &resp, nil
}

// Login keeps the returned session token on success.
func (c *Client) Login(ctx context.Context, username, password string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	req := models.LoginRequest{Username: username, Password: password}
	if err := c.doRequest(ctx, http.MethodPost, "login", nil, req, &resp); err != nil {
		return nil, err
	}
	c.SetSessionToken(resp.SessionToken)
	return &resp, nil
}

// VerifySession reports whether token belongs to username. A rejected token
// is (nil, false, nil); only transport failures are errors.
func (c *Client) VerifySession(ctx context.Context, token, username string) (*models.User, bool, error) {
	var resp models.VerifySessionResponse
	req := models.VerifySessionRequest{SessionToken: token, Username: username}
	err := c.doRequest(ctx, http.MethodPost, "verify-session", nil, req, &resp)
	if errors.Is(err, ErrUnauthorized) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return resp.User, resp.Valid, nil
}

// Logout ends the client's current session and forgets the token.
func (c *Client) Logout(ctx context.Context) error {
	token := c.SessionToken()
	if err := c.doRequest(ctx, http.MethodPost, "logout", nil, models.LogoutRequest{SessionToken: token}, nil); err != nil {
		return err
	}
	c.SetSessionToken("")
	return nil
}
