package client

import (
	"context"
	"net/http"
)

func (c *Client) Register(ctx context.Context, req RegisterRequest) (Message, error) {
	var msg Message
	err := c.do(ctx, http.MethodPost, "register/", req, &msg)
	return msg, err
}

// Login authenticates against the API. On success the session cookie is
// stored in the client's jar.
func (c *Client) Login(ctx context.Context, username, password string) (Message, error) {
	var msg Message
	err := c.do(ctx, http.MethodPost, "login/", LoginRequest{Username: username, Password: password}, &msg)
	return msg, err
}

func (c *Client) Logout(ctx context.Context) (Message, error) {
	var msg Message
	err := c.do(ctx, http.MethodPost, "logout/", nil, &msg)
	return msg, err
}

func (c *Client) GetProfile(ctx context.Context) (Profile, error) {
	var p Profile
	err := c.do(ctx, http.MethodGet, "profile/", nil, &p)
	return p, err
}
