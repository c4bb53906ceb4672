package apiclient

import (
	"context"
	"net/http"

	"github.com/erazemk/auberge/internal/model"
)

// LoginResponse is the answer to a successful login.
type LoginResponse struct {
	Token       string     `json:"token"`
	AccessToken string     `json:"access_token"`
	User        model.User `json:"user"`
}

// BearerToken returns whichever token field the backend filled.
func (r LoginResponse) BearerToken() string {
	if r.Token != "" {
		return r.Token
	}
	return r.AccessToken
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	req := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{email, password}
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "/auth/login", req, &resp); err != nil {
		return LoginResponse{}, err
	}
	return resp, nil
}

// Me returns the user the client's token belongs to.
func (c *Client) Me(ctx context.Context) (model.User, error) {
	var resp struct {
		model.User
		Nested *model.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", "/auth/me", nil, &resp); err != nil {
		return model.User{}, err
	}
	if resp.Nested != nil {
		return *resp.Nested, nil
	}
	return resp.User, nil
}

// CheckAuth resolves token to an identity. A 401 is an unauthenticated
// identity, not an error.
func (c *Client) CheckAuth(ctx context.Context, token string) (model.Identity, error) {
	if token == "" {
		return model.Identity{}, nil
	}
	user, err := c.WithToken(token).Me(ctx)
	if IsUnauthorized(err) {
		return model.Identity{}, nil
	}
	if err != nil {
		return model.Identity{}, err
	}
	return model.Identity{Authenticated: true, User: &user}, nil
}

// ListUsers returns every registered user.
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.do(ctx, http.MethodGet, "/admin/users", "/admin/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}
