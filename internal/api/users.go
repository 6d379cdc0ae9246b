package api

import (
	"context"
	"net/http"

	"spinlog/internal/models"
)

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the session token and the signed-in user.
type AuthResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// UpdateUserRequest is the body for PUT /user/{userId}.
type UpdateUserRequest struct {
	Username string `json:"username,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	return c.auth(ctx, "auth.login", "/auth/login", req)
}

// Register creates an account and returns its first session.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	return c.auth(ctx, "auth.register", "/auth/register", req)
}

func (c *Client) auth(ctx context.Context, op, path string, body any) (*AuthResponse, error) {
	resp, err := decodeOne[AuthResponse](ctx, c, call{
		op:     op,
		method: http.MethodPost,
		path:   path,
		body:   body,
	})
	if err != nil {
		return nil, err
	}
	if resp.Token == "" || resp.User.ID == "" {
		return nil, &Error{Kind: KindRejected, Op: op, Err: ErrEmptyResponse}
	}
	return resp, nil
}

// UserProfile fetches the profile aggregate. The backend answers with a
// single-element array.
func (c *Client) UserProfile(ctx context.Context, userID string) ([]models.Profile, error) {
	return decodeList[models.Profile](ctx, c, call{
		op:         "user.profile",
		method:     http.MethodGet,
		path:       "/user/{userId}",
		pathParams: map[string]string{"userId": userID},
	})
}

// UpdateUser edits the username and avatar and returns the refreshed profile.
func (c *Client) UpdateUser(ctx context.Context, userID string, req UpdateUserRequest) ([]models.Profile, error) {
	return decodeList[models.Profile](ctx, c, call{
		op:         "user.update",
		method:     http.MethodPut,
		path:       "/user/{userId}",
		pathParams: map[string]string{"userId": userID},
		body:       req,
	})
}
