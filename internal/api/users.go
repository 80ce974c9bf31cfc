package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/taskdeck/taskdeck/internal/models"
)

// ErrInvalidCredentials is returned by Login when the backend rejects the
// email/password pair.
var ErrInvalidCredentials = errors.New("invalid email or password")

// AuthAPI groups registration and login.
type AuthAPI struct {
	c *Client
}

// Register creates a new account.
func (a *AuthAPI) Register(ctx context.Context, in models.UserCreate) (models.User, error) {
	var user models.User
	err := a.c.do(ctx, http.MethodPost, "/register", nil, in, &user)
	return user, err
}

// Login exchanges form-encoded credentials for a bearer token. It bypasses
// the retrying request path on purpose: a 401 here means bad credentials,
// not an expired session, and must not clear a stored token.
func (a *AuthAPI) Login(ctx context.Context, email, password string) (models.Token, error) {
	form := url.Values{
		"username": {email},
		"password": {password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.c.baseURL+"/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return models.Token{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.c.httpClient.Do(req)
	if err != nil {
		return models.Token{}, fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return models.Token{}, ErrInvalidCredentials
	case resp.StatusCode >= 400:
		return models.Token{}, &APIError{StatusCode: resp.StatusCode, Detail: readDetail(resp.Body)}
	}

	var token models.Token
	if _, err := a.c.decode(resp, &token); err != nil {
		return models.Token{}, err
	}
	return token, nil
}

// UserAPI groups the user endpoints.
type UserAPI struct {
	c *Client
}

// List fetches all users, for assignee pickers.
func (a *UserAPI) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := a.c.do(ctx, http.MethodGet, "/users", nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Me fetches the authenticated user.
func (a *UserAPI) Me(ctx context.Context) (models.User, error) {
	var user models.User
	err := a.c.do(ctx, http.MethodGet, "/users/me", nil, nil, &user)
	return user, err
}
