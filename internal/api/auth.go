package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/vigil-sec/vigil/internal/session"
)

// loginRequest is the wire shape of credential submissions.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// registerRequest is the wire shape of account creation.
type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

// Login authenticates with email and password. On success the token pair is
// persisted and the user profile is cached in the session.
func (c *Client) Login(ctx context.Context, email, password string) (*session.Profile, error) {
	var auth authResponse
	err := c.doJSON(ctx, &request{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   loginRequest{Email: email, Password: password},
	}, &auth)
	if err != nil {
		return nil, err
	}
	return c.establishSession(ctx, &auth)
}

// Register creates a new account and logs it in. Like Login, the returned
// token pair becomes the active session.
func (c *Client) Register(ctx context.Context, email, password, fullName string) (*session.Profile, error) {
	var auth authResponse
	err := c.doJSON(ctx, &request{
		method: http.MethodPost,
		path:   "/auth/register",
		body:   registerRequest{Email: email, Password: password, FullName: fullName},
	}, &auth)
	if err != nil {
		return nil, err
	}
	return c.establishSession(ctx, &auth)
}

// establishSession persists a fresh token pair and ensures a cached profile.
// Backends that omit the user from the auth response get a follow-up
// /users/me call, which now carries the new access token.
func (c *Client) establishSession(ctx context.Context, auth *authResponse) (*session.Profile, error) {
	if auth.AccessToken == "" || auth.RefreshToken == "" {
		return nil, fmt.Errorf("auth response missing token pair")
	}
	if err := c.session.SetSession(ctx, auth.AccessToken, auth.RefreshToken, auth.User); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	if auth.User != nil {
		return auth.User, nil
	}

	user, err := c.Me(ctx)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Me fetches the current user's profile and refreshes the session cache.
func (c *Client) Me(ctx context.Context) (*session.Profile, error) {
	var user session.Profile
	err := c.doJSON(ctx, &request{
		method: http.MethodGet,
		path:   "/users/me",
	}, &user)
	if err != nil {
		return nil, err
	}
	c.session.SetUser(&user)
	return &user, nil
}

// Resume restores a previous session from durable storage. It returns true
// when stored credentials exist and the platform still accepts them. A
// false return means the user must log in again; Resume never fails hard.
// Any failure to fetch the profile, network errors included, discards the
// stored credentials rather than leaving an unverifiable session behind.
func (c *Client) Resume(ctx context.Context) bool {
	if err := c.session.Load(ctx); err != nil {
		c.log.WithError(err).Warn("loading stored session")
		return false
	}
	if c.session.AccessToken() == "" {
		return false
	}
	if _, err := c.Me(ctx); err != nil {
		c.log.WithError(err).Debug("stored session rejected")
		if clearErr := c.session.Clear(ctx); clearErr != nil {
			c.log.WithError(clearErr).Warn("clearing rejected session")
		}
		return false
	}
	return true
}

// Logout discards the session. The platform's tokens are stateless, so this
// is purely a client-side operation.
func (c *Client) Logout(ctx context.Context) error {
	return c.session.Clear(ctx)
}
