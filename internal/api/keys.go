package api

import (
	"context"
	"net/http"
)

// APIKeyStatus reports whether the account has a programmatic API key.
// The key itself is never returned here.
func (c *Client) APIKeyStatus(ctx context.Context) (*APIKeyInfo, error) {
	var info APIKeyInfo
	err := c.doJSON(ctx, &request{
		method: http.MethodGet,
		path:   "/users/me/api-key",
	}, &info)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// GenerateAPIKey creates an API key for the account. The plaintext key is
// only available in this response.
func (c *Client) GenerateAPIKey(ctx context.Context) (*APIKeyResponse, error) {
	var key APIKeyResponse
	err := c.doJSON(ctx, &request{
		method: http.MethodPost,
		path:   "/users/me/api-key",
	}, &key)
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// RegenerateAPIKey replaces the existing key with a new one, invalidating
// the old key immediately.
func (c *Client) RegenerateAPIKey(ctx context.Context) (*APIKeyResponse, error) {
	var key APIKeyResponse
	err := c.doJSON(ctx, &request{
		method: http.MethodPost,
		path:   "/users/me/api-key/regenerate",
	}, &key)
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// RevokeAPIKey deletes the account's API key.
func (c *Client) RevokeAPIKey(ctx context.Context) error {
	return c.doJSON(ctx, &request{
		method: http.MethodDelete,
		path:   "/users/me/api-key",
	}, nil)
}
