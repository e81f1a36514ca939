package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/vigil-sec/vigil/internal/transport"
)

// Sentinel errors returned by the request pipeline.
var (
	// ErrAuthFailed indicates the platform rejected the credential and the
	// retry budget is spent: a replayed request came back 401 again.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrSessionExpired indicates the session could not be refreshed and
	// has been cleared. The caller should prompt for a new login.
	ErrSessionExpired = errors.New("session expired, please log in again")
)

// APIError is a non-2xx response from the platform, carrying the backend's
// human-readable detail message.
type APIError struct {
	Status int
	Detail string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error (HTTP %d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("api error (HTTP %d)", e.Status)
}

// IsNotFound reports whether err is a 404 from the platform.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// errorDetail is the wire shape of backend error bodies.
type errorDetail struct {
	Detail string `json:"detail"`
}

// decodeAPIError converts a non-2xx response into an *APIError. Bodies that
// are not the expected {"detail": ...} JSON fall back to the raw text.
func decodeAPIError(resp *transport.Response) error {
	var detail errorDetail
	if err := json.Unmarshal(resp.Body, &detail); err == nil && detail.Detail != "" {
		return &APIError{Status: resp.StatusCode, Detail: detail.Detail}
	}
	return &APIError{Status: resp.StatusCode, Detail: string(resp.Body)}
}
