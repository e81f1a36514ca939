// Package transport provides the HTTP transport abstraction layer used by
// the authenticated API client.
package transport

import (
	"net/url"
	"time"
)

// Request represents an HTTP request to be sent by the transport client.
// Credential headers are attached by the caller; the transport itself is
// authentication-agnostic. Requests are built fresh for every send and
// never reused.
type Request struct {
	// Method is the HTTP method (GET, POST, DELETE, etc.).
	Method string

	// URL is the target URL without query string.
	URL string

	// Query contains URL query parameters, appended to URL when non-empty.
	Query url.Values

	// Headers contains HTTP headers to include.
	Headers map[string]string

	// Body is the raw request body, typically JSON.
	Body []byte

	// Timeout overrides the client-level timeout for this specific
	// request. Zero means use the client default.
	Timeout time.Duration
}
