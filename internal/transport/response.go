package transport

import (
	"net/http"
	"time"
)

// Response represents an HTTP response received from the transport client.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Headers contains the response headers.
	Headers http.Header

	// Body is the raw response body.
	Body []byte

	// Duration is the round-trip time for the request.
	Duration time.Duration

	// URL is the final URL after any redirects.
	URL string
}

// ContentType returns the Content-Type response header.
func (r *Response) ContentType() string {
	return r.Headers.Get("Content-Type")
}

// BodyString returns the response body as a string.
func (r *Response) BodyString() string {
	return string(r.Body)
}
