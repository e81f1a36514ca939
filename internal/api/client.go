// Package api implements the authenticated client for the scanning
// platform's REST API. Every call goes through a pipeline that attaches the
// current access token and transparently survives exactly one token expiry:
// on a 401 the pipeline refreshes the access token and replays the original
// request once; a second 401, or a failed refresh, ends the session.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vigil-sec/vigil/internal/session"
	"github.com/vigil-sec/vigil/internal/transport"
)

// Client talks to the platform API on behalf of the current session.
type Client struct {
	transport transport.Client
	session   *session.Manager
	baseURL   string
	log       *logrus.Entry

	// onAuthExpired is invoked after the session has been cleared because
	// a refresh was impossible or rejected. The host application uses it
	// to steer the user back to login.
	onAuthExpired func()
}

// Option configures a Client.
type Option func(*Client)

// WithLogger routes pipeline diagnostics to the given logger.
func WithLogger(l *logrus.Logger) Option {
	return func(c *Client) {
		c.log = l.WithField("component", "api")
	}
}

// WithAuthExpiredHandler registers a callback fired once per terminal
// authentication failure, after the session has been cleared.
func WithAuthExpiredHandler(fn func()) Option {
	return func(c *Client) {
		c.onAuthExpired = fn
	}
}

// NewClient creates a platform API client. baseURL is the versioned API
// root, e.g. "https://api.example.com/api/v1".
func NewClient(baseURL string, tc transport.Client, sess *session.Manager, opts ...Option) *Client {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	c := &Client{
		transport: tc,
		session:   sess,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		log:       quiet.WithField("component", "api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session exposes the session manager so the host application can inspect
// authentication state. Token writes stay inside the manager.
func (c *Client) Session() *session.Manager {
	return c.session
}

// request is one outbound API call. The retried flag is pipeline-internal:
// it marks a request that has already been replayed after a token refresh,
// which makes the no-second-refresh invariant structural.
type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	retried bool
}

// do runs the request through the authenticated pipeline and returns the
// raw transport response of the final attempt. Responses with non-2xx
// status codes (other than a recoverable 401) come back as errors; network
// failures propagate unchanged.
func (c *Client) do(ctx context.Context, req *request) (*transport.Response, error) {
	treq, err := c.buildRequest(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.transport.Do(ctx, treq)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return resp, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return c.handleUnauthorized(ctx, req, resp)
	default:
		return nil, decodeAPIError(resp)
	}
}

// doJSON runs the request and decodes a JSON response body into out. A nil
// out discards the body (e.g. 204 responses).
func (c *Client) doJSON(ctx context.Context, req *request, out any) error {
	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", req.method, req.path, err)
	}
	return nil
}

// buildRequest translates a pipeline request into a transport request,
// attaching the bearer credential when one is available. Absence of a token
// is not an error here; some endpoints are public.
func (c *Client) buildRequest(req *request) (*transport.Request, error) {
	headers := map[string]string{
		"Accept":       "application/json",
		"X-Request-Id": uuid.NewString(),
	}
	if token := c.session.AccessToken(); token != "" {
		headers["Authorization"] = "Bearer " + token
	}

	var body []byte
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("encoding %s %s request: %w", req.method, req.path, err)
		}
		body = b
		headers["Content-Type"] = "application/json"
	}

	return &transport.Request{
		Method:  req.method,
		URL:     c.baseURL + req.path,
		Query:   req.query,
		Headers: headers,
		Body:    body,
	}, nil
}

// handleUnauthorized is the recovery arm of the pipeline. First 401: refresh
// the access token and replay the original request once. Replayed 401, or no
// way to refresh: terminal.
func (c *Client) handleUnauthorized(ctx context.Context, req *request, resp *transport.Response) (*transport.Response, error) {
	if req.retried {
		c.log.WithField("path", req.path).Debug("replayed request rejected again")
		return nil, fmt.Errorf("%s %s: %w", req.method, req.path, ErrAuthFailed)
	}

	refreshToken := c.session.RefreshToken()
	if refreshToken == "" {
		c.expireSession(ctx)
		return nil, ErrSessionExpired
	}

	accessToken, err := c.refreshAccessToken(ctx, refreshToken)
	if err != nil {
		c.log.WithError(err).Debug("token refresh rejected")
		c.expireSession(ctx)
		// The caller sees an authentication error, not the raw refresh
		// failure.
		return nil, ErrSessionExpired
	}

	if err := c.session.SetAccessToken(ctx, accessToken); err != nil {
		return nil, fmt.Errorf("persisting refreshed token: %w", err)
	}

	c.log.WithField("path", req.path).Debug("access token refreshed, replaying request")
	req.retried = true
	return c.do(ctx, req)
}

// refreshAccessToken exchanges the refresh token for a new access token.
// The call bypasses the pipeline: it must not carry the stale bearer header
// and must never trigger another refresh.
func (c *Client) refreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	body, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return "", err
	}

	resp, err := c.transport.Do(ctx, &transport.Request{
		Method: http.MethodPost,
		URL:    c.baseURL + "/auth/refresh",
		Headers: map[string]string{
			"Content-Type": "application/json",
			"Accept":       "application/json",
			"X-Request-Id": uuid.NewString(),
		},
		Body: body,
	})
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", decodeAPIError(resp)
	}

	var refreshed refreshResponse
	if err := json.Unmarshal(resp.Body, &refreshed); err != nil {
		return "", fmt.Errorf("decoding refresh response: %w", err)
	}
	if refreshed.AccessToken == "" {
		return "", fmt.Errorf("refresh response missing access token")
	}
	return refreshed.AccessToken, nil
}

// expireSession clears all credentials and signals the host application.
func (c *Client) expireSession(ctx context.Context) {
	if err := c.session.Clear(ctx); err != nil {
		c.log.WithError(err).Warn("clearing expired session")
	}
	if c.onAuthExpired != nil {
		c.onAuthExpired()
	}
}
