package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// defaultUserAgent identifies the CLI to the platform.
var defaultUserAgent = "vigil/" + clientVersion

// clientVersion is kept here so the transport does not depend on the CLI
// package. Overridden at build time together with the CLI version.
var clientVersion = "dev"

// Client is the interface for the HTTP transport layer. All API calls go
// through this interface.
type Client interface {
	// Do sends an HTTP request and returns the response. Non-2xx status
	// codes are not errors at this layer.
	Do(ctx context.Context, req *Request) (*Response, error)

	// SetRateLimit sets the maximum requests per second.
	SetRateLimit(rps float64)

	// Stats returns transport statistics.
	Stats() *TransportStats
}

// TransportStats holds aggregate statistics for the transport client.
type TransportStats struct {
	TotalRequests int64
	TotalDuration time.Duration
	AvgDuration   time.Duration
}

// ClientOptions holds configuration for creating a new DefaultClient.
type ClientOptions struct {
	// Timeout is the default timeout for all requests.
	Timeout time.Duration

	// ProxyURL is the proxy URL (HTTP or SOCKS5).
	ProxyURL string

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool

	// UserAgent overrides the default User-Agent header.
	UserAgent string

	// MaxRPS is the maximum requests per second (0 = unlimited).
	MaxRPS float64
}

// DefaultClient is the default implementation of the Client interface,
// backed by net/http.
type DefaultClient struct {
	httpClient      *http.Client
	opts            ClientOptions
	limiter         *rate.Limiter
	mu              sync.RWMutex
	totalRequests   int64
	totalDurationNs int64
}

// NewClient creates a new DefaultClient with the given options.
func NewClient(opts ClientOptions) (*DefaultClient, error) {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: opts.InsecureSkipVerify,
		},
		ForceAttemptHTTP2: true,
	}

	if opts.ProxyURL != "" {
		proxyURL, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	dc := &DefaultClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		opts: opts,
	}

	if opts.MaxRPS > 0 {
		dc.limiter = rate.NewLimiter(rate.Limit(opts.MaxRPS), 1)
	}

	return dc, nil
}

// Do sends an HTTP request and returns the response. It applies rate
// limiting, timing measurement, query encoding, and optional per-request
// timeout overrides.
func (c *DefaultClient) Do(ctx context.Context, req *Request) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	var bodyReader io.Reader
	if len(req.Body) > 0 {
		bodyReader = bytes.NewReader(req.Body)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	targetURL := req.URL
	if len(req.Query) > 0 {
		targetURL += "?" + req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, targetURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	if httpReq.Header.Get("User-Agent") == "" {
		ua := c.opts.UserAgent
		if ua == "" {
			ua = defaultUserAgent
		}
		httpReq.Header.Set("User-Agent", ua)
	}

	// Per-request timeout override needs a shallow client copy.
	httpClient := c.httpClient
	if req.Timeout > 0 {
		cc := *c.httpClient
		cc.Timeout = req.Timeout
		httpClient = &cc
	}

	start := time.Now()
	httpResp, err := httpClient.Do(httpReq)
	duration := time.Since(start)

	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
		Duration:   duration,
		URL:        httpResp.Request.URL.String(),
	}

	c.mu.Lock()
	c.totalRequests++
	c.totalDurationNs += duration.Nanoseconds()
	c.mu.Unlock()

	return resp, nil
}

// SetRateLimit sets the maximum number of requests per second.
// A value of 0 or less disables rate limiting.
func (c *DefaultClient) SetRateLimit(rps float64) {
	if rps <= 0 {
		c.limiter = nil
		return
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
}

// Stats returns aggregate transport statistics.
func (c *DefaultClient) Stats() *TransportStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := &TransportStats{
		TotalRequests: c.totalRequests,
		TotalDuration: time.Duration(c.totalDurationNs),
	}
	if c.totalRequests > 0 {
		stats.AvgDuration = time.Duration(c.totalDurationNs / c.totalRequests)
	}
	return stats
}
