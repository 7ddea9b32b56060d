// Package httpx provides the bounded HTTP client used for every outbound data
// call. Each call carries an enforced timeout and classifies failures into
// timeout and transport errors; HTTP status codes are returned to the caller
// as part of the response, not as errors.
package httpx

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single outbound call. Model-gateway calls use their
// own, longer budget.
const DefaultTimeout = 10 * time.Second

// maxBodySize caps how much of an upstream response is read (1 MiB). The data
// providers we talk to return far less; the cap guards against a misbehaving
// upstream.
const maxBodySize = 1 << 20

// Response is a fully-read upstream response. Non-2xx statuses are delivered
// here rather than as errors so callers can degrade with context.
type Response struct {
	StatusCode int
	Body       []byte
}

// Client issues outbound HTTP calls with a per-call timeout.
type Client struct {
	hc      *http.Client
	timeout time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient injects the underlying client (used by tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// NewClient creates a bounded client with the default timeout.
func NewClient(opts ...Option) *Client {
	c := &Client{
		hc:      &http.Client{},
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues a GET to url, reading the full body before returning. The
// cancellation timer is released on every path, success or failure.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Do executes req under the client's timeout and returns the fully-read
// response. Timeouts map to *TimeoutError, network failures to
// *TransportError; any HTTP status is a successful call.
func (c *Client) Do(req *http.Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(req.Context(), c.timeout)
	defer cancel()

	resp, err := c.hc.Do(req.WithContext(ctx))
	if err != nil {
		return nil, c.classify(req.URL.String(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, c.classify(req.URL.String(), err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

func (c *Client) classify(url string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{URL: url, Timeout: c.timeout}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{URL: url, Timeout: c.timeout}
	}
	return &TransportError{URL: url, Err: err}
}
