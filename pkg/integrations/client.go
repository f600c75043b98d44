package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	errs "github.com/matzehuels/depstatus/pkg/errors"
	"github.com/matzehuels/depstatus/pkg/httputil"
	"github.com/matzehuels/depstatus/pkg/observability"
)

// maxBodyBytes caps how much of a response body is read into memory.
const maxBodyBytes = 256 << 20

// Client provides shared HTTP functionality for all upstream API clients.
// It handles retries, per-host rate limits and circuit breakers, and
// common request headers.
type Client struct {
	http     *http.Client
	headers  map[string]string
	breakers *httputil.Breakers
	limiter  *httputil.HostLimiter
	attempts int
	delay    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithBreakers routes every request through the given per-host breakers.
// Clients sharing one Breakers value share host health.
func WithBreakers(b *httputil.Breakers) Option {
	return func(c *Client) { c.breakers = b }
}

// WithLimiter throttles requests per host.
func WithLimiter(l *httputil.HostLimiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithRetry overrides the retry policy for transient failures.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.delay = delay
	}
}

// NewClient creates a Client with the given default headers.
// Headers are applied to all requests made through this client.
// Pass nil for headers if no default headers are needed.
func NewClient(headers map[string]string, opts ...Option) *Client {
	c := &Client{
		http:     NewHTTPClient(nil),
		headers:  headers,
		attempts: 3,
		delay:    time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
// It uses the client's default headers and handles retries automatically.
func (c *Client) Get(ctx context.Context, rawURL string, v any) error {
	return c.GetWithHeaders(ctx, rawURL, nil, v)
}

// GetWithHeaders performs an HTTP GET with additional headers merged with defaults.
// Request-specific headers override client defaults for the same key.
func (c *Client) GetWithHeaders(ctx context.Context, rawURL string, headers map[string]string, v any) error {
	return c.fetch(ctx, rawURL, headers, func(body io.Reader) error {
		if err := json.NewDecoder(body).Decode(v); err != nil {
			return errs.Wrap(errs.ErrCodeDecode, err, "decode response from %s", rawURL)
		}
		return nil
	})
}

// GetText performs an HTTP GET request and returns the response body as a string.
// Useful for plain files such as manifests fetched from a source host.
func (c *Client) GetText(ctx context.Context, rawURL string) (string, error) {
	data, err := c.GetBytes(ctx, rawURL)
	return string(data), err
}

// GetBytes performs an HTTP GET request and returns the raw response body.
func (c *Client) GetBytes(ctx context.Context, rawURL string) ([]byte, error) {
	var data []byte
	err := c.fetch(ctx, rawURL, nil, func(body io.Reader) error {
		var err error
		data, err = io.ReadAll(io.LimitReader(body, maxBodyBytes))
		if err != nil {
			return errs.Wrap(errs.ErrCodeNetwork, fmt.Errorf("%w: %w", ErrNetwork, err), "read body from %s", rawURL)
		}
		return nil
	})
	return data, err
}

func (c *Client) fetch(ctx context.Context, rawURL string, headers map[string]string, read func(io.Reader) error) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid URL %q", rawURL)
	}

	return httputil.Retry(ctx, c.attempts, c.delay, func() error {
		if err := c.limiter.Wait(ctx, u.Host); err != nil {
			return errs.Wrap(errs.ErrCodeTimeout, err, "waiting for rate limit on %s", u.Host)
		}
		return c.guard(ctx, u.Host, func() error {
			return c.doRequest(ctx, u, headers, read)
		})
	})
}

// guard runs fn through the host's breaker. Only transport failures and
// 5xx responses count against the host.
func (c *Client) guard(ctx context.Context, host string, fn func() error) error {
	if c.breakers == nil {
		return fn()
	}
	err := c.breakers.Call(host, func() (bool, error) {
		err := fn()
		healthy := err == nil || ctx.Err() != nil || !httputil.IsRetryable(err) || errs.Is(err, errs.ErrCodeRateLimited)
		return healthy, err
	})
	if errors.Is(err, httputil.ErrCircuitOpen) {
		observability.HTTP().OnCircuitOpen(ctx, host)
		return errs.Wrap(errs.ErrCodeUpstreamUnavailable, err, "%s is unavailable", host)
	}
	return err
}

func (c *Client) doRequest(ctx context.Context, u *url.URL, headers map[string]string, read func(io.Reader) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "build request")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, u.Host, u.Path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, u.Host, u.Path, err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		code := errs.ErrCodeNetwork
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			code = errs.ErrCodeTimeout
		}
		return httputil.Retryable(errs.Wrap(code, fmt.Errorf("%w: %w", ErrNetwork, err), "GET %s", u.Redacted()))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, u.Host, u.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp, u); err != nil {
		return err
	}
	return read(resp.Body)
}

func checkStatus(resp *http.Response, u *url.URL) error {
	code := resp.StatusCode
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errs.Wrap(errs.ErrCodeNotFound, ErrNotFound, "GET %s", u.Redacted())
	case code == http.StatusTooManyRequests:
		return &httputil.RetryableError{
			Err:        errs.Wrap(errs.ErrCodeRateLimited, fmt.Errorf("%w: status %d", ErrNetwork, code), "GET %s", u.Redacted()),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		}
	case code >= 500:
		return httputil.Retryable(errs.Wrap(errs.ErrCodeUpstreamUnavailable, fmt.Errorf("%w: status %d", ErrNetwork, code), "GET %s", u.Redacted()))
	default:
		return errs.Wrap(errs.ErrCodeNetwork, fmt.Errorf("%w: status %d", ErrNetwork, code), "GET %s", u.Redacted())
	}
}
