package integrations

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/matzehuels/depstatus/pkg/buildinfo"
)

const httpTimeout = 10 * time.Second

var (
	// ErrNotFound is returned when a package or resource doesn't exist upstream.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// UserAgent is sent with every upstream request.
var UserAgent = buildinfo.UserAgent()

// NewHTTPClient creates an HTTP client with a standard timeout for upstream
// requests. A nil transport uses http.DefaultTransport.
func NewHTTPClient(transport http.RoundTripper) *http.Client {
	return &http.Client{Timeout: httpTimeout, Transport: transport}
}

// parseRetryAfter reads a Retry-After header given in seconds or as an
// HTTP date. It returns zero when the header is absent or unparseable.
func parseRetryAfter(value string, now time.Time) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(value); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
