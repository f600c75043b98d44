// Package httputil provides HTTP plumbing shared by the upstream clients.
//
// # Overview
//
//   - [Retry]: retries transient failures with exponential backoff
//   - [NewTransport]: an [http.Transport] that caches DNS lookups
//   - [Breakers]: one circuit breaker per upstream host
//   - [HostLimiter]: one token-bucket rate limiter per upstream host
//
// # Retry
//
// [Retry] only retries errors wrapped in [RetryableError]. Clients wrap
// network failures, 5xx responses and 429 responses; everything else,
// including 404, is returned immediately:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    return client.doRequest(ctx, url)
//	})
//
// A [RetryableError] may carry a RetryAfter hint taken from the upstream
// response; it replaces the computed delay when longer.
//
// # Circuit breakers
//
// [Breakers] stops calling a host after five failures within the breaker's
// counting window and probes it again after an exponentially growing pause
// (30s, capped at 5m). Only failures that say something about the host's health should
// be reported to a breaker; a missing package is not one of them.
package httputil
