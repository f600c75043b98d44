// Package observability lets a binary observe the engine, the caches and
// upstream HTTP traffic without those packages importing a metrics backend.
//
// Libraries report events through [Engine], [Cache] and [HTTP]. Until a
// binary registers its own implementations every hook is a no-op; the
// server registers the Prometheus hooks from the prometheus subpackage:
//
//	prometheus.Register()
//
// Registration is meant for startup. Reading hooks never blocks, since the
// HTTP client reads them on every request.
package observability

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// =============================================================================
// Engine Hooks
// =============================================================================

// EngineHooks receives events from the analysis engine.
type EngineHooks interface {
	// Crawl events
	OnCrawlStart(ctx context.Context, repo string)
	OnCrawlComplete(ctx context.Context, repo string, packages int, duration time.Duration, err error)

	// Analysis events. kind is "repository", "directory" or "package".
	OnAnalyzeStart(ctx context.Context, kind, target string)
	OnAnalyzeComplete(ctx context.Context, kind, target string, outdated, insecure int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations. cache is the name the
// cache instance was created with.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, cache string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, cache string)

	// OnCacheSet records a cache write; entries is the resulting entry count.
	OnCacheSet(ctx context.Context, cache string, entries int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)

	// OnCircuitOpen records a request rejected because the host's circuit
	// breaker is open.
	OnCircuitOpen(ctx context.Context, host string)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopEngineHooks is a no-op implementation of EngineHooks.
type NoopEngineHooks struct{}

func (NoopEngineHooks) OnCrawlStart(context.Context, string)                               {}
func (NoopEngineHooks) OnCrawlComplete(context.Context, string, int, time.Duration, error) {}
func (NoopEngineHooks) OnAnalyzeStart(context.Context, string, string)                     {}
func (NoopEngineHooks) OnAnalyzeComplete(context.Context, string, string, int, int, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}
func (NoopHTTPHooks) OnCircuitOpen(context.Context, string)                                  {}

// =============================================================================
// Global Hook Registry
// =============================================================================

type hookSet struct {
	engine EngineHooks
	cache  CacheHooks
	http   HTTPHooks
}

func noopHooks() *hookSet {
	return &hookSet{engine: NoopEngineHooks{}, cache: NoopCacheHooks{}, http: NoopHTTPHooks{}}
}

var (
	current atomic.Pointer[hookSet]
	writeMu sync.Mutex
)

func init() { current.Store(noopHooks()) }

// update copies the registered set, applies fn and publishes the copy.
func update(fn func(*hookSet)) {
	writeMu.Lock()
	defer writeMu.Unlock()
	next := *current.Load()
	fn(&next)
	current.Store(&next)
}

// SetEngineHooks registers engine hooks. Nil is ignored.
func SetEngineHooks(h EngineHooks) {
	if h != nil {
		update(func(s *hookSet) { s.engine = h })
	}
}

// SetCacheHooks registers cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		update(func(s *hookSet) { s.cache = h })
	}
}

// SetHTTPHooks registers HTTP hooks. Nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		update(func(s *hookSet) { s.http = h })
	}
}

// Engine returns the registered engine hooks.
func Engine() EngineHooks { return current.Load().engine }

// Cache returns the registered cache hooks.
func Cache() CacheHooks { return current.Load().cache }

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks { return current.Load().http }

// Reset restores the no-op hooks. Tests call it in cleanup.
func Reset() {
	writeMu.Lock()
	defer writeMu.Unlock()
	current.Store(noopHooks())
}
