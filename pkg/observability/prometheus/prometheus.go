// Package prometheus implements the observability hooks with Prometheus
// metrics. Metrics are registered with the default registerer when the
// package is loaded; call [Register] to start receiving events.
package prometheus

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	errs "github.com/matzehuels/depstatus/pkg/errors"
	"github.com/matzehuels/depstatus/pkg/observability"
)

const namespace = "depstatus"

var (
	crawlDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "crawl_duration_seconds",
		Help:      "Duration of repository crawls.",
	}, []string{"success"})
	crawlPackages = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "crawl_packages",
		Help:      "Number of packages found per successful crawl.",
		Buckets:   []float64{1, 2, 5, 10, 25, 50, 100},
	})
	analyzeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "analyze_duration_seconds",
		Help:      "Duration of dependency analyses by kind.",
	}, []string{"kind", "success"})
	analyzeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "engine",
		Name:      "analyze_total",
		Help:      "Dependency analyses by kind and outcome category.",
	}, []string{"kind", "result"})

	cacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "requests_total",
		Help:      "Cache lookups by cache and result.",
	}, []string{"cache", "result"})
	cacheEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "entries",
		Help:      "Entries held per cache after the last write.",
	}, []string{"cache"})

	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "upstream",
		Name:      "request_duration_seconds",
		Help:      "Upstream HTTP request duration by host and status.",
	}, []string{"host", "status"})
	upstreamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "upstream",
		Name:      "errors_total",
		Help:      "Upstream HTTP requests that failed without a response.",
	}, []string{"host", "reason"})
	upstreamRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "upstream",
		Name:      "circuit_open_total",
		Help:      "Upstream requests rejected by an open circuit breaker.",
	}, []string{"host"})
)

// Register installs the Prometheus hooks in the global observability
// registry.
func Register() {
	observability.SetEngineHooks(EngineHooks{})
	observability.SetCacheHooks(CacheHooks{})
	observability.SetHTTPHooks(HTTPHooks{})
}

// EngineHooks records crawl and analysis metrics.
type EngineHooks struct{}

func (EngineHooks) OnCrawlStart(context.Context, string) {}

func (EngineHooks) OnCrawlComplete(_ context.Context, _ string, packages int, d time.Duration, err error) {
	crawlDuration.WithLabelValues(success(err)).Observe(d.Seconds())
	if err == nil {
		crawlPackages.Observe(float64(packages))
	}
}

func (EngineHooks) OnAnalyzeStart(context.Context, string, string) {}

func (EngineHooks) OnAnalyzeComplete(_ context.Context, kind, _ string, _, _ int, d time.Duration, err error) {
	analyzeDuration.WithLabelValues(kind, success(err)).Observe(d.Seconds())
	analyzeTotal.WithLabelValues(kind, result(err)).Inc()
}

// CacheHooks records cache hit rates and sizes.
type CacheHooks struct{}

func (CacheHooks) OnCacheHit(_ context.Context, cache string) {
	cacheRequests.WithLabelValues(cache, "hit").Inc()
}

func (CacheHooks) OnCacheMiss(_ context.Context, cache string) {
	cacheRequests.WithLabelValues(cache, "miss").Inc()
}

func (CacheHooks) OnCacheSet(_ context.Context, cache string, entries int) {
	cacheEntries.WithLabelValues(cache).Set(float64(entries))
}

// HTTPHooks records upstream request metrics. Paths are not used as
// labels to keep cardinality bounded.
type HTTPHooks struct{}

func (HTTPHooks) OnRequest(context.Context, string, string, string) {}

func (HTTPHooks) OnResponse(_ context.Context, _, host, _ string, status int, d time.Duration) {
	upstreamDuration.WithLabelValues(host, strconv.Itoa(status)).Observe(d.Seconds())
}

func (HTTPHooks) OnError(_ context.Context, _, host, _ string, err error) {
	reason := "network"
	if errors.Is(err, context.DeadlineExceeded) {
		reason = "timeout"
	} else if errors.Is(err, context.Canceled) {
		reason = "canceled"
	}
	upstreamErrors.WithLabelValues(host, reason).Inc()
}

func (HTTPHooks) OnCircuitOpen(_ context.Context, host string) {
	upstreamRejected.WithLabelValues(host).Inc()
}

func success(err error) string {
	return strconv.FormatBool(err == nil)
}

// result labels an analysis by error category, "ok" on success.
func result(err error) string {
	if err == nil {
		return "ok"
	}
	return string(errs.GetCategory(err))
}
