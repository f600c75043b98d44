package cli

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/depstatus/internal/config"
	"github.com/matzehuels/depstatus/pkg/engine"
	"github.com/matzehuels/depstatus/pkg/httputil"
	"github.com/matzehuels/depstatus/pkg/integrations"
	"github.com/matzehuels/depstatus/pkg/integrations/crates"
	"github.com/matzehuels/depstatus/pkg/integrations/github"
	"github.com/matzehuels/depstatus/pkg/integrations/osv"
	"github.com/matzehuels/depstatus/pkg/integrations/sourcehost"
)

// archiveTimeout bounds the advisory archive download, which is much
// larger than any other upstream response.
const archiveTimeout = 2 * time.Minute

// newEngine builds an engine talking to the upstreams named in cfg. The
// shared transport's DNS cache is refreshed until ctx is done.
func newEngine(ctx context.Context, cfg *config.Config, logger *log.Logger) *engine.Engine {
	transport := httputil.NewTransport(ctx)

	opts := []integrations.Option{
		integrations.WithHTTPClient(integrations.NewHTTPClient(transport)),
		integrations.WithRetry(cfg.Upstream.Retries, cfg.Upstream.RetryDelay.Duration),
	}
	if cfg.Limits.RequestsPerHost > 0 {
		opts = append(opts, integrations.WithLimiter(httputil.NewHostLimiter(cfg.Limits.RequestsPerHost, cfg.Limits.Window.Duration)))
	}
	if cfg.Limits.CircuitBreaker {
		opts = append(opts, integrations.WithBreakers(&httputil.Breakers{}))
	}

	token := cfg.Upstream.GitHubToken
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}

	in := engine.Interactors{
		Registry:     crates.NewClient(cfg.Upstream.CratesIndexURL, cfg.Upstream.CratesAPIURL, opts...),
		Retriever:    sourcehost.NewClient(cfg.RawBaseURLs(), opts...),
		Repositories: github.NewClient(cfg.Upstream.GitHubAPIURL, token, opts...),
	}
	if cfg.Advisories.Enabled {
		archive := &http.Client{Timeout: archiveTimeout, Transport: transport}
		in.Advisories = osv.NewClient(cfg.Upstream.OSVURL, append(opts, integrations.WithHTTPClient(archive))...)
	}

	return engine.New(cfg.Engine(), in, engine.WithLogger(logger))
}
