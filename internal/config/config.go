// Package config loads the depstatus server configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/depstatus/pkg/cache"
	"github.com/matzehuels/depstatus/pkg/deps"
	errs "github.com/matzehuels/depstatus/pkg/errors"
	"github.com/matzehuels/depstatus/pkg/engine"
	"github.com/matzehuels/depstatus/pkg/integrations/crates"
	"github.com/matzehuels/depstatus/pkg/integrations/github"
	"github.com/matzehuels/depstatus/pkg/integrations/osv"
)

// Config is the full configuration of a depstatus process.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Upstream   UpstreamConfig   `yaml:"upstream"`
	Cache      CacheConfig      `yaml:"cache"`
	Limits     LimitsConfig     `yaml:"limits"`
	Advisories AdvisoriesConfig `yaml:"advisories"`
	Logging    LoggingConfig    `yaml:"logging"`

	// BlockedRepositories are "site/qualifier/name" paths never listed as
	// popular. Nil selects the built-in list.
	BlockedRepositories []string `yaml:"blocked_repositories"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
	// AnalysisTimeout bounds a single analysis request.
	AnalysisTimeout Duration `yaml:"analysis_timeout"`
	Metrics         bool     `yaml:"metrics"`
}

// UpstreamConfig locates the upstream services.
type UpstreamConfig struct {
	CratesIndexURL string            `yaml:"crates_index_url"`
	CratesAPIURL   string            `yaml:"crates_api_url"`
	GitHubAPIURL   string            `yaml:"github_api_url"`
	GitHubToken    string            `yaml:"github_token"`
	OSVURL         string            `yaml:"osv_url"`
	RawBaseURLs    map[string]string `yaml:"raw_base_urls"` // Keyed by site name
	Retries        int               `yaml:"retries"`
	RetryDelay     Duration          `yaml:"retry_delay"`
}

// CacheEntry sizes one cache.
type CacheEntry struct {
	TTL      Duration `yaml:"ttl"`
	Capacity int      `yaml:"capacity"`
}

// CacheConfig sizes the engine caches.
type CacheConfig struct {
	Releases   CacheEntry `yaml:"releases"`
	Advisories CacheEntry `yaml:"advisories"`
	Popular    CacheEntry `yaml:"popular"`
}

// LimitsConfig throttles upstream traffic.
type LimitsConfig struct {
	FetchConcurrency int      `yaml:"fetch_concurrency"`
	RequestsPerHost  int      `yaml:"requests_per_host"` // Zero disables throttling
	Window           Duration `yaml:"window"`
	CircuitBreaker   bool     `yaml:"circuit_breaker"`
}

// AdvisoriesConfig toggles vulnerability checks.
type AdvisoriesConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig selects log verbosity and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json, logfmt
}

// Default returns a Config populated with the public upstream endpoints.
func Default() Config {
	def := engine.DefaultConfig()
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     DurationFrom(10 * time.Second),
			WriteTimeout:    DurationFrom(60 * time.Second),
			ShutdownTimeout: DurationFrom(10 * time.Second),
			AnalysisTimeout: DurationFrom(45 * time.Second),
			Metrics:         true,
		},
		Upstream: UpstreamConfig{
			CratesIndexURL: crates.DefaultIndexURL,
			CratesAPIURL:   crates.DefaultAPIURL,
			GitHubAPIURL:   github.DefaultAPIURL,
			OSVURL:         osv.DefaultURL,
			Retries:        3,
			RetryDelay:     DurationFrom(time.Second),
		},
		Cache: CacheConfig{
			Releases:   entryFrom(def.Releases),
			Advisories: entryFrom(def.Advisories),
			Popular:    entryFrom(def.Popular),
		},
		Limits: LimitsConfig{
			FetchConcurrency: def.FetchConcurrency,
			RequestsPerHost:  20,
			Window:           DurationFrom(time.Second),
			CircuitBreaker:   true,
		},
		Advisories: AdvisoriesConfig{Enabled: true},
		Logging:    LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads configuration from a YAML file on top of Default. An empty
// path returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := Default()
		return &cfg, nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer fh.Close()
	return LoadFromReader(fh)
}

// LoadFromReader decodes configuration from an arbitrary reader.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the invariants the server relies on.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server.addr must be set")
	}
	if c.Server.AnalysisTimeout.Duration < 0 {
		return fmt.Errorf("server.analysis_timeout must be >= 0 (got %s)", c.Server.AnalysisTimeout)
	}
	if c.Upstream.Retries < 1 {
		return fmt.Errorf("upstream.retries must be >= 1 (got %d)", c.Upstream.Retries)
	}
	for key, u := range map[string]string{
		"crates_index_url": c.Upstream.CratesIndexURL,
		"crates_api_url":   c.Upstream.CratesAPIURL,
		"github_api_url":   c.Upstream.GitHubAPIURL,
		"osv_url":          c.Upstream.OSVURL,
	} {
		if u == "" {
			continue
		}
		if err := errs.ValidateURL(u); err != nil {
			return fmt.Errorf("upstream.%s: %s", key, errs.UserMessage(err))
		}
	}
	for site, u := range c.Upstream.RawBaseURLs {
		if _, err := deps.ParseHost(site); err != nil {
			return fmt.Errorf("upstream.raw_base_urls: %w", err)
		}
		if err := errs.ValidateURL(u); err != nil {
			return fmt.Errorf("upstream.raw_base_urls.%s: %s", site, errs.UserMessage(err))
		}
	}
	if c.Limits.FetchConcurrency <= 0 {
		return fmt.Errorf("limits.fetch_concurrency must be > 0 (got %d)", c.Limits.FetchConcurrency)
	}
	if c.Limits.RequestsPerHost < 0 {
		return fmt.Errorf("limits.requests_per_host must be >= 0 (got %d)", c.Limits.RequestsPerHost)
	}
	if c.Limits.RequestsPerHost > 0 && c.Limits.Window.Duration <= 0 {
		return errors.New("limits.window must be > 0 when requests_per_host is set")
	}
	for name, e := range map[string]CacheEntry{
		"releases":   c.Cache.Releases,
		"advisories": c.Cache.Advisories,
		"popular":    c.Cache.Popular,
	} {
		if e.Capacity < 0 || e.TTL.Duration < 0 {
			return fmt.Errorf("cache.%s must not be negative", name)
		}
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "text", "json", "logfmt":
	default:
		return fmt.Errorf("logging.format %q is not one of text, json, logfmt", c.Logging.Format)
	}
	if _, err := c.blocked(); err != nil {
		return err
	}
	return nil
}

// Engine returns the engine settings described by c.
func (c Config) Engine() engine.Config {
	blocked, _ := c.blocked()
	return engine.Config{
		Releases:            c.Cache.Releases.options(),
		Advisories:          c.Cache.Advisories.options(),
		Popular:             c.Cache.Popular.options(),
		FetchConcurrency:    c.Limits.FetchConcurrency,
		BlockedRepositories: blocked,
	}
}

// RawBaseURLs returns the raw file base URL overrides keyed by host.
func (c Config) RawBaseURLs() map[deps.Host]string {
	out := make(map[deps.Host]string, len(c.Upstream.RawBaseURLs))
	for site, base := range c.Upstream.RawBaseURLs {
		if h, err := deps.ParseHost(site); err == nil {
			out[h] = base
		}
	}
	return out
}

func (c Config) blocked() ([]deps.RepositoryPath, error) {
	if c.BlockedRepositories == nil {
		return engine.DefaultBlockedRepositories(), nil
	}
	out := make([]deps.RepositoryPath, 0, len(c.BlockedRepositories))
	for _, s := range c.BlockedRepositories {
		parts := strings.Split(s, "/")
		if len(parts) != 3 {
			return nil, fmt.Errorf("blocked_repositories: %q is not site/qualifier/name", s)
		}
		p, err := deps.ParseRepositoryPath(parts[0], parts[1], parts[2])
		if err != nil {
			return nil, fmt.Errorf("blocked_repositories: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (c *Config) normalise() {
	c.Server.Addr = strings.TrimSpace(c.Server.Addr)
	c.Upstream.GitHubToken = strings.TrimSpace(c.Upstream.GitHubToken)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	for i, s := range c.BlockedRepositories {
		c.BlockedRepositories[i] = strings.Trim(strings.TrimSpace(s), "/")
	}
}

func entryFrom(o cache.Options) CacheEntry {
	return CacheEntry{TTL: DurationFrom(o.TTL), Capacity: o.Capacity}
}

func (e CacheEntry) options() cache.Options {
	return cache.Options{TTL: e.TTL.Duration, Capacity: e.Capacity}
}
