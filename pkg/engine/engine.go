package engine

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/depstatus/pkg/cache"
	"github.com/matzehuels/depstatus/pkg/crawler"
	"github.com/matzehuels/depstatus/pkg/deps"
	"github.com/matzehuels/depstatus/pkg/integrations/osv"
)

// =============================================================================
// Interactors
// =============================================================================

// Registry answers release and popularity queries for crates.
type Registry interface {
	Releases(ctx context.Context, name deps.PackageName) ([]deps.Release, error)
	Popular(ctx context.Context) ([]deps.PackagePath, error)
}

// RepositoryFeed lists popular hosted repositories.
type RepositoryFeed interface {
	PopularRepositories(ctx context.Context) ([]deps.Repository, error)
}

// AdvisorySource downloads the vulnerability database.
type AdvisorySource interface {
	Fetch(ctx context.Context) (*osv.Database, error)
}

// Interactors are the upstream capabilities an Engine calls. Registry and
// Retriever are required. A nil Advisories disables vulnerability checks;
// a nil Repositories makes the popular repository list empty.
type Interactors struct {
	Registry     Registry
	Retriever    crawler.Retriever
	Advisories   AdvisorySource
	Repositories RepositoryFeed
}

// =============================================================================
// Configuration
// =============================================================================

// Config tunes caching and concurrency.
type Config struct {
	Releases   cache.Options // Per crate name
	Advisories cache.Options // Single entry
	Popular    cache.Options // Single entry per feed

	// FetchConcurrency bounds concurrent release lookups per package.
	FetchConcurrency int

	// BlockedRepositories are never listed as popular.
	BlockedRepositories []deps.RepositoryPath
}

// DefaultConfig returns the settings used by the server.
func DefaultConfig() Config {
	return Config{
		Releases:            cache.Options{TTL: 10 * time.Minute, Capacity: 500},
		Advisories:          cache.Options{TTL: 30 * time.Minute, Capacity: 1},
		Popular:             cache.Options{TTL: 10 * time.Minute, Capacity: 1},
		FetchConcurrency:    10,
		BlockedRepositories: DefaultBlockedRepositories(),
	}
}

// DefaultBlockedRepositories returns popular repositories that are not
// useful to analyze: they are not ordinary crates or are lists of links.
func DefaultBlockedRepositories() []deps.RepositoryPath {
	return []deps.RepositoryPath{
		{Host: deps.GitHub, Qualifier: "rust-lang", Name: "rust"},
		{Host: deps.GitHub, Qualifier: "xi-editor", Name: "xi-editor"},
		{Host: deps.GitHub, Qualifier: "lk-geimfari", Name: "awesomo"},
		{Host: deps.GitHub, Qualifier: "redox-os", Name: "tfs"},
		{Host: deps.GitHub, Qualifier: "carols10cents", Name: "rustlings"},
		{Host: deps.GitHub, Qualifier: "rust-unofficial", Name: "awesome-rust"},
	}
}

// =============================================================================
// Engine
// =============================================================================

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// singleton is the key of single-entry caches.
type singleton struct{}

// Engine runs dependency analyses against upstream services.
type Engine struct {
	cfg    Config
	in     Interactors
	logger *log.Logger

	blocked map[deps.RepositoryPath]bool

	releases        *cache.Cache[deps.PackageName, []deps.Release]
	advisories      *cache.Cache[singleton, *osv.Database]
	popularRepos    *cache.Cache[singleton, []deps.Repository]
	popularPackages *cache.Cache[singleton, []deps.PackagePath]
}

// New creates an Engine. Zero fields in cfg fall back to DefaultConfig.
func New(cfg Config, in Interactors, opts ...Option) *Engine {
	def := DefaultConfig()
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = def.FetchConcurrency
	}
	if cfg.Releases == (cache.Options{}) {
		cfg.Releases = def.Releases
	}
	if cfg.Advisories == (cache.Options{}) {
		cfg.Advisories = def.Advisories
	}
	if cfg.Popular == (cache.Options{}) {
		cfg.Popular = def.Popular
	}

	e := &Engine{
		cfg:     cfg,
		in:      in,
		logger:  log.Default(),
		blocked: make(map[deps.RepositoryPath]bool, len(cfg.BlockedRepositories)),
	}
	for _, opt := range opts {
		opt(e)
	}
	for _, p := range cfg.BlockedRepositories {
		e.blocked[p] = true
	}

	e.releases = cache.New("releases", e.fetchReleases, cfg.Releases)
	e.advisories = cache.New("advisories", e.fetchAdvisories, cfg.Advisories)
	e.popularRepos = cache.New("popular_repositories", e.fetchPopularRepositories, cfg.Popular)
	e.popularPackages = cache.New("popular_packages", e.fetchPopularPackages, cfg.Popular)
	return e
}

func (e *Engine) fetchReleases(ctx context.Context, name deps.PackageName) ([]deps.Release, error) {
	start := time.Now()
	releases, err := e.in.Registry.Releases(ctx, name)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("fetched releases", "crate", name, "releases", len(releases), "duration", time.Since(start))
	return releases, nil
}

func (e *Engine) fetchAdvisories(ctx context.Context, _ singleton) (*osv.Database, error) {
	start := time.Now()
	db, err := e.in.Advisories.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	e.logger.Info("loaded advisory database", "advisories", db.Len(), "duration", time.Since(start))
	return db, nil
}

func (e *Engine) fetchPopularRepositories(ctx context.Context, _ singleton) ([]deps.Repository, error) {
	if e.in.Repositories == nil {
		return nil, nil
	}
	return e.in.Repositories.PopularRepositories(ctx)
}

func (e *Engine) fetchPopularPackages(ctx context.Context, _ singleton) ([]deps.PackagePath, error) {
	return e.in.Registry.Popular(ctx)
}
