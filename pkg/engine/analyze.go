package engine

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/depstatus/pkg/analyzer"
	"github.com/matzehuels/depstatus/pkg/crawler"
	"github.com/matzehuels/depstatus/pkg/deps"
	errs "github.com/matzehuels/depstatus/pkg/errors"
	"github.com/matzehuels/depstatus/pkg/observability"
)

// AnalyzeRepositoryDependencies crawls repo starting at subpath ("" for
// the repository root) and analyzes every package found. Packages appear
// in the outcome in discovery order.
func (e *Engine) AnalyzeRepositoryDependencies(ctx context.Context, repo deps.RepositoryPath, subpath string) (*Outcome, error) {
	target := repo.String()
	if subpath != "" {
		target += "?path=" + subpath
	}
	return e.analyzeCrawl(ctx, "repository", target, e.in.Retriever, repo, subpath)
}

// AnalyzeDirectoryDependencies is AnalyzeRepositoryDependencies for a
// workspace served by r, typically a directory on disk. label names the
// workspace in logs and metrics.
func (e *Engine) AnalyzeDirectoryDependencies(ctx context.Context, r crawler.Retriever, label string) (*Outcome, error) {
	return e.analyzeCrawl(ctx, "directory", label, r, deps.RepositoryPath{}, "")
}

func (e *Engine) analyzeCrawl(ctx context.Context, kind, target string, r crawler.Retriever, repo deps.RepositoryPath, subpath string) (outcome *Outcome, err error) {
	start := time.Now()
	hooks := observability.Engine()
	hooks.OnAnalyzeStart(ctx, kind, target)
	defer func() {
		hooks.OnAnalyzeComplete(ctx, kind, target, outcome.countOutdated(), outcome.countInsecure(), time.Since(start), err)
	}()

	hooks.OnCrawlStart(ctx, target)
	crawled, err := crawler.Crawl(ctx, r, repo, subpath)
	found := 0
	if crawled != nil {
		found = crawled.Packages.Len()
	}
	hooks.OnCrawlComplete(ctx, target, found, time.Since(start), err)
	if err != nil {
		e.logger.Warn("crawl failed", "target", target, "error", err)
		return nil, err
	}

	db, err := e.vulnerabilityDatabase(ctx)
	if err != nil {
		return nil, err
	}

	packages := make([]PackageOutcome, crawled.Packages.Len())
	g, gctx := errgroup.WithContext(ctx)
	i := 0
	for name, set := range crawled.Packages.All() {
		idx := i
		i++
		g.Go(func() error {
			analyzed, err := e.analyzeDependencies(gctx, &set, db)
			if err != nil {
				return err
			}
			packages[idx] = PackageOutcome{Name: name, Deps: analyzed}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.logger.Warn("analysis failed", "target", target, "error", err)
		return nil, err
	}

	outcome = &Outcome{Packages: packages, Duration: time.Since(start)}
	e.logger.Info("analyzed "+kind, "target", target, "packages", len(packages), "duration", outcome.Duration)
	return outcome, nil
}

// AnalyzePackageDependencies analyzes the dependencies declared by one
// published release. The release must exist in the crate's history.
func (e *Engine) AnalyzePackageDependencies(ctx context.Context, path deps.PackagePath) (outcome *Outcome, err error) {
	start := time.Now()
	target := path.String()
	hooks := observability.Engine()
	hooks.OnAnalyzeStart(ctx, "package", target)
	defer func() {
		hooks.OnAnalyzeComplete(ctx, "package", target, outcome.countOutdated(), outcome.countInsecure(), time.Since(start), err)
	}()

	releases, err := e.releases.Get(ctx, path.Name)
	if err != nil {
		return nil, err
	}
	var release *deps.Release
	for i := range releases {
		v := releases[i].Version
		if v != nil && path.Version != nil && v.Equal(path.Version) {
			release = &releases[i]
			break
		}
	}
	if release == nil {
		return nil, errs.New(errs.ErrCodePackageNotFound, "release %s not found", path)
	}

	db, err := e.vulnerabilityDatabase(ctx)
	if err != nil {
		return nil, err
	}
	analyzed, err := e.analyzeDependencies(ctx, &release.Deps, db)
	if err != nil {
		return nil, err
	}

	outcome = &Outcome{
		Packages: []PackageOutcome{{Name: path.Name, Deps: analyzed}},
		Duration: time.Since(start),
	}
	e.logger.Info("analyzed package", "package", target, "duration", outcome.Duration)
	return outcome, nil
}

// FindLatestReleaseMatching returns the highest non-yanked release of name
// that satisfies req, or nil when none does.
func (e *Engine) FindLatestReleaseMatching(ctx context.Context, name deps.PackageName, req deps.Requirement) (*deps.Release, error) {
	releases, err := e.releases.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	var latest *deps.Release
	for i := range releases {
		r := &releases[i]
		if r.Yanked || r.Version == nil || !req.Matches(r.Version) {
			continue
		}
		if latest == nil || latest.Version.LessThan(r.Version) {
			latest = r
		}
	}
	if latest == nil {
		return nil, nil
	}
	found := *latest
	return &found, nil
}

// vulnerabilityDatabase returns the cached advisory database, or nil when
// no advisory source is configured.
func (e *Engine) vulnerabilityDatabase(ctx context.Context) (analyzer.VulnerabilityDatabase, error) {
	if e.in.Advisories == nil {
		return nil, nil
	}
	db, err := e.advisories.Get(ctx, singleton{})
	if err != nil || db == nil {
		return nil, err
	}
	return db, nil
}

// analyzeDependencies fetches the release history of every external
// dependency in set and folds it into one analysis.
func (e *Engine) analyzeDependencies(ctx context.Context, set *deps.DependencySet, db analyzer.VulnerabilityDatabase) (*deps.AnalyzedDependencies, error) {
	a := analyzer.New(set, db)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.FetchConcurrency)
	for _, name := range set.ExternalNames() {
		g.Go(func() error {
			releases, err := e.releases.Get(gctx, name)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			a.Process(releases)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return a.Finalize(), nil
}
