// Package engine composes crawling, release lookups and analysis into the
// two top-level operations depstatus offers: analyzing a hosted repository
// and analyzing a single published crate release.
//
// # Architecture
//
// An [Engine] owns one memoizing [cache.Cache] per upstream capability:
//
//   - releases: full release history per crate name
//   - advisories: the vulnerability database (a single entry)
//   - popular repositories and popular crates (a single entry each)
//
// Upstream access goes through the [Interactors] passed to [New], so tests
// can substitute fakes for every network call.
//
// # Concurrency
//
// [Engine.AnalyzeRepositoryDependencies] crawls the repository, then
// analyzes every discovered package concurrently.
// [Engine.AnalyzeDirectoryDependencies] does the same over any
// crawler.Retriever, such as a directory on disk. Within one package, up
// to Config.FetchConcurrency release histories are fetched at once and
// folded into the analyzer as they arrive. The first failure cancels the
// remaining work and fails the whole call; there are no partial results.
//
// All methods are safe for concurrent use.
//
// [cache.Cache]: github.com/matzehuels/depstatus/pkg/cache.Cache
package engine
