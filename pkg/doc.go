// Package pkg provides the core libraries for depstatus, a service that
// reports outdated or insecure dependencies of Rust crates and hosted
// repositories.
//
// # Overview
//
// The pkg directory is organized into four areas:
//
//  1. Domain: [deps], [deps/rust], [crawler], [analyzer]
//  2. Orchestration: [engine]
//  3. Upstreams: [integrations] and its subpackages, plus [source/local]
//  4. Infrastructure: [cache], [httputil], [errors], [observability]
//
// # Architecture
//
// The data flow for a repository analysis:
//
//	Hosted repository or local directory
//	         ↓
//	    [crawler] (fetch Cargo.toml files, follow members and path deps)
//	         ↓
//	    [engine] (cached release histories + advisory database)
//	         ↓
//	    [analyzer] (latest, latest matching, vulnerabilities)
//	         ↓
//	    engine.Outcome → JSON status, shield badge, or terminal table
//
// A crate analysis skips the crawl: the dependency set comes from the
// release record in the crates.io index.
//
// # Quick Start
//
//	in := engine.Interactors{
//	    Registry:   crates.NewClient("", ""),
//	    Retriever:  sourcehost.NewClient(nil),
//	    Advisories: osv.NewClient(""),
//	}
//	eng := engine.New(engine.DefaultConfig(), in)
//
//	repo, _ := deps.ParseRepositoryPath("github", "serde-rs", "serde")
//	outcome, err := eng.AnalyzeRepositoryDependencies(ctx, repo, "")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(outcome.Counts())
//
// # Errors
//
// Every package reports failures as coded [errors.Error] values. Servers
// and the CLI map them to responses by category rather than by message.
//
// [deps]: https://pkg.go.dev/github.com/matzehuels/depstatus/pkg/deps
// [deps/rust]: https://pkg.go.dev/github.com/matzehuels/depstatus/pkg/deps/rust
// [crawler]: https://pkg.go.dev/github.com/matzehuels/depstatus/pkg/crawler
// [analyzer]: https://pkg.go.dev/github.com/matzehuels/depstatus/pkg/analyzer
// [engine]: https://pkg.go.dev/github.com/matzehuels/depstatus/pkg/engine
// [integrations]: https://pkg.go.dev/github.com/matzehuels/depstatus/pkg/integrations
// [source/local]: https://pkg.go.dev/github.com/matzehuels/depstatus/pkg/source/local
// [cache]: https://pkg.go.dev/github.com/matzehuels/depstatus/pkg/cache
// [httputil]: https://pkg.go.dev/github.com/matzehuels/depstatus/pkg/httputil
// [errors]: https://pkg.go.dev/github.com/matzehuels/depstatus/pkg/errors
// [errors.Error]: https://pkg.go.dev/github.com/matzehuels/depstatus/pkg/errors#Error
// [observability]: https://pkg.go.dev/github.com/matzehuels/depstatus/pkg/observability
package pkg
