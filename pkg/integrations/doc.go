// Package integrations provides HTTP clients for the upstream services
// depstatus reads from.
//
// # Overview
//
// Each upstream has its own subpackage:
//
//   - [crates]: crates.io release history, release dependencies, popular crates
//   - [github]: popular Rust repositories from the GitHub search API
//   - [sourcehost]: raw manifest files from GitHub, GitLab, Bitbucket, sourcehut, Codeberg
//   - [osv]: the RustSec advisory database via the OSV crates.io export
//
// # Shared Infrastructure
//
// The [Client] type provides shared HTTP functionality used by all clients:
//
//   - Retries of transient failures (connection errors, 429, 5xx) via [httputil.Retry]
//   - Optional per-host token-bucket throttling via [httputil.HostLimiter]
//   - Optional per-host circuit breakers via [httputil.Breakers]
//   - HTTP events reported through [observability.HTTP]
//
// Responses are not cached here; caching happens one level up, in the
// engine, keyed by domain values rather than URLs.
//
// # Errors
//
// Failures are coded [errs.Error] values that also wrap one of the
// sentinels [ErrNotFound] or [ErrNetwork], so callers can use either
// errors.Is or [errs.GetCategory].
//
// [crates]: github.com/matzehuels/depstatus/pkg/integrations/crates
// [github]: github.com/matzehuels/depstatus/pkg/integrations/github
// [sourcehost]: github.com/matzehuels/depstatus/pkg/integrations/sourcehost
// [osv]: github.com/matzehuels/depstatus/pkg/integrations/osv
// [httputil.Retry]: github.com/matzehuels/depstatus/pkg/httputil.Retry
// [httputil.HostLimiter]: github.com/matzehuels/depstatus/pkg/httputil.HostLimiter
// [httputil.Breakers]: github.com/matzehuels/depstatus/pkg/httputil.Breakers
// [observability.HTTP]: github.com/matzehuels/depstatus/pkg/observability.HTTP
// [errs.Error]: github.com/matzehuels/depstatus/pkg/errors.Error
// [errs.GetCategory]: github.com/matzehuels/depstatus/pkg/errors.GetCategory
package integrations
