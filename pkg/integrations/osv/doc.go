// Package osv loads the RustSec advisory database from the OSV export.
//
// # Overview
//
// OSV (https://osv.dev) publishes one zip archive per ecosystem containing
// one JSON record per advisory. [Client.Fetch] downloads the crates.io
// archive and builds a [Database], which answers "which advisories affect
// this crate at this version" for the analyzer.
//
// # Ranges
//
// SEMVER and ECOSYSTEM ranges are evaluated as ordered event lists:
// "introduced" opens a range, "fixed" closes it exclusively and
// "last_affected" closes it inclusively. An introduced version of "0"
// means every version. GIT ranges are ignored. Explicit version lists are
// kept alongside the ranges.
//
// # Filtering
//
// Withdrawn records and RustSec informational notices (unmaintained or
// unsound crates) are not treated as vulnerabilities.
package osv
