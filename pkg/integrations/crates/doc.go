// Package crates provides an HTTP client for crates.io.
//
// # Overview
//
// Release history comes from the sparse index (https://index.crates.io),
// which serves one file per crate with one JSON record per published
// version. Each record lists the version, whether it was yanked, and its
// declared dependencies, so a single request yields everything the
// analyzer needs for one dependency name.
//
// The most downloaded crates come from the web API summary endpoint.
//
// # Usage
//
//	client := crates.NewClient("", "")
//	releases, err := client.Releases(ctx, "serde")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Dependency Mapping
//
// Index dependency kinds map to buckets: "normal" (or absent) to Main,
// "dev" to Dev and "build" to Build. Renamed dependencies are keyed by the
// real crate name from the "package" field. Optional dependencies are kept.
//
// # User-Agent
//
// The client includes a User-Agent header as requested by crates.io policy.
package crates
