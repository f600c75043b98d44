// Package crawler discovers every package manifest reachable from a
// repository directory.
//
// # Step machine
//
// [Crawler] is a synchronous state machine. Each call to [Crawler.Step]
// parses one manifest and returns the directories it points at: workspace
// members and path dependencies. Directories are resolved relative to the
// manifest, cleaned, and reported at most once per crawl. Members
// containing glob patterns are skipped because their expansion is not
// known without listing the repository.
//
//	c := crawler.New()
//	out, err := c.Step("", rootManifest)
//	for _, dir := range out.PathsOfInterest {
//	    // fetch dir/Cargo.toml and Step it
//	}
//	result := c.Finalize()
//
// # Concurrent crawl
//
// [Crawl] drives the step machine against a [Retriever], fetching
// discovered manifests concurrently. Results are folded in the order
// directories were discovered, so the package order of the [Output] is
// deterministic. The first retrieval or parse failure cancels the
// remaining fetches and fails the crawl.
package crawler
