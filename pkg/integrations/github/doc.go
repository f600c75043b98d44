// Package github provides an HTTP client for the GitHub API.
//
// # Overview
//
// This package lists popular Rust repositories from the GitHub search API
// (https://api.github.com) for the landing page feed.
//
// # Usage
//
//	client := github.NewClient("", os.Getenv("GITHUB_TOKEN"))
//	repos, err := client.PopularRepositories(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, r := range repos {
//	    fmt.Println(r.Path, r.Description)
//	}
//
// # Authentication
//
// A GitHub personal access token is optional but recommended to avoid rate
// limits. Unauthenticated search requests are limited to 10 per minute.
package github
