package github

import (
	"context"
	"strings"

	"github.com/matzehuels/depstatus/pkg/deps"
	"github.com/matzehuels/depstatus/pkg/integrations"
)

// DefaultAPIURL is the public GitHub REST API.
const DefaultAPIURL = "https://api.github.com"

// Client provides access to the GitHub search API.
// It handles HTTP requests with automatic retries and optional authentication.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a GitHub API client with optional authentication.
// Pass an empty string for token to use unauthenticated requests (lower
// rate limits) and for baseURL to use the public API.
func NewClient(baseURL, token string, opts ...integrations.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	headers := map[string]string{
		"Accept":     "application/vnd.github.v3+json",
		"User-Agent": integrations.UserAgent,
	}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return &Client{
		Client:  integrations.NewClient(headers, opts...),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// PopularRepositories returns the most starred Rust repositories on GitHub,
// in the order the search API ranks them. Items whose owner or name is not
// a valid repository segment are skipped.
func (c *Client) PopularRepositories(ctx context.Context) ([]deps.Repository, error) {
	var data searchResponse
	if err := c.Get(ctx, c.baseURL+"/search/repositories?q=language:rust&sort=stars", &data); err != nil {
		return nil, err
	}

	repos := make([]deps.Repository, 0, len(data.Items))
	for _, item := range data.Items {
		path, err := deps.ParseRepositoryPath(deps.GitHub.String(), item.Owner.Login, item.Name)
		if err != nil {
			continue
		}
		repos = append(repos, deps.Repository{Path: path, Description: item.Description})
	}
	return repos, nil
}

type searchResponse struct {
	Items []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Owner       struct {
			Login string `json:"login"`
		} `json:"owner"`
	} `json:"items"`
}
