package osv

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/depstatus/pkg/integrations"
)

// DefaultURL is the public OSV export bucket.
const DefaultURL = "https://osv-vulnerabilities.storage.googleapis.com"

// Client downloads the crates.io advisory export.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates an OSV client. An empty baseURL selects [DefaultURL].
func NewClient(baseURL string, opts ...integrations.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	headers := map[string]string{"User-Agent": integrations.UserAgent}
	return &Client{
		Client:  integrations.NewClient(headers, opts...),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// ArchiveURL returns the URL of the crates.io export archive.
func (c *Client) ArchiveURL() string {
	return c.baseURL + "/" + Ecosystem + "/all.zip"
}

// Fetch downloads and indexes every current crates.io advisory.
func (c *Client) Fetch(ctx context.Context) (*Database, error) {
	data, err := c.GetBytes(ctx, c.ArchiveURL())
	if err != nil {
		return nil, err
	}
	return Parse(data, time.Now())
}
