package sourcehost

import (
	"context"
	"errors"

	"github.com/matzehuels/depstatus/pkg/crawler"
	"github.com/matzehuels/depstatus/pkg/deps"
	errs "github.com/matzehuels/depstatus/pkg/errors"
	"github.com/matzehuels/depstatus/pkg/integrations"
)

// Client retrieves raw manifest files from hosted repositories.
// It implements [crawler.Retriever].
type Client struct {
	*integrations.Client
	bases map[deps.Host]string
}

var _ crawler.Retriever = (*Client)(nil)

// NewClient creates a source host client. bases overrides the raw file
// base URL per host; hosts without an entry use their public default.
func NewClient(bases map[deps.Host]string, opts ...integrations.Option) *Client {
	headers := map[string]string{"User-Agent": integrations.UserAgent}
	return &Client{
		Client: integrations.NewClient(headers, opts...),
		bases:  bases,
	}
}

// ManifestURL returns the raw URL of the manifest in directory dir of repo.
func (c *Client) ManifestURL(repo deps.RepositoryPath, dir string) string {
	return repo.RawFileURL(c.bases[repo.Host], crawler.ManifestPath(dir))
}

// RetrieveManifest fetches the manifest in directory dir of repo from the
// default branch. A missing file is reported with code FILE_NOT_FOUND.
func (c *Client) RetrieveManifest(ctx context.Context, repo deps.RepositoryPath, dir string) (string, error) {
	text, err := c.GetText(ctx, c.ManifestURL(repo, dir))
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return "", errs.Wrap(errs.ErrCodeFileNotFound, err, "%s in %s", crawler.ManifestPath(dir), repo)
		}
		return "", err
	}
	return text, nil
}
