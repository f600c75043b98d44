package crates

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/matzehuels/depstatus/pkg/deps"
	errs "github.com/matzehuels/depstatus/pkg/errors"
	"github.com/matzehuels/depstatus/pkg/integrations"
)

const (
	// DefaultIndexURL is the crates.io sparse index.
	DefaultIndexURL = "https://index.crates.io"
	// DefaultAPIURL is the crates.io web API.
	DefaultAPIURL = "https://crates.io/api/v1"
)

// Client provides access to the crates.io sparse index and web API.
//
// All methods are safe for concurrent use by multiple goroutines.
//
// Note: crates.io requires a User-Agent header; this client sets one automatically.
type Client struct {
	*integrations.Client
	indexURL string
	apiURL   string
}

// NewClient creates a crates.io client. Empty URLs select the public
// crates.io endpoints.
func NewClient(indexURL, apiURL string, opts ...integrations.Option) *Client {
	if indexURL == "" {
		indexURL = DefaultIndexURL
	}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	headers := map[string]string{"User-Agent": integrations.UserAgent}
	return &Client{
		Client:   integrations.NewClient(headers, opts...),
		indexURL: strings.TrimSuffix(indexURL, "/"),
		apiURL:   strings.TrimSuffix(apiURL, "/"),
	}
}

// Releases returns the full publish history of a crate, oldest first, as
// recorded in the sparse index. Each release carries its declared
// dependencies.
//
// Returns:
//   - an error coded PACKAGE_NOT_FOUND (wrapping [integrations.ErrNotFound]) if the crate doesn't exist
//   - transport-category errors for HTTP failures
//   - a DECODE_ERROR if the index file is malformed
func (c *Client) Releases(ctx context.Context, name deps.PackageName) ([]deps.Release, error) {
	data, err := c.GetBytes(ctx, c.indexURL+"/"+IndexPath(name))
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return nil, errs.Wrap(errs.ErrCodePackageNotFound, err, "crate %s", name)
		}
		return nil, err
	}
	return parseIndexFile(name, data)
}

// IndexPath returns the sparse index path of a crate's file.
func IndexPath(name deps.PackageName) string {
	n := strings.ToLower(string(name))
	switch len(n) {
	case 0:
		return ""
	case 1:
		return "1/" + n
	case 2:
		return "2/" + n
	case 3:
		return "3/" + n[:1] + "/" + n
	default:
		return n[:2] + "/" + n[2:4] + "/" + n
	}
}

type indexRecord struct {
	Vers   string     `json:"vers"`
	Deps   []indexDep `json:"deps"`
	Yanked bool       `json:"yanked"`
}

type indexDep struct {
	Name    string  `json:"name"`
	Req     string  `json:"req"`
	Kind    *string `json:"kind"`
	Package string  `json:"package"`
}

// parseIndexFile decodes the newline-delimited records of one index file.
// Records whose version does not parse are skipped, as are dependencies
// whose name or requirement does not.
func parseIndexFile(name deps.PackageName, data []byte) ([]deps.Release, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var releases []deps.Release
	for {
		var rec indexRecord
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeDecode, err, "index file for crate %s", name)
		}
		v, err := deps.ParseVersion(rec.Vers)
		if err != nil {
			continue
		}
		releases = append(releases, deps.Release{
			Name:    name,
			Version: v,
			Deps:    convertDeps(rec.Deps),
			Yanked:  rec.Yanked,
		})
	}
	return releases, nil
}

func convertDeps(records []indexDep) deps.DependencySet {
	var set deps.DependencySet
	for _, d := range records {
		key := d.Name
		if d.Package != "" {
			key = d.Package
		}
		name, err := deps.ParsePackageName(key)
		if err != nil {
			continue
		}
		req, err := deps.ParseRequirement(d.Req)
		if err != nil {
			continue
		}

		bucket := &set.Main
		if d.Kind != nil {
			switch *d.Kind {
			case "dev":
				bucket = &set.Dev
			case "build":
				bucket = &set.Build
			}
		}
		bucket.Set(name, deps.External(req))
	}
	return set
}

// Popular returns the most downloaded crates at their newest version.
// Entries with invalid names or versions are skipped.
func (c *Client) Popular(ctx context.Context) ([]deps.PackagePath, error) {
	var data summaryResponse
	if err := c.Get(ctx, c.apiURL+"/summary", &data); err != nil {
		return nil, err
	}

	paths := make([]deps.PackagePath, 0, len(data.MostDownloaded))
	for _, cr := range data.MostDownloaded {
		p, err := deps.ParsePackagePath(cr.Name, cr.MaxVersion)
		if err != nil {
			continue
		}
		paths = append(paths, p)
	}
	return paths, nil
}

type summaryResponse struct {
	MostDownloaded []struct {
		Name       string `json:"name"`
		MaxVersion string `json:"max_version"`
	} `json:"most_downloaded"`
}
