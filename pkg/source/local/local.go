// Package local reads Cargo manifests from a directory on disk.
//
// [Retriever] satisfies crawler.Retriever, so a checked-out workspace can
// be analyzed exactly like a hosted repository. Reads go through an
// [os.Root], which keeps the crawl inside the directory even when a
// manifest names a path dependency that points elsewhere.
package local

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/matzehuels/depstatus/pkg/crawler"
	"github.com/matzehuels/depstatus/pkg/deps"
	errs "github.com/matzehuels/depstatus/pkg/errors"
)

// maxManifestSize caps how much of a single manifest is read.
const maxManifestSize = 1 << 20

// Retriever serves manifests from a directory tree.
type Retriever struct {
	root *os.Root
	dir  string
}

// Open returns a Retriever rooted at dir. The caller must Close it.
func Open(dir string) (*Retriever, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidPath, err, "directory %s", dir)
	}
	root, err := os.OpenRoot(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "directory %s", dir)
		}
		return nil, errs.Wrap(errs.ErrCodeInvalidPath, err, "directory %s", dir)
	}
	return &Retriever{root: root, dir: abs}, nil
}

// Dir returns the absolute path of the root directory.
func (r *Retriever) Dir() string { return r.dir }

// Close releases the root directory handle.
func (r *Retriever) Close() error { return r.root.Close() }

// RetrieveManifest reads the manifest in dir, relative to the root. The
// repository path is ignored.
func (r *Retriever) RetrieveManifest(ctx context.Context, _ deps.RepositoryPath, dir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := filepath.FromSlash(crawler.ManifestPath(dir))

	f, err := r.root.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", errs.Wrap(errs.ErrCodeFileNotFound, err, "%s in %s", crawler.ManifestPath(dir), r.dir)
		}
		return "", errs.Wrap(errs.ErrCodeInvalidPath, err, "%s in %s", crawler.ManifestPath(dir), r.dir)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxManifestSize))
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeInternal, err, "read %s", name)
	}
	return string(data), nil
}
