package crawler

import (
	"path"
	"strings"

	"github.com/matzehuels/depstatus/pkg/deps"
	"github.com/matzehuels/depstatus/pkg/deps/rust"
	errs "github.com/matzehuels/depstatus/pkg/errors"
)

// Output is the result of a finished crawl: one entry per package
// manifest, in discovery order. A later manifest declaring an already
// recorded name replaces its dependencies but keeps its position.
type Output struct {
	Packages deps.NameMap[deps.DependencySet]
}

// StepOutput lists the directories a single manifest points at that have
// not been seen before.
type StepOutput struct {
	PathsOfInterest []string
}

// Crawler accumulates the packages of one crawl. It is not safe for
// concurrent use.
type Crawler struct {
	seen   map[string]bool // directories stepped or already reported
	leaves deps.NameMap[deps.DependencySet]
}

// New returns an empty Crawler.
func New() *Crawler {
	return &Crawler{seen: make(map[string]bool)}
}

// Step parses the manifest found in directory dir and records it.
// A parse failure leaves the crawler unchanged.
func (c *Crawler) Step(dir, raw string) (StepOutput, error) {
	m, err := rust.ParseManifest(raw)
	if err != nil {
		return StepOutput{}, annotate(err, dir)
	}
	c.seen[dir] = true

	var out StepOutput
	if m.HasPackage() {
		c.processPackage(dir, m, &out)
	}
	if m.HasWorkspace() {
		c.processWorkspace(dir, m.Members, &out)
	}
	return out, nil
}

// Finalize returns the packages recorded so far.
func (c *Crawler) Finalize() *Output {
	return &Output{Packages: c.leaves}
}

func (c *Crawler) processPackage(dir string, m *deps.Manifest, out *StepOutput) {
	for _, bucket := range []*deps.Dependencies{&m.Deps.Main, &m.Deps.Dev, &m.Deps.Build} {
		for _, dep := range bucket.All() {
			if !dep.IsExternal() {
				c.registerInterest(dir, dep.Path, out)
			}
		}
	}
	c.leaves.Set(m.Name, m.Deps)
}

func (c *Crawler) processWorkspace(dir string, members []string, out *StepOutput) {
	for _, member := range members {
		if isGlob(member) {
			continue
		}
		c.registerInterest(dir, member, out)
	}
}

func (c *Crawler) registerInterest(dir, rel string, out *StepOutput) {
	full, ok := JoinPath(dir, rel)
	if !ok || c.seen[full] {
		return
	}
	c.seen[full] = true
	out.PathsOfInterest = append(out.PathsOfInterest, full)
}

// JoinPath resolves rel against the repository directory dir. The root
// directory is "". ok is false when the result would leave the
// repository.
func JoinPath(dir, rel string) (string, bool) {
	p := path.Join(dir, rel)
	switch {
	case p == ".":
		return "", true
	case p == ".." || strings.HasPrefix(p, "../") || strings.HasPrefix(p, "/"):
		return "", false
	default:
		return p, true
	}
}

// ManifestPath returns the path of the manifest file inside dir.
func ManifestPath(dir string) string {
	return path.Join(dir, rust.ManifestFile)
}

func isGlob(member string) bool {
	return strings.ContainsAny(member, "*?[")
}

func annotate(err error, dir string) error {
	code := errs.GetCode(err)
	if code == "" {
		code = errs.ErrCodeDecode
	}
	return errs.Wrap(code, err, "manifest %s", ManifestPath(dir))
}
