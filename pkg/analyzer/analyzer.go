// Package analyzer folds release histories into per-dependency status.
//
// An [Analyzer] is created for one package's declared dependencies and fed
// release records in any order and in any number of batches. The result
// does not depend on the order: latest versions are a max-fold and yanked
// releases are ignored.
package analyzer

import (
	"github.com/Masterminds/semver"

	"github.com/matzehuels/depstatus/pkg/deps"
)

// VulnerabilityDatabase answers which advisories affect one release.
type VulnerabilityDatabase interface {
	Query(name deps.PackageName, version *semver.Version) []deps.Advisory
}

// Analyzer accumulates release information for a dependency set.
// It is not safe for concurrent use.
type Analyzer struct {
	deps *deps.AnalyzedDependencies
	db   VulnerabilityDatabase
}

// New returns an Analyzer for the external dependencies in set. db may be
// nil, in which case no vulnerabilities are recorded.
func New(set *deps.DependencySet, db VulnerabilityDatabase) *Analyzer {
	return &Analyzer{deps: deps.NewAnalyzedDependencies(set), db: db}
}

// Process folds releases into the running result. Releases of packages
// that are not declared are ignored.
func (a *Analyzer) Process(releases []deps.Release) {
	for i := range releases {
		r := &releases[i]
		if r.Yanked || r.Version == nil {
			continue
		}
		for _, bucket := range a.deps.Buckets() {
			if dep, ok := bucket.Get(r.Name); ok {
				a.processSingle(r.Name, dep, r.Version)
			}
		}
	}
}

func (a *Analyzer) processSingle(name deps.PackageName, dep *deps.AnalyzedDependency, v *semver.Version) {
	matches := dep.Required.Matches(v)
	if matches && (dep.LatestMatching == nil || dep.LatestMatching.LessThan(v)) {
		dep.LatestMatching = v
	}
	if !deps.IsPrerelease(v) && (dep.Latest == nil || dep.Latest.LessThan(v)) {
		dep.Latest = v
	}
	// Overwrite only on a hit so an unaffected version cannot clear
	// advisories recorded for another matching version.
	if matches && a.db != nil {
		if vulns := a.db.Query(name, v); len(vulns) > 0 {
			dep.Vulnerabilities = vulns
		}
	}
}

// Finalize returns the analysis result. The Analyzer must not be used
// afterwards.
func (a *Analyzer) Finalize() *deps.AnalyzedDependencies {
	out := a.deps
	a.deps = nil
	return out
}
