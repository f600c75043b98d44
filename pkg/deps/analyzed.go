package deps

import (
	"github.com/Masterminds/semver"
)

// AnalyzedDependency is the status of one declared external dependency.
//
// LatestMatching is the highest version seen that satisfies Required.
// Latest is the highest non-prerelease version seen, regardless of Required.
type AnalyzedDependency struct {
	Required        Requirement
	LatestMatching  *semver.Version
	Latest          *semver.Version
	Vulnerabilities []Advisory
}

// NewAnalyzedDependency returns an empty result for required.
func NewAnalyzedDependency(required Requirement) *AnalyzedDependency {
	return &AnalyzedDependency{Required: required}
}

// IsOutdated reports whether a newer release exists than the best one the
// requirement admits. A missing LatestMatching sorts below any Latest.
func (d *AnalyzedDependency) IsOutdated() bool {
	return versionLess(d.LatestMatching, d.Latest)
}

// IsInsecure reports whether any matching version carries advisories.
func (d *AnalyzedDependency) IsInsecure() bool {
	return len(d.Vulnerabilities) > 0
}

// IsAlwaysInsecure reports whether even the latest release is affected by
// one of the recorded advisories, so upgrading would not help.
func (d *AnalyzedDependency) IsAlwaysInsecure() bool {
	if d.Latest == nil {
		return d.IsInsecure()
	}
	for i := range d.Vulnerabilities {
		if d.Vulnerabilities[i].Affects(d.Latest) {
			return true
		}
	}
	return false
}

// AnalyzedBucket is one bucket of analysis results.
type AnalyzedBucket = NameMap[*AnalyzedDependency]

// AnalyzedDependencies mirrors DependencySet with analysis results for the
// external dependencies only.
type AnalyzedDependencies struct {
	Main  AnalyzedBucket
	Dev   AnalyzedBucket
	Build AnalyzedBucket
}

// NewAnalyzedDependencies seeds empty results for every external
// dependency in set, preserving bucket order.
func NewAnalyzedDependencies(set *DependencySet) *AnalyzedDependencies {
	a := &AnalyzedDependencies{}
	seed := func(dst *AnalyzedBucket, src *Dependencies) {
		for name, dep := range src.All() {
			if dep.IsExternal() {
				dst.Set(name, NewAnalyzedDependency(dep.Requirement))
			}
		}
	}
	seed(&a.Main, &set.Main)
	seed(&a.Dev, &set.Dev)
	seed(&a.Build, &set.Build)
	return a
}

// Buckets returns the three buckets in presentation order.
func (a *AnalyzedDependencies) Buckets() []*AnalyzedBucket {
	return []*AnalyzedBucket{&a.Main, &a.Dev, &a.Build}
}

// CountTotal counts main and build dependencies.
func (a *AnalyzedDependencies) CountTotal() int {
	return a.Main.Len() + a.Build.Len()
}

// CountOutdated counts outdated main and build dependencies.
func (a *AnalyzedDependencies) CountOutdated() int {
	return countIf(func(d *AnalyzedDependency) bool { return d.IsOutdated() }, &a.Main, &a.Build)
}

// CountInsecure counts insecure dependencies across all buckets.
func (a *AnalyzedDependencies) CountInsecure() int {
	return countIf(func(d *AnalyzedDependency) bool { return d.IsInsecure() }, a.Buckets()...)
}

// CountAlwaysInsecure counts dependencies whose latest release is still
// affected, across all buckets.
func (a *AnalyzedDependencies) CountAlwaysInsecure() int {
	return countIf(func(d *AnalyzedDependency) bool { return d.IsAlwaysInsecure() }, a.Buckets()...)
}

// AnyOutdated reports whether a main or build dependency is outdated.
func (a *AnalyzedDependencies) AnyOutdated() bool { return a.CountOutdated() > 0 }

// AnyDevOutdated reports whether a dev dependency is outdated.
func (a *AnalyzedDependencies) AnyDevOutdated() bool {
	return countIf(func(d *AnalyzedDependency) bool { return d.IsOutdated() }, &a.Dev) > 0
}

// AnyInsecure reports whether any dependency carries advisories.
func (a *AnalyzedDependencies) AnyInsecure() bool { return a.CountInsecure() > 0 }

// AnyAlwaysInsecure reports whether any dependency stays vulnerable at its
// latest release.
func (a *AnalyzedDependencies) AnyAlwaysInsecure() bool { return a.CountAlwaysInsecure() > 0 }

func countIf(pred func(*AnalyzedDependency) bool, buckets ...*AnalyzedBucket) int {
	n := 0
	for _, b := range buckets {
		for _, d := range b.All() {
			if pred(d) {
				n++
			}
		}
	}
	return n
}
