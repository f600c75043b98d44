package deps

import (
	"github.com/Masterminds/semver"
)

// Advisory is a known security issue affecting some versions of a package.
type Advisory struct {
	ID       string         // Database identifier (e.g., "RUSTSEC-2020-0071")
	Package  PackageName    // Affected package
	Summary  string         // One-line description
	Aliases  []string       // CVE and GHSA identifiers
	URL      string         // Advisory page
	Ranges   []VersionRange // Affected ranges
	Versions []string       // Explicitly enumerated affected versions
}

// VersionRange is a half-open range of affected versions. A nil
// Introduced means every version from the beginning; a nil Fixed and nil
// LastAffected leave the range open-ended.
type VersionRange struct {
	Introduced   *semver.Version
	Fixed        *semver.Version
	LastAffected *semver.Version
}

// Contains reports whether v falls inside the range.
func (r VersionRange) Contains(v *semver.Version) bool {
	if r.Introduced != nil && v.LessThan(r.Introduced) {
		return false
	}
	if r.Fixed != nil && !v.LessThan(r.Fixed) {
		return false
	}
	if r.LastAffected != nil && v.GreaterThan(r.LastAffected) {
		return false
	}
	return true
}

// Affects reports whether version v of the package is vulnerable.
func (a *Advisory) Affects(v *semver.Version) bool {
	if v == nil {
		return false
	}
	for _, r := range a.Ranges {
		if r.Contains(v) {
			return true
		}
	}
	for _, s := range a.Versions {
		if av, err := semver.NewVersion(s); err == nil && av.Equal(v) {
			return true
		}
	}
	return false
}
