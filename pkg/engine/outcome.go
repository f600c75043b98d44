package engine

import (
	"time"

	"github.com/matzehuels/depstatus/pkg/deps"
)

// PackageOutcome is the analysis of one package.
type PackageOutcome struct {
	Name deps.PackageName
	Deps *deps.AnalyzedDependencies
}

// Outcome aggregates the analyses of one or more packages.
type Outcome struct {
	Packages []PackageOutcome
	Duration time.Duration
}

// AnyOutdated reports whether any package has an outdated main or build
// dependency.
func (o *Outcome) AnyOutdated() bool {
	return o.any((*deps.AnalyzedDependencies).AnyOutdated)
}

// AnyInsecure reports whether any dependency carries advisories.
func (o *Outcome) AnyInsecure() bool {
	return o.any((*deps.AnalyzedDependencies).AnyInsecure)
}

// AnyAlwaysInsecure reports whether any dependency is still affected at
// its latest release.
func (o *Outcome) AnyAlwaysInsecure() bool {
	return o.any((*deps.AnalyzedDependencies).AnyAlwaysInsecure)
}

// OutdatedRatio returns the number of outdated main and build
// dependencies and their total, summed over all packages.
func (o *Outcome) OutdatedRatio() (outdated, total int) {
	if o == nil {
		return 0, 0
	}
	for _, p := range o.Packages {
		outdated += p.Deps.CountOutdated()
		total += p.Deps.CountTotal()
	}
	return outdated, total
}

// Counts summarizes an outcome for display.
type Counts struct {
	Total           int // Main and build dependencies
	Outdated        int // Main and build dependencies
	Insecure        int // All buckets, still affected at the latest release
	PossiblyInsecure int // All buckets, fixed by upgrading
}

// Counts returns the summary counts across all packages.
func (o *Outcome) Counts() Counts {
	var c Counts
	if o == nil {
		return c
	}
	c.Outdated, c.Total = o.OutdatedRatio()
	for _, p := range o.Packages {
		always := p.Deps.CountAlwaysInsecure()
		c.Insecure += always
		c.PossiblyInsecure += p.Deps.CountInsecure() - always
	}
	return c
}

func (o *Outcome) any(pred func(*deps.AnalyzedDependencies) bool) bool {
	if o == nil {
		return false
	}
	for _, p := range o.Packages {
		if pred(p.Deps) {
			return true
		}
	}
	return false
}

func (o *Outcome) countOutdated() int {
	n, _ := o.OutdatedRatio()
	return n
}

func (o *Outcome) countInsecure() int {
	if o == nil {
		return 0
	}
	n := 0
	for _, p := range o.Packages {
		n += p.Deps.CountInsecure()
	}
	return n
}
