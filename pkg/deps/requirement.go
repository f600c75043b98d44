package deps

import (
	"strconv"
	"strings"

	"github.com/Masterminds/semver"

	errs "github.com/matzehuels/depstatus/pkg/errors"
)

// Requirement is a Cargo version requirement such as "^1.2", ">= 0.3, < 0.5"
// or "1.*". A bare version means caret. An empty requirement or "*" matches
// every release version.
type Requirement struct {
	raw         string
	comparators []comparator
}

type op int

const (
	opCaret op = iota
	opTilde
	opExact
	opGreater
	opGreaterEq
	opLess
	opLessEq
	opWildcard
)

// comparator is one clause of a requirement. minor and patch are -1 when
// the clause leaves them unspecified.
type comparator struct {
	op    op
	major int64
	minor int64
	patch int64
	pre   string
}

// AnyRequirement matches every non-prerelease version.
var AnyRequirement = Requirement{raw: "*"}

// ParseRequirement parses a Cargo version requirement.
func ParseRequirement(s string) (Requirement, error) {
	raw := strings.TrimSpace(s)
	if raw == "" || raw == "*" {
		return Requirement{raw: "*"}, nil
	}

	var cmps []comparator
	for part := range strings.SplitSeq(raw, ",") {
		c, err := parseComparator(strings.TrimSpace(part))
		if err != nil {
			return Requirement{}, errs.Wrap(errs.ErrCodeInvalidRequirement, err, "invalid version requirement %q", s)
		}
		if c != nil {
			cmps = append(cmps, *c)
		}
	}
	return Requirement{raw: raw, comparators: cmps}, nil
}

// MustParseRequirement is like ParseRequirement but panics on error.
// Intended for constants and tests.
func MustParseRequirement(s string) Requirement {
	r, err := ParseRequirement(s)
	if err != nil {
		panic(err)
	}
	return r
}

// String returns the requirement as written.
func (r Requirement) String() string {
	if r.raw == "" {
		return "*"
	}
	return r.raw
}

// MarshalText implements encoding.TextMarshaler.
func (r Requirement) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Requirement) UnmarshalText(b []byte) error {
	parsed, err := ParseRequirement(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Matches reports whether v satisfies every comparator. A pre-release
// version additionally needs some comparator naming the same
// major.minor.patch with a pre-release of its own.
func (r Requirement) Matches(v *semver.Version) bool {
	if v == nil {
		return false
	}
	for _, c := range r.comparators {
		if !c.matches(v) {
			return false
		}
	}
	if v.Prerelease() == "" {
		return true
	}
	for _, c := range r.comparators {
		if c.allowsPrerelease(v) {
			return true
		}
	}
	return false
}

func (c comparator) allowsPrerelease(v *semver.Version) bool {
	return c.op != opWildcard && c.pre != "" &&
		c.major == v.Major() && c.minor == v.Minor() && c.patch == v.Patch()
}

func (c comparator) matches(v *semver.Version) bool {
	switch c.op {
	case opExact, opWildcard:
		return c.matchesExact(v)
	case opGreater:
		return c.matchesGreater(v)
	case opGreaterEq:
		return c.matchesExact(v) || c.matchesGreater(v)
	case opLess:
		return c.matchesLess(v)
	case opLessEq:
		return c.matchesExact(v) || c.matchesLess(v)
	case opTilde:
		return c.matchesTilde(v)
	default:
		return c.matchesCaret(v)
	}
}

func (c comparator) matchesExact(v *semver.Version) bool {
	if v.Major() != c.major {
		return false
	}
	if c.minor < 0 {
		return true
	}
	if v.Minor() != c.minor {
		return false
	}
	if c.patch < 0 {
		return true
	}
	if v.Patch() != c.patch {
		return false
	}
	return v.Prerelease() == c.pre
}

func (c comparator) matchesGreater(v *semver.Version) bool {
	if v.Major() != c.major {
		return v.Major() > c.major
	}
	if c.minor < 0 {
		return false
	}
	if v.Minor() != c.minor {
		return v.Minor() > c.minor
	}
	if c.patch < 0 {
		return false
	}
	if v.Patch() != c.patch {
		return v.Patch() > c.patch
	}
	return comparePrerelease(v.Prerelease(), c.pre) > 0
}

func (c comparator) matchesLess(v *semver.Version) bool {
	if v.Major() != c.major {
		return v.Major() < c.major
	}
	if c.minor < 0 {
		return false
	}
	if v.Minor() != c.minor {
		return v.Minor() < c.minor
	}
	if c.patch < 0 {
		return false
	}
	if v.Patch() != c.patch {
		return v.Patch() < c.patch
	}
	return comparePrerelease(v.Prerelease(), c.pre) < 0
}

func (c comparator) matchesTilde(v *semver.Version) bool {
	if v.Major() != c.major {
		return false
	}
	if c.minor < 0 {
		return true
	}
	if v.Minor() != c.minor {
		return false
	}
	if c.patch < 0 {
		return true
	}
	if v.Patch() != c.patch {
		return v.Patch() > c.patch
	}
	return comparePrerelease(v.Prerelease(), c.pre) >= 0
}

func (c comparator) matchesCaret(v *semver.Version) bool {
	if v.Major() != c.major {
		return false
	}
	if c.minor < 0 {
		return true
	}
	if c.patch < 0 {
		if c.major > 0 {
			return v.Minor() >= c.minor
		}
		return v.Minor() == c.minor
	}

	switch {
	case c.major > 0:
		if v.Minor() != c.minor {
			return v.Minor() > c.minor
		}
		if v.Patch() != c.patch {
			return v.Patch() > c.patch
		}
	case c.minor > 0:
		if v.Minor() != c.minor {
			return false
		}
		if v.Patch() != c.patch {
			return v.Patch() > c.patch
		}
	default:
		if v.Minor() != c.minor || v.Patch() != c.patch {
			return false
		}
	}
	return comparePrerelease(v.Prerelease(), c.pre) >= 0
}

// comparePrerelease orders pre-release strings the semver way: an empty
// pre-release sorts after any non-empty one.
func comparePrerelease(a, b string) int {
	if a == b {
		return 0
	}
	va, errA := semver.NewVersion("0.0.0-" + a)
	vb, errB := semver.NewVersion("0.0.0-" + b)
	switch {
	case a == "":
		return 1
	case b == "":
		return -1
	case errA != nil || errB != nil:
		return strings.Compare(a, b)
	default:
		return va.Compare(vb)
	}
}

var opPrefixes = []struct {
	prefix string
	op     op
}{
	{">=", opGreaterEq},
	{"<=", opLessEq},
	{">", opGreater},
	{"<", opLess},
	{"=", opExact},
	{"~", opTilde},
	{"^", opCaret},
}

func parseComparator(s string) (*comparator, error) {
	if s == "" {
		return nil, errs.New(errs.ErrCodeInvalidRequirement, "empty comparator")
	}
	if s == "*" {
		return nil, nil
	}

	c := comparator{op: opCaret, minor: -1, patch: -1}
	explicitOp := false
	for _, p := range opPrefixes {
		if strings.HasPrefix(s, p.prefix) {
			c.op = p.op
			s = strings.TrimSpace(s[len(p.prefix):])
			explicitOp = true
			break
		}
	}

	// Build metadata never influences matching.
	if i := strings.IndexByte(s, '+'); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '-'); i >= 0 {
		c.pre = s[i+1:]
		s = s[:i]
		if c.pre == "" {
			return nil, errs.New(errs.ErrCodeInvalidRequirement, "empty pre-release")
		}
	}

	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		return nil, errs.New(errs.ErrCodeInvalidRequirement, "too many version components in %q", s)
	}

	fields := []*int64{&c.major, &c.minor, &c.patch}
	wildcard := false
	for i, part := range parts {
		if isWildcard(part) {
			if i == 0 {
				return nil, nil
			}
			wildcard = true
			continue
		}
		if wildcard {
			return nil, errs.New(errs.ErrCodeInvalidRequirement, "unexpected component after wildcard in %q", s)
		}
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil || n < 0 {
			return nil, errs.New(errs.ErrCodeInvalidRequirement, "invalid version component %q", part)
		}
		*fields[i] = n
	}

	if wildcard {
		if c.pre != "" {
			return nil, errs.New(errs.ErrCodeInvalidRequirement, "wildcard with pre-release")
		}
		if !explicitOp || c.op == opExact {
			c.op = opWildcard
		}
	}
	if c.pre != "" && (c.minor < 0 || c.patch < 0) {
		return nil, errs.New(errs.ErrCodeInvalidRequirement, "pre-release requires a full version")
	}
	return &c, nil
}

func isWildcard(s string) bool {
	return s == "*" || s == "x" || s == "X"
}
