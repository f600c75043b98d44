package deps

import (
	"iter"
	"slices"

	"github.com/Masterminds/semver"
	packageurl "github.com/package-url/packageurl-go"

	errs "github.com/matzehuels/depstatus/pkg/errors"
)

// PackageName is a validated registry package name.
type PackageName string

// ParsePackageName validates s and returns it as a PackageName.
func ParsePackageName(s string) (PackageName, error) {
	if err := errs.ValidatePackageName(s); err != nil {
		return "", err
	}
	return PackageName(s), nil
}

func (n PackageName) String() string { return string(n) }

// PackagePath identifies one concrete published release.
type PackagePath struct {
	Name    PackageName
	Version *semver.Version
}

// ParsePackagePath validates both halves of a release identifier.
func ParsePackagePath(name, version string) (PackagePath, error) {
	n, err := ParsePackageName(name)
	if err != nil {
		return PackagePath{}, err
	}
	v, err := ParseVersion(version)
	if err != nil {
		return PackagePath{}, err
	}
	return PackagePath{Name: n, Version: v}, nil
}

// String renders the path as "name@version".
func (p PackagePath) String() string {
	if p.Version == nil {
		return string(p.Name)
	}
	return string(p.Name) + "@" + p.Version.String()
}

// PURL renders the release as a cargo package URL.
func (p PackagePath) PURL() string {
	var version string
	if p.Version != nil {
		version = p.Version.String()
	}
	return packageurl.NewPackageURL(packageurl.TypeCargo, "", string(p.Name), version, nil, "").ToString()
}

// ParseVersion parses a semantic version, reporting failures as validation errors.
func ParseVersion(s string) (*semver.Version, error) {
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidVersion, err, "invalid version %q", s)
	}
	return v, nil
}

// IsPrerelease reports whether v carries a pre-release component.
func IsPrerelease(v *semver.Version) bool {
	return v != nil && v.Prerelease() != ""
}

// versionLess orders versions with nil below any concrete version.
func versionLess(a, b *semver.Version) bool {
	switch {
	case b == nil:
		return false
	case a == nil:
		return true
	default:
		return a.LessThan(b)
	}
}

// NameMap is an insertion-ordered map keyed by package name.
// The zero value is ready to use.
type NameMap[V any] struct {
	names []PackageName
	m     map[PackageName]V
}

// Set stores v under name. An existing name keeps its position.
func (nm *NameMap[V]) Set(name PackageName, v V) {
	if nm.m == nil {
		nm.m = make(map[PackageName]V)
	}
	if _, ok := nm.m[name]; !ok {
		nm.names = append(nm.names, name)
	}
	nm.m[name] = v
}

// Get returns the value stored under name.
func (nm *NameMap[V]) Get(name PackageName) (V, bool) {
	v, ok := nm.m[name]
	return v, ok
}

// Len returns the number of entries.
func (nm *NameMap[V]) Len() int { return len(nm.names) }

// Names returns the keys in insertion order.
func (nm *NameMap[V]) Names() []PackageName { return slices.Clone(nm.names) }

// All iterates entries in insertion order.
func (nm *NameMap[V]) All() iter.Seq2[PackageName, V] {
	return func(yield func(PackageName, V) bool) {
		for _, name := range nm.names {
			if !yield(name, nm.m[name]) {
				return
			}
		}
	}
}
