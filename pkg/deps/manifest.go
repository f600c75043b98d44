package deps

import (
	"github.com/Masterminds/semver"
)

// Dependency is what a manifest declares for one name: either a version
// requirement resolved against the registry, or a path to a sibling manifest.
type Dependency struct {
	Requirement Requirement // External only
	Path        string      // Internal only, relative to the declaring manifest
	internal    bool
}

// External declares a registry dependency.
func External(req Requirement) Dependency { return Dependency{Requirement: req} }

// Internal declares a dependency on the package at a relative path.
func Internal(path string) Dependency { return Dependency{Path: path, internal: true} }

// IsExternal reports whether the dependency is resolved from the registry.
func (d Dependency) IsExternal() bool { return !d.internal }

// Dependencies is one bucket of declared dependencies.
type Dependencies = NameMap[Dependency]

// DependencySet holds the three dependency buckets of a package.
// The same name may appear in several buckets with different requirements.
type DependencySet struct {
	Main  Dependencies
	Dev   Dependencies
	Build Dependencies
}

// Len returns the number of declarations across all buckets.
func (s *DependencySet) Len() int {
	return s.Main.Len() + s.Dev.Len() + s.Build.Len()
}

// ExternalNames returns each externally resolved name once, in bucket
// order main, dev, build.
func (s *DependencySet) ExternalNames() []PackageName {
	seen := make(map[PackageName]bool)
	var names []PackageName
	for _, bucket := range []*Dependencies{&s.Main, &s.Dev, &s.Build} {
		for name, dep := range bucket.All() {
			if dep.IsExternal() && !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// ManifestKind distinguishes what a manifest file declares.
type ManifestKind int

const (
	// PackageManifest declares a single package.
	PackageManifest ManifestKind = iota
	// WorkspaceManifest only groups member packages.
	WorkspaceManifest
	// MixedManifest declares a package and workspace members.
	MixedManifest
)

func (k ManifestKind) String() string {
	switch k {
	case PackageManifest:
		return "package"
	case WorkspaceManifest:
		return "workspace"
	case MixedManifest:
		return "mixed"
	default:
		return "unknown"
	}
}

// Manifest is the parsed form of one manifest file.
type Manifest struct {
	Kind    ManifestKind
	Name    PackageName   // Package and Mixed
	Deps    DependencySet // Package and Mixed
	Members []string      // Workspace and Mixed, relative to the manifest
}

// HasPackage reports whether the manifest declares a package.
func (m *Manifest) HasPackage() bool { return m.Kind != WorkspaceManifest }

// HasWorkspace reports whether the manifest declares workspace members.
func (m *Manifest) HasWorkspace() bool { return m.Kind != PackageManifest }

// Release is one historical publish record of a package.
type Release struct {
	Name    PackageName
	Version *semver.Version
	Deps    DependencySet
	Yanked  bool
}

// Path returns the release identifier.
func (r *Release) Path() PackagePath {
	return PackagePath{Name: r.Name, Version: r.Version}
}
