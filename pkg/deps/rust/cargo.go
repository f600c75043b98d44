package rust

import (
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/depstatus/pkg/deps"
	errs "github.com/matzehuels/depstatus/pkg/errors"
)

// ManifestFile is the manifest file name inside each package directory.
const ManifestFile = "Cargo.toml"

// Supports reports whether name is a Cargo manifest file name.
func Supports(name string) bool { return strings.EqualFold(name, ManifestFile) }

const (
	sectionMain  = "dependencies"
	sectionDev   = "dev-dependencies"
	sectionBuild = "build-dependencies"
)

type cargoFile struct {
	Package *struct {
		Name string `toml:"name"`
	} `toml:"package"`
	Workspace *struct {
		Members []string `toml:"members"`
	} `toml:"workspace"`
	Dependencies      map[string]any             `toml:"dependencies"`
	DevDependencies   map[string]any             `toml:"dev-dependencies"`
	BuildDependencies map[string]any             `toml:"build-dependencies"`
	Target            map[string]cargoTargetDeps `toml:"target"`
}

type cargoTargetDeps struct {
	Dependencies      map[string]any `toml:"dependencies"`
	DevDependencies   map[string]any `toml:"dev-dependencies"`
	BuildDependencies map[string]any `toml:"build-dependencies"`
}

func (t cargoTargetDeps) section(name string) map[string]any {
	switch name {
	case sectionMain:
		return t.Dependencies
	case sectionDev:
		return t.DevDependencies
	default:
		return t.BuildDependencies
	}
}

// ParseManifest parses the text of a Cargo.toml.
//
// Dependencies keep their declaration order. Platform-specific
// dependencies under [target.'cfg(..)'] are merged into the matching
// bucket after the plain ones; a name declared twice keeps its first
// position and takes the later declaration. Git dependencies are ignored,
// path dependencies become internal, and a "package" key renames the
// registry package. A manifest with neither [package] nor [workspace]
// is an error.
func ParseManifest(text string) (*deps.Manifest, error) {
	var cargo cargoFile
	md, err := toml.Decode(text, &cargo)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeDecode, err, "parse %s", ManifestFile)
	}

	m := &deps.Manifest{}
	switch {
	case cargo.Package != nil && cargo.Workspace != nil:
		m.Kind = deps.MixedManifest
	case cargo.Package != nil:
		m.Kind = deps.PackageManifest
	case cargo.Workspace != nil:
		m.Kind = deps.WorkspaceManifest
	default:
		return nil, errs.New(errs.ErrCodeDecode, "neither workspace nor package found in manifest")
	}

	if cargo.Workspace != nil {
		m.Members = cargo.Workspace.Members
	}
	if cargo.Package == nil {
		return m, nil
	}

	if m.Name, err = deps.ParsePackageName(cargo.Package.Name); err != nil {
		return nil, err
	}

	order := keyOrder(md.Keys())
	plain := map[string]map[string]any{
		sectionMain:  cargo.Dependencies,
		sectionDev:   cargo.DevDependencies,
		sectionBuild: cargo.BuildDependencies,
	}
	buckets := map[string]*deps.Dependencies{
		sectionMain:  &m.Deps.Main,
		sectionDev:   &m.Deps.Dev,
		sectionBuild: &m.Deps.Build,
	}

	for _, section := range []string{sectionMain, sectionDev, sectionBuild} {
		if err := addDependencies(buckets[section], plain[section], order.plain[section]); err != nil {
			return nil, err
		}
	}
	for _, target := range order.targets {
		for _, section := range []string{sectionMain, sectionDev, sectionBuild} {
			decl := cargo.Target[target].section(section)
			if err := addDependencies(buckets[section], decl, order.target[target][section]); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// declOrder records dependency names in the order they appear in the
// document. TOML decoding into maps loses that order.
type declOrder struct {
	plain   map[string][]string
	targets []string
	target  map[string]map[string][]string
}

// Nested keys such as ["dependencies", "serde", "version"] also name
// their dependency, so each name is recorded once.
func keyOrder(keys []toml.Key) declOrder {
	o := declOrder{
		plain:  make(map[string][]string),
		target: make(map[string]map[string][]string),
	}
	for _, k := range keys {
		switch {
		case len(k) >= 2 && isSection(k[0]):
			o.plain[k[0]] = appendUnique(o.plain[k[0]], k[1])
		case len(k) >= 4 && k[0] == "target" && isSection(k[2]):
			t := k[1]
			if _, ok := o.target[t]; !ok {
				o.targets = append(o.targets, t)
				o.target[t] = make(map[string][]string)
			}
			o.target[t][k[2]] = appendUnique(o.target[t][k[2]], k[3])
		}
	}
	return o
}

func appendUnique(names []string, name string) []string {
	if slices.Contains(names, name) {
		return names
	}
	return append(names, name)
}

func isSection(s string) bool {
	return s == sectionMain || s == sectionDev || s == sectionBuild
}

func addDependencies(dst *deps.Dependencies, decl map[string]any, names []string) error {
	for _, key := range names {
		raw, ok := decl[key]
		if !ok {
			continue
		}
		name, dep, ok, err := convertDependency(key, raw)
		if err != nil {
			return err
		}
		if ok {
			dst.Set(name, dep)
		}
	}
	return nil
}

// convertDependency turns one declaration into a dependency. ok is false
// for declarations that are skipped: git sources and tables without a
// version or path.
func convertDependency(key string, raw any) (name deps.PackageName, dep deps.Dependency, ok bool, err error) {
	switch v := raw.(type) {
	case string:
		if name, err = deps.ParsePackageName(key); err != nil {
			return "", dep, false, err
		}
		req, err := deps.ParseRequirement(v)
		if err != nil {
			return "", dep, false, err
		}
		return name, deps.External(req), true, nil

	case map[string]any:
		if _, isGit := v["git"]; isGit {
			return "", dep, false, nil
		}
		if p, isPath := v["path"]; isPath {
			path, isString := p.(string)
			if !isString {
				return "", dep, false, errs.New(errs.ErrCodeDecode, "dependency %q: path must be a string", key)
			}
			if name, err = deps.ParsePackageName(key); err != nil {
				return "", dep, false, err
			}
			return name, deps.Internal(path), true, nil
		}
		version, hasVersion := v["version"].(string)
		if !hasVersion {
			return "", dep, false, nil
		}
		if pkg, renamed := v["package"].(string); renamed {
			key = pkg
		}
		if name, err = deps.ParsePackageName(key); err != nil {
			return "", dep, false, err
		}
		req, err := deps.ParseRequirement(version)
		if err != nil {
			return "", dep, false, err
		}
		return name, deps.External(req), true, nil

	default:
		return "", dep, false, errs.New(errs.ErrCodeDecode, "dependency %q: unexpected value of type %T", key, raw)
	}
}
