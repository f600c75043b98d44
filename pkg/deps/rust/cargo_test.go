package rust

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/depstatus/pkg/deps"
	errs "github.com/matzehuels/depstatus/pkg/errors"
)

func TestSupports(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"Cargo.toml", true},
		{"cargo.toml", true},
		{"CARGO.TOML", true},
		{"Cargo.lock", false},
		{"package.json", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := Supports(tt.filename); got != tt.want {
				t.Errorf("Supports(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestParseManifest_Package(t *testing.T) {
	content := `[package]
name = "my-crate"
version = "0.1.0"

[dependencies]
tokio = { version = "1.0", features = ["full"] }
serde = "1.0"
anyhow = "1"

[dependencies.regex]
version = "1.10"
default-features = false

[dev-dependencies]
pretty_assertions = "1.0"

[build-dependencies]
cc = "1.0"
`

	m, err := ParseManifest(content)
	if err != nil {
		t.Fatalf("ParseManifest failed: %v", err)
	}

	if m.Kind != deps.PackageManifest {
		t.Errorf("Kind = %v, want package", m.Kind)
	}
	if m.Name != "my-crate" {
		t.Errorf("Name = %q, want %q", m.Name, "my-crate")
	}

	wantMain := []deps.PackageName{"tokio", "serde", "anyhow", "regex"}
	if diff := cmp.Diff(wantMain, m.Deps.Main.Names()); diff != "" {
		t.Errorf("main dependencies mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]deps.PackageName{"pretty_assertions"}, m.Deps.Dev.Names()); diff != "" {
		t.Errorf("dev dependencies mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]deps.PackageName{"cc"}, m.Deps.Build.Names()); diff != "" {
		t.Errorf("build dependencies mismatch (-want +got):\n%s", diff)
	}

	regex, _ := m.Deps.Main.Get("regex")
	if !regex.IsExternal() || regex.Requirement.String() != "1.10" {
		t.Errorf("regex = %+v, want external 1.10", regex)
	}
}

func TestParseManifest_WorkspaceWithoutMembers(t *testing.T) {
	content := `[package]
name = "symbolic"

[workspace]

[dependencies]
symbolic-common = { version = "2.0.6", path = "common" }
`

	m, err := ParseManifest(content)
	if err != nil {
		t.Fatalf("ParseManifest failed: %v", err)
	}
	if m.Kind != deps.MixedManifest {
		t.Fatalf("Kind = %v, want mixed", m.Kind)
	}
	if m.Name != "symbolic" {
		t.Errorf("Name = %q", m.Name)
	}
	if m.Deps.Main.Len() != 1 || m.Deps.Dev.Len() != 0 || m.Deps.Build.Len() != 0 {
		t.Errorf("bucket sizes = %d/%d/%d, want 1/0/0", m.Deps.Main.Len(), m.Deps.Dev.Len(), m.Deps.Build.Len())
	}
	if len(m.Members) != 0 {
		t.Errorf("Members = %v, want none", m.Members)
	}

	dep, _ := m.Deps.Main.Get("symbolic-common")
	if dep.IsExternal() || dep.Path != "common" {
		t.Errorf("symbolic-common = %+v, want internal path common", dep)
	}
}

func TestParseManifest_Workspace(t *testing.T) {
	content := `[workspace]
members = ["./futures", "./futures-core", "crates/*"]
resolver = "2"
`

	m, err := ParseManifest(content)
	if err != nil {
		t.Fatalf("ParseManifest failed: %v", err)
	}
	if m.Kind != deps.WorkspaceManifest {
		t.Fatalf("Kind = %v, want workspace", m.Kind)
	}
	if m.HasPackage() {
		t.Error("workspace manifest should not declare a package")
	}
	want := []string{"./futures", "./futures-core", "crates/*"}
	if diff := cmp.Diff(want, m.Members); diff != "" {
		t.Errorf("Members mismatch (-want +got):\n%s", diff)
	}
}

func TestParseManifest_RenamedDependency(t *testing.T) {
	content := `[package]
name = "symbolic"

[dependencies]
symbolic-common_crate = { version = "2.0.6", package = "symbolic-common" }
`

	m, err := ParseManifest(content)
	if err != nil {
		t.Fatalf("ParseManifest failed: %v", err)
	}
	if m.Deps.Main.Len() != 1 {
		t.Fatalf("Main.Len() = %d, want 1", m.Deps.Main.Len())
	}
	if _, ok := m.Deps.Main.Get("symbolic-common"); !ok {
		t.Error("expected dependency keyed by the registry package name")
	}
}

func TestParseManifest_TargetDependencies(t *testing.T) {
	content := `[package]
name = "platform-specific"

[dependencies]
serde = "1.0"

[target.'cfg(unix)'.dependencies]
nix = { version = "0.28", features = ["sched"] }
serde = "1.0.100"

[target.'cfg(windows)'.dev-dependencies]
winapi = "0.3"

[target.'cfg(any(target_os = "android", target_os = "linux"))'.build-dependencies]
cc = "1.0"
`

	m, err := ParseManifest(content)
	if err != nil {
		t.Fatalf("ParseManifest failed: %v", err)
	}

	if diff := cmp.Diff([]deps.PackageName{"serde", "nix"}, m.Deps.Main.Names()); diff != "" {
		t.Errorf("main dependencies mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]deps.PackageName{"winapi"}, m.Deps.Dev.Names()); diff != "" {
		t.Errorf("dev dependencies mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]deps.PackageName{"cc"}, m.Deps.Build.Names()); diff != "" {
		t.Errorf("build dependencies mismatch (-want +got):\n%s", diff)
	}

	serde, _ := m.Deps.Main.Get("serde")
	if got := serde.Requirement.String(); got != "1.0.100" {
		t.Errorf("serde requirement = %q, want the target declaration 1.0.100", got)
	}
}

func TestParseManifest_SkippedDependencies(t *testing.T) {
	content := `[package]
name = "sources"

[dependencies]
from-git = { git = "https://github.com/example/from-git", version = "1" }
inherited = { workspace = true }
local = { path = "../local" }
registry = "0.4"
`

	m, err := ParseManifest(content)
	if err != nil {
		t.Fatalf("ParseManifest failed: %v", err)
	}
	if diff := cmp.Diff([]deps.PackageName{"local", "registry"}, m.Deps.Main.Names()); diff != "" {
		t.Errorf("main dependencies mismatch (-want +got):\n%s", diff)
	}
}

func TestParseManifest_Errors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		category errs.Category
	}{
		{
			name:     "neither package nor workspace",
			content:  "[dependencies]\nserde = \"1\"\n",
			category: errs.CategoryDecode,
		},
		{
			name:     "invalid toml",
			content:  "[package\nname = ",
			category: errs.CategoryDecode,
		},
		{
			name:     "invalid requirement",
			content:  "[package]\nname = \"x\"\n\n[dependencies]\nserde = \"one point oh\"\n",
			category: errs.CategoryValidation,
		},
		{
			name:     "invalid package name",
			content:  "[package]\nname = \"not a name\"\n",
			category: errs.CategoryValidation,
		},
		{
			name:     "invalid dependency value",
			content:  "[package]\nname = \"x\"\n\n[dependencies]\nserde = 1\n",
			category: errs.CategoryDecode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest(tt.content)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errs.GetCategory(err); got != tt.category {
				t.Errorf("category = %v, want %v (err: %v)", got, tt.category, err)
			}
		})
	}
}
