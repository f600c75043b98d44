package crawler

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/depstatus/pkg/deps"
)

func TestStep_SimplePackage(t *testing.T) {
	c := New()
	out, err := c.Step("", "[package]\nname = \"simpleton\"\n")
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if len(out.PathsOfInterest) != 0 {
		t.Errorf("PathsOfInterest = %v, want none", out.PathsOfInterest)
	}

	result := c.Finalize()
	if result.Packages.Len() != 1 {
		t.Fatalf("Packages.Len() = %d, want 1", result.Packages.Len())
	}
	set, ok := result.Packages.Get("simpleton")
	if !ok {
		t.Fatal("simpleton not recorded")
	}
	if set.Len() != 0 {
		t.Errorf("simpleton dependencies = %d, want 0", set.Len())
	}
}

func TestStep_MoreComplexPackage(t *testing.T) {
	manifest := `
[package]
name = "more-complex"
[dependencies]
foo = "0.30.0"
bar = { version = "1.2.0", optional = true }
[dev-dependencies]
quickcheck = "0.5"
[build-dependencies]
codegen = "0.0.1"
`
	c := New()
	out, err := c.Step("", manifest)
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if len(out.PathsOfInterest) != 0 {
		t.Errorf("PathsOfInterest = %v, want none", out.PathsOfInterest)
	}

	set, _ := c.Finalize().Packages.Get("more-complex")
	tests := []struct {
		bucket *deps.Dependencies
		name   deps.PackageName
		req    string
	}{
		{&set.Main, "foo", "0.30.0"},
		{&set.Main, "bar", "1.2.0"},
		{&set.Dev, "quickcheck", "0.5"},
		{&set.Build, "codegen", "0.0.1"},
	}
	for _, tt := range tests {
		dep, ok := tt.bucket.Get(tt.name)
		if !ok {
			t.Errorf("%s missing", tt.name)
			continue
		}
		if !dep.IsExternal() || dep.Requirement.String() != tt.req {
			t.Errorf("%s = %+v, want external %s", tt.name, dep, tt.req)
		}
	}
	if set.Main.Len() != 2 || set.Dev.Len() != 1 || set.Build.Len() != 1 {
		t.Errorf("bucket sizes = %d/%d/%d, want 2/1/1", set.Main.Len(), set.Dev.Len(), set.Build.Len())
	}
}

func TestStep_InternalDependencies(t *testing.T) {
	manifest := `
[package]
name = "piston"

[dependencies.pistoncore-input]
path = "src/input"
version = "0.20.0"

[dependencies.pistoncore-window]
path = "src/window"
version = "0.30.0"

[dependencies.pistoncore-event_loop]
path = "src/event_loop"
version = "0.35.0"
`
	c := New()
	out, err := c.Step("", manifest)
	if err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	want := []string{"src/input", "src/window", "src/event_loop"}
	if diff := cmp.Diff(want, out.PathsOfInterest); diff != "" {
		t.Errorf("PathsOfInterest mismatch (-want +got):\n%s", diff)
	}
}

func TestStep_Workspace(t *testing.T) {
	tests := []struct {
		name    string
		dir     string
		members string
		want    []string
	}{
		{
			name:    "simple",
			members: `"lib/", "codegen/", "contrib/"`,
			want:    []string{"lib", "codegen", "contrib"},
		},
		{
			name:    "glob members skipped",
			members: `"lib/", "tests/*"`,
			want:    []string{"lib"},
		},
		{
			name:    "nested directory",
			dir:     "crates",
			members: `"./a", "../tools", "b/"`,
			want:    []string{"crates/a", "tools", "crates/b"},
		},
		{
			name:    "escaping root dropped",
			members: `"../outside", "inside"`,
			want:    []string{"inside"},
		},
		{
			name:    "duplicates reported once",
			members: `"lib", "./lib", "lib/"`,
			want:    []string{"lib"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			out, err := c.Step(tt.dir, "[workspace]\nmembers = ["+tt.members+"]\n")
			if err != nil {
				t.Fatalf("Step failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, out.PathsOfInterest); diff != "" {
				t.Errorf("PathsOfInterest mismatch (-want +got):\n%s", diff)
			}
			if c.Finalize().Packages.Len() != 0 {
				t.Error("workspace manifest should not record a package")
			}
		})
	}
}

func TestStep_MixedPackageAndWorkspace(t *testing.T) {
	futures := `
[package]
name = "futures"

[dependencies]

[workspace]
members = ["futures-cpupool"]
`
	cpupool := `
[package]
name = "futures-cpupool"

[dependencies]
num_cpus = "1.0"

[dependencies.futures]
path = ".."
version = "0.1"
default-features = false
features = ["use_std"]
`

	c := New()
	out, err := c.Step("", futures)
	if err != nil {
		t.Fatalf("Step(futures) failed: %v", err)
	}
	if diff := cmp.Diff([]string{"futures-cpupool"}, out.PathsOfInterest); diff != "" {
		t.Errorf("PathsOfInterest mismatch (-want +got):\n%s", diff)
	}

	out, err = c.Step("futures-cpupool", cpupool)
	if err != nil {
		t.Fatalf("Step(futures-cpupool) failed: %v", err)
	}
	if len(out.PathsOfInterest) != 0 {
		t.Errorf("path back to the root should not be revisited, got %v", out.PathsOfInterest)
	}

	result := c.Finalize()
	if diff := cmp.Diff([]deps.PackageName{"futures", "futures-cpupool"}, result.Packages.Names()); diff != "" {
		t.Errorf("package order mismatch (-want +got):\n%s", diff)
	}
	set, _ := result.Packages.Get("futures-cpupool")
	if set.Main.Len() != 2 {
		t.Fatalf("futures-cpupool main deps = %d, want 2", set.Main.Len())
	}
	dep, _ := set.Main.Get("futures")
	if dep.IsExternal() || dep.Path != ".." {
		t.Errorf("futures = %+v, want internal ..", dep)
	}
}

func TestStep_ParseError(t *testing.T) {
	c := New()
	if _, err := c.Step("broken", "[package\n"); err == nil {
		t.Fatal("expected parse error")
	}
	if c.Finalize().Packages.Len() != 0 {
		t.Error("failed step should not record anything")
	}
}

func TestJoinPath(t *testing.T) {
	tests := []struct {
		dir, rel string
		want     string
		ok       bool
	}{
		{"", "lib/", "lib", true},
		{"", ".", "", true},
		{"a", "..", "", true},
		{"a/b", "../c", "a/c", true},
		{"", "..", "", false},
		{"a", "../../b", "", false},
	}
	for _, tt := range tests {
		got, ok := JoinPath(tt.dir, tt.rel)
		if got != tt.want || ok != tt.ok {
			t.Errorf("JoinPath(%q, %q) = %q, %v; want %q, %v", tt.dir, tt.rel, got, ok, tt.want, tt.ok)
		}
	}
}

func TestManifestPath(t *testing.T) {
	if got := ManifestPath(""); got != "Cargo.toml" {
		t.Errorf("ManifestPath(\"\") = %q", got)
	}
	if got := ManifestPath("lib"); got != "lib/Cargo.toml" {
		t.Errorf("ManifestPath(lib) = %q", got)
	}
}
