package engine

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/Masterminds/semver"
	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/depstatus/pkg/deps"
	errs "github.com/matzehuels/depstatus/pkg/errors"
	"github.com/matzehuels/depstatus/pkg/integrations/osv"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeRegistry struct {
	releases map[deps.PackageName][]deps.Release
	popular  []deps.PackagePath
	fail     map[deps.PackageName]error

	mu    sync.Mutex
	calls map[deps.PackageName]int
}

func (f *fakeRegistry) Releases(_ context.Context, name deps.PackageName) ([]deps.Release, error) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[deps.PackageName]int)
	}
	f.calls[name]++
	f.mu.Unlock()

	if err := f.fail[name]; err != nil {
		return nil, err
	}
	rs, ok := f.releases[name]
	if !ok {
		return nil, errs.New(errs.ErrCodePackageNotFound, "crate %s", name)
	}
	return rs, nil
}

func (f *fakeRegistry) Popular(context.Context) ([]deps.PackagePath, error) {
	return f.popular, nil
}

func (f *fakeRegistry) callCount(name deps.PackageName) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

type fakeRetriever map[string]string

func (f fakeRetriever) RetrieveManifest(_ context.Context, _ deps.RepositoryPath, dir string) (string, error) {
	text, ok := f[dir]
	if !ok {
		return "", errs.New(errs.ErrCodeFileNotFound, "no manifest in %q", dir)
	}
	return text, nil
}

type fakeAdvisories struct {
	db    *osv.Database
	err   error
	calls int
}

func (f *fakeAdvisories) Fetch(context.Context) (*osv.Database, error) {
	f.calls++
	return f.db, f.err
}

type fakeFeed []deps.Repository

func (f fakeFeed) PopularRepositories(context.Context) ([]deps.Repository, error) {
	return f, nil
}

func mustVersion(t *testing.T, s string) *semver.Version {
	t.Helper()
	v, err := deps.ParseVersion(s)
	if err != nil {
		t.Fatalf("ParseVersion(%q): %v", s, err)
	}
	return v
}

func releases(t *testing.T, name deps.PackageName, versions ...string) []deps.Release {
	t.Helper()
	out := make([]deps.Release, 0, len(versions))
	for _, v := range versions {
		out = append(out, deps.Release{Name: name, Version: mustVersion(t, v)})
	}
	return out
}

func newTestEngine(in Interactors) *Engine {
	return New(Config{}, in, WithLogger(log.New(io.Discard)))
}

var testRepo = deps.RepositoryPath{Host: deps.GitHub, Qualifier: "owner", Name: "repo"}

func fooAdvisory(t *testing.T) deps.Advisory {
	return deps.Advisory{
		ID:      "RUSTSEC-2099-0001",
		Package: "foo",
		Ranges:  []deps.VersionRange{{Fixed: mustVersion(t, "1.2.5")}},
	}
}

// =============================================================================
// Tests
// =============================================================================

func TestAnalyzeRepositoryDependencies(t *testing.T) {
	registry := &fakeRegistry{releases: map[deps.PackageName][]deps.Release{
		"foo": releases(t, "foo", "1.2.3", "1.3.0", "2.0.0"),
		"bar": releases(t, "bar", "0.1.0", "0.1.4"),
	}}
	retriever := fakeRetriever{
		"": `[workspace]
members = ["app", "lib"]
`,
		"app": `[package]
name = "app"
[dependencies]
foo = "^1.2.0"
lib = { path = "../lib" }
`,
		"lib": `[package]
name = "lib"
[dev-dependencies]
bar = "0.1"
`,
	}
	advisories := &fakeAdvisories{db: osv.NewDatabase([]deps.Advisory{fooAdvisory(t)})}

	e := newTestEngine(Interactors{Registry: registry, Retriever: retriever, Advisories: advisories})

	outcome, err := e.AnalyzeRepositoryDependencies(context.Background(), testRepo, "")
	if err != nil {
		t.Fatalf("AnalyzeRepositoryDependencies failed: %v", err)
	}

	var names []deps.PackageName
	for _, p := range outcome.Packages {
		names = append(names, p.Name)
	}
	if diff := cmp.Diff([]deps.PackageName{"app", "lib"}, names); diff != "" {
		t.Errorf("package order mismatch (-want +got):\n%s", diff)
	}

	foo, ok := outcome.Packages[0].Deps.Main.Get("foo")
	if !ok {
		t.Fatal("foo not analyzed")
	}
	if foo.LatestMatching.String() != "1.3.0" || foo.Latest.String() != "2.0.0" {
		t.Errorf("foo = (%s, %s), want (1.3.0, 2.0.0)", foo.LatestMatching, foo.Latest)
	}
	if !foo.IsOutdated() || !foo.IsInsecure() || foo.IsAlwaysInsecure() {
		t.Errorf("foo outdated/insecure/always = %v/%v/%v, want true/true/false",
			foo.IsOutdated(), foo.IsInsecure(), foo.IsAlwaysInsecure())
	}
	if _, ok := outcome.Packages[0].Deps.Main.Get("lib"); ok {
		t.Error("path dependency should not be analyzed")
	}

	bar, _ := outcome.Packages[1].Deps.Dev.Get("bar")
	if bar == nil || bar.IsOutdated() {
		t.Errorf("bar = %+v, want up to date", bar)
	}

	if !outcome.AnyOutdated() || !outcome.AnyInsecure() || outcome.AnyAlwaysInsecure() {
		t.Error("outcome flags do not reflect foo")
	}
	outdated, total := outcome.OutdatedRatio()
	if outdated != 1 || total != 1 {
		t.Errorf("OutdatedRatio() = %d/%d, want 1/1", outdated, total)
	}
	want := Counts{Total: 1, Outdated: 1, PossiblyInsecure: 1}
	if diff := cmp.Diff(want, outcome.Counts()); diff != "" {
		t.Errorf("Counts() mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzeRepositoryDependencies_CrawlFailure(t *testing.T) {
	registry := &fakeRegistry{}
	e := newTestEngine(Interactors{Registry: registry, Retriever: fakeRetriever{}})

	_, err := e.AnalyzeRepositoryDependencies(context.Background(), testRepo, "")
	if !errs.Is(err, errs.ErrCodeFileNotFound) {
		t.Errorf("error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestAnalyzeRepositoryDependencies_ReleaseFailureAborts(t *testing.T) {
	boom := errors.New("registry down")
	registry := &fakeRegistry{
		releases: map[deps.PackageName][]deps.Release{"foo": releases(t, "foo", "1.0.0")},
		fail:     map[deps.PackageName]error{"bar": boom},
	}
	retriever := fakeRetriever{"": `[package]
name = "app"
[dependencies]
foo = "1"
bar = "1"
`}
	e := newTestEngine(Interactors{Registry: registry, Retriever: retriever})

	outcome, err := e.AnalyzeRepositoryDependencies(context.Background(), testRepo, "")
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want %v", err, boom)
	}
	if outcome != nil {
		t.Error("expected no outcome on failure")
	}
}

func TestAnalyzeRepositoryDependencies_AdvisoryFailure(t *testing.T) {
	boom := errors.New("archive unavailable")
	e := newTestEngine(Interactors{
		Registry:   &fakeRegistry{},
		Retriever:  fakeRetriever{"": "[package]\nname = \"app\"\n"},
		Advisories: &fakeAdvisories{err: boom},
	})

	if _, err := e.AnalyzeRepositoryDependencies(context.Background(), testRepo, ""); !errors.Is(err, boom) {
		t.Errorf("error = %v, want %v", err, boom)
	}
}

func TestAnalyzeDirectoryDependencies(t *testing.T) {
	registry := &fakeRegistry{releases: map[deps.PackageName][]deps.Release{
		"foo": releases(t, "foo", "1.0.0", "1.1.0"),
	}}
	e := newTestEngine(Interactors{Registry: registry, Retriever: fakeRetriever{}})

	dir := fakeRetriever{"": "[package]\nname = \"app\"\n[dependencies]\nfoo = \"=1.0.0\"\n"}
	outcome, err := e.AnalyzeDirectoryDependencies(context.Background(), dir, "/tmp/app")
	if err != nil {
		t.Fatalf("AnalyzeDirectoryDependencies failed: %v", err)
	}
	if len(outcome.Packages) != 1 || outcome.Packages[0].Name != "app" {
		t.Fatalf("packages = %+v, want [app]", outcome.Packages)
	}
	if outdated, total := outcome.OutdatedRatio(); outdated != 1 || total != 1 {
		t.Errorf("OutdatedRatio() = %d/%d, want 1/1", outdated, total)
	}
}

func TestAnalyzePackageDependencies(t *testing.T) {
	foo := releases(t, "foo", "1.2.3", "1.3.0", "2.0.0")
	var app deps.DependencySet
	app.Main.Set("foo", deps.External(deps.MustParseRequirement("^1.2.0")))
	app.Build.Set("cc", deps.External(deps.MustParseRequirement("1")))

	registry := &fakeRegistry{releases: map[deps.PackageName][]deps.Release{
		"app": {{Name: "app", Version: mustVersion(t, "0.3.0"), Deps: app}},
		"foo": foo,
		"cc":  releases(t, "cc", "1.0.0"),
	}}
	advisories := &fakeAdvisories{db: osv.NewDatabase([]deps.Advisory{fooAdvisory(t)})}
	e := newTestEngine(Interactors{Registry: registry, Retriever: fakeRetriever{}, Advisories: advisories})

	path, _ := deps.ParsePackagePath("app", "0.3.0")
	outcome, err := e.AnalyzePackageDependencies(context.Background(), path)
	if err != nil {
		t.Fatalf("AnalyzePackageDependencies failed: %v", err)
	}
	if len(outcome.Packages) != 1 || outcome.Packages[0].Name != "app" {
		t.Fatalf("packages = %+v", outcome.Packages)
	}
	outdated, total := outcome.OutdatedRatio()
	if outdated != 1 || total != 2 {
		t.Errorf("OutdatedRatio() = %d/%d, want 1/2", outdated, total)
	}

	// The advisory database and foo's history are reused.
	if _, err := e.AnalyzePackageDependencies(context.Background(), path); err != nil {
		t.Fatalf("second analysis failed: %v", err)
	}
	if n := registry.callCount("foo"); n != 1 {
		t.Errorf("foo releases fetched %d times, want 1", n)
	}
	if advisories.calls != 1 {
		t.Errorf("advisories fetched %d times, want 1", advisories.calls)
	}
}

func TestAnalyzePackageDependencies_NotFound(t *testing.T) {
	registry := &fakeRegistry{releases: map[deps.PackageName][]deps.Release{
		"app": releases(t, "app", "0.1.0"),
	}}
	e := newTestEngine(Interactors{Registry: registry, Retriever: fakeRetriever{}})

	tests := []struct {
		name, version string
	}{
		{"app", "0.2.0"},
		{"missing", "1.0.0"},
	}
	for _, tt := range tests {
		path, _ := deps.ParsePackagePath(tt.name, tt.version)
		_, err := e.AnalyzePackageDependencies(context.Background(), path)
		if !errs.Is(err, errs.ErrCodePackageNotFound) {
			t.Errorf("%s: error = %v, want PACKAGE_NOT_FOUND", path, err)
		}
	}
}

func TestFindLatestReleaseMatching(t *testing.T) {
	rs := releases(t, "foo", "1.0.0", "1.4.0", "1.5.0-beta.1", "2.0.0")
	rs = append(rs, deps.Release{Name: "foo", Version: mustVersion(t, "1.9.0"), Yanked: true})
	registry := &fakeRegistry{releases: map[deps.PackageName][]deps.Release{"foo": rs}}
	e := newTestEngine(Interactors{Registry: registry, Retriever: fakeRetriever{}})

	tests := []struct {
		req  string
		want string
	}{
		{"^1", "1.4.0"},
		{"*", "2.0.0"},
		{"=1.5.0-beta.1", "1.5.0-beta.1"},
		{"^3", ""},
	}
	for _, tt := range tests {
		got, err := e.FindLatestReleaseMatching(context.Background(), "foo", deps.MustParseRequirement(tt.req))
		if err != nil {
			t.Fatalf("FindLatestReleaseMatching(%q) failed: %v", tt.req, err)
		}
		gotVersion := ""
		if got != nil {
			gotVersion = got.Version.String()
		}
		if gotVersion != tt.want {
			t.Errorf("FindLatestReleaseMatching(%q) = %q, want %q", tt.req, gotVersion, tt.want)
		}
	}
}

func TestGetPopularRepositories_FiltersBlocked(t *testing.T) {
	feed := fakeFeed{
		{Path: deps.RepositoryPath{Host: deps.GitHub, Qualifier: "rust-lang", Name: "rust"}},
		{Path: deps.RepositoryPath{Host: deps.GitHub, Qualifier: "denoland", Name: "deno"}},
		{Path: deps.RepositoryPath{Host: deps.GitHub, Qualifier: "rust-unofficial", Name: "awesome-rust"}},
	}
	e := New(DefaultConfig(), Interactors{Registry: &fakeRegistry{}, Retriever: fakeRetriever{}, Repositories: feed},
		WithLogger(log.New(io.Discard)))

	repos, err := e.GetPopularRepositories(context.Background())
	if err != nil {
		t.Fatalf("GetPopularRepositories failed: %v", err)
	}
	if len(repos) != 1 || repos[0].Path.String() != "github/denoland/deno" {
		t.Errorf("repos = %+v, want only denoland/deno", repos)
	}
}

func TestGetPopularRepositories_NoFeed(t *testing.T) {
	e := newTestEngine(Interactors{Registry: &fakeRegistry{}, Retriever: fakeRetriever{}})
	repos, err := e.GetPopularRepositories(context.Background())
	if err != nil || len(repos) != 0 {
		t.Errorf("GetPopularRepositories() = %v, %v; want empty", repos, err)
	}
}

func TestGetPopularPackages(t *testing.T) {
	syn, _ := deps.ParsePackagePath("syn", "2.0.39")
	e := newTestEngine(Interactors{Registry: &fakeRegistry{popular: []deps.PackagePath{syn}}, Retriever: fakeRetriever{}})

	got, err := e.GetPopularPackages(context.Background())
	if err != nil {
		t.Fatalf("GetPopularPackages failed: %v", err)
	}
	if len(got) != 1 || got[0].String() != "syn@2.0.39" {
		t.Errorf("GetPopularPackages() = %v", got)
	}
}

func TestOutcome_Nil(t *testing.T) {
	var o *Outcome
	if o.AnyOutdated() || o.AnyInsecure() || o.countOutdated() != 0 || o.countInsecure() != 0 {
		t.Error("nil outcome should report nothing")
	}
	if o.Counts() != (Counts{}) {
		t.Error("nil outcome counts should be zero")
	}
}
