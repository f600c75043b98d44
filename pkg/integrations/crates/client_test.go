package crates

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/depstatus/pkg/deps"
	errs "github.com/matzehuels/depstatus/pkg/errors"
	"github.com/matzehuels/depstatus/pkg/integrations"
)

const serdeIndex = `{"name":"serde","vers":"1.0.0","deps":[],"yanked":false}
{"name":"serde","vers":"1.0.1","deps":[{"name":"serde_derive","req":"=1.0.1","kind":"normal","optional":true},{"name":"serde_test","req":"^1","kind":"dev","optional":false}],"yanked":true}
{"name":"serde","vers":"not-a-version","deps":[],"yanked":false}
{"name":"serde","vers":"1.1.0-rc.1","deps":[{"name":"json","package":"serde_json","req":"1.0","kind":null},{"name":"cc","req":">=1.0 <","kind":"build"},{"name":"autocfg","req":"1","kind":"build"}],"yanked":false}
`

func TestNewClient(t *testing.T) {
	c := NewClient("", "")
	if c.Client == nil {
		t.Error("expected client to be initialized")
	}
	if c.indexURL != DefaultIndexURL || c.apiURL != DefaultAPIURL {
		t.Errorf("default URLs = (%q, %q)", c.indexURL, c.apiURL)
	}
}

func TestIndexPath(t *testing.T) {
	tests := []struct {
		name deps.PackageName
		want string
	}{
		{"a", "1/a"},
		{"cc", "2/cc"},
		{"syn", "3/s/syn"},
		{"serde", "se/rd/serde"},
		{"Inflector", "in/fl/inflector"},
	}
	for _, tt := range tests {
		if got := IndexPath(tt.name); got != tt.want {
			t.Errorf("IndexPath(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestClient_Releases(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		if r.URL.Path != "/se/rd/serde" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(serdeIndex))
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	releases, err := c.Releases(context.Background(), "serde")
	if err != nil {
		t.Fatalf("Releases failed: %v", err)
	}
	if userAgent != integrations.UserAgent {
		t.Errorf("User-Agent = %q", userAgent)
	}

	type summary struct {
		Version string
		Yanked  bool
		Main    []deps.PackageName
		Dev     []deps.PackageName
		Build   []deps.PackageName
	}
	var got []summary
	for _, r := range releases {
		if r.Name != "serde" {
			t.Errorf("release name = %q", r.Name)
		}
		got = append(got, summary{
			Version: r.Version.String(),
			Yanked:  r.Yanked,
			Main:    r.Deps.Main.Names(),
			Dev:     r.Deps.Dev.Names(),
			Build:   r.Deps.Build.Names(),
		})
	}
	want := []summary{
		{Version: "1.0.0"},
		{Version: "1.0.1", Yanked: true, Main: []deps.PackageName{"serde_derive"}, Dev: []deps.PackageName{"serde_test"}},
		{Version: "1.1.0-rc.1", Main: []deps.PackageName{"serde_json"}, Build: []deps.PackageName{"autocfg"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Releases() mismatch (-want +got):\n%s", diff)
	}

	dep, ok := releases[2].Deps.Main.Get("serde_json")
	if !ok || dep.Requirement.String() != "1.0" {
		t.Errorf("renamed dependency = %+v, %v", dep, ok)
	}
}

func TestClient_Releases_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := testClient(t, server.URL)

	_, err := c.Releases(context.Background(), "nonexistent")
	if !errs.Is(err, errs.ErrCodePackageNotFound) {
		t.Errorf("error code = %q, want %q", errs.GetCode(err), errs.ErrCodePackageNotFound)
	}
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("expected ErrNotFound in chain, got %v", err)
	}
}

func TestClient_Releases_Malformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"vers":"1.0.0"}` + "\n" + `{"vers":`))
	}))
	defer server.Close()

	_, err := testClient(t, server.URL).Releases(context.Background(), "broken")
	if got := errs.GetCategory(err); got != errs.CategoryDecode {
		t.Errorf("category = %q, want %q (err %v)", got, errs.CategoryDecode, err)
	}
}

func TestClient_Popular(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/summary" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"most_downloaded": []map[string]string{
				{"name": "syn", "max_version": "2.0.39"},
				{"name": "bad name", "max_version": "1.0.0"},
				{"name": "rand", "max_version": "0.8.5"},
			},
		})
	}))
	defer server.Close()

	popular, err := testClient(t, server.URL).Popular(context.Background())
	if err != nil {
		t.Fatalf("Popular failed: %v", err)
	}
	var got []string
	for _, p := range popular {
		got = append(got, p.String())
	}
	if diff := cmp.Diff([]string{"syn@2.0.39", "rand@0.8.5"}, got); diff != "" {
		t.Errorf("Popular() mismatch (-want +got):\n%s", diff)
	}
}

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	return NewClient(serverURL, serverURL, integrations.WithRetry(1, time.Millisecond))
}
