// Package rust parses Cargo manifests.
//
// [ParseManifest] turns the text of a Cargo.toml into a [deps.Manifest]:
//
//	m, err := rust.ParseManifest(text)
//	if err != nil {
//	    return err
//	}
//	for name, dep := range m.Deps.Main.All() {
//	    ...
//	}
//
// A manifest may declare a package, a workspace, or both. Workspace
// members and path dependencies are returned relative to the manifest's
// directory; following them is the crawler's job.
//
// [deps.Manifest]: github.com/matzehuels/depstatus/pkg/deps.Manifest
package rust
