// Package deps defines the value types shared by the crawler, the analyzer,
// and the engine.
//
// # Overview
//
// Everything in this package is a plain value created fresh for one analysis
// and never mutated after construction:
//
//   - [PackageName] and [PackagePath] identify registry packages and releases
//   - [RepositoryPath] and [Host] identify hosted source repositories
//   - [Requirement] is a Cargo-style version requirement
//   - [Dependency] and [DependencySet] describe what a manifest declares
//   - [Manifest] is the parsed form of one manifest file
//   - [Release] is one historical publish record from the registry
//   - [Advisory] is one entry of the vulnerability database
//   - [AnalyzedDependency] and [AnalyzedDependencies] hold analysis results
//
// # Ordering
//
// Dependency buckets and crawler output are [NameMap] values: insertion
// ordered, name unique. Re-setting an existing name replaces its value and
// keeps its position, so presentation order follows the manifest text.
//
// # Validation
//
// Constructors such as [ParsePackageName], [ParseRequirement] and
// [ParseRepositoryPath] return validation errors from
// [github.com/matzehuels/depstatus/pkg/errors] and never panic on bad input.
package deps
