// Package sourcehost fetches raw files from hosted git repositories.
//
// Supported hosts are GitHub, GitLab, Bitbucket, sourcehut and Codeberg.
// Files are always read from the default branch (HEAD). Base URLs can be
// overridden per host to point at a mirror or a self-hosted instance.
package sourcehost
