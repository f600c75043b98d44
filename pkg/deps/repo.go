package deps

import (
	"fmt"
	"strings"

	errs "github.com/matzehuels/depstatus/pkg/errors"
)

// Host is a supported source-code hosting site.
type Host int

const (
	GitHub Host = iota
	GitLab
	Bitbucket
	Sourcehut
	Codeberg
)

var hostNames = [...]string{
	GitHub:    "github",
	GitLab:    "gitlab",
	Bitbucket: "bitbucket",
	Sourcehut: "sourcehut",
	Codeberg:  "codeberg",
}

// Hosts lists every supported host.
var Hosts = []Host{GitHub, GitLab, Bitbucket, Sourcehut, Codeberg}

// ParseHost maps a site name such as "github" to its Host.
func ParseHost(s string) (Host, error) {
	for h, name := range hostNames {
		if strings.EqualFold(s, name) {
			return Host(h), nil
		}
	}
	return 0, errs.New(errs.ErrCodeInvalidRepository, "unsupported host %q", s)
}

func (h Host) String() string {
	if int(h) < len(hostNames) {
		return hostNames[h]
	}
	return fmt.Sprintf("host(%d)", int(h))
}

// DefaultRawBaseURL returns the base URL raw files are served from.
func (h Host) DefaultRawBaseURL() string {
	switch h {
	case GitHub:
		return "https://raw.githubusercontent.com"
	case GitLab:
		return "https://gitlab.com"
	case Bitbucket:
		return "https://bitbucket.org"
	case Sourcehut:
		return "https://git.sr.ht"
	case Codeberg:
		return "https://codeberg.org"
	default:
		return ""
	}
}

// SiteURL returns the browsable URL of the repository.
func (h Host) SiteURL(qual, name string) string {
	switch h {
	case GitHub:
		return fmt.Sprintf("https://github.com/%s/%s", qual, name)
	case Sourcehut:
		return fmt.Sprintf("https://git.sr.ht/%s/%s", sourcehutOwner(qual), name)
	default:
		return fmt.Sprintf("%s/%s/%s", h.DefaultRawBaseURL(), qual, name)
	}
}

// RawFileURL builds the URL of the file at path on the default branch.
// An empty base selects [Host.DefaultRawBaseURL].
func (h Host) RawFileURL(base, qual, name, path string) string {
	if base == "" {
		base = h.DefaultRawBaseURL()
	}
	base = strings.TrimSuffix(base, "/")
	// gitlab answers 308 for ".../raw/HEAD//Cargo.toml"
	path = strings.TrimPrefix(path, "/")

	switch h {
	case GitHub:
		return fmt.Sprintf("%s/%s/%s/HEAD/%s", base, qual, name, path)
	case Sourcehut:
		return fmt.Sprintf("%s/%s/%s/blob/HEAD/%s", base, sourcehutOwner(qual), name, path)
	default:
		return fmt.Sprintf("%s/%s/%s/raw/HEAD/%s", base, qual, name, path)
	}
}

func sourcehutOwner(qual string) string {
	if strings.HasPrefix(qual, "~") {
		return qual
	}
	return "~" + qual
}

// RepositoryPath identifies a hosted repository. It is comparable and can
// be used as a map key.
type RepositoryPath struct {
	Host      Host
	Qualifier string
	Name      string
}

// ParseRepositoryPath validates the three parts of a repository path.
// Sourcehut qualifiers may carry their leading "~".
func ParseRepositoryPath(host, qual, name string) (RepositoryPath, error) {
	h, err := ParseHost(host)
	if err != nil {
		return RepositoryPath{}, err
	}
	if h == Sourcehut {
		qual = strings.TrimPrefix(qual, "~")
	}
	if err := errs.ValidateRepoSegment(qual); err != nil {
		return RepositoryPath{}, err
	}
	if err := errs.ValidateRepoSegment(name); err != nil {
		return RepositoryPath{}, err
	}
	return RepositoryPath{Host: h, Qualifier: qual, Name: name}, nil
}

// String renders the path as "host/qualifier/name".
func (r RepositoryPath) String() string {
	return r.Host.String() + "/" + r.Qualifier + "/" + r.Name
}

// URL returns the browsable repository URL.
func (r RepositoryPath) URL() string {
	return r.Host.SiteURL(r.Qualifier, r.Name)
}

// RawFileURL returns the raw URL of path inside the repository.
func (r RepositoryPath) RawFileURL(base, path string) string {
	return r.Host.RawFileURL(base, r.Qualifier, r.Name, path)
}

// Repository is a repository listed by a popularity feed.
type Repository struct {
	Path        RepositoryPath
	Description string
}
