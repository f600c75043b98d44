package errors

import (
	"path"
	"strings"
	"unicode"
)

// ValidatePackageName validates a registry package name.
//
// Accepted names are non-empty and consist only of ASCII letters, digits,
// '-' and '_'. Anything else (including path separators and dots) is
// rejected, which also rules out path traversal through a name.
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}

	const maxNameLength = 256
	if len(name) > maxNameLength {
		return New(ErrCodeInvalidPackage, "package name too long (max %d characters)", maxNameLength)
	}

	for _, r := range name {
		if !isASCIIAlnum(r) && r != '-' && r != '_' {
			return New(ErrCodeInvalidPackage, "invalid package name: %q", name)
		}
	}
	return nil
}

// ValidateRepoSegment validates one owner or name segment of a hosted
// repository path. Segments may contain ASCII letters, digits, '.', '-' and
// '_'. The segments "." and ".." are rejected.
func ValidateRepoSegment(segment string) error {
	if segment == "" {
		return New(ErrCodeInvalidRepository, "repository path segment cannot be empty")
	}
	if segment == "." || segment == ".." {
		return New(ErrCodeInvalidRepository, "invalid repository path segment: %q", segment)
	}
	for _, r := range segment {
		if !isASCIIAlnum(r) && r != '.' && r != '-' && r != '_' {
			return New(ErrCodeInvalidRepository, "invalid repository path segment: %q", segment)
		}
	}
	return nil
}

// ValidatePath validates a directory path inside a repository.
//
// Validation rules:
//   - Empty means the repository root and is accepted
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No backslashes (Windows-style paths)
//   - Must not escape the repository root once cleaned
func ValidatePath(p string) error {
	if p == "" {
		return nil
	}

	const maxPathLength = 500
	if len(p) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range p {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(p, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(p, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	if c := path.Clean(p); c == ".." || strings.HasPrefix(c, "../") {
		return New(ErrCodeInvalidPath, "path escapes the repository root: %q", p)
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
