// Package githost implements the HTTP client for the remote code-hosting
// service: recursive tree listings and raw file content, with retry and
// timeout handling. Pagination and rate-limit headers are dealt with here;
// callers only see success, not-found, or upstream failure.
package githost

import (
	"errors"
	"fmt"
	"strings"
)

// Repository identifies a searchable unit on the code host. Immutable once
// resolved.
type Repository struct {
	Org           string `json:"org"`
	Name          string `json:"name"`
	DefaultBranch string `json:"defaultBranch,omitempty"`
}

// FullName returns the "org/name" form used in cache keys and node ids.
func (r Repository) FullName() string {
	return r.Org + "/" + r.Name
}

// Branch returns the branch to read from, defaulting to main.
func (r Repository) Branch() string {
	if r.DefaultBranch != "" {
		return r.DefaultBranch
	}
	return "main"
}

// ParseRepository parses an "org/name" or "org/name@branch" spec.
func ParseRepository(spec string) (Repository, error) {
	branch := ""
	if at := strings.IndexByte(spec, '@'); at >= 0 {
		branch = spec[at+1:]
		spec = spec[:at]
	}
	parts := strings.Split(spec, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Repository{}, fmt.Errorf("invalid repository spec %q, want org/name", spec)
	}
	return Repository{Org: parts[0], Name: parts[1], DefaultBranch: branch}, nil
}

// TreeEntry is one entry of a recursive tree listing.
type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"` // "blob" or "tree"
	Size int64  `json:"size"`
	SHA  string `json:"sha"`
}

// Tree is the recursive file listing of one repository at one branch.
// Truncated is set when the upstream cut the listing off (very large
// repositories); consumers must treat such a listing as incomplete.
type Tree struct {
	Entries   []TreeEntry `json:"entries"`
	Truncated bool        `json:"truncated"`
}

// Content is a fetched file.
type Content struct {
	Data     []byte `json:"data"`
	SHA      string `json:"sha"`
	Size     int64  `json:"size"`
	IsBinary bool   `json:"isBinary"`
}

// NotFoundError reports a missing repository, branch, or path.
type NotFoundError struct {
	Repo Repository
	Path string
}

func (e *NotFoundError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("repository %s not found", e.Repo.FullName())
	}
	return fmt.Sprintf("%s: %s not found", e.Repo.FullName(), e.Path)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
