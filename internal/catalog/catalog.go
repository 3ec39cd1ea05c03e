// Package catalog builds the classified file listing of a repository used
// for symbol resolution. The builder is stateless; caching a catalog is the
// orchestration layer's job.
package catalog

import (
	"context"

	"depmap/internal/githost"
	"depmap/internal/logging"
)

// Kind classifies a source file by path convention.
type Kind string

const (
	// KindPrimaryClass is a class/module of the primary language
	KindPrimaryClass Kind = "primary-class"
	// KindComponent is a UI component file
	KindComponent Kind = "component"
	// KindTest is a test file
	KindTest Kind = "test"
	// KindOther is anything unclassified
	KindOther Kind = "other"
)

// FileEntry is one classified file of a repository catalog.
type FileEntry struct {
	Repository githost.Repository `json:"repository"`
	Path       string             `json:"path"`
	Kind       Kind               `json:"kind"`
	Size       int64              `json:"size"`
	SHA        string             `json:"sha"`
}

// Catalog is the classified listing of one repository. Truncated mirrors
// the upstream tree flag: a resolution miss against a truncated catalog is
// not proof the symbol does not exist there.
type Catalog struct {
	Repository githost.Repository `json:"repository"`
	Entries    []FileEntry        `json:"entries"`
	TotalCount int                `json:"totalCount"`
	Truncated  bool               `json:"truncated"`
}

// TreeLister is the slice of the githost client the builder needs.
type TreeLister interface {
	ListTree(ctx context.Context, repo githost.Repository) (*githost.Tree, error)
}

// Builder lists and classifies repository files.
type Builder struct {
	host   TreeLister
	logger *logging.Logger
}

// NewBuilder creates a catalog builder over the given tree lister.
func NewBuilder(host TreeLister, logger *logging.Logger) *Builder {
	return &Builder{host: host, logger: logger}
}

// ListFiles fetches the recursive tree of repo and classifies each blob.
func (b *Builder) ListFiles(ctx context.Context, repo githost.Repository) (*Catalog, error) {
	tree, err := b.host.ListTree(ctx, repo)
	if err != nil {
		return nil, err
	}

	cat := &Catalog{
		Repository: repo,
		Truncated:  tree.Truncated,
	}
	for _, entry := range tree.Entries {
		if entry.Type != "blob" {
			continue
		}
		cat.Entries = append(cat.Entries, FileEntry{
			Repository: repo,
			Path:       entry.Path,
			Kind:       Classify(entry.Path),
			Size:       entry.Size,
			SHA:        entry.SHA,
		})
	}
	cat.TotalCount = len(cat.Entries)

	b.logger.Debug("Built repository catalog", map[string]interface{}{
		"repo":      repo.FullName(),
		"files":     cat.TotalCount,
		"truncated": cat.Truncated,
	})
	return cat, nil
}
