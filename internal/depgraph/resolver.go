package depgraph

import (
	"sort"

	"depmap/internal/catalog"
	"depmap/internal/githost"
)

// Resolver maps an extracted reference to a concrete catalog entry. The
// interface exists so a stricter parser-backed resolver can replace the
// name-based one without touching traversal.
type Resolver interface {
	// Resolve returns the catalog entry the reference points at, or
	// false when no searched catalog contains a match.
	Resolve(ref Reference, source githost.Repository, catalogs []*catalog.Catalog) (catalog.FileEntry, bool)
}

// NameResolver resolves references by file naming convention: an entry
// matches when its base name equals the referenced symbol and its kind can
// be a reference target (primary-class or component; tests and unclassified
// files are never targets).
//
// Ambiguity policy: when several entries match, the source node's own
// repository wins; otherwise the first matching repository in the
// caller-supplied search order. Within one repository the shortest path
// wins, then lexicographic order, so resolution is deterministic.
type NameResolver struct{}

// NewNameResolver creates the convention-based resolver.
func NewNameResolver() *NameResolver {
	return &NameResolver{}
}

// Resolve implements Resolver.
func (r *NameResolver) Resolve(ref Reference, source githost.Repository, catalogs []*catalog.Catalog) (catalog.FileEntry, bool) {
	ordered := make([]*catalog.Catalog, 0, len(catalogs))
	for _, c := range catalogs {
		if c.Repository.FullName() == source.FullName() {
			ordered = append(ordered, c)
		}
	}
	for _, c := range catalogs {
		if c.Repository.FullName() != source.FullName() {
			ordered = append(ordered, c)
		}
	}

	for _, cat := range ordered {
		var candidates []catalog.FileEntry
		for _, entry := range cat.Entries {
			if !targetKind(entry.Kind) {
				continue
			}
			if catalog.SymbolName(entry.Path) == ref.Symbol {
				candidates = append(candidates, entry)
			}
		}
		if len(candidates) == 0 {
			continue
		}
		sort.Slice(candidates, func(i, j int) bool {
			if len(candidates[i].Path) != len(candidates[j].Path) {
				return len(candidates[i].Path) < len(candidates[j].Path)
			}
			return candidates[i].Path < candidates[j].Path
		})
		return candidates[0], true
	}

	return catalog.FileEntry{}, false
}

func targetKind(k catalog.Kind) bool {
	return k == catalog.KindPrimaryClass || k == catalog.KindComponent
}
