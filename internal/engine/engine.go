// Package engine wires configuration, the cache layer, the git host client,
// and the analyzer into the single facade the CLI and the HTTP API share.
package engine

import (
	"context"
	"path"
	"sort"
	"strings"

	"depmap/internal/cache"
	"depmap/internal/catalog"
	"depmap/internal/config"
	"depmap/internal/depgraph"
	"depmap/internal/errors"
	"depmap/internal/githost"
	"depmap/internal/logging"
	"depmap/internal/scope"
	"depmap/internal/storage"
)

// Engine owns the composed analysis stack for one workspace root.
type Engine struct {
	root     string
	cfg      *config.Config
	logger   *logging.Logger
	db       *storage.DB // nil when persistence is disabled
	caches   *cache.Manager
	host     *githost.Client
	analyzer *depgraph.Analyzer
}

// New builds an engine from configuration. Listing and content categories
// persist to SQLite when cache.persist is set; the analysis content tier is
// always in-process.
func New(root string, cfg *config.Config, logger *logging.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	caches := cache.NewManager(logger)

	var db *storage.DB
	if cfg.Cache.Persist {
		var err error
		db, err = storage.Open(root, logger)
		if err != nil {
			return nil, err
		}
		for _, category := range []string{
			cache.CategoryRepoListing,
			cache.CategoryDirListing,
			cache.CategoryFileContent,
		} {
			store, err := storage.NewStore(db, category)
			if err != nil {
				db.Close()
				return nil, err
			}
			caches.Register(category, store)
		}
	} else {
		caches.Register(cache.CategoryRepoListing, cache.NewMemoryStore())
		caches.Register(cache.CategoryDirListing, cache.NewMemoryStore())
		caches.Register(cache.CategoryFileContent, cache.NewMemoryStore())
	}
	caches.Register(cache.CategoryAnalysisContent, cache.NewMemoryStore())

	host := githost.NewClient(githost.Options{
		BaseURL:    cfg.GitHost.BaseURL,
		Token:      cfg.GitHost.Token,
		Timeout:    cfg.GitHostTimeout(),
		MaxRetries: cfg.GitHost.MaxRetries,
	}, logger)

	analyzer := depgraph.New(host, catalog.NewBuilder(host, logger), caches, depgraph.Options{
		MaxNodes:         cfg.Analyzer.MaxNodes,
		TimeBudget:       cfg.TimeBudget(),
		FetchConcurrency: cfg.Analyzer.FetchConcurrency,
		ContentTTL:       cfg.FileContentTTL(),
		CatalogTTL:       cfg.RepoListingTTL(),
		ParsedRefsTTL:    cfg.ParsedRefsTTL(),
		ParsedRefsSize:   cfg.Cache.ParsedRefsMaxEntries,
	}, logger)

	return &Engine{
		root:     root,
		cfg:      cfg,
		logger:   logger,
		db:       db,
		caches:   caches,
		host:     host,
		analyzer: analyzer,
	}, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Close releases the persisted cache database, if any.
func (e *Engine) Close() error {
	if e.db != nil {
		return e.db.Close()
	}
	return nil
}

// Analyze runs one dependency analysis. A zero maxDepth takes the
// configured default; an empty repository list falls back to the workspace
// scope file, and the target repository always joins the search set.
func (e *Engine) Analyze(ctx context.Context, req depgraph.Request) (*depgraph.Graph, error) {
	if req.MaxDepth == 0 {
		req.MaxDepth = e.cfg.Analyzer.DefaultMaxDepth
	}

	if len(req.Repositories) == 0 {
		s, err := scope.Load(e.root)
		if err != nil {
			return nil, err
		}
		repos, err := s.Repositories()
		if err != nil {
			return nil, errors.NewValidation("invalid repository scope: " + err.Error())
		}
		req.Repositories = repos
	}

	if !containsRepo(req.Repositories, req.TargetRepo) {
		req.Repositories = append([]githost.Repository{req.TargetRepo}, req.Repositories...)
	}

	return e.analyzer.Analyze(ctx, req)
}

func containsRepo(repos []githost.Repository, repo githost.Repository) bool {
	for _, r := range repos {
		if r.FullName() == repo.FullName() {
			return true
		}
	}
	return false
}

// ListDirectory returns the immediate children of dir in a repository,
// served from the directory listing cache.
func (e *Engine) ListDirectory(ctx context.Context, repo githost.Repository, dir string) ([]githost.TreeEntry, error) {
	dir = strings.Trim(dir, "/")
	key := repo.FullName() + "@" + repo.Branch() + ":" + dir

	return cache.GetOrFetchJSON(ctx, e.caches, cache.CategoryDirListing, key, e.cfg.DirListingTTL(),
		func(ctx context.Context) ([]githost.TreeEntry, error) {
			tree, err := e.host.ListTree(ctx, repo)
			if err != nil {
				return nil, err
			}
			return directChildren(tree.Entries, dir), nil
		})
}

// directChildren filters a recursive tree down to one directory level.
// Subdirectories collapse into a single tree entry each.
func directChildren(entries []githost.TreeEntry, dir string) []githost.TreeEntry {
	prefix := ""
	if dir != "" {
		prefix = dir + "/"
	}

	children := make(map[string]githost.TreeEntry)
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Path, prefix) || entry.Path == dir {
			continue
		}
		rest := strings.TrimPrefix(entry.Path, prefix)
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			name := path.Join(dir, rest[:i])
			if _, ok := children[name]; !ok {
				children[name] = githost.TreeEntry{Path: name, Type: "tree"}
			}
			continue
		}
		children[entry.Path] = entry
	}

	out := make([]githost.TreeEntry, 0, len(children))
	for _, entry := range children {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// CacheStats reports per-category and combined cache statistics.
func (e *Engine) CacheStats() (cache.ManagerStats, error) {
	return e.caches.Stats()
}

// CleanExpired removes expired entries from every cache category and
// returns how many were dropped.
func (e *Engine) CleanExpired() (int, error) {
	return e.caches.Cleanup()
}

// ClearAll empties every cache category.
func (e *Engine) ClearAll() error {
	return e.caches.ClearAll()
}
