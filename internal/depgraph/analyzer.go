package depgraph

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"depmap/internal/cache"
	"depmap/internal/catalog"
	"depmap/internal/errors"
	"depmap/internal/githost"
	"depmap/internal/logging"
)

// ContentFetcher is the slice of the githost client the analyzer needs.
type ContentFetcher interface {
	GetContent(ctx context.Context, repo githost.Repository, path, ref string) (*githost.Content, error)
}

// CatalogLister produces repository catalogs on cache miss.
type CatalogLister interface {
	ListFiles(ctx context.Context, repo githost.Repository) (*catalog.Catalog, error)
}

// Options bound a single analysis. Zero values fall back to the defaults
// below.
type Options struct {
	MaxNodes         int
	TimeBudget       time.Duration
	FetchConcurrency int
	ContentTTL       time.Duration
	CatalogTTL       time.Duration
	ParsedRefsTTL    time.Duration
	ParsedRefsSize   int
	ExcerptBytes     int
}

const (
	defaultMaxNodes       = 200
	defaultTimeBudget     = 30 * time.Second
	defaultConcurrency    = 5
	defaultContentTTL     = 30 * time.Minute
	defaultCatalogTTL     = 5 * time.Minute
	defaultParsedRefsTTL  = 30 * time.Minute
	defaultParsedRefsSize = 2048
	defaultExcerptBytes   = 2000
)

func (o Options) withDefaults() Options {
	if o.MaxNodes <= 0 {
		o.MaxNodes = defaultMaxNodes
	}
	if o.TimeBudget <= 0 {
		o.TimeBudget = defaultTimeBudget
	}
	if o.FetchConcurrency <= 0 {
		o.FetchConcurrency = defaultConcurrency
	}
	if o.ContentTTL <= 0 {
		o.ContentTTL = defaultContentTTL
	}
	if o.CatalogTTL <= 0 {
		o.CatalogTTL = defaultCatalogTTL
	}
	if o.ParsedRefsTTL <= 0 {
		o.ParsedRefsTTL = defaultParsedRefsTTL
	}
	if o.ParsedRefsSize <= 0 {
		o.ParsedRefsSize = defaultParsedRefsSize
	}
	if o.ExcerptBytes <= 0 {
		o.ExcerptBytes = defaultExcerptBytes
	}
	return o
}

// Request describes one analysis. Defaults (maxDepth 2, method level on)
// are applied by the API/CLI layer; the engine takes the fields literally.
type Request struct {
	Repositories   []githost.Repository `json:"repositories"`
	TargetRepo     githost.Repository   `json:"targetRepo"`
	TargetFile     string               `json:"targetFile"`
	MaxDepth       int                  `json:"maxDepth"`
	MethodLevel    bool                 `json:"includeMethodLevel"`
	IncludeContent bool                 `json:"includeContent"`
}

func (r Request) validate() error {
	if r.TargetFile == "" {
		return errors.NewValidation("targetFile is required")
	}
	if r.TargetRepo.Org == "" || r.TargetRepo.Name == "" {
		return errors.NewValidation("targetRepo is required")
	}
	if len(r.Repositories) == 0 {
		return errors.NewValidation("repositories must not be empty")
	}
	if r.MaxDepth < 0 {
		return errors.NewValidation("maxDepth must not be negative")
	}
	return nil
}

// Analyzer drives bounded BFS discovery over cached fetches.
type Analyzer struct {
	host      ContentFetcher
	catalogs  CatalogLister
	caches    *cache.Manager
	extractor Extractor
	resolver  Resolver
	parsed    *expirable.LRU[string, []Reference]
	opts      Options
	logger    *logging.Logger
}

// New creates an analyzer. The cache manager must have the repo-listing,
// file-content, and analysis-content categories registered.
func New(host ContentFetcher, catalogs CatalogLister, caches *cache.Manager, opts Options, logger *logging.Logger) *Analyzer {
	opts = opts.withDefaults()
	return &Analyzer{
		host:      host,
		catalogs:  catalogs,
		caches:    caches,
		extractor: NewSyntaxExtractor(),
		resolver:  NewNameResolver(),
		parsed:    expirable.NewLRU[string, []Reference](opts.ParsedRefsSize, nil, opts.ParsedRefsTTL),
		opts:      opts,
		logger:    logger,
	}
}

// WithResolver swaps the resolution policy. Used by tests and by callers
// that plug in a stricter resolver.
func (a *Analyzer) WithResolver(r Resolver) *Analyzer {
	a.resolver = r
	return a
}

// WithExtractor swaps the reference extractor.
func (a *Analyzer) WithExtractor(e Extractor) *Analyzer {
	a.extractor = e
	return a
}

type frontierItem struct {
	node    Node
	content *githost.Content // pre-fetched (root level only)
}

type fetchResult struct {
	content *githost.Content
	err     error
}

// Analyze performs the bounded breadth-first discovery described by req.
//
// Hard errors are limited to validation failures and an unfetchable root;
// every other failure is absorbed into metadata (truncated /
// unresolvedReferenceCount) so the caller always gets a usable graph.
// Cancellation and budget exhaustion stop discovery at the current frontier
// and return the partial graph with truncated=true.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Graph, error) {
	start := time.Now()
	if err := req.validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, a.opts.TimeBudget)
	defer cancel()

	g := NewGraph()

	rootContent, err := a.fetchContent(ctx, req.TargetRepo, req.TargetFile)
	if err != nil {
		if githost.IsNotFound(err) {
			return nil, errors.NewRootNotFound(req.TargetRepo.FullName(), req.TargetFile, err)
		}
		return nil, err
	}

	root := Node{
		ID:         NodeID(req.TargetRepo, req.TargetFile, ""),
		Repository: req.TargetRepo,
		Path:       req.TargetFile,
		Kind:       catalog.Classify(req.TargetFile),
	}
	if req.IncludeContent {
		root.Excerpt = excerpt(rootContent.Data, a.opts.ExcerptBytes)
	}
	g.AddNode(root)

	catalogs := a.loadCatalogs(ctx, req.Repositories, g)

	frontier := []frontierItem{{node: root, content: rootContent}}
	visitedFiles := map[string]bool{fileKey(req.TargetRepo, req.TargetFile): true}

	// True BFS: depth advances only after a full frontier level completes,
	// so every node carries its shortest-path depth and targets never land
	// beyond maxDepth.
	stopped := false
	for depth := 0; depth < req.MaxDepth && len(frontier) > 0 && !stopped; depth++ {
		if ctx.Err() != nil {
			g.Metadata.Truncated = true
			break
		}

		results := a.fetchLevel(ctx, frontier)

		var next []frontierItem
		for i, item := range frontier {
			if stopped {
				break
			}
			res := results[i]
			if res.err != nil {
				g.Metadata.Truncated = true
				if ctx.Err() != nil {
					stopped = true
					break
				}
				a.logger.Warn("Fetch failed during traversal, skipping node", map[string]interface{}{
					"node":  item.node.ID,
					"error": res.err.Error(),
				})
				continue
			}
			if res.content.IsBinary {
				continue
			}

			refs := a.extractRefs(item.node.Path, res.content, req.MethodLevel)
			for _, ref := range refs {
				if ctx.Err() != nil {
					g.Metadata.Truncated = true
					stopped = true
					break
				}

				entry, ok := a.resolver.Resolve(ref, item.node.Repository, catalogs.available)
				if !ok {
					g.Metadata.UnresolvedReferenceCount++
					if catalogs.anyTruncated {
						// A miss against an incomplete catalog is not
						// proof of absence
						g.Metadata.Truncated = true
					}
					continue
				}

				source := item.node
				if req.MethodLevel && ref.Container != "" {
					if sym, ok := a.ensureSymbolNode(g, item.node, ref.Container); ok {
						source = sym
					}
				}

				targetSymbol := ""
				if req.MethodLevel && ref.Member != "" {
					targetSymbol = ref.Member
				}
				target := Node{
					ID:         NodeID(entry.Repository, entry.Path, targetSymbol),
					Repository: entry.Repository,
					Path:       entry.Path,
					Symbol:     targetSymbol,
					Kind:       entry.Kind,
				}

				if !g.HasNode(target.ID) {
					if g.NodeCount() >= a.opts.MaxNodes {
						g.Metadata.Truncated = true
						stopped = true
						break
					}
					g.AddNode(target)
					fk := fileKey(entry.Repository, entry.Path)
					if !visitedFiles[fk] {
						visitedFiles[fk] = true
						next = append(next, frontierItem{node: target})
					}
				}
				// Edges are added even to already-visited nodes; only
				// exact duplicates are suppressed
				g.AddLink(source, target, ref.Relation)
			}
		}
		frontier = next
	}

	g.Seal()
	g.Metadata.DurationMs = time.Since(start).Milliseconds()

	a.logger.Info("Analysis complete", map[string]interface{}{
		"root":       root.ID,
		"nodes":      g.Metadata.NodeCount,
		"links":      g.Metadata.LinkCount,
		"unresolved": g.Metadata.UnresolvedReferenceCount,
		"truncated":  g.Metadata.Truncated,
		"durationMs": g.Metadata.DurationMs,
	})
	return g, nil
}

// fetchLevel fetches the contents of one frontier level with bounded
// parallelism. Result order matches the input order so traversal stays
// deterministic.
func (a *Analyzer) fetchLevel(ctx context.Context, items []frontierItem) []fetchResult {
	results := make([]fetchResult, len(items))
	sem := make(chan struct{}, a.opts.FetchConcurrency)
	var wg sync.WaitGroup

	for i := range items {
		if items[i].content != nil {
			results[i] = fetchResult{content: items[i].content}
			continue
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i] = fetchResult{err: ctx.Err()}
				return
			}
			content, err := a.fetchContent(ctx, items[i].node.Repository, items[i].node.Path)
			results[i] = fetchResult{content: content, err: err}
		}(i)
	}
	wg.Wait()
	return results
}

// fetchContent goes through both cache tiers: the in-process analysis
// content cache first, the persisted file-content cache beneath it, the
// code host last.
func (a *Analyzer) fetchContent(ctx context.Context, repo githost.Repository, path string) (*githost.Content, error) {
	key := repo.FullName() + "@" + repo.Branch() + ":" + path

	content, err := cache.GetOrFetchJSON(ctx, a.caches, cache.CategoryAnalysisContent, key, a.opts.ContentTTL,
		func(ctx context.Context) (githost.Content, error) {
			return cache.GetOrFetchJSON(ctx, a.caches, cache.CategoryFileContent, key, a.opts.ContentTTL,
				func(ctx context.Context) (githost.Content, error) {
					c, err := a.host.GetContent(ctx, repo, path, "")
					if err != nil {
						return githost.Content{}, err
					}
					return *c, nil
				})
		})
	if err != nil {
		return nil, err
	}
	return &content, nil
}

// extractRefs memoizes extraction per content hash, so re-analysis of an
// unchanged file never re-parses.
func (a *Analyzer) extractRefs(path string, content *githost.Content, methodLevel bool) []Reference {
	hash := content.SHA
	if hash == "" {
		sum := sha256.Sum256(content.Data)
		hash = hex.EncodeToString(sum[:])
	}
	key := hash + "|" + strconv.FormatBool(methodLevel)

	if refs, ok := a.parsed.Get(key); ok {
		return refs
	}
	refs := a.extractor.Extract(path, content.Data, methodLevel)
	a.parsed.Add(key, refs)
	return refs
}

// ensureSymbolNode adds the file+symbol source node for a method-level
// reference site, if the budget allows.
func (a *Analyzer) ensureSymbolNode(g *Graph, file Node, symbol string) (Node, bool) {
	node := Node{
		ID:         NodeID(file.Repository, file.Path, symbol),
		Repository: file.Repository,
		Path:       file.Path,
		Symbol:     symbol,
		Kind:       file.Kind,
	}
	if g.HasNode(node.ID) {
		return node, true
	}
	if g.NodeCount() >= a.opts.MaxNodes {
		return Node{}, false
	}
	g.AddNode(node)
	return node, true
}

// catalogSet holds the catalogs for one analysis.
type catalogSet struct {
	available    []*catalog.Catalog
	anyTruncated bool
}

// loadCatalogs fetches each search repository's catalog through the cache.
// A failing repository is logged and skipped; the rest of the analysis
// proceeds with whatever catalogs loaded.
func (a *Analyzer) loadCatalogs(ctx context.Context, repos []githost.Repository, g *Graph) *catalogSet {
	set := &catalogSet{}
	for _, repo := range repos {
		key := repo.FullName() + "@" + repo.Branch()
		cat, err := cache.GetOrFetchJSON(ctx, a.caches, cache.CategoryRepoListing, key, a.opts.CatalogTTL,
			func(ctx context.Context) (catalog.Catalog, error) {
				c, err := a.catalogs.ListFiles(ctx, repo)
				if err != nil {
					return catalog.Catalog{}, err
				}
				return *c, nil
			})
		if err != nil {
			a.logger.Warn("Catalog unavailable, excluding repository from resolution", map[string]interface{}{
				"repo":  repo.FullName(),
				"error": err.Error(),
			})
			g.Metadata.Truncated = true
			continue
		}
		if cat.Truncated {
			set.anyTruncated = true
		}
		c := cat
		set.available = append(set.available, &c)
	}
	return set
}

func fileKey(repo githost.Repository, path string) string {
	return repo.FullName() + ":" + path
}

func excerpt(data []byte, limit int) string {
	if len(data) <= limit {
		return string(data)
	}
	return string(data[:limit])
}
