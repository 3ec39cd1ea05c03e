//go:build !cgo

package depgraph

// SyntaxExtractor is the tree-sitter backed extractor. Without CGO the
// grammars are unavailable, so extraction falls back entirely to the
// name-based heuristics.
type SyntaxExtractor struct {
	fallback *HeuristicExtractor
}

// NewSyntaxExtractor creates the extractor used by the analyzer.
func NewSyntaxExtractor() *SyntaxExtractor {
	return &SyntaxExtractor{fallback: NewHeuristicExtractor()}
}

// Extract implements Extractor.
func (e *SyntaxExtractor) Extract(path string, content []byte, methodLevel bool) []Reference {
	return e.fallback.Extract(path, content, methodLevel)
}

// SyntaxAvailable reports whether grammar-backed extraction is compiled in.
func SyntaxAvailable() bool {
	return false
}
