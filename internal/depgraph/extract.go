package depgraph

import (
	"regexp"
	"strings"

	"depmap/internal/catalog"
)

// Reference is one outbound symbol reference extracted from a source file.
type Reference struct {
	// Symbol is the referenced type/class name
	Symbol string `json:"symbol"`
	// Member is the invoked method when one could be attributed
	Member string `json:"member,omitempty"`
	// Relation classifies how the file touches the symbol
	Relation RelationKind `json:"relation"`
	// Container is the enclosing function/method of the reference site,
	// populated only in method-level mode
	Container string `json:"container,omitempty"`
}

// Extractor extracts outbound references from one file. Extraction is
// heuristic by design: name-based scanning, not semantic analysis.
type Extractor interface {
	Extract(path string, content []byte, methodLevel bool) []Reference
}

// Reference site patterns. These are deliberately name-based: a symbol is
// any capitalized identifier in a reference position.
var (
	extendsRe = regexp.MustCompile(`\b(?:extends|implements)\s+([A-Z][A-Za-z0-9_]*)`)
	newRe     = regexp.MustCompile(`\bnew\s+([A-Z][A-Za-z0-9_]*)\s*\(`)
	callRe    = regexp.MustCompile(`\b([A-Z][A-Za-z0-9_]*)\s*\.\s*([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
	declRe    = regexp.MustCompile(`\b([A-Z][A-Za-z0-9_]*)\s+[a-z_][A-Za-z0-9_]*\s*[=;,)]`)
	importRe  = regexp.MustCompile(`(?:from\s+['"][./\w-]*/([A-Z][A-Za-z0-9_]*)['"]|import\s+.*?\b([A-Z][A-Za-z0-9_]*)\s*from)`)
)

// Enclosing declaration patterns, tried in order per line.
var containerRes = []*regexp.Regexp{
	regexp.MustCompile(`^\s*func\s+(?:\([^)]*\)\s*)?([A-Za-z_][A-Za-z0-9_]*)\s*\(`),
	regexp.MustCompile(`^\s*(?:export\s+)?(?:async\s+)?function\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`),
	regexp.MustCompile(`^\s*def\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`),
	regexp.MustCompile(`^\s*(?:public|private|protected|global|static)[\w\s<>,\[\]]*?\s([A-Za-z_][A-Za-z0-9_]*)\s*\([^;]*$`),
}

// HeuristicExtractor scans source line by line with the patterns above.
// Order is deterministic: top to bottom, left to right, first occurrence of
// a (symbol, member, relation, container) tuple wins.
type HeuristicExtractor struct{}

// NewHeuristicExtractor creates the name-based extractor.
func NewHeuristicExtractor() *HeuristicExtractor {
	return &HeuristicExtractor{}
}

// Extract implements Extractor.
func (e *HeuristicExtractor) Extract(path string, content []byte, methodLevel bool) []Reference {
	self := catalog.SymbolName(path)

	var refs []Reference
	seen := make(map[string]bool)
	add := func(r Reference) {
		if r.Symbol == "" || r.Symbol == self {
			return
		}
		key := r.Symbol + "|" + r.Member + "|" + string(r.Relation) + "|" + r.Container
		if seen[key] {
			return
		}
		seen[key] = true
		refs = append(refs, r)
	}

	// A test file references the unit its name points at
	if catalog.Classify(path) == catalog.KindTest {
		if target := testTarget(self); target != "" {
			add(Reference{Symbol: target, Relation: RelationTests})
		}
	}

	container := ""
	for _, line := range strings.Split(string(content), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed == "" || isCommentLine(trimmed) {
			continue
		}

		if methodLevel {
			for _, re := range containerRes {
				if m := re.FindStringSubmatch(line); m != nil {
					container = m[1]
					break
				}
			}
		}

		ctr := ""
		if methodLevel {
			ctr = container
		}

		for _, m := range extendsRe.FindAllStringSubmatch(line, -1) {
			add(Reference{Symbol: m[1], Relation: RelationExtends, Container: ctr})
		}
		for _, m := range newRe.FindAllStringSubmatch(line, -1) {
			add(Reference{Symbol: m[1], Relation: RelationReferences, Container: ctr})
		}
		for _, m := range callRe.FindAllStringSubmatch(line, -1) {
			add(Reference{Symbol: m[1], Member: m[2], Relation: RelationCalls, Container: ctr})
		}
		for _, m := range declRe.FindAllStringSubmatch(line, -1) {
			add(Reference{Symbol: m[1], Relation: RelationReferences, Container: ctr})
		}
		for _, m := range importRe.FindAllStringSubmatch(line, -1) {
			symbol := m[1]
			if symbol == "" {
				symbol = m[2]
			}
			add(Reference{Symbol: symbol, Relation: RelationReferences, Container: ctr})
		}
	}

	return refs
}

// testTarget strips test naming conventions from a symbol:
// FooControllerTest -> FooController, TestFoo -> Foo, foo_test -> foo.
func testTarget(symbol string) string {
	for _, suffix := range []string{"Tests", "Test", "_test", "Spec"} {
		if strings.HasSuffix(symbol, suffix) && len(symbol) > len(suffix) {
			return strings.TrimSuffix(symbol, suffix)
		}
	}
	if strings.HasPrefix(symbol, "Test") && len(symbol) > len("Test") {
		return strings.TrimPrefix(symbol, "Test")
	}
	return ""
}

func isCommentLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, "//") ||
		strings.HasPrefix(trimmed, "*") ||
		strings.HasPrefix(trimmed, "/*") ||
		strings.HasPrefix(trimmed, "#")
}
