//go:build cgo

package depgraph

import (
	"context"
	"path"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"

	"depmap/internal/catalog"
)

// SyntaxExtractor extracts references by walking a tree-sitter parse tree.
// Unsupported languages and parse failures fall back to the name-based
// heuristics, so the analyzer never depends on grammar coverage.
type SyntaxExtractor struct {
	fallback *HeuristicExtractor
}

// NewSyntaxExtractor creates the extractor used by the analyzer.
func NewSyntaxExtractor() *SyntaxExtractor {
	return &SyntaxExtractor{fallback: NewHeuristicExtractor()}
}

// SyntaxAvailable reports whether grammar-backed extraction is compiled in.
func SyntaxAvailable() bool {
	return true
}

func languageFor(filePath string) *sitter.Language {
	switch strings.ToLower(path.Ext(filePath)) {
	case ".go":
		return golang.GetLanguage()
	case ".java", ".cls", ".trigger":
		// Apex is close enough to Java for reference positions
		return java.GetLanguage()
	case ".js", ".jsx", ".ts", ".tsx":
		return javascript.GetLanguage()
	case ".py":
		return python.GetLanguage()
	default:
		return nil
	}
}

// Node types that declare a function or method; their name child becomes
// the container for reference sites inside them.
var declarationTypes = map[string]bool{
	"function_declaration": true,
	"method_declaration":   true,
	"function_definition":  true,
	"method_definition":    true,
	"constructor_declaration": true,
}

// Node types whose capitalized identifiers are inheritance targets.
var extendsClauseTypes = map[string]bool{
	"superclass":          true,
	"super_interfaces":    true,
	"class_heritage":      true,
	"extends_interfaces":  true,
	"argument_list_super": true,
}

// Extract implements Extractor.
func (e *SyntaxExtractor) Extract(filePath string, content []byte, methodLevel bool) []Reference {
	lang := languageFor(filePath)
	if lang == nil {
		return e.fallback.Extract(filePath, content, methodLevel)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil || tree == nil {
		return e.fallback.Extract(filePath, content, methodLevel)
	}
	defer tree.Close()

	self := catalog.SymbolName(filePath)

	var refs []Reference
	seen := make(map[string]bool)
	add := func(r Reference) {
		if r.Symbol == "" || r.Symbol == self {
			return
		}
		if !methodLevel {
			r.Container = ""
		}
		key := r.Symbol + "|" + r.Member + "|" + string(r.Relation) + "|" + r.Container
		if seen[key] {
			return
		}
		seen[key] = true
		refs = append(refs, r)
	}

	if catalog.Classify(filePath) == catalog.KindTest {
		if target := testTarget(self); target != "" {
			add(Reference{Symbol: target, Relation: RelationTests})
		}
	}

	walk(tree.RootNode(), func(n *sitter.Node) {
		switch {
		case n.Type() == "identifier" || n.Type() == "type_identifier":
			name := n.Content(content)
			if !isSymbolName(name) {
				return
			}
			ref := Reference{
				Symbol:    name,
				Relation:  RelationReferences,
				Container: enclosingFunction(n, content),
			}
			if parent := n.Parent(); parent != nil {
				if extendsClauseTypes[parent.Type()] {
					ref.Relation = RelationExtends
				}
				if member, ok := invokedMember(n, parent, content); ok {
					ref.Relation = RelationCalls
					ref.Member = member
				}
			}
			add(ref)
		}
	})

	return refs
}

// invokedMember recognizes Foo.bar(...) shapes: the identifier is the
// object of a member access whose grandparent is an invocation.
func invokedMember(n, parent *sitter.Node, content []byte) (string, bool) {
	switch parent.Type() {
	case "selector_expression", "member_expression", "field_access", "attribute", "navigation_expression":
	default:
		return "", false
	}
	grand := parent.Parent()
	if grand == nil {
		return "", false
	}
	switch grand.Type() {
	case "call_expression", "method_invocation", "call":
	default:
		// Java puts the object and member directly on method_invocation
		if parent.Type() != "field_access" || grand.Type() != "method_invocation" {
			return "", false
		}
	}
	// The member is the sibling identifier after the object
	for i := 0; i < int(parent.NamedChildCount()); i++ {
		child := parent.NamedChild(i)
		if child != n && (child.Type() == "identifier" ||
			child.Type() == "field_identifier" || child.Type() == "property_identifier") {
			return child.Content(content), true
		}
	}
	return "", false
}

// enclosingFunction returns the name of the nearest enclosing function or
// method declaration.
func enclosingFunction(n *sitter.Node, content []byte) string {
	for cur := n.Parent(); cur != nil; cur = cur.Parent() {
		if !declarationTypes[cur.Type()] {
			continue
		}
		if name := cur.ChildByFieldName("name"); name != nil {
			return name.Content(content)
		}
	}
	return ""
}

func walk(n *sitter.Node, visit func(*sitter.Node)) {
	visit(n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		walk(n.NamedChild(i), visit)
	}
}

// isSymbolName keeps extraction aligned with the naming convention:
// resolvable symbols start with an upper-case letter.
func isSymbolName(name string) bool {
	if name == "" {
		return false
	}
	return unicode.IsUpper(rune(name[0]))
}
