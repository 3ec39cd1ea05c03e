// Package depgraph implements the dependency graph analyzer: bounded BFS
// discovery of what a file depends on across a set of repositories, backed
// by the cache layer for every fetch.
package depgraph

import (
	"depmap/internal/catalog"
	"depmap/internal/githost"
)

// RelationKind labels a dependency edge.
type RelationKind string

const (
	// RelationReferences is a plain type or symbol reference
	RelationReferences RelationKind = "references"
	// RelationExtends is an inheritance or interface relation
	RelationExtends RelationKind = "extends"
	// RelationTests points from a test to the unit it exercises
	RelationTests RelationKind = "tests"
	// RelationCalls is a method or function invocation
	RelationCalls RelationKind = "calls"
)

// Node is a file (or file+symbol, in method-level mode) vertex.
type Node struct {
	ID         string             `json:"id"`
	Repository githost.Repository `json:"repository"`
	Path       string             `json:"path"`
	Symbol     string             `json:"symbol,omitempty"`
	Kind       catalog.Kind       `json:"kind"`
	Excerpt    string             `json:"excerpt,omitempty"`
}

// Link is a directed reference edge between two nodes. CrossRepository is
// derived from the endpoint repositories, never set independently.
type Link struct {
	SourceID        string       `json:"sourceId"`
	TargetID        string       `json:"targetId"`
	Relation        RelationKind `json:"relationKind"`
	CrossRepository bool         `json:"crossRepository"`
}

// Metadata summarizes a graph and records how discovery ended.
type Metadata struct {
	NodeCount                int   `json:"nodeCount"`
	LinkCount                int   `json:"linkCount"`
	CrossRepositoryLinkCount int   `json:"crossRepositoryLinkCount"`
	Truncated                bool  `json:"truncated"`
	UnresolvedReferenceCount int   `json:"unresolvedReferenceCount"`
	DurationMs               int64 `json:"durationMs"`
}

// Graph is the analyzer's result. Node ids are unique; identical links are
// suppressed on insert.
type Graph struct {
	Nodes    []Node   `json:"nodes"`
	Links    []Link   `json:"links"`
	Metadata Metadata `json:"metadata"`

	nodeIDs  map[string]bool
	linkKeys map[string]bool
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodeIDs:  make(map[string]bool),
		linkKeys: make(map[string]bool),
	}
}

// NodeID derives the deterministic node id from its coordinates.
func NodeID(repo githost.Repository, path, symbol string) string {
	id := repo.FullName() + ":" + path
	if symbol != "" {
		id += "#" + symbol
	}
	return id
}

// HasNode reports whether a node with the given id exists.
func (g *Graph) HasNode(id string) bool {
	return g.nodeIDs[id]
}

// AddNode inserts n unless a node with the same id already exists.
// Returns true when the node was added.
func (g *Graph) AddNode(n Node) bool {
	if g.nodeIDs[n.ID] {
		return false
	}
	g.nodeIDs[n.ID] = true
	g.Nodes = append(g.Nodes, n)
	return true
}

// AddLink inserts the edge source->target unless an identical edge (same
// endpoints and relation) exists. CrossRepository is derived here.
func (g *Graph) AddLink(source, target Node, relation RelationKind) bool {
	key := source.ID + "|" + target.ID + "|" + string(relation)
	if g.linkKeys[key] {
		return false
	}
	g.linkKeys[key] = true
	g.Links = append(g.Links, Link{
		SourceID:        source.ID,
		TargetID:        target.ID,
		Relation:        relation,
		CrossRepository: source.Repository.FullName() != target.Repository.FullName(),
	})
	return true
}

// NodeCount returns the current number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.Nodes)
}

// Seal computes the count invariants into Metadata. Call once discovery
// stops.
func (g *Graph) Seal() {
	g.Metadata.NodeCount = len(g.Nodes)
	g.Metadata.LinkCount = len(g.Links)
	cross := 0
	for _, l := range g.Links {
		if l.CrossRepository {
			cross++
		}
	}
	g.Metadata.CrossRepositoryLinkCount = cross
}
