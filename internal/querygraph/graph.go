// Package querygraph models the query graph a TRAPI client submits: typed
// nodes (categories, optional curies) and typed edges (predicates) between
// them. Nodes and edges are stored in arenas and referenced by integer
// index rather than by pointer, so a QEdge never owns its QNodes and the
// graph can be walked, validated, and copied without needing a cycle-aware
// GC story (see spec.md §9, "graph with shared node references").
package querygraph

import (
	"math"
	"sort"

	"github.com/biograph/trapi-engine/internal/biolink"
)

// Infinite is the entity_count sentinel for a node with no curies: an
// unbounded upper bound on cardinality until an incident edge executes.
const Infinite = math.MaxInt32

// NodeIndex is an arena offset into Graph.nodes.
type NodeIndex int

// EdgeIndex is an arena offset into Graph.edges.
type EdgeIndex int

// QNode is a query-graph node as described in spec.md §3. EntityCount and
// ResolvedCuries mutate during execution; everything else is fixed at
// ingestion.
type QNode struct {
	ID          string
	Categories  []string
	Curies      []string
	IsSet       bool
	EntityCount int
	// ResolvedCuries accumulates the curies this node has been bound to
	// once at least one incident edge has executed. nil before that.
	ResolvedCuries map[string]struct{}
}

// FixedInput reports whether this node was given concrete curies by the
// client, making it a valid root for planning and tree traversal.
func (n *QNode) FixedInput() bool {
	return len(n.Curies) > 0
}

// Resolved returns the resolved-curie set as a sorted slice. Returns nil if
// the node has not been bound by any executed edge yet.
func (n *QNode) Resolved() []string {
	if n.ResolvedCuries == nil {
		return nil
	}
	out := make([]string, 0, len(n.ResolvedCuries))
	for c := range n.ResolvedCuries {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// bindResolved intersects (if already bound) or sets (first bind) this
// node's resolved-curie set with contribution, and refreshes EntityCount to
// the resulting set size (spec §3 invariant 2).
func (n *QNode) bindResolved(contribution map[string]struct{}) {
	if n.ResolvedCuries == nil {
		n.ResolvedCuries = make(map[string]struct{}, len(contribution))
		for c := range contribution {
			n.ResolvedCuries[c] = struct{}{}
		}
	} else {
		for c := range n.ResolvedCuries {
			if _, ok := contribution[c]; !ok {
				delete(n.ResolvedCuries, c)
			}
		}
	}
	n.EntityCount = len(n.ResolvedCuries)
}

// QEdge is a query-graph edge: a predicate list between a subject and
// object QNode, referenced by arena index so neither node owns it.
type QEdge struct {
	ID         string
	SubjectIdx NodeIndex
	ObjectIdx  NodeIndex
	Predicates []string
}

// Graph is a validated query graph: an arena of nodes and an arena of
// edges referencing them by index.
type Graph struct {
	nodes     []*QNode
	edges     []*QEdge
	nodeByID  map[string]NodeIndex
	edgeByID  map[string]EdgeIndex
}

// NewGraph returns an empty graph ready for AddNode/AddEdge calls.
func NewGraph() *Graph {
	return &Graph{
		nodeByID: make(map[string]NodeIndex),
		edgeByID: make(map[string]EdgeIndex),
	}
}

// NodeInput is the subset of a TRAPI QNode the translator needs; the
// internal/trapi package maps its JSON shape onto this before calling
// AddNode, keeping querygraph free of any wire-format concern.
type NodeInput struct {
	ID         string
	Categories []string
	Curies     []string
	IsSet      bool
}

// EdgeInput mirrors a TRAPI QEdge.
type EdgeInput struct {
	ID         string
	SubjectID  string
	ObjectID   string
	Predicates []string
}

// AddNode registers a node, normalizing its categories (spec §4.1 isoform
// expansion) and seeding EntityCount: 1 when curies are given, Infinite
// otherwise (spec §3).
func (g *Graph) AddNode(in NodeInput) NodeIndex {
	n := &QNode{
		ID:         in.ID,
		Categories: biolink.NormalizeCategories(in.Categories),
		Curies:     in.Curies,
		IsSet:      in.IsSet,
	}
	if n.FixedInput() {
		n.EntityCount = 1
	} else {
		n.EntityCount = Infinite
	}
	idx := NodeIndex(len(g.nodes))
	g.nodes = append(g.nodes, n)
	g.nodeByID[in.ID] = idx
	return idx
}

// AddEdge registers an edge. Returns false if either endpoint id is
// unknown; the caller (BuildGraph) turns that into InvalidQueryGraph.
func (g *Graph) AddEdge(in EdgeInput) bool {
	subIdx, ok := g.nodeByID[in.SubjectID]
	if !ok {
		return false
	}
	objIdx, ok := g.nodeByID[in.ObjectID]
	if !ok {
		return false
	}
	e := &QEdge{
		ID:         in.ID,
		SubjectIdx: subIdx,
		ObjectIdx:  objIdx,
		Predicates: in.Predicates,
	}
	idx := EdgeIndex(len(g.edges))
	g.edges = append(g.edges, e)
	g.edgeByID[in.ID] = idx
	return true
}

// Nodes returns the node arena in insertion order.
func (g *Graph) Nodes() []*QNode { return g.nodes }

// Edges returns the edge arena in insertion order.
func (g *Graph) Edges() []*QEdge { return g.edges }

// Node dereferences a NodeIndex.
func (g *Graph) Node(idx NodeIndex) *QNode { return g.nodes[idx] }

// Edge dereferences an EdgeIndex.
func (g *Graph) Edge(idx EdgeIndex) *QEdge { return g.edges[idx] }

// NodeByID looks up a node by its query-graph identifier.
func (g *Graph) NodeByID(id string) (*QNode, bool) {
	idx, ok := g.nodeByID[id]
	if !ok {
		return nil, false
	}
	return g.nodes[idx], true
}

// NodeIndexByID looks up a node's arena index by its query-graph identifier.
func (g *Graph) NodeIndexByID(id string) (NodeIndex, bool) {
	idx, ok := g.nodeByID[id]
	return idx, ok
}

// Subject returns the subject QNode of an edge.
func (g *Graph) Subject(e *QEdge) *QNode { return g.nodes[e.SubjectIdx] }

// Object returns the object QNode of an edge.
func (g *Graph) Object(e *QEdge) *QNode { return g.nodes[e.ObjectIdx] }

// BindResolved intersects a node's resolved-curie set with contribution and
// recomputes EntityCount. Exported for the edge manager, which is the only
// caller outside this package allowed to mutate node state.
func (g *Graph) BindResolved(idx NodeIndex, contribution map[string]struct{}) {
	g.nodes[idx].bindResolved(contribution)
}

// EdgesTouching returns every edge index incident to nodeIdx, excluding
// exclude itself if it is one of them.
func (g *Graph) EdgesTouching(nodeIdx NodeIndex, exclude EdgeIndex) []EdgeIndex {
	var out []EdgeIndex
	for i, e := range g.edges {
		if EdgeIndex(i) == exclude {
			continue
		}
		if e.SubjectIdx == nodeIdx || e.ObjectIdx == nodeIdx {
			out = append(out, EdgeIndex(i))
		}
	}
	return out
}
