package execplan

import (
	"sort"

	"github.com/biograph/trapi-engine/internal/querygraph"
)

// Translate turns a validated query graph into an ordered slice of execution
// edges, one per QEdge, each bound to an initial traversal direction
// (spec.md §4.1). Direction picks the endpoint nearer a fixed-input node as
// the input side: an edge whose subject already carries curies queries
// forward; one whose object does queries in reverse; one with neither
// (interior edges, resolved only after a neighbor executes) defaults
// forward and is corrected by the edge manager once its true input arrives.
//
// Edges are returned sorted by QEdge.ID so that two graphs built from the
// same TRAPI input always produce the same initial plan, which keeps
// scheduling deterministic up to the cardinality data the edge manager
// collects as it runs.
func Translate(graph *querygraph.Graph) []*XEdge {
	edges := graph.Edges()
	out := make([]*XEdge, len(edges))
	for i, e := range edges {
		out[i] = New(graph, e, chooseReverse(graph, e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QEdge.ID < out[j].QEdge.ID })
	return out
}

// chooseReverse implements the subject/fewer-curies/lexicographic tie-break
// from spec.md §4.1: prefer the subject as input if it has a fixed input,
// then the object; if both do, prefer the side with fewer curies (more
// selective), then fall back to comparing QNode IDs so the choice is still
// deterministic; if neither does, keep the forward direction.
func chooseReverse(graph *querygraph.Graph, e *querygraph.QEdge) bool {
	subj := graph.Subject(e)
	obj := graph.Object(e)

	subjFixed := subj.FixedInput()
	objFixed := obj.FixedInput()
	if subjFixed && !objFixed {
		return false
	}
	if objFixed && !subjFixed {
		return true
	}
	if subjFixed && objFixed {
		if len(subj.Curies) != len(obj.Curies) {
			return len(obj.Curies) < len(subj.Curies)
		}
		return obj.ID < subj.ID
	}
	// Neither side is fixed yet; this edge only becomes runnable once a
	// neighbor binds one of its endpoints, so the initial direction is a
	// placeholder the edge manager overwrites in FlipIfNeeded.
	return false
}

// FlipIfNeeded re-evaluates direction once a neighboring edge may have
// bound one of this edge's endpoints (spec §4.2: next() "may flip the
// edge's reverse flag so that its input side currently has the smaller
// resolved-curie set"). Returns true if it flipped.
func (x *XEdge) FlipIfNeeded() bool {
	subj := x.Graph.Subject(x.QEdge)
	obj := x.Graph.Object(x.QEdge)
	subjCount := boundCount(subj)
	objCount := boundCount(obj)
	subjBound := subjCount != querygraph.Infinite
	objBound := objCount != querygraph.Infinite

	wantReverse := x.Reverse
	switch {
	case subjBound && !objBound:
		wantReverse = false
	case objBound && !subjBound:
		wantReverse = true
	case subjBound && objBound:
		wantReverse = objCount < subjCount
	}
	if wantReverse != x.Reverse {
		x.Reverse = wantReverse
		return true
	}
	return false
}

// boundCount returns a node's known curie-set size: its resolved set once
// bound, its fixed-input curie count before any edge has executed, or
// Infinite when nothing constrains it yet.
func boundCount(n *querygraph.QNode) int {
	if n.ResolvedCuries != nil {
		return len(n.ResolvedCuries)
	}
	if n.FixedInput() {
		return len(n.Curies)
	}
	return querygraph.Infinite
}
