// Package execplan defines the execution edge (QXEdge): a QEdge bound to a
// traversal direction plus the runtime state the edge manager mutates while
// the query loop runs (spec.md §3, §4.1).
package execplan

import (
	"github.com/biograph/trapi-engine/internal/querygraph"
	"github.com/biograph/trapi-engine/internal/recordstore"
)

// XEdge wraps a QEdge with a chosen direction and execution state. Reverse
// swaps which endpoint is treated as the "input" side (the one with curies
// to seed the downstream sub-query) versus the "output" side (the one
// being resolved). A QEdge's own Subject/Object roles, and therefore which
// side of its Records is which, never change — only which side drives the
// query does.
type XEdge struct {
	Graph *querygraph.Graph
	QEdge *querygraph.QEdge

	Reverse     bool
	Predecessor *XEdge
	Executed    bool

	// InputCuries / OutputCuries hold the resolved curie sets for the
	// input and output QNode respectively. spec.md §3 describes these as
	// "two mappings from input/output query-node identifiers to sets of
	// resolved curies"; because a QEdge has exactly one subject and one
	// object, each mapping collapses to a single entry, so InputQNodeID /
	// OutputQNodeID carry the key and these hold the value.
	InputCuries  map[string]struct{}
	OutputCuries map[string]struct{}

	Records []*recordstore.Record
}

// New creates an execution edge for qEdge with the given initial direction.
func New(graph *querygraph.Graph, qEdge *querygraph.QEdge, reverse bool) *XEdge {
	return &XEdge{Graph: graph, QEdge: qEdge, Reverse: reverse}
}

// InputNodeIdx returns the arena index of the node currently treated as
// this edge's input (curie-bearing) side.
func (x *XEdge) InputNodeIdx() querygraph.NodeIndex {
	if x.Reverse {
		return x.QEdge.ObjectIdx
	}
	return x.QEdge.SubjectIdx
}

// OutputNodeIdx returns the arena index of the node being resolved.
func (x *XEdge) OutputNodeIdx() querygraph.NodeIndex {
	if x.Reverse {
		return x.QEdge.SubjectIdx
	}
	return x.QEdge.ObjectIdx
}

// InputNode dereferences InputNodeIdx.
func (x *XEdge) InputNode() *querygraph.QNode { return x.Graph.Node(x.InputNodeIdx()) }

// OutputNode dereferences OutputNodeIdx.
func (x *XEdge) OutputNode() *querygraph.QNode { return x.Graph.Node(x.OutputNodeIdx()) }

// InputQNodeID returns the query-node id of the input side.
func (x *XEdge) InputQNodeID() string { return x.InputNode().ID }

// OutputQNodeID returns the query-node id of the output side.
func (x *XEdge) OutputQNodeID() string { return x.OutputNode().ID }

// SideFor reports which side of this edge's Records (subject or object)
// corresponds to qNodeID. Unlike Input/Output, this never depends on
// Reverse: a record's own subject/object fields always mirror the QEdge's
// biolink-declared direction, only the *query* direction flips.
func (x *XEdge) SideFor(qNodeID string) (recordstore.Side, bool) {
	subj := x.Graph.Subject(x.QEdge)
	obj := x.Graph.Object(x.QEdge)
	switch qNodeID {
	case subj.ID:
		return recordstore.SideSubject, true
	case obj.ID:
		return recordstore.SideObject, true
	default:
		return 0, false
	}
}

// SharesNode reports whether x and other have a common endpoint, and
// returns that shared QNode's id.
func (x *XEdge) SharesNode(other *XEdge) (string, bool) {
	subj := x.Graph.Subject(x.QEdge)
	obj := x.Graph.Object(x.QEdge)
	otherSubj := x.Graph.Subject(other.QEdge)
	otherObj := x.Graph.Object(other.QEdge)
	for _, a := range []string{subj.ID, obj.ID} {
		for _, b := range []string{otherSubj.ID, otherObj.ID} {
			if a == b {
				return a, true
			}
		}
	}
	return "", false
}

// EntityCountProduct is the cardinality estimate the edge manager's next()
// minimizes over: the product of both endpoints' current EntityCount.
func (x *XEdge) EntityCountProduct() int {
	subj := x.Graph.Subject(x.QEdge)
	obj := x.Graph.Object(x.QEdge)
	return saturatingMul(subj.EntityCount, obj.EntityCount)
}

func saturatingMul(a, b int) int {
	if a == querygraph.Infinite || b == querygraph.Infinite {
		return querygraph.Infinite
	}
	product := a * b
	if product < 0 || product > querygraph.Infinite {
		return querygraph.Infinite
	}
	return product
}

// HasBoundInput reports whether the input side already has a non-empty
// resolved curie set or client-fixed curies, used as next()'s tie-break
// (spec §4.2).
func (x *XEdge) HasBoundInput() bool {
	return len(x.InputCuries) > 0 || x.InputNode().FixedInput()
}
