package assembler

import (
	"sort"

	"github.com/biograph/trapi-engine/internal/execplan"
	"github.com/biograph/trapi-engine/internal/querygraph"
	"github.com/biograph/trapi-engine/internal/recordstore"
)

// tuple is one execution edge's contribution to a preresult path (spec §4.6
// step 1): the query-node ids on either side, the curies a specific record
// bound them to, the owning QEdge id, and that record's hash.
type tuple struct {
	InputQNodeID  string
	OutputQNodeID string
	InputCurie    string
	OutputCurie   string
	QEdgeID       string
	RecordHash    string
}

// preresult is one complete root-to-leaves path through the query tree.
type preresult []tuple

// childLink is a statically-computed edge of the query-graph tree: which
// execution edge hangs off the current one, and through which shared node.
type childLink struct {
	edgeIdx   querygraph.EdgeIndex
	farNodeID string
}

// tree enumerates preresults for a set of executed edges belonging to a
// single acyclic, connected query graph (spec §4.1 guarantees this shape).
type tree struct {
	graph    *querygraph.Graph
	edges    []*execplan.XEdge
	byIdx    map[querygraph.EdgeIndex]*execplan.XEdge
	children map[querygraph.EdgeIndex][]childLink
}

// buildTree picks a root edge and computes the static parent/child
// structure once; per-record enumeration then walks it for every record
// combination without re-deriving topology.
func buildTree(graph *querygraph.Graph, edges []*execplan.XEdge) *tree {
	byIdx := make(map[querygraph.EdgeIndex]*execplan.XEdge, len(edges))
	for _, e := range edges {
		idx, _ := edgeIndexOf(graph, e.QEdge.ID)
		byIdx[idx] = e
	}

	t := &tree{
		graph:    graph,
		edges:    edges,
		byIdx:    byIdx,
		children: make(map[querygraph.EdgeIndex][]childLink),
	}

	root := chooseRoot(graph)
	visited := map[querygraph.EdgeIndex]bool{root: true}
	t.linkChildren(root, "", visited)
	return t
}

func edgeIndexOf(graph *querygraph.Graph, qEdgeID string) (querygraph.EdgeIndex, bool) {
	for i, e := range graph.Edges() {
		if e.ID == qEdgeID {
			return querygraph.EdgeIndex(i), true
		}
	}
	return 0, false
}

// chooseRoot picks any edge with an endpoint that is either client-fixed or
// of degree 1 in the query graph (spec §4.6 step 1), preferring the
// lexicographically smallest qualifying QEdge id for determinism.
func chooseRoot(graph *querygraph.Graph) querygraph.EdgeIndex {
	var candidates []struct {
		idx querygraph.EdgeIndex
		id  string
	}
	for i, e := range graph.Edges() {
		subj := graph.Subject(e)
		obj := graph.Object(e)
		subjIdx, _ := graph.NodeIndexByID(subj.ID)
		objIdx, _ := graph.NodeIndexByID(obj.ID)
		qualifies := subj.FixedInput() || obj.FixedInput() ||
			len(graph.EdgesTouching(subjIdx, -1)) == 1 ||
			len(graph.EdgesTouching(objIdx, -1)) == 1
		if qualifies {
			candidates = append(candidates, struct {
				idx querygraph.EdgeIndex
				id  string
			}{querygraph.EdgeIndex(i), e.ID})
		}
	}
	if len(candidates) == 0 {
		return 0
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].id < candidates[j].id })
	return candidates[0].idx
}

// linkChildren recursively assigns children to edgeIdx, exploring outward
// from every endpoint not equal to entryNodeID (both, for the root).
func (t *tree) linkChildren(edgeIdx querygraph.EdgeIndex, entryNodeID string, visited map[querygraph.EdgeIndex]bool) {
	qEdge := t.graph.Edge(edgeIdx)
	subj := t.graph.Subject(qEdge)
	obj := t.graph.Object(qEdge)

	var farIDs []string
	switch entryNodeID {
	case "":
		farIDs = []string{subj.ID, obj.ID}
	case subj.ID:
		farIDs = []string{obj.ID}
	default:
		farIDs = []string{subj.ID}
	}

	for _, farID := range farIDs {
		farIdx, _ := t.graph.NodeIndexByID(farID)
		for _, touching := range t.graph.EdgesTouching(farIdx, edgeIdx) {
			if visited[touching] {
				continue
			}
			visited[touching] = true
			t.children[edgeIdx] = append(t.children[edgeIdx], childLink{edgeIdx: touching, farNodeID: farID})
			t.linkChildren(touching, farID, visited)
		}
	}
}

// enumerate walks the static tree for every matching record combination,
// returning every complete preresult rooted at edgeIdx.
func (t *tree) enumerate(edgeIdx querygraph.EdgeIndex, entryNodeID, anchorCurie string, hasAnchor bool) []preresult {
	edge := t.byIdx[edgeIdx]
	if edge == nil {
		return nil
	}

	var entrySide recordstore.Side
	if hasAnchor {
		var ok bool
		entrySide, ok = edge.SideFor(entryNodeID)
		if !ok {
			return nil
		}
	}
	inputSide, _ := edge.SideFor(edge.InputQNodeID())
	outputSide, _ := edge.SideFor(edge.OutputQNodeID())

	var results []preresult
	for _, r := range edge.Records {
		if hasAnchor && recordstore.CurieAt(r, entrySide) != anchorCurie {
			continue
		}
		self := tuple{
			InputQNodeID:  edge.InputQNodeID(),
			OutputQNodeID: edge.OutputQNodeID(),
			InputCurie:    recordstore.CurieAt(r, inputSide),
			OutputCurie:   recordstore.CurieAt(r, outputSide),
			QEdgeID:       edge.QEdge.ID,
			RecordHash:    r.Hash,
		}

		children := t.children[edgeIdx]
		if len(children) == 0 {
			results = append(results, preresult{self})
			continue
		}

		perChild := make([][]preresult, len(children))
		complete := true
		for i, c := range children {
			side, _ := edge.SideFor(c.farNodeID)
			farCurie := recordstore.CurieAt(r, side)
			sub := t.enumerate(c.edgeIdx, c.farNodeID, farCurie, true)
			if len(sub) == 0 {
				complete = false
				break
			}
			perChild[i] = sub
		}
		if !complete {
			continue
		}
		for _, combo := range cartesian(perChild) {
			full := make(preresult, 0, 1+totalLen(combo))
			full = append(full, self)
			for _, part := range combo {
				full = append(full, part...)
			}
			results = append(results, full)
		}
	}
	return results
}

// enumerateAll returns every preresult for the whole tree. A query with no
// edges (degenerate single-node graph) has no preresults.
func (t *tree) enumerateAll() []preresult {
	if len(t.edges) == 0 {
		return nil
	}
	root := chooseRoot(t.graph)
	return t.enumerate(root, "", "", false)
}

func cartesian(lists [][]preresult) [][]preresult {
	if len(lists) == 0 {
		return [][]preresult{nil}
	}
	rest := cartesian(lists[1:])
	var out [][]preresult
	for _, item := range lists[0] {
		for _, tail := range rest {
			combo := make([]preresult, 0, 1+len(tail))
			combo = append(combo, item)
			combo = append(combo, tail...)
			out = append(out, combo)
		}
	}
	return out
}

func totalLen(combo []preresult) int {
	n := 0
	for _, p := range combo {
		n += len(p)
	}
	return n
}
