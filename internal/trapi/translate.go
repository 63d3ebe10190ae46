package trapi

import (
	"sort"

	"github.com/biograph/trapi-engine/internal/querygraph"
)

// buildQueryGraph maps the wire QueryGraph onto querygraph.BuildGraph's
// input shape, iterating nodes/edges in id order so translation is
// deterministic regardless of Go's randomized map iteration.
func buildQueryGraph(qg QueryGraph) (*querygraph.Graph, error) {
	nodeIDs := make([]string, 0, len(qg.Nodes))
	for id := range qg.Nodes {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Strings(nodeIDs)

	nodes := make([]querygraph.NodeInput, 0, len(nodeIDs))
	for _, id := range nodeIDs {
		n := qg.Nodes[id]
		nodes = append(nodes, querygraph.NodeInput{
			ID:         id,
			Categories: n.Categories,
			Curies:     n.IDs,
			IsSet:      n.IsSet,
		})
	}

	edgeIDs := make([]string, 0, len(qg.Edges))
	for id := range qg.Edges {
		edgeIDs = append(edgeIDs, id)
	}
	sort.Strings(edgeIDs)

	edges := make([]querygraph.EdgeInput, 0, len(edgeIDs))
	for _, id := range edgeIDs {
		e := qg.Edges[id]
		edges = append(edges, querygraph.EdgeInput{
			ID:         id,
			SubjectID:  e.Subject,
			ObjectID:   e.Object,
			Predicates: e.Predicates,
		})
	}

	return querygraph.BuildGraph(nodes, edges)
}
