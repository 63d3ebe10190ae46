package trapi

import "github.com/biograph/trapi-engine/internal/execplan"

// PlanStep describes one execution edge's initial planned direction, for
// inspection without running the edge manager loop.
type PlanStep struct {
	QEdgeID       string `json:"q_edge_id"`
	InputQNodeID  string `json:"input_q_node_id"`
	OutputQNodeID string `json:"output_q_node_id"`
	Reverse       bool   `json:"reverse"`
}

// Plan validates qg and returns the initial execution order execplan.Translate
// would hand to the edge manager, without fetching anything. Useful for
// debugging a query graph's planned traversal before spending API calls on
// it (mirrors cmd/trapiquery's "explain-plan" subcommand).
func Plan(qg QueryGraph) ([]PlanStep, error) {
	graph, err := buildQueryGraph(qg)
	if err != nil {
		return nil, err
	}

	edges := execplan.Translate(graph)
	steps := make([]PlanStep, len(edges))
	for i, e := range edges {
		steps[i] = PlanStep{
			QEdgeID:       e.QEdge.ID,
			InputQNodeID:  e.InputQNodeID(),
			OutputQNodeID: e.OutputQNodeID(),
			Reverse:       e.Reverse,
		}
	}
	return steps, nil
}
