package trapi

import "testing"

func TestPlanOrdersEdgesAndPicksFixedInputSide(t *testing.T) {
	qg := QueryGraph{
		Nodes: map[string]QueryNode{
			"n1": {Categories: []string{"biolink:Gene"}, IDs: []string{"NCBIGene:3778"}},
			"n2": {Categories: []string{"biolink:Disease"}},
		},
		Edges: map[string]QueryEdge{
			"e01": {Subject: "n1", Object: "n2", Predicates: []string{"biolink:related_to"}},
		},
	}

	steps, err := Plan(qg)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(steps) != 1 {
		t.Fatalf("expected 1 step, got %d", len(steps))
	}
	if steps[0].QEdgeID != "e01" || steps[0].InputQNodeID != "n1" || steps[0].OutputQNodeID != "n2" || steps[0].Reverse {
		t.Fatalf("unexpected plan step: %+v", steps[0])
	}
}

func TestPlanPropagatesInvalidQueryGraph(t *testing.T) {
	qg := QueryGraph{
		Nodes: map[string]QueryNode{"n1": {IDs: []string{"NCBIGene:3778"}}},
		Edges: map[string]QueryEdge{"e01": {Subject: "n1", Object: "missing"}},
	}
	if _, err := Plan(qg); err == nil {
		t.Fatal("expected error for edge referencing unknown node")
	}
}
