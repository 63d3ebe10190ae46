package querygraph

import (
	"testing"

	qerrors "github.com/biograph/trapi-engine/internal/errors"
)

func twoHopInputs() ([]NodeInput, []EdgeInput) {
	nodes := []NodeInput{
		{ID: "n1", Categories: []string{"biolink:Gene"}, Curies: []string{"NCBIGene:3778"}},
		{ID: "n2", Categories: []string{"biolink:Disease"}},
		{ID: "n3", Categories: []string{"biolink:Gene"}, Curies: []string{"NCBIGene:7289"}},
	}
	edges := []EdgeInput{
		{ID: "e01", SubjectID: "n1", ObjectID: "n2", Predicates: []string{"biolink:related_to"}},
		{ID: "e02", SubjectID: "n3", ObjectID: "n2", Predicates: []string{"biolink:related_to"}},
	}
	return nodes, edges
}

func TestBuildGraphValid(t *testing.T) {
	nodes, edges := twoHopInputs()
	g, err := BuildGraph(nodes, edges)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(g.Nodes()) != 3 || len(g.Edges()) != 2 {
		t.Fatalf("unexpected graph shape")
	}
	n1, _ := g.NodeByID("n1")
	if n1.EntityCount != 1 {
		t.Fatalf("expected fixed-input entity count 1, got %d", n1.EntityCount)
	}
	n2, _ := g.NodeByID("n2")
	if n2.EntityCount != Infinite {
		t.Fatalf("expected unbound entity count, got %d", n2.EntityCount)
	}
}

func TestBuildGraphDanglingEdge(t *testing.T) {
	nodes := []NodeInput{{ID: "n1", Curies: []string{"NCBIGene:1"}}}
	edges := []EdgeInput{{ID: "e01", SubjectID: "n1", ObjectID: "missing"}}
	_, err := BuildGraph(nodes, edges)
	if err == nil {
		t.Fatal("expected error")
	}
	if qerrors.KindOf(err) != qerrors.KindInvalidQueryGraph {
		t.Fatalf("expected InvalidQueryGraph, got %v", err)
	}
}

func TestBuildGraphCycleRejected(t *testing.T) {
	nodes := []NodeInput{
		{ID: "n1", Curies: []string{"A:1"}},
		{ID: "n2"},
		{ID: "n3"},
	}
	edges := []EdgeInput{
		{ID: "e1", SubjectID: "n1", ObjectID: "n2"},
		{ID: "e2", SubjectID: "n2", ObjectID: "n3"},
		{ID: "e3", SubjectID: "n3", ObjectID: "n1"},
	}
	_, err := BuildGraph(nodes, edges)
	if err == nil {
		t.Fatal("expected cycle to be rejected")
	}
}

func TestBuildGraphNoFixedInput(t *testing.T) {
	nodes := []NodeInput{{ID: "n1"}, {ID: "n2"}}
	edges := []EdgeInput{{ID: "e1", SubjectID: "n1", ObjectID: "n2"}}
	_, err := BuildGraph(nodes, edges)
	if err == nil {
		t.Fatal("expected error for no fixed input node")
	}
}

func TestBuildGraphUnreachableNode(t *testing.T) {
	nodes := []NodeInput{
		{ID: "n1", Curies: []string{"A:1"}},
		{ID: "n2"},
		{ID: "n3"},
	}
	edges := []EdgeInput{{ID: "e1", SubjectID: "n1", ObjectID: "n2"}}
	_, err := BuildGraph(nodes, edges)
	if err == nil {
		t.Fatal("expected unreachable node n3 to be rejected")
	}
}

func TestNormalizeCategoriesAppliedOnIngest(t *testing.T) {
	nodes := []NodeInput{{ID: "n1", Categories: []string{"biolink:Protein"}, Curies: []string{"UniProtKB:1"}}}
	g := NewGraph()
	g.AddNode(nodes[0])
	n, _ := g.NodeByID("n1")
	found := false
	for _, c := range n.Categories {
		if c == "biolink:Gene" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected Protein to imply Gene, got %v", n.Categories)
	}
}
