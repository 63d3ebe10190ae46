package assembler

import (
	"testing"

	"github.com/biograph/trapi-engine/internal/biolink"
	"github.com/biograph/trapi-engine/internal/execplan"
	"github.com/biograph/trapi-engine/internal/querygraph"
	"github.com/biograph/trapi-engine/internal/recordstore"
)

func rec(subject, object string) *recordstore.Record {
	return &recordstore.Record{
		Subject: biolink.EndpointInfo{OriginalCurie: subject},
		Object:  biolink.EndpointInfo{OriginalCurie: object},
	}
}

func twoHopGraph(t *testing.T) (*querygraph.Graph, []*execplan.XEdge) {
	t.Helper()
	graph, err := querygraph.BuildGraph(
		[]querygraph.NodeInput{
			{ID: "n1", Categories: []string{"biolink:Gene"}, Curies: []string{"NCBIGene:3778"}},
			{ID: "n2", Categories: []string{"biolink:Disease"}},
			{ID: "n3", Categories: []string{"biolink:Gene"}, Curies: []string{"NCBIGene:7289"}},
		},
		[]querygraph.EdgeInput{
			{ID: "e01", SubjectID: "n1", ObjectID: "n2", Predicates: []string{"biolink:related_to"}},
			{ID: "e02", SubjectID: "n3", ObjectID: "n2", Predicates: []string{"biolink:related_to"}},
		},
	)
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}
	e01 := execplan.New(graph, graph.Edge(0), false)
	e02 := execplan.New(graph, graph.Edge(1), true) // n2 (object) is the input side
	return graph, []*execplan.XEdge{e01, e02}
}

func hashAll(edges []*execplan.XEdge) {
	for _, e := range edges {
		for i, r := range e.Records {
			r.Hash = e.QEdge.ID + "-h" + string(rune('0'+i))
		}
	}
}

func TestAssembleTwoHopSingleResult(t *testing.T) {
	graph, edges := twoHopGraph(t)
	edges[0].Records = []*recordstore.Record{rec("NCBIGene:3778", "MONDO:0011122")}
	edges[1].Records = []*recordstore.Record{rec("NCBIGene:7289", "MONDO:0011122")}
	hashAll(edges)

	results := Assemble(graph, edges)
	if len(results) != 1 {
		t.Fatalf("expected exactly one result, got %d: %+v", len(results), results)
	}
	r := results[0]
	if got := r.NodeBindings["n1"]; len(got) != 1 || got[0] != "NCBIGene:3778" {
		t.Fatalf("unexpected n1 bindings: %v", got)
	}
	if got := r.NodeBindings["n2"]; len(got) != 1 || got[0] != "MONDO:0011122" {
		t.Fatalf("unexpected n2 bindings: %v", got)
	}
	if got := r.NodeBindings["n3"]; len(got) != 1 || got[0] != "NCBIGene:7289" {
		t.Fatalf("unexpected n3 bindings: %v", got)
	}
	if len(r.EdgeBindings["e01"]) != 1 || len(r.EdgeBindings["e02"]) != 1 {
		t.Fatalf("expected one edge binding per QEdge, got %+v", r.EdgeBindings)
	}
}

func TestAssembleIsSetCollapsesToOneResult(t *testing.T) {
	graph, edges := twoHopGraph(t)
	n2, _ := graph.NodeByID("n2")
	n2.IsSet = true

	edges[0].Records = []*recordstore.Record{
		rec("NCBIGene:3778", "D1"),
		rec("NCBIGene:3778", "D2"),
		rec("NCBIGene:3778", "D3"),
	}
	edges[1].Records = []*recordstore.Record{
		rec("NCBIGene:7289", "D1"),
		rec("NCBIGene:7289", "D2"),
		rec("NCBIGene:7289", "D3"),
	}
	hashAll(edges)

	results := Assemble(graph, edges)
	if len(results) != 1 {
		t.Fatalf("expected one result with is_set, got %d", len(results))
	}
	bindings := results[0].NodeBindings["n2"]
	if len(bindings) != 3 {
		t.Fatalf("expected union of 3 diseases, got %v", bindings)
	}
}

func TestAssembleWithoutIsSetProducesThreeResults(t *testing.T) {
	graph, edges := twoHopGraph(t)

	edges[0].Records = []*recordstore.Record{
		rec("NCBIGene:3778", "D1"),
		rec("NCBIGene:3778", "D2"),
		rec("NCBIGene:3778", "D3"),
	}
	edges[1].Records = []*recordstore.Record{
		rec("NCBIGene:7289", "D1"),
		rec("NCBIGene:7289", "D2"),
		rec("NCBIGene:7289", "D3"),
	}
	hashAll(edges)

	results := Assemble(graph, edges)
	if len(results) != 3 {
		t.Fatalf("expected three distinct results without is_set, got %d", len(results))
	}
}

func TestAssembleDeadEndPruningLeavesOneResult(t *testing.T) {
	graph, edges := twoHopGraph(t)
	edges[0].Records = []*recordstore.Record{
		rec("NCBIGene:3778", "D1"),
		rec("NCBIGene:3778", "D2"),
	}
	edges[1].Records = []*recordstore.Record{
		rec("NCBIGene:7289", "D1"),
	}
	hashAll(edges)

	results := Assemble(graph, edges)
	if len(results) != 1 {
		t.Fatalf("expected D2 to fail to join and leave one result, got %d", len(results))
	}
	if got := results[0].NodeBindings["n2"]; len(got) != 1 || got[0] != "D1" {
		t.Fatalf("expected surviving binding D1, got %v", got)
	}
}

func TestAssembleReturnsNilForNoEdges(t *testing.T) {
	if got := Assemble(nil, nil); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}

func TestReferencedCuriesAndHashesCollectsFromResults(t *testing.T) {
	results := []Result{{
		NodeBindings: map[string][]string{"n1": {"A", "B"}},
		EdgeBindings: map[string][]string{"e01": {"h1"}},
	}}
	curies, hashes := ReferencedCuriesAndHashes(results)
	if len(curies) != 2 || len(hashes) != 1 {
		t.Fatalf("unexpected collection: curies=%v hashes=%v", curies, hashes)
	}
}
