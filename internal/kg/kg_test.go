package kg

import (
	"strings"
	"testing"

	"github.com/biograph/trapi-engine/internal/biolink"
	"github.com/biograph/trapi-engine/internal/execplan"
	"github.com/biograph/trapi-engine/internal/querygraph"
	"github.com/biograph/trapi-engine/internal/recordstore"
)

func buildTestEdge(t *testing.T) *execplan.XEdge {
	t.Helper()
	graph, err := querygraph.BuildGraph(
		[]querygraph.NodeInput{
			{ID: "n1", Categories: []string{"biolink:Gene"}, Curies: []string{"NCBIGene:3778"}},
			{ID: "n2", Categories: []string{"biolink:Disease"}},
		},
		[]querygraph.EdgeInput{
			{ID: "e01", SubjectID: "n1", ObjectID: "n2", Predicates: []string{"biolink:related_to"}},
		},
	)
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}
	return execplan.New(graph, graph.Edge(0), false)
}

func rec(hash, subject, object, api, source string) *recordstore.Record {
	return &recordstore.Record{
		Subject:   biolink.EndpointInfo{OriginalCurie: subject},
		Object:    biolink.EndpointInfo{OriginalCurie: object},
		Predicate: "biolink:related_to",
		API:       api,
		Source:    source,
		Hash:      hash,
	}
}

func TestOnEdgeExecutedUpsertsOneNodePerCurie(t *testing.T) {
	b := NewBuilder(nil)
	edge := buildTestEdge(t)
	b.OnEdgeExecuted(edge, []*recordstore.Record{
		rec("h1", "NCBIGene:3778", "MONDO:0005148", "api-a", "api-a"),
		rec("h2", "NCBIGene:3778", "MONDO:0007186", "api-b", "api-b"),
	})

	nodes := b.Nodes()
	if len(nodes) != 3 {
		t.Fatalf("expected 3 distinct nodes, got %d", len(nodes))
	}
	var gene *KGNode
	for _, n := range nodes {
		if n.PrimaryCurie == "NCBIGene:3778" {
			gene = n
		}
	}
	if gene == nil {
		t.Fatal("expected gene node to exist")
	}
	if len(gene.SourceQNodeIDs) != 1 || len(gene.TargetQNodeIDs) != 0 {
		t.Fatalf("expected gene bound only as source, got %+v / %+v", gene.SourceQNodeIDs, gene.TargetQNodeIDs)
	}
}

func TestOnEdgeExecutedMergesDuplicateRecordHashIntoOneEdge(t *testing.T) {
	b := NewBuilder(nil)
	edge := buildTestEdge(t)
	b.OnEdgeExecuted(edge, []*recordstore.Record{
		rec("h1", "NCBIGene:3778", "MONDO:0005148", "api-a", "api-a"),
		rec("h1", "NCBIGene:3778", "MONDO:0005148", "api-b", "api-b"),
	})

	edges := b.Edges()
	if len(edges) != 1 {
		t.Fatalf("expected one merged KGEdge, got %d", len(edges))
	}
	if len(edges[0].Sources) != 2 {
		t.Fatalf("expected both sources recorded, got %+v", edges[0].Sources)
	}
}

func TestSourceRolesPromotesCuratedSourceToSupportingAndPrimary(t *testing.T) {
	curated := CuratedSources{"my-curated-api": {}}
	roles := sourceRoles(curated, "my-curated-api")
	if len(roles) != 2 || roles[0] != "supporting_data_source" || roles[1] != "primary_knowledge_source" {
		t.Fatalf("expected [supporting_data_source primary_knowledge_source], got %v", roles)
	}
}

func TestSourceRolesTagsGenericSourceAsPrimaryAndAggregator(t *testing.T) {
	roles := sourceRoles(nil, "some-other-api")
	if len(roles) != 2 || roles[0] != "primary_knowledge_source" || roles[1] != "aggregator_knowledge_source" {
		t.Fatalf("expected [primary_knowledge_source aggregator_knowledge_source], got %v", roles)
	}
}

func TestSourceRolesTagsTRAPINativeAsPrimaryOnly(t *testing.T) {
	roles := sourceRoles(nil, "")
	if len(roles) != 1 || roles[0] != "primary_knowledge_source" {
		t.Fatalf("expected [primary_knowledge_source], got %v", roles)
	}
}

func TestShapeForSourceTagsCuratedSourceAsPrimary(t *testing.T) {
	curated := CuratedSources{"my-curated-api": {}}
	out := shapeForSource(curated, "my-curated-api", []byte(`{"confidence":0.9}`))
	got := string(out)
	if got == "" || got == `{"confidence":0.9}` {
		t.Fatalf("expected knowledge_source_roles injected, got %s", got)
	}
	if !contains(got, "supporting_data_source") || !contains(got, "primary_knowledge_source") {
		t.Fatalf("expected both curated roles present, got %s", got)
	}
}

func TestShapeForSourceLeavesTRAPINativePassthrough(t *testing.T) {
	raw := []byte(`{"confidence":0.9}`)
	out := shapeForSource(nil, "", raw)
	if string(out) != string(raw) {
		t.Fatalf("expected passthrough for empty api, got %s", out)
	}
}

func TestShapeForSourceTagsGenericSourceAsAggregator(t *testing.T) {
	out := shapeForSource(nil, "some-other-api", []byte(`{}`))
	got := string(out)
	if got == "{}" {
		t.Fatal("expected role tags injected")
	}
	if !contains(got, "primary_knowledge_source") || !contains(got, "aggregator_knowledge_source") {
		t.Fatalf("expected both generic roles present, got %s", got)
	}
}

func TestOnEdgeExecutedTagsCuratedSourceWithDualRoleOnEdge(t *testing.T) {
	curated := CuratedSources{"api-a": {}}
	b := NewBuilder(curated)
	edge := buildTestEdge(t)
	b.OnEdgeExecuted(edge, []*recordstore.Record{
		rec("h1", "NCBIGene:3778", "MONDO:0005148", "api-a", "api-a"),
	})

	edges := b.Edges()
	if len(edges) != 1 {
		t.Fatalf("expected one edge, got %d", len(edges))
	}
	roles := edges[0].InforesCuries["infores:api-a"]
	if len(roles) != 2 {
		t.Fatalf("expected 2 roles for curated source, got %+v", roles)
	}
	if _, ok := roles["supporting_data_source"]; !ok {
		t.Fatal("expected supporting_data_source role")
	}
	if _, ok := roles["primary_knowledge_source"]; !ok {
		t.Fatal("expected primary_knowledge_source role")
	}
}

func contains(haystack, needle string) bool {
	return strings.Contains(haystack, needle)
}

func TestPruneRemovesUnreferencedNodesAndEdges(t *testing.T) {
	b := NewBuilder(nil)
	edge := buildTestEdge(t)
	b.OnEdgeExecuted(edge, []*recordstore.Record{
		rec("h1", "NCBIGene:3778", "MONDO:0005148", "api-a", "api-a"),
		rec("h2", "NCBIGene:3778", "MONDO:0007186", "api-b", "api-b"),
	})

	b.Prune(
		map[string]struct{}{"NCBIGene:3778": {}, "MONDO:0005148": {}},
		map[string]struct{}{"h1": {}},
	)

	if len(b.Nodes()) != 2 {
		t.Fatalf("expected 2 surviving nodes, got %d", len(b.Nodes()))
	}
	if len(b.Edges()) != 1 {
		t.Fatalf("expected 1 surviving edge, got %d", len(b.Edges()))
	}
}

func TestNodesAndEdgesAreSortedDeterministically(t *testing.T) {
	b := NewBuilder(nil)
	edge := buildTestEdge(t)
	b.OnEdgeExecuted(edge, []*recordstore.Record{
		rec("h2", "NCBIGene:3778", "MONDO:0007186", "api-b", "api-b"),
		rec("h1", "NCBIGene:3778", "MONDO:0005148", "api-a", "api-a"),
	})

	edges := b.Edges()
	if edges[0].Hash != "h1" || edges[1].Hash != "h2" {
		t.Fatalf("expected edges sorted by hash, got %v", edges)
	}
}
