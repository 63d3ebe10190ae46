package trapi

import "testing"

func TestRenderSourcesEmitsDualRoleEntriesForCuratedAndGenericSources(t *testing.T) {
	inforesCuries := map[string]map[string]struct{}{
		"infores:curated-api": {
			"supporting_data_source":   {},
			"primary_knowledge_source": {},
		},
		"infores:generic-api": {
			"primary_knowledge_source":    {},
			"aggregator_knowledge_source": {},
		},
	}

	out := renderSources(inforesCuries)
	if len(out) != 4 {
		t.Fatalf("expected 4 retrieval-source entries, got %d: %+v", len(out), out)
	}

	// infores IDs sorted first, then roles sorted within each ID.
	want := []RetrievalSource{
		{ResourceID: "infores:curated-api", ResourceRole: "primary_knowledge_source"},
		{ResourceID: "infores:curated-api", ResourceRole: "supporting_data_source"},
		{ResourceID: "infores:generic-api", ResourceRole: "aggregator_knowledge_source"},
		{ResourceID: "infores:generic-api", ResourceRole: "primary_knowledge_source"},
	}
	for i, w := range want {
		if out[i] != w {
			t.Fatalf("entry %d: expected %+v, got %+v", i, w, out[i])
		}
	}
}

func TestRenderSourcesEmitsSingleRoleForTRAPINativeSource(t *testing.T) {
	inforesCuries := map[string]map[string]struct{}{
		"infores:unknown": {"primary_knowledge_source": {}},
	}

	out := renderSources(inforesCuries)
	if len(out) != 1 {
		t.Fatalf("expected 1 retrieval-source entry, got %d: %+v", len(out), out)
	}
	if out[0] != (RetrievalSource{ResourceID: "infores:unknown", ResourceRole: "primary_knowledge_source"}) {
		t.Fatalf("unexpected entry: %+v", out[0])
	}
}

func TestRenderSourcesReturnsNilForEmptyMap(t *testing.T) {
	if out := renderSources(nil); out != nil {
		t.Fatalf("expected nil, got %+v", out)
	}
}
