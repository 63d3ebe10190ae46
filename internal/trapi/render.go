package trapi

import (
	"encoding/json"
	"sort"

	"github.com/biograph/trapi-engine/internal/assembler"
	"github.com/biograph/trapi-engine/internal/kg"
)

// renderKnowledgeGraph converts the pruned internal/kg aggregate into the
// TRAPI wire shape.
func renderKnowledgeGraph(builder *kg.Builder) KnowledgeGraph {
	nodes := make(map[string]KGNode)
	for _, n := range builder.Nodes() {
		nodes[n.PrimaryCurie] = KGNode{
			Categories: n.Categories,
			Name:       n.Label,
			Attributes: renderAttributes(n.Attributes),
		}
	}

	edges := make(map[string]KGEdge)
	for _, e := range builder.Edges() {
		edges[e.Hash] = KGEdge{
			Predicate:  e.Predicate,
			Subject:    e.SubjectCurie,
			Object:     e.ObjectCurie,
			Sources:    renderSources(e.InforesCuries),
			Attributes: renderAttributes(e.Attributes),
		}
	}

	return KnowledgeGraph{Nodes: nodes, Edges: edges}
}

// renderAttributes flattens a per-API attribute-bag map into a
// deterministically ordered attribute list, one entry per contributing API.
func renderAttributes(byAPI map[string][]byte) []Attribute {
	if len(byAPI) == 0 {
		return nil
	}
	apis := make([]string, 0, len(byAPI))
	for api := range byAPI {
		apis = append(apis, api)
	}
	sort.Strings(apis)

	out := make([]Attribute, 0, len(apis))
	for _, api := range apis {
		raw := byAPI[api]
		if len(raw) == 0 {
			continue
		}
		var value interface{}
		if err := json.Unmarshal(raw, &value); err != nil {
			continue
		}
		typeID := "biolink:has_attribute"
		if api != "" {
			typeID = "biolink:" + api + "_attributes"
		}
		out = append(out, Attribute{AttributeTypeID: typeID, Value: value})
	}
	return out
}

// renderSources turns an infores-curie -> role-set map into a
// deterministically ordered retrieval-source list, one RetrievalSource entry
// per (infores, role) pair — a curated direct source is promoted to both
// "supporting_data_source" and "primary_knowledge_source", a generic
// non-TRAPI source holds both "primary_knowledge_source" and
// "aggregator_knowledge_source" (spec.md §4.7), so a single contributing
// source can surface as more than one entry here.
func renderSources(inforesCuries map[string]map[string]struct{}) []RetrievalSource {
	if len(inforesCuries) == 0 {
		return nil
	}
	ids := make([]string, 0, len(inforesCuries))
	for id := range inforesCuries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]RetrievalSource, 0, len(ids))
	for _, id := range ids {
		roleSet := inforesCuries[id]
		roles := make([]string, 0, len(roleSet))
		for role := range roleSet {
			roles = append(roles, role)
		}
		sort.Strings(roles)
		for _, role := range roles {
			out = append(out, RetrievalSource{ResourceID: id, ResourceRole: role})
		}
	}
	return out
}

// renderResults converts consolidated assembler.Result values into the
// TRAPI results list, sorting each binding list for determinism (spec.md
// §4.6 "Ordering").
func renderResults(results []assembler.Result) []Result {
	out := make([]Result, 0, len(results))
	for _, r := range results {
		out = append(out, Result{
			NodeBindings: renderBindings(r.NodeBindings),
			EdgeBindings: renderBindings(r.EdgeBindings),
			Score:        r.Score,
		})
	}
	return out
}

func renderBindings(in map[string][]string) map[string][]Binding {
	out := make(map[string][]Binding, len(in))
	for qID, ids := range in {
		sorted := append([]string(nil), ids...)
		sort.Strings(sorted)
		bindings := make([]Binding, len(sorted))
		for i, id := range sorted {
			bindings[i] = Binding{ID: id}
		}
		out[qID] = bindings
	}
	return out
}
