// Package assembler converts the per-edge surviving records left in an
// executed query into TRAPI results: preresult enumeration over the query
// tree, consolidation-key grouping, positional merging, and TRAPI binding
// shape (spec.md §4.6).
package assembler

import (
	"github.com/biograph/trapi-engine/internal/execplan"
	"github.com/biograph/trapi-engine/internal/querygraph"
)

// Assemble returns every consolidated Result for a fully executed query.
// edges must be every execution edge belonging to graph, each already
// populated with its surviving records. A graph with no edges (a
// degenerate single-node query) produces no results.
func Assemble(graph *querygraph.Graph, edges []*execplan.XEdge) []Result {
	if len(edges) == 0 {
		return nil
	}

	t := buildTree(graph, edges)
	preresults := t.enumerateAll()
	if len(preresults) == 0 {
		return nil
	}

	groups := groupPreresults(graph, preresults)
	results := make([]Result, 0, len(groups))
	for _, g := range groups {
		results = append(results, g.merge())
	}
	return results
}

// ReferencedCuriesAndHashes collects every curie and record hash appearing
// in results, for internal/kg's post-assembly prune pass (spec §4.7).
func ReferencedCuriesAndHashes(results []Result) (curies map[string]struct{}, hashes map[string]struct{}) {
	curies = make(map[string]struct{})
	hashes = make(map[string]struct{})
	for _, r := range results {
		for _, values := range r.NodeBindings {
			for _, c := range values {
				curies[c] = struct{}{}
			}
		}
		for _, values := range r.EdgeBindings {
			for _, h := range values {
				hashes[h] = struct{}{}
			}
		}
	}
	return curies, hashes
}
