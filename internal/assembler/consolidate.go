package assembler

import (
	"sort"
	"strings"

	"github.com/biograph/trapi-engine/internal/querygraph"
)

// keySeparator joins per-node consolidation tokens (spec §4.6 step 2). It is
// not a hash, just a reserved, sortable delimiter, so two preresults that
// bind every shared node identically always land in the same group.
const keySeparator = "\x1d"

// Result is one TRAPI result: bindings unioned across every preresult that
// consolidated into it, plus a placeholder score (spec §4.6 step 4, §1 —
// real scoring is out of scope).
type Result struct {
	NodeBindings map[string][]string
	EdgeBindings map[string][]string
	Score        float64
}

// group is one consolidation bucket: every preresult sharing a key, merged
// positionally across edges (spec §4.6 step 3).
type group struct {
	key     string
	members []preresult
}

// consolidationKey computes the per-node token set for one preresult and
// joins it into the group identifier.
func consolidationKey(graph *querygraph.Graph, p preresult) string {
	nodeCurie := make(map[string]string, len(p)+1)
	for _, t := range p {
		nodeCurie[t.InputQNodeID] = t.InputCurie
		nodeCurie[t.OutputQNodeID] = t.OutputCurie
	}

	tokens := make([]string, 0, len(nodeCurie))
	for nodeID, curie := range nodeCurie {
		if n, ok := graph.NodeByID(nodeID); ok && n.IsSet {
			tokens = append(tokens, nodeID)
		} else {
			tokens = append(tokens, nodeID+"-"+curie)
		}
	}
	sort.Strings(tokens)
	return strings.Join(tokens, keySeparator)
}

// groupPreresults buckets preresults by consolidation key, preserving first
// occurrence order of each key for deterministic result ordering.
func groupPreresults(graph *querygraph.Graph, preresults []preresult) []group {
	index := make(map[string]int)
	var groups []group
	for _, p := range preresults {
		key := consolidationKey(graph, p)
		if i, ok := index[key]; ok {
			groups[i].members = append(groups[i].members, p)
			continue
		}
		index[key] = len(groups)
		groups = append(groups, group{key: key, members: []preresult{p}})
	}
	return groups
}

// merge positionally combines a group's members into one Result: the i-th
// tuple across every member contributes to the i-th edge's curie/hash sets.
func (g group) merge() Result {
	nodeBindings := make(map[string]map[string]struct{})
	edgeBindings := make(map[string]map[string]struct{})

	for _, member := range g.members {
		for _, t := range member {
			addBinding(nodeBindings, t.InputQNodeID, t.InputCurie)
			addBinding(nodeBindings, t.OutputQNodeID, t.OutputCurie)
			addBinding(edgeBindings, t.QEdgeID, t.RecordHash)
		}
	}

	return Result{
		NodeBindings: sortedSetMap(nodeBindings),
		EdgeBindings: sortedSetMap(edgeBindings),
		Score:        1.0,
	}
}

func addBinding(bindings map[string]map[string]struct{}, key, value string) {
	set, ok := bindings[key]
	if !ok {
		set = make(map[string]struct{})
		bindings[key] = set
	}
	set[value] = struct{}{}
}

func sortedSetMap(in map[string]map[string]struct{}) map[string][]string {
	out := make(map[string][]string, len(in))
	for key, set := range in {
		values := make([]string, 0, len(set))
		for v := range set {
			values = append(values, v)
		}
		sort.Strings(values)
		out[key] = values
	}
	return out
}
