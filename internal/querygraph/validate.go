package querygraph

import (
	"sort"

	qerrors "github.com/biograph/trapi-engine/internal/errors"
)

// BuildGraph ingests a TRAPI-shaped query graph and validates it per spec
// §4.1: every edge's endpoints must exist, every node must be reachable,
// the graph must not contain a cycle, and at least one node must carry
// curies. Returns a *qerrors.Error with Kind KindInvalidQueryGraph on any
// breach, which is the one error kind allowed to propagate to the client.
func BuildGraph(nodes []NodeInput, edges []EdgeInput) (*Graph, error) {
	g := NewGraph()
	for _, n := range nodes {
		g.AddNode(n)
	}

	var danglingEdges []string
	for _, e := range edges {
		if !g.AddEdge(e) {
			danglingEdges = append(danglingEdges, e.ID)
		}
	}
	if len(danglingEdges) > 0 {
		sort.Strings(danglingEdges)
		return nil, qerrors.InvalidQueryGraph("edges reference unknown nodes: %v", danglingEdges)
	}

	if len(g.nodes) == 0 {
		return nil, qerrors.InvalidQueryGraph("query graph has no nodes")
	}

	if err := g.checkReachable(); err != nil {
		return nil, err
	}
	if err := g.checkAcyclic(); err != nil {
		return nil, err
	}
	if !g.hasFixedInput() {
		return nil, qerrors.InvalidQueryGraph("query graph has no node with curies")
	}

	return g, nil
}

func (g *Graph) hasFixedInput() bool {
	for _, n := range g.nodes {
		if n.FixedInput() {
			return true
		}
	}
	return false
}

// checkReachable requires that, treating edges as undirected, every node is
// reachable from the first node, so the graph forms a single connected
// component; a graph with a single node passes without edges.
func (g *Graph) checkReachable() error {
	if len(g.nodes) == 1 {
		return nil
	}
	adjacency := make(map[NodeIndex][]NodeIndex, len(g.nodes))
	for _, e := range g.edges {
		adjacency[e.SubjectIdx] = append(adjacency[e.SubjectIdx], e.ObjectIdx)
		adjacency[e.ObjectIdx] = append(adjacency[e.ObjectIdx], e.SubjectIdx)
	}

	visited := make(map[NodeIndex]bool, len(g.nodes))
	var stack []NodeIndex
	stack = append(stack, 0)
	visited[0] = true
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range adjacency[cur] {
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}

	var unreachable []string
	for i, n := range g.nodes {
		if !visited[NodeIndex(i)] {
			unreachable = append(unreachable, n.ID)
		}
	}
	if len(unreachable) > 0 {
		sort.Strings(unreachable)
		return qerrors.InvalidQueryGraph("unreachable nodes: %v", unreachable)
	}
	return nil
}

// checkAcyclic rejects query-graph cycles (spec.md §1 non-goal, §4.1).
// Cycles are detected on the undirected skeleton: a query graph where two
// nodes are joined by more than one path is unsupported regardless of edge
// direction.
func (g *Graph) checkAcyclic() error {
	adjacency := make(map[NodeIndex][]struct {
		to   NodeIndex
		edge EdgeIndex
	}, len(g.nodes))
	for i, e := range g.edges {
		adjacency[e.SubjectIdx] = append(adjacency[e.SubjectIdx], struct {
			to   NodeIndex
			edge EdgeIndex
		}{e.ObjectIdx, EdgeIndex(i)})
		adjacency[e.ObjectIdx] = append(adjacency[e.ObjectIdx], struct {
			to   NodeIndex
			edge EdgeIndex
		}{e.SubjectIdx, EdgeIndex(i)})
	}

	visited := make(map[NodeIndex]bool, len(g.nodes))

	var dfs func(node NodeIndex, parentEdge EdgeIndex) error
	dfs = func(node NodeIndex, parentEdge EdgeIndex) error {
		visited[node] = true
		for _, adj := range adjacency[node] {
			if adj.edge == parentEdge {
				continue
			}
			if visited[adj.to] {
				return qerrors.InvalidQueryGraph("query graph contains a cycle at node %s", g.nodes[node].ID)
			}
			if err := dfs(adj.to, adj.edge); err != nil {
				return err
			}
		}
		return nil
	}

	for i := range g.nodes {
		if !visited[NodeIndex(i)] {
			if err := dfs(NodeIndex(i), -1); err != nil {
				return err
			}
		}
	}
	return nil
}
