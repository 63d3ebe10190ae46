// Package edgemanager owns a query's execution edges end to end: choosing
// the next edge to run, storing its records, and propagating curie bindings
// to neighbors until they reach a fixed point (spec.md §4.2, §4.3).
package edgemanager

import (
	"sort"

	"github.com/biograph/trapi-engine/internal/execplan"
	"github.com/biograph/trapi-engine/internal/querygraph"
	"github.com/biograph/trapi-engine/internal/recordstore"
)

// Manager schedules and runs the execution edges of a single query. It is
// not safe for concurrent use: spec §5 requires edges to execute one at a
// time so each next() decision sees the previous edge's updated state.
type Manager struct {
	graph *querygraph.Graph
	store *recordstore.Store
	edges []*execplan.XEdge

	byQEdgeID map[string]*execplan.XEdge
	idxByEdge map[string]querygraph.EdgeIndex
	byIdx     map[querygraph.EdgeIndex]*execplan.XEdge

	observers []Observer
	opCounter OperationCounter
}

// Option configures optional Manager collaborators.
type Option func(*Manager)

// WithObserver registers an Observer notified on every storeRecords call.
func WithObserver(o Observer) Option {
	return func(m *Manager) { m.observers = append(m.observers, o) }
}

// WithOperationCounter installs the MetaKG-operation-count cardinality
// proxy used by next() when an edge's entity_count product is still
// Infinite (at least one endpoint is unbound).
func WithOperationCounter(oc OperationCounter) Option {
	return func(m *Manager) { m.opCounter = oc }
}

// New builds a Manager over the execution edges produced by
// execplan.Translate for graph, backed by store.
func New(graph *querygraph.Graph, edges []*execplan.XEdge, store *recordstore.Store, opts ...Option) *Manager {
	m := &Manager{
		graph:     graph,
		store:     store,
		edges:     edges,
		byQEdgeID: make(map[string]*execplan.XEdge, len(edges)),
		idxByEdge: make(map[string]querygraph.EdgeIndex, len(edges)),
		byIdx:     make(map[querygraph.EdgeIndex]*execplan.XEdge, len(edges)),
	}
	for i, e := range graph.Edges() {
		idx := querygraph.EdgeIndex(i)
		m.idxByEdge[e.ID] = idx
	}
	for _, xe := range edges {
		m.byQEdgeID[xe.QEdge.ID] = xe
		idx := m.idxByEdge[xe.QEdge.ID]
		m.byIdx[idx] = xe
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Edges returns every execution edge this manager owns, in plan order.
func (m *Manager) Edges() []*execplan.XEdge { return m.edges }

// ByQEdgeID looks up an execution edge by its underlying QEdge id.
func (m *Manager) ByQEdgeID(id string) (*execplan.XEdge, bool) {
	xe, ok := m.byQEdgeID[id]
	return xe, ok
}

// HasPending reports whether any edge is still unexecuted.
func (m *Manager) HasPending() bool {
	for _, e := range m.edges {
		if !e.Executed {
			return true
		}
	}
	return false
}

// Next chooses the unexecuted edge with the lowest product of endpoint
// entity_count values, flipping its direction if the fresher binding calls
// for it, per spec §4.2. Ties break first by whether the edge already has a
// bound input, then by QEdge id. Returns nil if every edge has executed.
func (m *Manager) Next() *execplan.XEdge {
	var best *execplan.XEdge
	var bestCost int

	for _, e := range m.edges {
		if e.Executed {
			continue
		}
		e.FlipIfNeeded()

		cost := m.cost(e)
		if best == nil || less(cost, e, bestCost, best) {
			best, bestCost = e, cost
		}
	}
	return best
}

// cost is the edge's cardinality estimate: the product of its endpoints'
// entity_count, or the MetaKG operation-count proxy when that product is
// Infinite, a counter is configured, and it counts at least one operation.
func (m *Manager) cost(e *execplan.XEdge) int {
	product := e.EntityCountProduct()
	if product != querygraph.Infinite || m.opCounter == nil {
		return product
	}
	subj := m.graph.Subject(e.QEdge)
	obj := m.graph.Object(e.QEdge)
	if n := m.opCounter.CountOperations(subj.Categories, e.QEdge.Predicates, obj.Categories); n > 0 {
		return n
	}
	return product
}

func less(cost int, e *execplan.XEdge, bestCost int, best *execplan.XEdge) bool {
	if cost != bestCost {
		return cost < bestCost
	}
	eBound, bestBound := e.HasBoundInput(), best.HasBoundInput()
	if eBound != bestBound {
		return eBound
	}
	return e.QEdge.ID < best.QEdge.ID
}

// StoreRecords attaches records to edge, marks it executed, recomputes both
// endpoints' resolved-curie sets and entity_count, notifies observers, and
// runs constraint propagation to its neighbors. Returns true if edge has no
// surviving records once propagation settles, signalling the terminal-empty
// short-circuit from spec §4.2/§5.
func (m *Manager) StoreRecords(edge *execplan.XEdge, records []*recordstore.Record) (terminalEmpty bool) {
	for _, r := range records {
		r.TrapiQEdgeID = edge.QEdge.ID
	}
	m.store.Put(edge.QEdge.ID, records)
	edge.Records = records
	edge.Executed = true
	m.rebind(edge, records)

	for _, obs := range m.observers {
		obs.OnEdgeExecuted(edge, records)
	}

	m.propagate(edge)
	return len(m.store.Records(edge.QEdge.ID)) == 0
}

// rebind recomputes edge's input/output curie sets from records and
// intersects them into the shared graph nodes.
func (m *Manager) rebind(edge *execplan.XEdge, records []*recordstore.Record) {
	inputSide, _ := edge.SideFor(edge.InputQNodeID())
	outputSide, _ := edge.SideFor(edge.OutputQNodeID())
	edge.InputCuries = recordstore.CurieSet(records, inputSide)
	edge.OutputCuries = recordstore.CurieSet(records, outputSide)
	m.graph.BindResolved(edge.InputNodeIdx(), edge.InputCuries)
	m.graph.BindResolved(edge.OutputNodeIdx(), edge.OutputCuries)
}

// propagate runs the two-way semi-join fixed point described in spec §4.3,
// starting from origin and working outward through the query graph via a
// worklist so that a later, tighter intersection ripples back to edges
// already visited.
func (m *Manager) propagate(origin *execplan.XEdge) {
	originIdx := m.idxByEdge[origin.QEdge.ID]
	queue := []querygraph.EdgeIndex{originIdx}
	queued := map[querygraph.EdgeIndex]bool{originIdx: true}

	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]
		queued[idx] = false
		edge := m.byIdx[idx]

		for _, nodeIdx := range []querygraph.NodeIndex{edge.QEdge.SubjectIdx, edge.QEdge.ObjectIdx} {
			nodeID := m.graph.Node(nodeIdx).ID
			for _, tIdx := range m.graph.EdgesTouching(nodeIdx, idx) {
				neighbor := m.byIdx[tIdx]
				if !neighbor.Executed {
					continue
				}
				if m.pruneAtNode(neighbor, nodeID) && !queued[tIdx] {
					queue = append(queue, tIdx)
					queued[tIdx] = true
				}
			}
		}
	}
}

// pruneAtNode removes every record on edge whose curie at nodeID falls
// outside that node's current resolved-curie set, then rebinds edge's own
// curie sets from the survivors. Returns true if anything was removed.
func (m *Manager) pruneAtNode(edge *execplan.XEdge, nodeID string) bool {
	node, ok := m.graph.NodeByID(nodeID)
	if !ok || node.ResolvedCuries == nil {
		return false
	}
	side, ok := edge.SideFor(nodeID)
	if !ok {
		return false
	}
	removed := m.store.Prune(edge.QEdge.ID, func(r *recordstore.Record) bool {
		_, keep := node.ResolvedCuries[recordstore.CurieAt(r, side)]
		return keep
	})
	if removed == 0 {
		return false
	}
	records := m.store.Records(edge.QEdge.ID)
	edge.Records = records
	m.rebind(edge, records)
	return true
}

// Collect returns the surviving records for every executed edge, keyed by
// QEdge id (spec §4.2 collect()).
func (m *Manager) Collect() map[string][]*recordstore.Record {
	return m.store.All()
}

// EdgeSummary describes one executed edge's surviving record set together
// with the neighbor edges it shares a QNode with (spec §4.2 organize()).
type EdgeSummary struct {
	QEdgeID     string
	Records     []*recordstore.Record
	ConnectedTo []string
}

// Organize returns a deterministic, edge-id-ordered EdgeSummary for every
// execution edge this manager owns.
func (m *Manager) Organize() []EdgeSummary {
	out := make([]EdgeSummary, 0, len(m.edges))
	for _, e := range m.edges {
		var connected []string
		for _, other := range m.edges {
			if other.QEdge.ID == e.QEdge.ID {
				continue
			}
			if _, shared := e.SharesNode(other); shared {
				connected = append(connected, other.QEdge.ID)
			}
		}
		sort.Strings(connected)
		out = append(out, EdgeSummary{
			QEdgeID:     e.QEdge.ID,
			Records:     m.store.Records(e.QEdge.ID),
			ConnectedTo: connected,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QEdgeID < out[j].QEdgeID })
	return out
}
