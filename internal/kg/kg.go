// Package kg builds the TRAPI knowledge_graph: a deduplicated node/edge
// aggregate assembled incrementally as the edge manager executes edges
// (spec.md §4.7). It subscribes as an edgemanager.Observer, so it sees every
// record the moment its edge lands, regardless of later constraint-pruning.
package kg

import (
	"sort"

	"github.com/tidwall/sjson"

	"github.com/biograph/trapi-engine/internal/execplan"
	"github.com/biograph/trapi-engine/internal/recordstore"
)

// KGNode is the aggregate view of one curie across every record it appeared
// in, as either a subject or an object (spec §3).
type KGNode struct {
	PrimaryCurie     string
	Categories       []string
	Label            string
	EquivalentCuries map[string]struct{}
	Names            map[string]struct{}
	// SourceQNodeIDs / TargetQNodeIDs record which query-graph nodes this
	// curie was bound to as a subject or object respectively, across every
	// edge it appeared in.
	SourceQNodeIDs map[string]struct{}
	TargetQNodeIDs map[string]struct{}
	// Attributes is keyed by API name, mirroring KGEdge.Attributes, since a
	// curie can be populated by more than one source API across the query.
	Attributes map[string][]byte
}

// KGEdge is the aggregate view of one distinct record hash: every record
// sharing a hash is the same assertion, possibly seen from more than one API.
type KGEdge struct {
	Hash         string
	Predicate    string
	SubjectCurie string
	ObjectCurie  string
	Sources      map[string]struct{}
	// InforesCuries maps each contributing source's infores curie to the set
	// of retrieval-source roles it holds on this edge. A source can hold more
	// than one role at once (spec §4.7: a curated direct source is
	// "supporting + primary", a generic non-TRAPI source is "primary +
	// aggregator"), so this is not a plain set of curies.
	InforesCuries map[string]map[string]struct{}
	Publications  map[string]struct{}
	// Attributes is keyed by API name since each source API contributes its
	// own bag (spec §3: "per-api attribute bags").
	Attributes map[string][]byte
}

// CuratedSources is the configured allow-list of direct-source API names
// whose attributes are promoted to supporting + primary knowledge source
// (spec §4.7). Populated by internal/config at startup.
type CuratedSources map[string]struct{}

// Builder accumulates KGNode/KGEdge aggregates as edges execute, and can
// emit a pruned, referenced-only snapshot once the assembler has picked its
// final records.
type Builder struct {
	curated CuratedSources

	nodes map[string]*KGNode
	edges map[string]*KGEdge
}

// NewBuilder returns an empty Builder. curated may be nil, meaning no API
// is treated as a curated direct source.
func NewBuilder(curated CuratedSources) *Builder {
	return &Builder{
		curated: curated,
		nodes:   make(map[string]*KGNode),
		edges:   make(map[string]*KGEdge),
	}
}

// OnEdgeExecuted implements edgemanager.Observer: it is called once per
// executed execution edge with every record it returned, before any
// downstream pruning. This is intentional — the prune pass at the end
// removes unreferenced nodes/edges rather than the builder trying to guess
// which records will ultimately survive.
func (b *Builder) OnEdgeExecuted(edge *execplan.XEdge, records []*recordstore.Record) {
	for _, r := range records {
		b.upsertNode(r, recordstore.SideSubject, edge)
		b.upsertNode(r, recordstore.SideObject, edge)
		b.upsertEdge(r)
	}
}

func (b *Builder) upsertNode(r *recordstore.Record, side recordstore.Side, edge *execplan.XEdge) {
	endpoint := r.Subject
	categories := edge.Graph.Subject(edge.QEdge).Categories
	if side == recordstore.SideObject {
		endpoint = r.Object
		categories = edge.Graph.Object(edge.QEdge).Categories
	}
	curie := endpoint.PrimaryCurie()

	n, ok := b.nodes[curie]
	if !ok {
		n = &KGNode{
			PrimaryCurie:     curie,
			Categories:       categories,
			EquivalentCuries: make(map[string]struct{}),
			Names:            make(map[string]struct{}),
			SourceQNodeIDs:   make(map[string]struct{}),
			TargetQNodeIDs:   make(map[string]struct{}),
			Attributes:       make(map[string][]byte),
		}
		b.nodes[curie] = n
	}
	if endpoint.Normalized != nil {
		if n.Label == "" {
			n.Label = endpoint.Normalized.Label
		}
		if endpoint.Normalized.Label != "" {
			n.Names[endpoint.Normalized.Label] = struct{}{}
		}
		for _, eq := range endpoint.Normalized.EquivalentCuries {
			n.EquivalentCuries[eq] = struct{}{}
		}
	}

	if side == recordstore.SideSubject {
		n.SourceQNodeIDs[edge.Graph.Subject(edge.QEdge).ID] = struct{}{}
	} else {
		n.TargetQNodeIDs[edge.Graph.Object(edge.QEdge).ID] = struct{}{}
	}

	n.Attributes[r.API] = shapeForSource(b.curated, r.API, r.Attributes)
}

func (b *Builder) upsertEdge(r *recordstore.Record) {
	e, ok := b.edges[r.Hash]
	if !ok {
		e = &KGEdge{
			Hash:          r.Hash,
			Predicate:     r.Predicate,
			SubjectCurie:  r.Subject.PrimaryCurie(),
			ObjectCurie:   r.Object.PrimaryCurie(),
			Sources:       make(map[string]struct{}),
			InforesCuries: make(map[string]map[string]struct{}),
			Publications:  make(map[string]struct{}),
			Attributes:    make(map[string][]byte),
		}
		b.edges[r.Hash] = e
	}
	e.Sources[r.Source] = struct{}{}
	infores := inforesFor(r.API)
	roles, ok := e.InforesCuries[infores]
	if !ok {
		roles = make(map[string]struct{})
		e.InforesCuries[infores] = roles
	}
	for _, role := range sourceRoles(b.curated, r.API) {
		roles[role] = struct{}{}
	}
	for _, p := range r.Publications {
		e.Publications[p] = struct{}{}
	}
	e.Attributes[r.API] = shapeForSource(b.curated, r.API, r.Attributes)
}

// sourceRoles classifies one contributing API into the TRAPI retrieval-source
// roles spec.md §4.7 assigns it: a curated direct source is promoted to both
// "supporting_data_source" and "primary_knowledge_source"; a generic
// non-TRAPI source holds both "primary_knowledge_source" and
// "aggregator_knowledge_source"; a TRAPI-native source (r.API == "",
// attributes passed through untouched) holds the single default
// "primary_knowledge_source" role, there being no upstream aggregator to
// distinguish it from.
func sourceRoles(curated CuratedSources, api string) []string {
	if api == "" {
		return []string{"primary_knowledge_source"}
	}
	if _, ok := curated[api]; ok {
		return []string{"supporting_data_source", "primary_knowledge_source"}
	}
	return []string{"primary_knowledge_source", "aggregator_knowledge_source"}
}

// shapeForSource returns r's attribute bag, unchanged for a TRAPI-native
// source (attributes passed through as-is, r.API == ""), with the source's
// full role set injected for every other source per §4.7.
func shapeForSource(curated CuratedSources, api string, raw []byte) []byte {
	if api == "" {
		return raw
	}
	out, err := sjson.SetBytes(raw, "knowledge_source_roles", sourceRoles(curated, api))
	if err != nil {
		return raw
	}
	return out
}

func inforesFor(api string) string {
	if api == "" {
		return "infores:unknown"
	}
	return "infores:" + api
}

// Nodes returns every accumulated KGNode, sorted by curie for determinism.
func (b *Builder) Nodes() []*KGNode {
	out := make([]*KGNode, 0, len(b.nodes))
	for _, n := range b.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PrimaryCurie < out[j].PrimaryCurie })
	return out
}

// Edges returns every accumulated KGEdge, sorted by hash for determinism.
func (b *Builder) Edges() []*KGEdge {
	out := make([]*KGEdge, 0, len(b.edges))
	for _, e := range b.edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hash < out[j].Hash })
	return out
}

// Prune removes any node not in referencedCuries or edge not in
// referencedHashes — the engine calls this once the assembler has picked its
// final result set, so the emitted knowledge_graph only contains what the
// results actually reference (spec §4.7).
func (b *Builder) Prune(referencedCuries, referencedHashes map[string]struct{}) {
	for curie := range b.nodes {
		if _, ok := referencedCuries[curie]; !ok {
			delete(b.nodes, curie)
		}
	}
	for hash := range b.edges {
		if _, ok := referencedHashes[hash]; !ok {
			delete(b.edges, hash)
		}
	}
}
