package edgemanager

import (
	"github.com/biograph/trapi-engine/internal/execplan"
	"github.com/biograph/trapi-engine/internal/recordstore"
)

// Observer is notified synchronously whenever an execution edge finishes
// storing its records, before propagation runs against it. The
// knowledge-graph builder registers itself this way (spec.md §4.7, §9
// "subscription from KG builder to edge store").
type Observer interface {
	OnEdgeExecuted(edge *execplan.XEdge, records []*recordstore.Record)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(edge *execplan.XEdge, records []*recordstore.Record)

func (f ObserverFunc) OnEdgeExecuted(edge *execplan.XEdge, records []*recordstore.Record) {
	f(edge, records)
}

// OperationCounter proxies cardinality for a not-yet-executed edge by
// counting matching MetaKG operations (spec §4.2: "when only category
// information is available, the manager uses the count of matching MetaKG
// operations as a proxy"). It is the one place the edge manager reaches
// across the MetaKG boundary, and it is optional: a nil counter simply
// leaves every edge whose entity_count product is Infinite tied at Infinite.
type OperationCounter interface {
	CountOperations(subjectCategories, predicates, objectCategories []string) int
}
