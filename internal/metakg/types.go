// Package metakg defines the MetaKG catalog boundary spec.md §6 describes —
// "a list of available (input-type, predicate, output-type) operations
// across known APIs" — plus a Neo4j-backed reference adapter.
package metakg

import "context"

// Operation is one registered (subject-category, predicate, object-category)
// capability an API exposes, per spec.md §6: "Each operation exposes an
// association with input_type, output_type, predicate, api_name, and an
// owning smartapi.id."
type Operation struct {
	ID         string
	InputType  string
	OutputType string
	Predicate  string
	APIName    string
	SmartAPIID string
}

// Catalog lists MetaKG operations matching an execution edge's endpoint
// categories and predicate list. The edge manager uses operation counts as
// a cardinality proxy (§4.2) when no curie-derived entity_count is
// available yet; internal/fetch uses the operation list itself to expand an
// execution edge into concrete per-API calls (§4.4).
type Catalog interface {
	Operations(ctx context.Context, subjectCategories, predicates, objectCategories []string) ([]Operation, error)
}

// IDs extracts the operation identifiers from a slice, in the order given,
// for folding into the cache key (spec §4.5: "the concatenation of all
// MetaKG API identifiers").
func IDs(ops []Operation) []string {
	ids := make([]string, len(ops))
	for i, op := range ops {
		ids[i] = op.ID
	}
	return ids
}
