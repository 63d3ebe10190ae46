// Package recordstore defines Record, the unit exchanged with downstream
// APIs (spec.md §3), and Store, the per-execution-edge container the edge
// manager prunes during constraint propagation (spec.md §4.3).
package recordstore

import (
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/biograph/trapi-engine/internal/biolink"
)

// Record is one (subject, predicate, object) observation an API returned,
// with provenance. Attributes is raw, schema-less JSON (spec §9 "dynamic
// record shape"): each source API attaches whatever fields it wants, and
// gjson reads named ones on demand rather than forcing every possible
// attribute into a Go struct field. Hash is filled in by ComputeHash once
// the engine's configured identity-bearing field list is known.
type Record struct {
	Subject      biolink.EndpointInfo `json:"subject"`
	Object       biolink.EndpointInfo `json:"object"`
	Predicate    string               `json:"predicate"`
	API          string               `json:"api"`
	Source       string               `json:"source"`
	Publications []string             `json:"publications,omitempty"`
	Attributes   json.RawMessage      `json:"attributes,omitempty"`
	Hash         string               `json:"hash"`

	// TrapiQEdgeID back-references the original QEdge this record answers.
	// The cache round-trip law (spec §8) only requires restoring this field
	// on decode; it is dropped before encoding to keep cached payloads
	// edge-agnostic and therefore shareable across queries.
	TrapiQEdgeID string `json:"-"`
}

// Side names which endpoint of a Record a curie lookup refers to.
type Side int

const (
	SideSubject Side = iota
	SideObject
)

// CurieAt returns the primary curie on the requested side of a record.
func CurieAt(r *Record, side Side) string {
	if side == SideSubject {
		return r.Subject.PrimaryCurie()
	}
	return r.Object.PrimaryCurie()
}

// CurieSet collects the distinct curies on one side of a record slice.
func CurieSet(records []*Record, side Side) map[string]struct{} {
	set := make(map[string]struct{}, len(records))
	for _, r := range records {
		set[CurieAt(r, side)] = struct{}{}
	}
	return set
}

// FieldValue extracts a named field for fingerprinting. The configured
// identity-bearing field list (internal/config) names fields this way;
// anything not recognized as a core field falls back to the attribute map.
func (r *Record) FieldValue(name string) string {
	switch name {
	case "subject":
		return r.Subject.PrimaryCurie()
	case "object":
		return r.Object.PrimaryCurie()
	case "predicate":
		return r.Predicate
	case "api":
		return r.API
	case "source":
		return r.Source
	default:
		if len(r.Attributes) == 0 {
			return ""
		}
		result := gjson.GetBytes(r.Attributes, name)
		if !result.Exists() {
			return ""
		}
		return result.String()
	}
}

// Attribute extracts a single named attribute from the raw bag without
// requiring the caller to unmarshal the whole thing.
func (r *Record) Attribute(name string) (string, bool) {
	if len(r.Attributes) == 0 {
		return "", false
	}
	result := gjson.GetBytes(r.Attributes, name)
	return result.String(), result.Exists()
}

// ComputeHash fills in r.Hash using the configured identity-bearing field
// list (spec §3 invariant 3: stable across processes for the same values).
func (r *Record) ComputeHash(identityFields []string) {
	vals := make([]string, len(identityFields))
	for i, f := range identityFields {
		vals[i] = r.FieldValue(f)
	}
	r.Hash = biolink.FingerprintFields(vals)
}
