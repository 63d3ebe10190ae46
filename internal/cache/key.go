package cache

import (
	"strconv"

	"github.com/biograph/trapi-engine/internal/biolink"
)

// KeyInput names every field the composite cache key is computed over
// (spec.md §4.5, §8 key-stability law). Order within each slice must not
// affect the resulting key; Key sorts everything before hashing.
type KeyInput struct {
	SubjectCategories []string
	Predicates        []string
	ObjectCategories  []string
	InputCuries       []string
	OperationCount    int
	OperationIDs      []string
}

// Key computes the composite fingerprint identifying one execution edge's
// cacheable record set. Two KeyInputs that differ only in slice order
// produce the same key; any other difference, including a change in the
// universe of MetaKG operations, produces a different one.
func Key(in KeyInput) string {
	return biolink.FingerprintFields([]string{
		biolink.SortedCanonical(in.SubjectCategories),
		biolink.SortedCanonical(in.Predicates),
		biolink.SortedCanonical(in.ObjectCategories),
		biolink.SortedCanonical(in.InputCuries),
		strconv.Itoa(in.OperationCount),
		biolink.SortedCanonical(in.OperationIDs),
	})
}
