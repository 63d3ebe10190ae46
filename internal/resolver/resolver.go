// Package resolver defines the identifier-resolution boundary spec.md §6
// describes — "given a list of curies, returns per-curie normalized info"
// — plus two reference adapters: an HTTP-based one for a live resolution
// service, and an embedded SQLite one for local/offline use.
package resolver

import (
	"context"

	"github.com/biograph/trapi-engine/internal/biolink"
)

// Resolver canonicalizes a batch of curies into normalized info (primary
// curie, label, equivalent set). Curies the resolver has never seen are
// simply absent from the returned map; that is not an error.
type Resolver interface {
	Resolve(ctx context.Context, curies []string) (map[string]biolink.EquivalentInfo, error)
}

// chunk splits items into batches of at most size, preserving order.
func chunk(items []string, size int) [][]string {
	if size <= 0 {
		size = len(items)
		if size == 0 {
			size = 1
		}
	}
	var batches [][]string
	for len(items) > 0 {
		if len(items) < size {
			size = len(items)
		}
		batches = append(batches, items[:size])
		items = items[size:]
	}
	return batches
}
