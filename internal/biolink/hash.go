package biolink

import (
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// fieldSeparator delimits the identity-bearing field values before
// hashing. The character is not legal inside a curie or a
// biolink predicate, so collisions between differently-shaped inputs that
// happen to concatenate to the same string are not a practical concern.
const (
	fieldSeparator = "\x1f"
)

// FingerprintFields hashes an ordered list of field values into a stable,
// process-independent fingerprint (spec §3 invariant 3). Callers supply the
// values in the order the configured identity-bearing field list names
// them; this package does not know about Record shape.
func FingerprintFields(values []string) string {
	h := xxhash.New()
	for i, v := range values {
		if i > 0 {
			h.WriteString(fieldSeparator)
		}
		h.WriteString(v)
	}
	sum := h.Sum64()
	return formatHash(sum)
}

func formatHash(sum uint64) string {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		buf[i] = hexDigits[sum&0xf]
		sum >>= 4
	}
	return string(buf)
}

// SortedCanonical sorts a copy of vals and joins them, used to canonicalize
// sets (e.g. categories) before they are folded into a cache key or a
// fingerprint so that element order never changes the result (spec §8 key
// stability law).
func SortedCanonical(vals []string) string {
	cp := make([]string, len(vals))
	copy(cp, vals)
	sort.Strings(cp)
	return strings.Join(cp, fieldSeparator)
}
