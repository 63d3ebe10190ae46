package biolink

// isoformExpansions lists categories that, when present alone, imply a
// broader category most downstream APIs key their lookups on. The query
// graph translator (internal/querygraph) calls NormalizeCategories while
// ingesting a QNode so that a node declared only "Protein" still matches
// gene-level MetaKG operations.
var isoformExpansions = map[string]string{
	"biolink:Protein": "biolink:Gene",
}

// NormalizeCategories returns cats with any implied broader categories
// appended, without disturbing the caller's slice. Order is preserved for
// the originals; additions are appended in a stable (map-iteration-free)
// order by walking cats itself.
func NormalizeCategories(cats []string) []string {
	if len(cats) == 0 {
		return cats
	}
	present := make(map[string]bool, len(cats)*2)
	out := make([]string, 0, len(cats)+1)
	for _, c := range cats {
		if !present[c] {
			present[c] = true
			out = append(out, c)
		}
	}
	for _, c := range cats {
		if implied, ok := isoformExpansions[c]; ok && !present[implied] {
			present[implied] = true
			out = append(out, implied)
		}
	}
	return out
}
