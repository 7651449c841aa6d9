package resolve

// Index is a read-only projection of one candidate snapshot: the
// normalized first, last and full name of every candidate, positionally
// aligned with the input slice, plus reverse lookups from each
// normalized string to the positions of the candidates sharing it.
//
// An Index is built per resolution call and discarded afterwards. The
// backing store is assumed small enough that a full rescan per query is
// cheaper than maintaining an incremental index.
type Index struct {
	Firsts []string
	Lasts  []string
	Fulls  []string

	ByFirst map[string][]int
	ByLast  map[string][]int
	ByFull  map[string][]int
}

// BuildIndex projects the candidate slice into an Index. Duplicate
// normalized names keep one reverse-lookup entry per source candidate,
// in input order. The candidates themselves are not retained or
// mutated.
func BuildIndex[P any](candidates []Candidate[P]) *Index {
	n := len(candidates)
	idx := &Index{
		Firsts:  make([]string, n),
		Lasts:   make([]string, n),
		Fulls:   make([]string, n),
		ByFirst: make(map[string][]int, n),
		ByLast:  make(map[string][]int, n),
		ByFull:  make(map[string][]int, n),
	}

	for i, c := range candidates {
		first := Normalize(c.FirstName)
		last := Normalize(c.LastName)
		full := Normalize(c.FullName())

		idx.Firsts[i] = first
		idx.Lasts[i] = last
		idx.Fulls[i] = full

		idx.ByFirst[first] = append(idx.ByFirst[first], i)
		idx.ByLast[last] = append(idx.ByLast[last], i)
		idx.ByFull[full] = append(idx.ByFull[full], i)
	}

	return idx
}
