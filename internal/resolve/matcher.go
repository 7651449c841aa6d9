package resolve

import "strings"

// Buckets holds the five match tiers in priority order. The first four
// are filled by a single pass over the candidates where the first
// matching rule wins; the fuzzy tier is an independent pass over the
// name-projection pools, so a candidate may appear both in an exact or
// substring tier and in the fuzzy tier until Merge deduplicates.
type Buckets[P any] struct {
	ExactLast  []Candidate[P]
	ExactFirst []Candidate[P]
	ExactFull  []Candidate[P]
	Substring  []Candidate[P]
	Fuzzy      []Candidate[P]
}

// Match buckets every candidate against the normalized query.
//
// Per-candidate precedence (first hit wins, at most one of these four):
//  1. exact last name
//  2. exact first name
//  3. exact full name
//  4. symmetric substring: any non-empty projection contained in the
//     query, or the query contained in any non-empty projection
//
// Fuzzy pass, independent of the above: the closest matches to the
// query are taken from the full-name pool, then the last-name pool,
// then the first-name pool (at most MaxFuzzyMatches strings per pool at
// FuzzyCutoff), and every candidate sharing a matched string is
// appended in that order, descending similarity within each pool.
//
// Empty projections never match a non-empty query, so a candidate with
// both name fields empty is simply unmatchable. No match at all yields
// five empty buckets, never an error.
func Match[P any](queryNorm string, candidates []Candidate[P], idx *Index) Buckets[P] {
	var b Buckets[P]

	for i, c := range candidates {
		first, last, full := idx.Firsts[i], idx.Lasts[i], idx.Fulls[i]

		switch {
		case last != "" && last == queryNorm:
			b.ExactLast = append(b.ExactLast, c)
		case first != "" && first == queryNorm:
			b.ExactFirst = append(b.ExactFirst, c)
		case full != "" && full == queryNorm:
			b.ExactFull = append(b.ExactFull, c)
		case containsEither(queryNorm, last) ||
			containsEither(queryNorm, first) ||
			containsEither(queryNorm, full):
			b.Substring = append(b.Substring, c)
		}
	}

	pools := []struct {
		pool   []string
		lookup map[string][]int
	}{
		{idx.Fulls, idx.ByFull},
		{idx.Lasts, idx.ByLast},
		{idx.Firsts, idx.ByFirst},
	}
	for _, p := range pools {
		for _, hit := range ClosestMatches(queryNorm, p.pool, MaxFuzzyMatches, FuzzyCutoff) {
			for _, ci := range p.lookup[hit] {
				b.Fuzzy = append(b.Fuzzy, candidates[ci])
			}
		}
	}

	return b
}

// containsEither reports whether the non-empty name projection is a
// substring of the query or the query a substring of the projection.
func containsEither(query, name string) bool {
	if name == "" {
		return false
	}
	return strings.Contains(query, name) || strings.Contains(name, query)
}
