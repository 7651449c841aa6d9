package resolve

import (
	"slices"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

const (
	// FuzzyCutoff is the minimum similarity ratio for a fuzzy hit.
	// Part of the resolution contract; 0.85 is inclusive.
	FuzzyCutoff = 0.85

	// MaxFuzzyMatches caps how many strings the closest-match search
	// keeps per name-projection pool.
	MaxFuzzyMatches = 5
)

// Ratio returns a similarity score in [0, 1] between two strings:
// 1 − levenshtein(a, b) / max(len(a), len(b)), counted in runes so
// multi-byte Greek letters weigh the same as ASCII. Two empty strings
// are identical (1.0).
func Ratio(a, b string) float64 {
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(maxLen)
}

// ClosestMatches returns the pool entries most similar to query, best
// first: every entry with Ratio >= cutoff, sorted by descending
// similarity and truncated to at most n results. The sort is stable, so
// entries with equal scores keep their pool order — ties break by
// original candidate order, which keeps resolution deterministic.
//
// Duplicate pool entries are scored and returned independently, each
// consuming one of the n slots.
func ClosestMatches(query string, pool []string, n int, cutoff float64) []string {
	if n <= 0 || len(pool) == 0 {
		return nil
	}

	type scored struct {
		s     string
		ratio float64
	}

	hits := make([]scored, 0, len(pool))
	for _, s := range pool {
		if r := Ratio(query, s); r >= cutoff {
			hits = append(hits, scored{s: s, ratio: r})
		}
	}
	if len(hits) == 0 {
		return nil
	}

	slices.SortStableFunc(hits, func(a, b scored) int {
		switch {
		case a.ratio > b.ratio:
			return -1
		case a.ratio < b.ratio:
			return 1
		default:
			return 0
		}
	})

	if len(hits) > n {
		hits = hits[:n]
	}

	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.s
	}
	return out
}
