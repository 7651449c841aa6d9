// Package resolve implements the entity resolution engine behind every
// name lookup the bot answers: it takes an accent- and case-noisy user
// string plus a snapshot of candidate records and produces a
// deterministically ordered, deduplicated list of best matches.
//
// Matching is tiered — exact last name, exact first name, exact full
// name, symmetric substring, then fuzzy similarity — and every tier
// compares Normalize()d text, so "ΒΑΡΛΑΜΗ", "βαρλάμη" and "Βαρλαμη"
// all hit the same records.
//
// The engine is a pure library: it performs no I/O, keeps no state
// between calls and builds its per-call index from whatever snapshot
// the caller supplies, so concurrent calls need no coordination.
package resolve

import "strings"

// Resolve matches the raw query against the candidate snapshot and
// returns the merged, deduplicated result list, best matches first.
//
// A query that is empty after trimming returns nil without building an
// index: there is nothing to rank and a zero-length fuzzy query has no
// meaningful similarity. Candidates are passed through with their
// payloads untouched.
func Resolve[P any](query string, candidates []Candidate[P]) []Candidate[P] {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	queryNorm := Normalize(query)
	idx := BuildIndex(candidates)
	buckets := Match(queryNorm, candidates, idx)
	return Merge(buckets)
}

// ResolveAll fetches the candidate snapshot through the supplied
// accessor and resolves against it. A fetch error is returned to the
// caller unchanged — no wrapping, no retry — so the caller's own policy
// decides between a fallback message and a hard failure. Resolution
// never partially succeeds.
func ResolveAll[P any](query string, fetch func() ([]Candidate[P], error)) ([]Candidate[P], error) {
	candidates, err := fetch()
	if err != nil {
		return nil, err
	}
	return Resolve(query, candidates), nil
}
