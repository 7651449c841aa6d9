package resolve

import "strings"

// Candidate is one resolvable entity. The core reads only ID, FirstName
// and LastName; Payload is carried through untouched so callers can
// attach the full record and render it without re-querying.
//
// ID must be non-empty and unique across the candidate set. Two
// candidates whose IDs differ only by case are treated as the same
// entity during merging.
type Candidate[P any] struct {
	ID        string
	FirstName string
	LastName  string
	Payload   P
}

// dedupKey is the identity used to collapse repeated appearances of a
// candidate across match buckets.
func (c Candidate[P]) dedupKey() string {
	return strings.ToLower(c.ID)
}

// FullName joins the raw first and last name with a single space,
// trimmed. Empty when both parts are empty.
func (c Candidate[P]) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
