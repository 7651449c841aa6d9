package resolve

import "github.com/huahelper/hua-messengerbot-go/internal/sliceutil"

// Merge flattens the buckets in priority order — exact last, exact
// first, exact full, substring, fuzzy — and deduplicates by lower-cased
// candidate ID. The first (highest-priority) occurrence of an ID wins
// and relative order within a bucket is preserved.
func Merge[P any](b Buckets[P]) []Candidate[P] {
	total := len(b.ExactLast) + len(b.ExactFirst) + len(b.ExactFull) + len(b.Substring) + len(b.Fuzzy)
	flat := make([]Candidate[P], 0, total)
	flat = append(flat, b.ExactLast...)
	flat = append(flat, b.ExactFirst...)
	flat = append(flat, b.ExactFull...)
	flat = append(flat, b.Substring...)
	flat = append(flat, b.Fuzzy...)

	return sliceutil.Deduplicate(flat, Candidate[P].dedupKey)
}
