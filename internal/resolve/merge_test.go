package resolve

import "testing"

func TestMergePriorityOrder(t *testing.T) {
	t.Parallel()
	b := Buckets[struct{}]{
		ExactLast:  []Candidate[struct{}]{cand("last@hua.gr", "", "")},
		ExactFirst: []Candidate[struct{}]{cand("first@hua.gr", "", "")},
		ExactFull:  []Candidate[struct{}]{cand("full@hua.gr", "", "")},
		Substring:  []Candidate[struct{}]{cand("sub@hua.gr", "", "")},
		Fuzzy:      []Candidate[struct{}]{cand("fuzzy@hua.gr", "", "")},
	}

	got := ids(Merge(b))
	want := []string{"last@hua.gr", "first@hua.gr", "full@hua.gr", "sub@hua.gr", "fuzzy@hua.gr"}
	if !equalIDs(got, want) {
		t.Errorf("Merge = %v, want %v", got, want)
	}
}

func TestMergeDropsFuzzyDuplicate(t *testing.T) {
	t.Parallel()
	// A candidate that hit both the substring scan and the fuzzy pools
	// keeps only its higher-priority position.
	a := cand("a@hua.gr", "Μαρία", "Μελά")
	b := Buckets[struct{}]{
		Substring: []Candidate[struct{}]{a},
		Fuzzy:     []Candidate[struct{}]{a, cand("b@hua.gr", "", "Μελάς")},
	}

	got := ids(Merge(b))
	want := []string{"a@hua.gr", "b@hua.gr"}
	if !equalIDs(got, want) {
		t.Errorf("Merge = %v, want %v", got, want)
	}
}

func TestMergeIDCaseInsensitive(t *testing.T) {
	t.Parallel()
	b := Buckets[struct{}]{
		ExactLast: []Candidate[struct{}]{cand("A@HUA.GR", "", "Μελάς")},
		Fuzzy:     []Candidate[struct{}]{cand("a@hua.gr", "", "Μελάς")},
	}

	got := Merge(b)
	if len(got) != 1 {
		t.Fatalf("Merge kept %d entries, want 1", len(got))
	}
	// First occurrence wins, original casing intact.
	if got[0].ID != "A@HUA.GR" {
		t.Errorf("Merge kept ID %q, want %q", got[0].ID, "A@HUA.GR")
	}
}

func TestMergeKeepsFirstWithinBucket(t *testing.T) {
	t.Parallel()
	a := cand("a@hua.gr", "", "παπαδοπουλος")
	c := cand("b@hua.gr", "", "παπαδοπουλος")
	b := Buckets[struct{}]{
		// Shared names repeat candidates inside the fuzzy bucket itself.
		Fuzzy: []Candidate[struct{}]{a, c, a, c},
	}

	got := ids(Merge(b))
	want := []string{"a@hua.gr", "b@hua.gr"}
	if !equalIDs(got, want) {
		t.Errorf("Merge = %v, want %v", got, want)
	}
}

func TestMergeEmpty(t *testing.T) {
	t.Parallel()
	if got := Merge(Buckets[struct{}]{}); len(got) != 0 {
		t.Errorf("Merge of empty buckets = %v, want none", got)
	}
}

func TestMergePreservesPayload(t *testing.T) {
	t.Parallel()
	b := Buckets[int]{
		ExactLast: []Candidate[int]{{ID: "a@hua.gr", LastName: "Μελάς", Payload: 42}},
	}

	got := Merge(b)
	if len(got) != 1 || got[0].Payload != 42 {
		t.Errorf("Merge = %+v, want the payload carried through", got)
	}
}
