package resolve

import (
	"reflect"
	"testing"
)

func TestRatio(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{"Identical", "παπαδοπουλος", "παπαδοπουλος", 1.0},
		{"Both empty", "", "", 1.0},
		{"One empty", "μαρια", "", 0.0},
		{"Single substitution", "μελας", "μελα", 0.8}, // dist 1 over 5 runes
		{"Disjoint same length", "αβγδ", "εζηθ", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Ratio(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("Ratio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestRatioSymmetric(t *testing.T) {
	t.Parallel()
	a, b := "βαρλαμης", "βαρλαμη"
	if Ratio(a, b) != Ratio(b, a) {
		t.Errorf("Ratio not symmetric: Ratio(%q,%q)=%v, Ratio(%q,%q)=%v",
			a, b, Ratio(a, b), b, a, Ratio(b, a))
	}
}

// Rune counting, not byte counting: a one-letter edit on an 8-letter
// Greek name must score 7/8, even though the strings differ by two
// bytes in UTF-8.
func TestRatioCountsRunes(t *testing.T) {
	t.Parallel()
	got := Ratio("βαρλαμης", "βαρλαμησ") // final ς vs σ, 8 runes, dist 1
	want := 1.0 - 1.0/8.0
	if got != want {
		t.Errorf("Ratio() = %v, want %v", got, want)
	}
}

func TestRatioCutoffBoundary(t *testing.T) {
	t.Parallel()

	// 20 runes, 3 substitutions: ratio is exactly 1 - 3/20 = 0.85,
	// which must clear the inclusive cutoff.
	q20 := "αβγδεζηθικλμνξοπρστυ"
	at85 := "αβγδεζηθικλμνξοπρφχψ"
	if got := Ratio(q20, at85); got < FuzzyCutoff {
		t.Errorf("Ratio at the 0.85 boundary = %v, want >= %v", got, FuzzyCutoff)
	}

	// 25 runes, 4 substitutions: ratio 0.84, below the cutoff.
	q25 := "ααβγδεζηθικλμνξοπρστυφχψω"
	at84 := "ααβγδεζηθικλμνξοπρστυwxyz"
	if got := Ratio(q25, at84); got >= FuzzyCutoff {
		t.Errorf("Ratio below the boundary = %v, want < %v", got, FuzzyCutoff)
	}
}

func TestClosestMatches(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		query  string
		pool   []string
		n      int
		cutoff float64
		want   []string
	}{
		{
			name:   "Empty pool",
			query:  "μαρια",
			pool:   nil,
			n:      5,
			cutoff: 0.85,
			want:   nil,
		},
		{
			name:   "Zero n",
			query:  "μαρια",
			pool:   []string{"μαρια"},
			n:      0,
			cutoff: 0.85,
			want:   nil,
		},
		{
			name:   "Nothing clears cutoff",
			query:  "γιωργος",
			pool:   []string{"μαρια", "ελενη"},
			n:      5,
			cutoff: 0.85,
			want:   nil,
		},
		{
			name:   "Best first",
			query:  "παπαδοπουλος",
			pool:   []string{"παπαδοπουλου", "παπαδοπουλος"},
			n:      5,
			cutoff: 0.85,
			want:   []string{"παπαδοπουλος", "παπαδοπουλου"},
		},
		{
			name:   "Empty pool entries never match",
			query:  "μαρια",
			pool:   []string{"", "μαρια", ""},
			n:      5,
			cutoff: 0.85,
			want:   []string{"μαρια"},
		},
		{
			name:   "Equal scores keep pool order",
			query:  "μελας",
			pool:   []string{"μελασ", "μελαx", "μελας"},
			n:      5,
			cutoff: 0.8,
			want:   []string{"μελας", "μελασ", "μελαx"},
		},
		{
			name:   "Duplicates consume slots",
			query:  "μελας",
			pool:   []string{"μελας", "μελας", "μελας"},
			n:      2,
			cutoff: 0.85,
			want:   []string{"μελας", "μελας"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ClosestMatches(tt.query, tt.pool, tt.n, tt.cutoff)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ClosestMatches(%q, %v, %d, %v) = %v, want %v",
					tt.query, tt.pool, tt.n, tt.cutoff, got, tt.want)
			}
		})
	}
}

func TestClosestMatchesCap(t *testing.T) {
	t.Parallel()
	pool := []string{"μελας", "μελασ", "μελαδ", "μελαζ", "μελαη", "μελαθ"}
	got := ClosestMatches("μελας", pool, 5, 0.8)
	if len(got) != 5 {
		t.Fatalf("ClosestMatches() returned %d results, want 5", len(got))
	}
	if got[0] != "μελας" {
		t.Errorf("ClosestMatches()[0] = %q, want the exact string first", got[0])
	}
}

func BenchmarkClosestMatches(b *testing.B) {
	pool := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		pool = append(pool, "παπαδοπουλος")
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ClosestMatches("παπαδοπουλου", pool, 5, 0.85)
	}
}
