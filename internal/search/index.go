// Package search provides keyword search over the course catalog using
// the BM25 ranking function. The course module uses it for free-text
// queries ("βρες βάσεις δεδομένων") that a code or name lookup cannot
// answer.
package search

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	bm25 "github.com/iwilltry42/bm25-go/bm25"

	"github.com/huahelper/hua-messengerbot-go/internal/logger"
	"github.com/huahelper/hua-messengerbot-go/internal/resolve"
	"github.com/huahelper/hua-messengerbot-go/internal/storage"
)

// Standard BM25 parameters.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// Result is one ranked course hit.
type Result struct {
	Course     storage.Course
	Score      float64 // raw BM25 score, query-dependent
	Rank       int     // 1-indexed position
	Confidence float64 // rank-based confidence (0-1)
}

// CourseIndex ranks courses against free-text queries. Rebuild swaps
// the whole index; BM25 needs the full corpus for IDF, so there is no
// incremental update.
type CourseIndex struct {
	mu          sync.RWMutex
	okapi       *bm25.BM25Okapi
	courses     []storage.Course
	logger      *logger.Logger
	initialized bool
}

// NewCourseIndex creates an empty index. It stays disabled until the
// first Rebuild, and a nil index is safe to search.
func NewCourseIndex(log *logger.Logger) *CourseIndex {
	return &CourseIndex{logger: log}
}

// Rebuild replaces the index contents with the given catalog snapshot.
// Courses whose searchable text tokenizes to nothing are dropped.
func (idx *CourseIndex) Rebuild(courses []storage.Course) error {
	if idx == nil {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	var corpus []string
	var kept []storage.Course
	for _, c := range courses {
		doc := courseDocument(c)
		if len(Tokenize(doc)) == 0 {
			continue
		}
		corpus = append(corpus, doc)
		kept = append(kept, c)
	}

	if len(corpus) == 0 {
		idx.okapi = nil
		idx.courses = nil
		idx.initialized = true
		return nil
	}

	okapi, err := bm25.NewBM25Okapi(corpus, Tokenize, bm25K1, bm25B, nil)
	if err != nil {
		return fmt.Errorf("search: failed to build course index: %w", err)
	}

	idx.okapi = okapi
	idx.courses = kept
	idx.initialized = true

	idx.logger.WithModule("search").WithField("docs", len(corpus)).Infof("Course index rebuilt")
	return nil
}

// Search ranks the catalog against the query and returns at most topN
// positive-scoring hits, best first. A disabled or empty index returns
// nothing.
func (idx *CourseIndex) Search(query string, topN int) ([]Result, error) {
	if idx == nil {
		return nil, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if !idx.initialized || idx.okapi == nil {
		return nil, nil
	}

	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	scores, err := idx.okapi.GetScores(tokens)
	if err != nil {
		return nil, fmt.Errorf("search: scoring failed: %w", err)
	}

	results := make([]Result, 0, len(scores))
	for i, score := range scores {
		if score <= 0 || i >= len(idx.courses) {
			continue
		}
		results = append(results, Result{Course: idx.courses[i], Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	for i := range results {
		results[i].Rank = i + 1
		results[i].Confidence = rankConfidence(i + 1)
	}
	return results, nil
}

// IsEnabled reports whether the index has been built.
func (idx *CourseIndex) IsEnabled() bool {
	if idx == nil {
		return false
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.initialized && idx.okapi != nil
}

// Count returns the number of indexed courses.
func (idx *CourseIndex) Count() int {
	if idx == nil {
		return 0
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.courses)
}

// courseDocument flattens the searchable fields of a course into one
// document.
func courseDocument(c storage.Course) string {
	parts := []string{c.CourseCode, c.CourseName, c.Type, c.Professor1, c.Professor2}
	return strings.Join(parts, " ")
}

// Tokenize lowercases, folds Greek accents and splits on anything that
// is not a letter or digit. Greek separates words with spaces, so plain
// word tokens are enough.
func Tokenize(text string) []string {
	norm := resolve.Normalize(text)
	return strings.FieldsFunc(norm, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// rankConfidence maps a rank position to a 0-1 confidence. BM25 scores
// are unbounded and query-dependent, so rank is the usable proxy:
// rank 1 → 0.95, rank 5 → 0.80, rank 10 → 0.67.
func rankConfidence(rank int) float64 {
	if rank <= 0 {
		return 0
	}
	return 1.0 / (1.0 + 0.05*float64(rank))
}
