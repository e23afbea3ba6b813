package search

import (
	"container/heap"
	"math"
	"sort"
	"strings"
	"sync"
)

const scoreEpsilon = 1e-9

// compareMatches defines the total result order: score descending,
// then full relative path ascending. The path tie-break guarantees a
// reproducible ordering no matter how traversal goroutines interleave.
func compareMatches(a, b ScoredMatch) int {
	if math.Abs(a.Score-b.Score) > scoreEpsilon {
		if a.Score > b.Score {
			return -1
		}
		return 1
	}
	return strings.Compare(a.Entry.RelPath, b.Entry.RelPath)
}

type matchMinHeap []ScoredMatch

func (h matchMinHeap) Len() int           { return len(h) }
func (h matchMinHeap) Less(i, j int) bool { return compareMatches(h[i], h[j]) > 0 }
func (h matchMinHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *matchMinHeap) Push(x any) {
	*h = append(*h, x.(ScoredMatch))
}

func (h *matchMinHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// topCollector keeps the best max matches seen so far. Insertion is
// mutex-protected so scoring workers can feed it concurrently; already
// rejected candidates are never revisited. max <= 0 keeps everything.
type topCollector struct {
	mu      sync.Mutex
	max     int
	minH    matchMinHeap
	matched int
}

func newTopCollector(max int) *topCollector {
	return &topCollector{max: max}
}

// Add offers one scored match. It returns the number of matches
// accepted so far, which the engine uses for the single-result fast
// path.
func (tc *topCollector) Add(m ScoredMatch) int {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	tc.matched++

	if tc.max <= 0 || tc.minH.Len() < tc.max {
		heap.Push(&tc.minH, m)
		return tc.matched
	}

	if compareMatches(m, tc.minH[0]) < 0 {
		heap.Pop(&tc.minH)
		heap.Push(&tc.minH, m)
	}
	return tc.matched
}

// Matched returns how many candidates matched, kept or not.
func (tc *topCollector) Matched() int {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.matched
}

// Results returns the kept matches in final order and whether more
// candidates matched than were kept.
func (tc *topCollector) Results() ([]ScoredMatch, bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	out := make([]ScoredMatch, len(tc.minH))
	copy(out, tc.minH)
	sort.Slice(out, func(i, j int) bool {
		return compareMatches(out[i], out[j]) < 0
	})

	return out, tc.matched > len(out)
}
