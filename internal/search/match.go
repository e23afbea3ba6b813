package search

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FuzzyMatcher scores how well a query lands on a candidate target.
// Algorithm: subsequence match in the fzf/sublime family.
// Scoring rewards, in combination:
//   - consecutive matched runes (compounding run bonus)
//   - matches on a word boundary (start of target, after / \ - _ . : or
//     space, lower->upper transitions)
//   - contiguous substring and exact-prefix occurrences
//   - matches inside the final path segment
//
// and penalizes gaps, matches that start deep inside the target, runs
// that cross path segments, and unmatched trailing length (so a short
// name matching fully outranks a long path matching the same
// subsequence).
type FuzzyMatcher struct {
	charBonus           float64
	consecutiveBonus    float64
	wordBoundaryBonus   float64
	gapPenalty          float64
	substringBonus      float64
	prefixBonus         float64
	finalSegmentBonus   float64
	leadingPenalty      float64
	trailingPenalty     float64
	crossSegmentPenalty float64
}

// NewFuzzyMatcher creates a fuzzy matcher with default weights. The
// exact values are tunable; ranking depends only on their relative
// ordering.
func NewFuzzyMatcher() *FuzzyMatcher {
	return &FuzzyMatcher{
		charBonus:           1.2,
		consecutiveBonus:    1.2,
		wordBoundaryBonus:   0.6,
		gapPenalty:          0.18,
		substringBonus:      1.2,
		prefixBonus:         2.4,
		finalSegmentBonus:   2.0,
		leadingPenalty:      0.015,
		trailingPenalty:     0.01,
		crossSegmentPenalty: 0.9,
	}
}

// Match scores pattern against text, case-insensitively. It returns
// the score, the highlight spans in rune indexes, and whether all
// pattern runes were found in order. A false result excludes the
// candidate entirely.
func (fm *FuzzyMatcher) Match(pattern, text string) (float64, []MatchSpan, bool) {
	patternRunes := foldRunes(pattern)
	textRunes := foldRunes(text)
	if len(patternRunes) == 0 || len(textRunes) == 0 || len(patternRunes) > len(textRunes) {
		return 0, nil, false
	}
	// Boundary detection needs the original casing: folding erases the
	// lower->upper transitions. Folding is rune-for-rune, so indexes
	// line up between the two slices.
	rawText := []rune(text)

	var score float64
	var positions []int

	substringIdx := indexRunes(textRunes, patternRunes)
	if substringIdx >= 0 {
		score = fm.contiguousScore(patternRunes, textRunes, rawText, substringIdx)
		positions = contiguousPositions(substringIdx, len(patternRunes))
	} else {
		var ok bool
		score, positions, ok = fm.matchDP(patternRunes, textRunes, rawText)
		if !ok {
			return 0, nil, false
		}
	}

	score += fm.placementAdjustment(textRunes, positions, substringIdx)

	return score, spansFromPositions(positions), true
}

// contiguousScore scores a contiguous occurrence of the pattern
// starting at start. raw carries the unfolded text for boundary
// detection.
func (fm *FuzzyMatcher) contiguousScore(pattern, text, raw []rune, start int) float64 {
	score := 0.0
	for i := range pattern {
		idx := start + i
		charScore := fm.charBonus
		if isWordBoundary(raw, idx) {
			charScore += fm.wordBoundaryBonus
		}
		if i > 0 {
			charScore += fm.consecutiveBonus
		}
		score += charScore
	}

	bonus := fm.substringBonus
	if start > 0 {
		switch text[start-1] {
		case '/', '\\':
			// full bonus after a path separator
		case '-', '_', ' ', '.', ':':
			bonus *= 0.3
		default:
			bonus *= 0.15
		}
	}
	score += bonus
	if start == 0 {
		score += fm.prefixBonus
	}
	return score
}

// matchDP finds the best-scoring ordered placement of the pattern
// runes within the text. dpPrev[j] holds the best score for the first
// i pattern runes with rune i landing exactly on text[j].
func (fm *FuzzyMatcher) matchDP(pattern, text, raw []rune) (float64, []int, bool) {
	m, n := len(pattern), len(text)
	negInf := math.Inf(-1)

	dpPrev := make([]float64, n)
	dpCurr := make([]float64, n)
	backtrack := make([]int, m*n)

	any := false
	for j := 0; j < n; j++ {
		dpPrev[j] = negInf
		if n-j < m || pattern[0] != text[j] {
			continue
		}
		score := fm.charBonus
		if isWordBoundary(raw, j) {
			score += fm.wordBoundaryBonus
		}
		dpPrev[j] = score
		any = true
	}
	if !any {
		return 0, nil, false
	}

	for i := 1; i < m; i++ {
		bestPrev := negInf
		bestIdx := -1
		rowMatched := false
		for j := 0; j < n; j++ {
			dpCurr[j] = negInf
			// Carry the best reachable predecessor forward, decaying
			// it by the gap penalty per skipped rune.
			if bestIdx != -1 && bestPrev > negInf/2 {
				bestPrev -= fm.gapPenalty
			}
			if j > 0 && dpPrev[j-1] > bestPrev {
				bestPrev = dpPrev[j-1]
				bestIdx = j - 1
			}
			if pattern[i] != text[j] || n-j < m-i {
				continue
			}

			charScore := fm.charBonus
			if isWordBoundary(raw, j) {
				charScore += fm.wordBoundaryBonus
			}

			best := negInf
			prev := -1
			if bestIdx != -1 && bestPrev > negInf/2 {
				best = bestPrev + charScore
				if bestIdx == j-1 {
					best += fm.consecutiveBonus
				}
				prev = bestIdx
			}
			if j > 0 && dpPrev[j-1] > negInf/2 {
				cand := dpPrev[j-1] + charScore + fm.consecutiveBonus
				if cand > best {
					best = cand
					prev = j - 1
				}
			}
			if prev == -1 {
				continue
			}
			dpCurr[j] = best
			backtrack[i*n+j] = prev + 1 // 0 means unset
			rowMatched = true
		}
		if !rowMatched {
			return 0, nil, false
		}
		dpPrev, dpCurr = dpCurr, dpPrev
	}

	bestEnd := -1
	bestScore := negInf
	for j, v := range dpPrev {
		if v > bestScore {
			bestScore = v
			bestEnd = j
		}
	}
	if bestEnd == -1 || bestScore <= negInf/2 {
		return 0, nil, false
	}

	positions := make([]int, m)
	k := bestEnd
	for i := m - 1; i >= 0; i-- {
		positions[i] = k
		if i > 0 {
			k = backtrack[i*n+k] - 1
			if k < 0 {
				return 0, nil, false
			}
		}
	}

	return bestScore, positions, true
}

// placementAdjustment applies the target-shape bonuses and penalties
// shared by the contiguous and DP paths.
func (fm *FuzzyMatcher) placementAdjustment(text []rune, positions []int, substringIdx int) float64 {
	if len(positions) == 0 {
		return 0
	}
	start := positions[0]
	end := positions[len(positions)-1]

	adj := 0.0
	adj -= fm.leadingPenalty * float64(start)
	adj -= fm.trailingPenalty * float64(len(text)-end-1)

	crossed := 0
	for i := start + 1; i <= end; i++ {
		if text[i] == '/' {
			crossed++
		}
	}
	adj -= fm.crossSegmentPenalty * float64(crossed)

	lastSlash := -1
	for i, r := range text {
		if r == '/' {
			lastSlash = i
		}
	}
	if lastSlash == -1 || start > lastSlash || (substringIdx != -1 && substringIdx > lastSlash) {
		adj += fm.finalSegmentBonus
	}

	return adj
}

// exactBaseScore dominates every achievable fuzzy score so exact-mode
// matches form their own band; the length term breaks ties toward
// shorter, more specific targets.
const exactBaseScore = 1 << 12

// ExactMatch reports whether pattern occurs as a contiguous
// case-insensitive substring of text, with a score that prefers shorter
// targets and a single highlight span over the occurrence.
func ExactMatch(pattern, text string) (float64, []MatchSpan, bool) {
	if pattern == "" {
		return 0, nil, false
	}
	patternRunes := foldRunes(pattern)
	textRunes := foldRunes(text)
	idx := indexRunes(textRunes, patternRunes)
	if idx < 0 {
		return 0, nil, false
	}
	score := exactBaseScore - 0.01*float64(len(textRunes))
	return score, []MatchSpan{{Start: idx, Len: len(patternRunes)}}, true
}

func contiguousPositions(start, count int) []int {
	positions := make([]int, count)
	for i := range positions {
		positions[i] = start + i
	}
	return positions
}

func spansFromPositions(positions []int) []MatchSpan {
	if len(positions) == 0 {
		return nil
	}
	spans := make([]MatchSpan, 0, 1)
	runStart := positions[0]
	runLen := 1
	for _, p := range positions[1:] {
		if p == runStart+runLen {
			runLen++
			continue
		}
		spans = append(spans, MatchSpan{Start: runStart, Len: runLen})
		runStart = p
		runLen = 1
	}
	spans = append(spans, MatchSpan{Start: runStart, Len: runLen})
	return spans
}

func foldRunes(s string) []rune {
	runes := make([]rune, 0, utf8.RuneCountInString(s))
	for _, r := range s {
		runes = append(runes, unicode.ToLower(r))
	}
	return runes
}

func isWordBoundary(text []rune, idx int) bool {
	if idx == 0 {
		return true
	}
	prev := text[idx-1]
	curr := text[idx]
	switch prev {
	case '/', '\\', '-', '_', ' ', '.', ':':
		return true
	}
	if !isLetter(prev) && isLetter(curr) {
		return true
	}
	return unicode.IsLower(prev) && unicode.IsUpper(curr)
}

func isLetter(r rune) bool {
	if r <= unicode.MaxASCII {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
	}
	return unicode.IsLetter(r)
}

func indexRunes(haystack, needle []rune) int {
	if len(needle) == 0 {
		return 0
	}
	if len(needle) > len(haystack) {
		return -1
	}
	if runesAreASCII(haystack) && runesAreASCII(needle) {
		idx := strings.Index(string(haystack), string(needle))
		if idx < 0 {
			return -1
		}
		return idx
	}
outer:
	for i := 0; i <= len(haystack)-len(needle); i++ {
		if haystack[i] != needle[0] {
			continue
		}
		for j := 1; j < len(needle); j++ {
			if haystack[i+j] != needle[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}

func runesAreASCII(rs []rune) bool {
	for _, r := range rs {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}
