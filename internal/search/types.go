package search

import (
	fsutil "github.com/kk-code-lab/ffind/internal/fs"
)

// MatchSpan is one highlighted run of matched runes within the match
// target. Start is a rune index, Len a rune count. Spans exist for
// highlighting in the consuming UI and carry no ranking weight.
type MatchSpan struct {
	Start int
	Len   int
}

// ScoredMatch pairs one traversal entry with its match score and the
// spans the query landed on.
type ScoredMatch struct {
	Entry fsutil.Entry
	Score float64
	Spans []MatchSpan
}

// ResultSet is the ordered outcome of one search call: at most Limit
// matches, best first. Truncated reports that more matching candidates
// were seen than kept; TimedOut reports that the wall-clock budget
// expired before the traversal finished.
type ResultSet struct {
	Matches   []ScoredMatch
	Truncated bool
	TimedOut  bool
}

// Empty reports whether the search produced no matches at all.
func (rs ResultSet) Empty() bool {
	return len(rs.Matches) == 0
}
