package query

import "time"

// Mode selects how the match engine compares the query text against a
// candidate target.
type Mode int

const (
	// ModeFuzzy matches the text as an ordered subsequence with gaps.
	ModeFuzzy Mode = iota
	// ModeExact requires a contiguous case-insensitive substring.
	ModeExact
)

// Scope restricts which entry kinds reach the scorer.
type Scope int

const (
	ScopeAny Scope = iota
	ScopeDirectoriesOnly
)

// Output selects the formatter the one-shot command renders with.
type Output int

const (
	OutputList Output = iota
	OutputJSON
	OutputCompact
)

// Query is one parsed search request. It is built once per invocation
// and never mutated afterwards.
type Query struct {
	Text          string
	Mode          Mode
	Scope         Scope
	BaseDir       string
	Limit         int // 0 = unbounded
	Timeout       time.Duration
	IncludeHidden bool
	Output        Output
}

// MatchesPath reports whether matching should run against the full
// relative path instead of the entry name. Text containing a path
// separator switches scope to the path.
func (q Query) MatchesPath() bool {
	for i := 0; i < len(q.Text); i++ {
		if q.Text[i] == '/' {
			return true
		}
	}
	return false
}

// Defaults carries per-call default Query field values, typically
// supplied by the config loader. Modifiers in the raw query override
// them.
type Defaults struct {
	BaseDir       string
	Limit         int
	Timeout       time.Duration
	IncludeHidden bool
}
