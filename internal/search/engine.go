package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	fsutil "github.com/kk-code-lab/ffind/internal/fs"
	"github.com/kk-code-lab/ffind/internal/query"
)

// Searcher turns a parsed query into a ranked ResultSet. It holds no
// per-call state, so one Searcher serves any number of concurrent
// searches.
type Searcher struct {
	matcher *FuzzyMatcher
	workers int
}

// NewSearcher creates a searcher with the default matcher weights.
func NewSearcher() *Searcher {
	return &Searcher{matcher: NewFuzzyMatcher()}
}

// Search runs the full pipeline: traversal feeds the scorer
// incrementally, the collector keeps a bounded top-K, and the context
// plus the query's timeout bound total wall-clock work. Timeout expiry
// and caller cancellation are successful completions returning whatever
// accumulated; the only errors are an unusable base directory.
func (s *Searcher) Search(ctx context.Context, q query.Query) (ResultSet, error) {
	baseDir := q.BaseDir
	if baseDir == "" {
		baseDir = "."
	}
	root, err := filepath.Abs(baseDir)
	if err != nil {
		return ResultSet{}, fmt.Errorf("resolve base directory: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return ResultSet{}, fmt.Errorf("base directory: %w", err)
	}
	if !info.IsDir() {
		return ResultSet{}, fmt.Errorf("base directory %s is not a directory", root)
	}

	var cancel context.CancelFunc
	if q.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, q.Timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	collector := newTopCollector(q.Limit)
	matchPath := q.MatchesPath()

	emit := func(e fsutil.Entry) {
		target := e.Name
		if matchPath {
			target = e.RelPath
		}

		var (
			score float64
			spans []MatchSpan
			ok    bool
		)
		if q.Mode == query.ModeExact {
			score, spans, ok = ExactMatch(q.Text, target)
		} else {
			score, spans, ok = s.matcher.Match(q.Text, target)
		}
		if !ok {
			return
		}

		accepted := collector.Add(ScoredMatch{Entry: e, Score: score, Spans: spans})

		// First-match fast path: one result is enough, stop the walk.
		if q.Limit == 1 && accepted >= 1 {
			cancel()
		}
	}

	walkTree(ctx, walkOptions{
		root:          root,
		includeHidden: q.IncludeHidden,
		dirsOnly:      q.Scope == query.ScopeDirectoriesOnly,
		workers:       s.workers,
	}, emit)

	matches, truncated := collector.Results()
	return ResultSet{
		Matches:   matches,
		Truncated: truncated,
		TimedOut:  errors.Is(context.Cause(ctx), context.DeadlineExceeded),
	}, nil
}
