package search

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	fsutil "github.com/kk-code-lab/ffind/internal/fs"
	"golang.org/x/text/unicode/norm"
)

// walkOptions configures one traversal. All state derived from it is
// owned by that single call, so concurrent searches never share
// anything mutable.
type walkOptions struct {
	root          string // absolute
	includeHidden bool
	dirsOnly      bool
	workers       int
}

func defaultWalkWorkers() int {
	n := runtime.NumCPU()
	if n < 4 {
		n = 4
	}
	return n
}

// walkTree traverses root recursively with a bounded pool of directory
// readers, calling emit for every candidate entry. emit must be safe
// for concurrent use; entry order is unspecified. Cancellation is
// checked at directory boundaries, so a cancelled walk only drains its
// in-flight directory reads.
//
// Hidden entries are pruned hierarchically: a hidden directory hides
// its whole subtree until hidden visibility is enabled. Ignore-file
// rules apply regardless of the hidden toggle. Unreadable directories
// and symlink cycles are skipped silently.
func walkTree(ctx context.Context, opts walkOptions, emit func(fsutil.Entry)) {
	workers := opts.workers
	if workers <= 0 {
		workers = defaultWalkWorkers()
	}

	ignores := newIgnoreProvider(opts.root)
	guard := newCycleGuard()
	if id, ok := fsutil.DirIdentity(opts.root); ok {
		guard.visit(id)
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	var walkDir func(absDir, relDir string)
	walkDir = func(absDir, relDir string) {
		defer wg.Done()

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			return
		}
		entries, err := os.ReadDir(absDir)
		<-sem
		if err != nil {
			// Permission denied or vanished mid-walk: skip the subtree.
			return
		}

		matcher := ignores.MatcherFor(relDir)

		for _, d := range entries {
			if ctx.Err() != nil {
				return
			}

			name := d.Name()
			// The real name stays in filesystem paths; matching and
			// display always see the NFC form.
			displayName := norm.NFC.String(name)
			rel := joinRelPath(relDir, displayName)
			full := filepath.Join(absDir, name)

			isDir := d.IsDir()
			isSymlink := d.Type()&os.ModeSymlink != 0
			if isSymlink {
				if info, statErr := os.Stat(full); statErr == nil {
					isDir = info.IsDir()
				}
			}

			if isDir && name == ".git" {
				continue
			}
			if !opts.includeHidden && fsutil.IsHidden(full, name) {
				continue
			}
			if matcher.Ignored(rel, isDir) {
				continue
			}

			if isDir {
				descend := true
				if id, ok := fsutil.DirIdentity(full); ok && !guard.visit(id) {
					descend = false // already visited: symlink cycle
				}
				if descend {
					wg.Add(1)
					go walkDir(full, rel)
				}
			} else if opts.dirsOnly {
				continue
			}

			emit(fsutil.Entry{
				Name:      displayName,
				FullPath:  full,
				RelPath:   rel,
				IsDir:     isDir,
				IsSymlink: isSymlink,
			})
		}
	}

	wg.Add(1)
	walkDir(opts.root, ".")
	wg.Wait()
}

// cycleGuard tracks directory identities already descended into during
// one walk.
type cycleGuard struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func newCycleGuard() *cycleGuard {
	return &cycleGuard{seen: make(map[string]struct{})}
}

// visit records the identity and reports whether it was new.
func (g *cycleGuard) visit(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.seen[id]; ok {
		return false
	}
	g.seen[id] = struct{}{}
	return true
}

func joinRelPath(parent, child string) string {
	if parent == "." || parent == "" {
		return child
	}
	return parent + "/" + child
}
