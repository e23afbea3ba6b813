package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"
	"time"

	"github.com/kk-code-lab/ffind/internal/query"
)

// TestMain pins the user-global ignore lookup to nothing so results
// cannot depend on the contents of the runner's home directory.
func TestMain(m *testing.M) {
	userGlobalIgnoreFiles = func() []string { return nil }
	os.Exit(m.Run())
}

func writeTestFile(t *testing.T, root, relPath, data string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(full), err)
	}
	if err := os.WriteFile(full, []byte(data), 0o644); err != nil {
		t.Fatalf("write %s: %v", full, err)
	}
}

func resultPaths(rs ResultSet) []string {
	paths := make([]string, len(rs.Matches))
	for i, m := range rs.Matches {
		paths[i] = m.Entry.RelPath
	}
	return paths
}

func containsPath(rs ResultSet, relPath string) bool {
	for _, m := range rs.Matches {
		if m.Entry.RelPath == relPath {
			return true
		}
	}
	return false
}

func mustSearch(t *testing.T, q query.Query) ResultSet {
	t.Helper()
	rs, err := NewSearcher().Search(context.Background(), q)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	return rs
}

func TestSearch_HonorsIgnoreRules(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, ".gitignore", "ignored_git.txt\nignored_dir/\n")
	writeTestFile(t, root, ".ignore", "ignored_ignore.txt\n")
	writeTestFile(t, root, ".ffindignore", "ignored_ffind.txt\n")
	writeTestFile(t, root, "keep_root.txt", "keep")
	writeTestFile(t, root, "ignored_git.txt", "x")
	writeTestFile(t, root, "ignored_ignore.txt", "x")
	writeTestFile(t, root, "ignored_ffind.txt", "x")
	writeTestFile(t, root, "ignored_dir/inner.txt", "x")
	writeTestFile(t, root, "nested/.gitignore", "*.log\n")
	writeTestFile(t, root, "nested/keep.md", "keep")
	writeTestFile(t, root, "nested/skip.log", "x")

	rs := mustSearch(t, query.Query{Text: "txt", BaseDir: root, Limit: 0})

	for _, want := range []string{"keep_root.txt"} {
		if !containsPath(rs, want) {
			t.Errorf("expected %q in results, got %v", want, resultPaths(rs))
		}
	}
	for _, absent := range []string{
		"ignored_git.txt", "ignored_ignore.txt", "ignored_ffind.txt",
		"ignored_dir/inner.txt",
	} {
		if containsPath(rs, absent) {
			t.Errorf("did not expect %q in results, got %v", absent, resultPaths(rs))
		}
	}

	rs = mustSearch(t, query.Query{Text: "log", BaseDir: root, Limit: 0})
	if containsPath(rs, "nested/skip.log") {
		t.Errorf("nested ignore file should prune nested/skip.log, got %v", resultPaths(rs))
	}
}

func TestSearch_HiddenTogglePrunesHierarchically(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, ".dotfile.txt", "x")
	writeTestFile(t, root, ".hidden/inner.txt", "x")
	writeTestFile(t, root, "visible.txt", "x")

	rs := mustSearch(t, query.Query{Text: "txt", BaseDir: root, Limit: 0})
	if containsPath(rs, ".dotfile.txt") || containsPath(rs, ".hidden/inner.txt") {
		t.Errorf("hidden entries leaked with hidden disabled: %v", resultPaths(rs))
	}
	if !containsPath(rs, "visible.txt") {
		t.Errorf("visible.txt missing: %v", resultPaths(rs))
	}

	// Enabling hidden visibility reveals the dotfile and the whole
	// subtree beneath the hidden directory.
	rs = mustSearch(t, query.Query{Text: "txt", BaseDir: root, Limit: 0, IncludeHidden: true})
	if !containsPath(rs, ".dotfile.txt") || !containsPath(rs, ".hidden/inner.txt") {
		t.Errorf("hidden entries missing with hidden enabled: %v", resultPaths(rs))
	}
}

func TestSearch_HiddenToggleNeverOverridesIgnoreRules(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, ".gitignore", "secret.txt\n")
	writeTestFile(t, root, "secret.txt", "x")
	writeTestFile(t, root, "public.txt", "x")

	rs := mustSearch(t, query.Query{Text: "txt", BaseDir: root, Limit: 0, IncludeHidden: true})
	if containsPath(rs, "secret.txt") {
		t.Errorf("ignore rules must hold even with hidden enabled: %v", resultPaths(rs))
	}
	if !containsPath(rs, "public.txt") {
		t.Errorf("public.txt missing: %v", resultPaths(rs))
	}
}

func TestSearch_DirectoriesOnlyScope(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "src/main.go", "x")
	writeTestFile(t, root, "src/sub/util.go", "x")
	writeTestFile(t, root, "srcfile.txt", "x")

	rs := mustSearch(t, query.Query{Text: "s", BaseDir: root, Limit: 0, Scope: query.ScopeDirectoriesOnly})
	if rs.Empty() {
		t.Fatal("expected directory matches")
	}
	for _, m := range rs.Matches {
		if !m.Entry.IsDir {
			t.Errorf("non-directory %q returned under DirectoriesOnly", m.Entry.RelPath)
		}
	}
	// Nested directories stay reachable even though their parents are
	// directories too.
	if !containsPath(rs, "src/sub") {
		t.Errorf("nested directory missing: %v", resultPaths(rs))
	}
}

func TestSearch_PathScopeSwitch(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "src/main.go", "x")
	writeTestFile(t, root, "other/main.go", "x")

	rs := mustSearch(t, query.Query{Text: "src/main", BaseDir: root, Limit: 0})
	if !containsPath(rs, "src/main.go") {
		t.Errorf("src/main should match src/main.go: %v", resultPaths(rs))
	}
	if containsPath(rs, "other/main.go") {
		t.Errorf("src/main must not match other/main.go: %v", resultPaths(rs))
	}

	rs = mustSearch(t, query.Query{Text: "main", BaseDir: root, Limit: 0})
	if !containsPath(rs, "src/main.go") || !containsPath(rs, "other/main.go") {
		t.Errorf("name-scope query should match both: %v", resultPaths(rs))
	}
}

func TestSearch_Deterministic(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 30; i++ {
		writeTestFile(t, root, fmt.Sprintf("dir%02d/entry_%02d.txt", i%5, i), "x")
	}

	q := query.Query{Text: "entry", BaseDir: root, Limit: 10}
	first := resultPaths(mustSearch(t, q))
	for run := 0; run < 5; run++ {
		again := resultPaths(mustSearch(t, q))
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differed:\n%v\nvs\n%v", run, first, again)
		}
	}
}

func TestSearch_EqualScoresBreakTiesLexicographically(t *testing.T) {
	root := t.TempDir()
	// Same file name in different directories: identical name-scope
	// scores, so the relative path decides the order.
	writeTestFile(t, root, "zeta/report.txt", "x")
	writeTestFile(t, root, "alpha/report.txt", "x")
	writeTestFile(t, root, "midway/report.txt", "x")

	rs := mustSearch(t, query.Query{Text: "report", BaseDir: root, Limit: 0})
	want := []string{"alpha/report.txt", "midway/report.txt", "zeta/report.txt"}
	if !reflect.DeepEqual(resultPaths(rs), want) {
		t.Errorf("order = %v, want %v", resultPaths(rs), want)
	}
}

func TestSearch_LimitInvariant(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 12; i++ {
		writeTestFile(t, root, fmt.Sprintf("match_%02d.txt", i), "x")
	}

	rs := mustSearch(t, query.Query{Text: "match", BaseDir: root, Limit: 5})
	if len(rs.Matches) != 5 {
		t.Errorf("len = %d, want 5", len(rs.Matches))
	}
	if !rs.Truncated {
		t.Error("Truncated should be true when more candidates matched than kept")
	}

	rs = mustSearch(t, query.Query{Text: "match", BaseDir: root, Limit: 50})
	if len(rs.Matches) != 12 {
		t.Errorf("len = %d, want 12", len(rs.Matches))
	}
	if rs.Truncated {
		t.Error("Truncated should be false when everything fit")
	}
}

func TestSearch_SingleResultFastPath(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 20; i++ {
		writeTestFile(t, root, fmt.Sprintf("deep/l%d/hit_%d.txt", i, i), "x")
	}

	rs := mustSearch(t, query.Query{Text: "hit", BaseDir: root, Limit: 1})
	if len(rs.Matches) != 1 {
		t.Fatalf("len = %d, want exactly 1", len(rs.Matches))
	}
	if rs.TimedOut {
		t.Error("first-match stop must not report a timeout")
	}
}

func TestSearch_EmptyTreeAndNoMatch(t *testing.T) {
	root := t.TempDir()

	rs := mustSearch(t, query.Query{Text: "anything", BaseDir: root, Limit: 0})
	if !rs.Empty() || rs.TimedOut || rs.Truncated {
		t.Errorf("empty tree: got %+v", rs)
	}

	writeTestFile(t, root, "present.txt", "x")
	rs = mustSearch(t, query.Query{Text: "zzzqqq", BaseDir: root, Limit: 0})
	if !rs.Empty() || rs.TimedOut {
		t.Errorf("no-match query: got %+v", rs)
	}
}

func TestSearch_TimeoutReturnsPartial(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 40; i++ {
		writeTestFile(t, root, fmt.Sprintf("bulk/d%02d/f%02d.txt", i, i), "x")
	}

	full := mustSearch(t, query.Query{Text: "txt", BaseDir: root, Limit: 0})

	start := time.Now()
	rs := mustSearch(t, query.Query{Text: "txt", BaseDir: root, Limit: 0, Timeout: time.Nanosecond})
	elapsed := time.Since(start)

	if !rs.TimedOut {
		t.Error("TimedOut should be set when the deadline expires")
	}
	if len(rs.Matches) > len(full.Matches) {
		t.Errorf("partial set (%d) larger than unbounded set (%d)", len(rs.Matches), len(full.Matches))
	}
	for _, m := range rs.Matches {
		if !containsPath(full, m.Entry.RelPath) {
			t.Errorf("partial result %q not in unbounded set", m.Entry.RelPath)
		}
	}
	if elapsed > 5*time.Second {
		t.Errorf("timed-out search took %v, expected a prompt return", elapsed)
	}
}

func TestSearch_ExternalCancellationReturnsPartial(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "file.txt", "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rs, err := NewSearcher().Search(ctx, query.Query{Text: "file", BaseDir: root, Limit: 0})
	if err != nil {
		t.Fatalf("cancellation must not be an error: %v", err)
	}
	if rs.TimedOut {
		t.Error("caller cancellation is not a timeout")
	}
}

func TestSearch_ExactMode(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "main.go", "x")
	writeTestFile(t, root, "m_a_i_n.go", "x")
	writeTestFile(t, root, "domain.txt", "x")

	rs := mustSearch(t, query.Query{Text: "main", BaseDir: root, Limit: 0, Mode: query.ModeExact})
	if !containsPath(rs, "main.go") || !containsPath(rs, "domain.txt") {
		t.Errorf("exact substring targets missing: %v", resultPaths(rs))
	}
	if containsPath(rs, "m_a_i_n.go") {
		t.Errorf("scattered subsequence must not match in exact mode: %v", resultPaths(rs))
	}
	// Shorter target first on the shared exact band.
	if len(rs.Matches) >= 2 && rs.Matches[0].Entry.RelPath != "main.go" {
		t.Errorf("main.go should rank first, got %v", resultPaths(rs))
	}
}

func TestSearch_BadBaseDir(t *testing.T) {
	_, err := NewSearcher().Search(context.Background(), query.Query{
		Text:    "x",
		BaseDir: filepath.Join(t.TempDir(), "does-not-exist"),
	})
	if err == nil {
		t.Fatal("expected an error for a missing base directory")
	}
}

func TestSearch_SymlinkCycleTerminates(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires privileges on Windows")
	}

	root := t.TempDir()
	writeTestFile(t, root, "a/b/file.txt", "x")
	if err := os.Symlink(filepath.Join(root, "a"), filepath.Join(root, "a", "b", "loop")); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	done := make(chan ResultSet, 1)
	go func() {
		done <- mustSearch(t, query.Query{Text: "file", BaseDir: root, Limit: 0})
	}()

	select {
	case rs := <-done:
		if !containsPath(rs, "a/b/file.txt") {
			t.Errorf("expected a/b/file.txt, got %v", resultPaths(rs))
		}
	case <-time.After(10 * time.Second):
		t.Fatal("traversal did not terminate on a symlink cycle")
	}
}

func TestSearch_UnreadableDirectorySkipped(t *testing.T) {
	if runtime.GOOS == "windows" || os.Getuid() == 0 {
		t.Skip("permission bits are not enforced here")
	}

	root := t.TempDir()
	writeTestFile(t, root, "open/file.txt", "x")
	writeTestFile(t, root, "locked/file.txt", "x")
	if err := os.Chmod(filepath.Join(root, "locked"), 0o000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chmod(filepath.Join(root, "locked"), 0o755)
	})

	rs := mustSearch(t, query.Query{Text: "file", BaseDir: root, Limit: 0})
	if !containsPath(rs, "open/file.txt") {
		t.Errorf("readable subtree should survive: %v", resultPaths(rs))
	}
	if containsPath(rs, "locked/file.txt") {
		t.Errorf("unreadable subtree should be skipped, not fatal: %v", resultPaths(rs))
	}
}
