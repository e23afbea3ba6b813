package fs

// Entry is an immutable snapshot of one filesystem object met during a
// search traversal. RelPath is slash-separated and relative to the
// traversal root; it is the stable identity of the entry for the
// duration of one search call.
type Entry struct {
	Name      string
	FullPath  string
	RelPath   string
	IsDir     bool
	IsSymlink bool
}
