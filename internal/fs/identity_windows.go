//go:build windows

package fs

import (
	"path/filepath"
	"strings"
)

// DirIdentity returns a stable key for a directory so a traversal can
// detect symlink cycles. Windows has no cheap device+inode pair, so the
// key is the fully resolved path, case folded.
func DirIdentity(path string) (string, bool) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", false
	}
	return strings.ToLower(filepath.Clean(resolved)), true
}
