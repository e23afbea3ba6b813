//go:build !windows

package fs

import (
	"fmt"
	"os"
	"syscall"
)

// DirIdentity returns a stable key for a directory inode so a traversal
// can detect symlink cycles. On Unix the key is device+inode of the
// resolved directory.
func DirIdentity(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return "", false
	}
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%d:%d", st.Dev, st.Ino), true
}
