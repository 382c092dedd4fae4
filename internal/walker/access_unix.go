//go:build unix

package walker

import (
	"io/fs"

	"golang.org/x/sys/unix"
)

// checkReadable reports a permission error when the current user cannot
// read path. Stat alone succeeds for such files.
func checkReadable(path string) error {
	if err := unix.Access(path, unix.R_OK); err != nil {
		return &fs.PathError{Op: "access", Path: path, Err: err}
	}
	return nil
}
