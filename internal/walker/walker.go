package walker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Entry is one regular file discovered under a root. When Err is set the
// file could not be read or stat'ed and the remaining metadata is zero.
type Entry struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	Err     error
}

// ErrRootUnreadable is returned by Walk when the root itself cannot be read.
// No entries have been produced in that case.
var ErrRootUnreadable = errors.New("root is not readable")

// DefaultSkipDirs are directory names that are never descended into.
// Any directory whose name starts with "." is skipped as well.
var DefaultSkipDirs = []string{
	"node_modules",
	"__pycache__",
	".git",
	".svn",
}

// Options configures a walk.
type Options struct {
	// SkipDirs are extra directory names to prune, on top of DefaultSkipDirs.
	SkipDirs []string
}

func (o Options) skipSet() map[string]bool {
	set := make(map[string]bool, len(DefaultSkipDirs)+len(o.SkipDirs))
	for _, name := range DefaultSkipDirs {
		set[name] = true
	}
	for _, name := range o.SkipDirs {
		set[name] = true
	}
	return set
}

// Skip reports whether a directory with the given name is pruned.
func Skip(name string, skip map[string]bool) bool {
	return strings.HasPrefix(name, ".") || skip[name]
}

// Walk traverses the tree rooted at root top-down and calls fn for every
// file entry. Pruned directories are never read. Errors on individual
// entries are passed to fn through Entry.Err and never stop the walk; only
// an unreadable root, an error returned by fn or cancellation of ctx does.
func Walk(ctx context.Context, root string, opts Options, fn func(Entry) error) error {
	skip := opts.skipSet()

	// WalkDir does not descend into a symlinked root; a trailing separator
	// makes the initial Lstat resolve the link.
	if info, err := os.Lstat(root); err == nil && info.Mode()&fs.ModeSymlink != 0 {
		root += string(filepath.Separator)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			// Unreadable directory or vanished entry; report and keep walking.
			if path == root {
				return fmt.Errorf("%w: %w", ErrRootUnreadable, err)
			}
			name := filepath.Base(path)
			if d != nil && d.IsDir() {
				// A directory is not a file outcome; only unexpected read
				// failures are passed on.
				if Skip(name, skip) || errors.Is(err, fs.ErrPermission) || errors.Is(err, fs.ErrNotExist) {
					return nil
				}
			}
			return fn(Entry{Path: path, Name: name, Err: err})
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			if Skip(d.Name(), skip) {
				return filepath.SkipDir
			}
			return nil
		}

		e, ok := stat(path, d.Name())
		if !ok {
			return nil
		}
		return fn(e)
	})
}

// stat resolves the metadata of a file entry, following symlinks.
// It returns false for links that resolve to directories.
func stat(path, name string) (Entry, bool) {
	if err := checkReadable(path); err != nil {
		return Entry{Path: path, Name: name, Err: err}, true
	}
	info, err := os.Stat(path)
	if err != nil {
		return Entry{Path: path, Name: name, Err: err}, true
	}
	if info.IsDir() {
		return Entry{}, false
	}
	return Entry{
		Path:    path,
		Name:    name,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, true
}
