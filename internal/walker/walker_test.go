package walker

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func collect(t *testing.T, root string, opts Options) ([]Entry, []Entry) {
	t.Helper()
	var ok, failed []Entry
	err := Walk(context.Background(), root, opts, func(e Entry) error {
		if e.Err != nil {
			failed = append(failed, e)
		} else {
			ok = append(ok, e)
		}
		return nil
	})
	require.NoError(t, err)
	return ok, failed
}

func relPaths(t *testing.T, root string, entries []Entry) []string {
	t.Helper()
	var out []string
	for _, e := range entries {
		rel, err := filepath.Rel(root, e.Path)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	sort.Strings(out)
	return out
}

func TestWalk_PrunesHiddenAndDenyListed(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep.txt"), 3)
	writeFile(t, filepath.Join(root, "src", "main.go"), 10)
	writeFile(t, filepath.Join(root, ".git", "config"), 1)
	writeFile(t, filepath.Join(root, "src", "deep", ".git", "HEAD"), 1)
	writeFile(t, filepath.Join(root, "web", "node_modules", "lib", "index.js"), 1)
	writeFile(t, filepath.Join(root, "py", "__pycache__", "mod.pyc"), 1)
	writeFile(t, filepath.Join(root, "repo", ".svn", "entries"), 1)
	writeFile(t, filepath.Join(root, ".cache", "blob"), 1)
	// Hidden files are indexed; only hidden directories are pruned.
	writeFile(t, filepath.Join(root, ".profile"), 1)

	ok, failed := collect(t, root, Options{})
	assert.Empty(t, failed)
	assert.Equal(t, []string{".profile", "keep.txt", "src/main.go"}, relPaths(t, root, ok))
}

func TestWalk_ExtraSkipDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), 1)
	writeFile(t, filepath.Join(root, "build", "out.bin"), 1)

	ok, _ := collect(t, root, Options{SkipDirs: []string{"build"}})
	assert.Equal(t, []string{"a.txt"}, relPaths(t, root, ok))
}

func TestWalk_HiddenRootIsWalked(t *testing.T) {
	root := filepath.Join(t.TempDir(), ".dotroot")
	writeFile(t, filepath.Join(root, "inside.txt"), 1)

	ok, _ := collect(t, root, Options{})
	assert.Equal(t, []string{"inside.txt"}, relPaths(t, root, ok))
}

func TestWalk_Metadata(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "sized.bin")
	writeFile(t, path, 123)

	ok, _ := collect(t, root, Options{})
	require.Len(t, ok, 1)
	assert.Equal(t, "sized.bin", ok[0].Name)
	assert.Equal(t, path, ok[0].Path)
	assert.Equal(t, int64(123), ok[0].Size)
	assert.False(t, ok[0].ModTime.IsZero())
}

func TestWalk_SymlinkedDirectoryIsNotAFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := t.TempDir()
	target := t.TempDir()
	writeFile(t, filepath.Join(target, "linked.txt"), 1)
	writeFile(t, filepath.Join(root, "real.txt"), 1)
	require.NoError(t, os.Symlink(target, filepath.Join(root, "link")))

	ok, failed := collect(t, root, Options{})
	assert.Empty(t, failed)
	assert.Equal(t, []string{"real.txt"}, relPaths(t, root, ok))
}

func TestWalk_SymlinkedRootIsFollowed(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	target := t.TempDir()
	writeFile(t, filepath.Join(target, "x.txt"), 1)
	link := filepath.Join(t.TempDir(), "root-link")
	require.NoError(t, os.Symlink(target, link))

	ok, _ := collect(t, link, Options{})
	require.Len(t, ok, 1)
	assert.Equal(t, filepath.Join(link, "x.txt"), ok[0].Path)
}

func TestWalk_BrokenSymlinkReportsNotExist(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := t.TempDir()
	require.NoError(t, os.Symlink(filepath.Join(root, "missing"), filepath.Join(root, "dangling")))

	ok, failed := collect(t, root, Options{})
	assert.Empty(t, ok)
	require.Len(t, failed, 1)
	assert.True(t, errors.Is(failed[0].Err, fs.ErrNotExist))
}

func TestWalk_UnreadableFileReportsPermission(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	root := t.TempDir()
	path := filepath.Join(root, "secret.txt")
	writeFile(t, path, 1)
	require.NoError(t, os.Chmod(path, 0o000))
	t.Cleanup(func() { _ = os.Chmod(path, 0o644) })

	_, failed := collect(t, root, Options{})
	require.Len(t, failed, 1)
	assert.True(t, errors.Is(failed[0].Err, fs.ErrPermission))
}

func TestWalk_UnreadableDirectoryIsSilent(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "visible.txt"), 1)
	locked := filepath.Join(root, "locked")
	writeFile(t, filepath.Join(locked, "inner.txt"), 1)
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	ok, failed := collect(t, root, Options{})
	assert.Equal(t, []string{"visible.txt"}, relPaths(t, root, ok))
	assert.Empty(t, failed)
}

func TestWalk_MissingRootIsAnError(t *testing.T) {
	calls := 0
	err := Walk(context.Background(), filepath.Join(t.TempDir(), "gone"), Options{}, func(Entry) error {
		calls++
		return nil
	})

	assert.ErrorIs(t, err, ErrRootUnreadable)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Zero(t, calls)
}

func TestWalk_UnreadableRootIsAnError(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), 1)
	require.NoError(t, os.Chmod(root, 0o000))
	t.Cleanup(func() { _ = os.Chmod(root, 0o755) })

	err := Walk(context.Background(), root, Options{}, func(Entry) error { return nil })

	assert.ErrorIs(t, err, ErrRootUnreadable)
	assert.ErrorIs(t, err, fs.ErrPermission)
}

func TestWalk_CallbackErrorStops(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a"), 1)
	writeFile(t, filepath.Join(root, "b"), 1)

	stop := errors.New("stop")
	calls := 0
	err := Walk(context.Background(), root, Options{}, func(Entry) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestWalk_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a"), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Walk(ctx, root, Options{}, func(Entry) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSkip(t *testing.T) {
	set := Options{}.skipSet()
	tests := []struct {
		name string
		want bool
	}{
		{".git", true},
		{".svn", true},
		{".hidden", true},
		{"node_modules", true},
		{"__pycache__", true},
		{"src", false},
		{"git", false},
		{"Node_Modules", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Skip(tt.name, set))
		})
	}
}
