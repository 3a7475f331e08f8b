package testfs

import (
	"os"
	"path/filepath"
	"testing"
)

// AssertHardlinked fails the test unless every path (relative to root)
// exists and shares one inode.
func AssertHardlinked(t *testing.T, root string, paths ...string) {
	t.Helper()
	if len(paths) == 0 {
		return
	}
	first, err := os.Stat(filepath.Join(root, paths[0]))
	if err != nil {
		t.Fatalf("stat %s: %v", paths[0], err)
	}
	for _, p := range paths[1:] {
		info, err := os.Stat(filepath.Join(root, p))
		if err != nil {
			t.Fatalf("stat %s: %v", p, err)
		}
		if !os.SameFile(first, info) {
			t.Errorf("%s and %s are not the same inode", paths[0], p)
		}
	}
}

// AssertSymlinkTarget fails the test unless path (relative to root) is a
// symlink pointing to want.
func AssertSymlinkTarget(t *testing.T, root, path, want string) {
	t.Helper()
	got, err := os.Readlink(filepath.Join(root, path))
	if err != nil {
		t.Fatalf("readlink %s: %v", path, err)
	}
	if got != want {
		t.Errorf("symlink %s target = %q, want %q", path, got, want)
	}
}
