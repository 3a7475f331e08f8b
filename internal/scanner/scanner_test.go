package scanner

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/cclin0816/dedupefind/internal/types"
)

// collectWarnings returns a thread-safe warn(error) callback plus a getter
// for everything it collected, for tests that assert on the log-and-skip
// behavior the enumerator documents for excluded and symlinked entries.
func collectWarnings() (func(error), func() []string) {
	var mu sync.Mutex
	var msgs []string
	return func(err error) {
			mu.Lock()
			defer mu.Unlock()
			msgs = append(msgs, err.Error())
		}, func() []string {
			mu.Lock()
			defer mu.Unlock()
			return append([]string(nil), msgs...)
		}
}

func containsSubstring(msgs []string, substr string) bool {
	for _, m := range msgs {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

func mkfile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
}

func pathsOf(entries []types.FileEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path
	}
	sort.Strings(out)
	return out
}

func TestRunFindsRegularFilesRecursively(t *testing.T) {
	dir := t.TempDir()
	mkfile(t, filepath.Join(dir, "a.txt"), []byte("x"))
	mkfile(t, filepath.Join(dir, "sub", "b.txt"), []byte("y"))
	mkfile(t, filepath.Join(dir, "sub", "deeper", "c.txt"), []byte("z"))

	entries, err := Run([]string{dir}, nil, 2, nil)
	if err != nil {
		t.Fatal(err)
	}

	got := pathsOf(entries)
	want := []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "sub", "b.txt"),
		filepath.Join(dir, "sub", "deeper", "c.txt"),
	}
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRunExcludesMatchingPaths(t *testing.T) {
	// An exclude pattern removes an entire subtree.
	dir := t.TempDir()
	mkfile(t, filepath.Join(dir, "keep.txt"), []byte("x"))
	mkfile(t, filepath.Join(dir, "node_modules", "dep.txt"), []byte("y"))

	excl := regexp.MustCompile(`node_modules`)
	warn, warnings := collectWarnings()
	entries, err := Run([]string{dir}, []*regexp.Regexp{excl}, 2, warn)
	if err != nil {
		t.Fatal(err)
	}

	got := pathsOf(entries)
	if len(got) != 1 || got[0] != filepath.Join(dir, "keep.txt") {
		t.Errorf("got %v, want only keep.txt", got)
	}
	if !containsSubstring(warnings(), filepath.Join(dir, "node_modules")) {
		t.Errorf("expected a log-and-skip warning naming the excluded path, got %v", warnings())
	}
}

func TestRunSkipsSymlinks(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real.txt")
	mkfile(t, target, []byte("x"))
	link := filepath.Join(dir, "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	entries, err := Run([]string{dir}, nil, 2, nil)
	if err != nil {
		t.Fatal(err)
	}

	got := pathsOf(entries)
	if len(got) != 1 || got[0] != target {
		t.Errorf("got %v, want only %q (symlink excluded)", got, target)
	}
}

func TestRunExcludesZeroByteFiles(t *testing.T) {
	dir := t.TempDir()
	mkfile(t, filepath.Join(dir, "empty.txt"), []byte{})
	mkfile(t, filepath.Join(dir, "nonempty.txt"), []byte("x"))

	entries, err := Run([]string{dir}, nil, 2, nil)
	if err != nil {
		t.Fatal(err)
	}

	got := pathsOf(entries)
	if len(got) != 1 || got[0] != filepath.Join(dir, "nonempty.txt") {
		t.Errorf("got %v, want only nonempty.txt", got)
	}
}

func TestRunDeterministicAcrossThreadCounts(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 20; i++ {
		mkfile(t, filepath.Join(dir, "d"+string(rune('a'+i%5)), "f"+string(rune('a'+i))+".txt"), []byte{byte(i)})
	}

	var baseline []string
	for _, threads := range []int{1, 2, 8} {
		entries, err := Run([]string{dir}, nil, threads, nil)
		if err != nil {
			t.Fatal(err)
		}
		got := pathsOf(entries)
		if baseline == nil {
			baseline = got
			continue
		}
		if len(got) != len(baseline) {
			t.Fatalf("thread count %d produced %d entries, want %d", threads, len(got), len(baseline))
		}
		for i := range baseline {
			if got[i] != baseline[i] {
				t.Errorf("thread count %d mismatch at %d: got %q, want %q", threads, i, got[i], baseline[i])
			}
		}
	}
}

func TestRunWarnsOnUnreadableDirectory(t *testing.T) {
	root := "/nonexistent/path/for/dedupefind/test"
	warn, warnings := collectWarnings()
	entries, err := Run([]string{root}, nil, 2, warn)
	if err != nil {
		t.Fatalf("Run should not fail fatally on a missing root, got %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %d entries from a nonexistent root, want 0", len(entries))
	}
	if !containsSubstring(warnings(), root) {
		t.Errorf("expected a warning naming the unreadable root, got %v", warnings())
	}
}

func TestRunRejectsInvalidMaxThread(t *testing.T) {
	if _, err := Run([]string{t.TempDir()}, nil, 0, nil); err == nil {
		t.Error("expected error for max_thread = 0")
	}
}
