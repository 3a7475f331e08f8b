package engine

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/cclin0816/dedupefind/internal/types"
)

func mkfile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
}

func sortedGroups(groups [][]string) [][]string {
	for _, g := range groups {
		sort.Strings(g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })
	return groups
}

func TestDedupeEndToEnd(t *testing.T) {
	// A mix of a duplicate pair, a unique file, and a different-size file
	// that would collide in a naive hash-prefix scheme.
	dir := t.TempDir()
	mkfile(t, filepath.Join(dir, "a"), []byte("hello"))
	mkfile(t, filepath.Join(dir, "b"), []byte("hello"))
	mkfile(t, filepath.Join(dir, "c"), []byte("world"))
	mkfile(t, filepath.Join(dir, "d"), []byte("longer content, unique"))

	groups, err := Dedupe(context.Background(), []string{dir}, nil, 4, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	groups = sortedGroups(groups)

	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1: %v", len(groups), groups)
	}
	want := []string{filepath.Join(dir, "a"), filepath.Join(dir, "b")}
	sort.Strings(want)
	for i, p := range groups[0] {
		if p != want[i] {
			t.Errorf("group[%d] = %q, want %q", i, p, want[i])
		}
	}
}

func TestDedupeRejectsInvalidMaxThread(t *testing.T) {
	dir := t.TempDir()
	if _, err := Dedupe(context.Background(), []string{dir}, nil, 0, nil, nil); err == nil {
		t.Error("expected error for max_thread = 0")
	}
	if _, err := Dedupe(context.Background(), []string{dir}, nil, 257, nil, nil); err == nil {
		t.Error("expected error for max_thread = 257")
	}
}

func TestDedupeRejectsEmptySearchDirs(t *testing.T) {
	if _, err := Dedupe(context.Background(), nil, nil, 4, nil, nil); err == nil {
		t.Error("expected error for empty search dirs")
	}
}

func TestDedupeNoDuplicates(t *testing.T) {
	dir := t.TempDir()
	mkfile(t, filepath.Join(dir, "a"), []byte("one"))
	mkfile(t, filepath.Join(dir, "b"), []byte("two!!"))

	groups, err := Dedupe(context.Background(), []string{dir}, nil, 4, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 0 {
		t.Errorf("got %d groups, want 0: %v", len(groups), groups)
	}
}

func TestPartitionBySize(t *testing.T) {
	entries := []types.FileEntry{
		{Path: "a", Size: 1},
		{Path: "b", Size: 1},
		{Path: "c", Size: 2},
		{Path: "d", Size: 3},
		{Path: "e", Size: 3},
	}
	runs := partitionBySize(entries)
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3: %v", len(runs), runs)
	}
	if len(runs[0]) != 2 || len(runs[1]) != 1 || len(runs[2]) != 2 {
		t.Errorf("unexpected run lengths: %v", runs)
	}
}

func TestDedupeRespectsCanceledContext(t *testing.T) {
	dir := t.TempDir()
	mkfile(t, filepath.Join(dir, "a"), []byte("hello"))
	mkfile(t, filepath.Join(dir, "b"), []byte("hello"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Dedupe(ctx, []string{dir}, nil, 4, nil, nil)
	if err == nil {
		t.Error("expected error from a pre-canceled context")
	}
}
