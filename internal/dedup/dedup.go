// Package dedup implements the Same-Size Deduper: given a slice of
// FileEntry all sharing one size, it produces the set of duplicate groups
// by sorting the slice through comparator.Comparator and emitting runs of
// equal adjacent elements of length >= 2.
//
// Sort-then-scan, rather than pairwise matching, is deliberate: with n
// files in a size bucket the sort performs O(n log n) comparisons, and
// each one short-circuits on the first differing region (typically region
// 0 for non-duplicates), so total I/O for the non-duplicate majority stays
// O(n log n * B) with full reads paid only by true duplicates.
package dedup

import (
	"sort"

	"github.com/cclin0816/dedupefind/internal/comparator"
	"github.com/cclin0816/dedupefind/internal/fingerprint"
	"github.com/cclin0816/dedupefind/internal/types"
)

// Run groups a same-size run of FileEntry into duplicate groups (paths).
// entries must all share one Size (the caller partitions by size before
// calling). engine is a worker-owned fingerprint engine — never shared
// across goroutines — and blockSize is the base hash-block size B. warn
// (may be nil) receives non-fatal read errors as comparators are poisoned.
//
// Singleton runs are dropped; the returned slice may be empty.
func Run(entries []types.FileEntry, engine *fingerprint.Engine, blockSize int64, warn func(error)) [][]string {
	if len(entries) < 2 {
		return nil
	}

	comparators := make([]*comparator.Comparator, len(entries))
	for i, e := range entries {
		comparators[i] = comparator.New(e, engine, blockSize, warn)
	}

	sort.Slice(comparators, func(i, j int) bool {
		return comparators[i].Compare(comparators[j]) < 0
	})

	var groups [][]string
	i := 0
	for i < len(comparators) {
		j := i + 1
		for j < len(comparators) && comparators[i].Compare(comparators[j]) == 0 {
			j++
		}
		if j-i >= 2 {
			group := make([]string, 0, j-i)
			for k := i; k < j; k++ {
				group = append(group, comparators[k].Entry().Path)
			}
			groups = append(groups, group)
		}
		i = j
	}
	return groups
}
