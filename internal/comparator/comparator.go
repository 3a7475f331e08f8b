// Package comparator defines a total order over files such that two files
// compare equal iff their fingerprint sequences are element-wise equal
// (modulo the hard-link fast path).
//
// # Lazy mutable state on an otherwise-immutable comparator
//
// Compare mutates its receiver's fingerprint block cache as a side effect
// of ordering two files — the cache is interior mutability, not external
// state. This is safe because a Comparator lives entirely inside one
// worker goroutine for its whole life: constructed by a Same-Size Deduper
// job, compared only during that job's sort, then discarded.
//
// # Poisoning
//
// A comparator that hits a read error mid-comparison is "poisoned": its
// block cache is filled out to MaxHash with a reserved sentinel block and
// Compare orders it after every healthy peer (and among poisoned peers by
// path), so the poisoned file never forms a run with length >= 2. This
// keeps the sort total (and therefore the Same-Size Deduper's single pass
// over it correct) without threading an error return through a comparison
// operator that many sort interfaces can't accept one from.
package comparator

import (
	"fmt"
	"os"

	"github.com/cclin0816/dedupefind/internal/fingerprint"
	"github.com/cclin0816/dedupefind/internal/types"
)

// poisonBlock is the all-ones sentinel that fills a poisoned comparator's
// block cache and that blockAt returns for regions past a file's own
// region count. Compare never orders a poisoned comparator by this block:
// it checks the poisoned flag instead, so a real digest that happens to be
// all ones is never mistaken for a poisoned file.
var poisonBlock = fingerprint.Block{Hi: ^uint64(0), Lo: ^uint64(0)}

// Comparator wraps one file entry for ordered comparison within a
// same-size run. Construct one per entry via New, use Compare as a sort
// key, then discard.
type Comparator struct {
	entry types.FileEntry

	engine    *fingerprint.Engine
	blockSize int64
	maxHash   int

	blocks    []fingerprint.Block // prefix of the full fingerprint sequence materialized so far
	remaining int64               // bytes not yet read; remaining + bytesRead == entry.Size always
	poisoned  bool

	file *os.File // open only between the first lazy read and the end of the enclosing Compare call
	warn func(error)
}

// New creates a Comparator for entry, using engine to materialize
// fingerprint blocks on demand. warn (may be nil) receives non-fatal
// errors encountered while poisoning.
func New(entry types.FileEntry, engine *fingerprint.Engine, blockSize int64, warn func(error)) *Comparator {
	return &Comparator{
		entry:     entry,
		engine:    engine,
		blockSize: blockSize,
		maxHash:   fingerprint.MaxHash(entry.Size, blockSize),
		remaining: entry.Size,
		warn:      warn,
	}
}

// Entry returns the file entry this comparator wraps.
func (c *Comparator) Entry() types.FileEntry { return c.entry }

// Compare returns -1, 0, or 1 ordering c before, equal to, or after other.
//
// Protocol (spec order):
//  1. Hard-link fast path: same (dev, ino) with matching nlink > 1 on both
//     sides returns 0 without reading either file.
//  2. Otherwise, for each region index from 0 up to max(maxHash)-1, ensure
//     both sides have that block materialized (lazily, independently), and
//     compare the 128-bit digests. The first mismatch decides the order.
//  3. If every compared block matched, return 0.
//
// Both sides release any open file handle before Compare returns; a later
// Compare call may reopen and seek using the preserved remaining-bytes
// counter.
func (c *Comparator) Compare(other *Comparator) int {
	defer c.closeFile()
	defer other.closeFile()

	if c.entry.SameInode(&other.entry) {
		return 0
	}

	n := c.maxHash
	if other.maxHash > n {
		n = other.maxHash
	}
	for i := 0; i < n; i++ {
		cb := c.blockAt(i)
		ob := other.blockAt(i)

		// A poisoned comparator must never compare equal to anything
		// else, including another poisoned comparator — two
		// independently-poisoned files would otherwise both carry the
		// same sentinel block and sort adjacent-and-equal, grouping
		// unrelated broken files together. A poisoned comparator sorts
		// after every healthy one, and poisoned comparators order among
		// themselves by path, which keeps the total order well-defined
		// (paths are unique within one run) while guaranteeing no run of
		// poisoned files is ever emitted as a duplicate group.
		if c.poisoned || other.poisoned {
			switch {
			case !other.poisoned:
				return 1
			case !c.poisoned:
				return -1
			case c.entry.Path < other.entry.Path:
				return -1
			case c.entry.Path > other.entry.Path:
				return 1
			default:
				return 0
			}
		}

		if d := cb.Compare(ob); d != 0 {
			return d
		}
	}
	return 0
}

// blockAt returns fingerprint block i, materializing it on demand. Only
// region i itself is hashed and appended to the cache; missing predecessors
// are not materialized, which is sound because Compare always requests
// regions in order. Once poisoned, or once i is beyond this file's own region count,
// the sentinel poison block is returned so the comparator no longer
// participates in any equivalence class.
func (c *Comparator) blockAt(i int) fingerprint.Block {
	if i >= c.maxHash {
		// Different-length region sequences only arise from a bug in the
		// caller (both sides of a Compare should share maxHash for
		// same-size files); treat defensively as poison rather than panic.
		return poisonBlock
	}
	if c.poisoned {
		return poisonBlock
	}
	if i < len(c.blocks) {
		return c.blocks[i]
	}

	start, end := fingerprint.RegionBounds(i, c.entry.Size, c.blockSize)
	if err := c.ensureOpenAt(start); err != nil {
		c.poison(fmt.Errorf("comparator: open %s: %w: %w", c.entry.Path, types.ErrFileOpen, err))
		return poisonBlock
	}

	block, err := c.engine.HashRegion(c.file, start, end)
	if err != nil {
		c.poison(fmt.Errorf("comparator: hash %s: %w", c.entry.Path, err))
		return poisonBlock
	}

	c.blocks = append(c.blocks, block)
	c.remaining -= end - start
	return block
}

// ensureOpenAt opens the file if not already open, and seeks to start.
func (c *Comparator) ensureOpenAt(start int64) error {
	if c.file == nil {
		f, err := os.Open(c.entry.Path)
		if err != nil {
			return err
		}
		c.file = f
	}
	if _, err := c.file.Seek(start, 0); err != nil {
		return err
	}
	return nil
}

// poison marks the comparator so every subsequent Compare call treats it as
// unequal to everything: the block cache is resized to maxHash filled with
// the sentinel, and remaining is zeroed (no further reads are attempted).
func (c *Comparator) poison(err error) {
	if c.warn != nil {
		c.warn(err)
	}
	c.poisoned = true
	c.blocks = make([]fingerprint.Block, c.maxHash)
	for i := range c.blocks {
		c.blocks[i] = poisonBlock
	}
	c.remaining = 0
}

// closeFile releases the open handle, if any, bounding open-FD count to
// O(workers) regardless of how many comparisons a sort performs.
func (c *Comparator) closeFile() {
	if c.file != nil {
		_ = c.file.Close()
		c.file = nil
	}
}
