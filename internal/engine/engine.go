// Package engine implements the Orchestrator: the library entry point that
// ties the Directory Enumerator, the size-bucketing partition step, and the
// Same-Size Deduper together into one Dedupe call.
package engine

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/cclin0816/dedupefind/internal/dedup"
	"github.com/cclin0816/dedupefind/internal/fingerprint"
	"github.com/cclin0816/dedupefind/internal/scanner"
	"github.com/cclin0816/dedupefind/internal/types"
)

const (
	minMaxThread = 1
	maxMaxThread = 256
)

// ProgressHooks lets a caller observe the dispatch phase's progress without
// the engine itself depending on any progress-bar library. Either field may
// be nil.
type ProgressHooks struct {
	// DispatchStarted is called once, after size-runs are partitioned and
	// before any are dispatched, with the number of runs that will
	// actually be submitted to the worker pool (singleton runs excluded).
	DispatchStarted func(total int)
	// DispatchStep is called once per size-run job that finishes, in
	// whatever order jobs complete (not dispatch order).
	DispatchStep func()
}

// Dedupe runs the full duplicate-detection pipeline over searchDirs:
// enumerate, partition into equal-size runs, dedup each run concurrently,
// and merge the resulting duplicate groups.
//
// maxThread must be in [1,256] (types.ErrInvalidArgument otherwise) and
// bounds both the Enumerator's and the Orchestrator's own worker pools —
// two independent pools of that size, never a shared one, since the two
// phases never run concurrently with each other.
//
// warn (may be nil) receives one error per non-fatal problem encountered
// anywhere in the pipeline (an unreadable directory, an unopenable file, a
// corrupted read); none of them abort the run. progress (may be nil) is
// notified as the dispatch phase makes progress.
func Dedupe(ctx context.Context, searchDirs []string, excludeRegex []*regexp.Regexp, maxThread int, warn func(error), progress *ProgressHooks) ([][]string, error) {
	if maxThread < minMaxThread || maxThread > maxMaxThread {
		return nil, fmt.Errorf("%w: max_thread must be in [%d,%d], got %d", types.ErrInvalidArgument, minMaxThread, maxMaxThread, maxThread)
	}
	if len(searchDirs) == 0 {
		return nil, fmt.Errorf("%w: at least one search directory is required", types.ErrInvalidArgument)
	}

	entries, err := scanner.Run(searchDirs, excludeRegex, maxThread, warn)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Size < entries[j].Size })

	runs := partitionBySize(entries)

	pool, err := ants.NewPool(maxThread)
	if err != nil {
		return nil, fmt.Errorf("%w: creating dedup worker pool: %v", types.ErrResourceExhausted, err)
	}
	defer pool.Release()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		groups [][]string
		jobErr error
	)

	dispatchable := runs[:0]
	for _, run := range runs {
		if len(run) >= 2 {
			dispatchable = append(dispatchable, run)
		}
	}
	if progress != nil && progress.DispatchStarted != nil {
		progress.DispatchStarted(len(dispatchable))
	}

	for _, run := range dispatchable {
		if err := ctx.Err(); err != nil {
			break
		}

		run := run
		wg.Add(1)
		job := func() {
			defer wg.Done()
			g, err := dedupRun(run, warn)
			if err != nil {
				mu.Lock()
				if jobErr == nil {
					jobErr = err
				}
				mu.Unlock()
			}
			if len(g) > 0 {
				mu.Lock()
				groups = append(groups, g...)
				mu.Unlock()
			}
			if progress != nil && progress.DispatchStep != nil {
				progress.DispatchStep()
			}
		}
		if submitErr := pool.Submit(job); submitErr != nil {
			job()
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if jobErr != nil {
		return nil, jobErr
	}
	return groups, nil
}

// dedupRun allocates a fresh, worker-owned fingerprint engine and read
// buffer for this one size-run job and hands it to the Same-Size Deduper —
// never shared across goroutines, so two jobs running concurrently never
// contend on a buffer. A failure to allocate the engine is returned, and
// Dedupe fails with it.
func dedupRun(run []types.FileEntry, warn func(error)) ([][]string, error) {
	eng, err := fingerprint.NewEngine(fingerprint.DefaultSeed, fingerprint.DefaultReadBufferSize, fingerprint.DefaultBlockSize)
	if err != nil {
		return nil, err
	}
	return dedup.Run(run, eng, fingerprint.DefaultBlockSize, warn), nil
}

// partitionBySize splits a size-sorted slice of entries into maximal runs
// sharing one Size. Runs of length 1 are still returned; callers filter
// them out before dispatch.
func partitionBySize(entries []types.FileEntry) [][]types.FileEntry {
	var runs [][]types.FileEntry
	i := 0
	for i < len(entries) {
		j := i + 1
		for j < len(entries) && entries[j].Size == entries[i].Size {
			j++
		}
		runs = append(runs, entries[i:j])
		i = j
	}
	return runs
}
