// Package scanner implements the Directory Enumerator: a bounded,
// concurrent walk of a set of root paths that produces the flat file
// inventory later stages bucket by size.
//
// Each root is walked by a fixed-size worker pool sized to max_thread;
// subdirectories are recursively posted back onto the same pool rather than
// walked via stack recursion, so deep trees never block a worker on its own
// children. Every worker accumulates the files of a single directory into a
// thread-local buffer and moves it into the shared inventory under one lock
// acquisition per directory, keeping lock contention independent of file
// count.
package scanner

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/cclin0816/dedupefind/internal/types"
)

// readDirBatch bounds how many directory entries are pulled into memory at
// once, mirroring os.ReadDir's own amortization for very large directories.
const readDirBatch = 1000

// Run walks roots concurrently with a pool of maxThread workers, returning
// every regular, non-empty, non-excluded, non-symlink file found. warn (may
// be nil) receives an ErrEnumeration-wrapped error for each directory that
// could not be opened or read and for each excluded entry, and an
// ErrFileMeta-wrapped error for each entry that could not be stat'd, each
// symlink, and each entry of an unsupported file type. All of these are
// skipped, not fatal.
//
// excludes is matched against each entry's full path; a match skips the
// entry (file or directory) entirely, including its subtree.
func Run(roots []string, excludes []*regexp.Regexp, maxThread int, warn func(error)) ([]types.FileEntry, error) {
	if maxThread < 1 {
		return nil, fmt.Errorf("%w: max_thread must be >= 1, got %d", types.ErrInvalidArgument, maxThread)
	}

	pool, err := ants.NewPool(maxThread)
	if err != nil {
		return nil, fmt.Errorf("%w: creating worker pool: %v", types.ErrResourceExhausted, err)
	}
	defer pool.Release()

	w := &walker{
		excludes: excludes,
		warn:     warn,
	}

	for _, root := range roots {
		w.wg.Add(1)
		r := root
		task := func() { w.walkDir(pool, r) }
		if submitErr := pool.Submit(task); submitErr != nil {
			// Submit blocks while the pool is saturated and only fails once
			// the pool is released, which happens after Wait; run inline
			// instead of dropping the root (walkDir itself marks wg done).
			task()
		}
	}
	w.wg.Wait()

	return w.inventory, nil
}

type walker struct {
	excludes []*regexp.Regexp
	warn     func(error)

	wg sync.WaitGroup

	mu        sync.Mutex
	inventory []types.FileEntry
}

func (w *walker) excluded(path string) bool {
	for _, re := range w.excludes {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

func (w *walker) warnf(format string, args ...any) {
	w.warnWith(types.ErrEnumeration, format, args...)
}

func (w *walker) warnMeta(format string, args ...any) {
	w.warnWith(types.ErrFileMeta, format, args...)
}

func (w *walker) warnWith(kind error, format string, args ...any) {
	if w.warn == nil {
		return
	}
	w.warn(fmt.Errorf("%w: "+format, append([]any{kind}, args...)...))
}

// walkDir lists one directory, buffers its regular files locally, and posts
// a fresh task for each subdirectory before merging its buffer into the
// shared inventory.
func (w *walker) walkDir(pool *ants.Pool, dir string) {
	defer w.wg.Done()

	f, err := os.Open(dir)
	if err != nil {
		w.warnf("opening directory %q: %v", dir, err)
		return
	}
	defer f.Close()

	var local []types.FileEntry

	for {
		names, err := f.Readdirnames(readDirBatch)
		for _, name := range names {
			path := filepath.Join(dir, name)
			if w.excluded(path) {
				w.warnf("excluded %q", path)
				continue
			}

			info, lerr := os.Lstat(path)
			if lerr != nil {
				w.warnMeta("stat %q: %v", path, lerr)
				continue
			}

			switch {
			case info.Mode()&os.ModeSymlink != 0:
				w.warnMeta("skipping symlink %q", path)
				continue
			case info.IsDir():
				w.wg.Add(1)
				sub := path
				task := func() { w.walkDir(pool, sub) }
				// Submit blocks while every worker is busy, and this
				// goroutine is one of those workers, so the submission is
				// handed to a new goroutine instead of waited on here.
				go func() {
					if submitErr := pool.Submit(task); submitErr != nil {
						task()
					}
				}()
			case info.Mode().IsRegular():
				if info.Size() == 0 {
					continue
				}
				local = append(local, newFileEntry(path, info))
			default:
				w.warnMeta("unsupported file type at %q", path)
			}
		}
		if err != nil {
			if err != io.EOF {
				w.warnf("reading directory %q: %v", dir, err)
			}
			break
		}
	}

	if len(local) > 0 {
		w.mu.Lock()
		w.inventory = append(w.inventory, local...)
		w.mu.Unlock()
	}
}
