// Package action is the remove/link action executor: the mutating
// collaborator the core engine never imports. It consumes the
// (duplicate_path, canonical_path) pairs a caller derives from a
// DuplicateGroup and performs exactly one of a small family of filesystem
// actions on each, atomically and safely.
package action

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// Execute performs kind on every pair, stopping early only if ctx is
// canceled. Each pair is independent: a failure on one does not prevent
// the rest from running. The returned slice has one Result per input pair,
// in order.
//
// Before any mutation, Execute re-opens the duplicate file, takes a
// non-blocking exclusive advisory lock, and re-stats it: if the lock can't
// be acquired (another process holds a lock on it) or its mtime no longer
// matches what the caller recorded, the pair is skipped rather than acted
// on — a file scanned minutes or hours earlier may have changed underfoot
// by the time an action gets around to it.
func Execute(ctx context.Context, pairs []Pair, kind Kind, wantModTime func(path string) (modTimeUnixNano int64, ok bool)) []Result {
	results := make([]Result, len(pairs))
	for i, p := range pairs {
		if err := ctx.Err(); err != nil {
			results[i] = Result{Pair: p, Kind: kind, Skipped: true, Err: err}
			continue
		}
		results[i] = execOne(p, kind, wantModTime)
	}
	return results
}

func execOne(p Pair, kind Kind, wantModTime func(path string) (int64, bool)) Result {
	if kind == Log {
		return Result{Pair: p, Kind: kind}
	}

	f, err := os.Open(p.Duplicate)
	if err != nil {
		return Result{Pair: p, Kind: kind, Skipped: true, Err: err}
	}
	defer f.Close()

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		return Result{Pair: p, Kind: kind, Skipped: true, Err: errors.New("file in use (locked by another process)")}
	}

	info, err := f.Stat()
	if err != nil {
		return Result{Pair: p, Kind: kind, Skipped: true, Err: err}
	}
	if wantModTime != nil {
		if want, ok := wantModTime(p.Duplicate); ok && want != info.ModTime().UnixNano() {
			return Result{Pair: p, Kind: kind, Skipped: true, Err: errors.New("file modified since scan")}
		}
	}

	switch kind {
	case Remove:
		if err := os.Remove(p.Duplicate); err != nil {
			return Result{Pair: p, Kind: kind, Skipped: true, Err: err}
		}
		return Result{Pair: p, Kind: kind, BytesFreed: info.Size()}

	case Hardlink:
		if err := createHardlink(p.Canonical, p.Duplicate); err != nil {
			if errors.Is(err, syscall.EXDEV) {
				return Result{Pair: p, Kind: kind, Skipped: true, Err: fmt.Errorf("cannot hardlink across device boundaries: %w", err)}
			}
			return Result{Pair: p, Kind: kind, Skipped: true, Err: err}
		}
		return Result{Pair: p, Kind: kind, BytesFreed: info.Size()}

	case SymlinkRelative:
		link := relativeLinkPath(p.Canonical, p.Duplicate)
		if err := createSymlink(link, p.Canonical, p.Duplicate); err != nil {
			return Result{Pair: p, Kind: kind, Skipped: true, Err: err}
		}
		return Result{Pair: p, Kind: kind, BytesFreed: info.Size()}

	case SymlinkAbsolute:
		abs, err := filepath.Abs(p.Canonical)
		if err != nil {
			return Result{Pair: p, Kind: kind, Skipped: true, Err: err}
		}
		if err := createSymlink(abs, p.Canonical, p.Duplicate); err != nil {
			return Result{Pair: p, Kind: kind, Skipped: true, Err: err}
		}
		return Result{Pair: p, Kind: kind, BytesFreed: info.Size()}

	default:
		return Result{Pair: p, Kind: kind, Skipped: true, Err: fmt.Errorf("unknown action kind %v", kind)}
	}
}
