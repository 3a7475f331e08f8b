//go:build unix

package action

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// orphanedTmpMaxAge is the minimum age for a leftover .dedupefind.tmp file
// to be treated as abandoned rather than belonging to a concurrent run.
const orphanedTmpMaxAge = 1 * time.Minute

// createHardlink links target atomically: link into a sibling temp file,
// then rename over target, so a crash mid-operation never leaves target
// missing or truncated.
func createHardlink(source, target string) error {
	tmp := target + ".dedupefind.tmp"

	err := os.Link(source, tmp)
	if errors.Is(err, syscall.EEXIST) {
		if cleanupErr := tryCleanupOrphanedTmp(tmp, orphanedTmpMaxAge); cleanupErr != nil {
			return fmt.Errorf("tmp file exists and cannot be cleaned: %w", cleanupErr)
		}
		err = os.Link(source, tmp)
	}
	if err != nil {
		return err
	}

	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// createSymlink replaces target atomically with a symlink to source,
// expressed as linkPath (caller decides relative vs absolute).
func createSymlink(linkPath, source, target string) error {
	if _, err := os.Stat(source); err != nil {
		return fmt.Errorf("source missing before symlink creation: %w", err)
	}

	tmp := target + ".dedupefind.tmp"

	err := os.Symlink(linkPath, tmp)
	if errors.Is(err, syscall.EEXIST) {
		if cleanupErr := tryCleanupOrphanedTmp(tmp, orphanedTmpMaxAge); cleanupErr != nil {
			return fmt.Errorf("tmp file exists and cannot be cleaned: %w", cleanupErr)
		}
		err = os.Symlink(linkPath, tmp)
	}
	if err != nil {
		return err
	}

	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// relativeLinkPath returns source expressed relative to target's directory,
// falling back to the absolute path if no relative path can be computed.
func relativeLinkPath(source, target string) string {
	rel, err := filepath.Rel(filepath.Dir(target), source)
	if err != nil {
		return source
	}
	return rel
}

// tryCleanupOrphanedTmp removes a stale .dedupefind.tmp file left behind by
// an interrupted Execute call. Safety criteria (both required):
//  1. The file is older than maxAge, so an in-flight sibling operation
//     can't be racing us.
//  2. It is a symlink, or a regular file with nlink > 1 — never the sole
//     remaining copy of its data.
func tryCleanupOrphanedTmp(path string, maxAge time.Duration) error {
	info, err := os.Lstat(path)
	if err != nil {
		return fmt.Errorf("lstat: %w", err)
	}

	if info.ModTime().After(time.Now().Add(-maxAge)) {
		return fmt.Errorf("file too recent (mtime %v)", info.ModTime())
	}

	mode := info.Mode()
	if mode&os.ModeSymlink != 0 {
		return os.Remove(path)
	}
	if !mode.IsRegular() {
		return fmt.Errorf("not a regular file or symlink (mode %v)", mode)
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return errors.New("cannot read syscall.Stat_t")
	}
	if stat.Nlink <= 1 {
		return fmt.Errorf("nlink=%d, may be the only copy of its data", stat.Nlink)
	}
	return os.Remove(path)
}
