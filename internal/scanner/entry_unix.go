//go:build unix

package scanner

import (
	"os"
	"syscall"

	"github.com/cclin0816/dedupefind/internal/types"
)

// newFileEntry builds a types.FileEntry from a path and its already-stat'd
// os.FileInfo, pulling device/inode/link-count from the platform-specific
// syscall.Stat_t so the comparator's hard-link fast path needs no further
// stat calls.
func newFileEntry(path string, info os.FileInfo) types.FileEntry {
	stat := info.Sys().(*syscall.Stat_t)
	return types.FileEntry{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Dev:     uint64(stat.Dev), //nolint:unconvert // platform-dependent type
		Ino:     stat.Ino,
		Nlink:   uint32(stat.Nlink),
	}
}
