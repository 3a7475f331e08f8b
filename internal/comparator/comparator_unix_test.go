//go:build unix

package comparator

import (
	"os"
	"syscall"
	"testing"
)

func statT(t *testing.T, info os.FileInfo) statFields {
	t.Helper()
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		t.Fatal("unable to read syscall.Stat_t")
	}
	return statFields{
		dev:   uint64(stat.Dev), //nolint:unconvert // platform-dependent type
		ino:   stat.Ino,
		nlink: uint32(stat.Nlink),
	}
}
