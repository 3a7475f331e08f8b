package testfs

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

// Sow materializes spec under root, creating parent directories as needed.
func Sow(root string, spec FileTree) error {
	for _, f := range spec.Files {
		if err := sowFile(root, f); err != nil {
			return fmt.Errorf("sow file %v: %w", f.Path, err)
		}
	}
	for _, s := range spec.Symlinks {
		if err := sowSymlink(root, s); err != nil {
			return fmt.Errorf("sow symlink %s: %w", s.Path, err)
		}
	}
	return nil
}

func sowFile(root string, f File) error {
	if len(f.Path) == 0 {
		return nil
	}

	first := filepath.Join(root, f.Path[0])
	if err := writeChunkedFile(first, f.Chunks); err != nil {
		return err
	}

	for _, p := range f.Path[1:] {
		link := filepath.Join(root, p)
		if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
			return err
		}
		if err := os.Link(first, link); err != nil {
			return fmt.Errorf("hardlink %s -> %s: %w", link, first, err)
		}
	}
	return nil
}

func writeChunkedFile(path string, chunks []Chunk) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	const maxBuf = 1 << 20
	for _, c := range chunks {
		size, err := humanize.ParseBytes(c.Size)
		if err != nil {
			return fmt.Errorf("parse chunk size %q: %w", c.Size, err)
		}
		bufSize := int(size)
		if bufSize > maxBuf {
			bufSize = maxBuf
		}
		if bufSize == 0 {
			continue
		}
		buf := bytes.Repeat([]byte{c.Pattern}, bufSize)
		remaining := int64(size)
		for remaining > 0 {
			n := int64(len(buf))
			if remaining < n {
				n = remaining
			}
			if _, err := f.Write(buf[:n]); err != nil {
				return err
			}
			remaining -= n
		}
	}
	return nil
}

func sowSymlink(root string, s Symlink) error {
	link := filepath.Join(root, s.Path)
	if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
		return err
	}
	return os.Symlink(s.Target, link)
}
