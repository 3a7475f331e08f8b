package types

import "errors"

// Sentinel error kinds, matching the error-kind table of the duplicate
// detection design: each is wrapped with context via fmt.Errorf("...: %w")
// at its raise site so callers can errors.Is/errors.As against it.
var (
	// ErrEnumeration marks a directory listing failure (permissions, races).
	// Policy: log warn, skip the directory.
	ErrEnumeration = errors.New("enumeration error")

	// ErrFileMeta marks a failure to stat a directory entry.
	// Policy: log warn, skip the file.
	ErrFileMeta = errors.New("file metadata error")

	// ErrFileOpen marks a failure to open a file during lazy fingerprint
	// materialization. Policy: log err, poison the comparator.
	ErrFileOpen = errors.New("file open error")

	// ErrShortRead marks a read that ended before the expected number of
	// bytes during lazy fingerprint materialization (other read failures
	// are ErrHash). Policy: log err, poison the comparator.
	ErrShortRead = errors.New("short read error")

	// ErrHash marks a failure inside the fingerprint engine itself.
	// Policy: propagate; the caller poisons the comparator.
	ErrHash = errors.New("hash error")

	// ErrResourceExhausted marks a failure to allocate a hasher, buffer, or
	// worker pool. Policy: fatal to the current Dedupe invocation.
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrInvalidArgument marks an invalid entry-point argument (e.g. a
	// worker count outside [1,256]). Policy: fatal to the invocation.
	ErrInvalidArgument = errors.New("invalid argument")
)
