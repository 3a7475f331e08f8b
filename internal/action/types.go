package action

import (
	"fmt"
	"strings"
)

// Kind selects what Execute does with each duplicate: replace it with a
// hardlink or symlink to its canonical path, remove it outright, or merely
// log what would happen without touching the filesystem.
type Kind int

const (
	// Hardlink replaces Duplicate with a hardlink to Canonical. Fails with
	// an EXDEV-flavored error if the two paths are on different devices.
	Hardlink Kind = iota
	// SymlinkRelative replaces Duplicate with a symlink to Canonical,
	// expressed as a path relative to Duplicate's directory.
	SymlinkRelative
	// SymlinkAbsolute replaces Duplicate with a symlink to Canonical's
	// absolute path.
	SymlinkAbsolute
	// Remove deletes Duplicate outright, keeping no link to Canonical.
	Remove
	// Log performs no filesystem mutation; Execute still reports what each
	// pair would have done, for dry-run use.
	Log
)

func (k Kind) String() string {
	switch k {
	case Hardlink:
		return "hardlink"
	case SymlinkRelative:
		return "symlink-relative"
	case SymlinkAbsolute:
		return "symlink-absolute"
	case Remove:
		return "remove"
	case Log:
		return "log"
	default:
		return "unknown"
	}
}

// Pair names one duplicate file and the canonical copy it should be
// replaced by (or removed in favor of). Canonical is never itself touched.
type Pair struct {
	Duplicate string
	Canonical string
}

// Result describes the outcome of acting on one Pair.
type Result struct {
	Pair       Pair
	Kind       Kind
	Skipped    bool  // true if Execute declined to act (see Err)
	BytesFreed int64 // 0 when Skipped or Kind == Log
	Err        error // reason for a skip; nil otherwise
}

func (r Result) String() string {
	if r.Skipped {
		return fmt.Sprintf("skipped %s: %v", escapePath(r.Pair.Duplicate), r.Err)
	}
	switch r.Kind {
	case Hardlink:
		return fmt.Sprintf("replaced %s with hardlink to %s", escapePath(r.Pair.Duplicate), escapePath(r.Pair.Canonical))
	case SymlinkRelative, SymlinkAbsolute:
		return fmt.Sprintf("replaced %s with symlink to %s", escapePath(r.Pair.Duplicate), escapePath(r.Pair.Canonical))
	case Remove:
		return fmt.Sprintf("removed %s (duplicate of %s)", escapePath(r.Pair.Duplicate), escapePath(r.Pair.Canonical))
	case Log:
		return fmt.Sprintf("%s is a duplicate of %s", escapePath(r.Pair.Duplicate), escapePath(r.Pair.Canonical))
	default:
		return fmt.Sprintf("unknown action for %s", escapePath(r.Pair.Duplicate))
	}
}

func escapePath(path string) string {
	r := strings.NewReplacer("\t", "\\t", "\n", "\\n", "\r", "\\r")
	return r.Replace(path)
}
