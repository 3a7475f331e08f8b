// Package logx is the stderr log surface shared by the engine, scanner,
// comparator, and CLI: three tags, one mutex-guarded writer, no structured
// logging framework — a synchronized fmt.Fprintf sink is all this needs.
package logx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cclin0816/dedupefind/internal/types"
)

// Logger serializes writes to an underlying io.Writer so concurrent
// goroutines can log without interleaving partial lines.
type Logger struct {
	mu sync.Mutex
	w  io.Writer
}

// New returns a Logger writing to w.
func New(w io.Writer) *Logger { return &Logger{w: w} }

// Default is the package-level Logger writing to os.Stderr, convenient for
// components that don't thread a *Logger through their constructors.
var Default = New(os.Stderr)

// Log writes a "[log] " line: routine progress information.
func (l *Logger) Log(format string, args ...any) { l.line("log", format, args...) }

// Warn writes a "[warn] " line: a recoverable error, a skipped file or
// directory.
func (l *Logger) Warn(format string, args ...any) { l.line("warn", format, args...) }

// Err writes a "[err] " line: a file that could not be opened or read in
// full (see ReportFunc), or a fatal condition the caller is about to abort
// on.
func (l *Logger) Err(format string, args ...any) { l.line("err", format, args...) }

func (l *Logger) line(tag, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "[%s] %s\n", tag, fmt.Sprintf(format, args...))
}

// ReportFunc adapts l to the warn(error) callback shape threaded through
// the scanner/comparator/dedup/engine packages. Most error kinds are
// logged at [warn]; ErrFileOpen and ErrShortRead are logged at [err]
// instead, matching the "log err, poison comparator" policy on those two
// kinds in internal/types/errors.go.
func (l *Logger) ReportFunc() func(error) {
	return func(err error) {
		if err == nil {
			return
		}
		if errors.Is(err, types.ErrFileOpen) || errors.Is(err, types.ErrShortRead) {
			l.Err("%v", err)
			return
		}
		l.Warn("%v", err)
	}
}
