// Command dedupefind is the reference CLI driver for the duplicate
// detection engine: it wires internal/engine.Dedupe to a small flag set and
// prints the resulting groups.
package main

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/cclin0816/dedupefind/internal/engine"
	"github.com/cclin0816/dedupefind/internal/logx"
	"github.com/cclin0816/dedupefind/internal/progress"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}

type options struct {
	searchDirs   []string
	excludeRegex []string
	maxThread    int
	print        bool
}

func newRootCmd() *cobra.Command {
	opts := &options{maxThread: 4}

	cmd := &cobra.Command{
		Use:     "dedupefind",
		Short:   "Find duplicate files by content",
		Version: version,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runDedupe(opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.searchDirs, "input", "i", nil, "search root (repeatable)")
	cmd.Flags().StringSliceVarP(&opts.excludeRegex, "exclude", "e", nil, "exclusion regex pattern (repeatable)")
	cmd.Flags().IntVarP(&opts.maxThread, "jobs", "j", opts.maxThread, "worker count, in [1,256]")
	cmd.Flags().BoolVarP(&opts.print, "print", "p", false, "print duplicate groups to stdout")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runDedupe(opts *options) error {
	excludes, err := compileExcludes(opts.excludeRegex)
	if err != nil {
		return fmt.Errorf("invalid --exclude: %w", err)
	}

	showProgress := term.IsTerminal(int(os.Stderr.Fd()))
	spin := progress.Spinner(showProgress)

	// dispatchTotal stays -1 while the enumeration phase runs (no known
	// total yet); once the orchestrator partitions the inventory into
	// size-runs, it reports the dispatch total exactly once and the
	// spinner hands off to a determinate bar tracking completed runs.
	var dispatchTotal int64 = -1
	var dispatchDone int64
	hooks := &engine.ProgressHooks{
		DispatchStarted: func(n int) { atomic.StoreInt64(&dispatchTotal, int64(n)) },
		DispatchStep:    func() { atomic.AddInt64(&dispatchDone, 1) },
	}

	type outcome struct {
		groups [][]string
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		groups, err := engine.Dedupe(context.Background(), opts.searchDirs, excludes, opts.maxThread, logx.Default.ReportFunc(), hooks)
		done <- outcome{groups, err}
	}()

	var result outcome
	var bar *progress.Bar
	var lastDone int64
waitLoop:
	for {
		select {
		case result = <-done:
			break waitLoop
		case <-time.After(100 * time.Millisecond):
			total := atomic.LoadInt64(&dispatchTotal)
			if total < 0 {
				spin.Add(1)
				continue
			}
			if bar == nil {
				bar = progress.Determinate(showProgress, total)
			}
			if d := atomic.LoadInt64(&dispatchDone); d > lastDone {
				bar.Add(d - lastDone)
				lastDone = d
			}
		}
	}

	if result.err != nil {
		logx.Default.Err("%v", result.err)
		return result.err
	}

	if bar != nil {
		bar.Finish(summary(result.groups))
	} else {
		spin.Finish(summary(result.groups))
	}
	logx.Default.Log("found %d duplicate group(s)", len(result.groups))

	if opts.print {
		printGroups(result.groups)
	}
	return nil
}

type summary [][]string

func (s summary) String() string {
	var freed int64
	for _, g := range s {
		if len(g) < 2 {
			continue
		}
		if info, err := os.Stat(g[0]); err == nil {
			freed += info.Size() * int64(len(g)-1)
		}
	}
	return fmt.Sprintf("%d duplicate group(s), ~%s reclaimable", len(s), humanize.IBytes(uint64(freed)))
}

func compileExcludes(patterns []string) ([]*regexp.Regexp, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		out[i] = re
	}
	return out, nil
}

func printGroups(groups [][]string) {
	for i, g := range groups {
		if i > 0 {
			fmt.Println("----")
		}
		for _, p := range g {
			fmt.Println(p)
		}
	}
}
