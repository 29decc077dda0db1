// Package cli implements the simpg command-line interface.
//
// Every pipeline stage has its own command so intermediate artifacts (the
// built graph, the walk store, the core list and the population graph) can
// be produced once and reused; the run command chains all of them.
//
// # Commands
//
//   - build: construct the variation graph from an rGFA and a BED file
//   - walks extract | browse: derive per-sample walks, or page through them
//   - core, population: reduce the walks
//   - simulate, subsample: write FASTA and rvcf outputs
//   - run: the whole pipeline
//   - inspect: summarize a graph file, optionally as DOT, SVG or PNG
//   - samples expand, cache clear | path, completion
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. A single
// charmbracelet logger is created in main and handed to every stage.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
// It is safe for sequential use by a single goroutine; concurrent calls to done will race.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Extracted 44 walks (1m2.345s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
