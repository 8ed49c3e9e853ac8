// Package telemetry wires structured logging for the searchers via
// zerolog. Logging here is strictly observational: nothing in this
// package affects weight updates, percentile answers, or flakiness
// estimates, and it is safe to disable entirely.
package telemetry

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu     sync.Mutex
	logger = zerolog.New(os.Stderr).Level(zerolog.Disabled).With().Timestamp().Logger()
)

// SetLevel changes the global logging level. Pass zerolog.Disabled (the
// default) to silence all output.
func SetLevel(level zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()
	logger = logger.Level(level)
}

// Log returns the package-level logger.
func Log() *zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return &logger
}

// ReportEvent logs one report() call at debug level: the probed index,
// the oracle's answer, and the stiffness that was applied.
func ReportEvent(component string, index int, heads bool, stiffness float64) {
	Log().Debug().
		Str("component", component).
		Int("index", index).
		Bool("heads", heads).
		Float64("stiffness", stiffness).
		Msg("report")
}

// SplitEvent logs a RangeMap split at debug level: the entry count before
// and after, useful for confirming the run-length compression stays
// small in practice.
func SplitEvent(component string, entriesBefore, entriesAfter int) {
	Log().Debug().
		Str("component", component).
		Int("entries_before", entriesBefore).
		Int("entries_after", entriesAfter).
		Msg("split")
}
