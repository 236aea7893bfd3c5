package pipeline

import (
	"log"
	"time"
)

// Step is one stage of a pipeline.
//
// Process receives the stage's input records and returns its output.
// Three shapes are supported by the same contract:
//   - transform: one output per input, in order
//   - split: any number of outputs per input (e.g. one per contour)
//   - filter: an order-preserving subset of the input
//
// Implementations must be safe for concurrent use: they may hold
// immutable parameters and internally synchronized shared resources but
// no per-call mutable state. They must not modify input records; use
// Record.Clone or Record.WithImage before annotating.
type Step interface {
	Process(items []*Record, env *Env) ([]*Record, error)

	// Name is used in logs and for debug directory names.
	Name() string
}

// Observer receives one call per Step.Process invocation.
type Observer interface {
	ObserveStep(step string, in, out int, elapsed time.Duration)
}

// Env is the run-wide context handed to every step.
type Env struct {
	// Verbose enables progress logging.
	Verbose bool

	// RunID identifies the run in log lines.
	RunID string

	// Logger receives progress output. Never nil inside a run.
	Logger *log.Logger

	// Debug is the provenance writer, nil when debug output is off.
	Debug *DebugWriter

	// Observer is notified of step timings, nil when metrics are off.
	Observer Observer
}

// Logf logs a progress line when verbose output is enabled.
func (e *Env) Logf(format string, args ...any) {
	if e == nil || !e.Verbose || e.Logger == nil {
		return
	}
	e.Logger.Printf("[%s] "+format, append([]any{e.RunID}, args...)...)
}

func (e *Env) observe(step Step, in, out int, start time.Time) {
	if e.Observer != nil {
		e.Observer.ObserveStep(step.Name(), in, out, time.Since(start))
	}
}
