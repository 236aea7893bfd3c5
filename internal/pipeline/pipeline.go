package pipeline

import (
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
)

// Pipeline is an ordered list of steps plus run-wide configuration.
//
// Building a pipeline only assembles the sequence; nothing runs until Run,
// RunPartial or RunWithExecutor is called. A Pipeline may be run more than
// once, but a debug directory can only be filled by one run.
type Pipeline struct {
	steps    []Step
	verbose  bool
	logger   *log.Logger
	debug    *DebugWriter
	observer Observer
	workers  int
	runID    string
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithVerbose enables progress logging.
func WithVerbose(verbose bool) Option {
	return func(p *Pipeline) error {
		p.verbose = verbose
		return nil
	}
}

// WithLogger sets the progress logger. The default writes to stderr.
func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) error {
		if l != nil {
			p.logger = l
		}
		return nil
	}
}

// WithDebug enables the provenance writer. The directory must not exist
// or must be empty; the check happens here, before any stage runs.
func WithDebug(dir string) Option {
	return func(p *Pipeline) error {
		w, err := NewDebugWriter(dir)
		if err != nil {
			return err
		}
		p.debug = w
		return nil
	}
}

// WithObserver attaches a step observer (e.g. metrics).
func WithObserver(o Observer) Option {
	return func(p *Pipeline) error {
		p.observer = o
		return nil
	}
}

// WithStageWorkers sets how many goroutines serve each stage in the
// lineage executor. The default is 1.
func WithStageWorkers(n int) Option {
	return func(p *Pipeline) error {
		if n < 1 {
			return &ConfigError{Option: "stage workers", Err: fmt.Errorf("must be at least 1, got %d", n)}
		}
		p.workers = n
		return nil
	}
}

// WithRunID fixes the run identifier used in log lines, e.g. to match
// rows persisted by the caller. By default every run gets a fresh UUID.
func WithRunID(id string) Option {
	return func(p *Pipeline) error {
		p.runID = id
		return nil
	}
}

// New creates an empty pipeline.
func New(opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		logger:  log.New(os.Stderr, "", log.Ldate|log.Ltime),
		workers: 1,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// AddStep appends a step and returns p for chaining.
func (p *Pipeline) AddStep(s Step) *Pipeline {
	p.steps = append(p.steps, s)
	return p
}

// Steps returns a copy of the step list.
func (p *Pipeline) Steps() []Step {
	out := make([]Step, len(p.steps))
	copy(out, p.steps)
	return out
}

// Len returns the number of steps.
func (p *Pipeline) Len() int { return len(p.steps) }

// Debug returns the provenance writer, or nil.
func (p *Pipeline) Debug() *DebugWriter { return p.debug }

func (p *Pipeline) newEnv() *Env {
	id := p.runID
	if id == "" {
		id = uuid.New().String()
	}
	return &Env{
		Verbose:  p.verbose,
		RunID:    id,
		Logger:   p.logger,
		Debug:    p.debug,
		Observer: p.observer,
	}
}
