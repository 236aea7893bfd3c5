package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrDebugDirNotEmpty is returned when the debug directory already holds files.
	ErrDebugDirNotEmpty = errors.New("debug directory is not empty")

	// ErrInvalidBox is returned when a region box is empty or outside the original.
	ErrInvalidBox = errors.New("invalid bounding box")

	// ErrStageCount is returned by RunPartial for a negative stage count.
	ErrStageCount = errors.New("invalid stage count")
)

// ConfigError reports a pipeline configuration problem detected before
// any stage runs.
type ConfigError struct {
	Option string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("pipeline configuration %s: %v", e.Option, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// StageError reports that a step failed. Stage is 1-based.
type StageError struct {
	Stage int
	Name  string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %d (%s) failed: %v", e.Stage, e.Name, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func errStage(index int, step Step, err error) error {
	return &StageError{Stage: index, Name: step.Name(), Err: err}
}
