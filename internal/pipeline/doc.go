// Package pipeline provides the composable step pipeline used for
// house-number detection.
//
// A Pipeline is an ordered list of Steps. Each Step turns a list of Records
// into a new list: it may transform items one-for-one, split one item into
// many (one image into its contour regions), or filter items out.
//
// # Records
//
// A Record carries its own pixels, a pointer to the run's shared Source
// (the untouched original image), an optional BoundingBox locating the
// record inside the original, and typed Metadata. Records for sub-regions
// are created with NewRegion so that boxes are always in the original's
// coordinate space.
//
// # Runners
//
// Run executes stages one after another on the whole working set.
// RunPartial stops after the first k stages. RunWithExecutor connects one
// worker group per stage with channels and tags every output with its
// Lineage, the list of 1-based output positions that led to it.
//
// Both runners yield the same set of records for the same input; only the
// order may differ.
//
// # Debug Output
//
// WithDebug enables a DebugWriter that saves the input and every stage's
// images into numbered subdirectories. The sequential runner numbers files
// by position; the executor names them by lineage, so "01-03-02.png" in
// stage 3 descends from "01-03.png" in stage 2.
//
// # Errors
//
// Configuration problems are reported as *ConfigError before any stage
// runs. A failing step aborts the run with a *StageError. Items removed
// by a filter are not errors.
package pipeline
