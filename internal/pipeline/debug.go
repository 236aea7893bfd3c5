package pipeline

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
)

// InputDirName is the debug subdirectory holding the raw input (stage 00).
const InputDirName = "00_input"

// DebugWriter persists every stage's output images for inspection.
//
// Layout:
//
//	<dir>/00_input/01.png
//	<dir>/NN_<step_name>/<index>.png              (sequential runner)
//	<dir>/NN_<step_name>/<lineage path>.png       (lineage executor)
//
// DebugWriter is safe for concurrent use by stage workers.
type DebugWriter struct {
	dir string
	ext string

	mu   sync.Mutex
	made map[string]bool
}

// NewDebugWriter prepares dir for a run. The directory is created if it
// does not exist; an existing directory must be empty. On failure the
// directory is left untouched.
func NewDebugWriter(dir string) (*DebugWriter, error) {
	if dir == "" {
		return nil, &ConfigError{Option: "debug directory", Err: fmt.Errorf("empty path")}
	}

	info, err := os.Stat(dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return nil, &ConfigError{Option: "debug directory", Err: fmt.Errorf("%s is not a directory", dir)}
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, &ConfigError{Option: "debug directory", Err: fmt.Errorf("failed to read %s: %w", dir, err)}
		}
		if len(entries) > 0 {
			return nil, &ConfigError{Option: "debug directory", Err: fmt.Errorf("%w: %s", ErrDebugDirNotEmpty, dir)}
		}
	case os.IsNotExist(err):
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, &ConfigError{Option: "debug directory", Err: fmt.Errorf("failed to create %s: %w", dir, err)}
		}
	default:
		return nil, &ConfigError{Option: "debug directory", Err: err}
	}

	return &DebugWriter{
		dir:  dir,
		ext:  "png",
		made: make(map[string]bool),
	}, nil
}

// Dir returns the root debug directory.
func (w *DebugWriter) Dir() string { return w.dir }

// Ext returns the image file extension used for every artifact.
func (w *DebugWriter) Ext() string { return w.ext }

// StageDirName returns the subdirectory name for a 1-based stage index,
// e.g. "03_edge_detection".
func StageDirName(index int, name string) string {
	return fmt.Sprintf("%02d_%s", index, strings.ReplaceAll(strings.ToLower(name), " ", "_"))
}

// WriteInput saves the raw input image.
func (w *DebugWriter) WriteInput(img image.Image) error {
	return w.save(InputDirName, Lineage(nil).Filename(w.ext), img)
}

// WriteStage saves a stage's output with flat numbering (01.png, 02.png...).
// The stage directory is created even when the stage produced nothing.
func (w *DebugWriter) WriteStage(index int, name string, items []*Record) error {
	sub := StageDirName(index, name)
	if err := w.ensureDir(sub); err != nil {
		return err
	}
	for i, item := range items {
		if err := w.save(sub, fmt.Sprintf("%02d.%s", i+1, w.ext), item.Image); err != nil {
			return err
		}
	}
	return nil
}

// WriteLineage saves one executor output under its lineage filename.
func (w *DebugWriter) WriteLineage(index int, name string, rec *Record) error {
	return w.save(StageDirName(index, name), rec.Lineage.Filename(w.ext), rec.Image)
}

func (w *DebugWriter) ensureDir(sub string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.made[sub] {
		return nil
	}
	if err := os.MkdirAll(filepath.Join(w.dir, sub), 0755); err != nil {
		return fmt.Errorf("failed to create debug directory %s: %w", sub, err)
	}
	w.made[sub] = true
	return nil
}

func (w *DebugWriter) save(sub, file string, img image.Image) error {
	if err := w.ensureDir(sub); err != nil {
		return err
	}
	if img == nil || img.Bounds().Empty() {
		return fmt.Errorf("failed to save debug image %s/%s: empty image", sub, file)
	}
	if err := imaging.Save(img, filepath.Join(w.dir, sub, file)); err != nil {
		return fmt.Errorf("failed to save debug image %s/%s: %w", sub, file, err)
	}
	return nil
}
