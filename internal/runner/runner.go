// Package runner performs complete detection runs: it owns the OCR engine,
// assembles the configured pipeline for each request and turns the
// surviving records into sorted detections.
//
// A Runner is shared by the CLI (one run) and the MCP server (many runs).
// The Tesseract engine is initialized once by New and reused by every run.
package runner

import (
	"fmt"
	"image"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/ironsheep/addrslips/internal/config"
	"github.com/ironsheep/addrslips/internal/detection"
	"github.com/ironsheep/addrslips/internal/imaging"
	"github.com/ironsheep/addrslips/internal/metrics"
	"github.com/ironsheep/addrslips/internal/ocr"
	"github.com/ironsheep/addrslips/internal/pipeline"
)

// Options tune a single run.
type Options struct {
	// SkipOCR stops after white-circle detection. Runs of a Runner
	// created with OCR skipped always stop there.
	SkipOCR bool

	// Sequential selects the sequential runner instead of the executor.
	Sequential bool

	// Verbose logs every step.
	Verbose bool

	// DebugDir, when set, receives every stage's images. It must be empty.
	DebugDir string

	// RunID names the run in logs and stored rows. A new UUID if empty.
	RunID string
}

// Result is the outcome of one run.
type Result struct {
	RunID      string                `json:"run_id"`
	Info       imaging.ImageInfo     `json:"info"`
	OCR        bool                  `json:"ocr"`
	Detections []detection.Detection `json:"detections"`

	// Source is the decoded input image.
	Source image.Image `json:"-"`

	// Metrics holds the stage statistics of this run.
	Metrics *metrics.Recorder `json:"-"`
}

// Runner executes detection runs with a fixed configuration.
type Runner struct {
	cfg    config.Config
	engine *ocr.Engine
	logger *log.Logger
}

// New validates cfg and, unless OCR is skipped, initializes Tesseract so
// that a broken installation is reported before any image is processed.
func New(cfg config.Config, logger *log.Logger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = log.New(os.Stderr, "", log.Ltime)
	}
	r := &Runner{cfg: cfg, logger: logger}
	if !cfg.OCR.Skip {
		r.engine = ocr.NewEngine(cfg.OCROptions())
		if err := r.engine.Init(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Config returns the runner's configuration.
func (r *Runner) Config() config.Config { return r.cfg }

// OCREnabled reports whether runs can read house numbers.
func (r *Runner) OCREnabled() bool { return r.engine != nil }

// OCRVersion reports the Tesseract version, or "" without OCR.
func (r *Runner) OCRVersion() string {
	if r.engine == nil {
		return ""
	}
	return r.engine.Version()
}

// Close releases the OCR engine.
func (r *Runner) Close() error {
	if r.engine == nil {
		return nil
	}
	return r.engine.Close()
}

// DetectFile loads path and runs detection on it.
func (r *Runner) DetectFile(path string, opts Options) (*Result, error) {
	img, err := imaging.Load(path)
	if err != nil {
		return nil, err
	}
	res, err := r.Detect(img, opts)
	if err != nil {
		return nil, err
	}
	res.Info = imaging.Describe(img, path)
	return res, nil
}

// Detect runs the configured pipeline on img.
func (r *Runner) Detect(img image.Image, opts Options) (*Result, error) {
	skip := opts.SkipOCR || r.engine == nil
	var recognizer ocr.Recognizer
	if !skip {
		recognizer = r.engine
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	recorder := metrics.NewRecorder()

	po := []pipeline.Option{
		pipeline.WithVerbose(opts.Verbose),
		pipeline.WithLogger(r.logger),
		pipeline.WithRunID(runID),
		pipeline.WithObserver(recorder),
	}
	if opts.DebugDir != "" {
		po = append(po, pipeline.WithDebug(opts.DebugDir))
	}

	cfg := r.cfg
	cfg.OCR.Skip = skip
	p, err := config.Build(cfg, recognizer, po...)
	if err != nil {
		return nil, err
	}

	var items []*pipeline.Record
	if opts.Sequential || cfg.Run.Sequential {
		items, err = p.Run(img)
	} else {
		items, err = p.RunWithExecutor(img)
	}
	if err != nil {
		return nil, err
	}

	ds := detection.Collect(items)
	detection.SortByPosition(ds)
	recorder.SetDetections(len(ds))

	return &Result{
		RunID:      runID,
		Info:       imaging.Describe(img, ""),
		Source:     img,
		OCR:        !skip,
		Detections: ds,
		Metrics:    recorder,
	}, nil
}

// Annotate returns a copy of img with every detection outlined and
// labeled with its text (or its 1-based index when unread).
func Annotate(img image.Image, ds []detection.Detection, hex string) *image.RGBA {
	marks := make([]imaging.Mark, 0, len(ds))
	for i, d := range ds {
		rad := int(d.Radius + 0.5)
		label := d.Text
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
		}
		marks = append(marks, imaging.Mark{
			Rect:  image.Rect(d.X-rad, d.Y-rad, d.X+rad+1, d.Y+rad+1),
			Label: label,
		})
	}
	return imaging.Annotate(img, marks, hex)
}
