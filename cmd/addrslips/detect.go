package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ironsheep/addrslips/internal/config"
	"github.com/ironsheep/addrslips/internal/imaging"
	"github.com/ironsheep/addrslips/internal/runner"
	"github.com/ironsheep/addrslips/internal/store"
)

type detectOptions struct {
	image         string
	verbose       bool
	skipOCR       bool
	sequential    bool
	workers       int
	jsonOut       bool
	configPath    string
	debugOut      string
	dbPath        string
	area          string
	areaColor     string
	metricsOut    string
	annotateOut   string
	annotateColor string
}

// detectReport is the --json output.
type detectReport struct {
	*runner.Result
	Image  string `json:"image"`
	AreaID int64  `json:"area_id,omitempty"`
}

func parseDetectFlags(args []string, stderr io.Writer) (detectOptions, error) {
	var o detectOptions
	fs := flag.NewFlagSet("detect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: addrslips detect <image> [options]")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
	}
	fs.BoolVar(&o.verbose, "verbose", false, "log progress of every pipeline step")
	fs.BoolVar(&o.skipOCR, "skip-ocr", false, "stop after white-circle detection")
	fs.BoolVar(&o.sequential, "sequential", false, "use the sequential runner instead of the executor")
	fs.IntVar(&o.workers, "workers", 0, "goroutines per stage (0 keeps the configured value)")
	fs.BoolVar(&o.jsonOut, "json", false, "print results as JSON")
	fs.StringVar(&o.configPath, "config", "", "YAML parameter file")
	fs.StringVar(&o.debugOut, "debug-out", "", "write every stage's images to this empty directory")
	fs.StringVar(&o.dbPath, "db", "", "store detections in this SQLite project file")
	fs.StringVar(&o.area, "area", "", "area name for --db (default: image file name)")
	fs.StringVar(&o.areaColor, "area-color", "#3388FF", "area display color for --db")
	fs.StringVar(&o.metricsOut, "metrics-out", "", "write Prometheus stage metrics to this file")
	fs.StringVar(&o.annotateOut, "annotate-out", "", "write a copy of the image with detections outlined")
	fs.StringVar(&o.annotateColor, "annotate-color", "#FF0000", "outline color for --annotate-out")

	// Accept the image path before or after the options.
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		o.image = args[0]
		args = args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.image == "" {
		o.image = fs.Arg(0)
	} else if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	if o.image == "" {
		fs.Usage()
		return o, errors.New("missing image path")
	}
	return o, nil
}

// loadConfig layers defaults, the YAML file, the environment and the
// command-line flags, in that order.
func loadConfig(o detectOptions, lookup func(string) (string, bool)) (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return cfg, err
	}
	if err := config.ApplyEnv(&cfg, lookup); err != nil {
		return cfg, err
	}
	if o.skipOCR {
		cfg.OCR.Skip = true
	}
	if o.sequential {
		cfg.Run.Sequential = true
	}
	if o.workers > 0 {
		cfg.Run.Workers = o.workers
	}
	return cfg, cfg.Validate()
}

func runDetect(args []string, stdout io.Writer, lookup func(string) (string, bool)) error {
	o, err := parseDetectFlags(args, os.Stderr)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(o, lookup)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := log.New(os.Stderr, "", log.Ltime)
	r, err := runner.New(cfg, logger)
	if err != nil {
		return err
	}
	defer r.Close()

	runID := uuid.NewString()
	if o.verbose {
		logger.Printf("[%s] Loading image: %s", runID, o.image)
		if v := r.OCRVersion(); v != "" {
			logger.Printf("[%s] Tesseract %s", runID, v)
		}
	}
	res, err := r.DetectFile(o.image, runner.Options{
		Verbose:  o.verbose,
		DebugDir: o.debugOut,
		RunID:    runID,
	})
	if err != nil {
		return err
	}

	report := detectReport{Result: res, Image: o.image}

	if o.dbPath != "" {
		area, err := saveToProject(context.Background(), o, res)
		if err != nil {
			return err
		}
		report.AreaID = area.ID
		if o.verbose {
			logger.Printf("[%s] Saved %d addresses to area %d in %s", runID, len(res.Detections), area.ID, o.dbPath)
		}
	}

	if o.annotateOut != "" {
		if err := imaging.Save(runner.Annotate(res.Source, res.Detections, o.annotateColor), o.annotateOut); err != nil {
			return err
		}
	}

	if o.metricsOut != "" {
		if err := res.Metrics.WriteTextfile(o.metricsOut); err != nil {
			return err
		}
	}

	if o.jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(stdout, report)
	return nil
}

// saveToProject stores the detections under the area for this image,
// creating the area on first use.
func saveToProject(ctx context.Context, o detectOptions, res *runner.Result) (store.Area, error) {
	c, err := imaging.ParseHexColor(o.areaColor)
	if err != nil {
		return store.Area{}, fmt.Errorf("invalid --area-color: %w", err)
	}
	imagePath, err := filepath.Abs(o.image)
	if err != nil {
		return store.Area{}, fmt.Errorf("failed to resolve image path: %w", err)
	}
	name := o.area
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(o.image), filepath.Ext(o.image))
	}

	s, err := store.Open(o.dbPath)
	if err != nil {
		return store.Area{}, err
	}
	defer s.Close()

	return s.RecordRun(ctx, store.NewArea{
		Name:      name,
		Color:     store.Color{R: c.R, G: c.G, B: c.B},
		ImagePath: imagePath,
	}, res.RunID, res.Detections)
}

func printReport(w io.Writer, r detectReport) {
	if !r.OCR {
		fmt.Fprintln(w, "=== White Circle Detection Results ===")
		fmt.Fprintf(w, "Total white circles detected: %d\n", len(r.Detections))
		if len(r.Detections) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Detected circles:")
			for i, d := range r.Detections {
				fmt.Fprintf(w, "  Circle %d at (%d, %d) - radius: %.1f, brightness: %.1f\n",
					i+1, d.X, d.Y, d.Radius, d.Brightness)
			}
		}
		return
	}

	fmt.Fprintln(w, "=== House Number Detection Results ===")
	fmt.Fprintf(w, "Total detections: %d\n", len(r.Detections))
	if len(r.Detections) == 0 {
		fmt.Fprintln(w, "No house numbers detected.")
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Detected house numbers:")
	for _, d := range r.Detections {
		fmt.Fprintf(w, "  %s at (%d, %d) - confidence: %.2f\n", d.Text, d.X, d.Y, d.Confidence)
	}
}
