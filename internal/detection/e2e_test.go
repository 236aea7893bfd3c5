package detection

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/ironsheep/addrslips/internal/detection/testimage"
	"github.com/ironsheep/addrslips/internal/ocr"
	"github.com/ironsheep/addrslips/internal/pipeline"
)

// fixedRecognizer answers "42" for every crop.
var fixedRecognizer = ocr.RecognizerFunc(func(img image.Image) (ocr.Result, error) {
	return ocr.Result{Text: "42", Confidence: 0.9}, nil
})

func buildPipeline(t *testing.T, steps []pipeline.Step, opts ...pipeline.Option) *pipeline.Pipeline {
	t.Helper()
	p, err := pipeline.New(opts...)
	if err != nil {
		t.Fatalf("pipeline.New failed: %v", err)
	}
	for _, s := range steps {
		p.AddStep(s)
	}
	return p
}

func TestDefaultStepsShape(t *testing.T) {
	withOCR := DefaultSteps(fixedRecognizer)
	withoutOCR := DefaultSteps(nil)
	if len(withOCR) != len(withoutOCR)+1 {
		t.Fatalf("Expected OCR to add exactly one step: %d vs %d", len(withOCR), len(withoutOCR))
	}
	if name := withOCR[len(withOCR)-1].Name(); name != "OCR Recognition" {
		t.Errorf("Last step = %q, want OCR Recognition", name)
	}
	if name := withoutOCR[len(withoutOCR)-1].Name(); name != "Upscale" {
		t.Errorf("Last step without OCR = %q, want Upscale", name)
	}
}

func TestEndToEndNoCircles(t *testing.T) {
	img := createUniformImage(200, 200, color.Gray{Y: 80})
	for _, useExecutor := range []bool{false, true} {
		p := buildPipeline(t, DefaultSteps(fixedRecognizer))
		run := p.Run
		if useExecutor {
			run = p.RunWithExecutor
		}
		items, err := run(img)
		if err != nil {
			t.Fatalf("Run (executor=%v) failed: %v", useExecutor, err)
		}
		if len(items) != 0 {
			t.Errorf("Got %d items from a blank image, want 0", len(items))
		}
	}
}

func TestEndToEndStandard(t *testing.T) {
	p := buildPipeline(t, DefaultSteps(fixedRecognizer))
	items, err := p.Run(standardScene())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected exactly 1 detection, got %d", len(items))
	}

	ds := Collect(items)
	d := ds[0]
	if d.Text != "42" {
		t.Errorf("Text = %q, want 42", d.Text)
	}
	if d.Confidence <= 0 {
		t.Errorf("Confidence = %v, want > 0", d.Confidence)
	}
	if d.X < 70 || d.X > 130 || d.Y < 70 || d.Y > 130 {
		t.Errorf("Detection at (%d,%d), want inside the marker", d.X, d.Y)
	}
	if d.Radius < 25 || d.Radius > 35 {
		t.Errorf("Radius = %.1f, want about 30", d.Radius)
	}
	if d.Brightness < DefaultWhiteThreshold {
		t.Errorf("Brightness = %.1f, want at least %d", d.Brightness, DefaultWhiteThreshold)
	}

	img := items[0].Image
	if img.Bounds().Size() != image.Pt(DefaultUpscaleSize, DefaultUpscaleSize) {
		t.Errorf("Final crop size = %v, want %dx%d", img.Bounds().Size(), DefaultUpscaleSize, DefaultUpscaleSize)
	}
}

func TestEndToEndSkipOCR(t *testing.T) {
	p := buildPipeline(t, DefaultSteps(nil))
	items, err := p.Run(standardScene())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected exactly 1 white circle, got %d", len(items))
	}
	rec := items[0]
	if v, ok := rec.Bool(MetaIsWhite); !ok || !v {
		t.Errorf("Missing %s", MetaIsWhite)
	}
	if v, ok := rec.Bool(MetaIsCircle); !ok || !v {
		t.Errorf("Missing %s", MetaIsCircle)
	}
	if rec.Meta.Has(MetaOCRText) {
		t.Errorf("Unexpected %s without OCR", MetaOCRText)
	}
}

func TestEndToEndStreet(t *testing.T) {
	p := buildPipeline(t, DefaultSteps(nil))
	items, err := p.Run(testimage.Draw(testimage.Street()))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	ds := Collect(items)
	SortByPosition(ds)
	if len(ds) != 3 {
		t.Fatalf("Expected 3 white markers (decoy rejected), got %d", len(ds))
	}
	for i, wantX := range []int{70, 170, 270} {
		if abs(ds[i].X-wantX) > 3 || abs(ds[i].Y-100) > 3 {
			t.Errorf("Detection %d at (%d,%d), want near (%d,100)", i, ds[i].X, ds[i].Y, wantX)
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestExecutorMatchesSequential(t *testing.T) {
	scene := testimage.Draw(testimage.Street())

	seq, err := buildPipeline(t, DefaultSteps(fixedRecognizer)).Run(scene)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, workers := range []int{1, 4} {
		p := buildPipeline(t, DefaultSteps(fixedRecognizer), pipeline.WithStageWorkers(workers))
		par, err := p.RunWithExecutor(scene)
		if err != nil {
			t.Fatalf("RunWithExecutor(%d workers) failed: %v", workers, err)
		}
		if got, want := positions(par), positions(seq); !slices.Equal(got, want) {
			t.Errorf("%d workers: executor found %v, sequential found %v", workers, got, want)
		}

		seen := make(map[string]bool)
		for _, rec := range par {
			key := rec.Lineage.String()
			if seen[key] {
				t.Errorf("Duplicate lineage %s", key)
			}
			seen[key] = true
			if len(rec.Lineage) != len(DefaultSteps(fixedRecognizer)) {
				t.Errorf("Lineage %s has %d entries, want one per stage", key, len(rec.Lineage))
			}
		}
	}
}

// positions returns the sorted detection centres of items.
func positions(items []*pipeline.Record) []image.Point {
	ds := Collect(items)
	SortByPosition(ds)
	out := make([]image.Point, len(ds))
	for i, d := range ds {
		out[i] = image.Pt(d.X, d.Y)
	}
	return out
}

func TestEndToEndDebugOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "debug")
	p := buildPipeline(t, DefaultSteps(nil), pipeline.WithDebug(dir))
	if _, err := p.Run(standardScene()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, pipeline.InputDirName, "01.png")); err != nil {
		t.Errorf("Missing input image: %v", err)
	}
	for i, step := range DefaultSteps(nil) {
		sub := pipeline.StageDirName(i+1, step.Name())
		if _, err := os.Stat(filepath.Join(dir, sub)); err != nil {
			t.Errorf("Missing stage directory %s: %v", sub, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "08_upscale", "01.png")); err != nil {
		t.Errorf("Missing upscaled crop: %v", err)
	}
}

func TestEndToEndStageFailure(t *testing.T) {
	boom := errors.New("no tessdata")
	failing := ocr.RecognizerFunc(func(image.Image) (ocr.Result, error) {
		return ocr.Result{}, boom
	})
	_, err := buildPipeline(t, DefaultSteps(failing)).Run(standardScene())
	if !errors.Is(err, boom) {
		t.Fatalf("Expected recognizer error, got %v", err)
	}
	var stageErr *pipeline.StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("Expected *pipeline.StageError, got %T", err)
	}
	if stageErr.Stage != 9 {
		t.Errorf("Failed stage = %d, want 9", stageErr.Stage)
	}
}

func TestEndToEndTesseract(t *testing.T) {
	engine := ocr.NewEngine(ocr.DefaultOptions())
	defer engine.Close()
	if err := engine.Init(); err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}

	items, err := buildPipeline(t, DefaultSteps(engine)).Run(standardScene())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	for _, d := range Collect(items) {
		t.Logf("Read %q at (%d,%d) confidence %.2f", d.Text, d.X, d.Y, d.Confidence)
		if strings.TrimSpace(d.Text) == "" {
			t.Error("Detection with empty text survived OCR")
		}
	}
}
