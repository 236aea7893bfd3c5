package detection

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/addrslips/internal/ocr"
	"github.com/ironsheep/addrslips/internal/pipeline"
)

func TestPreprocessSteps(t *testing.T) {
	rec := newTestRecord(t, standardScene())

	steps := []pipeline.Step{
		Grayscale{},
		Blur{Sigma: DefaultBlurSigma},
		EdgeDetection{Low: DefaultCannyLow, High: DefaultCannyHigh},
		Sharpen{Strength: 1},
	}
	for _, step := range steps {
		t.Run(step.Name(), func(t *testing.T) {
			out, err := step.Process([]*pipeline.Record{rec}, testEnv)
			if err != nil {
				t.Fatalf("Process failed: %v", err)
			}
			if len(out) != 1 {
				t.Fatalf("Expected 1 output, got %d", len(out))
			}
			if _, ok := out[0].Image.(*image.Gray); !ok {
				t.Errorf("Expected *image.Gray output, got %T", out[0].Image)
			}
			if out[0].Image.Bounds() != rec.Image.Bounds() {
				t.Errorf("Bounds changed: %v -> %v", rec.Image.Bounds(), out[0].Image.Bounds())
			}
			if out[0] == rec {
				t.Error("Step returned the input record")
			}
			if _, ok := rec.Image.(*image.RGBA); !ok {
				t.Error("Input record image was replaced")
			}
		})
	}
}

func TestEdgeDetectionIsBinary(t *testing.T) {
	rec := newTestRecord(t, standardScene())
	out, err := EdgeDetection{Low: DefaultCannyLow, High: DefaultCannyHigh}.Process([]*pipeline.Record{rec}, testEnv)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	edges := out[0].Image.(*image.Gray)
	var on int
	for _, v := range edges.Pix {
		switch v {
		case 0:
		case 255:
			on++
		default:
			t.Fatalf("Edge map holds non-binary value %d", v)
		}
	}
	if on == 0 {
		t.Error("Expected edges around the marker")
	}
}

func TestContourDetection(t *testing.T) {
	src := pipeline.NewSource(createUniformImage(100, 80, color.Gray{Y: 90}))
	edges := createMask(100, 80, func(x, y int) bool {
		return ring(30, 30, 15)(x, y) || rect(85, 60, 100, 80)(x, y) || (x == 2 && y == 70)
	})
	parent := pipeline.NewRecord(src).WithImage(edges)
	parent.Set("scan", pipeline.StringValue("page-1"))

	step := ContourDetection{MinArea: DefaultMinArea, Padding: DefaultPadding}
	out, err := step.Process([]*pipeline.Record{parent}, testEnv)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("Expected 2 contours (single pixel dropped), got %d", len(out))
	}

	ringRec := out[0]
	if ringRec.Box == nil {
		t.Fatal("Contour record has no box")
	}
	want := pipeline.BoundingBox{X: 5, Y: 5, Width: 51, Height: 51}
	if *ringRec.Box != want {
		t.Errorf("Box = %+v, want %+v", *ringRec.Box, want)
	}
	if got := ringRec.Image.Bounds().Size(); got != image.Pt(want.Width, want.Height) {
		t.Errorf("Crop size = %v, want %dx%d", got, want.Width, want.Height)
	}
	if _, ok := ringRec.Image.(*image.Gray); ok {
		t.Error("Crop should come from the original, not the edge map")
	}

	for _, key := range []string{MetaContourMinX, MetaContourMaxY, MetaPixelCount} {
		if _, ok := ringRec.Int(key); !ok {
			t.Errorf("Missing %s", key)
		}
	}
	for _, key := range []string{MetaRadius, MetaCircularity, MetaAspectRatio} {
		if _, ok := ringRec.Float(key); !ok {
			t.Errorf("Missing %s", key)
		}
	}
	if v, _ := ringRec.String("scan"); v != "page-1" {
		t.Errorf("Parent metadata not inherited: %q", v)
	}
	if parent.Meta.Has(MetaRadius) {
		t.Error("Parent record was modified")
	}

	corner := out[1]
	if !corner.Region().In(src.Bounds()) {
		t.Errorf("Corner box %v leaves the image", corner.Region())
	}
	if corner.Box.X+corner.Box.Width != 100 || corner.Box.Y+corner.Box.Height != 80 {
		t.Errorf("Corner box %+v not clipped to the image edge", *corner.Box)
	}
}

func TestContourDetectionOffsetsRegion(t *testing.T) {
	src := pipeline.NewSource(createUniformImage(100, 100, color.White))
	edges := createMask(40, 40, rect(10, 10, 20, 20))
	parent, err := pipeline.NewRegion(edges, src, pipeline.BoundingBox{X: 50, Y: 30, Width: 40, Height: 40})
	if err != nil {
		t.Fatalf("NewRegion failed: %v", err)
	}

	out, err := ContourDetection{MinArea: 1}.Process([]*pipeline.Record{parent}, testEnv)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("Expected 1 contour, got %d", len(out))
	}
	if x, _ := out[0].Int(MetaContourMinX); x != 60 {
		t.Errorf("contour_min_x = %d, want 60", x)
	}
	if y, _ := out[0].Int(MetaContourMinY); y != 40 {
		t.Errorf("contour_min_y = %d, want 40", y)
	}
}

func TestContourDetectionInvalidConnectivity(t *testing.T) {
	rec := newTestRecord(t, image.NewGray(image.Rect(0, 0, 10, 10)))
	_, err := ContourDetection{Connectivity: 6}.Process([]*pipeline.Record{rec}, testEnv)
	if err == nil {
		t.Error("Expected error for connectivity 6")
	}
}

// createSlipCrop draws a padded circle crop: dark map corners, a dark
// printed ring and a black digit block on white.
func createSlipCrop() *image.Gray {
	const size = 70
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := x-size/2, y-size/2
			d2 := dx*dx + dy*dy
			switch {
			case d2 > 25*25:
				img.Pix[y*img.Stride+x] = 60
			case d2 > 23*23:
				img.Pix[y*img.Stride+x] = 20
			case x >= 28 && x < 42 && y >= 25 && y < 45:
				img.Pix[y*img.Stride+x] = 0
			default:
				img.Pix[y*img.Stride+x] = 255
			}
		}
	}
	return img
}

func TestBackgroundRemoval(t *testing.T) {
	step := BackgroundRemoval{Padding: DefaultPadding, RingMargin: DefaultRingMargin, DarkThreshold: DefaultDarkThreshold, Border: DefaultBorder}

	t.Run("KeepsDigits", func(t *testing.T) {
		rec := newTestRecord(t, createSlipCrop())
		out, err := step.Process([]*pipeline.Record{rec}, testEnv)
		if err != nil {
			t.Fatalf("Process failed: %v", err)
		}
		if len(out) != 1 {
			t.Fatalf("Expected 1 output, got %d", len(out))
		}
		got := out[0].Image.(*image.Gray)
		if size := got.Bounds().Size(); size != image.Pt(24, 30) {
			t.Errorf("Cropped size = %v, want 24x30", size)
		}
		var black, white int
		for _, v := range got.Pix {
			switch v {
			case 0:
				black++
			case 255:
				white++
			default:
				t.Fatalf("Unexpected gray level %d after removal", v)
			}
		}
		if black != 14*20 {
			t.Errorf("Black pixels = %d, want %d", black, 14*20)
		}
		if white == 0 {
			t.Error("Expected a white border")
		}
	})

	t.Run("BlankPassesThrough", func(t *testing.T) {
		rec := newTestRecord(t, createUniformImage(50, 40, color.White))
		out, err := step.Process([]*pipeline.Record{rec}, testEnv)
		if err != nil {
			t.Fatalf("Process failed: %v", err)
		}
		if len(out) != 1 {
			t.Fatalf("Expected 1 output, got %d", len(out))
		}
		got := out[0].Image.(*image.Gray)
		if got.Bounds().Size() != image.Pt(50, 40) {
			t.Errorf("Blank crop resized to %v", got.Bounds().Size())
		}
		for _, v := range got.Pix {
			if v != 255 {
				t.Fatalf("Blank crop not white: %d", v)
			}
		}
	})
}

func TestUpscale(t *testing.T) {
	rec := newTestRecord(t, createUniformImage(30, 12, color.Black))
	out, err := Upscale{Size: DefaultUpscaleSize}.Process([]*pipeline.Record{rec}, testEnv)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	got, ok := out[0].Image.(*image.Gray)
	if !ok {
		t.Fatalf("Expected *image.Gray, got %T", out[0].Image)
	}
	if got.Bounds().Size() != image.Pt(DefaultUpscaleSize, DefaultUpscaleSize) {
		t.Errorf("Size = %v, want %dx%d", got.Bounds().Size(), DefaultUpscaleSize, DefaultUpscaleSize)
	}
	if v := got.GrayAt(50, 2).Y; v != 255 {
		t.Errorf("Letterbox pixel = %d, want white", v)
	}
	if v := got.GrayAt(50, 50).Y; v > 10 {
		t.Errorf("Centre pixel = %d, want black", v)
	}

	empty := newTestRecord(t, createUniformImage(10, 10, color.White)).WithImage(image.NewGray(image.Rect(0, 0, 0, 0)))
	if _, err := (Upscale{Size: 100}).Process([]*pipeline.Record{empty}, testEnv); err == nil {
		t.Error("Expected error for empty image")
	}
}

func TestOCRStep(t *testing.T) {
	texts := map[int]ocr.Result{
		10: {Text: "42", Confidence: 0.9},
		20: {Text: "", Confidence: 0},
		30: {Text: "7", Confidence: 0.2},
	}
	recognizer := ocr.RecognizerFunc(func(img image.Image) (ocr.Result, error) {
		return texts[img.Bounds().Dx()], nil
	})

	var items []*pipeline.Record
	for _, w := range []int{10, 20, 30} {
		items = append(items, newTestRecord(t, createUniformImage(w, 10, color.White)))
	}

	t.Run("DropsEmptyText", func(t *testing.T) {
		out, err := NewOCR(recognizer).Process(items, testEnv)
		if err != nil {
			t.Fatalf("Process failed: %v", err)
		}
		if len(out) != 2 {
			t.Fatalf("Expected 2 items, got %d", len(out))
		}
		if text, _ := out[0].String(MetaOCRText); text != "42" {
			t.Errorf("ocr_text = %q, want 42", text)
		}
		if conf, _ := out[0].Float(MetaOCRConfidence); conf != 0.9 {
			t.Errorf("ocr_confidence = %v, want 0.9", conf)
		}
		if items[0].Meta.Has(MetaOCRText) {
			t.Error("Input record was modified")
		}
	})

	t.Run("MinConfidence", func(t *testing.T) {
		step := &OCR{Recognizer: recognizer, MinConfidence: 0.5}
		out, err := step.Process(items, testEnv)
		if err != nil {
			t.Fatalf("Process failed: %v", err)
		}
		if len(out) != 1 {
			t.Errorf("Expected 1 item above 0.5, got %d", len(out))
		}
	})

	t.Run("RecognizerError", func(t *testing.T) {
		boom := errors.New("engine crashed")
		failing := ocr.RecognizerFunc(func(image.Image) (ocr.Result, error) {
			return ocr.Result{}, boom
		})
		_, err := NewOCR(failing).Process(items, testEnv)
		if !errors.Is(err, boom) {
			t.Errorf("Expected wrapped recognizer error, got %v", err)
		}
	})

	t.Run("NilRecognizer", func(t *testing.T) {
		if _, err := (&OCR{}).Process(items, testEnv); err == nil {
			t.Error("Expected error without a recognizer")
		}
	})
}
