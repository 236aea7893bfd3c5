package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestAnnotate(t *testing.T) {
	img := createInMemoryImage(100, 100, color.White)
	marks := []Mark{{Rect: image.Rect(20, 30, 60, 70), Label: "42"}}

	result := Annotate(img, marks, "#00FF00")

	if result.Bounds() != img.Bounds() {
		t.Fatalf("bounds: got %v, want %v", result.Bounds(), img.Bounds())
	}

	green := color.RGBA{0, 255, 0, 255}
	for _, p := range []image.Point{{20, 30}, {59, 30}, {20, 69}, {59, 69}, {40, 30}} {
		if got := result.RGBAAt(p.X, p.Y); got != green {
			t.Errorf("outline pixel %v: got %v, want %v", p, got, green)
		}
	}

	// Inside the box stays untouched
	if got := result.RGBAAt(40, 50); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("interior pixel: got %v, want white", got)
	}

	// Label background sits above the box
	if got := result.RGBAAt(22, 30-labelHeight); got != green {
		t.Errorf("label background: got %v, want %v", got, green)
	}

	// Source is not modified
	r, g, b, _ := img.At(20, 30).RGBA()
	if r>>8 != 255 || g>>8 != 255 || b>>8 != 255 {
		t.Error("Annotate modified its input")
	}
}

func TestAnnotate_LabelAtTopEdge(t *testing.T) {
	img := createInMemoryImage(50, 50, color.White)

	// Must not panic when the label would be drawn above the image
	result := Annotate(img, []Mark{{Rect: image.Rect(0, 0, 30, 30), Label: "7B?"}}, "")

	red := color.RGBA{255, 0, 0, 255}
	if got := result.RGBAAt(0, 0); got != red {
		t.Errorf("fallback color: got %v, want %v", got, red)
	}
}

func TestAnnotate_OutsideMarkIgnored(t *testing.T) {
	img := createInMemoryImage(50, 50, color.White)

	result := Annotate(img, []Mark{{Rect: image.Rect(100, 100, 120, 120)}}, "#0000FF")

	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			if got := result.RGBAAt(x, y); got != (color.RGBA{255, 255, 255, 255}) {
				t.Fatalf("pixel (%d,%d) changed to %v", x, y, got)
			}
		}
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"#FF0000", color.RGBA{255, 0, 0, 255}, false},
		{"00ff80", color.RGBA{0, 255, 128, 255}, false},
		{"", color.RGBA{}, true},
		{"#XYZ", color.RGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHexColor(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseHexColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseHexColor(%q): got %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
