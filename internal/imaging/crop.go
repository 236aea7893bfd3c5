package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Crop extracts a rectangular region from an image.
//
// The rectangle uses image conventions (Min inclusive, Max exclusive) in
// the coordinate space of img. The result is a new origin-based image.
func Crop(img image.Image, r image.Rectangle) (*image.NRGBA, error) {
	bounds := img.Bounds()

	// Validate coordinates
	if !r.In(bounds) {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			r.Min.X, r.Min.Y, r.Max.X, r.Max.Y, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if r.Empty() {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}

	return imaging.Crop(img, r), nil
}

// PadRect grows r by pad pixels on every side and clips it to bounds.
func PadRect(r image.Rectangle, pad int, bounds image.Rectangle) image.Rectangle {
	return image.Rect(r.Min.X-pad, r.Min.Y-pad, r.Max.X+pad, r.Max.Y+pad).Intersect(bounds)
}

// FitSquare scales img to fit a size x size canvas while keeping its
// aspect ratio and centers it on a background of color bg. Small inputs
// are scaled up; Catmull-Rom interpolation keeps digit strokes crisp.
func FitSquare(img image.Image, size int, bg color.Color) (*image.NRGBA, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid target size %d", size)
	}
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("cannot scale empty image (%dx%d)", w, h)
	}

	scale := min(float64(size)/float64(w), float64(size)/float64(h))
	scaledW := max(1, int(float64(w)*scale))
	scaledH := max(1, int(float64(h)*scale))

	scaled := imaging.Resize(img, scaledW, scaledH, imaging.CatmullRom)
	canvas := imaging.New(size, size, bg)
	return imaging.PasteCenter(canvas, scaled), nil
}
