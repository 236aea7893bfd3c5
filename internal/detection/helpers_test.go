package detection

import (
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/addrslips/internal/detection/testimage"
	"github.com/ironsheep/addrslips/internal/pipeline"
)

// testEnv is a quiet environment for calling steps directly.
var testEnv = &pipeline.Env{}

func newTestRecord(t *testing.T, img image.Image) *pipeline.Record {
	t.Helper()
	return pipeline.NewRecord(pipeline.NewSource(img))
}

// createUniformImage returns a w x h image filled with c.
func createUniformImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// contourRecord builds a record carrying contour metadata for c, cropped
// from src with no padding.
func contourRecord(t *testing.T, src *pipeline.Source, c Contour) *pipeline.Record {
	t.Helper()
	r := c.Rect()
	rec, err := pipeline.NewRegion(src.Image(), src, pipeline.BoundingBox{
		X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy(),
	})
	if err != nil {
		t.Fatalf("NewRegion failed: %v", err)
	}
	c.setMeta(rec)
	return rec
}

// standardScene renders the stock single-marker test image.
func standardScene() image.Image {
	return testimage.Draw(testimage.Standard())
}
