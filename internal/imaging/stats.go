package imaging

import (
	"image"
	"sync"

	"github.com/anthonynsimon/bild/parallel"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Circle is a disc in pixel coordinates. Pixels whose integer coordinates
// lie within Radius of the center belong to it.
type Circle struct {
	CX, CY float64
	Radius float64
}

// contains reports whether pixel (x, y) lies inside the circle.
func (c Circle) contains(x, y int) bool {
	dx := float64(x) - c.CX
	dy := float64(y) - c.CY
	return dx*dx+dy*dy <= c.Radius*c.Radius
}

// CircleStats summarizes the pixels of an image that fall inside a circle.
type CircleStats struct {
	// Brightness is the mean 8-bit luma (0-255).
	Brightness float64 `json:"brightness"`

	// Chroma is the mean CIE LCh chroma (0 for pure grays, roughly 0-1.3).
	Chroma float64 `json:"chroma"`

	// Pixels is the number of pixels sampled.
	Pixels int `json:"pixels"`
}

// MeasureCircle computes brightness and chroma statistics of img inside c,
// restricted to the rectangle clip (typically the contour box). Pixels
// outside the image are skipped. A circle with no pixels in range yields
// zero statistics.
//
// Brightness is taken from gray, which must cover the same bounds as img.
// Rows are processed in parallel.
func MeasureCircle(img image.Image, gray *image.Gray, c Circle, clip image.Rectangle) CircleStats {
	clip = clip.Intersect(img.Bounds()).Intersect(gray.Bounds())
	if clip.Empty() {
		return CircleStats{}
	}

	var (
		mu        sync.Mutex
		lumaSum   uint64
		chromaSum float64
		count     int
	)

	parallel.Line(clip.Dy(), func(start, end int) {
		var ls uint64
		var cs float64
		var n int
		for y := clip.Min.Y + start; y < clip.Min.Y+end; y++ {
			for x := clip.Min.X; x < clip.Max.X; x++ {
				if !c.contains(x, y) {
					continue
				}
				ls += uint64(gray.GrayAt(x, y).Y)
				cs += chroma(img, x, y)
				n++
			}
		}
		mu.Lock()
		lumaSum += ls
		chromaSum += cs
		count += n
		mu.Unlock()
	})

	if count == 0 {
		return CircleStats{}
	}
	return CircleStats{
		Brightness: float64(lumaSum) / float64(count),
		Chroma:     chromaSum / float64(count),
		Pixels:     count,
	}
}

// chroma returns the LCh chroma of the pixel at (x, y). Gray images have
// no chroma; fully transparent pixels count as neutral.
func chroma(img image.Image, x, y int) float64 {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return 0
	}
	col, ok := colorful.MakeColor(img.At(x, y))
	if !ok {
		return 0
	}
	_, c, _ := col.Hcl()
	return c
}
