package detection

import (
	"fmt"
	"image"
	"image/color"

	imgops "github.com/ironsheep/addrslips/internal/imaging"
	"github.com/ironsheep/addrslips/internal/pipeline"
)

// ContourDetection splits each edge map into one record per connected
// component. The new record's image is cropped from the original (not the
// edge map) with Padding pixels around the component, clipped to the
// original's bounds.
type ContourDetection struct {
	// MinArea drops components with fewer pixels.
	MinArea int

	// Padding is added around each component's box before cropping.
	Padding int

	// Connectivity is Four or Eight; zero means Eight.
	Connectivity Connectivity
}

func (ContourDetection) Name() string { return "Contour Detection" }

func (s ContourDetection) Process(items []*pipeline.Record, env *pipeline.Env) ([]*pipeline.Record, error) {
	conn := s.Connectivity
	if conn == 0 {
		conn = Eight
	}
	if conn != Four && conn != Eight {
		return nil, fmt.Errorf("invalid connectivity %d: must be 4 or 8", conn)
	}

	var out []*pipeline.Record
	for _, rec := range items {
		src := rec.Source
		origin := rec.Region().Min
		contours := FindContours(imgops.ToGray(rec.Image), s.MinArea, conn)
		env.Logf("%s: %d contours with at least %d pixels", s.Name(), len(contours), s.MinArea)

		for _, c := range contours {
			c.MinX += origin.X
			c.MaxX += origin.X
			c.MinY += origin.Y
			c.MaxY += origin.Y

			padded := imgops.PadRect(c.Rect(), s.Padding, src.Bounds())
			crop, err := imgops.Crop(src.Image(), padded)
			if err != nil {
				return nil, fmt.Errorf("failed to crop contour: %w", err)
			}
			child, err := pipeline.NewRegion(crop, src, pipeline.BoundingBox{
				X:      padded.Min.X,
				Y:      padded.Min.Y,
				Width:  padded.Dx(),
				Height: padded.Dy(),
			})
			if err != nil {
				return nil, err
			}
			child.Meta = rec.Meta.Clone()
			c.setMeta(child)
			out = append(out, child)
		}
	}
	return out, nil
}

// BackgroundRemoval strips the printed ring and the map background from a
// circle crop, leaving the dark digits on white.
//
// The circle is assumed centered in the crop with Padding pixels around
// it. Pixels closer to the centre than min(w,h)/2 - Padding - RingMargin
// and darker than DarkThreshold are kept; everything else becomes white.
// The result is cropped to the kept pixels plus Border. A crop with no
// dark pixels is passed on as the blank masked image.
type BackgroundRemoval struct {
	Padding       int
	RingMargin    int
	DarkThreshold uint8
	Border        int
}

func (BackgroundRemoval) Name() string { return "Background Removal" }

func (s BackgroundRemoval) Process(items []*pipeline.Record, env *pipeline.Env) ([]*pipeline.Record, error) {
	out := make([]*pipeline.Record, 0, len(items))
	for _, rec := range items {
		img, err := s.isolate(imgops.ToGray(rec.Image))
		if err != nil {
			return nil, err
		}
		out = append(out, rec.WithImage(img))
	}
	return out, nil
}

// contentThreshold marks pixels that count as content when cropping.
const contentThreshold = 250

func (s BackgroundRemoval) isolate(gray *image.Gray) (*image.Gray, error) {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	cx := float64(w) / 2
	cy := float64(h) / 2
	inner := float64(min(w, h))/2 - float64(s.Padding) - float64(s.RingMargin)

	processed := image.NewGray(image.Rect(0, 0, w, h))
	for i := range processed.Pix {
		processed.Pix[i] = 255
	}

	content := image.Rectangle{}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			v := gray.Pix[y*gray.Stride+x]
			if dx*dx+dy*dy >= inner*inner || inner <= 0 || v >= s.DarkThreshold {
				continue
			}
			processed.Pix[y*processed.Stride+x] = v
			if v < contentThreshold {
				content = content.Union(image.Rect(x, y, x+1, y+1))
			}
		}
	}

	if content.Empty() {
		return processed, nil
	}

	r := imgops.PadRect(content, s.Border, processed.Bounds())
	cropped, err := imgops.Crop(processed, r)
	if err != nil {
		return nil, fmt.Errorf("failed to crop to content: %w", err)
	}
	return imgops.ToGray(cropped), nil
}

// Upscale scales each image to fit a Size x Size square, keeping the aspect
// ratio, and centers it on a white canvas.
type Upscale struct {
	Size int
}

func (Upscale) Name() string { return "Upscale" }

func (s Upscale) Process(items []*pipeline.Record, env *pipeline.Env) ([]*pipeline.Record, error) {
	out := make([]*pipeline.Record, 0, len(items))
	for _, rec := range items {
		fitted, err := imgops.FitSquare(rec.Image, s.Size, color.White)
		if err != nil {
			return nil, fmt.Errorf("failed to upscale: %w", err)
		}
		out = append(out, rec.WithImage(imgops.ToGray(fitted)))
	}
	return out, nil
}
