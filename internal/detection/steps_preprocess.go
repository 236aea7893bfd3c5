package detection

import (
	"image"

	imgops "github.com/ironsheep/addrslips/internal/imaging"
	"github.com/ironsheep/addrslips/internal/pipeline"
)

// mapImages applies fn to the image of every record, one output per input.
func mapImages(items []*pipeline.Record, fn func(image.Image) image.Image) []*pipeline.Record {
	out := make([]*pipeline.Record, 0, len(items))
	for _, rec := range items {
		out = append(out, rec.WithImage(fn(rec.Image)))
	}
	return out
}

// Grayscale converts each record's image to 8-bit grayscale.
type Grayscale struct{}

func (Grayscale) Name() string { return "Grayscale Conversion" }

func (Grayscale) Process(items []*pipeline.Record, env *pipeline.Env) ([]*pipeline.Record, error) {
	return mapImages(items, func(img image.Image) image.Image {
		return imgops.ToGray(img)
	}), nil
}

// Blur applies a Gaussian blur to suppress scan noise before edge
// detection.
type Blur struct {
	// Sigma is the Gaussian standard deviation in pixels.
	Sigma float64
}

func (Blur) Name() string { return "Gaussian Blur" }

func (s Blur) Process(items []*pipeline.Record, env *pipeline.Env) ([]*pipeline.Record, error) {
	return mapImages(items, func(img image.Image) image.Image {
		return imgops.Blur(img, s.Sigma)
	}), nil
}

// EdgeDetection replaces each image with its binary Canny edge map.
type EdgeDetection struct {
	Low  float64
	High float64
}

func (EdgeDetection) Name() string { return "Edge Detection" }

func (s EdgeDetection) Process(items []*pipeline.Record, env *pipeline.Env) ([]*pipeline.Record, error) {
	return mapImages(items, func(img image.Image) image.Image {
		return imgops.Canny(imgops.ToGray(img), s.Low, s.High)
	}), nil
}

// Sharpen enhances edges with a Laplacian kernel. It is not part of the
// default pipeline.
type Sharpen struct {
	Strength float64
}

func (Sharpen) Name() string { return "Sharpen" }

func (s Sharpen) Process(items []*pipeline.Record, env *pipeline.Env) ([]*pipeline.Record, error) {
	return mapImages(items, func(img image.Image) image.Image {
		return imgops.Sharpen(img, s.Strength)
	}), nil
}
