package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/parallel"
	"github.com/disintegration/imaging"
)

// ToGray converts img to 8-bit grayscale with an origin-based rectangle.
// Gray images that already start at the origin are returned as is; callers
// treat pipeline images as read-only.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	if img.Bounds().Empty() {
		return image.NewGray(image.Rectangle{})
	}
	return packGray(effect.Grayscale(img))
}

// packGray copies the (identical) channels of a grayscale RGBA image into
// a single-channel image.
func packGray(rgba *image.RGBA) *image.Gray {
	b := rgba.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	parallel.Line(b.Dy(), func(start, end int) {
		for y := start; y < end; y++ {
			src := rgba.Pix[y*rgba.Stride:]
			dst := gray.Pix[y*gray.Stride:]
			for x := 0; x < b.Dx(); x++ {
				dst[x] = src[x*4]
			}
		}
	})
	return gray
}

// Blur applies a Gaussian blur with the given sigma and returns grayscale.
// A non-positive sigma returns the grayscale input unchanged.
func Blur(img image.Image, sigma float64) *image.Gray {
	if sigma <= 0 {
		return ToGray(img)
	}
	return ToGray(imaging.Blur(img, sigma))
}

// Sharpen enhances edges with a 3x3 Laplacian kernel:
//
//	 0  -s   0
//	-s 1+4s -s
//	 0  -s   0
//
// The kernel sums to 1 so overall brightness is preserved.
func Sharpen(img image.Image, strength float64) *image.Gray {
	if strength <= 0 {
		return ToGray(img)
	}
	k := convolution.NewKernel(3, 3)
	copy(k.Matrix, []float64{
		0, -strength, 0,
		-strength, 1 + 4*strength, -strength,
		0, -strength, 0,
	})
	out := convolution.Convolve(ToGray(img), k, &convolution.Options{Bias: 0, Wrap: false, KeepAlpha: true})
	return packGray(out)
}
