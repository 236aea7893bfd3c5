package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/parallel"
)

// Canny performs Canny edge detection on a grayscale image.
//
// The result has the same size as the input; edge pixels are 255 and all
// others 0. The input is expected to be blurred already (see Blur); no
// additional smoothing is applied here.
//
// Parameters:
//   - low: Weak-edge threshold on the Sobel gradient magnitude (0-255
//     intensity units). Weak pixels survive only if connected to a strong one.
//   - high: Strong-edge threshold. Pixels at or above it are always edges.
//
// # Algorithm
//
//  1. Gradient computation: Sobel operators for X and Y gradients
//     magnitude = sqrt(Gx² + Gy²)
//     direction = atan2(Gy, Gx)
//
//  2. Non-maximum suppression: Thin edges to 1-pixel width by keeping only
//     local maxima in the gradient direction
//
//  3. Hysteresis: strong pixels seed a flood fill that follows 8-connected
//     weak pixels, so faint stretches of a ring stay attached to it
//
// # Threshold Selection
//
// Recommended starting points:
//   - Scanned maps with marker circles: low=50, high=100
//   - Photographs: low=100, high=200
func Canny(gray *image.Gray, low, high float64) *image.Gray {
	bounds := gray.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	result := image.NewGray(image.Rect(0, 0, width, height))
	if width < 3 || height < 3 {
		return result
	}

	at := func(x, y int) float64 {
		x = clamp(x, 0, width-1)
		y = clamp(y, 0, height-1)
		return float64(gray.Pix[(y+bounds.Min.Y-gray.Rect.Min.Y)*gray.Stride+(x+bounds.Min.X-gray.Rect.Min.X)])
	}

	magnitude := make([]float64, width*height)
	direction := make([]float64, width*height)

	parallel.Line(height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < width; x++ {
				gx := -at(x-1, y-1) + at(x+1, y-1) +
					-2*at(x-1, y) + 2*at(x+1, y) +
					-at(x-1, y+1) + at(x+1, y+1)
				gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) +
					at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
				magnitude[y*width+x] = math.Sqrt(gx*gx + gy*gy)
				direction[y*width+x] = math.Atan2(gy, gx)
			}
		}
	})

	// Non-maximum suppression
	suppressed := make([]float64, width*height)
	parallel.Line(height, func(start, end int) {
		for y := start; y < end; y++ {
			if y == 0 || y == height-1 {
				continue
			}
			for x := 1; x < width-1; x++ {
				i := y*width + x
				angle := direction[i]
				mag := magnitude[i]

				// Determine neighbors to compare based on gradient direction
				var n1, n2 float64
				if (angle >= -math.Pi/8 && angle < math.Pi/8) || (angle >= 7*math.Pi/8 || angle < -7*math.Pi/8) {
					n1 = magnitude[i-1]
					n2 = magnitude[i+1]
				} else if (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8) {
					n1 = magnitude[i-width-1]
					n2 = magnitude[i+width+1]
				} else if (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8) {
					n1 = magnitude[i-width]
					n2 = magnitude[i+width]
				} else {
					n1 = magnitude[i-width+1]
					n2 = magnitude[i+width-1]
				}

				if mag >= n1 && mag >= n2 {
					suppressed[i] = mag
				}
			}
		}
	})

	// Hysteresis: grow edges from strong seeds through weak pixels
	stack := make([]int, 0, 256)
	for i, v := range suppressed {
		if v < high || result.Pix[i] != 0 {
			continue
		}
		result.Pix[i] = 255
		stack = append(stack[:0], i)
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			px, py := p%width, p/width
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := px+dx, py+dy
					if nx < 0 || nx >= width || ny < 0 || ny >= height {
						continue
					}
					n := ny*width + nx
					if result.Pix[n] == 0 && suppressed[n] >= low && suppressed[n] > 0 {
						result.Pix[n] = 255
						stack = append(stack, n)
					}
				}
			}
		}
	}

	return result
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
