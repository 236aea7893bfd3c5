// Package imaging provides the pixel-level operations used by the
// house-number detection steps.
//
// It covers loading, grayscale conversion, Gaussian blur, sharpening,
// Canny edge detection, cropping, square fitting, circle statistics and
// result annotation. All operations work with standard Go image.Image
// types and use a coordinate system where (0,0) is at the top-left corner,
// X increases rightward, and Y increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based. Rectangles follow the
// image.Rectangle convention: Min is inclusive, Max is exclusive.
//
// # Thread Safety
//
// Operations are stateless and never modify their inputs, so they can be
// called concurrently, including on the same source image. Heavy loops are
// split across goroutines with bild's parallel package.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Regions outside image bounds or with zero size
//   - File I/O errors during image loading
//   - Undecodable image data (wrapping ErrDecode)
package imaging
