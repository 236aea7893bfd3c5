// Package detection implements the steps that find and read house-number
// circles on scanned map screenshots.
//
// Every step satisfies pipeline.Step. The default pipeline chains them as:
//
//	Grayscale -> Blur -> EdgeDetection -> ContourDetection -> CircleFilter
//	  -> WhiteCircleFilter -> BackgroundRemoval -> Upscale -> OCR
//
// # Algorithm Overview
//
//  1. Edge map: grayscale conversion, Gaussian blur and Canny edge
//     detection turn the scan into a binary map of outlines.
//  2. Contours: connected components of the edge map become one record
//     each, cropped from the original with padding. Radius, aspect ratio
//     and circularity (P²/4πA of the hole-filled outline) are recorded.
//  3. Filtering: CircleFilter keeps round components of plausible size;
//     WhiteCircleFilter keeps those whose interior is bright in the
//     original.
//  4. Preparation: BackgroundRemoval blanks the printed ring and the map
//     around it, Upscale normalizes the digits to a fixed square.
//  5. Recognition: OCR reads the number and drops unreadable circles.
//
// Collect turns the final records into Detection values.
//
// # Metadata
//
// Steps communicate through record metadata under the Meta* keys. Later
// steps depend on keys written by earlier ones: WhiteCircleFilter fails
// if the contour_* keys are missing.
//
// # Coordinate System
//
// Contour coordinates and detection positions are pixels of the original
// image, (0,0) at the top-left corner. Contour bounds are inclusive.
package detection
