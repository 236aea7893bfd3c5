package ocr

import (
	"errors"
	"image"
)

// ErrEngineInit is returned when the recognition engine cannot be set up,
// typically because Tesseract or its language data is missing.
var ErrEngineInit = errors.New("failed to initialize OCR engine")

// Result is the text recognized in one image.
type Result struct {
	// Text is the recognized text with surrounding whitespace removed.
	// Words on one line are joined by single spaces.
	Text string `json:"text"`

	// Confidence is the mean word confidence (0.0 to 1.0).
	Confidence float64 `json:"confidence"`
}

// Recognizer reads text from an image.
//
// Implementations must be safe for concurrent use.
type Recognizer interface {
	Recognize(img image.Image) (Result, error)
}

// RecognizerFunc adapts a plain function to the Recognizer interface.
type RecognizerFunc func(img image.Image) (Result, error)

// Recognize calls f(img).
func (f RecognizerFunc) Recognize(img image.Image) (Result, error) { return f(img) }
