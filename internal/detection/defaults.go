package detection

import (
	"github.com/ironsheep/addrslips/internal/ocr"
	"github.com/ironsheep/addrslips/internal/pipeline"
)

// Default step parameters.
const (
	DefaultBlurSigma      = 1.5
	DefaultCannyLow       = 50
	DefaultCannyHigh      = 100
	DefaultMinArea        = 10
	DefaultPadding        = 10
	DefaultMinRadius      = 10
	DefaultMaxRadius      = 200
	DefaultMaxCircularity = 2.0
	DefaultMinAspect      = 0.7
	DefaultMaxAspect      = 1.4
	DefaultWhiteThreshold = 200
	DefaultRingMargin     = 2
	DefaultDarkThreshold  = 150
	DefaultBorder         = 5
	DefaultUpscaleSize    = 100
)

// DefaultSteps returns the standard detection chain with default
// parameters. With a nil recognizer the OCR step is left out; the
// prepared crops are still produced for debug output.
func DefaultSteps(r ocr.Recognizer) []pipeline.Step {
	steps := []pipeline.Step{
		Grayscale{},
		Blur{Sigma: DefaultBlurSigma},
		EdgeDetection{Low: DefaultCannyLow, High: DefaultCannyHigh},
		ContourDetection{MinArea: DefaultMinArea, Padding: DefaultPadding, Connectivity: Eight},
		CircleFilter{
			MinRadius:      DefaultMinRadius,
			MaxRadius:      DefaultMaxRadius,
			MaxCircularity: DefaultMaxCircularity,
			MinAspect:      DefaultMinAspect,
			MaxAspect:      DefaultMaxAspect,
		},
		WhiteCircleFilter{Threshold: DefaultWhiteThreshold},
		BackgroundRemoval{
			Padding:       DefaultPadding,
			RingMargin:    DefaultRingMargin,
			DarkThreshold: DefaultDarkThreshold,
			Border:        DefaultBorder,
		},
		Upscale{Size: DefaultUpscaleSize},
	}
	if r == nil {
		return steps
	}
	return append(steps, NewOCR(r))
}
