package config

import (
	"fmt"

	"github.com/ironsheep/addrslips/internal/detection"
	"github.com/ironsheep/addrslips/internal/ocr"
	"github.com/ironsheep/addrslips/internal/pipeline"
)

// Steps returns the detection chain described by c. The OCR step is
// appended only when r is non-nil and OCR is not skipped.
func (c Config) Steps(r ocr.Recognizer) []pipeline.Step {
	steps := []pipeline.Step{detection.Grayscale{}}
	if c.Edges.Sharpen > 0 {
		steps = append(steps, detection.Sharpen{Strength: c.Edges.Sharpen})
	}
	steps = append(steps,
		detection.Blur{Sigma: c.Edges.BlurSigma},
		detection.EdgeDetection{Low: c.Edges.CannyLow, High: c.Edges.CannyHigh},
		detection.ContourDetection{
			MinArea:      c.Contours.MinArea,
			Padding:      c.Contours.Padding,
			Connectivity: detection.Connectivity(c.Contours.Connectivity),
		},
		detection.CircleFilter{
			MinRadius:      c.Circles.MinRadius,
			MaxRadius:      c.Circles.MaxRadius,
			MaxCircularity: c.Circles.MaxCircularity,
			MinAspect:      c.Circles.MinAspect,
			MaxAspect:      c.Circles.MaxAspect,
		},
		detection.WhiteCircleFilter{Threshold: c.White.Threshold, MaxChroma: c.White.MaxChroma},
		detection.BackgroundRemoval{
			Padding:       c.Contours.Padding,
			RingMargin:    c.Prepare.RingMargin,
			DarkThreshold: uint8(c.Prepare.DarkThreshold),
			Border:        c.Prepare.Border,
		},
		detection.Upscale{Size: c.Prepare.UpscaleSize},
	)
	if r != nil && !c.OCR.Skip {
		steps = append(steps, &detection.OCR{Recognizer: r, MinConfidence: c.OCR.MinConfidence})
	}
	return steps
}

// Build validates c and assembles the detection pipeline. Extra options
// (logger, debug directory, observer) are applied after the stage worker
// count taken from c.
func Build(c Config, r ocr.Recognizer, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	all := append([]pipeline.Option{pipeline.WithStageWorkers(c.Run.Workers)}, opts...)
	p, err := pipeline.New(all...)
	if err != nil {
		return nil, err
	}
	for _, s := range c.Steps(r) {
		p.AddStep(s)
	}
	return p, nil
}
