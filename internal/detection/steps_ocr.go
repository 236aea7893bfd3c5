package detection

import (
	"errors"
	"fmt"

	"github.com/ironsheep/addrslips/internal/ocr"
	"github.com/ironsheep/addrslips/internal/pipeline"
)

// OCR reads the house number from each prepared crop. Items with no text,
// or with confidence below MinConfidence, are dropped; the rest get
// ocr_text and ocr_confidence metadata.
//
// The Recognizer is shared by all workers and must be safe for
// concurrent use (ocr.Engine is).
type OCR struct {
	Recognizer    ocr.Recognizer
	MinConfidence float64
}

// NewOCR returns an OCR step backed by r.
func NewOCR(r ocr.Recognizer) *OCR {
	return &OCR{Recognizer: r}
}

func (*OCR) Name() string { return "OCR Recognition" }

func (s *OCR) Process(items []*pipeline.Record, env *pipeline.Env) ([]*pipeline.Record, error) {
	if s.Recognizer == nil {
		return nil, errors.New("no OCR recognizer configured")
	}

	out := make([]*pipeline.Record, 0, len(items))
	for i, rec := range items {
		if len(items) > 5 {
			env.Logf("%s: item %d of %d", s.Name(), i+1, len(items))
		}
		res, err := s.Recognizer.Recognize(rec.Image)
		if err != nil {
			return nil, fmt.Errorf("failed to recognize text: %w", err)
		}
		if res.Text == "" || res.Confidence < s.MinConfidence {
			continue
		}
		kept := rec.Clone()
		kept.Set(MetaOCRText, pipeline.StringValue(res.Text))
		kept.Set(MetaOCRConfidence, pipeline.FloatValue(res.Confidence))
		out = append(out, kept)
	}
	return out, nil
}
