package detection

import (
	"cmp"
	"slices"

	"github.com/ironsheep/addrslips/internal/pipeline"
)

// Detection is one located (and possibly read) house-number circle.
type Detection struct {
	// Text is the recognized house number, empty when OCR was skipped.
	Text string `json:"text"`

	// X and Y are the centre of the circle in original image pixels.
	X int `json:"x"`
	Y int `json:"y"`

	// Confidence is the OCR confidence (0.0 to 1.0); zero without OCR.
	Confidence float64 `json:"confidence"`

	// Radius is the estimated circle radius in pixels.
	Radius float64 `json:"radius"`

	// Brightness is the mean gray level inside the circle, when measured.
	Brightness float64 `json:"brightness,omitempty"`
}

// Collect converts final pipeline records into detections. The position
// comes from the contour box when present and otherwise from the record's
// region.
func Collect(items []*pipeline.Record) []Detection {
	out := make([]Detection, 0, len(items))
	for _, rec := range items {
		var d Detection
		if c, err := contourFromRecord(rec); err == nil {
			center := c.Center()
			d.X, d.Y = center.X, center.Y
			d.Radius = c.Radius()
		} else {
			r := rec.Region()
			d.X = (r.Min.X + r.Max.X - 1) / 2
			d.Y = (r.Min.Y + r.Max.Y - 1) / 2
		}
		if v, ok := rec.Float(MetaRadius); ok {
			d.Radius = v
		}
		d.Text, _ = rec.String(MetaOCRText)
		d.Confidence, _ = rec.Float(MetaOCRConfidence)
		d.Brightness, _ = rec.Float(MetaBrightness)
		out = append(out, d)
	}
	return out
}

// SortByPosition orders detections top to bottom, then left to right.
func SortByPosition(ds []Detection) {
	slices.SortStableFunc(ds, func(a, b Detection) int {
		if c := cmp.Compare(a.Y, b.Y); c != 0 {
			return c
		}
		return cmp.Compare(a.X, b.X)
	})
}
