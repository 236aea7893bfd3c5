package detection

import (
	"fmt"

	"github.com/ironsheep/addrslips/internal/pipeline"
)

// CircleFilter keeps contours whose geometry looks like a marker circle.
//
// An item passes when all of these hold:
//   - circularity <= MaxCircularity
//   - MinAspect <= aspect ratio <= MaxAspect
//   - MinRadius <= radius <= MaxRadius
//
// Items without contour metadata fail the test and are dropped.
type CircleFilter struct {
	MinRadius      float64
	MaxRadius      float64
	MaxCircularity float64
	MinAspect      float64
	MaxAspect      float64
}

func (CircleFilter) Name() string { return "Circle Filtering" }

func (s CircleFilter) Process(items []*pipeline.Record, env *pipeline.Env) ([]*pipeline.Record, error) {
	out := make([]*pipeline.Record, 0, len(items))
	for _, rec := range items {
		if !s.accepts(rec) {
			continue
		}
		kept := rec.Clone()
		kept.Set(MetaIsCircle, pipeline.BoolValue(true))
		out = append(out, kept)
	}
	env.Logf("%s: kept %d of %d", s.Name(), len(out), len(items))
	return out, nil
}

func (s CircleFilter) accepts(rec *pipeline.Record) bool {
	circularity, ok1 := rec.Float(MetaCircularity)
	radius, ok2 := rec.Float(MetaRadius)
	aspect, ok3 := rec.Float(MetaAspectRatio)
	if !ok1 || !ok2 || !ok3 {
		return false
	}
	return circularity <= s.MaxCircularity &&
		aspect >= s.MinAspect && aspect <= s.MaxAspect &&
		radius >= s.MinRadius && radius <= s.MaxRadius
}

// WhiteCircleFilter keeps circles whose interior is bright in the original
// image. Brightness is the mean gray level inside the circle inscribed in
// the contour box.
//
// When MaxChroma is positive, circles whose mean chroma exceeds it are
// dropped as well, which rejects saturated map symbols that happen to be
// light.
//
// Items lacking contour metadata are an error.
type WhiteCircleFilter struct {
	Threshold float64
	MaxChroma float64
}

func (WhiteCircleFilter) Name() string { return "White Circle Filtering" }

func (s WhiteCircleFilter) Process(items []*pipeline.Record, env *pipeline.Env) ([]*pipeline.Record, error) {
	out := make([]*pipeline.Record, 0, len(items))
	for _, rec := range items {
		c, err := contourFromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("cannot measure brightness: %w", err)
		}
		stats := c.Stats(rec.Source.Image(), rec.Source.Gray())
		if stats.Brightness < s.Threshold {
			continue
		}
		if s.MaxChroma > 0 && stats.Chroma > s.MaxChroma {
			continue
		}
		kept := rec.Clone()
		kept.Set(MetaIsWhite, pipeline.BoolValue(true))
		kept.Set(MetaBrightness, pipeline.FloatValue(stats.Brightness))
		kept.Set(MetaChroma, pipeline.FloatValue(stats.Chroma))
		out = append(out, kept)
	}
	env.Logf("%s: kept %d of %d", s.Name(), len(out), len(items))
	return out, nil
}
