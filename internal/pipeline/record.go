package pipeline

import (
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"

	imgops "github.com/ironsheep/addrslips/internal/imaging"
)

// BoundingBox locates a region inside the original image.
//
// X and Y are the top-left corner (inclusive); Width and Height are
// always positive for a box attached to a Record.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect converts the box to an image.Rectangle (max exclusive).
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Center returns the integer center of the box.
func (b BoundingBox) Center() (int, int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Source is the shared, read-only handle to the original image of a run.
//
// Every record derived from one run points at the same Source. Nothing
// writes to the pixels after NewSource returns, so readers need no locks.
type Source struct {
	img image.Image

	grayOnce sync.Once
	gray     *image.Gray
}

// NewSource wraps img. Images whose bounds do not start at the origin are
// copied once so that record coordinates are always 0-based.
func NewSource(img image.Image) *Source {
	if img.Bounds().Min != (image.Point{}) {
		img = imaging.Clone(img)
	}
	return &Source{img: img}
}

// Image returns the original image. Callers must not modify it.
func (s *Source) Image() image.Image { return s.img }

// Bounds returns the original's bounds (always origin-based).
func (s *Source) Bounds() image.Rectangle { return s.img.Bounds() }

// Width returns the original's width in pixels.
func (s *Source) Width() int { return s.img.Bounds().Dx() }

// Height returns the original's height in pixels.
func (s *Source) Height() int { return s.img.Bounds().Dy() }

// Gray returns a grayscale view of the original, computed on first use.
func (s *Source) Gray() *image.Gray {
	s.grayOnce.Do(func() {
		s.gray = imgops.ToGray(s.img)
	})
	return s.gray
}

// Record is the unit of work flowing through a pipeline.
type Record struct {
	// Image is this record's own pixels: the full frame or a crop, color or
	// grayscale depending on the stage that produced it.
	Image image.Image

	// Source is the shared original image.
	Source *Source

	// Box locates Image inside the original. Nil means the whole image.
	Box *BoundingBox

	// Meta holds derived properties such as radius or OCR confidence.
	Meta *Metadata

	// Lineage is set by the lineage executor only.
	Lineage Lineage
}

// NewRecord creates the record that represents the whole original image.
func NewRecord(src *Source) *Record {
	return &Record{
		Image:  src.Image(),
		Source: src,
		Meta:   NewMetadata(),
	}
}

// NewRegion creates a record for a sub-region of the original. The box
// must be expressed in the original's coordinates and lie inside it.
func NewRegion(img image.Image, src *Source, box BoundingBox) (*Record, error) {
	if box.Width <= 0 || box.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d at (%d,%d) has no area",
			ErrInvalidBox, box.Width, box.Height, box.X, box.Y)
	}
	if !box.Rect().In(src.Bounds()) {
		return nil, fmt.Errorf("%w: (%d,%d)-(%d,%d) outside image bounds %dx%d",
			ErrInvalidBox, box.X, box.Y, box.X+box.Width, box.Y+box.Height, src.Width(), src.Height())
	}
	b := box
	return &Record{
		Image:  img,
		Source: src,
		Box:    &b,
		Meta:   NewMetadata(),
	}, nil
}

// Clone returns a copy that shares the image and source but owns its
// metadata, so the copy can be annotated without touching r.
func (r *Record) Clone() *Record {
	c := *r
	c.Meta = r.Meta.Clone()
	if r.Box != nil {
		b := *r.Box
		c.Box = &b
	}
	c.Lineage = r.Lineage.clone()
	return &c
}

// WithImage returns a clone of r whose pixels are replaced by img.
func (r *Record) WithImage(img image.Image) *Record {
	c := r.Clone()
	c.Image = img
	return c
}

// Region returns the area of the original covered by r.
func (r *Record) Region() image.Rectangle {
	if r.Box == nil {
		return r.Source.Bounds()
	}
	return r.Box.Rect()
}

// Set stores a metadata value on r.
func (r *Record) Set(key string, v Value) {
	if r.Meta == nil {
		r.Meta = NewMetadata()
	}
	r.Meta.Set(key, v)
}

// Bool returns a bool metadata value.
func (r *Record) Bool(key string) (bool, bool) { return r.Meta.Bool(key) }

// Float returns a float metadata value.
func (r *Record) Float(key string) (float64, bool) { return r.Meta.Float(key) }

// Int returns an int metadata value.
func (r *Record) Int(key string) (int, bool) { return r.Meta.Int(key) }

// String returns a string metadata value.
func (r *Record) String(key string) (string, bool) { return r.Meta.String(key) }
