// Package testimage draws synthetic map scans with numbered marker circles.
//
// The images stand in for real screenshots in tests and demos: a flat
// background with filled white circles, each labeled with black digits
// rendered from the basicfont 7x13 face.
package testimage

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Marker is one numbered circle.
type Marker struct {
	X, Y   int
	Radius int
	Label  string

	// Fill is the circle color; nil means white.
	Fill color.Color
}

// Scene describes a synthetic image.
type Scene struct {
	Width, Height int
	Background    color.Color
	Markers       []Marker

	// TextScale enlarges the 7x13 glyphs by an integer factor.
	TextScale int
}

// Standard returns a 200x200 dark scene with a single circle of radius 30
// labeled "42" at its centre.
func Standard() Scene {
	return Scene{
		Width:      200,
		Height:     200,
		Background: color.Gray{Y: 80},
		Markers:    []Marker{{X: 100, Y: 100, Radius: 30, Label: "42"}},
		TextScale:  2,
	}
}

// Street returns a wider scene with several markers along a row plus a
// light gray decoy disc that is too dim to count as white.
func Street() Scene {
	return Scene{
		Width:      480,
		Height:     200,
		Background: color.RGBA{70, 90, 70, 255},
		Markers: []Marker{
			{X: 70, Y: 100, Radius: 30, Label: "12"},
			{X: 170, Y: 100, Radius: 30, Label: "14"},
			{X: 270, Y: 100, Radius: 30, Label: "16"},
			{X: 380, Y: 100, Radius: 30, Label: "", Fill: color.Gray{Y: 150}},
		},
		TextScale: 2,
	}
}

// Draw renders the scene.
func Draw(s Scene) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
	bg := s.Background
	if bg == nil {
		bg = color.Black
	}
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	scale := max(1, s.TextScale)
	for _, m := range s.Markers {
		fill := m.Fill
		if fill == nil {
			fill = color.White
		}
		drawDisc(img, m.X, m.Y, m.Radius, fill)
		if m.Label != "" {
			drawCenteredText(img, m.X, m.Y, m.Label, scale, color.Black)
		}
	}
	return img
}

// Save renders the scene and writes it to path. The format follows the
// file extension.
func Save(s Scene, path string) error {
	if err := imaging.Save(Draw(s), path); err != nil {
		return fmt.Errorf("failed to save test image: %w", err)
	}
	return nil
}

func drawDisc(img *image.RGBA, cx, cy, r int, c color.Color) {
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r && image.Pt(x, y).In(img.Bounds()) {
				img.Set(x, y, c)
			}
		}
	}
}

// drawCenteredText draws text so that its bounding box is centered on
// (cx, cy), scaling each glyph pixel to a scale x scale block.
func drawCenteredText(img *image.RGBA, cx, cy int, text string, scale int, col color.Color) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	height := face.Ascent + face.Descent

	small := image.NewAlpha(image.Rect(0, 0, width, height))
	d := &font.Drawer{
		Dst:  small,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(text)

	x0 := cx - width*scale/2
	y0 := cy - height*scale/2
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if small.AlphaAt(x, y).A < 128 {
				continue
			}
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					p := image.Pt(x0+x*scale+dx, y0+y*scale+dy)
					if p.In(img.Bounds()) {
						img.Set(p.X, p.Y, col)
					}
				}
			}
		}
	}
}
