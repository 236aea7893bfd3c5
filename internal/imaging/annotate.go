package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Mark is a labeled rectangle to draw on an annotated image.
type Mark struct {
	Rect  image.Rectangle
	Label string
}

// Annotate draws an outline around every mark and prints its label just
// above (or, at the top edge, just inside) the rectangle. The source
// image is not modified.
//
// boxColorHex is a "#RRGGBB" color; an empty or invalid value falls back
// to red.
func Annotate(img image.Image, marks []Mark, boxColorHex string) *image.RGBA {
	bounds := img.Bounds()
	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, img, bounds.Min, draw.Src)

	boxColor, err := ParseHexColor(boxColorHex)
	if err != nil {
		boxColor = color.RGBA{255, 0, 0, 255}
	}
	labelColor := color.RGBA{255, 255, 255, 255}

	for _, m := range marks {
		r := m.Rect.Intersect(bounds)
		if r.Empty() {
			continue
		}
		drawRect(result, r, boxColor)
		if m.Label == "" {
			continue
		}
		y := r.Min.Y - labelHeight - 1
		if y < bounds.Min.Y {
			y = r.Min.Y + 2
		}
		drawLabel(result, r.Min.X+1, y, m.Label, labelColor, boxColor)
	}
	return result
}

// ParseHexColor parses a color like "#FF0000" (or without the leading #).
func ParseHexColor(hex string) (color.RGBA, error) {
	if hex == "" {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

func drawRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	for x := r.Min.X; x < r.Max.X; x++ {
		img.SetRGBA(x, r.Min.Y, c)
		img.SetRGBA(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.SetRGBA(r.Min.X, y, c)
		img.SetRGBA(r.Max.X-1, y, c)
	}
}

const (
	charWidth   = 4
	labelHeight = 7
)

// Simple 3x5 pixel font for house numbers
var glyphs = map[rune][]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
	'A': {"010", "101", "111", "101", "101"},
	'B': {"110", "101", "110", "101", "110"},
	'C': {"011", "100", "100", "100", "011"},
	'D': {"110", "101", "101", "101", "110"},
	'?': {"111", "001", "010", "000", "010"},
	'-': {"000", "000", "111", "000", "000"},
	'/': {"001", "001", "010", "100", "100"},
}

// drawLabel draws text on a filled background box. Unknown runes are
// rendered as '?'.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	bounds := img.Bounds()
	text = strings.ToUpper(text)
	labelWidth := len([]rune(text)) * charWidth

	// Draw background
	for dy := -1; dy < labelHeight-1; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			p := image.Pt(x+dx, y+dy)
			if p.In(bounds) {
				img.SetRGBA(p.X, p.Y, bg)
			}
		}
	}

	// Draw text
	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			glyph = glyphs['?']
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel != '1' {
					continue
				}
				p := image.Pt(cx+col, y+row)
				if p.In(bounds) {
					img.SetRGBA(p.X, p.Y, fg)
				}
			}
		}
		cx += charWidth
	}
}
