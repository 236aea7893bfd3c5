package detection

import (
	"fmt"
	"image"
	"math"

	imgops "github.com/ironsheep/addrslips/internal/imaging"
	"github.com/ironsheep/addrslips/internal/pipeline"
)

// Connectivity selects which neighbors join pixels into one component.
type Connectivity int

const (
	// Four joins pixels that share an edge.
	Four Connectivity = 4
	// Eight also joins diagonal neighbors.
	Eight Connectivity = 8
)

// kulpa corrects the length of an 8-direction chain code so that it
// estimates the perimeter of the underlying continuous shape.
var kulpa = math.Pi / 8 * (1 + math.Sqrt2)

// Contour is a connected component of foreground pixels in an edge map.
//
// Coordinates are inclusive pixel positions in the image the component
// was found in.
type Contour struct {
	MinX, MinY int
	MaxX, MaxY int

	// PixelCount is the number of pixels in the component.
	PixelCount int

	// Perimeter is the corrected chain length of the outer boundary of
	// the component with its holes filled.
	Perimeter float64

	// Area is the polygon area enclosed by the outer boundary.
	Area float64
}

// Width is the horizontal extent in pixels.
func (c Contour) Width() int { return c.MaxX - c.MinX + 1 }

// Height is the vertical extent in pixels.
func (c Contour) Height() int { return c.MaxY - c.MinY + 1 }

// Radius estimates the radius of a circle with the same bounding box.
func (c Contour) Radius() float64 {
	return float64(c.Width()+c.Height()) / 4
}

// AspectRatio is width over height.
func (c Contour) AspectRatio() float64 {
	return float64(c.Width()) / float64(c.Height())
}

// Center is the integer centre of the bounding box.
func (c Contour) Center() image.Point {
	return image.Pt((c.MinX+c.MaxX)/2, (c.MinY+c.MaxY)/2)
}

// Rect returns the bounding box as an image.Rectangle.
func (c Contour) Rect() image.Rectangle {
	return image.Rect(c.MinX, c.MinY, c.MaxX+1, c.MaxY+1)
}

// Circularity is P²/(4πA). A disc scores close to 1.0, a square about
// 1.14, and jagged shapes more. Shapes that enclose no area (lines, open
// arcs, single pixels) score +Inf.
func (c Contour) Circularity() float64 {
	if c.Area < 0.5 {
		return math.Inf(1)
	}
	return c.Perimeter * c.Perimeter / (4 * math.Pi * c.Area)
}

// Stats measures brightness and chroma of img inside the circle inscribed
// in the contour's bounding box. gray must be the grayscale view of img.
func (c Contour) Stats(img image.Image, gray *image.Gray) imgops.CircleStats {
	center := c.Center()
	circle := imgops.Circle{CX: float64(center.X), CY: float64(center.Y), Radius: c.Radius()}
	return imgops.MeasureCircle(img, gray, circle, c.Rect())
}

// AverageBrightness is the mean gray level (0-255) inside the circle
// inscribed in the bounding box.
func (c Contour) AverageBrightness(gray *image.Gray) float64 {
	return c.Stats(gray, gray).Brightness
}

// setMeta records the contour geometry on a record.
func (c Contour) setMeta(rec *pipeline.Record) {
	rec.Set(MetaContourMinX, pipeline.IntValue(c.MinX))
	rec.Set(MetaContourMinY, pipeline.IntValue(c.MinY))
	rec.Set(MetaContourMaxX, pipeline.IntValue(c.MaxX))
	rec.Set(MetaContourMaxY, pipeline.IntValue(c.MaxY))
	rec.Set(MetaPixelCount, pipeline.IntValue(c.PixelCount))
	rec.Set(MetaRadius, pipeline.FloatValue(c.Radius()))
	rec.Set(MetaCircularity, pipeline.FloatValue(c.Circularity()))
	rec.Set(MetaAspectRatio, pipeline.FloatValue(c.AspectRatio()))
}

// contourFromRecord rebuilds the bounding box part of a contour from
// record metadata.
func contourFromRecord(rec *pipeline.Record) (Contour, error) {
	var c Contour
	fields := []struct {
		key string
		dst *int
	}{
		{MetaContourMinX, &c.MinX},
		{MetaContourMinY, &c.MinY},
		{MetaContourMaxX, &c.MaxX},
		{MetaContourMaxY, &c.MaxY},
		{MetaPixelCount, &c.PixelCount},
	}
	for _, f := range fields {
		v, ok := rec.Int(f.key)
		if !ok {
			return Contour{}, fmt.Errorf("missing %s metadata", f.key)
		}
		*f.dst = v
	}
	if c.MaxX < c.MinX || c.MaxY < c.MinY {
		return Contour{}, fmt.Errorf("invalid contour box (%d,%d)-(%d,%d)", c.MinX, c.MinY, c.MaxX, c.MaxY)
	}
	return c, nil
}

// FindContours finds connected components of non-zero pixels in edges.
//
// Components with fewer than minArea pixels are discarded as noise.
// Components are returned in raster order of their first pixel, so the
// result is deterministic. Coordinates are relative to edges.Bounds().Min.
//
// # Algorithm
//
//  1. Labelling: an iterative flood fill groups foreground pixels using
//     the requested connectivity.
//  2. Hole filling: background reachable from outside the bounding box
//     (with the complementary connectivity) is exterior; everything else
//     belongs to the filled shape.
//  3. Boundary tracing: Moore neighbor tracing walks the outer boundary
//     of the filled shape clockwise, producing a chain of unit and
//     diagonal steps.
//  4. Measurement: the chain length times the Kulpa factor is the
//     perimeter; the shoelace formula over boundary pixel centres is the
//     area.
func FindContours(edges *image.Gray, minArea int, conn Connectivity) []Contour {
	bounds := edges.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	fg := func(x, y int) bool {
		return edges.Pix[(y+bounds.Min.Y-edges.Rect.Min.Y)*edges.Stride+(x+bounds.Min.X-edges.Rect.Min.X)] != 0
	}

	visited := make([]bool, width*height)
	contours := make([]Contour, 0)
	var component []image.Point

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if visited[y*width+x] || !fg(x, y) {
				continue
			}
			component = floodFill(fg, visited, x, y, width, height, conn, component[:0])
			if len(component) < minArea {
				continue
			}
			contours = append(contours, measure(component, conn))
		}
	}

	return contours
}

// floodFill performs iterative flood-fill from a starting point.
//
// Uses a stack-based approach (not recursive) to avoid stack overflow
// on large components. Marks visited pixels and appends them to out.
func floodFill(fg func(x, y int) bool, visited []bool, startX, startY, width, height int, conn Connectivity, out []image.Point) []image.Point {
	stack := []image.Point{{X: startX, Y: startY}}
	visited[startY*width+startX] = true

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, p)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				if conn == Four && dx != 0 && dy != 0 {
					continue
				}
				nx, ny := p.X+dx, p.Y+dy
				if nx < 0 || nx >= width || ny < 0 || ny >= height {
					continue
				}
				if visited[ny*width+nx] || !fg(nx, ny) {
					continue
				}
				visited[ny*width+nx] = true
				stack = append(stack, image.Point{X: nx, Y: ny})
			}
		}
	}
	return out
}

// measure computes the bounding box, perimeter and area of a component.
func measure(pixels []image.Point, conn Connectivity) Contour {
	c := Contour{
		MinX: pixels[0].X, MinY: pixels[0].Y,
		MaxX: pixels[0].X, MaxY: pixels[0].Y,
		PixelCount: len(pixels),
	}
	for _, p := range pixels[1:] {
		c.MinX = min(c.MinX, p.X)
		c.MinY = min(c.MinY, p.Y)
		c.MaxX = max(c.MaxX, p.X)
		c.MaxY = max(c.MaxY, p.Y)
	}

	// Local mask with a one pixel empty border
	mw := c.Width() + 2
	mh := c.Height() + 2
	mask := make([]bool, mw*mh)
	for _, p := range pixels {
		mask[(p.Y-c.MinY+1)*mw+(p.X-c.MinX+1)] = true
	}
	filled := fillHoles(mask, mw, mh, conn)

	chain, boundary := traceBoundary(filled, mw, mh)
	c.Perimeter = chain * kulpa
	c.Area = shoelace(boundary)
	return c
}

// fillHoles returns a mask where every pixel not reachable from the border
// through background is set. Background moves use the connectivity
// complementary to the foreground's.
func fillHoles(mask []bool, w, h int, conn Connectivity) []bool {
	exterior := make([]bool, len(mask))
	stack := []int{0}
	exterior[0] = true
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				// 8-connected shapes are closed against 4-connected background
				if conn == Eight && dx != 0 && dy != 0 {
					continue
				}
				nx, ny := x+dx, y+dy
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				n := ny*w + nx
				if exterior[n] || mask[n] {
					continue
				}
				exterior[n] = true
				stack = append(stack, n)
			}
		}
	}

	filled := make([]bool, len(mask))
	for i := range filled {
		filled[i] = !exterior[i]
	}
	return filled
}

// Moore neighborhood, clockwise in image coordinates starting east.
var moore = [8]image.Point{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

// traceBoundary walks the outer boundary of the shape in mask clockwise
// from its first pixel in raster order. It returns the chain length
// (1 per axis step, √2 per diagonal step) and the visited boundary pixels.
//
// The mask must have an empty one pixel border.
func traceBoundary(mask []bool, w, h int) (float64, []image.Point) {
	start := -1
	for i, v := range mask {
		if v {
			start = i
			break
		}
	}
	if start < 0 {
		return 0, nil
	}

	sx, sy := start%w, start/w
	at := func(x, y int) bool { return mask[y*w+x] }

	// Pixels above and to the left of start are empty, so the search
	// can begin at the north-east neighbor.
	next := func(x, y, dir int) (int, int, int, bool) {
		first := (dir + 7) % 8
		if dir%2 == 1 {
			first = (dir + 6) % 8
		}
		for k := 0; k < 8; k++ {
			d := (first + k) % 8
			nx, ny := x+moore[d].X, y+moore[d].Y
			if at(nx, ny) {
				return nx, ny, d, true
			}
		}
		return x, y, dir, false
	}

	boundary := []image.Point{{X: sx, Y: sy}}
	x, y, firstDir, ok := next(sx, sy, 0)
	if !ok {
		// isolated pixel
		return 0, boundary
	}

	length := stepLength(firstDir)
	dir := firstDir
	limit := 4*len(mask) + 8
	for steps := 0; steps < limit; steps++ {
		nx, ny, d, _ := next(x, y, dir)
		if x == sx && y == sy && d == firstDir {
			break
		}
		boundary = append(boundary, image.Point{X: x, Y: y})
		length += stepLength(d)
		x, y, dir = nx, ny, d
	}
	return length, boundary
}

func stepLength(dir int) float64 {
	if dir%2 == 1 {
		return math.Sqrt2
	}
	return 1
}

// shoelace returns the absolute area of the polygon through pts.
func shoelace(pts []image.Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	var sum int
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		sum += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(float64(sum)) / 2
}
