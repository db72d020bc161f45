// Package geometry provides the polygon operations behind safe-zone
// computation: boolean set operations, simplification, scaling, and
// rasterization to pixel masks.
//
// Boolean operations are delegated to the simplefeatures library rather
// than hand-rolled clipping; polygon intersection edge cases (shared
// vertices, collinear edges, degenerate slivers) are exactly where ad-hoc
// implementations go wrong.
package geometry

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// Point is a vertex in page pixel coordinates. Coordinates are floats
// because polygon intersections land between pixel centers.
type Point struct {
	X, Y float64
}

// Polygon is a simple polygon with optional holes. Rings are open: the
// closing edge from the last vertex back to the first is implied.
type Polygon struct {
	Exterior []Point
	Holes    [][]Point
}

// GeometryError reports invalid polygon input, such as a self-intersecting
// ring or fewer than three vertices. Operations that receive invalid input
// return an empty result along with a GeometryError so callers can skip the
// offending zone instead of corrupting the page.
type GeometryError struct {
	Op  string
	Err error
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("geometry: %s: %v", e.Op, e.Err)
}

func (e *GeometryError) Unwrap() error { return e.Err }

// IsGeometryError reports whether err is (or wraps) a GeometryError.
func IsGeometryError(err error) bool {
	var ge *GeometryError
	return errors.As(err, &ge)
}

// RectPolygon converts a pixel rectangle to a counter-clockwise polygon.
func RectPolygon(r image.Rectangle) Polygon {
	x1, y1 := float64(r.Min.X), float64(r.Min.Y)
	x2, y2 := float64(r.Max.X), float64(r.Max.Y)
	return Polygon{
		Exterior: []Point{{x1, y1}, {x2, y1}, {x2, y2}, {x1, y2}},
	}
}

// Empty reports whether the polygon has no usable exterior ring.
func (p Polygon) Empty() bool {
	return len(p.Exterior) < 3
}

// Area returns the polygon's area in square pixels, with hole areas
// subtracted. Ring orientation does not matter.
func (p Polygon) Area() float64 {
	a := ringArea(p.Exterior)
	for _, h := range p.Holes {
		a -= ringArea(h)
	}
	if a < 0 {
		return 0
	}
	return a
}

// ringArea computes the absolute shoelace area of a ring.
func ringArea(ring []Point) float64 {
	if len(ring) < 3 {
		return 0
	}
	var sum float64
	for i, pt := range ring {
		next := ring[(i+1)%len(ring)]
		sum += pt.X*next.Y - next.X*pt.Y
	}
	return math.Abs(sum) / 2
}

// BBox returns the smallest integer rectangle containing the polygon.
// Bounds round outward (floor on min, ceil on max) so the box never clips
// the polygon. The second return value is false for empty polygons.
func (p Polygon) BBox() (image.Rectangle, bool) {
	if p.Empty() {
		return image.Rectangle{}, false
	}
	minX, minY := p.Exterior[0].X, p.Exterior[0].Y
	maxX, maxY := minX, minY
	for _, pt := range p.Exterior[1:] {
		minX = math.Min(minX, pt.X)
		minY = math.Min(minY, pt.Y)
		maxX = math.Max(maxX, pt.X)
		maxY = math.Max(maxY, pt.Y)
	}
	return image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX)), int(math.Ceil(maxY)),
	), true
}

// Scale returns a copy of the polygon with every coordinate multiplied by
// factor.
func (p Polygon) Scale(factor float64) Polygon {
	scaleRing := func(ring []Point) []Point {
		out := make([]Point, len(ring))
		for i, pt := range ring {
			out[i] = Point{pt.X * factor, pt.Y * factor}
		}
		return out
	}
	out := Polygon{Exterior: scaleRing(p.Exterior)}
	for _, h := range p.Holes {
		out.Holes = append(out.Holes, scaleRing(h))
	}
	return out
}

// ScaleRect scales a pixel rectangle by factor. Integer factors are exact;
// fractional results round half to even so that repeated up/down scaling
// does not drift in one direction.
func ScaleRect(r image.Rectangle, factor float64) image.Rectangle {
	round := func(v int) int {
		return int(math.RoundToEven(float64(v) * factor))
	}
	return image.Rect(round(r.Min.X), round(r.Min.Y), round(r.Max.X), round(r.Max.Y))
}

// ExpandRect grows a rectangle by margin pixels on every side.
func ExpandRect(r image.Rectangle, margin int) image.Rectangle {
	return image.Rect(r.Min.X-margin, r.Min.Y-margin, r.Max.X+margin, r.Max.Y+margin)
}
