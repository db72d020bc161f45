package geometry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/peterstace/simplefeatures/geom"
)

// toGeom converts a Polygon to a simplefeatures geometry. The conversion
// goes through WKT, which also validates the ring structure; invalid input
// (self-intersection, repeated points collapsing a ring) surfaces as a
// GeometryError.
func toGeom(p Polygon) (geom.Geometry, error) {
	if p.Empty() {
		return geom.Geometry{}, &GeometryError{
			Op:  "convert",
			Err: fmt.Errorf("polygon has %d exterior vertices, need at least 3", len(p.Exterior)),
		}
	}
	var sb strings.Builder
	sb.WriteString("POLYGON(")
	writeRing(&sb, p.Exterior)
	for _, h := range p.Holes {
		sb.WriteByte(',')
		writeRing(&sb, h)
	}
	sb.WriteByte(')')

	g, err := geom.UnmarshalWKT(sb.String())
	if err != nil {
		return geom.Geometry{}, &GeometryError{Op: "convert", Err: err}
	}
	return g, nil
}

// writeRing appends one closed WKT ring, repeating the first vertex at the
// end as WKT requires.
func writeRing(sb *strings.Builder, ring []Point) {
	sb.WriteByte('(')
	for _, pt := range ring {
		writePoint(sb, pt)
		sb.WriteByte(',')
	}
	writePoint(sb, ring[0])
	sb.WriteByte(')')
}

func writePoint(sb *strings.Builder, pt Point) {
	sb.WriteString(strconv.FormatFloat(pt.X, 'f', -1, 64))
	sb.WriteByte(' ')
	sb.WriteString(strconv.FormatFloat(pt.Y, 'f', -1, 64))
}

// fromGeom flattens a simplefeatures geometry into polygons. Boolean
// operations can return a single polygon, a multipolygon, or a collection
// that mixes in lower-dimensional pieces (points, lines along shared
// edges); only areal components are kept.
func fromGeom(g geom.Geometry) []Polygon {
	switch g.Type() {
	case geom.TypePolygon:
		p := convertPolygon(g.MustAsPolygon())
		if p.Empty() {
			return nil
		}
		return []Polygon{p}
	case geom.TypeMultiPolygon:
		mp := g.MustAsMultiPolygon()
		out := make([]Polygon, 0, mp.NumPolygons())
		for i := 0; i < mp.NumPolygons(); i++ {
			if p := convertPolygon(mp.PolygonN(i)); !p.Empty() {
				out = append(out, p)
			}
		}
		return out
	case geom.TypeGeometryCollection:
		gc := g.MustAsGeometryCollection()
		var out []Polygon
		for i := 0; i < gc.NumGeometries(); i++ {
			out = append(out, fromGeom(gc.GeometryN(i))...)
		}
		return out
	default:
		return nil
	}
}

func convertPolygon(p geom.Polygon) Polygon {
	out := Polygon{Exterior: convertRing(p.ExteriorRing())}
	for i := 0; i < p.NumInteriorRings(); i++ {
		out.Holes = append(out.Holes, convertRing(p.InteriorRingN(i)))
	}
	return out
}

// convertRing extracts ring vertices, dropping the WKT closing point.
func convertRing(ls geom.LineString) []Point {
	seq := ls.Coordinates()
	n := seq.Length()
	if n < 2 {
		return nil
	}
	out := make([]Point, 0, n-1)
	for i := 0; i < n-1; i++ {
		xy := seq.GetXY(i)
		out = append(out, Point{xy.X, xy.Y})
	}
	return out
}

// Validate checks that the polygon describes a valid simple area. Returns a
// GeometryError describing the defect, or nil.
func Validate(p Polygon) error {
	_, err := toGeom(p)
	return err
}

// Union merges overlapping polygons into a minimal set of disjoint ones.
func Union(polys []Polygon) ([]Polygon, error) {
	if len(polys) == 0 {
		return nil, nil
	}
	acc, err := toGeom(polys[0])
	if err != nil {
		return nil, err
	}
	for _, p := range polys[1:] {
		g, err := toGeom(p)
		if err != nil {
			return nil, err
		}
		acc, err = geom.Union(acc, g)
		if err != nil {
			return nil, &GeometryError{Op: "union", Err: err}
		}
	}
	return fromGeom(acc), nil
}

// Difference subtracts every clip polygon from the subject and returns the
// remaining area as zero or more disjoint polygons. A subject fully covered
// by the clips yields an empty slice and no error.
func Difference(subject Polygon, clips []Polygon) ([]Polygon, error) {
	sg, err := toGeom(subject)
	if err != nil {
		return nil, err
	}
	for _, c := range clips {
		cg, err := toGeom(c)
		if err != nil {
			return nil, err
		}
		sg, err = geom.Difference(sg, cg)
		if err != nil {
			return nil, &GeometryError{Op: "difference", Err: err}
		}
		if sg.IsEmpty() {
			return nil, nil
		}
	}
	return fromGeom(sg), nil
}

// Simplify reduces vertex count with a tolerance in pixels, collapsing the
// staircase edges that grid-aligned boolean results accumulate. A polygon
// that degenerates below three vertices simplifies to nothing.
func Simplify(p Polygon, tolerance float64) ([]Polygon, error) {
	if tolerance <= 0 {
		return []Polygon{p}, nil
	}
	g, err := toGeom(p)
	if err != nil {
		return nil, err
	}
	sg, err := g.Simplify(tolerance)
	if err != nil {
		// A tolerance large enough to collapse the ring is not a caller
		// bug; fall back to the unsimplified polygon.
		return []Polygon{p}, nil
	}
	return fromGeom(sg), nil
}

// Intersects reports whether two polygons share any area or boundary.
func Intersects(a, b Polygon) (bool, error) {
	ga, err := toGeom(a)
	if err != nil {
		return false, err
	}
	gb, err := toGeom(b)
	if err != nil {
		return false, err
	}
	return geom.Intersects(ga, gb), nil
}
