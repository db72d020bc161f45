// Package optimizer carves protected content out of cleanup zones.
//
// Given a zone rectangle and the layout regions detected on the page, the
// optimizer computes the safe area: the part of the zone that removal may
// touch. Protected regions are expanded by a safety margin and subtracted
// from the zone with exact polygon arithmetic, so a zone overlapping a
// paragraph shrinks to the strip around it instead of being discarded.
package optimizer

import (
	"image"

	"github.com/scanworks/unstaple/internal/detect"
	"github.com/scanworks/unstaple/internal/geometry"
)

// Options tunes the safe-zone computation.
type Options struct {
	// Margin grows every protected region by this many pixels on each
	// side before subtraction, keeping removal away from content edges.
	Margin int

	// SimplifyTolerance is the Douglas-Peucker tolerance in pixels
	// applied to result polygons. Zero disables simplification.
	SimplifyTolerance float64

	// MinArea drops result fragments smaller than this many square
	// pixels; slivers left between adjacent protected regions are too
	// small to clean usefully.
	MinArea float64
}

// DefaultOptions returns the tuning used by the processing pipeline.
func DefaultOptions() Options {
	return Options{
		Margin:            5,
		SimplifyTolerance: 2.0,
		MinArea:           100.0,
	}
}

// SafeZone is one cleanable area inside a zone rectangle.
type SafeZone struct {
	// Polygon is the cleanable area in page coordinates. It may carry
	// holes when a protected region sits strictly inside the zone.
	Polygon geometry.Polygon

	// Zone is the rectangle the polygon was carved from.
	Zone image.Rectangle

	// Coverage is the polygon's share of the zone area, in (0, 1].
	Coverage float64
}

// Mask rasterizes the safe area over the given page-space bounds.
func (s *SafeZone) Mask(bounds image.Rectangle) *image.Alpha {
	return geometry.Mask(s.Polygon, bounds)
}

// Optimize computes the safe areas of one zone rectangle.
//
// Parameters:
//   - zoneRect: The resolved zone in page pixel coordinates.
//   - regions: Protected layout regions for the page, any coordinates.
//   - opts: Margin, simplification, and minimum-area tuning.
//
// Returns zero or more disjoint safe zones. An empty zone rectangle or a
// zone fully covered by protected regions yields an empty slice with no
// error; a zone that no region touches comes back unchanged as a single
// safe zone with coverage 1.0. A non-nil error means the polygon
// arithmetic itself rejected the input and the caller should skip the zone
// rather than clean unprotected.
func Optimize(zoneRect image.Rectangle, regions []detect.Region, opts Options) ([]SafeZone, error) {
	if zoneRect.Empty() {
		return nil, nil
	}
	zonePoly := geometry.RectPolygon(zoneRect)
	zoneArea := zonePoly.Area()

	// Cheap rectangle prefilter before any polygon math. The margin has
	// to participate: a region just outside the zone still bites into it
	// once expanded.
	var clips []geometry.Polygon
	for _, r := range regions {
		expanded := geometry.ExpandRect(r.Bounds, opts.Margin)
		if !expanded.Overlaps(zoneRect) {
			continue
		}
		clips = append(clips, geometry.RectPolygon(expanded))
	}

	if len(clips) == 0 {
		return []SafeZone{{Polygon: zonePoly, Zone: zoneRect, Coverage: 1.0}}, nil
	}

	merged, err := geometry.Union(clips)
	if err != nil {
		return nil, err
	}
	remaining, err := geometry.Difference(zonePoly, merged)
	if err != nil {
		return nil, err
	}

	var out []SafeZone
	for _, poly := range remaining {
		if poly.Area() < opts.MinArea {
			continue
		}
		simplified, err := geometry.Simplify(poly, opts.SimplifyTolerance)
		if err != nil {
			return nil, err
		}
		for _, sp := range simplified {
			if sp.Area() < opts.MinArea {
				continue
			}
			out = append(out, SafeZone{
				Polygon:  sp,
				Zone:     zoneRect,
				Coverage: sp.Area() / zoneArea,
			})
		}
	}
	return out, nil
}

// OptimizeAll runs Optimize for every zone rectangle, preserving input
// order. Zones that fail polygon arithmetic are skipped and reported in
// the returned error slice, indexed like the input.
func OptimizeAll(zoneRects []image.Rectangle, regions []detect.Region, opts Options) ([]SafeZone, []error) {
	var out []SafeZone
	errs := make([]error, len(zoneRects))
	for i, zr := range zoneRects {
		safe, err := Optimize(zr, regions, opts)
		if err != nil {
			errs[i] = err
			continue
		}
		out = append(out, safe...)
	}
	return out, errs
}
