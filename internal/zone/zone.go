// Package zone defines cleanup zones for scanned document pages.
//
// A zone describes a rectangular area of a page where artifact removal is
// allowed to operate, such as a corner where staples leave marks or a
// binding margin with hole-punch shadows. Zones are stored in
// resolution-independent form and resolved to pixel rectangles for a
// concrete render of the page.
package zone

import (
	"fmt"
	"image"
	"math"
)

// BaseDPI is the reference resolution that pixel-sized zone dimensions are
// expressed at. A zone with a 130px fixed width covers 130 physical pixels
// when the page is rendered at BaseDPI and scales proportionally at other
// resolutions.
const BaseDPI = 120

// Threshold limits for zone sensitivity. Values outside this range are
// rejected by Validate.
const (
	MinThreshold = 1
	MaxThreshold = 20
)

// SizingMode selects how a zone's position and size are interpreted.
type SizingMode int

const (
	// Percent sizes both axes as fractions of the page dimensions.
	Percent SizingMode = iota

	// FixedPixels sizes both axes in pixels at BaseDPI.
	FixedPixels

	// Hybrid fixes the depth axis in pixels at BaseDPI and stretches the
	// other axis as a fraction of the page. Used for margin strips: a
	// left-margin zone has a fixed pixel width and a fractional height.
	Hybrid
)

// String returns the mode name used in configuration files.
func (m SizingMode) String() string {
	switch m {
	case Percent:
		return "percent"
	case FixedPixels:
		return "fixed"
	case Hybrid:
		return "hybrid"
	default:
		return fmt.Sprintf("SizingMode(%d)", int(m))
	}
}

// ParseSizingMode converts a configuration string to a SizingMode.
func ParseSizingMode(s string) (SizingMode, error) {
	switch s {
	case "percent":
		return Percent, nil
	case "fixed":
		return FixedPixels, nil
	case "hybrid":
		return Hybrid, nil
	default:
		return 0, fmt.Errorf("unknown sizing mode %q", s)
	}
}

// Anchor pins a zone to a page corner or edge. Anchored zones are positioned
// from the page border rather than from their origin fields, so they stay
// attached to the border at any resolution.
type Anchor int

const (
	// Free zones are positioned by their origin fields.
	Free Anchor = iota

	TopLeft
	TopRight
	BottomLeft
	BottomRight

	LeftEdge
	RightEdge
	TopEdge
	BottomEdge
)

// String returns the anchor name used in configuration files.
func (a Anchor) String() string {
	switch a {
	case Free:
		return "free"
	case TopLeft:
		return "top-left"
	case TopRight:
		return "top-right"
	case BottomLeft:
		return "bottom-left"
	case BottomRight:
		return "bottom-right"
	case LeftEdge:
		return "left"
	case RightEdge:
		return "right"
	case TopEdge:
		return "top"
	case BottomEdge:
		return "bottom"
	default:
		return fmt.Sprintf("Anchor(%d)", int(a))
	}
}

// ParseAnchor converts a configuration string to an Anchor.
func ParseAnchor(s string) (Anchor, error) {
	switch s {
	case "free", "":
		return Free, nil
	case "top-left":
		return TopLeft, nil
	case "top-right":
		return TopRight, nil
	case "bottom-left":
		return BottomLeft, nil
	case "bottom-right":
		return BottomRight, nil
	case "left":
		return LeftEdge, nil
	case "right":
		return RightEdge, nil
	case "top":
		return TopEdge, nil
	case "bottom":
		return BottomEdge, nil
	default:
		return 0, fmt.Errorf("unknown anchor %q", s)
	}
}

// IsCorner reports whether the anchor pins the zone to a page corner.
func (a Anchor) IsCorner() bool {
	switch a {
	case TopLeft, TopRight, BottomLeft, BottomRight:
		return true
	}
	return false
}

// IsEdge reports whether the anchor pins the zone to a single page edge.
func (a Anchor) IsEdge() bool {
	switch a {
	case LeftEdge, RightEdge, TopEdge, BottomEdge:
		return true
	}
	return false
}

// Scope controls which pages a zone applies to.
type Scope int

const (
	// Global zones apply to every page of every file.
	Global Scope = iota

	// PerFile zones apply to every page of one file.
	PerFile

	// PerPage zones apply to a single page of one file.
	PerPage
)

// String returns the scope name used in configuration files.
func (s Scope) String() string {
	switch s {
	case Global:
		return "global"
	case PerFile:
		return "file"
	case PerPage:
		return "page"
	default:
		return fmt.Sprintf("Scope(%d)", int(s))
	}
}

// ParseScope converts a configuration string to a Scope.
func ParseScope(s string) (Scope, error) {
	switch s {
	case "global", "":
		return Global, nil
	case "file":
		return PerFile, nil
	case "page":
		return PerPage, nil
	default:
		return 0, fmt.Errorf("unknown scope %q", s)
	}
}

// Zone is a cleanup area on a page, stored in resolution-independent form.
//
// Depending on Mode, size and position come from the fractional fields
// (XFrac, YFrac, WidthFrac, HeightFrac — fractions of the page dimensions)
// or the pixel fields (XPx, YPx, WidthPx, HeightPx — pixels at BaseDPI),
// or a mix of both for Hybrid zones. Anchored zones ignore the origin
// fields on the pinned axes.
type Zone struct {
	// ID identifies the zone in configuration and logs.
	ID string

	// Name is a human-readable label shown in previews.
	Name string

	Mode   SizingMode
	Anchor Anchor

	// Fractional geometry (Percent mode, and the stretch axis of Hybrid).
	XFrac      float64
	YFrac      float64
	WidthFrac  float64
	HeightFrac float64

	// Pixel geometry at BaseDPI (FixedPixels mode, and the depth axis of
	// Hybrid).
	XPx      int
	YPx      int
	WidthPx  int
	HeightPx int

	// Threshold is the brightness-difference sensitivity used by the
	// removal engine for this zone. Valid range is MinThreshold to
	// MaxThreshold; lower values remove more aggressively.
	Threshold int

	// Scope limits which pages the zone applies to. File and Page are
	// consulted only for PerFile and PerPage scopes.
	Scope Scope
	File  string
	Page  int

	Enabled bool
}

// Validate checks the zone's fields for internal consistency.
//
// Returns a descriptive error for the first problem found: a threshold
// outside [MinThreshold, MaxThreshold], a fraction outside [0, 1], a
// negative pixel dimension, or a Hybrid zone without an edge anchor.
func (z *Zone) Validate() error {
	if z.Threshold < MinThreshold || z.Threshold > MaxThreshold {
		return fmt.Errorf("zone %s: threshold %d out of range [%d, %d]",
			z.ID, z.Threshold, MinThreshold, MaxThreshold)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"x", z.XFrac}, {"y", z.YFrac},
		{"width", z.WidthFrac}, {"height", z.HeightFrac},
	} {
		if f.v < 0 || f.v > 1 {
			return fmt.Errorf("zone %s: fractional %s %v out of range [0, 1]",
				z.ID, f.name, f.v)
		}
	}
	if z.WidthPx < 0 || z.HeightPx < 0 {
		return fmt.Errorf("zone %s: negative pixel dimensions %dx%d",
			z.ID, z.WidthPx, z.HeightPx)
	}
	if z.Mode == Hybrid && !z.Anchor.IsEdge() {
		return fmt.Errorf("zone %s: hybrid sizing requires an edge anchor, got %s",
			z.ID, z.Anchor)
	}
	return nil
}

// scalePx converts a BaseDPI pixel count to the render resolution.
// Round-half-to-even keeps repeated scaling stable and makes integer scale
// factors exact: a 130px dimension at 240 DPI is exactly 260px.
func scalePx(px int, dpiScale float64) int {
	return int(math.RoundToEven(float64(px) * dpiScale))
}

// scaleFrac converts a page fraction to pixels for the given page dimension.
func scaleFrac(frac float64, pageDim int) int {
	return int(math.RoundToEven(frac * float64(pageDim)))
}

// Resolve converts the zone to a pixel rectangle on a page rendered at the
// given scale.
//
// Parameters:
//   - pageW, pageH: Page dimensions in pixels at the render resolution.
//   - dpiScale: Render DPI divided by BaseDPI (1.0 at 120 DPI, 2.5 at 300).
//
// Returns the zone rectangle clamped to the page bounds. Zones that fall
// entirely outside the page, or have a zero dimension, produce an empty
// rectangle; callers treat those as no-ops rather than errors.
//
// # Resolution Order
//
// Pixel-sized axes resolve first (BaseDPI pixels times dpiScale), then
// fractional axes resolve against the page dimension. For Hybrid zones this
// means the fixed depth never depends on the fractional stretch. Anchored
// zones are then pinned to their page border, overriding the origin on the
// pinned axes.
func (z *Zone) Resolve(pageW, pageH int, dpiScale float64) image.Rectangle {
	var x, y, w, h int

	switch z.Mode {
	case FixedPixels:
		w = scalePx(z.WidthPx, dpiScale)
		h = scalePx(z.HeightPx, dpiScale)
		x = scalePx(z.XPx, dpiScale)
		y = scalePx(z.YPx, dpiScale)
	case Hybrid:
		// Depth axis fixed, stretch axis fractional, per the anchor.
		switch z.Anchor {
		case LeftEdge, RightEdge:
			w = scalePx(z.WidthPx, dpiScale)
			h = scaleFrac(z.HeightFrac, pageH)
			y = scaleFrac(z.YFrac, pageH)
		case TopEdge, BottomEdge:
			h = scalePx(z.HeightPx, dpiScale)
			w = scaleFrac(z.WidthFrac, pageW)
			x = scaleFrac(z.XFrac, pageW)
		}
	default: // Percent
		w = scaleFrac(z.WidthFrac, pageW)
		h = scaleFrac(z.HeightFrac, pageH)
		x = scaleFrac(z.XFrac, pageW)
		y = scaleFrac(z.YFrac, pageH)
	}

	// Anchors override the origin on the pinned axes.
	switch z.Anchor {
	case TopLeft:
		x, y = 0, 0
	case TopRight:
		x, y = pageW-w, 0
	case BottomLeft:
		x, y = 0, pageH-h
	case BottomRight:
		x, y = pageW-w, pageH-h
	case LeftEdge:
		x = 0
	case RightEdge:
		x = pageW - w
	case TopEdge:
		y = 0
	case BottomEdge:
		y = pageH - h
	}

	r := image.Rect(x, y, x+w, y+h)
	return r.Intersect(image.Rect(0, 0, pageW, pageH))
}

// ResolvePadded resolves the zone and extends it by pad pixels toward the
// page border it is anchored to.
//
// Staple marks often bleed to the physical page edge, and rounding during
// resolution can leave the nominal rectangle a pixel or two short of the
// border. Corner anchors extend on their two outward sides, edge anchors on
// one. Free zones are not extended. The result is clamped to the page
// bounds.
func (z *Zone) ResolvePadded(pageW, pageH int, dpiScale float64, pad int) image.Rectangle {
	r := z.Resolve(pageW, pageH, dpiScale)
	if r.Empty() || pad <= 0 {
		return r
	}
	switch z.Anchor {
	case TopLeft:
		r.Min.X -= pad
		r.Min.Y -= pad
	case TopRight:
		r.Max.X += pad
		r.Min.Y -= pad
	case BottomLeft:
		r.Min.X -= pad
		r.Max.Y += pad
	case BottomRight:
		r.Max.X += pad
		r.Max.Y += pad
	case LeftEdge:
		r.Min.X -= pad
	case RightEdge:
		r.Max.X += pad
	case TopEdge:
		r.Min.Y -= pad
	case BottomEdge:
		r.Max.Y += pad
	}
	return r.Intersect(image.Rect(0, 0, pageW, pageH))
}
