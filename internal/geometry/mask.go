package geometry

import (
	"image"

	"golang.org/x/image/vector"
)

// MaskThreshold is the coverage level at which a pixel counts as inside a
// rasterized polygon. Half coverage keeps the mask close to the true
// polygon boundary regardless of edge direction.
const MaskThreshold = 128

// Mask rasterizes the polygon into an alpha image over the given page-space
// bounds. Alpha values are antialiased coverage (0 outside, 255 fully
// inside); compare against MaskThreshold for a binary decision. Hole rings
// are carved out of the exterior coverage. An empty polygon or empty bounds
// produces a fully transparent mask.
func Mask(p Polygon, bounds image.Rectangle) *image.Alpha {
	mask := image.NewAlpha(bounds)
	if p.Empty() || bounds.Empty() {
		return mask
	}

	rasterizeRing(mask, p.Exterior, bounds, false)
	for _, h := range p.Holes {
		rasterizeRing(mask, h, bounds, true)
	}
	return mask
}

// rasterizeRing fills (or, for holes, subtracts) one ring's coverage.
func rasterizeRing(dst *image.Alpha, ring []Point, bounds image.Rectangle, subtract bool) {
	if len(ring) < 3 {
		return
	}
	w, h := bounds.Dx(), bounds.Dy()
	r := vector.NewRasterizer(w, h)
	ox, oy := float32(bounds.Min.X), float32(bounds.Min.Y)

	r.MoveTo(float32(ring[0].X)-ox, float32(ring[0].Y)-oy)
	for _, pt := range ring[1:] {
		r.LineTo(float32(pt.X)-ox, float32(pt.Y)-oy)
	}
	r.ClosePath()

	cover := image.NewAlpha(image.Rect(0, 0, w, h))
	r.Draw(cover, cover.Bounds(), image.Opaque, image.Point{})

	for y := 0; y < h; y++ {
		srcRow := cover.Pix[y*cover.Stride : y*cover.Stride+w]
		dstRow := dst.Pix[y*dst.Stride : y*dst.Stride+w]
		if subtract {
			for x, a := range srcRow {
				if int(dstRow[x]) <= int(a) {
					dstRow[x] = 0
				} else {
					dstRow[x] -= a
				}
			}
		} else {
			for x, a := range srcRow {
				if int(dstRow[x])+int(a) >= 255 {
					dstRow[x] = 255
				} else {
					dstRow[x] += a
				}
			}
		}
	}
}

// MaskContains reports whether the page-space point is inside the mask.
func MaskContains(mask *image.Alpha, x, y int) bool {
	if !image.Pt(x, y).In(mask.Rect) {
		return false
	}
	return mask.AlphaAt(x, y).A >= MaskThreshold
}
