// Package overlay renders debug previews: protected regions and computed
// safe zones drawn over a copy of the page. The output is for human
// inspection only and never feeds back into processing.
package overlay

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/scanworks/unstaple/internal/detect"
	"github.com/scanworks/unstaple/internal/geometry"
	"github.com/scanworks/unstaple/internal/optimizer"
)

// safeColor outlines safe-zone polygons.
var safeColor = color.NRGBA{R: 0x22, G: 0xbb, B: 0x33, A: 0xff}

// labelColors assigns each canonical label a distinct hue. The palette is
// generated once, deterministically ordered by detect.AllLabels.
var labelColors = buildLabelColors()

func buildLabelColors() map[detect.Label]color.NRGBA {
	palette := colorful.FastHappyPalette(len(detect.AllLabels))
	out := make(map[detect.Label]color.NRGBA, len(detect.AllLabels))
	for i, l := range detect.AllLabels {
		r, g, b := palette[i].RGB255()
		out[l] = color.NRGBA{R: r, G: g, B: b, A: 0xff}
	}
	return out
}

// LabelColor returns the preview color for a label. Unknown labels get a
// neutral gray.
func LabelColor(l detect.Label) color.NRGBA {
	if c, ok := labelColors[l]; ok {
		return c
	}
	return color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
}

// Render draws protected regions and safe zones onto a copy of the page.
// Regions get label-colored rectangles, safe zones green polygon outlines.
func Render(img image.Image, regions []detect.Region, safe []optimizer.SafeZone) *image.NRGBA {
	out := imaging.Clone(img)
	for _, r := range regions {
		drawRect(out, r.Bounds, LabelColor(r.Label))
	}
	for i := range safe {
		drawPolygon(out, safe[i].Polygon)
	}
	return out
}

// drawRect outlines a rectangle, clamped to the image.
func drawRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		img.SetNRGBA(x, r.Min.Y, c)
		img.SetNRGBA(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.SetNRGBA(r.Min.X, y, c)
		img.SetNRGBA(r.Max.X-1, y, c)
	}
}

// drawPolygon traces every ring of the polygon.
func drawPolygon(img *image.NRGBA, p geometry.Polygon) {
	drawRing(img, p.Exterior)
	for _, h := range p.Holes {
		drawRing(img, h)
	}
}

func drawRing(img *image.NRGBA, ring []geometry.Point) {
	if len(ring) < 2 {
		return
	}
	for i := range ring {
		a := ring[i]
		b := ring[(i+1)%len(ring)]
		drawLine(img, int(a.X), int(a.Y), int(b.X), int(b.Y), safeColor)
	}
}

// drawLine is plain Bresenham.
func drawLine(img *image.NRGBA, x0, y0, x1, y1 int, c color.NRGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		if image.Pt(x0, y0).In(img.Bounds()) {
			img.SetNRGBA(x0, y0, c)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
