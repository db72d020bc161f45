// Package engine removes staple marks and scan artifacts from page images.
//
// The engine classifies pixels inside cleanup zones against the page
// background: anything darker than the background by more than the zone's
// threshold is an artifact candidate, unless it looks like printed text
// (very dark) or pen ink (strongly red or blue). Candidates are
// consolidated with morphology and filled with the background color.
//
// Analysis always reads the original input image; every zone's decisions
// are composited into a single output clone in input order, and the input
// itself is never written to.
package engine

import (
	"fmt"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/disintegration/imaging"

	"github.com/scanworks/unstaple/internal/detect"
	"github.com/scanworks/unstaple/internal/geometry"
	"github.com/scanworks/unstaple/internal/optimizer"
	"github.com/scanworks/unstaple/internal/zone"
)

// Options tunes the removal pipeline.
type Options struct {
	// ProtectDarkText keeps pixels darker than the text cutoff, on the
	// assumption that real staple shadows are gray while print is near
	// black.
	ProtectDarkText bool

	// TextCutoff is the dark-text luminance cutoff for free zones.
	TextCutoff int

	// AnchoredTextCutoff replaces TextCutoff in corner and margin zones,
	// where content is rare and shadows run darker.
	AnchoredTextCutoff int

	// ProtectInk keeps strongly red or blue pixels (stamps, signatures,
	// ballpoint ink).
	ProtectInk bool

	// ChromaDelta is the channel-dominance margin for the ink test: a
	// pixel is ink when its red (or blue) channel exceeds both others by
	// more than this.
	ChromaDelta int

	// EdgePadding extends anchored zones toward their page border, in
	// pixels.
	EdgePadding int

	// ClosePasses and DilatePasses control mask consolidation.
	ClosePasses  int
	DilatePasses int

	// FillColor overrides the sampled page background. Nil means sample
	// each page.
	FillColor *color.NRGBA

	// Optimizer tunes the safe-zone computation around protected
	// regions.
	Optimizer optimizer.Options
}

// DefaultOptions returns the production tuning.
func DefaultOptions() Options {
	return Options{
		ProtectDarkText:    true,
		TextCutoff:         80,
		AnchoredTextCutoff: 50,
		ProtectInk:         true,
		ChromaDelta:        30,
		EdgePadding:        10,
		ClosePasses:        2,
		DilatePasses:       3,
		Optimizer:          optimizer.DefaultOptions(),
	}
}

// Remover runs artifact removal over page images.
type Remover struct {
	opts Options
}

// New creates a Remover with the given options.
func New(opts Options) *Remover {
	return &Remover{opts: opts}
}

// ZoneResult reports what happened in one zone.
type ZoneResult struct {
	ZoneID    string
	Rect      image.Rectangle
	SafeZones int
	Removed   int

	// Err is set when the zone was skipped: invalid zone definition or
	// failed safe-zone geometry. Other zones still run.
	Err error
}

// Report summarizes a ProcessPage run.
type Report struct {
	Background color.NRGBA
	Zones      []ZoneResult
}

// Removed returns the total number of filled pixels.
func (r *Report) Removed() int {
	n := 0
	for _, z := range r.Zones {
		n += z.Removed
	}
	return n
}

// ProcessPage removes artifacts from one rendered page.
//
// Parameters:
//   - img: The page image. Never modified.
//   - zones: Cleanup zones, applied in slice order; where zones overlap,
//     later writes win.
//   - regions: Protected layout regions for this page; pass nil to clean
//     without protection.
//   - renderDPI: Resolution img was rendered at, used to scale fixed-size
//     zones and the morphology kernel. Zero or negative means BaseDPI.
//
// Returns the cleaned copy and a per-zone report. The error is non-nil
// only for unusable input (nil or empty image); per-zone failures land in
// the report and do not stop other zones.
func (rm *Remover) ProcessPage(img image.Image, zones []zone.Zone, regions []detect.Region, renderDPI int) (*image.NRGBA, *Report, error) {
	if img == nil {
		return nil, nil, fmt.Errorf("engine: nil image")
	}
	if img.Bounds().Empty() {
		return nil, nil, fmt.Errorf("engine: empty image %v", img.Bounds())
	}

	// Two clones: src is the frozen analysis view, out accumulates fills.
	src := imaging.Clone(img)
	out := imaging.Clone(img)
	pageW, pageH := src.Bounds().Dx(), src.Bounds().Dy()

	dpiScale := 1.0
	if renderDPI > 0 {
		dpiScale = float64(renderDPI) / float64(zone.BaseDPI)
	}

	bg := BackgroundColor(src)
	if rm.opts.FillColor != nil {
		bg = *rm.opts.FillColor
	}
	bgGray := luma(bg.R, bg.G, bg.B)
	radius := kernelRadius(dpiScale)

	report := &Report{Background: bg}
	for _, z := range zones {
		if !z.Enabled {
			continue
		}
		res := ZoneResult{ZoneID: z.ID}
		if err := z.Validate(); err != nil {
			res.Err = err
			report.Zones = append(report.Zones, res)
			continue
		}

		res.Rect = z.ResolvePadded(pageW, pageH, dpiScale, rm.opts.EdgePadding)
		if res.Rect.Empty() {
			report.Zones = append(report.Zones, res)
			continue
		}

		safe, err := optimizer.Optimize(res.Rect, regions, rm.opts.Optimizer)
		if err != nil {
			res.Err = err
			report.Zones = append(report.Zones, res)
			continue
		}
		res.SafeZones = len(safe)

		cutoff := rm.opts.TextCutoff
		if z.Anchor != zone.Free {
			cutoff = rm.opts.AnchoredTextCutoff
		}
		for i := range safe {
			res.Removed += rm.fillSafeZone(src, out, &safe[i], z.Threshold, cutoff, bg, bgGray, radius)
		}
		report.Zones = append(report.Zones, res)
	}
	return out, report, nil
}

// fillSafeZone classifies and fills artifacts inside one safe polygon,
// reading src and writing out. Returns the number of filled pixels.
func (rm *Remover) fillSafeZone(src, out *image.NRGBA, sz *optimizer.SafeZone, threshold, textCutoff int, bg color.NRGBA, bgGray uint8, radius int) int {
	bbox, ok := sz.Polygon.BBox()
	if !ok {
		return 0
	}
	bbox = bbox.Intersect(src.Bounds())
	if bbox.Empty() {
		return 0
	}
	w, h := bbox.Dx(), bbox.Dy()
	polyMask := sz.Mask(bbox)

	// Candidate pass: darker than background beyond the zone threshold,
	// not dark text, not colored ink, inside the polygon. Excluded pixels
	// are recorded separately: they must survive untouched even when
	// morphology grows the mask over them.
	mask := newBitmap(w, h)
	excluded := newBitmap(w, h)
	parallel.Line(h, func(start, end int) {
		for ly := start; ly < end; ly++ {
			y := bbox.Min.Y + ly
			for lx := 0; lx < w; lx++ {
				x := bbox.Min.X + lx
				if polyMask.AlphaAt(x, y).A < geometry.MaskThreshold {
					continue
				}
				i := src.PixOffset(x, y)
				r, g, b := src.Pix[i], src.Pix[i+1], src.Pix[i+2]
				gray := luma(r, g, b)
				if rm.opts.ProtectDarkText && int(gray) < textCutoff {
					excluded.set(lx, ly, 1)
					continue
				}
				if rm.opts.ProtectInk && isInk(r, g, b, rm.opts.ChromaDelta) {
					excluded.set(lx, ly, 1)
					continue
				}
				if int(bgGray)-int(gray) <= threshold {
					continue
				}
				mask.set(lx, ly, 1)
			}
		}
	})
	if mask.count() == 0 {
		return 0
	}

	// Consolidate specks into blobs, then grow to swallow soft shadow
	// edges the threshold missed.
	offs := discOffsets(radius)
	mask = closeMask(mask, offs, rm.opts.ClosePasses)
	for i := 0; i < rm.opts.DilatePasses; i++ {
		mask = dilate(mask, offs)
	}

	// Dilation may cover anti-aliased artifact edges, but never an
	// excluded pixel: text and ink adjacent to a shadow stay bit
	// identical to the input.
	for i, v := range excluded.pix {
		if v != 0 {
			mask.pix[i] = 0
		}
	}

	// Fill pass. The polygon mask applies again: morphology must not
	// leak into protected area.
	removed := 0
	for ly := 0; ly < h; ly++ {
		y := bbox.Min.Y + ly
		for lx := 0; lx < w; lx++ {
			if mask.get(lx, ly) == 0 {
				continue
			}
			x := bbox.Min.X + lx
			if polyMask.AlphaAt(x, y).A < geometry.MaskThreshold {
				continue
			}
			i := out.PixOffset(x, y)
			out.Pix[i] = bg.R
			out.Pix[i+1] = bg.G
			out.Pix[i+2] = bg.B
			out.Pix[i+3] = 0xff
			removed++
		}
	}
	return removed
}

// BackgroundColor estimates the page background as the per-channel median
// of a strip in the center-right of the page, an area staples and binding
// marks do not reach. Median, not mean: body text inside the strip must
// not darken the estimate. Pages too small to carry the strip fall back to
// sampling everything.
func BackgroundColor(img *image.NRGBA) color.NRGBA {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	strip := image.Rect(
		bounds.Min.X+w/2, bounds.Min.Y+h/3,
		bounds.Min.X+3*w/4, bounds.Min.Y+2*h/3,
	)
	if strip.Empty() {
		strip = bounds
	}

	var histR, histG, histB [256]int
	n := 0
	for y := strip.Min.Y; y < strip.Max.Y; y++ {
		i := img.PixOffset(strip.Min.X, y)
		for x := strip.Min.X; x < strip.Max.X; x++ {
			histR[img.Pix[i]]++
			histG[img.Pix[i+1]]++
			histB[img.Pix[i+2]]++
			i += 4
			n++
		}
	}
	return color.NRGBA{
		R: histMedian(&histR, n),
		G: histMedian(&histG, n),
		B: histMedian(&histB, n),
		A: 0xff,
	}
}

func histMedian(hist *[256]int, n int) uint8 {
	target := n / 2
	seen := 0
	for v := 0; v < 256; v++ {
		seen += hist[v]
		if seen > target {
			return uint8(v)
		}
	}
	return 0xff
}

// luma is BT.601 luminance on 8-bit channels.
func luma(r, g, b uint8) uint8 {
	return uint8((299*int(r) + 587*int(g) + 114*int(b)) / 1000)
}

// isInk reports a strongly red- or blue-dominant pixel. Channel dominance
// is deliberately used instead of a hue-space test: it is monotonic in the
// raw samples and does not misclassify the desaturated grays that staple
// shadows are made of.
func isInk(r, g, b uint8, delta int) bool {
	red := int(r)-int(g) > delta && int(r)-int(b) > delta
	blue := int(b)-int(r) > delta && int(b)-int(g) > delta
	return red || blue
}
