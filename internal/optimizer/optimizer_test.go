package optimizer

import (
	"image"
	"math"
	"math/rand"
	"testing"

	"github.com/scanworks/unstaple/internal/detect"
	"github.com/scanworks/unstaple/internal/geometry"
)

func region(r image.Rectangle) detect.Region {
	return detect.Region{Bounds: r, Label: detect.LabelPlainText, Confidence: 0.9}
}

func TestOptimizeNoRegionsPassthrough(t *testing.T) {
	zone := image.Rect(0, 0, 130, 130)
	safe, err := Optimize(zone, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("Optimize() error: %v", err)
	}
	if len(safe) != 1 {
		t.Fatalf("got %d safe zones, want 1", len(safe))
	}
	if safe[0].Coverage != 1.0 {
		t.Errorf("coverage = %v, want 1.0", safe[0].Coverage)
	}
	if got := safe[0].Polygon.Area(); got != 130*130 {
		t.Errorf("area = %v, want %v", got, 130*130)
	}
}

func TestOptimizeEmptyZone(t *testing.T) {
	safe, err := Optimize(image.Rectangle{}, []detect.Region{region(image.Rect(0, 0, 10, 10))}, DefaultOptions())
	if err != nil {
		t.Fatalf("Optimize() error: %v", err)
	}
	if len(safe) != 0 {
		t.Errorf("empty zone produced %d safe zones", len(safe))
	}
}

func TestOptimizeDistantRegionIgnored(t *testing.T) {
	zone := image.Rect(0, 0, 100, 100)
	far := region(image.Rect(500, 500, 600, 600))

	safe, err := Optimize(zone, []detect.Region{far}, DefaultOptions())
	if err != nil {
		t.Fatalf("Optimize() error: %v", err)
	}
	if len(safe) != 1 || safe[0].Coverage != 1.0 {
		t.Errorf("distant region altered the zone: %+v", safe)
	}
}

func TestOptimizeSubtractsRegionWithMargin(t *testing.T) {
	zone := image.Rect(0, 0, 200, 200)
	// Region occupying the right half, touching the zone.
	protected := region(image.Rect(100, 0, 200, 200))

	opts := Options{Margin: 5, SimplifyTolerance: 0, MinArea: 100}
	safe, err := Optimize(zone, []detect.Region{protected}, opts)
	if err != nil {
		t.Fatalf("Optimize() error: %v", err)
	}
	if len(safe) != 1 {
		t.Fatalf("got %d safe zones, want 1", len(safe))
	}

	// Margin pushes the cut 5px into the left half: 95 x 200 remains.
	if got, want := safe[0].Polygon.Area(), 95.0*200.0; math.Abs(got-want) > 1e-6 {
		t.Errorf("safe area = %v, want %v", got, want)
	}
	bbox, _ := safe[0].Polygon.BBox()
	if bbox.Max.X > 95 {
		t.Errorf("safe zone reaches into the margin: %v", bbox)
	}
}

func TestOptimizeFullCoverage(t *testing.T) {
	zone := image.Rect(50, 50, 100, 100)
	protected := region(image.Rect(0, 0, 300, 300))

	safe, err := Optimize(zone, []detect.Region{protected}, DefaultOptions())
	if err != nil {
		t.Fatalf("Optimize() error: %v", err)
	}
	if len(safe) != 0 {
		t.Errorf("fully covered zone produced %d safe zones", len(safe))
	}
}

func TestOptimizeInteriorRegionCutsHole(t *testing.T) {
	zone := image.Rect(0, 0, 300, 300)
	protected := region(image.Rect(100, 100, 200, 200))

	opts := Options{Margin: 0, SimplifyTolerance: 0, MinArea: 100}
	safe, err := Optimize(zone, []detect.Region{protected}, opts)
	if err != nil {
		t.Fatalf("Optimize() error: %v", err)
	}
	if len(safe) != 1 {
		t.Fatalf("got %d safe zones, want 1", len(safe))
	}
	if len(safe[0].Polygon.Holes) != 1 {
		t.Errorf("expected a hole for the interior region, got %d", len(safe[0].Polygon.Holes))
	}
	if got, want := safe[0].Polygon.Area(), 300.0*300.0-100.0*100.0; math.Abs(got-want) > 1e-6 {
		t.Errorf("area = %v, want %v", got, want)
	}

	// The hole must show up in the rasterized mask too.
	mask := safe[0].Mask(zone)
	if geometry.MaskContains(mask, 150, 150) {
		t.Error("mask includes the protected interior")
	}
	if !geometry.MaskContains(mask, 20, 20) {
		t.Error("mask excludes the cleanable corner")
	}
}

func TestOptimizeDropsSlivers(t *testing.T) {
	zone := image.Rect(0, 0, 100, 100)
	// Two regions leaving a 4px-wide strip between them: 4 x 100 = 400
	// area, dropped by MinArea 500.
	a := region(image.Rect(-10, -10, 48, 110))
	b := region(image.Rect(52, -10, 110, 110))

	opts := Options{Margin: 0, SimplifyTolerance: 0, MinArea: 500}
	safe, err := Optimize(zone, []detect.Region{a, b}, opts)
	if err != nil {
		t.Fatalf("Optimize() error: %v", err)
	}
	if len(safe) != 0 {
		t.Errorf("sliver survived MinArea filter: %+v", safe)
	}
}

func TestOptimizeSplitsZone(t *testing.T) {
	zone := image.Rect(0, 0, 300, 100)
	// Band through the middle splits the zone into two safe areas.
	protected := region(image.Rect(120, -10, 180, 110))

	opts := Options{Margin: 0, SimplifyTolerance: 0, MinArea: 100}
	safe, err := Optimize(zone, []detect.Region{protected}, opts)
	if err != nil {
		t.Fatalf("Optimize() error: %v", err)
	}
	if len(safe) != 2 {
		t.Fatalf("got %d safe zones, want 2", len(safe))
	}
	total := safe[0].Polygon.Area() + safe[1].Polygon.Area()
	if want := 300.0*100.0 - 60.0*100.0; math.Abs(total-want) > 1e-6 {
		t.Errorf("total safe area = %v, want %v", total, want)
	}
}

// Safe areas must never intersect any expanded protected region, for any
// arrangement of rectangles.
func TestOptimizeProtectionInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	opts := Options{Margin: 5, SimplifyTolerance: 0, MinArea: 1}
	zone := image.Rect(0, 0, 400, 400)

	for trial := 0; trial < 50; trial++ {
		var regions []detect.Region
		n := 1 + rng.Intn(5)
		for i := 0; i < n; i++ {
			x := rng.Intn(380)
			y := rng.Intn(380)
			w := 10 + rng.Intn(150)
			h := 10 + rng.Intn(150)
			regions = append(regions, region(image.Rect(x, y, x+w, y+h)))
		}

		safe, err := Optimize(zone, regions, opts)
		if err != nil {
			t.Fatalf("trial %d: Optimize() error: %v", trial, err)
		}

		for _, s := range safe {
			bbox, ok := s.Polygon.BBox()
			if !ok {
				continue
			}
			mask := s.Mask(bbox)
			for _, r := range regions {
				exp := geometry.ExpandRect(r.Bounds, opts.Margin)
				probe := exp.Intersect(bbox)
				for y := probe.Min.Y; y < probe.Max.Y; y++ {
					for x := probe.Min.X; x < probe.Max.X; x++ {
						if geometry.MaskContains(mask, x, y) {
							t.Fatalf("trial %d: safe zone covers protected pixel (%d, %d)", trial, x, y)
						}
					}
				}
			}
		}
	}
}

func TestOptimizeAllPreservesOrder(t *testing.T) {
	zones := []image.Rectangle{
		image.Rect(0, 0, 50, 50),
		image.Rectangle{}, // empty, skipped
		image.Rect(100, 100, 150, 150),
	}
	safe, errs := OptimizeAll(zones, nil, DefaultOptions())
	if len(safe) != 2 {
		t.Fatalf("got %d safe zones, want 2", len(safe))
	}
	for i, err := range errs {
		if err != nil {
			t.Errorf("zone %d: unexpected error %v", i, err)
		}
	}
	if safe[0].Zone != zones[0] || safe[1].Zone != zones[2] {
		t.Error("safe zones out of input order")
	}
}
