package zone

import (
	"image"
	"testing"
)

func TestValidateThresholdRange(t *testing.T) {
	tests := []struct {
		name      string
		threshold int
		wantErr   bool
	}{
		{"minimum", 1, false},
		{"maximum", 20, false},
		{"typical", 5, false},
		{"zero", 0, true},
		{"negative", -3, true},
		{"too high", 21, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			z := Zone{ID: "z", Mode: Percent, WidthFrac: 0.1, HeightFrac: 0.1, Threshold: tt.threshold}
			err := z.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRejectsBadFractions(t *testing.T) {
	z := Zone{ID: "z", Mode: Percent, WidthFrac: 1.5, HeightFrac: 0.1, Threshold: 5}
	if err := z.Validate(); err == nil {
		t.Error("expected error for fraction > 1")
	}
}

func TestValidateHybridNeedsEdgeAnchor(t *testing.T) {
	z := Zone{ID: "z", Mode: Hybrid, Anchor: Free, WidthPx: 50, HeightFrac: 1.0, Threshold: 8}
	if err := z.Validate(); err == nil {
		t.Error("expected error for hybrid zone without edge anchor")
	}
	z.Anchor = LeftEdge
	if err := z.Validate(); err != nil {
		t.Errorf("unexpected error for anchored hybrid zone: %v", err)
	}
}

func TestResolvePercent(t *testing.T) {
	z := Zone{
		Mode:  Percent,
		XFrac: 0.25, YFrac: 0.5,
		WidthFrac: 0.5, HeightFrac: 0.25,
	}
	got := z.Resolve(1000, 800, 1.0)
	want := image.Rect(250, 400, 750, 600)
	if got != want {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
}

func TestResolveFixedScalesWithDPI(t *testing.T) {
	z := Zone{
		Mode:     FixedPixels,
		Anchor:   TopLeft,
		WidthPx:  130,
		HeightPx: 130,
	}

	tests := []struct {
		name     string
		dpiScale float64
		pageW    int
		pageH    int
		want     image.Rectangle
	}{
		{"base dpi", 1.0, 1000, 1400, image.Rect(0, 0, 130, 130)},
		{"double dpi", 2.0, 2000, 2800, image.Rect(0, 0, 260, 260)},
		{"150 dpi", 1.25, 1250, 1750, image.Rect(0, 0, 162, 162)},
		{"300 dpi", 2.5, 2500, 3500, image.Rect(0, 0, 325, 325)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := z.Resolve(tt.pageW, tt.pageH, tt.dpiScale)
			if got != tt.want {
				t.Errorf("Resolve() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Doubling the render DPI must exactly double a fixed-pixel axis while a
// fractional axis keeps the same page fraction.
func TestResolveResolutionInvariance(t *testing.T) {
	z := Zone{
		Mode:       Hybrid,
		Anchor:     LeftEdge,
		WidthPx:    50,
		HeightFrac: 1.0,
	}

	at120 := z.Resolve(1000, 1400, 1.0)
	at240 := z.Resolve(2000, 2800, 2.0)

	if at240.Dx() != 2*at120.Dx() {
		t.Errorf("fixed width did not double: %d at 120, %d at 240", at120.Dx(), at240.Dx())
	}
	if at120.Dy() != 1400 || at240.Dy() != 2800 {
		t.Errorf("fractional height not full page: %d/%d", at120.Dy(), at240.Dy())
	}
}

func TestResolveCornerAnchors(t *testing.T) {
	const w, h = 1000, 1400
	tests := []struct {
		anchor Anchor
		want   image.Rectangle
	}{
		{TopLeft, image.Rect(0, 0, 130, 130)},
		{TopRight, image.Rect(870, 0, 1000, 130)},
		{BottomLeft, image.Rect(0, 1270, 130, 1400)},
		{BottomRight, image.Rect(870, 1270, 1000, 1400)},
	}

	for _, tt := range tests {
		t.Run(tt.anchor.String(), func(t *testing.T) {
			z := Zone{Mode: FixedPixels, Anchor: tt.anchor, WidthPx: 130, HeightPx: 130}
			got := z.Resolve(w, h, 1.0)
			if got != tt.want {
				t.Errorf("Resolve() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveHybridMarginStrip(t *testing.T) {
	z := Zone{
		Mode:       Hybrid,
		Anchor:     RightEdge,
		WidthPx:    50,
		HeightFrac: 1.0,
	}
	got := z.Resolve(1000, 1400, 1.0)
	want := image.Rect(950, 0, 1000, 1400)
	if got != want {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
}

func TestResolveClampsToPage(t *testing.T) {
	// Larger than the page: clamp, never drop.
	z := Zone{Mode: FixedPixels, Anchor: TopLeft, WidthPx: 500, HeightPx: 500}
	got := z.Resolve(300, 200, 1.0)
	want := image.Rect(0, 0, 300, 200)
	if got != want {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
}

func TestResolveZeroSizeIsEmpty(t *testing.T) {
	z := Zone{Mode: FixedPixels, Anchor: TopLeft, WidthPx: 0, HeightPx: 130}
	if got := z.Resolve(1000, 1400, 1.0); !got.Empty() {
		t.Errorf("expected empty rectangle, got %v", got)
	}
}

func TestResolvePaddedExtendsOutwardOnly(t *testing.T) {
	const w, h = 1000, 1400

	tests := []struct {
		name string
		zone Zone
		want image.Rectangle
	}{
		{
			"top-left corner grows toward two borders",
			Zone{Mode: FixedPixels, Anchor: TopLeft, WidthPx: 130, HeightPx: 130},
			// Already at the border: clamp keeps it there.
			image.Rect(0, 0, 130, 130),
		},
		{
			"right margin grows toward right border only",
			Zone{Mode: Hybrid, Anchor: RightEdge, WidthPx: 50, HeightFrac: 0.5},
			image.Rect(950, 0, 1000, 700),
		},
		{
			"free zone is not padded",
			Zone{Mode: FixedPixels, Anchor: Free, XPx: 100, YPx: 100, WidthPx: 50, HeightPx: 50},
			image.Rect(100, 100, 150, 150),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.zone.ResolvePadded(w, h, 1.0, 10)
			if got != tt.want {
				t.Errorf("ResolvePadded() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPresets(t *testing.T) {
	presets := Presets()
	if len(presets) != 6 {
		t.Fatalf("expected 6 preset zones, got %d", len(presets))
	}

	for _, z := range presets {
		if err := z.Validate(); err != nil {
			t.Errorf("preset %s fails validation: %v", z.ID, err)
		}
		if !z.Enabled {
			t.Errorf("preset %s not enabled", z.ID)
		}
	}

	// Presets must tile the page borders without gaps at any resolution.
	for _, z := range presets {
		r := z.Resolve(2500, 3500, 2.5)
		if r.Empty() {
			t.Errorf("preset %s resolved empty at 300 DPI", z.ID)
		}
	}

	if presets[0].Threshold != DefaultCornerTLThreshold {
		t.Errorf("top-left corner threshold = %d, want %d", presets[0].Threshold, DefaultCornerTLThreshold)
	}
}

func TestParseRoundTrips(t *testing.T) {
	for _, m := range []SizingMode{Percent, FixedPixels, Hybrid} {
		got, err := ParseSizingMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseSizingMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	for _, a := range []Anchor{Free, TopLeft, TopRight, BottomLeft, BottomRight, LeftEdge, RightEdge, TopEdge, BottomEdge} {
		got, err := ParseAnchor(a.String())
		if err != nil || got != a {
			t.Errorf("ParseAnchor(%q) = %v, %v", a.String(), got, err)
		}
	}
	for _, s := range []Scope{Global, PerFile, PerPage} {
		got, err := ParseScope(s.String())
		if err != nil || got != s {
			t.Errorf("ParseScope(%q) = %v, %v", s.String(), got, err)
		}
	}
	if _, err := ParseSizingMode("bogus"); err == nil {
		t.Error("expected error for unknown sizing mode")
	}
}
