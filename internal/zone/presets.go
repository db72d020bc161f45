package zone

// Default pixel sizes for staple-mark zones, expressed at BaseDPI.
const (
	DefaultCornerSizePx = 130
	DefaultEdgeDepthPx  = 50
)

// Default thresholds. The top-left corner carries most staples on
// left-bound documents and gets the most aggressive setting.
const (
	DefaultCornerTLThreshold = 3
	DefaultCornerThreshold   = 5
	DefaultMarginThreshold   = 8
)

// Presets returns the built-in cleanup zones: the four page corners and the
// left/right binding margins. Corners are fixed squares, margins are hybrid
// strips with a fixed depth and full page height. All presets are enabled
// and globally scoped; callers adjust or disable individual zones through
// configuration.
func Presets() []Zone {
	corner := func(id, name string, anchor Anchor, threshold int) Zone {
		return Zone{
			ID:        id,
			Name:      name,
			Mode:      FixedPixels,
			Anchor:    anchor,
			WidthPx:   DefaultCornerSizePx,
			HeightPx:  DefaultCornerSizePx,
			Threshold: threshold,
			Enabled:   true,
		}
	}
	margin := func(id, name string, anchor Anchor) Zone {
		return Zone{
			ID:         id,
			Name:       name,
			Mode:       Hybrid,
			Anchor:     anchor,
			WidthPx:    DefaultEdgeDepthPx,
			HeightFrac: 1.0,
			Threshold:  DefaultMarginThreshold,
			Enabled:    true,
		}
	}
	return []Zone{
		corner("corner-tl", "Top-left corner", TopLeft, DefaultCornerTLThreshold),
		corner("corner-tr", "Top-right corner", TopRight, DefaultCornerThreshold),
		corner("corner-bl", "Bottom-left corner", BottomLeft, DefaultCornerThreshold),
		corner("corner-br", "Bottom-right corner", BottomRight, DefaultCornerThreshold),
		margin("margin-left", "Left margin", LeftEdge),
		margin("margin-right", "Right margin", RightEdge),
	}
}
