package detect

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(Config{Backend: "doclayout-yolo"})
	if err == nil {
		t.Fatal("expected error for unknown backend")
	}
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Errorf("error %v is not a ConfigError", err)
	}
}

func TestNewRemoteRequiresURL(t *testing.T) {
	_, err := New(Config{Backend: BackendRemote})
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Errorf("expected ConfigError for missing URL, got %v", err)
	}
}

func TestNewKnownBackends(t *testing.T) {
	tests := []Config{
		{Backend: BackendRemote, RemoteURL: "http://127.0.0.1:8765"},
		{Backend: BackendTesseract},
		{Backend: BackendContrast},
	}
	for _, cfg := range tests {
		t.Run(cfg.Backend, func(t *testing.T) {
			d, err := New(cfg)
			if err != nil {
				t.Fatalf("New() error: %v", err)
			}
			if d == nil {
				t.Fatal("New() returned nil detector")
			}
		})
	}
}

func TestMapLabel(t *testing.T) {
	tests := []struct {
		vendor string
		want   Label
	}{
		{"doc_title", LabelTitle},
		{"paragraph_title", LabelTitle},
		{"text", LabelPlainText},
		{"table_note", LabelTableFootnote},
		{"seal", LabelFigure},
		{"formula", LabelFormula},
		{"page_number", LabelAbandon},
		// Unknown names pass through.
		{"watermark", Label("watermark")},
	}
	for _, tt := range tests {
		if got := MapLabel(tt.vendor); got != tt.want {
			t.Errorf("MapLabel(%q) = %q, want %q", tt.vendor, got, tt.want)
		}
	}
}

func TestDefaultProtectedLabelsExcludeFigures(t *testing.T) {
	for _, l := range DefaultProtectedLabels {
		if l == LabelFigure {
			t.Error("figure must not be protected by default")
		}
		if l == LabelAbandon {
			t.Error("abandon must not be protected by default")
		}
	}
}

func TestContrastDetectorFindsContentBlock(t *testing.T) {
	// White page with one dense dark block.
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.White)
		}
	}
	content := image.Rect(40, 60, 120, 110)
	for y := content.Min.Y; y < content.Max.Y; y++ {
		for x := content.Min.X; x < content.Max.X; x++ {
			// Vertical stripes give the block internal edges like text.
			if x%4 < 2 {
				img.Set(x, y, color.Black)
			}
		}
	}

	d := newContrastDetector()
	regions, err := d.Detect(context.Background(), img, 0.5)
	if err != nil {
		t.Fatalf("Detect() error: %v", err)
	}
	if len(regions) == 0 {
		t.Fatal("no regions detected")
	}

	found := false
	for _, r := range regions {
		if content.In(r.Bounds) || r.Bounds.Overlaps(content) {
			found = true
			if r.Label != LabelPlainText {
				t.Errorf("region label = %q, want %q", r.Label, LabelPlainText)
			}
		}
	}
	if !found {
		t.Errorf("no detected region covers the content block; got %v", regions)
	}
}

func TestContrastDetectorBlankPage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, color.White)
		}
	}

	d := newContrastDetector()
	regions, err := d.Detect(context.Background(), img, 0.5)
	if err != nil {
		t.Fatalf("Detect() error: %v", err)
	}
	if len(regions) != 0 {
		t.Errorf("expected no regions on a blank page, got %d", len(regions))
	}
}

func TestContrastDetectorConfidenceFloor(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 50, 50))
	d := newContrastDetector()
	regions, err := d.Detect(context.Background(), img, 0.9)
	if err != nil {
		t.Fatalf("Detect() error: %v", err)
	}
	if len(regions) != 0 {
		t.Errorf("floor above backend confidence must yield no regions, got %d", len(regions))
	}
}
