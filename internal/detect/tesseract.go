//go:build cgo && linux

package detect

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/otiai10/gosseract/v2"
)

// tesseractDetector uses local Tesseract block segmentation as a layout
// backend. Tesseract cannot distinguish tables from paragraphs, so every
// block maps to plain_text; for protection purposes that is enough, since
// any block of genuine content must survive cleanup.
//
// Requires CGO and the Tesseract shared libraries; on other build
// configurations the stub twin of this file reports the backend as
// unavailable.
type tesseractDetector struct {
	loader *loader
}

func newTesseractDetector() *tesseractDetector {
	d := &tesseractDetector{}
	d.loader = newLoader(BackendTesseract, func(context.Context) error {
		// Constructing a client verifies that the native libraries link
		// and training data resolves.
		client := gosseract.NewClient()
		defer client.Close()
		if v := client.Version(); v == "" {
			return fmt.Errorf("tesseract runtime not detected")
		}
		return nil
	})
	return d
}

func (d *tesseractDetector) Preload(ctx context.Context) error {
	return d.loader.ensure(ctx)
}

func (d *tesseractDetector) Detect(ctx context.Context, img image.Image, confidenceFloor float64) ([]Region, error) {
	if err := d.loader.ensure(ctx); err != nil {
		return nil, err
	}

	// gosseract needs a file path.
	tmp, err := os.CreateTemp("", "layout-page-*.png")
	if err != nil {
		return nil, fmt.Errorf("create temp image: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("encode temp image: %w", err)
	}
	tmp.Close()

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetImage(tmpPath); err != nil {
		return nil, &UnavailableError{Backend: BackendTesseract, Err: err}
	}

	// Block level groups text into paragraph-like regions, which is the
	// right granularity for protection and much faster than word level.
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_BLOCK)
	if err != nil {
		return nil, &UnavailableError{Backend: BackendTesseract, Err: err}
	}

	pageBounds := img.Bounds()
	regions := make([]Region, 0, len(boxes))
	for _, box := range boxes {
		confidence := float64(box.Confidence) / 100.0
		if confidence < confidenceFloor {
			continue
		}
		rect := box.Box.Intersect(pageBounds)
		if rect.Empty() {
			continue
		}
		regions = append(regions, Region{
			Bounds:     rect,
			Label:      LabelPlainText,
			Confidence: confidence,
		})
	}
	return regions, nil
}
