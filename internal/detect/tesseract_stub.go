//go:build !cgo || !linux

package detect

import (
	"context"
	"errors"
	"image"
)

// tesseractDetector stub for builds without the native Tesseract bindings.
// The backend constructs normally and fails open at load time, matching
// the runtime-unavailable path of the real implementation.
type tesseractDetector struct {
	loader *loader
}

func newTesseractDetector() *tesseractDetector {
	d := &tesseractDetector{}
	d.loader = newLoader(BackendTesseract, func(context.Context) error {
		return errors.New("built without tesseract support (requires cgo on linux)")
	})
	return d
}

func (d *tesseractDetector) Preload(ctx context.Context) error {
	return d.loader.ensure(ctx)
}

func (d *tesseractDetector) Detect(ctx context.Context, img image.Image, confidenceFloor float64) ([]Region, error) {
	return nil, d.loader.ensure(ctx)
}
