// Package detect finds page content that artifact removal must not touch.
//
// A Detector locates layout regions (text blocks, tables, figures) on a
// rendered page and reports them as protected regions with a label and a
// confidence score. Detection backends are pluggable: a remote inference
// server, local Tesseract block detection, or a dependency-free contrast
// heuristic. Backends load lazily on first use and fail open: when a
// backend cannot load or a call fails, the caller receives an
// UnavailableError and proceeds without protection.
package detect

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"
)

// Label classifies a detected region. The set follows document layout
// analysis conventions; backend-specific class names are mapped onto it.
type Label string

const (
	LabelTitle          Label = "title"
	LabelPlainText      Label = "plain_text"
	LabelTable          Label = "table"
	LabelTableCaption   Label = "table_caption"
	LabelTableFootnote  Label = "table_footnote"
	LabelFigure         Label = "figure"
	LabelFigureCaption  Label = "figure_caption"
	LabelFormula        Label = "isolate_formula"
	LabelFormulaCaption Label = "formula_caption"
	LabelAbandon        Label = "abandon"
)

// AllLabels lists every canonical label.
var AllLabels = []Label{
	LabelTitle, LabelPlainText, LabelTable, LabelTableCaption,
	LabelTableFootnote, LabelFigure, LabelFigureCaption,
	LabelFormula, LabelFormulaCaption, LabelAbandon,
}

// DefaultProtectedLabels lists the labels protected from removal unless
// configuration overrides the set. Figures are deliberately absent: staple
// shadows and hole-punch marks are routinely misdetected as small figures,
// and protecting them would defeat cleanup in exactly the zones that need
// it most.
var DefaultProtectedLabels = []Label{
	LabelTitle, LabelPlainText, LabelTable, LabelTableCaption,
	LabelTableFootnote, LabelFigureCaption, LabelFormula,
	LabelFormulaCaption,
}

// vendorLabels maps class names emitted by known detection models to
// canonical labels. Unknown names pass through unchanged so new model
// classes degrade to protect-if-configured rather than being dropped.
var vendorLabels = map[string]Label{
	"doc_title":       LabelTitle,
	"paragraph_title": LabelTitle,
	"text":            LabelPlainText,
	"abstract":        LabelPlainText,
	"reference":       LabelPlainText,
	"header":          LabelPlainText,
	"footer":          LabelPlainText,
	"algorithm":       LabelPlainText,
	"content":         LabelPlainText,
	"list":            LabelPlainText,
	"table":           LabelTable,
	"table_title":     LabelTableCaption,
	"table_note":      LabelTableFootnote,
	"footnote":        LabelTableFootnote,
	"figure":          LabelFigure,
	"image":           LabelFigure,
	"seal":            LabelFigure,
	"chart":           LabelFigure,
	"figure_title":    LabelFigureCaption,
	"formula":         LabelFormula,
	"formula_number":  LabelFormulaCaption,
	"page_number":     LabelAbandon,
}

// MapLabel converts a backend class name to a canonical label.
func MapLabel(vendor string) Label {
	if l, ok := vendorLabels[vendor]; ok {
		return l
	}
	return Label(vendor)
}

// Region is a detected layout element in page pixel coordinates.
type Region struct {
	Bounds     image.Rectangle
	Label      Label
	Confidence float64
}

// Detector locates protected layout regions on a page image.
//
// Implementations load their model or probe their backing service lazily:
// the first Detect call pays the load cost, concurrent first calls share a
// single load attempt, and a failed load is terminal for the instance.
// Preload forces the load eagerly for callers that want startup errors
// before the first page.
type Detector interface {
	// Detect returns regions with confidence at or above confidenceFloor,
	// sorted as the backend produced them. A backend that cannot serve
	// returns an UnavailableError; callers treat that as "no regions
	// found" after logging it.
	Detect(ctx context.Context, img image.Image, confidenceFloor float64) ([]Region, error)

	// Preload loads the backend without running a detection.
	Preload(ctx context.Context) error
}

// Backend names accepted by New.
const (
	BackendRemote    = "remote"
	BackendTesseract = "tesseract"
	BackendContrast  = "contrast"
)

// Config selects and parameterizes a detection backend.
type Config struct {
	// Backend is one of the Backend constants.
	Backend string

	// RemoteURL is the base URL of the inference server, required for the
	// remote backend (for example "http://10.20.0.36:8765").
	RemoteURL string

	// Timeout bounds each remote request. Zero means DefaultTimeout.
	Timeout time.Duration

	// ProtectedLabels limits which labels the remote server is asked for.
	// Empty means DefaultProtectedLabels.
	ProtectedLabels []Label
}

// DefaultTimeout is the per-request timeout for the remote backend.
const DefaultTimeout = 30 * time.Second

// ConfigError reports an invalid detector configuration. Unlike runtime
// unavailability, configuration problems fail fast: a typo in the backend
// name must not silently disable protection.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("detector config: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// UnavailableError reports that a detection backend cannot serve, either
// because its load failed or because a call to it failed. The pipeline
// continues without protection when it sees one.
type UnavailableError struct {
	Backend string
	Err     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("detector %s unavailable: %v", e.Backend, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// IsUnavailable reports whether err is (or wraps) an UnavailableError.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

// New builds the detector selected by cfg.
//
// Returns a ConfigError for an unknown backend name or a remote backend
// without a URL. Construction never contacts the backend; load happens on
// first use or Preload.
func New(cfg Config) (Detector, error) {
	switch cfg.Backend {
	case BackendRemote:
		if cfg.RemoteURL == "" {
			return nil, &ConfigError{Field: "remote_url", Err: errors.New("required for remote backend")}
		}
		return newRemoteDetector(cfg), nil
	case BackendTesseract:
		return newTesseractDetector(), nil
	case BackendContrast:
		return newContrastDetector(), nil
	default:
		return nil, &ConfigError{
			Field: "backend",
			Err:   fmt.Errorf("unknown backend %q (want %s, %s, or %s)", cfg.Backend, BackendRemote, BackendTesseract, BackendContrast),
		}
	}
}
