// Package source abstracts where page images come from. The processing
// pipeline only needs rendered pages at a chosen DPI; whether they start
// as a PDF, a directory of scans, or an in-memory fixture is the source's
// business.
package source

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
)

// Source yields the pages of one input document.
type Source interface {
	// PageCount returns the number of pages.
	PageCount() int

	// PageSize returns the unrendered size of the page at index: points
	// for PDF pages, native pixels for raster scans.
	PageSize(index int) (w, h int, err error)

	// RenderPage renders the page at index (0-based) at the given DPI.
	RenderPage(index int, dpi int) (image.Image, error)

	// Close releases the underlying document.
	Close() error
}

// PDFSource renders PDF pages through MuPDF.
type PDFSource struct {
	doc  *fitz.Document
	path string
}

// NewPDFSource opens a PDF file.
func NewPDFSource(path string) (*PDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	return &PDFSource{doc: doc, path: path}, nil
}

func (s *PDFSource) PageCount() int {
	return s.doc.NumPage()
}

func (s *PDFSource) PageSize(index int) (int, int, error) {
	rect, err := s.doc.Bound(index)
	if err != nil {
		return 0, 0, fmt.Errorf("page %d bounds of %s: %w", index+1, s.path, err)
	}
	return rect.Dx(), rect.Dy(), nil
}

// RenderPage opens a private document handle per call; fitz documents are
// not safe for concurrent rendering and pages are processed in parallel.
func (s *PDFSource) RenderPage(index int, dpi int) (image.Image, error) {
	worker, err := fitz.New(s.path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", s.path, err)
	}
	defer worker.Close()

	img, err := worker.ImageDPI(index, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("render page %d of %s: %w", index+1, s.path, err)
	}
	return img, nil
}

func (s *PDFSource) Close() error {
	return s.doc.Close()
}

// ImageSource serves already-rasterized scan files (PNG, JPEG, TIFF, BMP)
// as a one-page-per-file document. The render DPI is ignored; raster scans
// are used at their native resolution.
type ImageSource struct {
	paths []string
}

var rasterExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true,
	".tif": true, ".tiff": true, ".bmp": true,
}

// NewImageSource builds a source from a single image file or a directory
// of them. Directory pages are ordered by filename.
func NewImageSource(path string) (*ImageSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return &ImageSource{paths: []string{path}}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if rasterExts[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(path, e.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no image files in %s", path)
	}
	sort.Strings(paths)
	return &ImageSource{paths: paths}, nil
}

func (s *ImageSource) PageCount() int {
	return len(s.paths)
}

func (s *ImageSource) PageSize(index int) (int, int, error) {
	if index < 0 || index >= len(s.paths) {
		return 0, 0, fmt.Errorf("page %d out of range [0, %d)", index, len(s.paths))
	}
	f, err := os.Open(s.paths[index])
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()
	// Decoders for every supported format are registered by the imaging
	// import.
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("read scan header %s: %w", s.paths[index], err)
	}
	return cfg.Width, cfg.Height, nil
}

func (s *ImageSource) RenderPage(index int, dpi int) (image.Image, error) {
	if index < 0 || index >= len(s.paths) {
		return nil, fmt.Errorf("page %d out of range [0, %d)", index, len(s.paths))
	}
	img, err := imaging.Open(s.paths[index])
	if err != nil {
		return nil, fmt.Errorf("open scan %s: %w", s.paths[index], err)
	}
	return img, nil
}

func (s *ImageSource) Close() error { return nil }

// Open picks a source by file type: PDFs go through MuPDF, everything
// else is treated as raster scans.
func Open(path string) (Source, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return NewPDFSource(path)
	}
	return NewImageSource(path)
}
