package source

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("save %s: %v", path, err)
	}
}

func TestImageSourceSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.png")
	writeTestPNG(t, path, 40, 60)

	src, err := NewImageSource(path)
	if err != nil {
		t.Fatalf("NewImageSource() error: %v", err)
	}
	defer src.Close()

	if got := src.PageCount(); got != 1 {
		t.Fatalf("PageCount() = %d, want 1", got)
	}
	img, err := src.RenderPage(0, 300)
	if err != nil {
		t.Fatalf("RenderPage() error: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 60 {
		t.Errorf("page bounds = %v, want 40x60", img.Bounds())
	}
}

func TestImageSourceDirectoryOrdersByName(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "page-2.png"), 20, 20)
	writeTestPNG(t, filepath.Join(dir, "page-1.png"), 10, 10)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := NewImageSource(dir)
	if err != nil {
		t.Fatalf("NewImageSource() error: %v", err)
	}
	defer src.Close()

	if got := src.PageCount(); got != 2 {
		t.Fatalf("PageCount() = %d, want 2 (non-images skipped)", got)
	}
	first, err := src.RenderPage(0, 120)
	if err != nil {
		t.Fatalf("RenderPage(0) error: %v", err)
	}
	if first.Bounds().Dx() != 10 {
		t.Errorf("first page is not page-1: bounds %v", first.Bounds())
	}
}

func TestImageSourcePageSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.png")
	writeTestPNG(t, path, 40, 60)

	src, err := NewImageSource(path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	w, h, err := src.PageSize(0)
	if err != nil {
		t.Fatalf("PageSize() error: %v", err)
	}
	if w != 40 || h != 60 {
		t.Errorf("PageSize() = %dx%d, want 40x60", w, h)
	}
	if _, _, err := src.PageSize(5); err == nil {
		t.Error("expected error for out-of-range page")
	}
}

func TestImageSourceEmptyDirectory(t *testing.T) {
	if _, err := NewImageSource(t.TempDir()); err == nil {
		t.Error("expected error for directory without images")
	}
}

func TestImageSourcePageOutOfRange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.png")
	writeTestPNG(t, path, 10, 10)

	src, err := NewImageSource(path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()
	if _, err := src.RenderPage(3, 120); err == nil {
		t.Error("expected error for out-of-range page")
	}
}

func TestOpenSelectsByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.png")
	writeTestPNG(t, path, 10, 10)

	src, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer src.Close()
	if _, ok := src.(*ImageSource); !ok {
		t.Errorf("Open(png) = %T, want *ImageSource", src)
	}
}
