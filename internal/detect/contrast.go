package detect

import (
	"context"
	"image"
	"math"

	"github.com/anthonynsimon/bild/parallel"
)

// contrastDetector is a dependency-free fallback backend. It finds
// high-contrast content blocks with a Sobel gradient pass, connects them
// with dilation, and reports connected components as plain-text regions.
// It cannot classify content, so every region gets the plain_text label
// and a flat confidence; the point is to keep body text protected when
// neither a remote server nor Tesseract is available.
type contrastDetector struct {
	edgeThreshold float64
	kernelSize    int
	dilatePasses  int
	minBlockArea  int
	confidence    float64
	loader        *loader
}

func newContrastDetector() *contrastDetector {
	d := &contrastDetector{
		edgeThreshold: 30.0,
		kernelSize:    5,
		dilatePasses:  2,
		minBlockArea:  500,
		confidence:    0.7,
	}
	// Nothing to load, but going through the loader keeps the lifecycle
	// uniform across backends.
	d.loader = newLoader(BackendContrast, func(context.Context) error { return nil })
	return d
}

func (d *contrastDetector) Preload(ctx context.Context) error {
	return d.loader.ensure(ctx)
}

func (d *contrastDetector) Detect(ctx context.Context, img image.Image, confidenceFloor float64) ([]Region, error) {
	if err := d.loader.ensure(ctx); err != nil {
		return nil, err
	}
	if d.confidence < confidenceFloor {
		return nil, nil
	}

	gray := grayscale(img)
	edges := sobelEdges(gray, d.edgeThreshold)
	dilated := dilateGray(edges, d.kernelSize, d.dilatePasses)

	var regions []Region
	for _, rect := range components(dilated) {
		if rect.Dx()*rect.Dy() < d.minBlockArea {
			continue
		}
		regions = append(regions, Region{
			Bounds:     rect,
			Label:      LabelPlainText,
			Confidence: d.confidence,
		})
	}
	return regions, nil
}

func grayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	parallel.Line(bounds.Dy(), func(start, end int) {
		for y := bounds.Min.Y + start; y < bounds.Min.Y+end; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				r, g, b, _ := img.At(x, y).RGBA()
				// BT.601 luma on 8-bit channels.
				lum := (299*(r>>8) + 587*(g>>8) + 114*(b>>8)) / 1000
				gray.Pix[gray.PixOffset(x, y)] = uint8(lum)
			}
		}
	})
	return gray
}

// sobelEdges thresholds the Sobel gradient magnitude into a binary edge
// image.
func sobelEdges(gray *image.Gray, threshold float64) *image.Gray {
	bounds := gray.Bounds()
	edges := image.NewGray(bounds)
	h := bounds.Dy()

	parallel.Line(h, func(start, end int) {
		for y := bounds.Min.Y + start; y < bounds.Min.Y+end; y++ {
			if y == bounds.Min.Y || y == bounds.Max.Y-1 {
				continue
			}
			for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
				tl := float64(gray.GrayAt(x-1, y-1).Y)
				tc := float64(gray.GrayAt(x, y-1).Y)
				tr := float64(gray.GrayAt(x+1, y-1).Y)
				ml := float64(gray.GrayAt(x-1, y).Y)
				mr := float64(gray.GrayAt(x+1, y).Y)
				bl := float64(gray.GrayAt(x-1, y+1).Y)
				bc := float64(gray.GrayAt(x, y+1).Y)
				br := float64(gray.GrayAt(x+1, y+1).Y)

				gx := (tr + 2*mr + br) - (tl + 2*ml + bl)
				gy := (bl + 2*bc + br) - (tl + 2*tc + tr)
				if math.Sqrt(gx*gx+gy*gy) > threshold {
					edges.Pix[edges.PixOffset(x, y)] = 255
				}
			}
		}
	})
	return edges
}

// dilateGray grows white areas with a square kernel, run iterations times.
func dilateGray(img *image.Gray, kernelSize, iterations int) *image.Gray {
	bounds := img.Bounds()
	half := kernelSize / 2
	src := img

	for iter := 0; iter < iterations; iter++ {
		dst := image.NewGray(bounds)
		parallel.Line(bounds.Dy(), func(start, end int) {
			for y := bounds.Min.Y + start; y < bounds.Min.Y+end; y++ {
				for x := bounds.Min.X; x < bounds.Max.X; x++ {
					var maxVal uint8
					for ky := -half; ky <= half && maxVal < 255; ky++ {
						yy := y + ky
						if yy < bounds.Min.Y || yy >= bounds.Max.Y {
							continue
						}
						for kx := -half; kx <= half; kx++ {
							xx := x + kx
							if xx < bounds.Min.X || xx >= bounds.Max.X {
								continue
							}
							if v := src.GrayAt(xx, yy).Y; v > maxVal {
								maxVal = v
								if maxVal == 255 {
									break
								}
							}
						}
					}
					dst.Pix[dst.PixOffset(x, y)] = maxVal
				}
			}
		})
		src = dst
	}
	return src
}

// components returns the bounding boxes of 4-connected white regions.
func components(img *image.Gray) []image.Rectangle {
	bounds := img.Bounds()
	visited := make([]bool, bounds.Dx()*bounds.Dy())
	idx := func(x, y int) int {
		return (y-bounds.Min.Y)*bounds.Dx() + (x - bounds.Min.X)
	}

	var rects []image.Rectangle
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if img.GrayAt(x, y).Y <= 128 || visited[idx(x, y)] {
				continue
			}

			minX, minY, maxX, maxY := x, y, x, y
			stack := []image.Point{{x, y}}
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if !p.In(bounds) || visited[idx(p.X, p.Y)] || img.GrayAt(p.X, p.Y).Y <= 128 {
					continue
				}
				visited[idx(p.X, p.Y)] = true
				minX = min(minX, p.X)
				minY = min(minY, p.Y)
				maxX = max(maxX, p.X)
				maxY = max(maxY, p.Y)
				stack = append(stack,
					image.Pt(p.X+1, p.Y), image.Pt(p.X-1, p.Y),
					image.Pt(p.X, p.Y+1), image.Pt(p.X, p.Y-1),
				)
			}
			rects = append(rects, image.Rect(minX, minY, maxX+1, maxY+1))
		}
	}
	return rects
}
