package engine

import (
	"github.com/anthonynsimon/bild/parallel"
)

// bitmap is a binary pixel mask over a local w x h window. Values are 0 or
// 1; keeping them in a byte slice lets the morphology passes run as flat
// row loops.
type bitmap struct {
	w, h int
	pix  []uint8
}

func newBitmap(w, h int) *bitmap {
	return &bitmap{w: w, h: h, pix: make([]uint8, w*h)}
}

func (b *bitmap) get(x, y int) uint8 {
	return b.pix[y*b.w+x]
}

func (b *bitmap) set(x, y int, v uint8) {
	b.pix[y*b.w+x] = v
}

func (b *bitmap) count() int {
	n := 0
	for _, v := range b.pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// discOffsets returns the pixel offsets of a filled disc with the given
// radius, the binary analogue of an elliptical structuring element.
func discOffsets(radius int) [][2]int {
	var offs [][2]int
	r2 := radius * radius
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= r2 {
				offs = append(offs, [2]int{dx, dy})
			}
		}
	}
	return offs
}

// dilate grows set pixels by the disc. Pixels outside the window count as
// unset. Each output pixel gathers from the source, so worker rows never
// write across partition boundaries. The disc is symmetric, which makes
// the gather equivalent to scattering from set pixels.
func dilate(src *bitmap, offs [][2]int) *bitmap {
	dst := newBitmap(src.w, src.h)
	parallel.Line(src.h, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < src.w; x++ {
				for _, o := range offs {
					xx, yy := x+o[0], y+o[1]
					if xx >= 0 && xx < src.w && yy >= 0 && yy < src.h && src.get(xx, yy) != 0 {
						dst.set(x, y, 1)
						break
					}
				}
			}
		}
	})
	return dst
}

// erode keeps a pixel only if the whole disc around it is set. Pixels
// outside the window count as unset, matching the dilate boundary rule so
// that close() does not grow the mask along the window border.
func erode(src *bitmap, offs [][2]int) *bitmap {
	dst := newBitmap(src.w, src.h)
	parallel.Line(src.h, func(start, end int) {
		for y := start; y < end; y++ {
		pixels:
			for x := 0; x < src.w; x++ {
				for _, o := range offs {
					xx, yy := x+o[0], y+o[1]
					if xx < 0 || xx >= src.w || yy < 0 || yy >= src.h || src.get(xx, yy) == 0 {
						continue pixels
					}
				}
				dst.set(x, y, 1)
			}
		}
	})
	return dst
}

// close fills gaps between nearby mask blobs: n dilations followed by n
// erosions. Staple shadows fragment into specks; closing merges them into
// one removable blob.
func closeMask(src *bitmap, offs [][2]int, iterations int) *bitmap {
	out := src
	for i := 0; i < iterations; i++ {
		out = dilate(out, offs)
	}
	for i := 0; i < iterations; i++ {
		out = erode(out, offs)
	}
	return out
}

// kernelRadius derives the structuring element radius from the render
// scale. The base element is 5px across at scale 1 and grows with DPI,
// forced odd so the disc has a center pixel.
func kernelRadius(dpiScale float64) int {
	size := int(5 * dpiScale)
	if size < 5 {
		size = 5
	}
	if size%2 == 0 {
		size++
	}
	return size / 2
}
