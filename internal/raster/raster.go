package raster

import (
	"image"
	"image/draw"
)

// Mask is a per-pixel boolean plane derived from an image. It always shares
// dimensions with its source and has no lifecycle of its own.
type Mask struct {
	W, H int
	Bits []bool
}

func NewMask(w, h int) *Mask {
	return &Mask{W: w, H: h, Bits: make([]bool, w*h)}
}

func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return false
	}
	return m.Bits[y*m.W+x]
}

func (m *Mask) Set(x, y int, v bool) {
	m.Bits[y*m.W+x] = v
}

// Count returns the number of set bits.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// Crop returns a copy of the mask restricted to box.
func (m *Mask) Crop(box Box) *Mask {
	out := NewMask(box.Width(), box.Height())
	for y := box.MinY; y <= box.MaxY; y++ {
		for x := box.MinX; x <= box.MaxX; x++ {
			out.Set(x-box.MinX, y-box.MinY, m.At(x, y))
		}
	}
	return out
}

// Box is an axis-aligned rectangle with inclusive bounds: a pixel (x, y) is
// inside when MinX <= x <= MaxX and MinY <= y <= MaxY. For any box produced
// from a non-empty mask, MinX <= MaxX < W and MinY <= MaxY < H hold.
type Box struct {
	MinX, MinY, MaxX, MaxY int
}

func (b Box) Width() int  { return b.MaxX - b.MinX + 1 }
func (b Box) Height() int { return b.MaxY - b.MinY + 1 }

// Contains reports whether the pixel coordinate lies inside the box.
func (b Box) Contains(x, y int) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// Rect converts to the half-open image.Rectangle convention.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.MinX, b.MinY, b.MaxX+1, b.MaxY+1)
}

// ToNRGBA returns img as an *image.NRGBA with bounds anchored at the origin.
// The result is always a fresh buffer, even when img is already NRGBA, so
// callers can treat their input as immutable.
//
// NRGBA sources are copied byte-for-byte. Routing them through draw.Draw
// would round-trip semi-transparent pixels through premultiplied color and
// discard the RGB of fully transparent ones, breaking the guarantee that a
// skipped or fallback result equals its input exactly.
func ToNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if src, ok := img.(*image.NRGBA); ok {
		rowLen := b.Dx() * 4
		for y := 0; y < b.Dy(); y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+rowLen], src.Pix[off:off+rowLen])
		}
		return dst
	}
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// Clone copies an NRGBA buffer.
func Clone(img *image.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(img.Bounds())
	copy(dst.Pix, img.Pix)
	return dst
}

// Luminance is the Rec.601 perceptual brightness of an 8-bit RGB triple.
func Luminance(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

// ColorVariance is the largest channel-to-channel difference, a cheap
// saturation proxy used by the alpha rules.
func ColorVariance(r, g, b uint8) int {
	v := absDiff(r, g)
	if d := absDiff(r, b); d > v {
		v = d
	}
	if d := absDiff(g, b); d > v {
		v = d
	}
	return v
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
