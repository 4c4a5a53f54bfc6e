package isolate

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"symbolcut/internal/config"
	"symbolcut/internal/raster"
)

// Color-variance caps for the three light bands. Pixels more saturated than
// the cap keep their alpha: a bright yellow wild symbol is light but not
// background.
const (
	nearWhiteVarCap = 20
	falloffVarCap   = 25
	softVarCap      = 30
)

// Composite crops img to box and rewrites the alpha channel of the crop.
// The source buffer is never touched.
//
// Bands, using luminance L and channel spread V:
//
//	all channels > hard_white            -> alpha 0
//	L > near_white_luma, V low           -> alpha 0
//	falloff_luma < L <= near_white_luma  -> smooth falloff into 0..50
//	soft_luma < L <= falloff_luma        -> attenuated, floored at 180
//	otherwise                            -> alpha unchanged
//
// Pixels on the edge mask are forced fully opaque so the silhouette never
// erodes, whatever the bands say. The one exception is hard-white pixels:
// the Sobel mask fires on both sides of a silhouette boundary, and forcing
// the canvas side opaque would leave a white rim glued to every sprite.
func Composite(img *image.NRGBA, box raster.Box, edges *raster.Mask, o config.Options) *image.NRGBA {
	out := imaging.Crop(img, box.Rect())
	w, h := out.Rect.Dx(), out.Rect.Dy()

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := out.NRGBAAt(x, y)
			hardWhite := int(c.R) > o.HardWhite && int(c.G) > o.HardWhite && int(c.B) > o.HardWhite
			if edges.At(box.MinX+x, box.MinY+y) && !hardWhite {
				out.Pix[y*out.Stride+x*4+3] = 255
				continue
			}
			out.Pix[y*out.Stride+x*4+3] = bandAlpha(c.R, c.G, c.B, c.A, o)
		}
	}
	return out
}

func bandAlpha(r, g, b, a uint8, o config.Options) uint8 {
	if int(r) > o.HardWhite && int(g) > o.HardWhite && int(b) > o.HardWhite {
		return 0
	}
	l := raster.Luminance(r, g, b)
	v := raster.ColorVariance(r, g, b)

	switch {
	case l > float64(o.NearWhiteLuma) && v < nearWhiteVarCap:
		return 0
	case l > float64(o.FalloffLuma) && l <= float64(o.NearWhiteLuma) && v < falloffVarCap:
		span := float64(o.NearWhiteLuma - o.FalloffLuma)
		t := (float64(o.NearWhiteLuma) - l) / span
		fall := math.Pow(t, 1.5) * 50
		if fall < 0 {
			fall = 0
		} else if fall > 50 {
			fall = 50
		}
		return uint8(fall)
	case l > float64(o.SoftLuma) && l <= float64(o.FalloffLuma) && v < softVarCap:
		att := int(a) - int(l-float64(o.SoftLuma))*3
		if att < 180 {
			att = 180
		}
		if att > int(a) {
			att = int(a)
		}
		return uint8(att)
	default:
		return a
	}
}
