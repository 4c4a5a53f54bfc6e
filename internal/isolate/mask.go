package isolate

import (
	"image"

	"symbolcut/internal/config"
	"symbolcut/internal/raster"
)

// BuildForegroundMask unions "not background" with "is edge", pixel-wise.
// Both inputs are read-only; the result is a fresh mask.
//
// The edge override exists to rescue antialiased pixels blended toward white,
// so it does not apply to pixels the white rules match outright: the Sobel
// mask fires on the canvas side of a silhouette boundary too, and counting
// those pixels as foreground would widen every bounding box by a pixel ring
// of plain canvas.
func BuildForegroundMask(img *image.NRGBA, edges *raster.Mask, o config.Options) *raster.Mask {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	mask := raster.NewMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.NRGBAAt(x, y)
			rescued := edges.At(x, y) && int(c.A) >= o.AlphaFloor && !isNearWhite(c, o)
			if !IsBackground(c, o) || rescued {
				mask.Set(x, y, true)
			}
		}
	}
	return mask
}
