package isolate

import (
	"image"
	"math"

	"symbolcut/internal/raster"
)

// Sobel kernels for the horizontal and vertical intensity gradient.
var (
	sobelX = [3][3]float64{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	sobelY = [3][3]float64{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}
)

// DetectEdges computes a binary contour mask: luminance Sobel gradient
// magnitude above threshold. Border pixels lack a full 3x3 neighborhood and
// are always non-edges.
//
// The mask exists to protect antialiased sprite edges: pixels blended toward
// white that the background classifier would otherwise discard.
func DetectEdges(img *image.NRGBA, threshold float64) *raster.Mask {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	mask := raster.NewMask(w, h)
	if w < 3 || h < 3 {
		return mask
	}

	luma := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.NRGBAAt(x, y)
			luma[y*w+x] = raster.Luminance(c.R, c.G, c.B)
		}
	}

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					p := luma[(y+ky)*w+(x+kx)]
					gx += sobelX[ky+1][kx+1] * p
					gy += sobelY[ky+1][kx+1] * p
				}
			}
			if math.Sqrt(gx*gx+gy*gy) > threshold {
				mask.Set(x, y, true)
			}
		}
	}
	return mask
}
