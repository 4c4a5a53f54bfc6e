package isolate

import (
	"image"
	"image/color"

	"gonum.org/v1/gonum/stat"

	"symbolcut/internal/config"
)

// IsBackground classifies a single pixel. Rules are ordered and the first
// match wins:
//
//  1. transparent: alpha under the floor
//  2. near-white: channel average above white_avg_threshold, or every channel
//     at or above pure_white_threshold
//  3. dark canvas: channel average under dark_threshold
//  4. grayscale-light: all channel pairs within gray_tolerance and average
//     above light_threshold (neutral checkerboard / placeholder fills)
//
// Anything else is foreground.
func IsBackground(c color.NRGBA, o config.Options) bool {
	if int(c.A) < o.AlphaFloor {
		return true
	}
	r, g, b := int(c.R), int(c.G), int(c.B)
	avg := (r + g + b) / 3
	if avg > o.WhiteAvgThreshold {
		return true
	}
	if r >= o.PureWhiteThreshold && g >= o.PureWhiteThreshold && b >= o.PureWhiteThreshold {
		return true
	}
	if avg < o.DarkThreshold {
		return true
	}
	if absInt(r-g) < o.GrayTolerance && absInt(g-b) < o.GrayTolerance && absInt(r-b) < o.GrayTolerance && avg > o.LightThreshold {
		return true
	}
	return false
}

// HasUniformBackground samples the border region of img and reports whether
// enough of it is near-white to be worth matting. The orchestrator uses this
// to leave alone images that were never rendered on a white canvas; matting
// those would corrupt them for no benefit.
//
// Sampling walks the top and bottom rows and the left and right columns with a
// stride of max(5, 5% of the smaller dimension).
func HasUniformBackground(img *image.NRGBA, o config.Options) bool {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w == 0 || h == 0 {
		return false
	}
	stride := minInt(w, h) / 20
	if stride < 5 {
		stride = 5
	}

	var samples []float64
	sample := func(x, y int) {
		c := img.NRGBAAt(x, y)
		if isNearWhite(c, o) {
			samples = append(samples, 1)
		} else {
			samples = append(samples, 0)
		}
	}
	for x := 0; x < w; x += stride {
		sample(x, 0)
		sample(x, h-1)
	}
	for y := 0; y < h; y += stride {
		sample(0, y)
		sample(w-1, y)
	}
	if len(samples) == 0 {
		return false
	}
	return stat.Mean(samples, nil) > o.BorderWhiteRatio
}

// isNearWhite is the border-sampling predicate: only the white rules count,
// so a uniform mid-gray border does not trigger the skip heuristic.
// Transparent pixels never count as white canvas either: an image whose
// border is already matted out has nothing left to remove, and treating its
// (invisible) white RGB as canvas would re-crop it on every pass.
func isNearWhite(c color.NRGBA, o config.Options) bool {
	if int(c.A) < o.AlphaFloor {
		return false
	}
	r, g, b := int(c.R), int(c.G), int(c.B)
	if (r+g+b)/3 > o.WhiteAvgThreshold {
		return true
	}
	return r >= o.PureWhiteThreshold && g >= o.PureWhiteThreshold && b >= o.PureWhiteThreshold
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
