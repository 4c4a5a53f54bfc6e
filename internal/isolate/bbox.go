package isolate

import (
	"symbolcut/internal/config"
	"symbolcut/internal/raster"
)

// ExtractBox reduces a foreground mask to its inclusive bounding box in a
// single scan. An all-false mask is a reportable condition, not a degenerate
// box: it returns ErrNoForeground.
func ExtractBox(mask *raster.Mask) (raster.Box, error) {
	box := raster.Box{MinX: mask.W, MinY: mask.H, MaxX: -1, MaxY: -1}
	for y := 0; y < mask.H; y++ {
		row := mask.Bits[y*mask.W : (y+1)*mask.W]
		for x, set := range row {
			if !set {
				continue
			}
			if x < box.MinX {
				box.MinX = x
			}
			if x > box.MaxX {
				box.MaxX = x
			}
			if y < box.MinY {
				box.MinY = y
			}
			if y > box.MaxY {
				box.MaxY = y
			}
		}
	}
	if box.MaxX < 0 {
		return raster.Box{}, ErrNoForeground
	}
	return box, nil
}

// PadBox grows box symmetrically by max(crop_padding_min, frac*min(w,h)),
// clamped to the image bounds. The padding keeps the crop from clipping
// antialiased fringes the mask scan ran right up against.
func PadBox(box raster.Box, w, h int, o config.Options) raster.Box {
	pad := maxInt(o.CropPaddingMin, int(o.CropPaddingFrac*float64(minInt(w, h))))
	return raster.Box{
		MinX: maxInt(0, box.MinX-pad),
		MinY: maxInt(0, box.MinY-pad),
		MaxX: minInt(w-1, box.MaxX+pad),
		MaxY: minInt(h-1, box.MaxY+pad),
	}
}
