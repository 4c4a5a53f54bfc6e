package isolate

import (
	"context"
	"image"

	"github.com/disintegration/imaging"

	"symbolcut/internal/config"
	"symbolcut/internal/raster"
)

// Fixed cleanup levels. These are not part of the tunable surface: the halo
// and attenuation passes assume the compositor's band output and drift if
// adjusted independently of it.
const (
	haloWhiteLevel    = 220 // channels above this with any alpha left is fringe
	attenuateAlphaCap = 160
	attenuateChannel  = 180
	attenuateLuma     = 200
)

// DenoiseStage blurs the alpha plane to knock down speckle left by per-pixel
// alpha decisions. Only alpha is touched; RGB stays byte-identical so repeated
// runs stay stable.
type DenoiseStage struct {
	Sigma float64
}

func (DenoiseStage) Name() string                        { return "alpha_denoise" }
func (s DenoiseStage) ShouldExecute(config.Options) bool { return s.Sigma > 0 }

func (s DenoiseStage) Apply(ctx context.Context, f *Frame) (*Frame, error) {
	img := f.Img
	w, h := img.Rect.Dx(), img.Rect.Dy()

	plane := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			plane.Pix[y*plane.Stride+x] = img.Pix[y*img.Stride+x*4+3]
		}
	}
	blurred := imaging.Blur(plane, s.Sigma)

	out := raster.Clone(img)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Pix[y*out.Stride+x*4+3] = blurred.Pix[y*blurred.Stride+x*4]
		}
	}
	return &Frame{Img: out, Edges: f.Edges, Box: f.Box}, nil
}

// HaloRemovalStage zeroes residual fringing: barely-opaque pixels under the
// halo cutoff, and near-white pixels that kept any opacity at all.
type HaloRemovalStage struct {
	Cutoff int
}

func (HaloRemovalStage) Name() string                      { return "halo_removal" }
func (HaloRemovalStage) ShouldExecute(config.Options) bool { return true }

func (s HaloRemovalStage) Apply(ctx context.Context, f *Frame) (*Frame, error) {
	out := raster.Clone(f.Img)
	forEachPixel(out, func(pix []byte) {
		r, g, b, a := pix[0], pix[1], pix[2], pix[3]
		if a == 0 {
			return
		}
		if int(a) < s.Cutoff {
			pix[3] = 0
			return
		}
		if r > haloWhiteLevel && g > haloWhiteLevel && b > haloWhiteLevel {
			pix[3] = 0
		}
	})
	return &Frame{Img: out, Edges: f.Edges, Box: f.Box}, nil
}

// EdgeAttenuationStage softens light semi-opaque edge pixels: for alpha in
// [halo cutoff, 160) with all channels above 180, alpha drops by the
// luminance excess over 200.
type EdgeAttenuationStage struct {
	Cutoff int
}

func (EdgeAttenuationStage) Name() string                      { return "edge_attenuation" }
func (EdgeAttenuationStage) ShouldExecute(config.Options) bool { return true }

func (s EdgeAttenuationStage) Apply(ctx context.Context, f *Frame) (*Frame, error) {
	out := raster.Clone(f.Img)
	forEachPixel(out, func(pix []byte) {
		r, g, b, a := pix[0], pix[1], pix[2], pix[3]
		if int(a) < s.Cutoff || a >= attenuateAlphaCap {
			return
		}
		if r <= attenuateChannel || g <= attenuateChannel || b <= attenuateChannel {
			return
		}
		l := raster.Luminance(r, g, b)
		if l <= attenuateLuma {
			return
		}
		next := int(a) - int(l-attenuateLuma)
		if next < 0 {
			next = 0
		}
		pix[3] = uint8(next)
	})
	return &Frame{Img: out, Edges: f.Edges, Box: f.Box}, nil
}

// SharpenStage is the optional final crisping pass. The historical effect was
// a double self-composite with a lighter blend, silently skipped on failure;
// here it is a deterministic unsharp mask and is off unless sharpen_amount is
// set, because it rewrites RGB and therefore trades away byte-stable reruns.
type SharpenStage struct {
	Amount float64
}

func (SharpenStage) Name() string                        { return "sharpen" }
func (s SharpenStage) ShouldExecute(config.Options) bool { return s.Amount > 0 }

func (s SharpenStage) Apply(ctx context.Context, f *Frame) (*Frame, error) {
	out := imaging.Sharpen(f.Img, s.Amount)
	return &Frame{Img: out, Edges: f.Edges, Box: f.Box}, nil
}

// forEachPixel invokes fn with the 4-byte RGBA slice of every pixel.
func forEachPixel(img *image.NRGBA, fn func(pix []byte)) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			fn(row[x*4 : x*4+4])
		}
	}
}
