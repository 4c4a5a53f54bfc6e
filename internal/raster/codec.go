package raster

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/disintegration/imaging"
)

// Decode reads any registered image format and returns an origin-anchored
// NRGBA buffer plus the detected format name ("png", "jpeg", ...).
func Decode(r io.Reader) (*image.NRGBA, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return ToNRGBA(img), NormalizeFormat(format), nil
}

// NormalizeFormat maps format aliases to canonical encoder names. Anything
// unrecognized falls back to png, the only format that preserves alpha.
func NormalizeFormat(format string) string {
	switch format {
	case "jpg", "jpeg":
		return "jpeg"
	case "png":
		return "png"
	default:
		return "png"
	}
}

// EncodePNG writes img as PNG. PNG is the canonical output format since the
// whole point of the pipeline is the alpha channel.
func EncodePNG(w io.Writer, img *image.NRGBA) error {
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// EncodeJPEG writes img as JPEG at the given quality, flattening alpha.
// Provided for callers that export composited previews.
func EncodeJPEG(w io.Writer, img *image.NRGBA, quality int) error {
	if err := imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}
	return nil
}
