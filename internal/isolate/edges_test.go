package isolate

import (
	"image"
	"image/color"
	"testing"
)

func TestDetectEdgesStep(t *testing.T) {
	// Left half black, right half white: a hard vertical step at x=10.
	img := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			v := uint8(0)
			if x >= 10 {
				v = 255
			}
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}

	mask := DetectEdges(img, 30)

	if !mask.At(9, 10) || !mask.At(10, 10) {
		t.Fatal("pixels flanking the step must be edges")
	}
	if mask.At(3, 10) || mask.At(16, 10) {
		t.Fatal("pixels far from the step must not be edges")
	}
	for x := 0; x < 20; x++ {
		if mask.At(x, 0) || mask.At(x, 19) {
			t.Fatalf("border row pixel (%d) flagged as edge", x)
		}
	}
}

func TestDetectEdgesFlat(t *testing.T) {
	img := fillCanvas(16, color.NRGBA{R: 77, G: 77, B: 77, A: 255})
	if got := DetectEdges(img, 30).Count(); got != 0 {
		t.Fatalf("flat image produced %d edge pixels", got)
	}
}

func TestDetectEdgesTooSmall(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	if got := DetectEdges(img, 30).Count(); got != 0 {
		t.Fatalf("2x2 image produced %d edge pixels", got)
	}
}
