package isolate

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"

	"symbolcut/internal/config"
	"symbolcut/internal/logger"
)

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := New(config.Default(), logger.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

// The canonical synthetic: a 256x256 pure-white canvas with a solid red
// 64x64 square occupying [96,160) in both axes.
func squareOnWhite() *image.NRGBA {
	img := fillCanvas(256, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	paintSquare(img, 96, 160, color.NRGBA{R: 180, G: 40, B: 40, A: 255})
	return img
}

func TestRunProcessesSquareOnWhite(t *testing.T) {
	p := newTestPipeline(t)
	src := squareOnWhite()

	res := p.Run(context.Background(), src, RunOptions{})

	if res.Skipped || res.FallbackUsed {
		t.Fatalf("unexpected outcome: %+v", res)
	}
	// Padding is max(20, 0.1*256) = 25, so the crop is 64+2*25 per axis.
	if res.Image.Rect.Dx() != 114 || res.Image.Rect.Dy() != 114 {
		t.Fatalf("output dims = %dx%d, want 114x114", res.Image.Rect.Dx(), res.Image.Rect.Dy())
	}
	wantBox := res.Box
	if wantBox.MinX != 71 || wantBox.MinY != 71 || wantBox.MaxX != 184 || wantBox.MaxY != 184 {
		t.Fatalf("crop box = %+v", wantBox)
	}

	// Every pixel outside the unpadded square bounds must be fully
	// transparent. In output coordinates the square occupies [25,89).
	for y := 0; y < 114; y++ {
		for x := 0; x < 114; x++ {
			inside := x >= 25 && x < 89 && y >= 25 && y < 89
			if inside {
				continue
			}
			if a := res.Image.NRGBAAt(x, y).A; a != 0 {
				t.Fatalf("pixel (%d,%d) outside foreground has alpha %d", x, y, a)
			}
		}
	}

	// RGB passes through the pipeline untouched.
	for y := 0; y < 114; y++ {
		for x := 0; x < 114; x++ {
			got := res.Image.NRGBAAt(x, y)
			orig := src.NRGBAAt(x+71, y+71)
			if got.R != orig.R || got.G != orig.G || got.B != orig.B {
				t.Fatalf("RGB changed at (%d,%d)", x, y)
			}
		}
	}

	// The square interior stays opaque.
	if a := res.Image.NRGBAAt(57, 57).A; a != 255 {
		t.Fatalf("square center alpha = %d, want 255", a)
	}
}

func TestRunSkipsNonWhiteBackground(t *testing.T) {
	p := newTestPipeline(t)
	src := fillCanvas(128, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
	paintSquare(src, 40, 90, color.NRGBA{R: 180, G: 40, B: 40, A: 255})

	res := p.Run(context.Background(), src, RunOptions{})

	if !res.Skipped {
		t.Fatal("mid-gray canvas must be skipped")
	}
	if diff := cmp.Diff(src.Pix, res.Image.Pix); diff != "" {
		t.Fatalf("skipped image modified:\n%s", diff)
	}
}

func TestRunForceOverridesSkip(t *testing.T) {
	p := newTestPipeline(t)
	src := fillCanvas(128, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
	paintSquare(src, 40, 90, color.NRGBA{R: 180, G: 40, B: 40, A: 255})

	res := p.Run(context.Background(), src, RunOptions{Force: true})
	if res.Skipped {
		t.Fatal("force must bypass the skip heuristic")
	}
}

func TestRunFallbackOnAllBackground(t *testing.T) {
	p := newTestPipeline(t)
	src := fillCanvas(10, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	res := p.Run(context.Background(), src, RunOptions{Force: true})

	if !res.FallbackUsed {
		t.Fatal("all-background image must fall back")
	}
	if res.Skipped {
		t.Fatal("fallback must not be reported as a skip")
	}
	if diff := cmp.Diff(src.Pix, res.Image.Pix); diff != "" {
		t.Fatalf("fallback image differs from input:\n%s", diff)
	}
}

func TestNoForegroundSignal(t *testing.T) {
	o := config.Default()
	src := fillCanvas(10, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	edges := DetectEdges(src, o.EdgeThreshold)

	_, err := ExtractBox(BuildForegroundMask(src, edges, o))
	if !errors.Is(err, ErrNoForeground) {
		t.Fatalf("err = %v, want ErrNoForeground", err)
	}
}

func TestRunIsIdempotentOnIsolatedInput(t *testing.T) {
	p := newTestPipeline(t)

	first := p.Run(context.Background(), squareOnWhite(), RunOptions{})
	if first.Skipped || first.FallbackUsed {
		t.Fatalf("first pass outcome: %+v", first)
	}

	second := p.Run(context.Background(), first.Image, RunOptions{})
	if !second.Skipped {
		t.Fatal("already-isolated image must be skipped on the second pass")
	}
	if diff := cmp.Diff(first.Image.Pix, second.Image.Pix); diff != "" {
		t.Fatalf("second pass changed pixels:\n%s", diff)
	}
}

func TestRunFallbackOnCancelledContext(t *testing.T) {
	p := newTestPipeline(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := p.Run(ctx, squareOnWhite(), RunOptions{Force: true})
	if !res.FallbackUsed {
		t.Fatal("cancelled run must fall back to the original image")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	o := config.Default()
	o.AlphaFloor = 300
	if _, err := New(o, nil); !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}

	o = config.Default()
	o.CropPaddingMin = -1
	if _, err := New(o, nil); !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
}
