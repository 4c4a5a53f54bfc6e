package isolate

import (
	"context"
	"fmt"
	"image"
	"time"

	"symbolcut/internal/config"
	"symbolcut/internal/logger"
	"symbolcut/internal/raster"
)

// Result is what a pipeline run hands back. Exactly one of the three outcomes
// holds:
//
//   - Skipped: the border heuristic saw no near-white canvas and the caller
//     did not force processing; Image is the input, untouched.
//   - FallbackUsed: a stage failed or the run was cancelled; Image is the
//     input, untouched, and the failure was logged as a diagnostic.
//   - neither: Image is the cropped, alpha-rewritten, cleaned result and Box
//     is the padded crop region in input coordinates.
type Result struct {
	Image        *image.NRGBA
	Box          raster.Box
	Skipped      bool
	FallbackUsed bool
}

// RunOptions are per-call knobs.
type RunOptions struct {
	// Force bypasses the adaptive-skip heuristic. Set when the surrounding
	// system knows the image needs matting (filename or URL hints).
	Force bool
}

// Pipeline isolates symbol art from its canvas: classify background, protect
// contours, crop to the foreground, rewrite alpha, clean up the matte.
//
// A pipeline is immutable after construction and safe for concurrent use;
// every run owns its buffers.
type Pipeline struct {
	opts config.Options
	log  *logger.Logger
}

// New validates opts eagerly; an out-of-range threshold is a programming
// mistake and the only error this package ever returns to a caller.
func New(opts config.Options, log *logger.Logger) (*Pipeline, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Pipeline{opts: opts, log: log}, nil
}

// Options returns the validated configuration the pipeline runs with.
func (p *Pipeline) Options() config.Options {
	return p.opts
}

// Run executes the pipeline on src. It never fails: any internal error
// converts to the fallback outcome, because a symbol rendered with its
// original background beats a broken asset flow.
func (p *Pipeline) Run(ctx context.Context, src image.Image, ro RunOptions) Result {
	img := raster.ToNRGBA(src)

	if !ro.Force && !HasUniformBackground(img, p.opts) {
		p.log.Debug("pipeline", "background not uniform, skipping", map[string]interface{}{
			"width":  img.Rect.Dx(),
			"height": img.Rect.Dy(),
		})
		return Result{Image: img, Skipped: true}
	}

	started := time.Now()
	out, box, err := p.process(ctx, img)
	if err != nil {
		p.log.Warning("pipeline", "falling back to original image", map[string]interface{}{
			"reason":  err.Error(),
			"elapsed": time.Since(started).String(),
		})
		return Result{Image: img, FallbackUsed: true}
	}

	p.log.Debug("pipeline", "image processed", map[string]interface{}{
		"in_width":   img.Rect.Dx(),
		"in_height":  img.Rect.Dy(),
		"out_width":  out.Rect.Dx(),
		"out_height": out.Rect.Dy(),
		"elapsed":    time.Since(started).String(),
	})
	return Result{Image: out, Box: box}
}

func (p *Pipeline) process(ctx context.Context, img *image.NRGBA) (*image.NRGBA, raster.Box, error) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w == 0 || h == 0 {
		return nil, raster.Box{}, fmt.Errorf("empty image (%dx%d)", w, h)
	}
	if err := ctx.Err(); err != nil {
		return nil, raster.Box{}, err
	}

	edges := DetectEdges(img, p.opts.EdgeThreshold)
	foreground := BuildForegroundMask(img, edges, p.opts)

	box, err := ExtractBox(foreground)
	if err != nil {
		return nil, raster.Box{}, err
	}
	padded := PadBox(box, w, h, p.opts)

	if err := ctx.Err(); err != nil {
		return nil, raster.Box{}, err
	}
	cropped := Composite(img, padded, edges, p.opts)

	chain := NewChain(p.opts,
		DenoiseStage{Sigma: p.opts.DenoiseSigma},
		HaloRemovalStage{Cutoff: p.opts.HaloAlphaCutoff},
		EdgeAttenuationStage{Cutoff: p.opts.HaloAlphaCutoff},
		SharpenStage{Amount: p.opts.SharpenAmount},
	)
	frame, err := chain.Execute(ctx, &Frame{Img: cropped, Edges: edges, Box: padded})
	if err != nil {
		return nil, raster.Box{}, err
	}
	return frame.Img, padded, nil
}
