package isolate

import (
	"context"
	"fmt"
	"image"

	"symbolcut/internal/config"
	"symbolcut/internal/raster"
)

// Frame is the unit of work flowing through the stage chain: the current
// pixel buffer plus the derived artifacts later stages consume. Stages never
// mutate a frame they received; they return a new one.
type Frame struct {
	Img   *image.NRGBA
	Edges *raster.Mask // full-size contour mask, original image coordinates
	Box   raster.Box   // padded crop box, original image coordinates
}

// Stage is one pipeline step.
type Stage interface {
	Name() string
	ShouldExecute(o config.Options) bool
	Apply(ctx context.Context, f *Frame) (*Frame, error)
}

// Chain executes stages in order, honoring ctx between steps.
type Chain struct {
	opts   config.Options
	stages []Stage
}

func NewChain(o config.Options, stages ...Stage) *Chain {
	return &Chain{opts: o, stages: stages}
}

func (c *Chain) Execute(ctx context.Context, input *Frame) (*Frame, error) {
	current := input
	for _, stage := range c.stages {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if !stage.ShouldExecute(c.opts) {
			continue
		}

		result, err := stage.Apply(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("stage %s failed: %w", stage.Name(), err)
		}
		current = result
	}
	return current, nil
}

func (c *Chain) StageNames() []string {
	names := make([]string, len(c.stages))
	for i, s := range c.stages {
		names[i] = s.Name()
	}
	return names
}
