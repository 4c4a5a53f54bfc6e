package batch

import (
	"context"
	"image"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"symbolcut/internal/isolate"
	"symbolcut/internal/logger"
)

// Item is one image in a batch.
type Item struct {
	Name  string
	Image image.Image
	// Force bypasses the adaptive-skip heuristic for this image.
	Force bool
}

// Summary reports what happened to a batch.
type Summary struct {
	Job       uuid.UUID
	Processed int
	Skipped   int
	Fallbacks int
	Discarded int // results dropped because the batch went stale
}

// Runner executes pipeline runs across a bounded worker pool. Runs share no
// mutable state, so a typical symbol set (5-15 images) fans out across cores.
//
// Stale-batch handling uses a generation token: NextToken invalidates every
// batch submitted under an earlier token, and results of a stale batch are
// discarded instead of committed. This is how a theme re-selection cancels
// the previous symbol set without corrupting the destination.
type Runner struct {
	pipeline *isolate.Pipeline
	log      *logger.Logger
	workers  chan struct{}
	timeout  time.Duration
	latest   atomic.Uint64
}

// NewRunner sizes the pool to workers, or NumCPU when workers <= 0.
// perImageTimeout bounds each run; a run that exceeds it falls back to its
// original image. A timeout <= 0 means no per-image budget.
func NewRunner(p *isolate.Pipeline, log *logger.Logger, workers int, perImageTimeout time.Duration) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	pool := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		pool <- struct{}{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{
		pipeline: p,
		log:      log,
		workers:  pool,
		timeout:  perImageTimeout,
	}
}

// NextToken starts a new generation and returns its token. Batches carrying
// older tokens become stale immediately.
func (r *Runner) NextToken() uint64 {
	return r.latest.Add(1)
}

// Process runs every item and invokes commit exactly once per item that
// finishes while token is still current. Commit calls are serialized, so the
// sink needs no locking of its own. Items of a stale batch still drain their
// workers but their results are discarded.
func (r *Runner) Process(ctx context.Context, token uint64, items []Item, commit func(index int, res isolate.Result)) Summary {
	job := uuid.New()
	r.log.Info("batch", "batch started", map[string]interface{}{
		"job":   job.String(),
		"items": len(items),
	})

	var (
		mu      sync.Mutex
		summary = Summary{Job: job}
		wg      sync.WaitGroup
	)

	for i, item := range items {
		select {
		case <-r.workers:
		case <-ctx.Done():
			mu.Lock()
			summary.Discarded += len(items) - i
			mu.Unlock()
			r.log.Warning("batch", "batch cancelled before dispatch", map[string]interface{}{
				"job":       job.String(),
				"remaining": len(items) - i,
			})
			wg.Wait()
			return summary
		}

		wg.Add(1)
		go func(index int, item Item) {
			defer wg.Done()
			defer func() { r.workers <- struct{}{} }()

			runCtx := ctx
			cancel := context.CancelFunc(func() {})
			if r.timeout > 0 {
				runCtx, cancel = context.WithTimeout(ctx, r.timeout)
			}
			defer cancel()

			res := r.pipeline.Run(runCtx, item.Image, isolate.RunOptions{Force: item.Force})

			mu.Lock()
			defer mu.Unlock()
			if r.latest.Load() != token {
				summary.Discarded++
				r.log.Debug("batch", "discarding stale result", map[string]interface{}{
					"job":  job.String(),
					"item": item.Name,
				})
				return
			}
			switch {
			case res.Skipped:
				summary.Skipped++
			case res.FallbackUsed:
				summary.Fallbacks++
			default:
				summary.Processed++
			}
			commit(index, res)
		}(i, item)
	}

	wg.Wait()
	r.log.Info("batch", "batch finished", map[string]interface{}{
		"job":       job.String(),
		"processed": summary.Processed,
		"skipped":   summary.Skipped,
		"fallbacks": summary.Fallbacks,
		"discarded": summary.Discarded,
	})
	return summary
}
