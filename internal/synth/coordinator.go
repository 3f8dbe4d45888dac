package synth

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/tonegate/tonegate/internal/audio"
	"github.com/tonegate/tonegate/internal/observability"
	"github.com/tonegate/tonegate/internal/speech"
)

// Coordinator serializes access to the inference engine. A loaded model
// instance saturates the compute it runs on, so the engine is treated as
// a scarce resource: a weighted semaphore bounds in-flight calls to the
// configured slot count (default 1) and excess callers queue in FIFO
// order. Per-request segment synthesis fans out through an errgroup, so
// the first failing segment cancels the rest — no partial audio.
type Coordinator struct {
	engine Engine
	gate   *semaphore.Weighted
	logger *slog.Logger
}

// NewCoordinator wraps the engine with a bounded-concurrency gate of the
// given slot count.
func NewCoordinator(engine Engine, slots int64, log *slog.Logger) *Coordinator {
	if slots < 1 {
		slots = 1
	}
	return &Coordinator{
		engine: engine,
		gate:   semaphore.NewWeighted(slots),
		logger: log.With(slog.String("component", "coordinator")),
	}
}

// SampleRate returns the engine's fixed native output rate.
func (c *Coordinator) SampleRate() int { return c.engine.SampleRate() }

// SynthesizeAll invokes the engine once per segment and returns the
// results in segment order. Any segment failure aborts the remaining
// segments and surfaces as an InferenceError. A caller cancelled while
// queued simply abandons the wait; an acquired slot is always released.
func (c *Coordinator) SynthesizeAll(ctx context.Context, req *speech.Request) ([]audio.PCM, error) {
	out := make([]audio.PCM, len(req.Segments))

	g, ctx := errgroup.WithContext(ctx)
	for i, seg := range req.Segments {
		i, seg := i, seg
		g.Go(func() error {
			queued := time.Now()
			if err := c.gate.Acquire(ctx, 1); err != nil {
				return err
			}
			defer c.gate.Release(1)
			observability.RecordQueueWait(time.Since(queued))

			start := time.Now()
			pcm, err := c.engine.Synthesize(ctx, Job{
				Text:  seg.Text,
				Voice: req.Voice,
				Lang:  seg.Lang,
				Steps: req.Steps,
			})
			observability.RecordEngineCall(time.Since(start), err == nil)
			if err != nil {
				c.logger.Warn("segment synthesis failed",
					slog.Int("segment", i),
					slog.String("lang", string(seg.Lang)),
					slog.String("error", err.Error()))
				return &speech.InferenceError{Segment: i, Err: err}
			}

			c.logger.Debug("segment synthesized",
				slog.Int("segment", i),
				slog.String("lang", string(seg.Lang)),
				slog.Int("samples", len(pcm.Samples)),
				slog.Duration("took", time.Since(start)))
			out[i] = pcm
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
