// Package pipeline implements the synthesis orchestration core.
//
// A request flows: normalize → cache lookup → segment synthesis →
// assembly → encoding → cache insert. The pipeline fails fast — a
// failure at any stage aborts the request with no partial audio and no
// cache write. Concurrent requests with the same fingerprint share one
// in-flight computation through singleflight.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tonegate/tonegate/internal/audio"
	"github.com/tonegate/tonegate/internal/cache"
	"github.com/tonegate/tonegate/internal/observability"
	"github.com/tonegate/tonegate/internal/speech"
	"github.com/tonegate/tonegate/internal/synth"
	"github.com/tonegate/tonegate/internal/transcode"
)

// Result is the final encoded artifact for a request.
type Result struct {
	Audio  []byte
	Format speech.AudioFormat
	Cached bool
}

// Pipeline wires the synthesis stages together.
type Pipeline struct {
	resolver speech.Resolver
	coord    *synth.Coordinator
	encoder  *transcode.Encoder
	store    cache.Store // nil disables caching
	logger   *slog.Logger
	flight   singleflight.Group
}

// New assembles a pipeline. store may be nil to disable response caching.
func New(resolver speech.Resolver, coord *synth.Coordinator, encoder *transcode.Encoder, store cache.Store, log *slog.Logger) *Pipeline {
	return &Pipeline{
		resolver: resolver,
		coord:    coord,
		encoder:  encoder,
		store:    store,
		logger:   log.With(slog.String("component", "pipeline")),
	}
}

// Speak runs one request through the full pipeline.
func (p *Pipeline) Speak(ctx context.Context, raw speech.RawRequest) (*Result, error) {
	req, err := speech.Normalize(raw, p.resolver)
	if err != nil {
		return nil, err
	}
	key := req.Fingerprint()
	logger := p.logger.With(slog.String("fingerprint", key[:12]))

	if p.store != nil {
		if entry, ok := p.store.Get(ctx, key); ok {
			observability.RecordCacheLookup(true)
			logger.Info("cache hit",
				slog.Int("bytes", len(entry.Bytes)),
				slog.String("format", string(entry.Format)))
			return &Result{Audio: entry.Bytes, Format: entry.Format, Cached: true}, nil
		}
		observability.RecordCacheLookup(false)
	}

	// Identical-fingerprint requests landing together share one
	// computation; the first caller's context drives it, waiters keep
	// their own deadline through the select below.
	ch := p.flight.DoChan(key, func() (any, error) {
		return p.generate(ctx, req, key, logger)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		result := res.Val.(*Result)
		if res.Shared {
			// Duplicate callers get the same bytes without a second
			// engine run; report them as served-from-flight.
			shared := *result
			shared.Cached = true
			return &shared, nil
		}
		return result, nil
	}
}

// generate runs the expensive half of the pipeline: inference, assembly,
// encoding, and the cache insert. Only fully successful runs are cached.
func (p *Pipeline) generate(ctx context.Context, req *speech.Request, key string, logger *slog.Logger) (*Result, error) {
	start := time.Now()
	logger.Info("generating speech",
		slog.Int("segments", len(req.Segments)),
		slog.String("voice", string(req.Voice)),
		slog.Float64("speed", req.Speed),
		slog.Int("steps", req.Steps),
		slog.String("format", string(req.Format)))

	segments, err := p.coord.SynthesizeAll(ctx, req)
	if err != nil {
		return nil, err
	}

	assembled, err := audio.Assemble(segments, req.Speed, p.coord.SampleRate())
	if err != nil {
		return nil, err
	}

	data, err := p.encoder.Encode(ctx, assembled, req.Format)
	if err != nil {
		return nil, err
	}

	if p.store != nil {
		entry := &cache.Entry{
			Key:       key,
			Bytes:     data,
			Format:    req.Format,
			CreatedAt: time.Now().UTC(),
		}
		if err := p.store.Put(ctx, entry); err != nil {
			logger.Warn("cache insert failed", slog.String("error", err.Error()))
		}
	}

	logger.Info("speech generated",
		slog.Int("bytes", len(data)),
		slog.Duration("audio_duration", assembled.Duration()),
		slog.Duration("took", time.Since(start)))
	return &Result{Audio: data, Format: req.Format}, nil
}
