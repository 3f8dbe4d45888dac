// Package synth owns access to the inference engine: the pluggable
// backend adapters and the coordinator that schedules calls into them.
package synth

import (
	"context"

	"github.com/tonegate/tonegate/internal/audio"
	"github.com/tonegate/tonegate/internal/speech"
)

// Job is one segment synthesis call.
type Job struct {
	Text  string
	Voice speech.VoiceID
	Lang  speech.LanguageCode
	Steps int
}

// Engine is the contract for the external inference primitive. An engine
// produces raw PCM for one segment; everything else (scheduling,
// assembly, encoding) happens around it. Implementations must honor
// context cancellation but need not be safe for concurrent calls — the
// coordinator's gate bounds concurrency to the configured slot count.
type Engine interface {
	Synthesize(ctx context.Context, job Job) (audio.PCM, error)

	// SampleRate returns the engine's fixed native output rate.
	SampleRate() int

	// Close releases any resources held by the engine.
	Close() error
}
