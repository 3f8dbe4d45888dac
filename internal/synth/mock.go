package synth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/tonegate/tonegate/internal/audio"
)

// samplesPerRune sizes mock output so duration scales with text length.
const samplesPerRune = 160

// Invocation records one mock engine call for assertions.
type Invocation struct {
	Text  string
	Start time.Time
	End   time.Time
}

// MockEngine produces deterministic synthetic PCM. It is used by tests
// and by the "mock" backend for development without model assets. The
// same job always yields the same samples, so cached responses are
// byte-identical across calls.
type MockEngine struct {
	rate    int
	latency time.Duration
	failOn  string

	mu          sync.Mutex
	invocations []Invocation
}

// NewMockEngine returns a mock engine with the given native sample rate.
func NewMockEngine(sampleRate int) *MockEngine {
	return &MockEngine{rate: sampleRate}
}

// WithLatency makes every call take at least d.
func (m *MockEngine) WithLatency(d time.Duration) *MockEngine {
	m.latency = d
	return m
}

// FailOn makes calls whose text contains substr fail.
func (m *MockEngine) FailOn(substr string) *MockEngine {
	m.failOn = substr
	return m
}

func (m *MockEngine) Synthesize(ctx context.Context, job Job) (audio.PCM, error) {
	start := time.Now()
	if m.latency > 0 {
		select {
		case <-ctx.Done():
			return audio.PCM{}, ctx.Err()
		case <-time.After(m.latency):
		}
	}

	defer func() {
		m.mu.Lock()
		m.invocations = append(m.invocations, Invocation{Text: job.Text, Start: start, End: time.Now()})
		m.mu.Unlock()
	}()

	if m.failOn != "" && strings.Contains(job.Text, m.failOn) {
		return audio.PCM{}, errors.New("mock engine failure")
	}

	runes := []rune(job.Text)
	samples := make([]float32, len(runes)*samplesPerRune)
	for i := range samples {
		// Deterministic pseudo-waveform seeded by text content.
		seed := int(runes[i/samplesPerRune]) + job.Steps
		samples[i] = float32((i*31+seed*7)%2000-1000) / 2048
	}
	return audio.PCM{Samples: samples, SampleRate: m.rate}, nil
}

func (m *MockEngine) SampleRate() int { return m.rate }

func (m *MockEngine) Close() error { return nil }

// Invocations returns a copy of the recorded calls.
func (m *MockEngine) Invocations() []Invocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Invocation, len(m.invocations))
	copy(out, m.invocations)
	return out
}
