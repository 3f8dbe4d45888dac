package synth

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/mattn/go-shellwords"

	"github.com/tonegate/tonegate/internal/audio"
)

// execEngine runs the inference model through a sidecar process. The
// sidecar receives one JSON request on stdin and replies with one JSON
// document on stdout carrying base64 16-bit little-endian PCM. One
// process is spawned per call; the coordinator's gate bounds how many
// run at once.
type execEngine struct {
	cmd  []string
	rate int
}

type execRequest struct {
	Text       string `json:"text"`
	Voice      string `json:"voice"`
	Lang       string `json:"lang"`
	Steps      int    `json:"total_step"`
	SampleRate int    `json:"sample_rate"`
}

type execResponse struct {
	PCMBase64  string `json:"pcm_base64"`
	SampleRate int    `json:"sample_rate,omitempty"`
}

// NewExecEngine parses the sidecar command line and returns an engine
// with the given native sample rate.
func NewExecEngine(command string, sampleRate int) (Engine, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse engine command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("engine command empty")
	}
	return &execEngine{cmd: args, rate: sampleRate}, nil
}

func (e *execEngine) Synthesize(ctx context.Context, job Job) (audio.PCM, error) {
	payload, err := json.Marshal(execRequest{
		Text:       job.Text,
		Voice:      string(job.Voice),
		Lang:       string(job.Lang),
		Steps:      job.Steps,
		SampleRate: e.rate,
	})
	if err != nil {
		return audio.PCM{}, err
	}

	cmd := exec.CommandContext(ctx, e.cmd[0], e.cmd[1:]...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
			return audio.PCM{}, fmt.Errorf("engine process: %w: %s", err, msg)
		}
		return audio.PCM{}, fmt.Errorf("engine process: %w", err)
	}

	var resp execResponse
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &resp); err != nil {
		return audio.PCM{}, fmt.Errorf("decode engine response: %w", err)
	}
	raw, err := base64.StdEncoding.DecodeString(resp.PCMBase64)
	if err != nil {
		return audio.PCM{}, fmt.Errorf("decode engine pcm: %w", err)
	}
	if len(raw)%2 != 0 {
		return audio.PCM{}, fmt.Errorf("engine pcm has odd byte length %d", len(raw))
	}

	samples := make([]float32, len(raw)/2)
	for i := range samples {
		samples[i] = float32(int16(binary.LittleEndian.Uint16(raw[i*2:]))) / 32768
	}

	rate := resp.SampleRate
	if rate == 0 {
		rate = e.rate
	}
	return audio.PCM{Samples: samples, SampleRate: rate}, nil
}

func (e *execEngine) SampleRate() int { return e.rate }

func (e *execEngine) Close() error { return nil }
