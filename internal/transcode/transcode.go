// Package transcode converts assembled PCM into the client-requested
// container format. Compressed formats go through an ffmpeg child
// process; wav and pcm are framed directly.
package transcode

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"time"

	"github.com/tonegate/tonegate/internal/audio"
	"github.com/tonegate/tonegate/internal/observability"
	"github.com/tonegate/tonegate/internal/speech"
)

// codecArgs holds the fixed ffmpeg muxer and codec settings per format.
// Bitrates are implementation constants — the API contract exposes no
// bitrate parameter.
var codecArgs = map[speech.AudioFormat]struct {
	muxer string
	args  []string
}{
	speech.FormatMP3:  {muxer: "mp3", args: []string{"-c:a", "libmp3lame", "-b:a", "128k"}},
	speech.FormatOpus: {muxer: "opus", args: []string{"-c:a", "libopus", "-b:a", "96k"}},
	speech.FormatAAC:  {muxer: "adts", args: []string{"-c:a", "aac", "-b:a", "128k"}},
	speech.FormatFLAC: {muxer: "flac", args: []string{"-c:a", "flac"}},
}

// Encoder hands PCM to the external transcoder.
type Encoder struct {
	ffmpegPath string
	logger     *slog.Logger
}

// New returns an encoder that shells out to the given ffmpeg binary.
func New(ffmpegPath string, log *slog.Logger) *Encoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Encoder{
		ffmpegPath: ffmpegPath,
		logger:     log.With(slog.String("component", "transcode")),
	}
}

// Encode converts the assembled buffer to the requested format. The
// source PCM is mono 16-bit little-endian at the buffer's sample rate.
func (e *Encoder) Encode(ctx context.Context, pcm audio.PCM, format speech.AudioFormat) ([]byte, error) {
	raw := audio.ToS16LE(pcm.Samples)

	switch format {
	case speech.FormatPCM:
		observability.RecordEncode(string(format), true)
		return raw, nil
	case speech.FormatWAV:
		observability.RecordEncode(string(format), true)
		return audio.WAV(raw, pcm.SampleRate, 1), nil
	}

	cfg, ok := codecArgs[format]
	if !ok {
		return nil, &speech.EncodingError{Format: format, Err: fmt.Errorf("no codec configuration")}
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "s16le",
		"-ar", strconv.Itoa(pcm.SampleRate),
		"-ac", "1",
		"-i", "pipe:0",
	}
	args = append(args, cfg.args...)
	args = append(args, "-f", cfg.muxer, "pipe:1")

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	cmd.Stdin = bytes.NewReader(raw)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		observability.RecordEncode(string(format), false)
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
			return nil, &speech.EncodingError{Format: format, Err: fmt.Errorf("%w: %s", err, msg)}
		}
		return nil, &speech.EncodingError{Format: format, Err: err}
	}
	observability.RecordEncode(string(format), true)

	e.logger.Debug("transcoded audio",
		slog.String("format", string(format)),
		slog.Int("pcm_bytes", len(raw)),
		slog.Int("encoded_bytes", stdout.Len()),
		slog.Duration("took", time.Since(start)))
	return stdout.Bytes(), nil
}
