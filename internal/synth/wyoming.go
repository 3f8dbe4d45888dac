package synth

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/tonegate/tonegate/internal/audio"
	"github.com/tonegate/tonegate/internal/speech"
)

// wyomingEngine synthesizes through a Wyoming protocol TTS sidecar
// (piper-style servers expose this on TCP). Connections are per-call.
//
// Wyoming protocol format (per event):
//
//	<json_length> <payload_length>\n
//	<json_bytes>\n
//	<payload_bytes>   (if payload_length > 0)
type wyomingEngine struct {
	endpoint string
	voices   map[speech.VoiceID]string
	rate     int
	logger   *slog.Logger
}

// NewWyomingEngine returns an engine backed by a Wyoming TCP sidecar.
// voices maps internal style IDs to the sidecar's voice model names;
// styles without a mapping are passed through by ID.
func NewWyomingEngine(endpoint string, voices map[string]string, sampleRate int, log *slog.Logger) Engine {
	endpoint = strings.TrimPrefix(endpoint, "tcp://")
	mapped := make(map[speech.VoiceID]string, len(voices))
	for style, name := range voices {
		mapped[speech.VoiceID(strings.ToUpper(style))] = name
	}
	return &wyomingEngine{
		endpoint: endpoint,
		voices:   mapped,
		rate:     sampleRate,
		logger:   log.With(slog.String("component", "wyoming-engine")),
	}
}

func (e *wyomingEngine) Synthesize(ctx context.Context, job Job) (audio.PCM, error) {
	voice := e.voices[job.Voice]
	if voice == "" {
		voice = string(job.Voice)
	}

	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", e.endpoint)
	if err != nil {
		return audio.PCM{}, fmt.Errorf("connecting to engine: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(60 * time.Second))
	}

	synthEvent := wyomingEvent{
		Type: "synthesize",
		Data: map[string]any{
			"text": job.Text,
			"voice": map[string]any{
				"name":     voice,
				"language": string(job.Lang),
			},
		},
	}
	if err := writeEvent(conn, synthEvent, nil); err != nil {
		return audio.PCM{}, fmt.Errorf("sending synthesize event: %w", err)
	}

	var (
		pcmBuf     bytes.Buffer
		streamRate = e.rate
	)
	for {
		evt, payload, err := readEvent(conn)
		if err != nil {
			return audio.PCM{}, fmt.Errorf("reading engine event: %w", err)
		}

		switch evt.Type {
		case "audio-start":
			if rate, ok := evt.Data["rate"].(float64); ok {
				streamRate = int(rate)
			}

		case "audio-chunk":
			if len(payload) > 0 {
				pcmBuf.Write(payload)
			}

		case "audio-stop":
			raw := pcmBuf.Bytes()
			if len(raw)%2 != 0 {
				raw = raw[:len(raw)-1]
			}
			samples := make([]float32, len(raw)/2)
			for i := range samples {
				samples[i] = float32(int16(binary.LittleEndian.Uint16(raw[i*2:]))) / 32768
			}
			if streamRate != e.rate {
				samples = audio.Resample(samples, streamRate, e.rate)
			}
			e.logger.Debug("synthesis complete",
				slog.Int("samples", len(samples)),
				slog.Int("stream_rate", streamRate))
			return audio.PCM{Samples: samples, SampleRate: e.rate}, nil

		case "error":
			msg := "unknown error"
			if text, ok := evt.Data["text"].(string); ok {
				msg = text
			}
			return audio.PCM{}, fmt.Errorf("engine error: %s", msg)

		default:
			e.logger.Debug("unknown engine event", slog.String("type", evt.Type))
		}
	}
}

func (e *wyomingEngine) SampleRate() int { return e.rate }

// Close is a no-op — connections are per-call.
func (e *wyomingEngine) Close() error { return nil }

// --- Wyoming protocol helpers ---

type wyomingEvent struct {
	Type          string         `json:"type"`
	Data          map[string]any `json:"data,omitempty"`
	PayloadLength int            `json:"payload_length,omitempty"`
}

func writeEvent(w io.Writer, evt wyomingEvent, payload []byte) error {
	evt.PayloadLength = 0 // length goes in the header line, not the JSON
	jsonBytes, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}

	header := fmt.Sprintf("%d %d\n", len(jsonBytes), len(payload))
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	if _, err := w.Write(jsonBytes); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := w.Write(payload); err != nil {
			return err
		}
	}
	return nil
}

func readEvent(r io.Reader) (*wyomingEvent, []byte, error) {
	headerBuf := make([]byte, 0, 64)
	oneByte := make([]byte, 1)
	for {
		if _, err := io.ReadFull(r, oneByte); err != nil {
			return nil, nil, fmt.Errorf("reading header: %w", err)
		}
		if oneByte[0] == '\n' {
			break
		}
		headerBuf = append(headerBuf, oneByte[0])
	}

	parts := strings.SplitN(string(headerBuf), " ", 2)
	if len(parts) != 2 {
		return nil, nil, fmt.Errorf("invalid wyoming header: %q", string(headerBuf))
	}
	jsonLen, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, nil, fmt.Errorf("parsing json_length: %w", err)
	}
	payloadLen, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, nil, fmt.Errorf("parsing payload_length: %w", err)
	}

	jsonBuf := make([]byte, jsonLen+1) // +1 for the trailing \n
	if _, err := io.ReadFull(r, jsonBuf); err != nil {
		return nil, nil, fmt.Errorf("reading json: %w", err)
	}
	jsonBuf = jsonBuf[:jsonLen]

	var evt wyomingEvent
	if err := json.Unmarshal(jsonBuf, &evt); err != nil {
		return nil, nil, fmt.Errorf("unmarshalling event: %w", err)
	}

	var payload []byte
	if payloadLen > 0 {
		payload = make([]byte, payloadLen)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, nil, fmt.Errorf("reading payload: %w", err)
		}
	}
	return &evt, payload, nil
}
