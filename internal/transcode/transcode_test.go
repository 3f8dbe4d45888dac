package transcode

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/tonegate/tonegate/internal/audio"
	"github.com/tonegate/tonegate/internal/speech"
)

func testEncoder(path string) *Encoder {
	return New(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestEncodePCM(t *testing.T) {
	e := testEncoder("")
	pcm := audio.PCM{Samples: []float32{0, 0.5, -0.5}, SampleRate: 44100}

	out, err := e.Encode(context.Background(), pcm, speech.FormatPCM)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(out) != 6 {
		t.Fatalf("got %d bytes, want 6", len(out))
	}
	if v := int16(binary.LittleEndian.Uint16(out[0:])); v != 0 {
		t.Errorf("first sample = %d, want 0", v)
	}
}

func TestEncodeWAV(t *testing.T) {
	e := testEncoder("")
	pcm := audio.PCM{Samples: make([]float32, 50), SampleRate: 22050}

	out, err := e.Encode(context.Background(), pcm, speech.FormatWAV)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(out) != 44+100 {
		t.Fatalf("got %d bytes, want 144", len(out))
	}
	if string(out[0:4]) != "RIFF" {
		t.Error("missing RIFF header")
	}
	if got := binary.LittleEndian.Uint32(out[24:]); got != 22050 {
		t.Errorf("sample rate in header = %d, want 22050", got)
	}
}

func TestEncodeMissingTranscoder(t *testing.T) {
	e := testEncoder("/nonexistent/ffmpeg")
	pcm := audio.PCM{Samples: make([]float32, 10), SampleRate: 44100}

	_, err := e.Encode(context.Background(), pcm, speech.FormatMP3)
	var eerr *speech.EncodingError
	if !errors.As(err, &eerr) {
		t.Fatalf("err = %v, want EncodingError", err)
	}
	if eerr.Format != speech.FormatMP3 {
		t.Errorf("format = %s, want mp3", eerr.Format)
	}
}

func TestEncodeUnknownFormat(t *testing.T) {
	e := testEncoder("")
	pcm := audio.PCM{Samples: make([]float32, 10), SampleRate: 44100}

	_, err := e.Encode(context.Background(), pcm, speech.AudioFormat("ogg"))
	var eerr *speech.EncodingError
	if !errors.As(err, &eerr) {
		t.Fatalf("err = %v, want EncodingError", err)
	}
}
