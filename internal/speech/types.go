// Package speech defines the core data types flowing through the tonegate
// synthesis pipeline.
package speech

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// LanguageCode is an ISO-639-1 code from the closed set supported by the
// underlying pronunciation models.
type LanguageCode string

// VoiceID is an internal voice style identifier understood by the
// inference engine (e.g., "M1", "F3").
type VoiceID string

// AudioFormat is a client-facing output container/codec name.
type AudioFormat string

const (
	FormatMP3  AudioFormat = "mp3"
	FormatOpus AudioFormat = "opus"
	FormatAAC  AudioFormat = "aac"
	FormatFLAC AudioFormat = "flac"
	FormatWAV  AudioFormat = "wav"
	FormatPCM  AudioFormat = "pcm"
)

// Formats lists every supported output format.
var Formats = []AudioFormat{FormatMP3, FormatOpus, FormatAAC, FormatFLAC, FormatWAV, FormatPCM}

// ContentType returns the MIME type served for this format.
func (f AudioFormat) ContentType() string {
	switch f {
	case FormatMP3:
		return "audio/mpeg"
	case FormatOpus:
		return "audio/opus"
	case FormatAAC:
		return "audio/aac"
	case FormatFLAC:
		return "audio/flac"
	case FormatWAV:
		return "audio/wav"
	case FormatPCM:
		return "audio/pcm"
	default:
		return "application/octet-stream"
	}
}

// Valid reports whether f is a supported output format.
func (f AudioFormat) Valid() bool {
	for _, known := range Formats {
		if f == known {
			return true
		}
	}
	return false
}

// Model names accepted in the request body. The field is informational and
// does not change behavior; anything else is logged and served with the
// default model.
const (
	DefaultModel = "supertonic-2"
	CompatModel  = "tts-1"
)

// KnownModel reports whether name is one of the advertised model names.
func KnownModel(name string) bool {
	return name == "" || name == DefaultModel || name == CompatModel
}

// Defaults applied by the normalizer when optional fields are absent.
const (
	DefaultSpeed  = 1.0
	DefaultSteps  = 5
	DefaultLang   = LanguageCode("en")
	DefaultFormat = FormatMP3

	MinSpeed = 0.25
	MaxSpeed = 4.0
	MinSteps = 1
	MaxSteps = 10
)

// RawRequest mirrors the JSON body of POST /v1/audio/speech.
// Speed and TotalStep are pointers so an absent field can be defaulted
// while an explicit out-of-range zero is still rejected.
type RawRequest struct {
	Model          string   `json:"model,omitempty"`
	Input          string   `json:"input"`
	Voice          string   `json:"voice"`
	ResponseFormat string   `json:"response_format,omitempty"`
	Speed          *float64 `json:"speed,omitempty"`
	TotalStep      *int     `json:"total_step,omitempty"`
	Lang           string   `json:"lang,omitempty"`
}

// Segment is one delimiter-separated unit of input text, synthesized
// independently and concatenated in order.
type Segment struct {
	Text string
	Lang LanguageCode
}

// Request is the canonical, validated form of a synthesis request.
// Immutable once constructed by Normalize.
type Request struct {
	Segments []Segment
	Voice    VoiceID
	Speed    float64
	Steps    int
	Format   AudioFormat
}

// Fingerprint returns a deterministic hash over every field that affects
// the output audio, including segment order and text. It is the cache key:
// two semantically identical requests always produce the same fingerprint
// regardless of when or where they are served.
func (r *Request) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "v1|%s|%.2f|%d|%s", r.Voice, r.Speed, r.Steps, r.Format)
	for _, seg := range r.Segments {
		fmt.Fprintf(h, "|%s\x1f%s", seg.Lang, seg.Text)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Resolver maps client-facing voice and language names to internal
// identifiers. Implemented by the voice registry; declared here so the
// normalizer does not depend on the registry package.
type Resolver interface {
	// Resolve maps a client voice name to an internal style. It never
	// fails: unknown names fall back to the nearest match or the default.
	Resolve(name string) VoiceID

	// Language validates a language code against the closed supported set.
	Language(code string) (LanguageCode, error)
}
