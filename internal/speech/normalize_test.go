package speech

import (
	"errors"
	"strings"
	"testing"
)

// stubResolver mimics the voice registry: never fails voice resolution,
// validates languages against a fixed set.
type stubResolver struct{}

func (stubResolver) Resolve(name string) VoiceID {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "m1":
		return "M1"
	case "sarah":
		return "F1"
	default:
		return "F1"
	}
}

func (stubResolver) Language(code string) (LanguageCode, error) {
	switch code {
	case "en", "ko", "es", "pt", "fr":
		return LanguageCode(code), nil
	}
	return "", &ValidationError{Field: "lang", Reason: "unsupported language " + code}
}

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func TestNormalizeDefaults(t *testing.T) {
	req, err := Normalize(RawRequest{Input: "Hello world", Voice: "sarah"}, stubResolver{})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if req.Speed != DefaultSpeed {
		t.Errorf("speed = %v, want %v", req.Speed, DefaultSpeed)
	}
	if req.Steps != DefaultSteps {
		t.Errorf("steps = %d, want %d", req.Steps, DefaultSteps)
	}
	if req.Format != FormatMP3 {
		t.Errorf("format = %s, want mp3", req.Format)
	}
	if len(req.Segments) != 1 || req.Segments[0].Lang != "en" {
		t.Errorf("segments = %+v, want one english segment", req.Segments)
	}
	if req.Voice != "F1" {
		t.Errorf("voice = %s, want F1", req.Voice)
	}
}

func TestNormalizeMultiLanguage(t *testing.T) {
	raw := RawRequest{Input: "Hello | Bonjour", Voice: "M1", Lang: "en,fr"}
	req, err := Normalize(raw, stubResolver{})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(req.Segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(req.Segments))
	}
	if req.Segments[0].Text != "Hello" || req.Segments[0].Lang != "en" {
		t.Errorf("segment 0 = %+v", req.Segments[0])
	}
	if req.Segments[1].Text != "Bonjour" || req.Segments[1].Lang != "fr" {
		t.Errorf("segment 1 = %+v", req.Segments[1])
	}
}

func TestNormalizeLastLanguageRepeats(t *testing.T) {
	raw := RawRequest{Input: "A|B|C", Voice: "M1", Lang: "en"}
	req, err := Normalize(raw, stubResolver{})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	for i, seg := range req.Segments {
		if seg.Lang != "en" {
			t.Errorf("segment %d lang = %s, want en", i, seg.Lang)
		}
	}
}

func TestNormalizeRejections(t *testing.T) {
	cases := []struct {
		name  string
		raw   RawRequest
		field string
	}{
		{"empty input", RawRequest{Input: "   ", Voice: "M1"}, "input"},
		{"delimiter only", RawRequest{Input: " | | ", Voice: "M1"}, "input"},
		{"missing voice", RawRequest{Input: "hi"}, "voice"},
		{"speed too low", RawRequest{Input: "hi", Voice: "M1", Speed: floatPtr(0.1)}, "speed"},
		{"speed too high", RawRequest{Input: "hi", Voice: "M1", Speed: floatPtr(5)}, "speed"},
		{"zero steps", RawRequest{Input: "hi", Voice: "M1", TotalStep: intPtr(0)}, "total_step"},
		{"too many steps", RawRequest{Input: "hi", Voice: "M1", TotalStep: intPtr(11)}, "total_step"},
		{"unknown format", RawRequest{Input: "hi", Voice: "M1", ResponseFormat: "ogg"}, "response_format"},
		{"unknown language", RawRequest{Input: "hi", Voice: "M1", Lang: "de"}, "lang"},
		{"more langs than segments", RawRequest{Input: "hi", Voice: "M1", Lang: "en,fr"}, "lang"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(tc.raw, stubResolver{})
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if verr.Field != tc.field {
				t.Errorf("field = %s, want %s", verr.Field, tc.field)
			}
		})
	}
}

func TestNormalizeBoundaryValues(t *testing.T) {
	raw := RawRequest{
		Input: "hi", Voice: "M1",
		Speed:     floatPtr(MaxSpeed),
		TotalStep: intPtr(MaxSteps),
	}
	if _, err := Normalize(raw, stubResolver{}); err != nil {
		t.Errorf("max boundary rejected: %v", err)
	}
	raw.Speed = floatPtr(MinSpeed)
	raw.TotalStep = intPtr(MinSteps)
	if _, err := Normalize(raw, stubResolver{}); err != nil {
		t.Errorf("min boundary rejected: %v", err)
	}
}

func TestFingerprintStability(t *testing.T) {
	base := RawRequest{Input: "Hello | world", Voice: "M1", Lang: "en,fr"}
	a, err := Normalize(base, stubResolver{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Normalize(base, stubResolver{})
	if err != nil {
		t.Fatal(err)
	}
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("identical requests produced different fingerprints")
	}

	variants := []RawRequest{
		{Input: "Hello | world!", Voice: "M1", Lang: "en,fr"},
		{Input: "Hello | world", Voice: "M2", Lang: "en,fr"},
		{Input: "Hello | world", Voice: "M1", Lang: "en,es"},
		{Input: "Hello | world", Voice: "M1", Lang: "en,fr", Speed: floatPtr(1.5)},
		{Input: "Hello | world", Voice: "M1", Lang: "en,fr", TotalStep: intPtr(7)},
		{Input: "Hello | world", Voice: "M1", Lang: "en,fr", ResponseFormat: "wav"},
	}
	for i, raw := range variants {
		req, err := Normalize(raw, stubResolver{})
		if err != nil {
			t.Fatalf("variant %d: %v", i, err)
		}
		if req.Fingerprint() == a.Fingerprint() {
			t.Errorf("variant %d collided with base fingerprint", i)
		}
	}
}

func TestKnownModel(t *testing.T) {
	for _, name := range []string{"", DefaultModel, CompatModel} {
		if !KnownModel(name) {
			t.Errorf("KnownModel(%q) = false", name)
		}
	}
	if KnownModel("gpt-4o-mini-tts") {
		t.Error("unexpected model accepted as known")
	}
}
