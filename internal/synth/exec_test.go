package synth

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"runtime"
	"strings"
	"testing"
)

func TestNewExecEngineParsesCommand(t *testing.T) {
	if _, err := NewExecEngine("", 44100); err == nil {
		t.Error("empty command accepted")
	}
	if _, err := NewExecEngine(`python3 "unterminated`, 44100); err == nil {
		t.Error("unparseable command accepted")
	}
	if _, err := NewExecEngine(`python3 infer.py --model "assets/model.onnx"`, 44100); err != nil {
		t.Errorf("valid command rejected: %v", err)
	}
}

func TestExecEngineRoundtrip(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test sidecar uses sh")
	}

	samples := []int16{0, 1000, -1000, 32767}
	raw := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(raw[i*2:], uint16(s))
	}
	encoded := base64.StdEncoding.EncodeToString(raw)

	// A sidecar that ignores stdin and emits a fixed response.
	command := fmt.Sprintf(`sh -c 'cat > /dev/null; echo "{\"pcm_base64\":\"%s\"}"'`, encoded)
	engine, err := NewExecEngine(command, 44100)
	if err != nil {
		t.Fatalf("NewExecEngine: %v", err)
	}

	pcm, err := engine.Synthesize(context.Background(), Job{Text: "hi", Voice: "M1", Lang: "en", Steps: 5})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if pcm.SampleRate != 44100 {
		t.Errorf("rate = %d, want engine native 44100", pcm.SampleRate)
	}
	if len(pcm.Samples) != len(samples) {
		t.Fatalf("got %d samples, want %d", len(pcm.Samples), len(samples))
	}
	if pcm.Samples[0] != 0 {
		t.Errorf("sample 0 = %v", pcm.Samples[0])
	}
	if pcm.Samples[3] < 0.99 {
		t.Errorf("sample 3 = %v, want ~1", pcm.Samples[3])
	}
}

func TestExecEngineFailureIncludesStderr(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test sidecar uses sh")
	}

	engine, err := NewExecEngine(`sh -c 'echo "model load failed" >&2; exit 3'`, 44100)
	if err != nil {
		t.Fatal(err)
	}

	_, err = engine.Synthesize(context.Background(), Job{Text: "hi", Voice: "M1", Lang: "en", Steps: 5})
	if err == nil {
		t.Fatal("sidecar failure not surfaced")
	}
	if !strings.Contains(err.Error(), "model load failed") {
		t.Errorf("stderr not included in error: %v", err)
	}
}

func TestExecEngineRejectsGarbageOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("test sidecar uses sh")
	}

	engine, err := NewExecEngine(`sh -c 'cat > /dev/null; echo not-json'`, 44100)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Synthesize(context.Background(), Job{Text: "hi", Voice: "M1", Lang: "en", Steps: 5}); err == nil {
		t.Fatal("garbage sidecar output accepted")
	}
}
