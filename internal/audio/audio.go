// Package audio assembles per-segment PCM buffers into the final waveform
// and handles raw sample conversions.
package audio

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/tonegate/tonegate/internal/speech"
)

// PCM is a mono buffer of float32 samples in [-1, 1].
type PCM struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the playback duration of the buffer.
func (p PCM) Duration() time.Duration {
	if p.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(p.Samples)) / float64(p.SampleRate) * float64(time.Second))
}

// Assemble concatenates segment buffers in order and applies the playback
// speed transform to the whole concatenation. Segment boundaries are hard
// cuts: engine output starts and ends near silence, so no cross-fade is
// needed. The stretch is applied once, after concatenation, so the
// relative timing of segments is independent of how the input was split.
// Buffers whose rate differs from targetRate are resampled first; with a
// fixed-rate engine that path is only taken by sidecar backends that
// advertise a different stream rate.
func Assemble(segments []PCM, speed float64, targetRate int) (PCM, error) {
	if len(segments) == 0 {
		return PCM{}, &speech.AssemblyError{Reason: "no segment audio to assemble"}
	}

	total := 0
	for _, seg := range segments {
		total += len(seg.Samples)
	}
	samples := make([]float32, 0, total)
	for _, seg := range segments {
		if seg.SampleRate != targetRate && seg.SampleRate > 0 {
			samples = append(samples, Resample(seg.Samples, seg.SampleRate, targetRate)...)
		} else {
			samples = append(samples, seg.Samples...)
		}
	}

	if speed != 1.0 {
		samples = stretch(samples, speed)
	}

	return PCM{Samples: samples, SampleRate: targetRate}, nil
}

// stretch time-scales samples by the playback speed using linear
// interpolation: speed 2.0 halves the duration. Pitch shifts with speed,
// matching resampling-based time-stretch semantics.
func stretch(samples []float32, speed float64) []float32 {
	if len(samples) == 0 {
		return samples
	}
	n := int(float64(len(samples)) / speed)
	if n < 1 {
		n = 1
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = lerp(samples, float64(i)*speed)
	}
	return out
}

// Resample converts samples between rates using linear interpolation.
func Resample(samples []float32, fromRate, toRate int) []float32 {
	if fromRate == toRate || len(samples) == 0 {
		return samples
	}
	ratio := float64(toRate) / float64(fromRate)
	n := int(float64(len(samples)) * ratio)
	if n < 1 {
		n = 1
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = lerp(samples, float64(i)/ratio)
	}
	return out
}

// lerp reads the buffer at a fractional position, interpolating between
// the two neighboring samples.
func lerp(samples []float32, pos float64) float32 {
	i0 := int(pos)
	if i0 >= len(samples)-1 {
		return samples[len(samples)-1]
	}
	frac := float32(pos - float64(i0))
	return samples[i0]*(1-frac) + samples[i0+1]*frac
}

// ToS16LE converts float32 samples to 16-bit little-endian PCM, clamping
// to [-1, 1].
func ToS16LE(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(s * 32767)
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

// WAV wraps raw 16-bit PCM data in a RIFF/WAVE container.
func WAV(pcm []byte, sampleRate, channels int) []byte {
	const bytesPerSample = 2
	dataLen := len(pcm)

	buf := &bytes.Buffer{}
	buf.Grow(44 + dataLen)

	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))         // subchunk1 size
	_ = binary.Write(buf, binary.LittleEndian, uint16(1))          // PCM
	_ = binary.Write(buf, binary.LittleEndian, uint16(channels))   // channels
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate)) // sample rate
	byteRate := sampleRate * channels * bytesPerSample
	_ = binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	blockAlign := channels * bytesPerSample
	_ = binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(buf, binary.LittleEndian, uint16(bytesPerSample*8))

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(dataLen))
	buf.Write(pcm)

	return buf.Bytes()
}
