package testsupport

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Burst is a span of synthetic speech in seconds.
type Burst struct {
	Start float64
	End   float64
}

// BurstSamples renders a mono signal of the given duration: a 220Hz tone at
// amplitude 0.8 inside bursts and near-silence elsewhere.
func BurstSamples(bursts []Burst, duration float64, sampleRate int) []float64 {
	n := int(duration * float64(sampleRate))
	samples := make([]float64, n)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		amp := 0.01
		for _, b := range bursts {
			if t >= b.Start && t < b.End {
				amp = 0.8
				break
			}
		}
		samples[i] = amp * math.Sin(2*math.Pi*220*t)
	}
	return samples
}

// BurstEnergy returns per-hop energy values: 1 inside bursts, 0.05 elsewhere.
func BurstEnergy(bursts []Burst, duration, hop float64) []float64 {
	n := int(math.Round(duration / hop))
	values := make([]float64, n)
	for i := range values {
		t := float64(i) * hop
		values[i] = 0.05
		for _, b := range bursts {
			if t >= b.Start-1e-9 && t < b.End-1e-9 {
				values[i] = 1
				break
			}
		}
	}
	return values
}

// WriteWAV encodes mono 16-bit PCM samples in [-1, 1] to path.
func WriteWAV(t testing.TB, path string, samples []float64, sampleRate int) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	data := make([]int, len(samples))
	for i, s := range samples {
		s = max(-1, min(1, s))
		data[i] = int(math.Round(s * 32767))
	}
	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("finalize %s: %v", path, err)
	}
	return path
}
