package audiosync

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/wav"

	"captionsync/internal/services"
)

// DefaultHop is the energy frame length in seconds.
const DefaultHop = 0.025

// EnergyProfile holds one RMS value per Hop seconds, starting at time zero.
type EnergyProfile struct {
	Hop        float64   `json:"hop"`
	SampleRate int       `json:"sample_rate"`
	Values     []float64 `json:"values"`
}

// Empty reports whether the profile carries no frames.
func (p *EnergyProfile) Empty() bool {
	return p == nil || len(p.Values) == 0 || p.Hop <= 0
}

// Duration returns the covered audio length in seconds.
func (p *EnergyProfile) Duration() float64 {
	if p.Empty() {
		return 0
	}
	return float64(len(p.Values)) * p.Hop
}

// FrameTime returns the start time of frame i.
func (p *EnergyProfile) FrameTime(i int) float64 {
	return float64(i) * p.Hop
}

// At linearly interpolates the energy at time t, clamping outside the profile.
func (p *EnergyProfile) At(t float64) float64 {
	if p.Empty() {
		return 0
	}
	pos := t / p.Hop
	if pos <= 0 {
		return p.Values[0]
	}
	last := len(p.Values) - 1
	if pos >= float64(last) {
		return p.Values[last]
	}
	i := int(pos)
	frac := pos - float64(i)
	return p.Values[i]*(1-frac) + p.Values[i+1]*frac
}

// ComputeProfile computes per-hop RMS over mono samples in [-1, 1].
func ComputeProfile(samples []float64, sampleRate int, hop float64) *EnergyProfile {
	if hop <= 0 {
		hop = DefaultHop
	}
	profile := &EnergyProfile{Hop: hop, SampleRate: sampleRate}
	frame := int(math.Round(hop * float64(sampleRate)))
	if frame <= 0 || len(samples) == 0 {
		return profile
	}
	frames := (len(samples) + frame - 1) / frame
	profile.Values = make([]float64, frames)
	for f := 0; f < frames; f++ {
		lo := f * frame
		hi := min(lo+frame, len(samples))
		var sum float64
		for _, s := range samples[lo:hi] {
			sum += s * s
		}
		profile.Values[f] = math.Sqrt(sum / float64(hi-lo))
	}
	return profile
}

// LoadWAV decodes a PCM WAV file, mixes it down to mono, and computes its
// energy profile.
func LoadWAV(path string, hop float64) (*EnergyProfile, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrMissingInput, "audiosync", "load audio", "audio file not found", err)
		}
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, services.Wrap(services.ErrValidation, "audiosync", "load audio", "not a valid WAV file", errors.New(path))
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read PCM buffer: %w", err)
	}
	if buf == nil || buf.Format == nil || buf.Format.SampleRate <= 0 {
		return nil, services.Wrap(services.ErrValidation, "audiosync", "load audio", "WAV file has no sample format", errors.New(path))
	}

	channels := max(1, buf.Format.NumChannels)
	depth := buf.SourceBitDepth
	if depth <= 0 {
		depth = int(decoder.BitDepth)
	}
	if depth <= 0 {
		depth = 16
	}
	scale := math.Exp2(float64(depth - 1))
	mono := make([]float64, len(buf.Data)/channels)
	for i := range mono {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		mono[i] = sum / float64(channels) / scale
	}
	return ComputeProfile(mono, buf.Format.SampleRate, hop), nil
}

// Onsets returns the times of rising-energy peaks: local maxima of the
// positive first difference above mean+1.5·stddev, at least minSeparation
// frames apart. A peak in diff[i] marks the rise into frame i+1.
func (p *EnergyProfile) Onsets(minSeparation int) []float64 {
	if p.Empty() || len(p.Values) < 3 {
		return nil
	}
	diff := make([]float64, len(p.Values)-1)
	for i := range diff {
		diff[i] = max(0, p.Values[i+1]-p.Values[i])
	}
	mean, std := meanStd(diff)
	threshold := mean + 1.5*std
	if threshold <= 0 {
		return nil
	}

	var peaks []int
	for i, v := range diff {
		if v < threshold {
			continue
		}
		if i > 0 && diff[i-1] >= v {
			continue
		}
		if i+1 < len(diff) && diff[i+1] > v {
			continue
		}
		if n := len(peaks); n > 0 && i-peaks[n-1] < minSeparation {
			if v > diff[peaks[n-1]] {
				peaks[n-1] = i
			}
			continue
		}
		peaks = append(peaks, i)
	}

	out := make([]float64, len(peaks))
	for k, i := range peaks {
		out[k] = p.FrameTime(i + 1)
	}
	return out
}

// SpeechRegions returns contiguous spans whose energy exceeds
// mean+0.5·stddev. Spans shorter than 300ms are dropped except a span that
// runs to the end of the profile.
func (p *EnergyProfile) SpeechRegions() [][2]float64 {
	if p.Empty() {
		return nil
	}
	mean, std := meanStd(p.Values)
	threshold := mean + 0.5*std
	var regions [][2]float64
	inSpeech := false
	var start float64
	for i, v := range p.Values {
		t := p.FrameTime(i)
		switch {
		case v > threshold && !inSpeech:
			start = t
			inSpeech = true
		case v <= threshold && inSpeech:
			if t-start > 0.3 {
				regions = append(regions, [2]float64{start, t})
			}
			inSpeech = false
		}
	}
	if inSpeech {
		regions = append(regions, [2]float64{start, p.Duration()})
	}
	return regions
}

// Resample returns the profile sampled every resolution seconds over
// [0, end), min-max normalized into [0, 1].
func (p *EnergyProfile) Resample(resolution, end float64) []float64 {
	if p.Empty() || resolution <= 0 || end <= 0 {
		return nil
	}
	n := int(math.Ceil(end / resolution))
	out := make([]float64, n)
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range out {
		v := p.At(float64(i) * resolution)
		out[i] = v
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo
	for i := range out {
		if span > 0 {
			out[i] = (out[i] - lo) / span
		} else {
			out[i] = 0
		}
	}
	return out
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}
