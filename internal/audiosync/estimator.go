package audiosync

import (
	"math"

	"captionsync/internal/transcript"
)

// Method names reported in SyncCorrection.
const (
	MethodOnset            = "onset_alignment"
	MethodCrossCorrelation = "energy_cross_correlation"
	MethodRhythm           = "rhythm_correlation"
	MethodHeuristic        = "heuristic"
	MethodNone             = "none"
)

// Estimate is one estimator's offset guess.
type Estimate struct {
	Offset     float64
	Confidence float64
}

// Estimator proposes the offset that, added to transcript times, aligns them
// with the audio.
type Estimator interface {
	Name() string
	Estimate(profile *EnergyProfile, timeline []transcript.Token) Estimate
}

// DefaultEstimators returns the chain in decreasing order of precision.
func DefaultEstimators(opts Options) []Estimator {
	opts = opts.withDefaults()
	return []Estimator{
		OnsetEstimator{MaxOffset: opts.MaxOffset, Step: opts.OnsetStep, Tolerance: opts.OnsetTolerance, MinSeparation: opts.OnsetMinSeparation},
		CrossCorrelationEstimator{MaxOffset: opts.MaxOffset, Resolution: opts.CorrelationResolution},
		RhythmEstimator{Range: opts.RhythmRange, Step: opts.RhythmStep, MinSeparation: opts.OnsetMinSeparation},
		HeuristicEstimator{},
	}
}

// OnsetEstimator aligns segment starts with detected energy onsets.
type OnsetEstimator struct {
	MaxOffset     float64
	Step          float64
	Tolerance     float64
	MinSeparation int
}

// Name implements Estimator.
func (OnsetEstimator) Name() string { return MethodOnset }

// Estimate scores each candidate offset in [-MaxOffset, MaxOffset] by the
// mean over segment starts of max(0, 1 - d/Tolerance), where d is the
// distance from the shifted start to the nearest onset.
func (e OnsetEstimator) Estimate(profile *EnergyProfile, timeline []transcript.Token) Estimate {
	if profile.Empty() || len(timeline) < 2 || len(profile.SpeechRegions()) == 0 {
		return Estimate{}
	}
	onsets := profile.Onsets(e.MinSeparation)
	if len(onsets) < 2 {
		return Estimate{}
	}
	starts := segmentStarts(timeline)
	steps := int(math.Round(2 * e.MaxOffset / e.Step))
	var best Estimate
	for k := 0; k <= steps; k++ {
		offset := -e.MaxOffset + float64(k)*e.Step
		score := onsetScore(onsets, starts, offset, e.Tolerance)
		if score > best.Confidence {
			best = Estimate{Offset: offset, Confidence: score}
		}
	}
	best.Confidence = clampUnit(best.Confidence)
	return best
}

func onsetScore(onsets, starts []float64, offset, tolerance float64) float64 {
	var total float64
	for _, s := range starts {
		d := nearestDistance(onsets, s+offset)
		if d <= tolerance {
			total += 1 - d/tolerance
		}
	}
	return total / float64(len(starts))
}

// nearestDistance expects sorted values.
func nearestDistance(sorted []float64, t float64) float64 {
	lo, hi := 0, len(sorted)
	for lo < hi {
		mid := (lo + hi) / 2
		if sorted[mid] < t {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	best := math.Inf(1)
	if lo < len(sorted) {
		best = sorted[lo] - t
	}
	if lo > 0 {
		best = min(best, t-sorted[lo-1])
	}
	return best
}

// CrossCorrelationEstimator correlates a binary speech indicator built from
// the transcript with the normalized energy profile.
type CrossCorrelationEstimator struct {
	MaxOffset  float64
	Resolution float64
}

// Name implements Estimator.
func (CrossCorrelationEstimator) Name() string { return MethodCrossCorrelation }

// Estimate returns the lag of maximum correlation and the cosine-normalized
// peak as confidence.
func (e CrossCorrelationEstimator) Estimate(profile *EnergyProfile, timeline []transcript.Token) Estimate {
	if profile.Empty() || len(timeline) == 0 {
		return Estimate{}
	}
	_, last := transcript.Span(timeline)
	end := max(last+2, profile.Duration())
	energy := profile.Resample(e.Resolution, end)
	indicator := make([]float64, len(energy))
	for _, tok := range timeline {
		lo := max(0, binIndex(tok.Start, e.Resolution))
		hi := min(len(indicator), binIndex(tok.End, e.Resolution))
		for i := lo; i < hi; i++ {
			indicator[i] = 1
		}
	}

	var energyNorm, indicatorNorm float64
	for i := range energy {
		energyNorm += energy[i] * energy[i]
		indicatorNorm += indicator[i] * indicator[i]
	}
	if energyNorm == 0 || indicatorNorm == 0 {
		return Estimate{}
	}

	maxLag := int(math.Round(e.MaxOffset / e.Resolution))
	bestLag, bestCorr := 0, math.Inf(-1)
	for lag := -maxLag; lag <= maxLag; lag++ {
		var c float64
		for t := range energy {
			j := t - lag
			if j < 0 || j >= len(indicator) {
				continue
			}
			c += energy[t] * indicator[j]
		}
		if c > bestCorr {
			bestLag, bestCorr = lag, c
		}
	}
	return Estimate{
		Offset:     clampOffset(float64(bestLag)*e.Resolution, e.MaxOffset),
		Confidence: clampUnit(bestCorr / math.Sqrt(energyNorm*indicatorNorm)),
	}
}

// RhythmEstimator correlates onset and segment-start histograms.
type RhythmEstimator struct {
	Range         float64
	Step          float64
	MinSeparation int
}

// Name implements Estimator.
func (RhythmEstimator) Name() string { return MethodRhythm }

const rhythmBin = 0.1

// Estimate sweeps offsets over [-Range, Range) and reports the best positive
// Pearson correlation.
func (e RhythmEstimator) Estimate(profile *EnergyProfile, timeline []transcript.Token) Estimate {
	if profile.Empty() || len(timeline) < 2 {
		return Estimate{}
	}
	beats := profile.Onsets(e.MinSeparation)
	if len(beats) == 0 {
		return Estimate{}
	}
	starts := segmentStarts(timeline)
	steps := int(math.Round(2 * e.Range / e.Step))
	var best Estimate
	for k := 0; k < steps; k++ {
		offset := -e.Range + float64(k)*e.Step
		shifted := make([]float64, len(starts))
		for i, s := range starts {
			shifted[i] = s + offset
		}
		horizon := max(beats[len(beats)-1], maxOf(shifted)) + 1
		r := pearson(histogram(beats, horizon), histogram(shifted, horizon))
		if r > best.Confidence {
			best = Estimate{Offset: offset, Confidence: r}
		}
	}
	best.Confidence = clampUnit(best.Confidence)
	return best
}

func histogram(times []float64, horizon float64) []float64 {
	n := int(math.Ceil(horizon / rhythmBin))
	h := make([]float64, max(n, 1))
	for _, t := range times {
		if t < 0 {
			continue
		}
		if i := binIndex(t, rhythmBin); i < len(h) {
			h[i]++
		}
	}
	return h
}

func pearson(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	ma, sa := meanStd(a)
	mb, sb := meanStd(b)
	if sa == 0 || sb == 0 {
		return 0
	}
	var cov float64
	for i := range a {
		cov += (a[i] - ma) * (b[i] - mb)
	}
	cov /= float64(len(a))
	r := cov / (sa * sb)
	if math.IsNaN(r) {
		return 0
	}
	return r
}

// HeuristicEstimator assumes a small forward offset when speech starts at
// the very beginning of the timeline.
type HeuristicEstimator struct{}

// Name implements Estimator.
func (HeuristicEstimator) Name() string { return MethodHeuristic }

// Estimate implements Estimator.
func (HeuristicEstimator) Estimate(_ *EnergyProfile, timeline []transcript.Token) Estimate {
	if len(timeline) == 0 {
		return Estimate{}
	}
	if timeline[0].Start < 0.5 {
		return Estimate{Offset: 0.3, Confidence: 0.4}
	}
	return Estimate{Offset: 0, Confidence: 0.5}
}

// binIndex floors t/width, tolerating float error just below a boundary.
func binIndex(t, width float64) int {
	return int(math.Floor(t/width + 1e-6))
}

func segmentStarts(timeline []transcript.Token) []float64 {
	starts := make([]float64, len(timeline))
	for i, tok := range timeline {
		starts[i] = tok.Start
	}
	return starts
}

func maxOf(values []float64) float64 {
	m := math.Inf(-1)
	for _, v := range values {
		m = max(m, v)
	}
	return m
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return min(v, 1)
}

func clampOffset(v, limit float64) float64 {
	return max(-limit, min(limit, v))
}
