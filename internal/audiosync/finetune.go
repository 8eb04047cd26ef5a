package audiosync

import (
	"fmt"
	"math"

	"captionsync/internal/transcript"
)

const (
	fineTuneStartWindow = 0.5
	fineTuneEndWindow   = 0.3
	fineTuneMinDuration = 0.5
)

// FineTune snaps each start to the loudest frame within ±0.5s and each end
// to the quietest frame within ±0.3s. An end that lands at or before its
// start is set to start+0.5s. An empty profile leaves timing unchanged.
func FineTune(utterances []transcript.Token, profile *EnergyProfile) []transcript.Token {
	out := transcript.Clone(utterances)
	if profile.Empty() {
		return out
	}
	for i := range out {
		if idx, ok := extremeFrame(profile, out[i].Start, fineTuneStartWindow, true); ok {
			out[i].Start = profile.FrameTime(idx)
		}
		if idx, ok := extremeFrame(profile, out[i].End, fineTuneEndWindow, false); ok {
			out[i].End = profile.FrameTime(idx)
		}
		if out[i].End <= out[i].Start {
			out[i].End = out[i].Start + fineTuneMinDuration
		}
	}
	return out
}

func extremeFrame(profile *EnergyProfile, center, window float64, loudest bool) (int, bool) {
	lo := max(0, int(math.Ceil((center-window)/profile.Hop)))
	hi := min(len(profile.Values)-1, int((center+window)/profile.Hop))
	if lo > hi {
		return 0, false
	}
	best := lo
	for i := lo + 1; i <= hi; i++ {
		if loudest && profile.Values[i] > profile.Values[best] {
			best = i
		}
		if !loudest && profile.Values[i] < profile.Values[best] {
			best = i
		}
	}
	return best, true
}

// Sync quality labels.
const (
	SyncExcellent  = "excellent"
	SyncGood       = "good"
	SyncAcceptable = "acceptable"
	SyncPoor       = "poor"
	SyncUnknown    = "unknown"
)

// SyncQuality summarizes how well utterances cover detected speech.
type SyncQuality struct {
	Quality        string   `json:"sync_quality" yaml:"sync_quality"`
	Coverage       float64  `json:"coverage" yaml:"coverage"`
	TimingAccuracy float64  `json:"timing_accuracy" yaml:"timing_accuracy"`
	Issues         []string `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// ValidateSyncQuality measures the share of utterance time that overlaps
// detected speech regions and the share of utterances at least half covered.
// Both must reach 0.8, 0.6, or 0.4 for excellent, good, or acceptable.
func ValidateSyncQuality(utterances []transcript.Token, profile *EnergyProfile) SyncQuality {
	regions := profile.SpeechRegions()
	if len(regions) == 0 || len(utterances) == 0 {
		return SyncQuality{Quality: SyncUnknown, Issues: []string{"no speech regions or utterances to compare"}}
	}
	var covered, total float64
	var issues []string
	for _, u := range utterances {
		d := u.Duration()
		total += d
		var c float64
		for _, r := range regions {
			if lo, hi := max(u.Start, r[0]), min(u.End, r[1]); lo < hi {
				c += hi - lo
			}
		}
		covered += c
		if d <= 0 || c/d < 0.5 {
			ratio := 0.0
			if d > 0 {
				ratio = c / d
			}
			issues = append(issues, fmt.Sprintf("utterance %.1f-%.1fs: low speech coverage (%.0f%%)", u.Start, u.End, ratio*100))
		}
	}
	q := SyncQuality{Issues: issues}
	if total > 0 {
		q.Coverage = covered / total
	}
	q.TimingAccuracy = 1 - float64(len(issues))/float64(len(utterances))
	switch {
	case q.Coverage >= 0.8 && q.TimingAccuracy >= 0.8:
		q.Quality = SyncExcellent
	case q.Coverage >= 0.6 && q.TimingAccuracy >= 0.6:
		q.Quality = SyncGood
	case q.Coverage >= 0.4 && q.TimingAccuracy >= 0.4:
		q.Quality = SyncAcceptable
	default:
		q.Quality = SyncPoor
	}
	return q
}
