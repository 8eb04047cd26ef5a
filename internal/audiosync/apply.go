package audiosync

import (
	"math"

	"captionsync/internal/transcript"
)

// ApplyResult reports what Apply did.
type ApplyResult struct {
	// AppliedOffset is the base offset after confidence damping.
	AppliedOffset float64
	Damped        bool
	Skipped       bool
	Adjusted      int
	Halved        int
	// Unadjusted lists utterances whose shift failed validation twice and
	// kept their original timing.
	Unadjusted    []int
	OverlapsFixed int
}

// Apply shifts each utterance by an adaptive share of the correction.
//
// Corrections below MinConfidence are discarded; below MainThreshold the
// offset is multiplied by the confidence. Each utterance's offset is scaled
// by EdgeFactor (first and last), ShortFactor (< 1s) or LongFactor (> 5s), and
// by its own confidence when that is below ConfidenceFloor. A shift that
// fails validation is retried at half strength; if that fails too the
// utterance keeps its timing and is reported in Unadjusted. Overlaps
// introduced by shifting are then resolved.
func Apply(utterances []transcript.Token, correction SyncCorrection, opts Options) ([]transcript.Token, ApplyResult) {
	opts = opts.withDefaults()
	out := transcript.Clone(utterances)
	var res ApplyResult

	if correction.Confidence < opts.MinConfidence || correction.OffsetSeconds == 0 || len(out) == 0 {
		res.Skipped = true
		return out, res
	}
	offset := correction.OffsetSeconds
	if correction.Confidence < opts.MainThreshold {
		offset *= correction.Confidence
		res.Damped = true
	}
	res.AppliedOffset = offset

	for i, orig := range utterances {
		adaptive := AdaptiveOffset(orig, offset, i, len(utterances), opts)
		if start, end, ok := shifted(orig, adaptive, opts); ok {
			out[i].Start, out[i].End = start, end
			res.Adjusted++
			continue
		}
		if start, end, ok := shifted(orig, adaptive/2, opts); ok {
			out[i].Start, out[i].End = start, end
			res.Adjusted++
			res.Halved++
			continue
		}
		res.Unadjusted = append(res.Unadjusted, i)
	}

	out, res.OverlapsFixed = FixOverlaps(out, opts.OverlapGap, opts.OverlapMinDuration)
	return out, res
}

// AdaptiveOffset scales base for the utterance at index of total.
func AdaptiveOffset(u transcript.Token, base float64, index, total int, opts Options) float64 {
	offset := base
	if index == 0 || index == total-1 {
		offset *= opts.EdgeFactor
	}
	switch d := u.Duration(); {
	case d < 1:
		offset *= opts.ShortFactor
	case d > 5:
		offset *= opts.LongFactor
	}
	if u.Confidence < opts.ConfidenceFloor {
		offset *= u.Confidence
	}
	return offset
}

// shifted applies offset and validates the result against the original.
func shifted(u transcript.Token, offset float64, opts Options) (float64, float64, bool) {
	start := max(0, u.Start+offset)
	end := max(start+0.1, u.End+offset)
	if end <= start {
		return 0, 0, false
	}
	if orig := u.Duration(); orig > 0 {
		ratio := (end - start) / orig
		if ratio < 1-opts.MaxDurationChange || ratio > 1+opts.MaxDurationChange {
			return 0, 0, false
		}
	}
	if math.Abs(start-u.Start) > opts.MaxShift {
		return 0, 0, false
	}
	return start, end, true
}

// FixOverlaps pushes each overlapping utterance to previous.End+gap and
// keeps at least minDuration.
func FixOverlaps(utterances []transcript.Token, gap, minDuration float64) ([]transcript.Token, int) {
	out := transcript.Clone(utterances)
	fixed := 0
	for i := 1; i < len(out); i++ {
		if out[i].Start >= out[i-1].End {
			continue
		}
		out[i].Start = out[i-1].End + gap
		if out[i].End-out[i].Start < minDuration {
			out[i].End = out[i].Start + minDuration
		}
		fixed++
	}
	return out, fixed
}
