package quality

import (
	"slices"

	"captionsync/internal/transcript"
)

// DefaultTranslationEstimate is used when no translation was produced.
const DefaultTranslationEstimate = 0.8

// ConfidenceMetrics holds per-stage and combined confidence.
type ConfidenceMetrics struct {
	Transcription float64 `json:"transcription_confidence" yaml:"transcription_confidence"`
	Translation   float64 `json:"translation_confidence" yaml:"translation_confidence"`
	Timing        float64 `json:"timing_confidence" yaml:"timing_confidence"`
	Overall       float64 `json:"overall_confidence" yaml:"overall_confidence"`
	Label         Label   `json:"quality_flag" yaml:"quality_flag"`
}

// SegmentTimingConfidence rates one segment duration: 0.9 within 1-5s, 0.7
// within 0.5-8s, otherwise 0.5.
func SegmentTimingConfidence(duration float64) float64 {
	switch {
	case duration >= 1 && duration <= 5:
		return 0.9
	case duration >= 0.5 && duration <= 8:
		return 0.7
	default:
		return 0.5
	}
}

// TimingConfidence averages SegmentTimingConfidence; no segments yields 0.5.
func TimingConfidence(segments []transcript.Token) float64 {
	if len(segments) == 0 {
		return 0.5
	}
	var sum float64
	for _, seg := range segments {
		sum += SegmentTimingConfidence(seg.Duration())
	}
	return sum / float64(len(segments))
}

// TranslationEstimate scores how plausible translated lengths are. Each pair
// scores 1 at a length ratio of 1, falling linearly to 0.5 at the configured
// bounds and 0 outside them or for an empty translation. Without a
// translation it returns DefaultTranslationEstimate.
func TranslationEstimate(original, translated []transcript.Token, opts Options) float64 {
	pairs := min(len(original), len(translated))
	if pairs == 0 {
		return DefaultTranslationEstimate
	}
	var sum float64
	for i := 0; i < pairs; i++ {
		ratio, ok := lengthRatio(original[i].Text, translated[i].Text)
		if !ok {
			sum += DefaultTranslationEstimate
			continue
		}
		sum += ratioScore(ratio, opts.MinLengthRatio, opts.MaxLengthRatio)
	}
	return sum / float64(pairs)
}

func ratioScore(ratio, lo, hi float64) float64 {
	switch {
	case ratio <= 0 || ratio < lo || ratio > hi:
		return 0
	case ratio <= 1:
		if lo >= 1 {
			return 1
		}
		return 1 - 0.5*(1-ratio)/(1-lo)
	default:
		if hi <= 1 {
			return 1
		}
		return 1 - 0.5*(ratio-1)/(hi-1)
	}
}

// ScoreConfidence combines 0.4·transcription + 0.4·translation + 0.2·timing.
func ScoreConfidence(transcription float64, segments []transcript.Token, translation float64) ConfidenceMetrics {
	m := ConfidenceMetrics{
		Transcription: transcription,
		Translation:   translation,
		Timing:        TimingConfidence(segments),
	}
	m.Overall = 0.4*m.Transcription + 0.4*m.Translation + 0.2*m.Timing
	m.Label = LabelFor(m.Overall)
	return m
}

// SpeakerInfo summarizes one speaker's segments.
type SpeakerInfo struct {
	Speaker       string  `json:"speaker_id" yaml:"speaker_id"`
	Confidence    float64 `json:"confidence" yaml:"confidence"`
	Segments      int     `json:"segments_count" yaml:"segments_count"`
	TotalDuration float64 `json:"total_duration" yaml:"total_duration"`
}

// AnalyzeSpeakers groups segments by speaker in order of first appearance.
func AnalyzeSpeakers(segments []transcript.Token) []SpeakerInfo {
	var out []SpeakerInfo
	for _, seg := range segments {
		speaker := seg.Speaker
		if speaker == "" {
			speaker = transcript.DefaultSpeaker
		}
		i := slices.IndexFunc(out, func(s SpeakerInfo) bool { return s.Speaker == speaker })
		if i < 0 {
			out = append(out, SpeakerInfo{Speaker: speaker})
			i = len(out) - 1
		}
		out[i].Confidence += seg.Confidence
		out[i].Segments++
		out[i].TotalDuration += seg.Duration()
	}
	for i := range out {
		out[i].Confidence /= float64(out[i].Segments)
	}
	return out
}
