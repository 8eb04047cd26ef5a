package transcript

import (
	"captionsync/internal/textutil"
)

// EstimatedWordGap separates interpolated words inside a segment.
const EstimatedWordGap = 0.05

// EstimateWords interpolates word tokens evenly across each segment. The
// resulting tokens inherit segment confidence and speaker and are marked
// IsEstimated.
func EstimateWords(segments []Token) []Token {
	var words []Token
	for _, seg := range segments {
		parts := textutil.Words(seg.Text)
		if len(parts) == 0 || seg.End <= seg.Start {
			continue
		}
		n := float64(len(parts))
		span := seg.End - seg.Start
		gap := EstimatedWordGap
		per := (span - gap*(n-1)) / n
		if per <= 0 {
			gap = 0
			per = span / n
		}
		speaker := seg.Speaker
		if speaker == "" {
			speaker = DefaultSpeaker
		}
		for i, text := range parts {
			start := seg.Start + float64(i)*(per+gap)
			end := start + per
			if i == len(parts)-1 {
				end = seg.End
			}
			words = append(words, Token{
				Text:         text,
				Start:        start,
				End:          end,
				Confidence:   seg.Confidence,
				Speaker:      speaker,
				IsEstimated:  true,
				IsPunctuated: containsPunctuation(text),
			})
		}
	}
	return words
}

// WordTokens returns measured word timings when present, otherwise words
// estimated from the segments.
func (t Transcript) WordTokens() []Token {
	if t.HasWordTimings() {
		return Clone(t.Words)
	}
	return EstimateWords(t.Segments)
}
