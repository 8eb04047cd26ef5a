package quality

import (
	"fmt"
	"strings"

	"captionsync/internal/textutil"
	"captionsync/internal/transcript"
)

// Options holds validation thresholds.
type Options struct {
	MinConfidence           float64
	MaxLowConfidenceRatio   float64
	MaxInvalidDurationRatio float64
	MinSegmentDuration      float64
	MaxSegmentDuration      float64
	MinCharsPerSecond       float64
	MaxCharsPerSecond       float64
	// MinReadingTextLength is the length below which slow reading speed is
	// not reported.
	MinReadingTextLength int
	MinLengthRatio       float64
	MaxLengthRatio       float64
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{
		MinConfidence:           0.7,
		MaxLowConfidenceRatio:   0.3,
		MaxInvalidDurationRatio: 0.2,
		MinSegmentDuration:      0.5,
		MaxSegmentDuration:      10,
		MinCharsPerSecond:       5,
		MaxCharsPerSecond:       20,
		MinReadingTextLength:    10,
		MinLengthRatio:          0.3,
		MaxLengthRatio:          3,
	}
}

// Thresholds that flag translations which look copied or repeated.
const (
	untranslatedSimilarity = 0.9
	repeatedSimilarity     = 0.95
	similarityMinTerms     = 3
)

// Validation is the outcome of one check. Warnings are informational and do
// not affect Valid.
type Validation struct {
	Valid    bool     `json:"valid" yaml:"valid"`
	Issues   []string `json:"issues,omitempty" yaml:"issues,omitempty"`
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func finish(v Validation) Validation {
	v.Valid = len(v.Issues) == 0
	return v
}

// ValidateTranscription fails when overall confidence is below
// MinConfidence, when more than MaxLowConfidenceRatio of segments are below
// it, or when more than MaxInvalidDurationRatio of segments last outside
// [MinSegmentDuration, MaxSegmentDuration].
func ValidateTranscription(confidence float64, segments []transcript.Token, opts Options) Validation {
	var v Validation
	if confidence < opts.MinConfidence {
		v.Issues = append(v.Issues, fmt.Sprintf("low overall transcription confidence: %.2f", confidence))
	}
	if len(segments) == 0 {
		v.Issues = append(v.Issues, "transcript has no segments")
		return finish(v)
	}

	lowConfidence, badDuration := 0, 0
	for _, seg := range segments {
		if seg.Confidence < opts.MinConfidence {
			lowConfidence++
		}
		if d := seg.Duration(); d < opts.MinSegmentDuration || d > opts.MaxSegmentDuration {
			badDuration++
		}
	}
	n := float64(len(segments))
	if float64(lowConfidence) > n*opts.MaxLowConfidenceRatio {
		v.Issues = append(v.Issues, fmt.Sprintf("too many low-confidence segments: %d/%d", lowConfidence, len(segments)))
	}
	if float64(badDuration) > n*opts.MaxInvalidDurationRatio {
		v.Issues = append(v.Issues, fmt.Sprintf("timing problems in %d/%d segments", badDuration, len(segments)))
	}
	return finish(v)
}

// ValidateTranslation compares translated segments to their originals.
// It fails on a count mismatch, an empty translation, or a length ratio
// outside [MinLengthRatio, MaxLengthRatio]. Translations nearly identical to
// their source, and consecutive near-identical translations, are warnings.
func ValidateTranslation(original, translated []transcript.Token, opts Options) Validation {
	var v Validation
	if len(original) != len(translated) {
		v.Issues = append(v.Issues, fmt.Sprintf("segment count mismatch: %d original vs %d translated", len(original), len(translated)))
	}
	pairs := min(len(original), len(translated))
	for i := 0; i < pairs; i++ {
		src, dst := original[i].Text, translated[i].Text
		if strings.TrimSpace(dst) == "" {
			v.Issues = append(v.Issues, fmt.Sprintf("segment %d: empty translation", i))
			continue
		}
		if ratio, ok := lengthRatio(src, dst); ok {
			switch {
			case ratio < opts.MinLengthRatio:
				v.Issues = append(v.Issues, fmt.Sprintf("segment %d: translation too short (ratio %.2f)", i, ratio))
			case ratio > opts.MaxLengthRatio:
				v.Issues = append(v.Issues, fmt.Sprintf("segment %d: translation too long (ratio %.2f)", i, ratio))
			}
		}
		if len(textutil.Terms(src)) >= similarityMinTerms && textutil.TextSimilarity(src, dst) >= untranslatedSimilarity {
			v.Warnings = append(v.Warnings, fmt.Sprintf("segment %d: translation matches the source text", i))
		}
		if i > 0 && len(textutil.Terms(dst)) >= similarityMinTerms &&
			textutil.TextSimilarity(translated[i-1].Text, dst) >= repeatedSimilarity {
			v.Warnings = append(v.Warnings, fmt.Sprintf("segment %d: repeats the previous translation", i))
		}
	}
	return finish(v)
}

// lengthRatio returns translated/original readable length. ok is false when
// the original is empty.
func lengthRatio(original, translated string) (float64, bool) {
	src := textutil.ReadableLength(original)
	if src == 0 {
		return 0, false
	}
	return float64(textutil.ReadableLength(translated)) / float64(src), true
}

// ValidateTiming checks reading speed and ordering of caption segments.
// Fast captions are always reported; slow ones only when the text is longer
// than MinReadingTextLength.
func ValidateTiming(segments []transcript.Token, opts Options) Validation {
	var v Validation
	for i, seg := range segments {
		length := textutil.ReadableLength(seg.Text)
		var cps float64
		if d := seg.Duration(); d > 0 {
			cps = float64(length) / d
		}
		switch {
		case cps > opts.MaxCharsPerSecond:
			v.Issues = append(v.Issues, fmt.Sprintf("segment %d: reading speed too fast (%.1f chars/s)", i, cps))
		case cps < opts.MinCharsPerSecond && length > opts.MinReadingTextLength:
			v.Issues = append(v.Issues, fmt.Sprintf("segment %d: reading speed too slow (%.1f chars/s)", i, cps))
		}
		if i > 0 && seg.Start < segments[i-1].End {
			v.Issues = append(v.Issues, fmt.Sprintf("segment %d: overlaps the previous segment", i))
		}
	}
	return finish(v)
}
