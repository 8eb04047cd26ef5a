package retry

import (
	"strings"

	"captionsync/internal/textutil"
	"captionsync/internal/transcript"
)

// Predicate accepts a result by returning nil or refuses it with a Rejection.
type Predicate[T any] func(T) *Rejection

// All accepts a result only when every predicate does. The first rejection wins.
func All[T any](preds ...Predicate[T]) Predicate[T] {
	return func(v T) *Rejection {
		for _, p := range preds {
			if p == nil {
				continue
			}
			if r := p(v); r != nil {
				return r
			}
		}
		return nil
	}
}

// MinConfidence refuses results whose confidence is below threshold.
func MinConfidence[T any](threshold float64, confidence func(T) float64) Predicate[T] {
	return func(v T) *Rejection {
		if c := confidence(v); c < threshold {
			return Reject(ReasonLowConfidence, "confidence %.2f below %.2f", c, threshold)
		}
		return nil
	}
}

// NonEmptyText refuses text shorter than minLength readable characters after
// trimming.
func NonEmptyText(minLength int) Predicate[string] {
	return func(text string) *Rejection {
		text = strings.TrimSpace(text)
		if text == "" {
			return Reject(ReasonTranslationError, "empty result")
		}
		if n := textutil.ReadableLength(text); n < minLength {
			return Reject(ReasonTranslationError, "result too short (%d chars)", n)
		}
		return nil
	}
}

// ContainsMarkers refuses text that lacks any of the structural markers.
func ContainsMarkers(markers ...string) Predicate[string] {
	return func(text string) *Rejection {
		if strings.TrimSpace(text) == "" {
			return Reject(ReasonQualityCheckFailed, "empty output")
		}
		for _, m := range markers {
			if !strings.Contains(text, m) {
				return Reject(ReasonQualityCheckFailed, "output lacks %q", m)
			}
		}
		return nil
	}
}

// TranscriptAccepted refuses transcripts without text or segments, or with an
// overall confidence below threshold.
func TranscriptAccepted(threshold float64) Predicate[transcript.Transcript] {
	return func(tr transcript.Transcript) *Rejection {
		if tr.Empty() {
			return Reject(ReasonQualityCheckFailed, "transcript has no text or segments")
		}
		if tr.Confidence < threshold {
			return Reject(ReasonLowConfidence, "transcript confidence %.2f below %.2f", tr.Confidence, threshold)
		}
		return nil
	}
}
