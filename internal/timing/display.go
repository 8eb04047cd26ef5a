package timing

import "captionsync/internal/transcript"

// ExtendForDisplay lengthens tokens shorter than minDisplay. An extension
// never reaches past next.Start-minGap and never shortens a token.
func ExtendForDisplay(tokens []transcript.Token, minDisplay, minGap float64) ([]transcript.Token, int) {
	out := transcript.Clone(tokens)
	if minDisplay <= 0 {
		return out, 0
	}
	extended := 0
	for i := range out {
		if out[i].Duration() >= minDisplay-epsilon {
			continue
		}
		end := out[i].Start + minDisplay
		if i+1 < len(out) {
			end = min(end, out[i+1].Start-minGap)
		}
		if end > out[i].End {
			out[i].End = end
			extended++
		}
	}
	return out, extended
}

// Compensate subtracts a fixed processing delay from every timestamp,
// clamping at zero. Tokens collapsed by the clamp keep their original
// duration from the clamped start.
func Compensate(tokens []transcript.Token, delay float64) []transcript.Token {
	out := transcript.Clone(tokens)
	if delay == 0 {
		return out
	}
	for i := range out {
		d := out[i].Duration()
		out[i].Start = max(0, out[i].Start-delay)
		out[i].End = max(0, out[i].End-delay)
		if out[i].End <= out[i].Start {
			out[i].End = out[i].Start + max(d, epsilon)
		}
	}
	return out
}
