package testsupport

import "captionsync/internal/transcript"

// Token builds a token with confidence 0.9 for speaker "A".
func Token(text string, start, end float64) transcript.Token {
	return transcript.Token{Text: text, Start: start, End: end, Confidence: 0.9, Speaker: "A"}
}

// SpeakerToken builds a token for the given speaker and confidence.
func SpeakerToken(text string, start, end, confidence float64, speaker string) transcript.Token {
	return transcript.Token{Text: text, Start: start, End: end, Confidence: confidence, Speaker: speaker}
}

// EvenTokens builds n tokens of duration d separated by gap, starting at 0.
func EvenTokens(n int, d, gap float64) []transcript.Token {
	tokens := make([]transcript.Token, n)
	for i := range tokens {
		start := float64(i) * (d + gap)
		tokens[i] = Token("word", start, start+d)
	}
	return tokens
}
