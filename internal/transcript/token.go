package transcript

import (
	"slices"
	"strings"
)

// DefaultSpeaker is assigned to tokens whose collaborator reported no speaker.
const DefaultSpeaker = "A"

// Token is a timestamped word or segment. Times are in seconds.
type Token struct {
	Text         string  `json:"text"`
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	Confidence   float64 `json:"confidence"`
	Speaker      string  `json:"speaker,omitempty"`
	IsEstimated  bool    `json:"is_estimated,omitempty"`
	IsPunctuated bool    `json:"is_punctuated,omitempty"`
}

// Duration reports End - Start.
func (t Token) Duration() float64 {
	return t.End - t.Start
}

// Valid reports whether the token has text and a positive duration.
func (t Token) Valid() bool {
	return strings.TrimSpace(t.Text) != "" && t.End > t.Start
}

// Clone returns an owned copy of tokens.
func Clone(tokens []Token) []Token {
	if tokens == nil {
		return nil
	}
	return slices.Clone(tokens)
}

// Span returns the first start and the last end of an ordered sequence.
func Span(tokens []Token) (float64, float64) {
	if len(tokens) == 0 {
		return 0, 0
	}
	return tokens[0].Start, tokens[len(tokens)-1].End
}

// MeanConfidence averages token confidence; an empty sequence yields 0.
func MeanConfidence(tokens []Token) float64 {
	if len(tokens) == 0 {
		return 0
	}
	var sum float64
	for _, tok := range tokens {
		sum += tok.Confidence
	}
	return sum / float64(len(tokens))
}

// JoinText joins token text with single spaces.
func JoinText(tokens []Token) string {
	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if text := strings.TrimSpace(tok.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// DominantSpeaker returns the most frequent speaker. Ties go to the speaker
// seen first.
func DominantSpeaker(tokens []Token) string {
	if len(tokens) == 0 {
		return ""
	}
	counts := make(map[string]int, 4)
	order := make([]string, 0, 4)
	for _, tok := range tokens {
		if _, ok := counts[tok.Speaker]; !ok {
			order = append(order, tok.Speaker)
		}
		counts[tok.Speaker]++
	}
	best := order[0]
	for _, speaker := range order[1:] {
		if counts[speaker] > counts[best] {
			best = speaker
		}
	}
	return best
}

// SortByStart orders tokens by start time, keeping the input order for ties.
func SortByStart(tokens []Token) {
	slices.SortStableFunc(tokens, func(a, b Token) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		default:
			return 0
		}
	})
}

// closers may follow terminal punctuation ("Stop." or (yes?)).
const closers = "\"')]\u201d\u2019"

// HasTerminalPunctuation reports whether text ends in . ! ? or ;, ignoring
// trailing quotes and brackets.
func HasTerminalPunctuation(text string) bool {
	text = strings.TrimRight(strings.TrimSpace(text), closers)
	if text == "" {
		return false
	}
	switch text[len(text)-1] {
	case '.', '!', '?', ';':
		return true
	}
	return false
}

func containsPunctuation(text string) bool {
	return strings.ContainsAny(text, ".,!?;:")
}
