package segmenter

import "captionsync/internal/transcript"

// Utterance is a contiguous run of tokens spoken without a natural break.
type Utterance struct {
	ID             int                `json:"id" yaml:"id"`
	Text           string             `json:"text" yaml:"text"`
	Start          float64            `json:"start" yaml:"start"`
	End            float64            `json:"end" yaml:"end"`
	Speaker        string             `json:"speaker" yaml:"speaker"`
	Confidence     float64            `json:"confidence" yaml:"confidence"`
	PauseBefore    float64            `json:"pause_before" yaml:"pause_before"`
	PauseAfter     float64            `json:"pause_after" yaml:"pause_after"`
	IsNaturalBreak bool               `json:"is_natural_break" yaml:"is_natural_break"`
	Tokens         []transcript.Token `json:"tokens,omitempty" yaml:"-"`
}

// Duration returns End-Start.
func (u Utterance) Duration() float64 {
	return u.End - u.Start
}

// Token collapses the utterance into a single segment-level token.
func (u Utterance) Token() transcript.Token {
	return transcript.Token{
		Text:         u.Text,
		Start:        u.Start,
		End:          u.End,
		Confidence:   u.Confidence,
		Speaker:      u.Speaker,
		IsPunctuated: transcript.HasTerminalPunctuation(u.Text),
	}
}

// Tokens flattens utterances into segment-level tokens.
func Tokens(utterances []Utterance) []transcript.Token {
	out := make([]transcript.Token, len(utterances))
	for i, u := range utterances {
		out[i] = u.Token()
	}
	return out
}

func newUtterance(tokens []transcript.Token, natural bool) Utterance {
	owned := transcript.Clone(tokens)
	start, end := transcript.Span(owned)
	return Utterance{
		Text:           transcript.JoinText(owned),
		Start:          start,
		End:            end,
		Speaker:        transcript.DominantSpeaker(owned),
		Confidence:     transcript.MeanConfidence(owned),
		IsNaturalBreak: natural,
		Tokens:         owned,
	}
}
