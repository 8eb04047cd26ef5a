package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"captionsync/internal/services"
)

// Unit identifies the time unit a collaborator reports timestamps in.
type Unit int

const (
	// Seconds is the internal unit.
	Seconds Unit = iota
	// Milliseconds is converted at the boundary.
	Milliseconds
)

// ParseUnit maps "s"/"seconds" and "ms"/"milliseconds" to a Unit.
func ParseUnit(value string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "s", "sec", "seconds":
		return Seconds, nil
	case "ms", "millis", "milliseconds":
		return Milliseconds, nil
	default:
		return Seconds, fmt.Errorf("unknown time unit %q", value)
	}
}

// Transcript is the normalized ASR result.
type Transcript struct {
	Text         string  `json:"text"`
	Confidence   float64 `json:"confidence"`
	LanguageCode string  `json:"language_code,omitempty"`
	Segments     []Token `json:"segments"`
	Words        []Token `json:"words,omitempty"`
}

// HasWordTimings reports whether the collaborator supplied measured word timings.
func (t Transcript) HasWordTimings() bool {
	return len(t.Words) > 0
}

// Empty reports whether the transcript carries no usable timeline.
func (t Transcript) Empty() bool {
	return len(t.Segments) == 0 && len(t.Words) == 0
}

type wireToken struct {
	Text       string          `json:"text"`
	Word       string          `json:"word"`
	Start      float64         `json:"start"`
	End        float64         `json:"end"`
	Confidence *float64        `json:"confidence"`
	Speaker    json.RawMessage `json:"speaker"`
}

type wireTranscript struct {
	Text         string      `json:"text"`
	Confidence   *float64    `json:"confidence"`
	LanguageCode string      `json:"language_code"`
	Language     string      `json:"language"`
	Segments     []wireToken `json:"segments"`
	Words        []wireToken `json:"words"`
}

const defaultTokenConfidence = 0.8

// Decode reads an ASR JSON payload and normalizes it to seconds.
func Decode(r io.Reader, unit Unit) (Transcript, error) {
	var wire wireTranscript
	if err := json.NewDecoder(r).Decode(&wire); err != nil {
		return Transcript{}, services.Wrap(services.ErrValidation, "transcript", "decode", "invalid transcript JSON", err)
	}
	tr := Transcript{
		Text:         strings.TrimSpace(wire.Text),
		LanguageCode: strings.TrimSpace(firstNonEmpty(wire.LanguageCode, wire.Language)),
		Segments:     convertTokens(wire.Segments),
		Words:        convertTokens(wire.Words),
	}
	if wire.Confidence != nil {
		tr.Confidence = clampUnit(*wire.Confidence)
	} else {
		tr.Confidence = MeanConfidence(tr.Segments)
	}
	if tr.Text == "" {
		tr.Text = JoinText(tr.Segments)
	}
	if unit == Milliseconds {
		tr = FromMilliseconds(tr)
	}
	return tr, nil
}

// DecodeFile opens path and decodes it. A missing file is reported as
// services.ErrMissingInput.
func DecodeFile(path string, unit Unit) (Transcript, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Transcript{}, services.Wrap(services.ErrMissingInput, "transcript", "open", "transcript not found", err)
		}
		return Transcript{}, fmt.Errorf("open transcript: %w", err)
	}
	defer file.Close()
	return Decode(file, unit)
}

// FromMilliseconds converts every timestamp from milliseconds to seconds.
func FromMilliseconds(tr Transcript) Transcript {
	out := tr
	out.Segments = scaleTokens(tr.Segments, 0.001)
	out.Words = scaleTokens(tr.Words, 0.001)
	return out
}

func scaleTokens(tokens []Token, factor float64) []Token {
	if tokens == nil {
		return nil
	}
	out := make([]Token, len(tokens))
	for i, tok := range tokens {
		tok.Start *= factor
		tok.End *= factor
		out[i] = tok
	}
	return out
}

func convertTokens(wire []wireToken) []Token {
	if len(wire) == 0 {
		return nil
	}
	out := make([]Token, 0, len(wire))
	for _, w := range wire {
		text := strings.TrimSpace(firstNonEmpty(w.Text, w.Word))
		tok := Token{
			Text:         text,
			Start:        w.Start,
			End:          w.End,
			Confidence:   defaultTokenConfidence,
			Speaker:      parseSpeaker(w.Speaker),
			IsPunctuated: containsPunctuation(text),
		}
		if w.Confidence != nil {
			tok.Confidence = clampUnit(*w.Confidence)
		}
		out = append(out, tok)
	}
	return out
}

// parseSpeaker accepts string or numeric speaker labels.
func parseSpeaker(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return DefaultSpeaker
	}
	var label string
	if err := json.Unmarshal(raw, &label); err == nil {
		if label = strings.TrimSpace(label); label != "" {
			return label
		}
		return DefaultSpeaker
	}
	var number json.Number
	if err := json.Unmarshal(raw, &number); err == nil {
		if n, err := strconv.ParseInt(number.String(), 10, 64); err == nil {
			return strconv.FormatInt(n, 10)
		}
		return number.String()
	}
	return DefaultSpeaker
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
