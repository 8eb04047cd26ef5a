package textutil

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var sentenceBoundary = regexp.MustCompile(`[.!?]+\s+`)

// Words splits text on whitespace, keeping attached punctuation.
func Words(text string) []string {
	return strings.Fields(text)
}

// Normalize returns the NFC form of text with surrounding space trimmed.
func Normalize(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}

// ReadableLength counts user-perceived characters after NFC normalization.
// Decomposed accents count once.
func ReadableLength(text string) int {
	return utf8.RuneCountInString(Normalize(text))
}

// SplitSentences splits on runs of . ! or ? followed by whitespace. The
// terminating punctuation stays with its sentence.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var out []string
	last := 0
	for _, loc := range sentenceBoundary.FindAllStringIndex(text, -1) {
		sentence := strings.TrimSpace(text[last:loc[1]])
		if sentence != "" {
			out = append(out, sentence)
		}
		last = loc[1]
	}
	if tail := strings.TrimSpace(text[last:]); tail != "" {
		out = append(out, tail)
	}
	return out
}

// Wrap breaks text into lines of at most width runes, splitting on word
// boundaries. A single word longer than width occupies its own line.
func Wrap(text string, width int) []string {
	words := Words(text)
	if len(words) == 0 {
		return nil
	}
	if width <= 0 {
		return []string{strings.Join(words, " ")}
	}
	var lines []string
	var current strings.Builder
	currentLen := 0
	for _, word := range words {
		wordLen := utf8.RuneCountInString(word)
		if currentLen > 0 && currentLen+1+wordLen > width {
			lines = append(lines, current.String())
			current.Reset()
			currentLen = 0
		}
		if currentLen > 0 {
			current.WriteByte(' ')
			currentLen++
		}
		current.WriteString(word)
		currentLen += wordLen
	}
	if currentLen > 0 {
		lines = append(lines, current.String())
	}
	return lines
}

// HasAnyPunctuation reports whether word contains any of the runes in set.
func HasAnyPunctuation(word, set string) bool {
	return strings.ContainsAny(word, set)
}

// Bare lowercases word and strips surrounding punctuation.
func Bare(word string) string {
	return strings.ToLower(strings.Trim(word, ".,!?;:\"'()[]{}"))
}
