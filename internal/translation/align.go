package translation

import (
	"strings"

	"captionsync/internal/textutil"
	"captionsync/internal/transcript"
)

// Options controls Align.
type Options struct {
	// MinDisplay extends short segments to at least this many seconds
	// when that does not crowd the next segment. Zero disables it.
	MinDisplay float64
	// Gap is kept free before the next segment when extending.
	Gap float64
}

// DefaultOptions returns the alignment defaults.
func DefaultOptions() Options {
	return Options{MinDisplay: 1.5, Gap: 0.3}
}

// Result is the aligned timeline.
type Result struct {
	Segments      []transcript.Token
	Redistributed bool
	Extended      int
}

// SourceText joins segment texts one per line, the form sent to the
// translation collaborator.
func SourceText(segments []transcript.Token) string {
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n")
}

// Align assigns translated text to segments. Segment count and order are
// preserved; every returned segment keeps its source speaker and confidence.
func Align(segments []transcript.Token, translated string, opts Options) Result {
	out := transcript.Clone(segments)
	if len(out) == 0 {
		return Result{}
	}
	var res Result
	sentences := textutil.SplitSentences(strings.Join(strings.Fields(translated), " "))
	if len(sentences) != len(out) {
		sentences = Redistribute(translated, len(out))
		res.Redistributed = true
	}
	for i := range out {
		out[i].Text = sentences[i]
		out[i].IsPunctuated = transcript.HasTerminalPunctuation(sentences[i])
	}
	if opts.MinDisplay > 0 {
		res.Extended = extend(out, opts)
	}
	res.Segments = out
	return res
}

// Redistribute spreads the words of text over n parts as evenly as
// possible. Parts may be empty when there are fewer words than parts.
func Redistribute(text string, n int) []string {
	if n <= 0 {
		return nil
	}
	words := textutil.Words(text)
	parts := make([]string, n)
	for i := range n {
		lo := i * len(words) / n
		hi := (i + 1) * len(words) / n
		parts[i] = strings.Join(words[lo:hi], " ")
	}
	return parts
}

func extend(segments []transcript.Token, opts Options) int {
	extended := 0
	for i := range segments {
		seg := &segments[i]
		if seg.Duration() >= opts.MinDisplay {
			continue
		}
		target := seg.Start + opts.MinDisplay
		if i < len(segments)-1 {
			target = min(target, segments[i+1].Start-opts.Gap)
		}
		if target > seg.End {
			seg.End = target
			extended++
		}
	}
	return extended
}
