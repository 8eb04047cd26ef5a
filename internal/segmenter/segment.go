package segmenter

import (
	"math"
	"slices"

	"captionsync/internal/textutil"
	"captionsync/internal/transcript"
)

// Options tunes segmentation.
type Options struct {
	// PauseThreshold is the gap in seconds that ends an utterance.
	PauseThreshold float64
	// MergeMaxDuration and MergeMaxGap bound which short utterances are
	// folded into their predecessor.
	MergeMaxDuration float64
	MergeMaxGap      float64
	// Utterances longer than SplitMaxDuration are cut near SplitTarget.
	SplitMaxDuration float64
	SplitTarget      float64
	// Conjunctions are the lowercase words an utterance may be split before.
	Conjunctions []string
}

// DefaultOptions returns the tuned defaults.
func DefaultOptions() Options {
	return Options{
		PauseThreshold:   0.5,
		MergeMaxDuration: 0.5,
		MergeMaxGap:      1.0,
		SplitMaxDuration: 10,
		SplitTarget:      5,
		Conjunctions:     []string{"and", "but", "or", "so", "because", "while", "when", "if"},
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.PauseThreshold <= 0 {
		o.PauseThreshold = d.PauseThreshold
	}
	if o.MergeMaxDuration < 0 {
		o.MergeMaxDuration = d.MergeMaxDuration
	}
	if o.MergeMaxGap < 0 {
		o.MergeMaxGap = d.MergeMaxGap
	}
	if o.SplitMaxDuration <= 0 {
		o.SplitMaxDuration = d.SplitMaxDuration
	}
	if o.SplitTarget <= 0 || o.SplitTarget >= o.SplitMaxDuration {
		o.SplitTarget = o.SplitMaxDuration / 2
	}
	if o.Conjunctions == nil {
		o.Conjunctions = d.Conjunctions
	}
	return o
}

// Result is the output of Segment.
type Result struct {
	Utterances []Utterance
	// Merged counts short utterances folded into a predecessor.
	Merged int
	// Split counts long utterances that were cut.
	Split int
}

// Segment groups tokens into utterances. Input tokens are copied and
// ordered by start; tokens that end before they start are dropped.
func Segment(tokens []transcript.Token, opts Options) Result {
	opts = opts.withDefaults()
	ordered := make([]transcript.Token, 0, len(tokens))
	for _, tok := range tokens {
		if tok.End >= tok.Start {
			ordered = append(ordered, tok)
		}
	}
	transcript.SortByStart(ordered)

	var res Result
	utterances := group(ordered, opts)
	utterances, res.Merged = mergeShort(utterances, opts)
	utterances, res.Split = splitLong(utterances, opts)
	annotate(utterances)
	res.Utterances = utterances
	return res
}

// group closes an utterance after terminal punctuation, before a pause
// longer than the threshold, or at a speaker change. Only the first two are
// natural breaks.
func group(tokens []transcript.Token, opts Options) []Utterance {
	var out []Utterance
	begin := 0
	for i, tok := range tokens {
		last := i == len(tokens)-1
		natural := transcript.HasTerminalPunctuation(tok.Text)
		if !last && tokens[i+1].Start-tok.End > opts.PauseThreshold {
			natural = true
		}
		speakerChange := !last && tokens[i+1].Speaker != tok.Speaker
		if natural || speakerChange || last {
			out = append(out, newUtterance(tokens[begin:i+1], natural))
			begin = i + 1
		}
	}
	return out
}

func mergeShort(in []Utterance, opts Options) ([]Utterance, int) {
	out := make([]Utterance, 0, len(in))
	merged := 0
	for _, u := range in {
		if n := len(out); n > 0 && u.Duration() < opts.MergeMaxDuration {
			prev := out[n-1]
			if prev.Speaker == u.Speaker && u.Start-prev.End < opts.MergeMaxGap {
				joined := append(slices.Clone(prev.Tokens), u.Tokens...)
				out[n-1] = newUtterance(joined, u.IsNaturalBreak)
				merged++
				continue
			}
		}
		out = append(out, u)
	}
	return out, merged
}

func splitLong(in []Utterance, opts Options) ([]Utterance, int) {
	out := make([]Utterance, 0, len(in))
	split := 0
	for _, u := range in {
		pieces := splitUtterance(u, opts)
		if len(pieces) > 1 {
			split++
		}
		out = append(out, pieces...)
	}
	return out, split
}

func splitUtterance(u Utterance, opts Options) []Utterance {
	if u.Duration() <= opts.SplitMaxDuration || len(u.Tokens) < 2 {
		return []Utterance{u}
	}
	var pieces []Utterance
	rest := u.Tokens
	for {
		start, end := transcript.Span(rest)
		if end-start <= opts.SplitMaxDuration {
			break
		}
		cut := breakPoint(rest, opts)
		if cut < 0 {
			break
		}
		pieces = append(pieces, newUtterance(rest[:cut+1], false))
		rest = rest[cut+1:]
	}
	if len(pieces) == 0 {
		return []Utterance{u}
	}
	return append(pieces, newUtterance(rest, u.IsNaturalBreak))
}

// breakPoint returns the index of the token to cut after, or -1. Candidates
// end in , ; or : or precede a conjunction; the one ending closest to
// SplitTarget wins, earliest on ties.
func breakPoint(tokens []transcript.Token, opts Options) int {
	best := -1
	bestDistance := math.Inf(1)
	start := tokens[0].Start
	for i := 0; i < len(tokens)-1; i++ {
		good := textutil.HasAnyPunctuation(tokens[i].Text, ",;:") ||
			slices.Contains(opts.Conjunctions, textutil.Bare(tokens[i+1].Text))
		if !good {
			continue
		}
		if d := math.Abs(tokens[i].End - start - opts.SplitTarget); d < bestDistance {
			best, bestDistance = i, d
		}
	}
	return best
}

func annotate(utterances []Utterance) {
	for i := range utterances {
		utterances[i].ID = i
		utterances[i].PauseBefore = 0
		utterances[i].PauseAfter = 0
		if i > 0 {
			utterances[i].PauseBefore = max(0, utterances[i].Start-utterances[i-1].End)
		}
		if i < len(utterances)-1 {
			utterances[i].PauseAfter = max(0, utterances[i+1].Start-utterances[i].End)
		}
	}
}
