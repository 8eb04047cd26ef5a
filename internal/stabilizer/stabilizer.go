// Package stabilizer groups tokens into fixed-size display blocks whose
// display windows overlap slightly, so rendered captions do not flicker
// between consecutive blocks.
package stabilizer

import (
	"strings"

	"captionsync/internal/transcript"
)

// DisplayBlock is one rendered caption.
type DisplayBlock struct {
	Index  int                `json:"index" yaml:"index"`
	Text   string             `json:"text" yaml:"text"`
	Tokens []transcript.Token `json:"-" yaml:"-"`
	// Start and End bound the spoken content.
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	// DisplayStart and DisplayEnd bound the on-screen window.
	DisplayStart float64 `json:"display_start" yaml:"display_start"`
	DisplayEnd   float64 `json:"display_end" yaml:"display_end"`
	Speaker      string  `json:"dominant_speaker" yaml:"dominant_speaker"`
	Confidence   float64 `json:"confidence" yaml:"confidence"`
}

// Speakers returns the distinct speakers in token order.
func (b DisplayBlock) Speakers() []string {
	var out []string
	seen := make(map[string]bool, 2)
	for _, tok := range b.Tokens {
		if !seen[tok.Speaker] {
			seen[tok.Speaker] = true
			out = append(out, tok.Speaker)
		}
	}
	return out
}

// Options sets block size and the anti-flicker overlap in seconds.
type Options struct {
	WordsPerBlock int
	Overlap       float64
}

// DefaultOptions returns 38 words per block with a 100ms overlap.
func DefaultOptions() Options {
	return Options{WordsPerBlock: 38, Overlap: 0.1}
}

// Result is the output of Stabilize.
type Result struct {
	Blocks []DisplayBlock
	// Dropped counts tokens discarded for empty text or non-positive duration.
	Dropped int
}

// Stabilize partitions tokens into consecutive blocks of WordsPerBlock (the
// last may be smaller). Each block after the first starts showing Overlap
// early, but never before the previous block's display start; each block
// before the last stays Overlap late, but never past the next block's
// display start plus Overlap.
func Stabilize(tokens []transcript.Token, opts Options) Result {
	if opts.WordsPerBlock <= 0 {
		opts.WordsPerBlock = DefaultOptions().WordsPerBlock
	}
	if opts.Overlap < 0 {
		opts.Overlap = 0
	}

	var res Result
	kept := make([]transcript.Token, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Duration() <= 0 || strings.TrimSpace(tok.Text) == "" {
			res.Dropped++
			continue
		}
		kept = append(kept, tok)
	}
	transcript.SortByStart(kept)

	for lo := 0; lo < len(kept); lo += opts.WordsPerBlock {
		hi := min(lo+opts.WordsPerBlock, len(kept))
		group := transcript.Clone(kept[lo:hi])
		start, end := transcript.Span(group)
		for _, tok := range group {
			end = max(end, tok.End)
		}
		res.Blocks = append(res.Blocks, DisplayBlock{
			Index:        len(res.Blocks),
			Text:         transcript.JoinText(group),
			Tokens:       group,
			Start:        start,
			End:          end,
			DisplayStart: start,
			DisplayEnd:   end,
			Speaker:      transcript.DominantSpeaker(group),
			Confidence:   transcript.MeanConfidence(group),
		})
	}

	blocks := res.Blocks
	for i := range blocks {
		if i > 0 {
			blocks[i].DisplayStart = max(blocks[i].Start-opts.Overlap, blocks[i-1].DisplayStart, 0)
		}
		if i < len(blocks)-1 {
			blocks[i].DisplayEnd = blocks[i].End + opts.Overlap
		}
	}
	for i := 0; i < len(blocks)-1; i++ {
		blocks[i].DisplayEnd = min(blocks[i].DisplayEnd, blocks[i+1].DisplayStart+opts.Overlap)
	}
	return res
}
