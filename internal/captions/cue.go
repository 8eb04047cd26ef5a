package captions

import (
	"strings"

	"captionsync/internal/stabilizer"
	"captionsync/internal/transcript"
)

// Cue is one timed caption.
type Cue struct {
	Start   float64
	End     float64
	Text    string
	Speaker string
	// MultiSpeaker marks cues whose text mixes speakers, or that belong to
	// a conversation where the speaker changes.
	MultiSpeaker bool
}

// FromBlocks builds cues spanning each block's display window.
func FromBlocks(blocks []stabilizer.DisplayBlock) []Cue {
	cues := make([]Cue, 0, len(blocks))
	for _, b := range blocks {
		text := strings.TrimSpace(b.Text)
		if text == "" {
			continue
		}
		cues = append(cues, Cue{
			Start:        b.DisplayStart,
			End:          b.DisplayEnd,
			Text:         text,
			Speaker:      b.Speaker,
			MultiSpeaker: len(b.Speakers()) > 1,
		})
	}
	return cues
}

// FromSegments builds one cue per non-empty segment. A cue is marked
// MultiSpeaker when its speaker differs from the previous cue's.
func FromSegments(segments []transcript.Token) []Cue {
	cues := make([]Cue, 0, len(segments))
	prev := ""
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" || seg.End <= seg.Start {
			continue
		}
		cues = append(cues, Cue{
			Start:        seg.Start,
			End:          seg.End,
			Text:         text,
			Speaker:      seg.Speaker,
			MultiSpeaker: len(cues) > 0 && seg.Speaker != prev,
		})
		prev = seg.Speaker
	}
	return cues
}
