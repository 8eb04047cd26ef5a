package timing

import (
	"captionsync/internal/transcript"
)

const (
	// ShiftTierLimit is the largest overlap resolved by shifting the later token.
	ShiftTierLimit = 0.05
	// SplitTierLimit is the largest overlap resolved by splitting it between both tokens.
	SplitTierLimit = 0.2

	// epsilon absorbs float rounding so a repaired sequence is a fixed point.
	epsilon = 1e-9
)

// Options bounds gaps and durations for Repair.
type Options struct {
	MinGap      float64
	MinDuration float64
	MaxDuration float64
}

// DefaultOptions mirrors the repository configuration defaults.
func DefaultOptions() Options {
	return Options{MinGap: 0.02, MinDuration: 0.4, MaxDuration: 10}
}

// Stats counts the corrections Repair applied.
type Stats struct {
	Shifted   int
	Split     int
	Rescaled  int
	Extended  int
	Truncated int
}

// Total returns the number of corrections.
func (s Stats) Total() int {
	return s.Shifted + s.Split + s.Rescaled + s.Extended + s.Truncated
}

// Repair returns a repaired copy of tokens. See RepairWithStats.
func Repair(tokens []transcript.Token, opts Options) []transcript.Token {
	out, _ := RepairWithStats(tokens, opts)
	return out
}

// RepairWithStats orders tokens by start and sweeps left to right. Each token
// is first clamped into [MinDuration, MaxDuration] by moving its end; then any
// gap to the previous token smaller than MinGap is resolved:
//
//   - overlap up to 50ms: the token is shifted to previous.End+MinGap,
//     keeping its duration;
//   - overlap up to 200ms: the overlap is split evenly between both tokens;
//   - larger overlaps: both tokens are rescaled in proportion to their
//     durations within their combined span.
//
// A split or rescale that would leave either token shorter than MinDuration
// falls back to the shift. The input slice is not modified.
func RepairWithStats(tokens []transcript.Token, opts Options) ([]transcript.Token, Stats) {
	var stats Stats
	if len(tokens) == 0 {
		return nil, stats
	}
	opts = opts.sanitized()
	out := transcript.Clone(tokens)
	transcript.SortByStart(out)

	for i := range out {
		clampDuration(&out[i], opts, &stats)
		if i == 0 {
			continue
		}
		resolveGap(&out[i-1], &out[i], opts, &stats)
	}
	return out, stats
}

func (o Options) sanitized() Options {
	if o.MinGap < 0 {
		o.MinGap = 0
	}
	if o.MinDuration <= 0 {
		o.MinDuration = 0.001
	}
	if o.MaxDuration < o.MinDuration {
		o.MaxDuration = o.MinDuration
	}
	return o
}

func clampDuration(tok *transcript.Token, opts Options, stats *Stats) {
	d := tok.End - tok.Start
	switch {
	case d < opts.MinDuration-epsilon:
		tok.End = tok.Start + opts.MinDuration
		stats.Extended++
	case d > opts.MaxDuration+epsilon:
		tok.End = tok.Start + opts.MaxDuration
		stats.Truncated++
	}
}

func resolveGap(prev, cur *transcript.Token, opts Options, stats *Stats) {
	target := prev.End + opts.MinGap
	if cur.Start >= target-epsilon {
		return
	}
	overlap := prev.End - cur.Start
	switch {
	case overlap <= ShiftTierLimit:
		shift(prev, cur, opts)
		stats.Shifted++
	case overlap <= SplitTierLimit:
		if split(prev, cur, overlap, opts) {
			stats.Split++
			return
		}
		shift(prev, cur, opts)
		stats.Shifted++
	default:
		if rescale(prev, cur, opts) {
			stats.Rescaled++
			return
		}
		shift(prev, cur, opts)
		stats.Shifted++
	}
}

func shift(prev, cur *transcript.Token, opts Options) {
	d := cur.End - cur.Start
	cur.Start = prev.End + opts.MinGap
	cur.End = cur.Start + d
}

// split moves prev.End back by half the overlap and starts cur one gap later.
func split(prev, cur *transcript.Token, overlap float64, opts Options) bool {
	prevEnd := prev.End - overlap/2
	curStart := prevEnd + opts.MinGap
	if !fits(prev.Start, prevEnd, opts) || !fits(curStart, cur.End, opts) {
		return false
	}
	prev.End = prevEnd
	cur.Start = curStart
	return true
}

// rescale shares the combined span in proportion to the original durations,
// reserving one gap between the two tokens.
func rescale(prev, cur *transcript.Token, opts Options) bool {
	spanEnd := max(prev.End, cur.End)
	dp := prev.End - prev.Start
	dc := cur.End - cur.Start
	usable := spanEnd - prev.Start - opts.MinGap
	if dp+dc <= 0 || usable <= 0 {
		return false
	}
	prevEnd := prev.Start + usable*dp/(dp+dc)
	curStart := prevEnd + opts.MinGap
	if !fits(prev.Start, prevEnd, opts) || !fits(curStart, spanEnd, opts) {
		return false
	}
	prev.End = prevEnd
	cur.Start = curStart
	cur.End = spanEnd
	return true
}

func fits(start, end float64, opts Options) bool {
	d := end - start
	return d >= opts.MinDuration-epsilon && d <= opts.MaxDuration+epsilon
}
