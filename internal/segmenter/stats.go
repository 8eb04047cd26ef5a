package segmenter

import "slices"

// Quality scores a segmentation in [0, 1] as the unweighted mean of the share
// of utterances lasting 1-8s, the share ending at a natural break, the share
// preceded by at most 3s of silence, and the mean confidence.
func Quality(utterances []Utterance) float64 {
	if len(utterances) == 0 {
		return 0
	}
	var reasonable, natural, shortPause int
	var confidence float64
	for _, u := range utterances {
		if d := u.Duration(); d >= 1 && d <= 8 {
			reasonable++
		}
		if u.IsNaturalBreak {
			natural++
		}
		if u.PauseBefore <= 3 {
			shortPause++
		}
		confidence += u.Confidence
	}
	n := float64(len(utterances))
	return (float64(reasonable)/n + float64(natural)/n + float64(shortPause)/n + confidence/n) / 4
}

// PauseStatistics summarizes the silences between utterances.
type PauseStatistics struct {
	Count   int     `json:"total_pauses" yaml:"total_pauses"`
	Average float64 `json:"average_pause" yaml:"average_pause"`
	Median  float64 `json:"median_pause" yaml:"median_pause"`
	Min     float64 `json:"min_pause" yaml:"min_pause"`
	Max     float64 `json:"max_pause" yaml:"max_pause"`
	Total   float64 `json:"total_pause_time" yaml:"total_pause_time"`
	OverOne int     `json:"pauses_over_1s" yaml:"pauses_over_1s"`
	OverTwo int     `json:"pauses_over_2s" yaml:"pauses_over_2s"`
}

// PauseStats summarizes the positive PauseBefore values. It returns the zero
// value when there are no pauses.
func PauseStats(utterances []Utterance) PauseStatistics {
	var pauses []float64
	for _, u := range utterances {
		if u.PauseBefore > 0 {
			pauses = append(pauses, u.PauseBefore)
		}
	}
	if len(pauses) == 0 {
		return PauseStatistics{}
	}
	slices.Sort(pauses)
	stats := PauseStatistics{
		Count: len(pauses),
		Min:   pauses[0],
		Max:   pauses[len(pauses)-1],
	}
	for _, p := range pauses {
		stats.Total += p
		if p > 1 {
			stats.OverOne++
		}
		if p > 2 {
			stats.OverTwo++
		}
	}
	stats.Average = stats.Total / float64(len(pauses))
	mid := len(pauses) / 2
	if len(pauses)%2 == 1 {
		stats.Median = pauses[mid]
	} else {
		stats.Median = (pauses[mid-1] + pauses[mid]) / 2
	}
	return stats
}
