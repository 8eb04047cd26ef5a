package transcript

const (
	reasonableWordMin = 0.05
	reasonableWordMax = 1.5
)

// WordTimingQuality scores a word sequence in [0,1] as the mean of the
// measured-timing ratio, the fraction of plausible word durations, the
// non-overlap ratio, and the mean confidence.
func WordTimingQuality(words []Token) float64 {
	if len(words) == 0 {
		return 0
	}
	n := float64(len(words))

	var estimated, reasonable int
	for _, w := range words {
		if w.IsEstimated {
			estimated++
		}
		if d := w.Duration(); d >= reasonableWordMin && d <= reasonableWordMax {
			reasonable++
		}
	}

	overlaps := 0
	for i := 0; i+1 < len(words); i++ {
		if words[i].End > words[i+1].Start {
			overlaps++
		}
	}
	pairs := max(1, len(words)-1)

	factors := []float64{
		1 - float64(estimated)/n,
		float64(reasonable) / n,
		1 - float64(overlaps)/float64(pairs),
		MeanConfidence(words),
	}
	var sum float64
	for _, f := range factors {
		sum += f
	}
	return sum / float64(len(factors))
}
