package audiosync

// Options tunes estimation and adaptive application.
type Options struct {
	MaxOffset     float64
	MinConfidence float64
	MainThreshold float64

	OnsetStep          float64
	OnsetTolerance     float64
	OnsetMinSeparation int

	CorrelationResolution float64
	RhythmRange           float64
	RhythmStep            float64

	EdgeFactor      float64
	ShortFactor     float64
	LongFactor      float64
	ConfidenceFloor float64

	MaxShift          float64
	MaxDurationChange float64

	OverlapGap         float64
	OverlapMinDuration float64
}

// DefaultOptions returns the tuned defaults.
func DefaultOptions() Options {
	return Options{
		MaxOffset:             10,
		MinConfidence:         0.3,
		MainThreshold:         0.7,
		OnsetStep:             0.05,
		OnsetTolerance:        0.3,
		OnsetMinSeparation:    10,
		CorrelationResolution: 0.1,
		RhythmRange:           2,
		RhythmStep:            0.1,
		EdgeFactor:            0.7,
		ShortFactor:           0.8,
		LongFactor:            1.1,
		ConfidenceFloor:       0.7,
		MaxShift:              3,
		MaxDurationChange:     0.2,
		OverlapGap:            0.1,
		OverlapMinDuration:    0.5,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	fill := func(v *float64, def float64) {
		if *v <= 0 {
			*v = def
		}
	}
	fill(&o.MaxOffset, d.MaxOffset)
	fill(&o.OnsetStep, d.OnsetStep)
	fill(&o.OnsetTolerance, d.OnsetTolerance)
	fill(&o.CorrelationResolution, d.CorrelationResolution)
	fill(&o.RhythmRange, d.RhythmRange)
	fill(&o.RhythmStep, d.RhythmStep)
	fill(&o.MaxShift, d.MaxShift)
	fill(&o.MaxDurationChange, d.MaxDurationChange)
	fill(&o.OverlapMinDuration, d.OverlapMinDuration)
	if o.OnsetMinSeparation <= 0 {
		o.OnsetMinSeparation = d.OnsetMinSeparation
	}
	if o.OverlapGap < 0 {
		o.OverlapGap = d.OverlapGap
	}
	if o.MainThreshold < o.MinConfidence {
		o.MainThreshold = o.MinConfidence
	}
	return o
}
