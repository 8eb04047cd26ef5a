package metrics

import (
	"maps"
	"slices"
	"time"
)

// Collector holds the measurements of one or more runs.
type Collector struct {
	Runs           int                      `json:"runs" yaml:"runs"`
	FailedRuns     int                      `json:"failed_runs" yaml:"failed_runs"`
	ProcessingTime time.Duration            `json:"processing_time" yaml:"processing_time"`
	StageTime      map[string]time.Duration `json:"stage_time,omitempty" yaml:"stage_time,omitempty"`

	Tokens              int `json:"tokens" yaml:"tokens"`
	RepairedTokens      int `json:"repaired_tokens" yaml:"repaired_tokens"`
	Utterances          int `json:"utterances" yaml:"utterances"`
	Blocks              int `json:"blocks" yaml:"blocks"`
	Retries             int `json:"retries" yaml:"retries"`
	ReprocessedSegments int `json:"reprocessed_segments" yaml:"reprocessed_segments"`

	Confidences []float64      `json:"confidences,omitempty" yaml:"confidences,omitempty"`
	SyncOffsets []float64      `json:"sync_offsets,omitempty" yaml:"sync_offsets,omitempty"`
	Quality     map[string]int `json:"quality,omitempty" yaml:"quality,omitempty"`
}

// ObserveStage adds d to the named stage.
func (c *Collector) ObserveStage(stage string, d time.Duration) {
	if c.StageTime == nil {
		c.StageTime = make(map[string]time.Duration)
	}
	c.StageTime[stage] += d
}

// Time starts a stopwatch for stage; call the returned func when the stage
// ends.
func (c *Collector) Time(stage string) func() {
	started := time.Now()
	return func() {
		c.ObserveStage(stage, time.Since(started))
	}
}

// ObserveQuality counts one run finishing with label.
func (c *Collector) ObserveQuality(label string, confidence float64) {
	if c.Quality == nil {
		c.Quality = make(map[string]int)
	}
	c.Quality[label]++
	c.Confidences = append(c.Confidences, confidence)
}

// ObserveSync records the offset applied in a run.
func (c *Collector) ObserveSync(offset float64) {
	c.SyncOffsets = append(c.SyncOffsets, offset)
}

// Merge returns the sum of c and other. Neither input is modified.
func (c Collector) Merge(other Collector) Collector {
	out := Collector{
		Runs:                c.Runs + other.Runs,
		FailedRuns:          c.FailedRuns + other.FailedRuns,
		ProcessingTime:      c.ProcessingTime + other.ProcessingTime,
		Tokens:              c.Tokens + other.Tokens,
		RepairedTokens:      c.RepairedTokens + other.RepairedTokens,
		Utterances:          c.Utterances + other.Utterances,
		Blocks:              c.Blocks + other.Blocks,
		Retries:             c.Retries + other.Retries,
		ReprocessedSegments: c.ReprocessedSegments + other.ReprocessedSegments,
		Confidences:         slices.Concat(c.Confidences, other.Confidences),
		SyncOffsets:         slices.Concat(c.SyncOffsets, other.SyncOffsets),
	}
	if len(c.StageTime)+len(other.StageTime) > 0 {
		out.StageTime = maps.Clone(c.StageTime)
		if out.StageTime == nil {
			out.StageTime = make(map[string]time.Duration, len(other.StageTime))
		}
		for stage, d := range other.StageTime {
			out.StageTime[stage] += d
		}
	}
	if len(c.Quality)+len(other.Quality) > 0 {
		out.Quality = maps.Clone(c.Quality)
		if out.Quality == nil {
			out.Quality = make(map[string]int, len(other.Quality))
		}
		for label, n := range other.Quality {
			out.Quality[label] += n
		}
	}
	return out
}

// AverageConfidence returns the mean observed confidence, or 0.
func (c Collector) AverageConfidence() float64 {
	if len(c.Confidences) == 0 {
		return 0
	}
	var sum float64
	for _, v := range c.Confidences {
		sum += v
	}
	return sum / float64(len(c.Confidences))
}

// AverageProcessingTime returns the mean wall-clock time per run.
func (c Collector) AverageProcessingTime() time.Duration {
	if c.Runs == 0 {
		return 0
	}
	return c.ProcessingTime / time.Duration(c.Runs)
}

// Stages returns stage names sorted alphabetically.
func (c Collector) Stages() []string {
	return slices.Sorted(maps.Keys(c.StageTime))
}
