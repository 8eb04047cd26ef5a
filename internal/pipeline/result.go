package pipeline

import (
	"time"

	"captionsync/internal/audiosync"
	"captionsync/internal/language"
	"captionsync/internal/metrics"
	"captionsync/internal/quality"
	"captionsync/internal/segmenter"
	"captionsync/internal/stabilizer"
	"captionsync/internal/timing"
	"captionsync/internal/transcript"
)

// Result holds everything a run produced. Fields of stages that did not run
// keep their zero value.
type Result struct {
	RunID      string
	AudioPath  string
	OutputPath string

	Transcript        transcript.Transcript
	Words             []transcript.Token
	Repair            timing.Stats
	WordTimingQuality float64

	// Timeline is the segment-level timeline after offset correction.
	Timeline    []transcript.Token
	Correction  audiosync.SyncCorrection
	Applied     audiosync.ApplyResult
	SyncQuality audiosync.SyncQuality

	Utterances          []segmenter.Utterance
	Merged              int
	Split               int
	SegmentationQuality float64
	Pauses              segmenter.PauseStatistics

	Translated     []transcript.Token
	TargetLanguage string
	Redistributed  bool
	Reprocess      ReprocessSummary

	Blocks []stabilizer.DisplayBlock

	Report        quality.Report
	CaptionIssues []string
	Retries       int
	Metrics       metrics.Collector
	Elapsed       time.Duration
}

// ReprocessSummary counts the segment reprocessing outcomes.
type ReprocessSummary struct {
	Findings    int `json:"findings" yaml:"findings"`
	Attempted   int `json:"attempted" yaml:"attempted"`
	Reprocessed int `json:"reprocessed" yaml:"reprocessed"`
	Failed      int `json:"failed" yaml:"failed"`
}

// Summary is the printable view of a Result.
type Summary struct {
	RunID           string                   `json:"run_id" yaml:"run_id"`
	Source          string                   `json:"source,omitempty" yaml:"source,omitempty"`
	Output          string                   `json:"output,omitempty" yaml:"output,omitempty"`
	OverallQuality  quality.Label            `json:"overall_quality" yaml:"overall_quality"`
	Confidence      float64                  `json:"confidence" yaml:"confidence"`
	Sync            audiosync.SyncCorrection `json:"sync" yaml:"sync"`
	SyncQuality     string                   `json:"sync_quality,omitempty" yaml:"sync_quality,omitempty"`
	Words           int                      `json:"words" yaml:"words"`
	RepairedWords   int                      `json:"repaired_words" yaml:"repaired_words"`
	Utterances      int                      `json:"utterances" yaml:"utterances"`
	Captions        int                      `json:"captions" yaml:"captions"`
	Translated      bool                     `json:"translated" yaml:"translated"`
	Language        string                   `json:"language,omitempty" yaml:"language,omitempty"`
	TargetLanguage  string                   `json:"target_language,omitempty" yaml:"target_language,omitempty"`
	Reprocess       ReprocessSummary         `json:"reprocess" yaml:"reprocess"`
	Retries         int                      `json:"retries" yaml:"retries"`
	Issues          []string                 `json:"issues,omitempty" yaml:"issues,omitempty"`
	Recommendations []string                 `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
	ElapsedSeconds  float64                  `json:"elapsed_seconds" yaml:"elapsed_seconds"`
}

// Summary condenses r for display.
func (r *Result) Summary() Summary {
	captionCount := len(r.Blocks)
	if len(r.Translated) > 0 {
		captionCount = len(r.Translated)
	}
	issues := append(r.Report.Issues(), r.CaptionIssues...)
	var target string
	if r.TargetLanguage != "" {
		target = language.DisplayName(r.TargetLanguage)
	}
	return Summary{
		RunID:           r.RunID,
		Source:          r.AudioPath,
		Output:          r.OutputPath,
		OverallQuality:  r.Report.OverallQuality,
		Confidence:      r.Report.Confidence.Overall,
		Sync:            r.Correction,
		SyncQuality:     r.SyncQuality.Quality,
		Words:           len(r.Words),
		RepairedWords:   r.Repair.Total(),
		Utterances:      len(r.Utterances),
		Captions:        captionCount,
		Translated:      len(r.Translated) > 0,
		Language:        language.DisplayName(r.Transcript.LanguageCode),
		TargetLanguage:  target,
		Reprocess:       r.Reprocess,
		Retries:         r.Retries,
		Issues:          issues,
		Recommendations: r.Report.Recommendations,
		ElapsedSeconds:  r.Elapsed.Seconds(),
	}
}
