package quality

import (
	"time"

	"captionsync/internal/transcript"
)

// Stage metric keys recognized by BuildReport.
const (
	MetricSyncConfidence      = "sync_confidence"
	MetricSegmentationQuality = "segmentation_quality"
	MetricWordTimingQuality   = "word_timing_quality"
)

// ReportInput carries everything BuildReport looks at.
type ReportInput struct {
	RunID                   string
	TranscriptionConfidence float64
	// Segments are the recognized segments; Translated are the caption
	// segments in the target language. Without a translation, Segments are
	// also used for timing validation.
	Segments       []transcript.Token
	Translated     []transcript.Token
	StageMetrics   map[string]float64
	RetryCount     int
	ProcessingTime time.Duration
}

// Report is the end-of-run quality summary.
type Report struct {
	RunID             string             `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	OverallQuality    Label              `json:"overall_quality" yaml:"overall_quality"`
	Confidence        ConfidenceMetrics  `json:"confidence_metrics" yaml:"confidence_metrics"`
	Speakers          []SpeakerInfo      `json:"speaker_analysis" yaml:"speaker_analysis"`
	Transcription     Validation         `json:"transcription" yaml:"transcription"`
	Translation       Validation         `json:"translation" yaml:"translation"`
	Timing            Validation         `json:"timing" yaml:"timing"`
	StageMetrics      map[string]float64 `json:"stage_metrics,omitempty" yaml:"stage_metrics,omitempty"`
	Recommendations   []string           `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
	RetryCount        int                `json:"retry_count" yaml:"retry_count"`
	ProcessingSeconds float64            `json:"processing_time" yaml:"processing_time"`
}

// Issues returns every validation issue in stage order.
func (r Report) Issues() []string {
	var out []string
	out = append(out, r.Transcription.Issues...)
	out = append(out, r.Translation.Issues...)
	out = append(out, r.Timing.Issues...)
	return out
}

// AllValid reports whether all three validations passed.
func (r Report) AllValid() bool {
	return r.Transcription.Valid && r.Translation.Valid && r.Timing.Valid
}

// BuildReport validates the run and grades it. The grade follows LabelFor on
// the combined confidence, except that EXCELLENT also requires every
// validation to pass; otherwise it is capped at GOOD.
func BuildReport(in ReportInput, opts Options) Report {
	captions := in.Translated
	translated := len(in.Translated) > 0
	if !translated {
		captions = in.Segments
	}

	r := Report{
		RunID:             in.RunID,
		Transcription:     ValidateTranscription(in.TranscriptionConfidence, in.Segments, opts),
		Timing:            ValidateTiming(captions, opts),
		Speakers:          AnalyzeSpeakers(in.Segments),
		StageMetrics:      in.StageMetrics,
		RetryCount:        in.RetryCount,
		ProcessingSeconds: in.ProcessingTime.Seconds(),
	}
	if translated {
		r.Translation = ValidateTranslation(in.Segments, in.Translated, opts)
	} else {
		r.Translation = Validation{Valid: true}
	}

	estimate := TranslationEstimate(in.Segments, in.Translated, opts)
	r.Confidence = ScoreConfidence(in.TranscriptionConfidence, in.Segments, estimate)
	r.OverallQuality = r.Confidence.Label
	if r.OverallQuality == Excellent && !r.AllValid() {
		r.OverallQuality = Good
	}
	r.Recommendations = recommend(r)
	return r
}

func recommend(r Report) []string {
	var out []string
	if !r.Transcription.Valid {
		out = append(out, "Consider a higher-accuracy transcription model or cleaner source audio")
	}
	if !r.Translation.Valid {
		out = append(out, "Check the translation settings or target language")
	}
	if !r.Timing.Valid {
		out = append(out, "Adjust segmentation and block timing parameters")
	}
	if len(r.Translation.Warnings) > 0 {
		out = append(out, "Review segments whose translation matches the source or repeats")
	}
	if v, ok := r.StageMetrics[MetricSyncConfidence]; ok && v < 0.3 {
		out = append(out, "Audio offset could not be estimated reliably; verify sync manually")
	}
	if v, ok := r.StageMetrics[MetricSegmentationQuality]; ok && v < 0.5 {
		out = append(out, "Utterance segmentation scored low; consider tuning the pause threshold")
	}
	if r.Confidence.Overall < 0.6 {
		out = append(out, "Manual review of the captions is recommended")
	}
	return out
}
