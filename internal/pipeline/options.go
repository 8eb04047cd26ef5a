package pipeline

import (
	"time"

	"captionsync/internal/audiosync"
	"captionsync/internal/captions"
	"captionsync/internal/config"
	"captionsync/internal/language"
	"captionsync/internal/quality"
	"captionsync/internal/reprocess"
	"captionsync/internal/retry"
	"captionsync/internal/segmenter"
	"captionsync/internal/stabilizer"
	"captionsync/internal/timing"
)

// TimingOptions maps the [timing] section.
func TimingOptions(cfg *config.Config) timing.Options {
	return timing.Options{
		MinGap:      cfg.Timing.MinWordGap,
		MinDuration: cfg.Timing.MinWordDuration,
		MaxDuration: cfg.Timing.MaxWordDuration,
	}
}

// SyncOptions maps the [sync] section.
func SyncOptions(cfg *config.Config) audiosync.Options {
	opts := audiosync.DefaultOptions()
	s := cfg.Sync
	opts.MaxOffset = s.MaxOffsetSeconds
	opts.MinConfidence = s.MinConfidence
	opts.MainThreshold = s.MainThreshold
	opts.OnsetStep = s.OnsetStep
	opts.OnsetTolerance = s.OnsetTolerance
	opts.OnsetMinSeparation = s.OnsetMinSeparation
	opts.CorrelationResolution = s.CorrelationResolution
	opts.RhythmRange = s.RhythmRange
	opts.RhythmStep = s.RhythmStep
	opts.EdgeFactor = s.EdgeFactor
	opts.ShortFactor = s.ShortFactor
	opts.LongFactor = s.LongFactor
	opts.ConfidenceFloor = s.ConfidenceFloor
	opts.MaxShift = s.MaxShiftSeconds
	opts.MaxDurationChange = s.MaxDurationChange
	return opts
}

// SegmenterOptions maps the [segmentation] section.
func SegmenterOptions(cfg *config.Config) segmenter.Options {
	s := cfg.Segmentation
	return segmenter.Options{
		PauseThreshold:   s.PauseThreshold,
		MergeMaxDuration: s.MergeMaxDuration,
		MergeMaxGap:      s.MergeMaxGap,
		SplitMaxDuration: s.SplitMaxDuration,
		SplitTarget:      s.SplitTarget,
		Conjunctions:     append([]string(nil), s.Conjunctions...),
	}
}

// StabilizerOptions maps the [blocks] section.
func StabilizerOptions(cfg *config.Config) stabilizer.Options {
	return stabilizer.Options{WordsPerBlock: cfg.Blocks.WordsPerBlock, Overlap: cfg.Blocks.Overlap}
}

// QualityOptions maps the [quality] section.
func QualityOptions(cfg *config.Config) quality.Options {
	q := cfg.Quality
	return quality.Options{
		MinConfidence:           q.MinConfidence,
		MaxLowConfidenceRatio:   q.MaxLowConfidence,
		MaxInvalidDurationRatio: q.MaxInvalidDuration,
		MinSegmentDuration:      q.MinSegmentDuration,
		MaxSegmentDuration:      q.MaxSegmentDuration,
		MinCharsPerSecond:       q.MinCharsPerSecond,
		MaxCharsPerSecond:       q.MaxCharsPerSecond,
		MinReadingTextLength:    q.MinReadingTextLength,
		MinLengthRatio:          q.MinLengthRatio,
		MaxLengthRatio:          q.MaxLengthRatio,
	}
}

// RetryOptions maps the [retry] section. Delays are configured in seconds.
func RetryOptions(cfg *config.Config) retry.Options {
	r := cfg.Retry
	return retry.Options{
		MaxRetries:  r.MaxRetries,
		BaseDelay:   seconds(r.BaseDelay),
		MaxDelay:    seconds(r.MaxDelay),
		Exponential: r.Exponential,
		Jitter:      r.Jitter,
		Timeout:     time.Duration(r.TimeoutSeconds) * time.Second,
	}
}

// ReprocessOptions maps the [reprocess] and [translation] sections.
func ReprocessOptions(cfg *config.Config) reprocess.Options {
	r := cfg.Reprocess
	formality, _ := language.ParseFormality(cfg.Translation.Formality)
	return reprocess.Options{
		ConfidenceThreshold: r.ConfidenceThreshold,
		ConfidenceBoost:     r.ConfidenceBoost,
		MinDuration:         r.MinDuration,
		MaxDuration:         r.MaxDuration,
		Concurrency:         r.Concurrency,
		SourceLanguage:      cfg.Translation.SourceLanguage,
		TargetLanguage:      cfg.Translation.TargetLanguage,
		Formality:           formality,
	}
}

// CaptionOptions maps the [captions] section. An unknown format falls back
// to SRT; config validation rejects it earlier.
func CaptionOptions(cfg *config.Config) captions.Options {
	c := cfg.Captions
	format, err := captions.ParseFormat(c.Format)
	if err != nil {
		format = captions.FormatSRT
	}
	return captions.Options{
		Format:          format,
		MaxCharsPerLine: c.MaxCharsPerLine,
		SpeakerLabels:   c.SpeakerLabels,
		Style: captions.Style{
			FontName: c.FontName,
			FontSize: c.FontSize,
			Outline:  c.Outline,
			Shadow:   c.Shadow,
			FadeIn:   c.FadeInMillis,
			FadeOut:  c.FadeOutMillis,
		},
	}
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
