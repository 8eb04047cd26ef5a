package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateTiming,
		c.validateBlocks,
		c.validateSegmentation,
		c.validateSync,
		c.validateQuality,
		c.validateRetry,
		c.validateReprocess,
		c.validateCaptions,
		c.validateTranslation,
		c.validateWatch,
		c.validateLogging,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateTiming() error {
	t := c.Timing
	if t.MinWordGap < 0 {
		return errors.New("timing.min_word_gap must be >= 0")
	}
	if t.MinWordDuration <= 0 {
		return errors.New("timing.min_word_duration must be positive")
	}
	if t.MaxWordDuration < t.MinWordDuration {
		return errors.New("timing.max_word_duration must be >= timing.min_word_duration")
	}
	if t.MinDisplayDuration < 0 {
		return errors.New("timing.min_display_duration must be >= 0")
	}
	if t.DelayCompensation < 0 {
		return errors.New("timing.delay_compensation must be >= 0")
	}
	return nil
}

func (c *Config) validateBlocks() error {
	if c.Blocks.WordsPerBlock <= 0 {
		return errors.New("blocks.words_per_block must be positive")
	}
	if c.Blocks.Overlap < 0 {
		return errors.New("blocks.block_overlap must be >= 0")
	}
	return nil
}

func (c *Config) validateSegmentation() error {
	s := c.Segmentation
	if s.PauseThreshold <= 0 {
		return errors.New("segmentation.pause_threshold must be positive")
	}
	if s.MergeMaxDuration < 0 || s.MergeMaxGap < 0 {
		return errors.New("segmentation.merge_max_duration and merge_max_gap must be >= 0")
	}
	if s.SplitTarget <= 0 || s.SplitMaxDuration <= s.SplitTarget {
		return errors.New("segmentation.split_max_duration must exceed a positive segmentation.split_target")
	}
	return nil
}

func (c *Config) validateSync() error {
	s := c.Sync
	if s.MaxOffsetSeconds <= 0 {
		return errors.New("sync.max_offset_seconds must be positive")
	}
	if err := ensureUnit("sync.min_confidence", s.MinConfidence); err != nil {
		return err
	}
	if err := ensureUnit("sync.main_threshold", s.MainThreshold); err != nil {
		return err
	}
	if s.MainThreshold < s.MinConfidence {
		return errors.New("sync.main_threshold must be >= sync.min_confidence")
	}
	if err := ensurePositive(map[string]float64{
		"sync.hop_seconds":            s.HopSeconds,
		"sync.onset_step":             s.OnsetStep,
		"sync.onset_tolerance":        s.OnsetTolerance,
		"sync.correlation_resolution": s.CorrelationResolution,
		"sync.rhythm_range":           s.RhythmRange,
		"sync.rhythm_step":            s.RhythmStep,
		"sync.edge_factor":            s.EdgeFactor,
		"sync.short_factor":           s.ShortFactor,
		"sync.long_factor":            s.LongFactor,
		"sync.max_shift_seconds":      s.MaxShiftSeconds,
		"sync.max_duration_change":    s.MaxDurationChange,
	}); err != nil {
		return err
	}
	if s.OnsetMinSeparation < 1 {
		return errors.New("sync.onset_min_separation must be at least 1 frame")
	}
	return ensureUnit("sync.confidence_floor", s.ConfidenceFloor)
}

func (c *Config) validateQuality() error {
	q := c.Quality
	for key, value := range map[string]float64{
		"quality.min_confidence_threshold":   q.MinConfidence,
		"quality.max_low_confidence_ratio":   q.MaxLowConfidence,
		"quality.max_invalid_duration_ratio": q.MaxInvalidDuration,
	} {
		if err := ensureUnit(key, value); err != nil {
			return err
		}
	}
	if q.MinSegmentDuration <= 0 || q.MaxSegmentDuration <= q.MinSegmentDuration {
		return errors.New("quality.max_segment_duration must exceed a positive quality.min_segment_duration")
	}
	if q.MinCharsPerSecond <= 0 || q.MaxCharsPerSecond <= q.MinCharsPerSecond {
		return errors.New("quality.max_chars_per_second must exceed a positive quality.min_chars_per_second")
	}
	if q.MinLengthRatio <= 0 || q.MaxLengthRatio <= q.MinLengthRatio {
		return errors.New("quality.max_length_ratio must exceed a positive quality.min_length_ratio")
	}
	if q.MinReadingTextLength < 0 {
		return errors.New("quality.min_reading_text_length must be >= 0")
	}
	return nil
}

func (c *Config) validateRetry() error {
	r := c.Retry
	if r.MaxRetries < 0 {
		return errors.New("retry.max_retries must be >= 0")
	}
	if r.BaseDelay < 0 {
		return errors.New("retry.base_delay must be >= 0")
	}
	if r.MaxDelay < r.BaseDelay {
		return errors.New("retry.max_delay must be >= retry.base_delay")
	}
	if r.Jitter < 0 || r.Jitter > 1 {
		return errors.New("retry.jitter must be between 0 and 1")
	}
	if err := ensureUnit("retry.confidence_threshold", r.ConfidenceThreshold); err != nil {
		return err
	}
	if r.TimeoutSeconds <= 0 {
		return errors.New("retry.timeout_seconds must be positive")
	}
	if r.Persist && strings.TrimSpace(c.Paths.RetryDB) == "" {
		return errors.New("paths.retry_db must be set when retry.persist is true")
	}
	return nil
}

func (c *Config) validateReprocess() error {
	r := c.Reprocess
	if err := ensureUnit("reprocess.confidence_threshold", r.ConfidenceThreshold); err != nil {
		return err
	}
	if err := ensureUnit("reprocess.confidence_boost", r.ConfidenceBoost); err != nil {
		return err
	}
	if r.MinDuration < 0 || r.MaxDuration <= r.MinDuration {
		return errors.New("reprocess.max_duration must exceed reprocess.min_duration")
	}
	if r.Concurrency <= 0 {
		return errors.New("reprocess.concurrency must be positive")
	}
	return nil
}

func (c *Config) validateCaptions() error {
	switch c.Captions.Format {
	case "srt", "vtt", "ass":
	default:
		return fmt.Errorf("captions.format must be one of srt, vtt, ass (got %q)", c.Captions.Format)
	}
	if c.Captions.MaxCharsPerLine <= 0 {
		return errors.New("captions.max_chars_per_line must be positive")
	}
	if c.Captions.FontSize <= 0 {
		return errors.New("captions.font_size must be positive")
	}
	if c.Captions.FadeInMillis < 0 || c.Captions.FadeOutMillis < 0 {
		return errors.New("captions.fade_in_ms and captions.fade_out_ms must be >= 0")
	}
	return nil
}

func (c *Config) validateTranslation() error {
	switch c.Translation.Formality {
	case "", "default", "more", "less", "prefer_more", "prefer_less":
		return nil
	default:
		return fmt.Errorf("translation.formality must be one of default, more, less, prefer_more, prefer_less (got %q)", c.Translation.Formality)
	}
}

func (c *Config) validateWatch() error {
	if _, err := filepath.Match(c.Watch.Pattern, "probe.json"); err != nil {
		return fmt.Errorf("watch.pattern is not a valid glob: %w", err)
	}
	if c.Watch.Concurrency <= 0 {
		return errors.New("watch.concurrency must be positive")
	}
	if c.Watch.PollInterval <= 0 {
		return errors.New("watch.poll_interval must be positive")
	}
	if c.Watch.SettleMillis < 0 {
		return errors.New("watch.settle_ms must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format must be auto, console, or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}

func ensureUnit(key string, value float64) error {
	if value < 0 || value > 1 {
		return fmt.Errorf("%s must be between 0 and 1", key)
	}
	return nil
}

func ensurePositive(values map[string]float64) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
