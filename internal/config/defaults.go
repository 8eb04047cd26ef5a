package config

const (
	defaultConfigPath = "~/.config/captionsync/config.toml"
	defaultLogDir     = "~/.local/share/captionsync/logs"
	defaultCacheDir   = "~/.cache/captionsync"
	defaultRetryDB    = "~/.local/share/captionsync/retries.db"

	defaultMinWordGap         = 0.02
	defaultMinWordDuration    = 0.4
	defaultMaxWordDuration    = 10.0
	defaultMinDisplayDuration = 0.3

	defaultWordsPerBlock = 38
	defaultBlockOverlap  = 0.1

	defaultPauseThreshold   = 0.5
	defaultMergeMaxDuration = 0.5
	defaultMergeMaxGap      = 1.0
	defaultSplitMaxDuration = 10.0
	defaultSplitTarget      = 5.0

	defaultMaxOffsetSeconds      = 10.0
	defaultSyncMinConfidence     = 0.3
	defaultSyncMainThreshold     = 0.7
	defaultHopSeconds            = 0.025
	defaultOnsetStep             = 0.05
	defaultOnsetTolerance        = 0.3
	defaultOnsetMinSeparation    = 10
	defaultCorrelationResolution = 0.1
	defaultRhythmRange           = 2.0
	defaultRhythmStep            = 0.1
	defaultEdgeFactor            = 0.7
	defaultShortFactor           = 0.8
	defaultLongFactor            = 1.1
	defaultConfidenceFloor       = 0.7
	defaultMaxShiftSeconds       = 3.0
	defaultMaxDurationChange     = 0.2

	defaultMinConfidenceThreshold = 0.7
	defaultMaxLowConfidenceRatio  = 0.3
	defaultMaxInvalidDuration     = 0.2
	defaultMinSegmentDuration     = 0.5
	defaultMaxSegmentDuration     = 10.0
	defaultMinCharsPerSecond      = 5.0
	defaultMaxCharsPerSecond      = 20.0
	defaultMinReadingTextLength   = 10
	defaultMinLengthRatio         = 0.3
	defaultMaxLengthRatio         = 3.0

	defaultMaxRetries          = 3
	defaultRetryBaseDelay      = 1.0
	defaultRetryMaxDelay       = 30.0
	defaultRetryConfidence     = 0.7
	defaultRetryTimeoutSeconds = 300

	defaultReprocessThreshold   = 0.6
	defaultReprocessBoost       = 0.2
	defaultReprocessMinDuration = 0.3
	defaultReprocessMaxDuration = 15.0
	defaultReprocessConcurrency = 4

	defaultCaptionFormat   = "srt"
	defaultMaxCharsPerLine = 42
	defaultFontName        = "Arial"
	defaultFontSize        = 18
	defaultOutline         = 2
	defaultShadow          = 1
	defaultFadeMillis      = 50

	defaultWatchPattern      = "*.json"
	defaultWatchConcurrency  = 2
	defaultWatchPollInterval = 5
	defaultWatchSettleMillis = 250

	defaultLogFormat        = "auto"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
)

// defaultConjunctions are the words an over-long utterance may be split before.
var defaultConjunctions = []string{"and", "but", "or", "so", "because", "while", "when", "if"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			CacheDir: defaultCacheDir,
			RetryDB:  defaultRetryDB,
		},
		Timing: Timing{
			MinWordGap:         defaultMinWordGap,
			MinWordDuration:    defaultMinWordDuration,
			MaxWordDuration:    defaultMaxWordDuration,
			MinDisplayDuration: defaultMinDisplayDuration,
		},
		Blocks: Blocks{
			WordsPerBlock: defaultWordsPerBlock,
			Overlap:       defaultBlockOverlap,
		},
		Segmentation: Segmentation{
			PauseThreshold:   defaultPauseThreshold,
			MergeMaxDuration: defaultMergeMaxDuration,
			MergeMaxGap:      defaultMergeMaxGap,
			SplitMaxDuration: defaultSplitMaxDuration,
			SplitTarget:      defaultSplitTarget,
			Conjunctions:     append([]string(nil), defaultConjunctions...),
		},
		Sync: Sync{
			Enabled:               true,
			MaxOffsetSeconds:      defaultMaxOffsetSeconds,
			MinConfidence:         defaultSyncMinConfidence,
			MainThreshold:         defaultSyncMainThreshold,
			HopSeconds:            defaultHopSeconds,
			OnsetStep:             defaultOnsetStep,
			OnsetTolerance:        defaultOnsetTolerance,
			OnsetMinSeparation:    defaultOnsetMinSeparation,
			CorrelationResolution: defaultCorrelationResolution,
			RhythmRange:           defaultRhythmRange,
			RhythmStep:            defaultRhythmStep,
			EdgeFactor:            defaultEdgeFactor,
			ShortFactor:           defaultShortFactor,
			LongFactor:            defaultLongFactor,
			ConfidenceFloor:       defaultConfidenceFloor,
			MaxShiftSeconds:       defaultMaxShiftSeconds,
			MaxDurationChange:     defaultMaxDurationChange,
		},
		Quality: Quality{
			MinConfidence:        defaultMinConfidenceThreshold,
			MaxLowConfidence:     defaultMaxLowConfidenceRatio,
			MaxInvalidDuration:   defaultMaxInvalidDuration,
			MinSegmentDuration:   defaultMinSegmentDuration,
			MaxSegmentDuration:   defaultMaxSegmentDuration,
			MinCharsPerSecond:    defaultMinCharsPerSecond,
			MaxCharsPerSecond:    defaultMaxCharsPerSecond,
			MinReadingTextLength: defaultMinReadingTextLength,
			MinLengthRatio:       defaultMinLengthRatio,
			MaxLengthRatio:       defaultMaxLengthRatio,
		},
		Retry: Retry{
			MaxRetries:          defaultMaxRetries,
			BaseDelay:           defaultRetryBaseDelay,
			MaxDelay:            defaultRetryMaxDelay,
			Exponential:         true,
			ConfidenceThreshold: defaultRetryConfidence,
			TimeoutSeconds:      defaultRetryTimeoutSeconds,
			Persist:             true,
		},
		Reprocess: Reprocess{
			Enabled:             true,
			ConfidenceThreshold: defaultReprocessThreshold,
			ConfidenceBoost:     defaultReprocessBoost,
			MinDuration:         defaultReprocessMinDuration,
			MaxDuration:         defaultReprocessMaxDuration,
			Concurrency:         defaultReprocessConcurrency,
		},
		Captions: Captions{
			Format:          defaultCaptionFormat,
			MaxCharsPerLine: defaultMaxCharsPerLine,
			SpeakerLabels:   true,
			FontName:        defaultFontName,
			FontSize:        defaultFontSize,
			Outline:         defaultOutline,
			Shadow:          defaultShadow,
			FadeInMillis:    defaultFadeMillis,
			FadeOutMillis:   defaultFadeMillis,
		},
		Watch: Watch{
			Pattern:      defaultWatchPattern,
			Concurrency:  defaultWatchConcurrency,
			PollInterval: defaultWatchPollInterval,
			SettleMillis: defaultWatchSettleMillis,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
