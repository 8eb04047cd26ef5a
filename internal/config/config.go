package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and database locations.
type Paths struct {
	LogDir   string `toml:"log_dir"`
	CacheDir string `toml:"cache_dir"`
	RetryDB  string `toml:"retry_db"`
}

// Timing configures the timing normalizer.
type Timing struct {
	MinWordGap         float64 `toml:"min_word_gap"`
	MinWordDuration    float64 `toml:"min_word_duration"`
	MaxWordDuration    float64 `toml:"max_word_duration"`
	MinDisplayDuration float64 `toml:"min_display_duration"`
	// DelayCompensation is subtracted from every timestamp before repair.
	DelayCompensation float64 `toml:"delay_compensation"`
}

// Blocks configures the block stabilizer.
type Blocks struct {
	WordsPerBlock int     `toml:"words_per_block"`
	Overlap       float64 `toml:"block_overlap"`
}

// Segmentation configures the utterance segmenter.
type Segmentation struct {
	PauseThreshold   float64  `toml:"pause_threshold"`
	MergeMaxDuration float64  `toml:"merge_max_duration"`
	MergeMaxGap      float64  `toml:"merge_max_gap"`
	SplitMaxDuration float64  `toml:"split_max_duration"`
	SplitTarget      float64  `toml:"split_target"`
	Conjunctions     []string `toml:"conjunctions"`
}

// Sync configures audio offset estimation and adaptive application.
type Sync struct {
	Enabled               bool    `toml:"enabled"`
	MaxOffsetSeconds      float64 `toml:"max_offset_seconds"`
	MinConfidence         float64 `toml:"min_confidence"`
	MainThreshold         float64 `toml:"main_threshold"`
	HopSeconds            float64 `toml:"hop_seconds"`
	OnsetStep             float64 `toml:"onset_step"`
	OnsetTolerance        float64 `toml:"onset_tolerance"`
	OnsetMinSeparation    int     `toml:"onset_min_separation"`
	CorrelationResolution float64 `toml:"correlation_resolution"`
	RhythmRange           float64 `toml:"rhythm_range"`
	RhythmStep            float64 `toml:"rhythm_step"`
	EdgeFactor            float64 `toml:"edge_factor"`
	ShortFactor           float64 `toml:"short_factor"`
	LongFactor            float64 `toml:"long_factor"`
	ConfidenceFloor       float64 `toml:"confidence_floor"`
	MaxShiftSeconds       float64 `toml:"max_shift_seconds"`
	MaxDurationChange     float64 `toml:"max_duration_change"`
	FineTune              bool    `toml:"fine_tune"`
}

// Quality configures the quality controller thresholds.
type Quality struct {
	MinConfidence        float64 `toml:"min_confidence_threshold"`
	MaxLowConfidence     float64 `toml:"max_low_confidence_ratio"`
	MaxInvalidDuration   float64 `toml:"max_invalid_duration_ratio"`
	MinSegmentDuration   float64 `toml:"min_segment_duration"`
	MaxSegmentDuration   float64 `toml:"max_segment_duration"`
	MinCharsPerSecond    float64 `toml:"min_chars_per_second"`
	MaxCharsPerSecond    float64 `toml:"max_chars_per_second"`
	MinReadingTextLength int     `toml:"min_reading_text_length"`
	MinLengthRatio       float64 `toml:"min_length_ratio"`
	MaxLengthRatio       float64 `toml:"max_length_ratio"`
}

// Retry configures the retry orchestrator.
type Retry struct {
	MaxRetries          int     `toml:"max_retries"`
	BaseDelay           float64 `toml:"base_delay"`
	MaxDelay            float64 `toml:"max_delay"`
	Exponential         bool    `toml:"exponential"`
	Jitter              float64 `toml:"jitter"`
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	TimeoutSeconds      int     `toml:"timeout_seconds"`
	Persist             bool    `toml:"persist"`
}

// Reprocess configures the segment reprocessor.
type Reprocess struct {
	Enabled             bool    `toml:"enabled"`
	ConfidenceThreshold float64 `toml:"confidence_threshold"`
	ConfidenceBoost     float64 `toml:"confidence_boost"`
	MinDuration         float64 `toml:"min_duration"`
	MaxDuration         float64 `toml:"max_duration"`
	Concurrency         int     `toml:"concurrency"`
}

// Captions configures caption serialization.
type Captions struct {
	Format          string `toml:"format"`
	MaxCharsPerLine int    `toml:"max_chars_per_line"`
	SpeakerLabels   bool   `toml:"speaker_labels"`
	FontName        string `toml:"font_name"`
	FontSize        int    `toml:"font_size"`
	Outline         int    `toml:"outline"`
	Shadow          int    `toml:"shadow"`
	FadeInMillis    int    `toml:"fade_in_ms"`
	FadeOutMillis   int    `toml:"fade_out_ms"`
}

// Translation configures the machine-translation boundary.
type Translation struct {
	SourceLanguage string `toml:"source_language"`
	TargetLanguage string `toml:"target_language"`
	Formality      string `toml:"formality"`
}

// Metrics configures metric export.
type Metrics struct {
	Textfile string `toml:"textfile"`
}

// Watch configures the directory watcher.
type Watch struct {
	Pattern      string `toml:"pattern"`
	Concurrency  int    `toml:"concurrency"`
	PollInterval int    `toml:"poll_interval"`
	SettleMillis int    `toml:"settle_ms"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format         string            `toml:"format"`
	Level          string            `toml:"level"`
	RetentionDays  int               `toml:"retention_days"`
	StageOverrides map[string]string `toml:"stage_overrides"`
}

// Config encapsulates all configuration values for captionsync.
//
// Configuration sections by subsystem:
//   - Paths: log, cache, and retry database locations
//   - Timing: timing normalizer gaps and duration bounds
//   - Blocks: display block size and anti-flicker overlap
//   - Segmentation: pause threshold, merge and split rules
//   - Sync: audio offset estimators and adaptive application factors
//   - Quality: validation thresholds
//   - Retry: attempts, backoff, per-call timeout
//   - Reprocess: problematic segment re-translation
//   - Captions: output format and styling
//   - Translation: language pair and formality
//   - Metrics: Prometheus textfile export
//   - Watch: directory watcher settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths        Paths        `toml:"paths"`
	Timing       Timing       `toml:"timing"`
	Blocks       Blocks       `toml:"blocks"`
	Segmentation Segmentation `toml:"segmentation"`
	Sync         Sync         `toml:"sync"`
	Quality      Quality      `toml:"quality"`
	Retry        Retry        `toml:"retry"`
	Reprocess    Reprocess    `toml:"reprocess"`
	Captions     Captions     `toml:"captions"`
	Translation  Translation  `toml:"translation"`
	Metrics      Metrics      `toml:"metrics"`
	Watch        Watch        `toml:"watch"`
	Logging      Logging      `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// Parse decodes TOML data on top of the defaults, then normalizes and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("captionsync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log and cache directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.CacheDir, filepath.Dir(c.Paths.RetryDB)} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// EnergyCacheDir returns the directory holding cached audio energy profiles.
func (c *Config) EnergyCacheDir() string {
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.CacheDir, "energy")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
