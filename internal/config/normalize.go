package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSegmentation()
	c.normalizeCaptions()
	c.normalizeTranslation()
	c.normalizeWatch()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		if value, ok := os.LookupEnv("CAPTIONSYNC_CACHE_DIR"); ok && strings.TrimSpace(value) != "" {
			c.Paths.CacheDir = value
		} else {
			c.Paths.CacheDir = defaultCacheDir
		}
	}
	var err error
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.RetryDB, err = expandPath(c.Paths.RetryDB); err != nil {
		return fmt.Errorf("paths.retry_db: %w", err)
	}
	if c.Metrics.Textfile, err = expandPath(strings.TrimSpace(c.Metrics.Textfile)); err != nil {
		return fmt.Errorf("metrics.textfile: %w", err)
	}
	return nil
}

func (c *Config) normalizeSegmentation() {
	words := make([]string, 0, len(c.Segmentation.Conjunctions))
	seen := make(map[string]struct{}, len(c.Segmentation.Conjunctions))
	for _, word := range c.Segmentation.Conjunctions {
		word = strings.ToLower(strings.TrimSpace(word))
		if word == "" {
			continue
		}
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		words = append(words, word)
	}
	c.Segmentation.Conjunctions = words
}

func (c *Config) normalizeCaptions() {
	c.Captions.Format = strings.ToLower(strings.TrimSpace(c.Captions.Format))
	if c.Captions.Format == "" {
		c.Captions.Format = defaultCaptionFormat
	}
	if c.Captions.Format == "webvtt" {
		c.Captions.Format = "vtt"
	}
	c.Captions.FontName = strings.TrimSpace(c.Captions.FontName)
	if c.Captions.FontName == "" {
		c.Captions.FontName = defaultFontName
	}
}

func (c *Config) normalizeTranslation() {
	c.Translation.SourceLanguage = strings.TrimSpace(c.Translation.SourceLanguage)
	c.Translation.TargetLanguage = strings.TrimSpace(c.Translation.TargetLanguage)
	c.Translation.Formality = strings.ToLower(strings.TrimSpace(c.Translation.Formality))
}

func (c *Config) normalizeWatch() {
	c.Watch.Pattern = strings.TrimSpace(c.Watch.Pattern)
	if c.Watch.Pattern == "" {
		c.Watch.Pattern = defaultWatchPattern
	}
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("CAPTIONSYNC_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if len(c.Logging.StageOverrides) > 0 {
		normalized := make(map[string]string, len(c.Logging.StageOverrides))
		for component, level := range c.Logging.StageOverrides {
			component = strings.ToLower(strings.TrimSpace(component))
			level = strings.ToLower(strings.TrimSpace(level))
			if component == "" || level == "" {
				continue
			}
			normalized[component] = level
		}
		c.Logging.StageOverrides = normalized
	}
}
