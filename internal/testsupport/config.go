// Package testsupport provides fixtures shared by package tests: an isolated
// configuration, synthetic audio, and token builders.
package testsupport

import (
	"path/filepath"
	"testing"

	"captionsync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.RetryDB = filepath.Join(base, "retries.db")
	cfgVal.Logging.Format = "json"
	cfgVal.Retry.BaseDelay = 0
	cfgVal.Retry.MaxDelay = 0

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithoutRetryPersistence keeps retry records in memory only.
func WithoutRetryPersistence() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Retry.Persist = false
	}
}

// WithCaptionFormat sets the caption output format.
func WithCaptionFormat(format string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Captions.Format = format
	}
}

// WithSyncDisabled turns off audio offset correction.
func WithSyncDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Sync.Enabled = false
	}
}

// WithMetricsTextfile exports metrics into the temp directory.
func WithMetricsTextfile() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Metrics.Textfile = filepath.Join(b.baseDir, "metrics", "captionsync.prom")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
