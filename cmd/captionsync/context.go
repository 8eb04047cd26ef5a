package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"captionsync/internal/collab"
	"captionsync/internal/config"
	"captionsync/internal/logging"
	"captionsync/internal/metrics"
	"captionsync/internal/pipeline"
	"captionsync/internal/retry"
	"captionsync/internal/retrylog"
	"captionsync/internal/transcript"
)

type commandContext struct {
	configFlag *string
	formatFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, formatFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		formatFlag: formatFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) outputFormat() outputFormat {
	if c.formatFlag == nil {
		return formatText
	}
	format, _ := parseOutputFormat(*c.formatFlag)
	return format
}

func (c *commandContext) openRetryStore() (*retrylog.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := retrylog.Open(cfg.Paths.RetryDB)
	if err != nil {
		return nil, fmt.Errorf("open retry database: %w", err)
	}
	return store, nil
}

// jobOptions are the flags shared by commands that run the pipeline.
type jobOptions struct {
	transcript string
	unit       string
	glossary   string
	source     string
	target     string
	formality  string
}

func (o *jobOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.transcript, "transcript", "t", "", "Recognizer JSON (defaults to <audio>.json)")
	cmd.Flags().StringVar(&o.unit, "unit", "s", "Timestamp unit of the transcript: s or ms")
	cmd.Flags().StringVarP(&o.glossary, "glossary", "g", "", "JSON glossary used as the translation backend")
	cmd.Flags().StringVar(&o.source, "source-lang", "", "Source language (defaults to the transcript language)")
	cmd.Flags().StringVar(&o.target, "target-lang", "", "Target language; enables translation")
	cmd.Flags().StringVar(&o.formality, "formality", "", "Translation formality: default, more, less, prefer_more, prefer_less")
}

// apply overrides cfg with the flags that were set.
func (o *jobOptions) apply(cfg *config.Config) {
	if o.source != "" {
		cfg.Translation.SourceLanguage = o.source
	}
	if o.target != "" {
		cfg.Translation.TargetLanguage = o.target
	}
	if o.formality != "" {
		cfg.Translation.Formality = o.formality
	}
}

func (o *jobOptions) dependencies(logger *slog.Logger) (pipeline.Dependencies, error) {
	unit, err := transcript.ParseUnit(o.unit)
	if err != nil {
		return pipeline.Dependencies{}, err
	}
	deps := pipeline.Dependencies{
		Recognizer: collab.FileRecognizer{Path: o.transcript, Unit: unit},
		Logger:     logger,
	}
	if o.glossary != "" {
		glossary, err := collab.LoadGlossary(o.glossary)
		if err != nil {
			return pipeline.Dependencies{}, err
		}
		deps.Translator = glossary
	}
	return deps, nil
}

// newPipeline wires a pipeline with the persistent retry sink when enabled.
// The returned closer releases the sink.
func (c *commandContext) newPipeline(cfg *config.Config, deps pipeline.Dependencies) (*pipeline.Pipeline, io.Closer, error) {
	var closer io.Closer = nopCloser{}
	if cfg.Retry.Persist {
		store, err := c.openRetryStore()
		if err != nil {
			return nil, nil, err
		}
		deps.Sinks = append(deps.Sinks, retry.Sink(store))
		closer = store
	}
	p, err := pipeline.New(cfg, deps)
	if err != nil {
		_ = closer.Close()
		return nil, nil, err
	}
	return p, closer, nil
}

// runLogger tees the logger into a per-run JSON file and prunes old ones.
func runLogger(cfg *config.Config, logger *slog.Logger, runID string) (*slog.Logger, io.Closer) {
	if cfg.Paths.LogDir == "" {
		return logger, nopCloser{}
	}
	logging.PruneRunLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, time.Now())
	path := filepath.Join(cfg.Paths.LogDir, "run-"+runID+".jsonl")
	teed, closer, err := logging.TeeToFile(logger, path)
	if err != nil {
		logging.WarnWithContext(logger, "per-run log unavailable", "run_log_failed",
			logging.String("path", path),
			logging.String(logging.FieldImpact, "run is only logged to the main log"),
			logging.Error(err),
		)
		return logger, nopCloser{}
	}
	return teed, closer
}

func exportMetrics(cfg *config.Config, logger *slog.Logger, c metrics.Collector) {
	if strings.TrimSpace(cfg.Metrics.Textfile) == "" {
		return
	}
	if err := pipeline.ExportMetrics(cfg, metrics.NewExporter(), c); err != nil {
		logging.WarnWithContext(logger, "metrics export failed", "metrics_export_failed",
			logging.String(logging.FieldErrorHint, "check metrics.textfile"),
			logging.Error(err),
		)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
