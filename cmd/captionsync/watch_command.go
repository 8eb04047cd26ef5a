package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"captionsync/internal/captions"
	"captionsync/internal/config"
	"captionsync/internal/fileutil"
	"captionsync/internal/logging"
	"captionsync/internal/metrics"
	"captionsync/internal/pipeline"
)

// runTotals accumulates metrics across watch jobs. The textfile is rewritten
// under the same lock so a later total is never overwritten by an earlier one.
type runTotals struct {
	cfg    *config.Config
	logger *slog.Logger

	mu    sync.Mutex
	total metrics.Collector
}

func (t *runTotals) add(c metrics.Collector) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total = t.total.Merge(c)
	exportMetrics(t.cfg, t.logger, t.total)
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var job jobOptions
	var outputDir string
	var audioExt string

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Caption every transcript that appears in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			job.apply(cfg)
			if job.transcript != "" {
				return fmt.Errorf("--transcript cannot be combined with watch; transcripts are read from the directory")
			}
			dir := strings.TrimSpace(args[0])
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				return fmt.Errorf("watch directory %q is not a directory", dir)
			}
			format, err := captions.ParseFormat(cfg.Captions.Format)
			if err != nil {
				return err
			}

			deps, err := job.dependencies(logger)
			if err != nil {
				return err
			}
			p, closer, err := ctx.newPipeline(cfg, deps)
			if err != nil {
				return err
			}
			defer closer.Close()

			totals := &runTotals{cfg: cfg, logger: logger}
			ext := "." + strings.TrimPrefix(strings.TrimSpace(audioExt), ".")
			w := &transcriptWatcher{
				dir:         dir,
				pattern:     cfg.Watch.Pattern,
				concurrency: cfg.Watch.Concurrency,
				poll:        time.Duration(cfg.Watch.PollInterval) * time.Second,
				settle:      time.Duration(cfg.Watch.SettleMillis) * time.Millisecond,
				logger:      logging.NewComponentLogger(logger, "watch"),
				process: func(runCtx context.Context, path string) error {
					audio := fileutil.ReplaceExt(path, ext)
					res, err := p.Run(runCtx, pipeline.Request{
						AudioPath:  audio,
						OutputPath: pipeline.OutputPathFor(audio, outputDir, format),
					})
					if res != nil {
						totals.add(res.Metrics)
					}
					return describeRunError(err)
				},
			}
			return w.Run(cmd.Context())
		},
	}

	job.register(cmd)
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for caption files (defaults to beside each transcript)")
	cmd.Flags().StringVar(&audioExt, "audio-ext", "wav", "Extension of the audio file next to each transcript")
	return cmd
}
