package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"captionsync/internal/captions"
	"captionsync/internal/pipeline"
	"captionsync/internal/retry"
	"captionsync/internal/services"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var job jobOptions
	var outputPath string
	var outputDir string
	var formatFlag string

	cmd := &cobra.Command{
		Use:   "sync <audio>",
		Short: "Align a transcript to its audio and write captions",
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
			if formatFlag != "" {
				cfg.Captions.Format = formatFlag
			}
			format, err := captions.ParseFormat(cfg.Captions.Format)
			if err != nil {
				return err
			}

			audio := strings.TrimSpace(args[0])
			out := strings.TrimSpace(outputPath)
			if out == "" {
				out = pipeline.OutputPathFor(audio, strings.TrimSpace(outputDir), format)
			}

			runID := uuid.NewString()
			logger, closeRunLog := runLogger(cfg, logger, runID)
			defer closeRunLog.Close()

			deps, err := job.dependencies(logger)
			if err != nil {
				return err
			}
			p, closer, err := ctx.newPipeline(cfg, deps)
			if err != nil {
				return err
			}
			defer closer.Close()

			res, runErr := p.Run(cmd.Context(), pipeline.Request{AudioPath: audio, OutputPath: out, RunID: runID})
			if res != nil {
				exportMetrics(cfg, logger, res.Metrics)
			}
			if runErr != nil {
				return describeRunError(runErr)
			}
			summary := res.Summary()
			return writeOutput(cmd, ctx.outputFormat(), summary, func(w io.Writer) error {
				return printSummary(w, summary, shouldColorize(w))
			})
		},
	}

	job.register(cmd)
	cmd.Flags().StringVar(&outputPath, "out", "", "Caption file to write")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Directory for the caption file (defaults to beside the audio)")
	cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Caption format: srt, vtt, or ass")
	return cmd
}

// describeRunError names the exhausted operation and its last cause.
func describeRunError(err error) error {
	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		return fmt.Errorf("%s failed after %d attempts: %w", exhausted.Operation, exhausted.Attempts, exhausted.Last)
	}
	if errors.Is(err, services.ErrMissingInput) {
		return fmt.Errorf("missing input: %w", err)
	}
	return err
}

func printSummary(w io.Writer, s pipeline.Summary, colorize bool) error {
	rows := [][]string{
		{"Run", s.RunID},
		{"Source", s.Source},
		{"Captions", s.Output},
		{"Quality", qualityColor(string(s.OverallQuality), colorize)},
		{"Confidence", fmt.Sprintf("%.2f", s.Confidence)},
		{"Sync", fmt.Sprintf("%s %+.2fs (confidence %.2f, %d adjusted)", s.Sync.Method, s.Sync.OffsetSeconds, s.Sync.Confidence, s.Sync.SegmentsAdjusted)},
		{"Words", fmt.Sprintf("%d (%d repaired)", s.Words, s.RepairedWords)},
		{"Utterances", fmt.Sprintf("%d", s.Utterances)},
		{"Cues", fmt.Sprintf("%d", s.Captions)},
		{"Language", s.Language},
		{"Translated", yesNo(s.Translated)},
		{"Retries", fmt.Sprintf("%d", s.Retries)},
		{"Elapsed", fmt.Sprintf("%.2fs", s.ElapsedSeconds)},
	}
	if s.SyncQuality != "" {
		rows = append(rows, []string{"Sync quality", s.SyncQuality})
	}
	if s.Translated {
		rows = append(rows, []string{"Target language", s.TargetLanguage})
		rows = append(rows, []string{"Reprocessed", fmt.Sprintf("%d of %d (%d failed)", s.Reprocess.Reprocessed, s.Reprocess.Attempted, s.Reprocess.Failed)})
	}
	fmt.Fprintln(w, renderTable("", []string{"Field", "Value"}, rows, nil, colorize))
	for _, issue := range s.Issues {
		fmt.Fprintf(w, "issue: %s\n", issue)
	}
	for _, rec := range s.Recommendations {
		fmt.Fprintf(w, "recommendation: %s\n", rec)
	}
	return nil
}
