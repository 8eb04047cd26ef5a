package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"captionsync/internal/audiosync"
	"captionsync/internal/language"
	"captionsync/internal/pipeline"
	"captionsync/internal/quality"
	"captionsync/internal/segmenter"
)

// qualityView is the structured output of the report command.
type qualityView struct {
	Language    string                    `json:"language" yaml:"language"`
	Report      quality.Report            `json:"report" yaml:"report"`
	Sync        audiosync.SyncCorrection  `json:"sync" yaml:"sync"`
	SyncQuality audiosync.SyncQuality     `json:"sync_validation" yaml:"sync_validation"`
	Pauses      segmenter.PauseStatistics `json:"pause_statistics" yaml:"pause_statistics"`
	Utterances  []segmenter.Utterance     `json:"utterances,omitempty" yaml:"utterances,omitempty"`
}

func newReportCommand(ctx *commandContext) *cobra.Command {
	var job jobOptions
	var withUtterances bool

	cmd := &cobra.Command{
		Use:   "report <audio>",
		Short: "Run the pipeline without writing captions and print the quality report",
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
			deps, err := job.dependencies(logger)
			if err != nil {
				return err
			}
			p, closer, err := ctx.newPipeline(cfg, deps)
			if err != nil {
				return err
			}
			defer closer.Close()

			res, err := p.Run(cmd.Context(), pipeline.Request{AudioPath: strings.TrimSpace(args[0])})
			if err != nil {
				return describeRunError(err)
			}
			view := qualityView{
				Language:    language.DisplayName(res.Transcript.LanguageCode),
				Report:      res.Report,
				Sync:        res.Correction,
				SyncQuality: res.SyncQuality,
				Pauses:      res.Pauses,
			}
			if withUtterances {
				view.Utterances = res.Utterances
			}
			return writeOutput(cmd, ctx.outputFormat(), view, func(w io.Writer) error {
				return printQualityReport(w, view, shouldColorize(w))
			})
		},
	}

	job.register(cmd)
	cmd.Flags().BoolVar(&withUtterances, "utterances", false, "Include the segmented utterances")
	return cmd
}

func printQualityReport(w io.Writer, v qualityView, colorize bool) error {
	r := v.Report
	c := r.Confidence
	fmt.Fprintln(w, renderTable("Quality", []string{"Metric", "Value"}, [][]string{
		{"Language", v.Language},
		{"Overall", qualityColor(string(r.OverallQuality), colorize)},
		{"Overall confidence", fmt.Sprintf("%.3f", c.Overall)},
		{"Transcription", fmt.Sprintf("%.3f", c.Transcription)},
		{"Translation", fmt.Sprintf("%.3f", c.Translation)},
		{"Timing", fmt.Sprintf("%.3f", c.Timing)},
		{"Retries", fmt.Sprintf("%d", r.RetryCount)},
		{"Processing time", fmt.Sprintf("%.2fs", r.ProcessingSeconds)},
	}, []columnAlignment{alignLeft, alignRight}, colorize))

	validations := [][]string{
		{"Transcription", yesNo(r.Transcription.Valid), strings.Join(r.Transcription.Issues, "; ")},
		{"Translation", yesNo(r.Translation.Valid), strings.Join(r.Translation.Issues, "; ")},
		{"Timing", yesNo(r.Timing.Valid), strings.Join(r.Timing.Issues, "; ")},
	}
	fmt.Fprintln(w, renderTable("Validation", []string{"Check", "Valid", "Issues"}, validations, nil, colorize))

	if len(r.Speakers) > 0 {
		rows := make([][]string, 0, len(r.Speakers))
		for _, sp := range r.Speakers {
			rows = append(rows, []string{
				sp.Speaker,
				fmt.Sprintf("%d", sp.Segments),
				fmt.Sprintf("%.1fs", sp.TotalDuration),
				fmt.Sprintf("%.2f", sp.Confidence),
			})
		}
		fmt.Fprintln(w, renderTable("Speakers", []string{"Speaker", "Segments", "Duration", "Confidence"}, rows,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignRight}, colorize))
	}

	p := v.Pauses
	fmt.Fprintln(w, renderTable("Pauses", []string{"Count", "Average", "Median", "Min", "Max", ">1s", ">2s"}, [][]string{{
		fmt.Sprintf("%d", p.Count),
		fmt.Sprintf("%.2fs", p.Average),
		fmt.Sprintf("%.2fs", p.Median),
		fmt.Sprintf("%.2fs", p.Min),
		fmt.Sprintf("%.2fs", p.Max),
		fmt.Sprintf("%d", p.OverOne),
		fmt.Sprintf("%d", p.OverTwo),
	}}, []columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight}, colorize))

	fmt.Fprintf(w, "Sync: %s offset %+.2fs confidence %.2f quality %s\n",
		v.Sync.Method, v.Sync.OffsetSeconds, v.Sync.Confidence, orDash(v.SyncQuality.Quality))
	for _, rec := range r.Recommendations {
		fmt.Fprintf(w, "recommendation: %s\n", rec)
	}
	return nil
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
