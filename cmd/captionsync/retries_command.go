package main

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"captionsync/internal/retry"
	"captionsync/internal/retrylog"
)

func newRetriesCommand(ctx *commandContext) *cobra.Command {
	var runID string
	var operation string
	var sinceHours int
	var pruneDays int

	cmd := &cobra.Command{
		Use:   "retries",
		Short: "Show retry statistics from the retry database",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openRetryStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if pruneDays > 0 {
				removed, err := store.Prune(cmd.Context(), time.Now().AddDate(0, 0, -pruneDays))
				if err != nil {
					return fmt.Errorf("prune retry records: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Pruned %d retry records older than %d days\n", removed, pruneDays)
			}

			filter := retrylog.Filter{RunID: runID, Operation: operation}
			if sinceHours > 0 {
				filter.Since = time.Now().Add(-time.Duration(sinceHours) * time.Hour)
			}
			stats, err := store.Statistics(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("load retry statistics: %w", err)
			}
			return writeOutput(cmd, ctx.outputFormat(), stats, func(w io.Writer) error {
				return printRetryStatistics(w, stats, shouldColorize(w))
			})
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Only records of this run id")
	cmd.Flags().StringVar(&operation, "operation", "", "Only records of this operation")
	cmd.Flags().IntVar(&sinceHours, "since-hours", 0, "Only records from the last N hours")
	cmd.Flags().IntVar(&pruneDays, "prune-days", 0, "Delete records older than N days first")
	return cmd
}

func printRetryStatistics(w io.Writer, s retry.Statistics, colorize bool) error {
	if s.TotalOperations == 0 && s.FailedAttempts == 0 {
		fmt.Fprintln(w, "No retry records")
		return nil
	}
	fmt.Fprintln(w, renderTable("Retries", []string{"Metric", "Value"}, [][]string{
		{"Operations", fmt.Sprintf("%d", s.TotalOperations)},
		{"Successful", fmt.Sprintf("%d", s.Successful)},
		{"Failed", fmt.Sprintf("%d", s.Failed)},
		{"Failed attempts", fmt.Sprintf("%d", s.FailedAttempts)},
		{"Success rate", fmt.Sprintf("%.1f%%", s.SuccessRate)},
		{"Average execution", s.AverageExecutionTime.Round(time.Millisecond).String()},
		{"Average retries", fmt.Sprintf("%.2f", s.AverageRetryCount)},
	}, []columnAlignment{alignLeft, alignRight}, colorize))

	if len(s.ByOperation) > 0 {
		rows := make([][]string, 0, len(s.ByOperation))
		for _, op := range s.ByOperation {
			rows = append(rows, []string{
				op.Operation,
				fmt.Sprintf("%d", op.Successes),
				fmt.Sprintf("%d", op.FailedAttempts),
				fmt.Sprintf("%d", op.FinalFailures),
			})
		}
		fmt.Fprintln(w, renderTable("By operation", []string{"Operation", "Successes", "Failed attempts", "Final failures"}, rows,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignRight}, colorize))
	}

	if len(s.ByReason) > 0 {
		reasons := make([]string, 0, len(s.ByReason))
		for reason := range s.ByReason {
			reasons = append(reasons, string(reason))
		}
		slices.Sort(reasons)
		rows := make([][]string, 0, len(reasons))
		for _, reason := range reasons {
			rows = append(rows, []string{reason, fmt.Sprintf("%d", s.ByReason[retry.Reason(reason)])})
		}
		fmt.Fprintln(w, renderTable("By reason", []string{"Reason", "Count"}, rows, []columnAlignment{alignLeft, alignRight}, colorize))
	}
	return nil
}
