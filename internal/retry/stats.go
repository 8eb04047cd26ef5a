package retry

import (
	"cmp"
	"slices"
	"time"
)

// OperationStats counts outcomes for one operation name.
type OperationStats struct {
	Operation      string `json:"operation" yaml:"operation"`
	Successes      int    `json:"successes" yaml:"successes"`
	FailedAttempts int    `json:"failed_attempts" yaml:"failed_attempts"`
	FinalFailures  int    `json:"final_failures" yaml:"final_failures"`
}

// Statistics aggregates a record set.
type Statistics struct {
	TotalOperations      int              `json:"total_operations" yaml:"total_operations"`
	Successful           int              `json:"successful_operations" yaml:"successful_operations"`
	Failed               int              `json:"failed_operations" yaml:"failed_operations"`
	FailedAttempts       int              `json:"failed_attempts" yaml:"failed_attempts"`
	SuccessRate          float64          `json:"success_rate" yaml:"success_rate"`
	AverageExecutionTime time.Duration    `json:"average_execution_time" yaml:"average_execution_time"`
	AverageRetryCount    float64          `json:"average_retry_count" yaml:"average_retry_count"`
	ByOperation          []OperationStats `json:"by_operation,omitempty" yaml:"by_operation,omitempty"`
	ByReason             map[Reason]int   `json:"by_reason,omitempty" yaml:"by_reason,omitempty"`
}

// Summarize computes statistics. An operation is finished by a success or a
// final failure; SuccessRate is the percentage of finished operations that
// succeeded. Averages cover successful operations only.
func Summarize(records []Record) Statistics {
	var s Statistics
	var execTotal time.Duration
	var retryTotal int
	byOp := map[string]*OperationStats{}
	for _, rec := range records {
		op, ok := byOp[rec.Operation]
		if !ok {
			op = &OperationStats{Operation: rec.Operation}
			byOp[rec.Operation] = op
		}
		switch rec.Status {
		case StatusSuccess:
			s.Successful++
			op.Successes++
			execTotal += rec.ExecutionTime
			retryTotal += rec.RetryCount
		case StatusFailedAttempt:
			s.FailedAttempts++
			op.FailedAttempts++
		case StatusFinalFailure:
			s.Failed++
			op.FinalFailures++
		}
		if rec.Reason != "" {
			if s.ByReason == nil {
				s.ByReason = map[Reason]int{}
			}
			s.ByReason[rec.Reason]++
		}
	}
	s.TotalOperations = s.Successful + s.Failed
	if s.TotalOperations > 0 {
		s.SuccessRate = float64(s.Successful) / float64(s.TotalOperations) * 100
	}
	if s.Successful > 0 {
		s.AverageExecutionTime = execTotal / time.Duration(s.Successful)
		s.AverageRetryCount = float64(retryTotal) / float64(s.Successful)
	}
	for _, op := range byOp {
		s.ByOperation = append(s.ByOperation, *op)
	}
	slices.SortFunc(s.ByOperation, func(a, b OperationStats) int {
		return cmp.Compare(a.Operation, b.Operation)
	})
	return s
}
