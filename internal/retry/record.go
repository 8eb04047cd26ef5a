package retry

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Status is the outcome recorded for one attempt.
type Status string

// Attempt outcomes.
const (
	StatusSuccess       Status = "success"
	StatusFailedAttempt Status = "failed_attempt"
	StatusFinalFailure  Status = "final_failure"
)

// State is a position in the per-operation state machine.
type State string

// Operation states.
const (
	StatePending    State = "PENDING"
	StateAttempting State = "ATTEMPTING"
	StateRetryWait  State = "RETRY_WAIT"
	StateSuccess    State = "SUCCESS"
	StateExhausted  State = "EXHAUSTED"
)

// Record describes one attempt. Records are values and never change once
// appended.
type Record struct {
	RunID         string        `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Operation     string        `json:"operation" yaml:"operation"`
	Status        Status        `json:"status" yaml:"status"`
	Attempt       int           `json:"attempt" yaml:"attempt"`
	RetryCount    int           `json:"retry_count" yaml:"retry_count"`
	Reason        Reason        `json:"reason,omitempty" yaml:"reason,omitempty"`
	Error         string        `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt     time.Time     `json:"started_at" yaml:"started_at"`
	FinishedAt    time.Time     `json:"finished_at" yaml:"finished_at"`
	ExecutionTime time.Duration `json:"execution_time" yaml:"execution_time"`
}

// Sink receives every record as it is appended.
type Sink interface {
	Append(ctx context.Context, rec Record) error
}

// Log is an in-memory, append-only record list safe for concurrent use.
type Log struct {
	mu      sync.RWMutex
	records []Record
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{}
}

// Append adds a record.
func (l *Log) Append(_ context.Context, rec Record) error {
	l.mu.Lock()
	l.records = append(l.records, rec)
	l.mu.Unlock()
	return nil
}

// Records returns a copy of all records in append order.
func (l *Log) Records() []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.records)
}

// Len reports the number of records.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}
