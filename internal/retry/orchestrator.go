package retry

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"captionsync/internal/logging"
	"captionsync/internal/services"
)

// Options configures the retry policy.
type Options struct {
	MaxRetries  int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Exponential bool
	// Jitter spreads each delay uniformly by ±Jitter·delay. Zero disables it.
	Jitter float64
	// Timeout bounds each attempt. Zero disables the per-attempt deadline.
	Timeout time.Duration
}

// DefaultOptions returns three retries with exponential 1s..30s backoff and a
// five minute per-attempt deadline.
func DefaultOptions() Options {
	return Options{
		MaxRetries:  3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Exponential: true,
		Timeout:     5 * time.Minute,
	}
}

// Delay returns the wait after the failed attempt with zero-based index
// attempt, before jitter.
func (o Options) Delay(attempt int) time.Duration {
	if o.BaseDelay <= 0 {
		return 0
	}
	delay := o.BaseDelay
	if o.Exponential {
		for i := 0; i < attempt && (o.MaxDelay <= 0 || delay < o.MaxDelay); i++ {
			delay *= 2
		}
	}
	if o.MaxDelay > 0 && delay > o.MaxDelay {
		delay = o.MaxDelay
	}
	return delay
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepWithContext is the default Sleeper.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Orchestrator applies one retry policy to many operations. It is safe for
// concurrent use.
type Orchestrator struct {
	opts   Options
	log    *Log
	sinks  []Sink
	sleep  Sleeper
	jitter func() float64
	now    func() time.Time
	logger *slog.Logger
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithSleeper overrides how backoff waits are performed.
func WithSleeper(sleep Sleeper) Option {
	return func(o *Orchestrator) {
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

// WithSink forwards every record to sink as well as the in-memory log.
func WithSink(sink Sink) Option {
	return func(o *Orchestrator) {
		if sink != nil {
			o.sinks = append(o.sinks, sink)
		}
	}
}

// WithLog shares an existing in-memory log.
func WithLog(log *Log) Option {
	return func(o *Orchestrator) {
		if log != nil {
			o.log = log
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// New builds an Orchestrator.
func New(opts Options, options ...Option) *Orchestrator {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	o := &Orchestrator{
		opts:   opts,
		log:    NewLog(),
		sleep:  SleepWithContext,
		jitter: rand.Float64,
		now:    time.Now,
		logger: logging.NewNop(),
	}
	for _, opt := range options {
		opt(o)
	}
	o.logger = logging.NewComponentLogger(o.logger, "retry")
	return o
}

// Options returns the policy.
func (o *Orchestrator) Options() Options {
	return o.opts
}

// Log returns the in-memory record log.
func (o *Orchestrator) Log() *Log {
	return o.log
}

// Statistics summarizes the in-memory log.
func (o *Orchestrator) Statistics() Statistics {
	return Summarize(o.log.Records())
}

func (o *Orchestrator) backoff(attempt int) time.Duration {
	delay := o.opts.Delay(attempt)
	if o.opts.Jitter <= 0 || delay <= 0 {
		return delay
	}
	spread := float64(delay) * o.opts.Jitter * (2*o.jitter() - 1)
	return max(0, delay+time.Duration(spread))
}

func (o *Orchestrator) record(ctx context.Context, rec Record) {
	if id, ok := services.RunIDFromContext(ctx); ok {
		rec.RunID = id
	}
	_ = o.log.Append(ctx, rec)
	for _, sink := range o.sinks {
		if err := sink.Append(context.WithoutCancel(ctx), rec); err != nil {
			logging.WarnWithContext(o.logger, "retry record not persisted", "retry_record_failed",
				logging.String("operation", rec.Operation),
				logging.String(logging.FieldErrorHint, "check the retry database path and permissions"),
				logging.String(logging.FieldImpact, "retry statistics will be incomplete"),
				logging.Error(err),
			)
		}
	}
}

// Run executes fn until accept passes or the policy is exhausted. It returns
// the accepted result and the number of retries that preceded it.
//
// A nil accept accepts every result. Errors that services.IsRetriable
// rejects stop immediately and are returned as-is. After MaxRetries+1 failed
// attempts Run returns an *ExhaustedError. Cancellation of ctx is checked
// before every attempt and during backoff.
func Run[T any](ctx context.Context, o *Orchestrator, operation string, fn func(context.Context) (T, error), accept Predicate[T]) (T, int, error) {
	var zero T
	ctx = services.WithOperation(ctx, operation)
	logger := logging.WithContext(ctx, o.logger)
	state := StatePending
	transition := func(next State) {
		logger.Debug("retry state change",
			logging.String("from", string(state)),
			logging.String("to", string(next)),
		)
		state = next
	}

	var last error
	var lastRec Record
	for attempt := 0; attempt <= o.opts.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, attempt, services.Wrap(services.ErrTransient, "retry", operation, "canceled before attempt", err)
		}
		transition(StateAttempting)

		started := o.now()
		result, err := runAttempt(ctx, o.opts.Timeout, fn)
		finished := o.now()
		if err == nil && accept != nil {
			if rejection := accept(result); rejection != nil {
				err = rejection
			}
		}
		rec := Record{
			Operation:     operation,
			Attempt:       attempt + 1,
			RetryCount:    attempt,
			StartedAt:     started,
			FinishedAt:    finished,
			ExecutionTime: finished.Sub(started),
		}

		if err == nil {
			transition(StateSuccess)
			rec.Status = StatusSuccess
			o.record(ctx, rec)
			if attempt > 0 {
				logger.Info("operation succeeded after retries",
					logging.Int("attempts", attempt+1),
					logging.Duration("execution_time", rec.ExecutionTime),
				)
			}
			return result, attempt, nil
		}

		last = err
		rec.Reason = ReasonOf(err)
		rec.Error = err.Error()
		if ctx.Err() != nil || !services.IsRetriable(err) {
			rec.Status = StatusFinalFailure
			o.record(ctx, rec)
			return zero, attempt, err
		}
		if attempt == o.opts.MaxRetries {
			lastRec = rec
			break
		}

		rec.Status = StatusFailedAttempt
		o.record(ctx, rec)
		delay := o.backoff(attempt)
		logging.WarnWithContext(logger, "attempt failed; retrying", "retry_attempt_failed",
			logging.Int("attempt", attempt+1),
			logging.String("reason", string(rec.Reason)),
			logging.Duration("backoff", delay),
			logging.String(logging.FieldImpact, "operation will be retried"),
			logging.Error(err),
		)
		transition(StateRetryWait)
		if err := o.sleep(ctx, delay); err != nil {
			return zero, attempt, services.Wrap(services.ErrTransient, "retry", operation, "canceled during backoff", err)
		}
	}

	transition(StateExhausted)
	exhausted := &ExhaustedError{
		Operation:  operation,
		Attempts:   o.opts.MaxRetries + 1,
		RetryCount: o.opts.MaxRetries,
		Last:       last,
	}
	lastRec.Status = StatusFinalFailure
	o.record(ctx, lastRec)
	logging.ErrorWithContext(logger, "operation exhausted retries", "retry_exhausted",
		logging.Int("attempts", exhausted.Attempts),
		logging.String(logging.FieldErrorHint, "inspect the collaborator and the last failure cause"),
		logging.Error(last),
	)
	return zero, o.opts.MaxRetries, exhausted
}

// runAttempt runs fn under the per-attempt deadline and returns as soon as
// the deadline passes, even if fn ignores its context. A deadline that
// expires while the parent context is live is reported as services.ErrTimeout.
func runAttempt[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var (
		callCtx context.Context
		cancel  context.CancelFunc
	)
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		callCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		value, err := fn(callCtx)
		done <- outcome{value, err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-callCtx.Done():
		out = outcome{zero, callCtx.Err()}
	}
	if out.err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return zero, services.Wrap(services.ErrTimeout, "retry", "attempt", "deadline exceeded after "+timeout.String(), out.err)
	}
	return out.value, out.err
}
