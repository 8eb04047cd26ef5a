package retry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"captionsync/internal/services"
	"captionsync/internal/transcript"
)

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func testOptions() Options {
	return Options{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second, Exponential: true}
}

func failing(times int, result string) func(context.Context) (string, error) {
	calls := 0
	return func(context.Context) (string, error) {
		calls++
		if calls <= times {
			return "", fmt.Errorf("boom %d", calls)
		}
		return result, nil
	}
}

func TestRunSucceedsAfterFailures(t *testing.T) {
	rec := &sleepRecorder{}
	o := New(testOptions(), WithSleeper(rec.sleep))

	got, retries, err := Run(context.Background(), o, "translation", failing(2, "ok"), nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got != "ok" || retries != 2 {
		t.Fatalf("got (%q, %d), want (ok, 2)", got, retries)
	}
	if len(rec.delays) != 2 || rec.delays[0] != time.Second || rec.delays[1] != 2*time.Second {
		t.Fatalf("delays = %v", rec.delays)
	}
	records := o.Log().Records()
	if len(records) != 3 {
		t.Fatalf("recorded %d attempts, want 3", len(records))
	}
	if records[0].Status != StatusFailedAttempt || records[0].Reason != ReasonAPIError || records[2].Status != StatusSuccess {
		t.Fatalf("unexpected records %+v", records)
	}
	if records[2].RetryCount != 2 || records[2].Attempt != 3 {
		t.Fatalf("success record = %+v", records[2])
	}
}

func TestRunExhausts(t *testing.T) {
	rec := &sleepRecorder{}
	o := New(testOptions(), WithSleeper(rec.sleep))
	cause := errors.New("service unavailable")

	_, retries, err := Run(context.Background(), o, "transcription", func(context.Context) (string, error) {
		return "", cause
	}, nil)

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %v", err)
	}
	if !errors.Is(err, services.ErrExhausted) || !errors.Is(err, cause) {
		t.Fatalf("error should match marker and cause: %v", err)
	}
	if exhausted.RetryCount != 3 || exhausted.Attempts != 4 || retries != 3 {
		t.Fatalf("exhausted = %+v, retries %d", exhausted, retries)
	}
	if exhausted.Operation != "transcription" {
		t.Fatalf("operation = %q", exhausted.Operation)
	}
	records := o.Log().Records()
	if len(records) != 4 {
		t.Fatalf("recorded %d attempts, want 4", len(records))
	}
	if records[3].Status != StatusFinalFailure || records[3].Error != cause.Error() {
		t.Fatalf("final record = %+v", records[3])
	}
	if len(rec.delays) != 3 {
		t.Fatalf("slept %d times, want 3", len(rec.delays))
	}
	if !services.Aborts(err) {
		t.Fatal("exhaustion must abort the workflow")
	}
}

func TestRunTreatsRejectionAsFailure(t *testing.T) {
	rec := &sleepRecorder{}
	o := New(testOptions(), WithSleeper(rec.sleep))
	results := []string{"", "no", "hola a todos"}
	calls := 0
	got, retries, err := Run(context.Background(), o, "translation", func(context.Context) (string, error) {
		calls++
		return results[calls-1], nil
	}, NonEmptyText(3))
	if err != nil || got != "hola a todos" || retries != 2 {
		t.Fatalf("got (%q, %d, %v)", got, retries, err)
	}
	records := o.Log().Records()
	if records[0].Reason != ReasonTranslationError || records[1].Reason != ReasonTranslationError {
		t.Fatalf("unexpected reasons %+v", records)
	}
}

func TestRunAppliesAttemptDeadline(t *testing.T) {
	opts := testOptions()
	opts.Timeout = 20 * time.Millisecond
	rec := &sleepRecorder{}
	o := New(opts, WithSleeper(rec.sleep))
	calls := 0
	got, retries, err := Run(context.Background(), o, "translation", func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "done", nil
	}, nil)
	if err != nil || got != "done" || retries != 1 {
		t.Fatalf("got (%q, %d, %v)", got, retries, err)
	}
	if r := o.Log().Records()[0]; r.Reason != ReasonTimeout {
		t.Fatalf("first attempt reason = %q, want timeout", r.Reason)
	}
}

func TestRunAbandonsAttemptThatIgnoresDeadline(t *testing.T) {
	opts := testOptions()
	opts.MaxRetries = 0
	opts.Timeout = 10 * time.Millisecond
	o := New(opts)
	release := make(chan struct{})
	defer close(release)

	_, _, err := Run(context.Background(), o, "translation", func(context.Context) (string, error) {
		<-release
		return "late", nil
	}, nil)
	if !errors.Is(err, services.ErrTimeout) || !errors.Is(err, services.ErrExhausted) {
		t.Fatalf("expected exhausted timeout, got %v", err)
	}
}

func TestRunStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o := New(testOptions())
	calls := 0
	_, _, err := Run(ctx, o, "translation", func(context.Context) (string, error) {
		calls++
		return "x", nil
	}, nil)
	if !errors.Is(err, context.Canceled) || calls != 0 {
		t.Fatalf("expected cancellation before any attempt, got %v after %d calls", err, calls)
	}

	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	o = New(testOptions(), WithSleeper(func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}))
	_, _, err = Run(ctx, o, "translation", failing(5, "x"), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation during backoff, got %v", err)
	}
	if errors.Is(err, services.ErrExhausted) {
		t.Fatal("cancellation is not exhaustion")
	}
}

func TestRunStopsOnNonRetriableError(t *testing.T) {
	o := New(testOptions(), WithSleeper((&sleepRecorder{}).sleep))
	calls := 0
	_, _, err := Run(context.Background(), o, "transcription", func(context.Context) (string, error) {
		calls++
		return "", services.Wrap(services.ErrMissingInput, "collab", "transcribe", "audio file not found", nil)
	}, nil)
	if calls != 1 || !errors.Is(err, services.ErrMissingInput) || errors.Is(err, services.ErrExhausted) {
		t.Fatalf("calls %d, err %v", calls, err)
	}
	if r := o.Log().Records(); len(r) != 1 || r[0].Status != StatusFinalFailure {
		t.Fatalf("records = %+v", r)
	}
}

func TestDelay(t *testing.T) {
	exp := testOptions()
	constant := exp
	constant.Exponential = false
	tests := []struct {
		opts    Options
		attempt int
		want    time.Duration
	}{
		{exp, 0, time.Second},
		{exp, 1, 2 * time.Second},
		{exp, 4, 16 * time.Second},
		{exp, 5, 30 * time.Second},
		{exp, 40, 30 * time.Second},
		{constant, 3, time.Second},
		{Options{}, 2, 0},
	}
	for _, tt := range tests {
		if got := tt.opts.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) exponential=%v = %v, want %v", tt.attempt, tt.opts.Exponential, got, tt.want)
		}
	}
}

func TestBackoffJitter(t *testing.T) {
	opts := testOptions()
	opts.Jitter = 0.5
	o := New(opts)
	o.jitter = func() float64 { return 1 }
	if got := o.backoff(1); got != 3*time.Second {
		t.Fatalf("jittered delay = %v, want 3s", got)
	}
	o.jitter = func() float64 { return 0 }
	if got := o.backoff(1); got != time.Second {
		t.Fatalf("jittered delay = %v, want 1s", got)
	}
}

type memorySink struct {
	mu      sync.Mutex
	records []Record
}

func (m *memorySink) Append(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func TestRunForwardsRecordsToSink(t *testing.T) {
	sink := &memorySink{}
	o := New(testOptions(), WithSink(sink), WithSleeper((&sleepRecorder{}).sleep))
	ctx := services.WithRunID(context.Background(), "run-42")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := Run(ctx, o, "translation", failing(1, "ok"), nil); err != nil {
				t.Errorf("Run: %v", err)
			}
		}()
	}
	wg.Wait()

	if o.Log().Len() != 16 || len(sink.records) != 16 {
		t.Fatalf("log %d, sink %d records; want 16", o.Log().Len(), len(sink.records))
	}
	for _, r := range sink.records {
		if r.RunID != "run-42" {
			t.Fatalf("record run id = %q", r.RunID)
		}
	}
	stats := o.Statistics()
	if stats.TotalOperations != 8 || stats.SuccessRate != 100 || stats.AverageRetryCount != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestSummarize(t *testing.T) {
	records := []Record{
		{Operation: "translation", Status: StatusFailedAttempt, Reason: ReasonTimeout},
		{Operation: "translation", Status: StatusSuccess, RetryCount: 1, ExecutionTime: 3 * time.Second},
		{Operation: "transcription", Status: StatusSuccess, ExecutionTime: time.Second},
		{Operation: "caption_generation", Status: StatusFinalFailure, Reason: ReasonQualityCheckFailed},
	}
	s := Summarize(records)
	if s.TotalOperations != 3 || s.Successful != 2 || s.Failed != 1 || s.FailedAttempts != 1 {
		t.Fatalf("counts = %+v", s)
	}
	if s.SuccessRate < 66.6 || s.SuccessRate > 66.7 {
		t.Fatalf("success rate = %v", s.SuccessRate)
	}
	if s.AverageExecutionTime != 2*time.Second || s.AverageRetryCount != 0.5 {
		t.Fatalf("averages = %v / %v", s.AverageExecutionTime, s.AverageRetryCount)
	}
	if s.ByReason[ReasonTimeout] != 1 || s.ByReason[ReasonQualityCheckFailed] != 1 {
		t.Fatalf("by reason = %v", s.ByReason)
	}
	if len(s.ByOperation) != 3 || s.ByOperation[0].Operation != "caption_generation" {
		t.Fatalf("by operation = %+v", s.ByOperation)
	}
	if empty := Summarize(nil); empty.TotalOperations != 0 || empty.SuccessRate != 0 {
		t.Fatalf("empty stats = %+v", empty)
	}
}

func TestPredicates(t *testing.T) {
	conf := MinConfidence(0.7, func(tr transcript.Transcript) float64 { return tr.Confidence })
	if r := conf(transcript.Transcript{Confidence: 0.5}); r == nil || r.Reason != ReasonLowConfidence {
		t.Fatalf("expected low confidence rejection, got %v", r)
	}

	srt := ContainsMarkers("-->")
	if srt("1\n00:00:01,000 --> 00:00:02,000\nHi\n") != nil {
		t.Fatal("valid SRT rejected")
	}
	if r := srt("Hi"); r == nil || r.Reason != ReasonQualityCheckFailed {
		t.Fatalf("expected structural rejection, got %v", r)
	}

	accept := TranscriptAccepted(0.7)
	good := transcript.Transcript{Text: "hi", Confidence: 0.9, Segments: []transcript.Token{{Text: "hi", End: 1}}}
	if accept(good) != nil {
		t.Fatal("valid transcript rejected")
	}
	if r := accept(transcript.Transcript{Confidence: 0.9}); r == nil {
		t.Fatal("empty transcript accepted")
	}

	both := All(NonEmptyText(3), ContainsMarkers("WEBVTT"))
	if r := both("WEBVTT\n\n"); r != nil {
		t.Fatalf("unexpected rejection %v", r)
	}
	if r := both("ab"); r == nil || r.Reason != ReasonTranslationError {
		t.Fatalf("first predicate should reject, got %v", r)
	}
}
