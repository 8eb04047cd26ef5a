package retrylog_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"captionsync/internal/retry"
	"captionsync/internal/retrylog"
	"captionsync/internal/testsupport"
)

func openStore(t *testing.T) *retrylog.Store {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store, err := retrylog.Open(cfg.Paths.RetryDB)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func record(run, op string, status retry.Status, attempt int, started time.Time) retry.Record {
	return retry.Record{
		RunID:         run,
		Operation:     op,
		Status:        status,
		Attempt:       attempt,
		RetryCount:    attempt - 1,
		StartedAt:     started,
		FinishedAt:    started.Add(150 * time.Millisecond),
		ExecutionTime: 150 * time.Millisecond,
	}
}

func TestAppendAndReadBack(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	failed := record("run-1", "translate", retry.StatusFailedAttempt, 1, base)
	failed.Reason = retry.ReasonTimeout
	failed.Error = "deadline exceeded"
	for _, rec := range []retry.Record{
		failed,
		record("run-1", "translate", retry.StatusSuccess, 2, base.Add(time.Second)),
		record("run-2", "transcribe", retry.StatusSuccess, 1, base.Add(2*time.Second)),
	} {
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	all, err := store.Records(ctx, retrylog.Filter{})
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
	first := all[0]
	if first.Reason != retry.ReasonTimeout || first.Error != "deadline exceeded" {
		t.Fatalf("unexpected first record: %#v", first)
	}
	if !first.StartedAt.Equal(base) || first.ExecutionTime != 150*time.Millisecond {
		t.Fatalf("timestamps not preserved: %#v", first)
	}

	run1, err := store.Records(ctx, retrylog.Filter{RunID: "run-1"})
	if err != nil {
		t.Fatalf("Records by run failed: %v", err)
	}
	if len(run1) != 2 {
		t.Fatalf("expected 2 records for run-1, got %d", len(run1))
	}

	successes, err := store.Records(ctx, retrylog.Filter{Status: retry.StatusSuccess, Limit: 1})
	if err != nil {
		t.Fatalf("Records by status failed: %v", err)
	}
	if len(successes) != 1 || successes[0].Operation != "translate" {
		t.Fatalf("unexpected limited success records: %#v", successes)
	}
}

func TestStatisticsFromStore(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	recs := []retry.Record{
		record("r", "translate", retry.StatusFailedAttempt, 1, base),
		record("r", "translate", retry.StatusSuccess, 2, base),
		record("r", "transcribe", retry.StatusFinalFailure, 4, base),
	}
	for _, rec := range recs {
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	stats, err := store.Statistics(ctx, retrylog.Filter{})
	if err != nil {
		t.Fatalf("Statistics failed: %v", err)
	}
	if stats.TotalOperations != 2 || stats.Successful != 1 || stats.Failed != 1 || stats.FailedAttempts != 1 {
		t.Fatalf("unexpected statistics: %#v", stats)
	}
	if stats.SuccessRate != 50 {
		t.Fatalf("expected 50%% success rate, got %v", stats.SuccessRate)
	}
}

func TestReopenKeepsRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "retries.db")
	store, err := retrylog.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := store.Append(context.Background(), record("r", "op", retry.StatusSuccess, 1, time.Now())); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := retrylog.Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	recs, err := reopened.Records(context.Background(), retrylog.Filter{})
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record after reopen, got %d", len(recs))
	}
}

func TestPrune(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	old := time.Now().Add(-48 * time.Hour)
	fresh := time.Now()
	_ = store.Append(ctx, record("r", "op", retry.StatusSuccess, 1, old))
	_ = store.Append(ctx, record("r", "op", retry.StatusSuccess, 1, fresh))

	removed, err := store.Prune(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 pruned row, got %d", removed)
	}
}

func TestConcurrentAppendAsSink(t *testing.T) {
	store := openStore(t)
	orch := retry.New(retry.Options{MaxRetries: 1}, retry.WithSink(store), retry.WithSleeper(func(context.Context, time.Duration) error { return nil }))

	var wg sync.WaitGroup
	for i := range 6 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = retry.Run(context.Background(), orch, "op", func(context.Context) (int, error) {
				return i, nil
			}, nil)
		}()
	}
	wg.Wait()

	recs, err := store.Records(context.Background(), retrylog.Filter{Operation: "op"})
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}
	if len(recs) != 6 {
		t.Fatalf("expected 6 persisted records, got %d", len(recs))
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := retrylog.Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
