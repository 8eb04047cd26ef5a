package main

import (
	"os"
	"sync"
	"testing"

	"captionsync/internal/logging"
	"captionsync/internal/metrics"
	"captionsync/internal/testsupport"
)

func TestRunTotalsTextfileKeepsLatestTotal(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMetricsTextfile())
	totals := &runTotals{cfg: cfg, logger: logging.NewNop()}

	const jobs = 16
	var wg sync.WaitGroup
	for range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			totals.add(metrics.Collector{Runs: 1, Tokens: 5})
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(cfg.Metrics.Textfile)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	requireContains(t, string(data), `captionsync_runs_total{status="success"} 16`)
	requireContains(t, string(data), "captionsync_tokens_total 80")
}
