package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestMergeDoesNotAlias(t *testing.T) {
	var a Collector
	a.Runs = 1
	a.ProcessingTime = 2 * time.Second
	a.ObserveStage("normalize", time.Second)
	a.ObserveQuality("excellent", 0.9)

	var b Collector
	b.Runs = 1
	b.FailedRuns = 1
	b.ProcessingTime = 4 * time.Second
	b.ObserveStage("normalize", 500*time.Millisecond)
	b.ObserveStage("sync", time.Second)
	b.ObserveQuality("poor", 0.5)
	b.ObserveSync(0.3)

	merged := a.Merge(b)
	if merged.Runs != 2 || merged.FailedRuns != 1 {
		t.Fatalf("unexpected run counts: %+v", merged)
	}
	if merged.StageTime["normalize"] != 1500*time.Millisecond || merged.StageTime["sync"] != time.Second {
		t.Fatalf("unexpected stage time: %v", merged.StageTime)
	}
	if merged.Quality["excellent"] != 1 || merged.Quality["poor"] != 1 {
		t.Fatalf("unexpected quality counts: %v", merged.Quality)
	}
	if got := merged.AverageConfidence(); got < 0.6999 || got > 0.7001 {
		t.Fatalf("average confidence = %v, want 0.7", got)
	}
	if merged.AverageProcessingTime() != 3*time.Second {
		t.Fatalf("average processing time = %v", merged.AverageProcessingTime())
	}
	if a.StageTime["normalize"] != time.Second || len(a.Quality) != 1 {
		t.Fatalf("merge modified its receiver: %+v", a)
	}
	if got := merged.Stages(); len(got) != 2 || got[0] != "normalize" || got[1] != "sync" {
		t.Fatalf("unexpected stages %v", got)
	}
}

func TestMergeEmpty(t *testing.T) {
	merged := Collector{}.Merge(Collector{})
	if merged.StageTime != nil || merged.Quality != nil || merged.AverageConfidence() != 0 || merged.AverageProcessingTime() != 0 {
		t.Fatalf("expected zero collector, got %+v", merged)
	}
}

func TestTimeRecordsStage(t *testing.T) {
	var c Collector
	stop := c.Time("segment")
	stop()
	if _, ok := c.StageTime["segment"]; !ok {
		t.Fatal("expected stage to be recorded")
	}
}

func TestExporterTextfile(t *testing.T) {
	var c Collector
	c.Runs = 1
	c.ProcessingTime = time.Second
	c.Tokens = 12
	c.Retries = 2
	c.ObserveStage("normalize", 10*time.Millisecond)
	c.ObserveQuality("GOOD", 0.85)
	c.ObserveSync(0.3)

	e := NewExporter()
	e.Record(c)
	path := filepath.Join(t.TempDir(), "metrics", "captionsync.prom")
	if err := e.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	content := string(data)
	for _, want := range []string{
		`captionsync_runs_total{status="success"} 1`,
		`captionsync_tokens_total 12`,
		`captionsync_retries_total 2`,
		`captionsync_quality_total{label="good"} 1`,
		`captionsync_stage_duration_seconds_count{stage="normalize"} 1`,
	} {
		if !strings.Contains(content, want) {
			t.Fatalf("textfile missing %q:\n%s", want, content)
		}
	}
}
