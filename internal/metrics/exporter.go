package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"captionsync/internal/textutil"
)

const namespace = "captionsync"

// Exporter publishes collectors on a private registry.
type Exporter struct {
	registry *prometheus.Registry

	runs           *prometheus.CounterVec
	processingTime prometheus.Histogram
	stageTime      *prometheus.HistogramVec
	tokens         prometheus.Counter
	repairedTokens prometheus.Counter
	utterances     prometheus.Counter
	blocks         prometheus.Counter
	retries        prometheus.Counter
	reprocessed    prometheus.Counter
	confidence     prometheus.Histogram
	syncOffset     prometheus.Histogram
	quality        *prometheus.CounterVec
}

// NewExporter creates and registers every metric.
func NewExporter() *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Processing runs by outcome",
		}, []string{"status"}),
		processingTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock time of a processing run",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),
		stageTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		}, []string{"stage"}),
		tokens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_total",
			Help:      "Word tokens processed",
		}),
		repairedTokens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_repaired_total",
			Help:      "Word tokens changed by timing repair",
		}),
		utterances: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "utterances_total",
			Help:      "Utterances produced by segmentation",
		}),
		blocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "display_blocks_total",
			Help:      "Display blocks produced by stabilization",
		}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Retried collaborator calls",
		}),
		reprocessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_reprocessed_total",
			Help:      "Segments re-translated by the reprocessor",
		}),
		confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_confidence",
			Help:      "Combined confidence of a run",
			Buckets:   []float64{0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
		}),
		syncOffset: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_offset_seconds",
			Help:      "Audio offset correction applied per run",
			Buckets:   []float64{-5, -2, -1, -0.5, -0.1, 0, 0.1, 0.5, 1, 2, 5},
		}),
		quality: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quality_total",
			Help:      "Runs by overall quality label",
		}, []string{"label"}),
	}
	e.registry.MustRegister(
		e.runs, e.processingTime, e.stageTime, e.tokens, e.repairedTokens, e.utterances,
		e.blocks, e.retries, e.reprocessed, e.confidence, e.syncOffset, e.quality,
	)
	return e
}

// Registry exposes the private registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Record adds a single run's collector. Aggregated collectors lose their
// per-run distribution, so record each run as it finishes.
func (e *Exporter) Record(c Collector) {
	succeeded := c.Runs - c.FailedRuns
	if succeeded > 0 {
		e.runs.WithLabelValues("success").Add(float64(succeeded))
	}
	if c.FailedRuns > 0 {
		e.runs.WithLabelValues("failed").Add(float64(c.FailedRuns))
	}
	if c.Runs > 0 {
		e.processingTime.Observe(c.AverageProcessingTime().Seconds())
	}
	for stage, d := range c.StageTime {
		e.stageTime.WithLabelValues(textutil.SanitizeLabel(stage)).Observe(d.Seconds())
	}
	e.tokens.Add(float64(c.Tokens))
	e.repairedTokens.Add(float64(c.RepairedTokens))
	e.utterances.Add(float64(c.Utterances))
	e.blocks.Add(float64(c.Blocks))
	e.retries.Add(float64(c.Retries))
	e.reprocessed.Add(float64(c.ReprocessedSegments))
	for _, v := range c.Confidences {
		e.confidence.Observe(v)
	}
	for _, v := range c.SyncOffsets {
		e.syncOffset.Observe(v)
	}
	for label, n := range c.Quality {
		e.quality.WithLabelValues(textutil.SanitizeLabel(label)).Add(float64(n))
	}
}

// WriteTextfile writes the registry in the Prometheus text format for the
// node-exporter textfile collector.
func (e *Exporter) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, e.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
