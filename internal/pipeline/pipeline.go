package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"captionsync/internal/audiosync"
	"captionsync/internal/captions"
	"captionsync/internal/collab"
	"captionsync/internal/config"
	"captionsync/internal/fileutil"
	"captionsync/internal/language"
	"captionsync/internal/logging"
	"captionsync/internal/metrics"
	"captionsync/internal/quality"
	"captionsync/internal/reprocess"
	"captionsync/internal/retry"
	"captionsync/internal/segmenter"
	"captionsync/internal/services"
	"captionsync/internal/stabilizer"
	"captionsync/internal/timing"
	"captionsync/internal/transcript"
	"captionsync/internal/translation"
)

// Stage names, in execution order.
const (
	StageTranscribe = "transcribe"
	StageNormalize  = "normalize"
	StageSync       = "sync"
	StageSegment    = "segment"
	StageTranslate  = "translate"
	StageReprocess  = "reprocess"
	StageStabilize  = "stabilize"
	StageQuality    = "quality"
	StageCaptions   = "captions"
)

// Retried operation names.
const (
	OperationTranscribe = "transcription"
	OperationTranslate  = "translation"
)

// Dependencies are the collaborators a Pipeline calls. Only Recognizer has a
// default; without a Translator the translation stages are skipped.
type Dependencies struct {
	Recognizer collab.Recognizer
	Translator collab.Translator
	// Profiles overrides the energy profile cache built from the config.
	Profiles *audiosync.ProfileCache
	// Sinks receive every retry record in addition to the in-memory log.
	Sinks   []retry.Sink
	Sleeper retry.Sleeper
	Logger  *slog.Logger
	Now     func() time.Time
}

// Request names the inputs and outputs of one run.
type Request struct {
	AudioPath string
	// OutputPath is where captions are written. Empty skips rendering.
	OutputPath string
	// RunID is generated when empty.
	RunID string
}

// Pipeline is safe for concurrent Run calls.
type Pipeline struct {
	cfg        *config.Config
	recognizer collab.Recognizer
	translator collab.Translator
	orch       *retry.Orchestrator
	corrector  *audiosync.Corrector
	profiles   *audiosync.ProfileCache
	logger     *slog.Logger
	now        func() time.Time
}

// New wires a Pipeline from cfg.
func New(cfg *config.Config, deps Dependencies) (*Pipeline, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "config is required", nil)
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	recognizer := deps.Recognizer
	if recognizer == nil {
		recognizer = collab.FileRecognizer{}
	}

	retryOpts := []retry.Option{retry.WithLogger(logger), retry.WithClock(now)}
	if deps.Sleeper != nil {
		retryOpts = append(retryOpts, retry.WithSleeper(deps.Sleeper))
	}
	for _, sink := range deps.Sinks {
		retryOpts = append(retryOpts, retry.WithSink(sink))
	}

	profiles := deps.Profiles
	if profiles == nil {
		profiles = audiosync.NewProfileCache(cfg.EnergyCacheDir(), cfg.Sync.HopSeconds, nil, logger)
	}

	return &Pipeline{
		cfg:        cfg,
		recognizer: recognizer,
		translator: deps.Translator,
		orch:       retry.New(RetryOptions(cfg), retryOpts...),
		corrector:  audiosync.NewCorrector(SyncOptions(cfg), audiosync.WithLogger(logger)),
		profiles:   profiles,
		logger:     logging.NewComponentLogger(logger, "pipeline"),
		now:        now,
	}, nil
}

// Orchestrator exposes the retry orchestrator shared by all runs.
func (p *Pipeline) Orchestrator() *retry.Orchestrator {
	return p.orch
}

// run carries the per-run state between stages.
type run struct {
	req     Request
	res     *Result
	profile *audiosync.EnergyProfile
	// source is the segment timeline handed to translation and reporting.
	source  []transcript.Token
	started time.Time
}

type stage struct {
	name string
	fn   func(ctx context.Context, r *run) error
}

func (p *Pipeline) stages() []stage {
	return []stage{
		{StageTranscribe, p.transcribe},
		{StageNormalize, p.normalize},
		{StageSync, p.syncAudio},
		{StageSegment, p.segment},
		{StageTranslate, p.translate},
		{StageReprocess, p.reprocess},
		{StageStabilize, p.stabilize},
		{StageQuality, p.grade},
		{StageCaptions, p.render},
	}
}

// Run processes one request. On failure the partial Result is returned with
// the error.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	runID := strings.TrimSpace(req.RunID)
	if runID == "" {
		runID = uuid.NewString()
	}
	ctx = services.WithRunID(ctx, runID)
	if req.AudioPath != "" {
		ctx = services.WithSource(ctx, req.AudioPath)
	}
	r := &run{
		req:     req,
		started: p.now(),
		res: &Result{
			RunID:      runID,
			AudioPath:  req.AudioPath,
			OutputPath: req.OutputPath,
			Metrics:    metrics.Collector{Runs: 1},
		},
	}
	logger := logging.WithContext(ctx, p.logger)
	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("recognizer", p.recognizer.Name()),
		logging.Bool("translation", p.translates()),
	)

	for _, st := range p.stages() {
		if err := p.runStage(ctx, st, r); err != nil {
			r.res.Metrics.FailedRuns = 1
			p.finish(r)
			logging.ErrorWithContext(logger, "run failed", "run_failure",
				logging.String(logging.FieldStage, st.name),
				logging.String(logging.FieldErrorHint, "see the stage failure above"),
				logging.Error(err),
			)
			return r.res, err
		}
	}
	p.finish(r)
	logger.Info("run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("overall_quality", string(r.res.Report.OverallQuality)),
		logging.Int("retries", r.res.Retries),
		logging.Duration("elapsed", r.res.Elapsed),
	)
	return r.res, nil
}

func (p *Pipeline) runStage(ctx context.Context, st stage, r *run) error {
	ctx = services.WithStage(ctx, st.name)
	logger := logging.WithContext(ctx, p.logger)
	if err := ctx.Err(); err != nil {
		return services.Wrap(services.ErrTransient, st.name, "start", "run canceled", err)
	}
	logger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))
	stop := r.res.Metrics.Time(st.name)
	err := st.fn(ctx, r)
	stop()
	if err != nil {
		logger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.Error(err),
		)
		return err
	}
	logger.Debug("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", r.res.Metrics.StageTime[st.name]),
	)
	return nil
}

func (p *Pipeline) finish(r *run) {
	r.res.Elapsed = p.now().Sub(r.started)
	r.res.Metrics.ProcessingTime = r.res.Elapsed
	r.res.Metrics.Retries = r.res.Retries
}

func (p *Pipeline) translates() bool {
	return p.translator != nil && strings.TrimSpace(p.cfg.Translation.TargetLanguage) != ""
}

func (p *Pipeline) transcribe(ctx context.Context, r *run) error {
	tr, retries, err := retry.Run(ctx, p.orch, OperationTranscribe, func(ctx context.Context) (transcript.Transcript, error) {
		return p.recognizer.Transcribe(ctx, r.req.AudioPath)
	}, retry.TranscriptAccepted(p.cfg.Retry.ConfidenceThreshold))
	r.res.Retries += retries
	if err != nil {
		if services.Aborts(err) {
			return err
		}
		return services.Wrap(services.ErrMissingInput, StageTranscribe, p.recognizer.Name(), "no usable transcript", err)
	}
	r.res.Transcript = tr
	logging.WithContext(ctx, p.logger).Info("transcript accepted",
		logging.Int("segments", len(tr.Segments)),
		logging.Int("words", len(tr.Words)),
		logging.Float64("confidence", tr.Confidence),
		logging.String("language", tr.LanguageCode),
	)
	return nil
}

// normalize removes the recognizer delay, repairs word timing and extends
// words that would flash by too quickly.
func (p *Pipeline) normalize(ctx context.Context, r *run) error {
	delay := p.cfg.Timing.DelayCompensation
	raw := timing.Compensate(r.res.Transcript.WordTokens(), delay)
	r.res.WordTimingQuality = transcript.WordTimingQuality(raw)

	words, stats := timing.RepairWithStats(raw, TimingOptions(p.cfg))
	words, extended := timing.ExtendForDisplay(words, p.cfg.Timing.MinDisplayDuration, p.cfg.Timing.MinWordGap)
	r.res.Words = words
	r.res.Repair = stats
	r.res.Metrics.Tokens = len(words)
	r.res.Metrics.RepairedTokens = stats.Total()

	timeline := timing.Compensate(r.res.Transcript.Segments, delay)
	if len(timeline) == 0 {
		timeline = transcript.Clone(words)
	}
	transcript.SortByStart(timeline)
	r.res.Timeline = timeline

	logging.WithContext(ctx, p.logger).Info("word timing repaired",
		logging.Int("words", len(words)),
		logging.Int("repaired", stats.Total()),
		logging.Int("extended", extended),
		logging.Float64("word_timing_quality", r.res.WordTimingQuality),
	)
	return nil
}

// syncAudio estimates a global offset from the audio energy and shifts the
// segment timeline adaptively. Words follow the segment that contains them.
// Without usable audio the run continues uncorrected.
func (p *Pipeline) syncAudio(ctx context.Context, r *run) error {
	logger := logging.WithContext(ctx, p.logger)
	r.res.Correction = audiosync.SyncCorrection{Method: audiosync.MethodNone}
	if !p.cfg.Sync.Enabled {
		logger.Info("audio sync skipped", logging.Args(logging.DecisionAttrs("audio_sync", "skipped", "disabled in config")...)...)
		return nil
	}
	if r.req.AudioPath == "" {
		logger.Info("audio sync skipped", logging.Args(logging.DecisionAttrs("audio_sync", "skipped", "no audio path")...)...)
		return nil
	}
	profile, err := p.profiles.Get(r.req.AudioPath)
	if err != nil {
		logging.WarnWithContext(logger, "energy profile unavailable", "energy_profile_failed",
			logging.String(logging.FieldErrorHint, "provide a readable PCM WAV file"),
			logging.String(logging.FieldImpact, "captions keep recognizer timing"),
			logging.Error(err),
		)
		return nil
	}
	r.profile = profile

	correction, err := p.corrector.Estimate(ctx, profile, r.res.Timeline)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return services.Wrap(services.ErrTransient, StageSync, "estimate", "run canceled", err)
		}
		logging.WarnWithContext(logger, "offset estimation failed", "sync_estimate_failed",
			logging.String(logging.FieldImpact, "captions keep recognizer timing"),
			logging.Error(err),
		)
		return nil
	}

	before := r.res.Timeline
	after, applied := audiosync.Apply(before, correction, SyncOptions(p.cfg))
	if p.cfg.Sync.FineTune && !applied.Skipped {
		after = audiosync.FineTune(after, profile)
	}
	correction.SegmentsAdjusted = applied.Adjusted
	r.res.Correction = correction
	r.res.Applied = applied
	r.res.Timeline = after
	if !applied.Skipped {
		r.res.Words = timing.Repair(shiftWords(r.res.Words, before, after), TimingOptions(p.cfg))
		r.res.Metrics.ObserveSync(applied.AppliedOffset)
	}
	r.res.SyncQuality = audiosync.ValidateSyncQuality(after, profile)

	logger.Info("audio sync applied",
		logging.String("method", correction.Method),
		logging.Float64("offset_seconds", correction.OffsetSeconds),
		logging.Float64("applied_offset", applied.AppliedOffset),
		logging.Float64("confidence", correction.Confidence),
		logging.Int("adjusted", applied.Adjusted),
		logging.Bool("skipped", applied.Skipped),
		logging.String("sync_quality", r.res.SyncQuality.Quality),
	)
	return nil
}

// shiftWords moves each word by the start delta of the last segment that
// starts at or before it.
func shiftWords(words, before, after []transcript.Token) []transcript.Token {
	out := transcript.Clone(words)
	if len(before) == 0 || len(before) != len(after) {
		return out
	}
	for i := range out {
		j := sort.Search(len(before), func(k int) bool { return before[k].Start > out[i].Start+1e-9 }) - 1
		if j < 0 {
			j = 0
		}
		delta := after[j].Start - before[j].Start
		out[i].Start = max(0, out[i].Start+delta)
		out[i].End = max(out[i].Start, out[i].End+delta)
	}
	return out
}

func (p *Pipeline) segment(ctx context.Context, r *run) error {
	res := segmenter.Segment(r.res.Words, SegmenterOptions(p.cfg))
	r.res.Utterances = res.Utterances
	r.res.Merged = res.Merged
	r.res.Split = res.Split
	r.res.SegmentationQuality = segmenter.Quality(res.Utterances)
	r.res.Pauses = segmenter.PauseStats(res.Utterances)
	r.res.Metrics.Utterances = len(res.Utterances)
	r.source = segmenter.Tokens(res.Utterances)

	logging.WithContext(ctx, p.logger).Info("utterances segmented",
		logging.Int("utterances", len(res.Utterances)),
		logging.Int("merged", res.Merged),
		logging.Int("split", res.Split),
		logging.Float64("segmentation_quality", r.res.SegmentationQuality),
	)
	return nil
}

func (p *Pipeline) sourceLanguage(r *run) string {
	if src := strings.TrimSpace(p.cfg.Translation.SourceLanguage); src != "" {
		return src
	}
	return r.res.Transcript.LanguageCode
}

func (p *Pipeline) translate(ctx context.Context, r *run) error {
	logger := logging.WithContext(ctx, p.logger)
	if !p.translates() {
		logger.Info("translation skipped", logging.Args(logging.DecisionAttrs("translation", "skipped", "no translator or target language")...)...)
		return nil
	}
	if len(r.source) == 0 {
		logger.Info("translation skipped", logging.Args(logging.DecisionAttrs("translation", "skipped", "no utterances")...)...)
		return nil
	}
	source := p.sourceLanguage(r)
	target := p.cfg.Translation.TargetLanguage
	if language.Same(source, target) {
		logger.Info("translation skipped", logging.Args(logging.DecisionAttrs("translation", "skipped", "source and target language match")...)...)
		return nil
	}
	formality, _ := language.ParseFormality(p.cfg.Translation.Formality)
	req, err := collab.NewRequest(translation.SourceText(r.source), source, target, formality)
	if err != nil {
		return err
	}

	text, retries, err := retry.Run(ctx, p.orch, OperationTranslate, func(ctx context.Context) (string, error) {
		return p.translator.Translate(ctx, req)
	}, retry.NonEmptyText(1))
	r.res.Retries += retries
	if err != nil {
		if services.Aborts(err) {
			return err
		}
		logging.WarnWithContext(logger, "translation failed", "translation_failed",
			logging.String("translator", p.translator.Name()),
			logging.String(logging.FieldErrorHint, "check the translation backend or glossary"),
			logging.String(logging.FieldImpact, "captions are rendered in the source language"),
			logging.Error(err),
		)
		return nil
	}

	aligned := translation.Align(r.source, text, translation.Options{
		MinDisplay: p.cfg.Timing.MinDisplayDuration,
		Gap:        translation.DefaultOptions().Gap,
	})
	r.res.Translated = aligned.Segments
	r.res.TargetLanguage = req.Target
	r.res.Redistributed = aligned.Redistributed
	logger.Info("translation aligned",
		logging.String("target", req.Target),
		logging.String("target_name", language.DisplayName(req.Target)),
		logging.Int("segments", len(aligned.Segments)),
		logging.Bool("redistributed", aligned.Redistributed),
		logging.Int("extended", aligned.Extended),
	)
	return nil
}

func (p *Pipeline) reprocess(ctx context.Context, r *run) error {
	if len(r.res.Translated) == 0 || !p.cfg.Reprocess.Enabled {
		return nil
	}
	opts := ReprocessOptions(p.cfg)
	opts.SourceLanguage = p.sourceLanguage(r)
	res, err := reprocess.New(p.orch, p.translator, opts, p.logger).Run(ctx, r.source, r.res.Translated)
	r.res.Retries += res.Retries
	if err != nil {
		if services.Aborts(err) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "segment reprocessing failed", "reprocess_failed",
			logging.String(logging.FieldImpact, "translation kept as aligned"),
			logging.Error(err),
		)
		return nil
	}
	r.res.Translated = res.Tokens()
	r.res.Reprocess = ReprocessSummary{
		Findings:    len(res.Findings),
		Attempted:   res.Attempted,
		Reprocessed: res.Reprocessed,
		Failed:      res.Failed,
	}
	r.res.Metrics.ReprocessedSegments = res.Reprocessed
	return nil
}

func (p *Pipeline) stabilize(ctx context.Context, r *run) error {
	res := stabilizer.Stabilize(r.res.Words, StabilizerOptions(p.cfg))
	r.res.Blocks = res.Blocks
	r.res.Metrics.Blocks = len(res.Blocks)
	if res.Dropped > 0 {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "tokens dropped from display blocks", "block_tokens_dropped",
			logging.Int("dropped", res.Dropped),
			logging.String(logging.FieldImpact, "dropped words are not captioned"),
		)
	}
	return nil
}

func (p *Pipeline) grade(ctx context.Context, r *run) error {
	stageMetrics := map[string]float64{
		quality.MetricSegmentationQuality: r.res.SegmentationQuality,
		quality.MetricWordTimingQuality:   r.res.WordTimingQuality,
	}
	if r.res.Correction.Method != audiosync.MethodNone {
		stageMetrics[quality.MetricSyncConfidence] = r.res.Correction.Confidence
	}
	report := quality.BuildReport(quality.ReportInput{
		RunID:                   r.res.RunID,
		TranscriptionConfidence: r.res.Transcript.Confidence,
		Segments:                r.source,
		Translated:              r.res.Translated,
		StageMetrics:            stageMetrics,
		RetryCount:              r.res.Retries,
		ProcessingTime:          p.now().Sub(r.started),
	}, QualityOptions(p.cfg))
	r.res.Report = report
	r.res.Metrics.ObserveQuality(string(report.OverallQuality), report.Confidence.Overall)

	attrs := []logging.Attr{
		logging.String("overall_quality", string(report.OverallQuality)),
		logging.Float64("overall_confidence", report.Confidence.Overall),
		logging.Int("issues", len(report.Issues())),
	}
	logger := logging.WithContext(ctx, p.logger)
	if report.AllValid() {
		logger.Info("quality report built", logging.Args(attrs...)...)
		return nil
	}
	attrs = append(attrs,
		logging.String(logging.FieldImpact, "captions may need review"),
		logging.Alert("quality"),
	)
	logging.WarnWithContext(logger, "quality validation failed", "quality_validation_failed", attrs...)
	return nil
}

// render writes the captions. Translated segments win over display blocks.
func (p *Pipeline) render(ctx context.Context, r *run) error {
	if r.req.OutputPath == "" {
		return nil
	}
	opts := CaptionOptions(p.cfg)
	if ext := strings.TrimPrefix(filepath.Ext(r.req.OutputPath), "."); ext != "" {
		if format, err := captions.ParseFormat(ext); err == nil {
			opts.Format = format
		}
	}
	var cues []captions.Cue
	if len(r.res.Translated) > 0 {
		cues = captions.FromSegments(r.res.Translated)
	} else {
		cues = captions.FromBlocks(r.res.Blocks)
	}
	data, err := captions.Marshal(cues, opts)
	if err != nil {
		return services.Wrap(services.ErrValidation, StageCaptions, "render", string(opts.Format), err)
	}
	if err := fileutil.WriteFileAtomic(r.req.OutputPath, data, 0o644); err != nil {
		return services.Wrap(services.ErrConfiguration, StageCaptions, "write", r.req.OutputPath, err)
	}

	if opts.Format != captions.FormatASS {
		var media float64
		if r.profile != nil {
			media = r.profile.Duration()
		}
		r.res.CaptionIssues = captions.Validate(string(data), media)
	}
	logger := logging.WithContext(ctx, p.logger)
	if len(r.res.CaptionIssues) > 0 {
		logging.WarnWithContext(logger, "caption file has issues", "caption_validation_failed",
			logging.String("issues", strings.Join(r.res.CaptionIssues, ",")),
			logging.String(logging.FieldImpact, "players may display captions out of order"),
		)
	}
	logger.Info("captions written",
		logging.String("path", r.req.OutputPath),
		logging.String("format", string(opts.Format)),
		logging.Int("cues", len(cues)),
	)
	return nil
}

// OutputPathFor derives the caption path for audioPath inside dir, or beside
// the audio when dir is empty.
func OutputPathFor(audioPath, dir string, format captions.Format) string {
	out := fileutil.ReplaceExt(audioPath, format.Extension())
	if dir == "" {
		return out
	}
	return filepath.Join(dir, filepath.Base(out))
}

// ExportMetrics records the collector into exporter and writes the textfile
// when the config names one.
func ExportMetrics(cfg *config.Config, exporter *metrics.Exporter, c metrics.Collector) error {
	if exporter == nil {
		return nil
	}
	exporter.Record(c)
	path := strings.TrimSpace(cfg.Metrics.Textfile)
	if path == "" {
		return nil
	}
	return exporter.WriteTextfile(path)
}
