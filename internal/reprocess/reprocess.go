package reprocess

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"captionsync/internal/collab"
	"captionsync/internal/language"
	"captionsync/internal/logging"
	"captionsync/internal/retry"
	"captionsync/internal/services"
	"captionsync/internal/transcript"
)

// Operation is the retry operation name for a segment re-translation.
const Operation = "segment_retranslation"

// Options controls identification and reprocessing.
type Options struct {
	ConfidenceThreshold float64
	ConfidenceBoost     float64
	MinDuration         float64
	MaxDuration         float64
	MinTextLength       int
	Concurrency         int
	SourceLanguage      string
	TargetLanguage      string
	Formality           language.Formality
}

// DefaultOptions returns the reprocessing defaults.
func DefaultOptions() Options {
	return Options{
		ConfidenceThreshold: 0.6,
		ConfidenceBoost:     0.2,
		MinDuration:         0.3,
		MaxDuration:         15,
		MinTextLength:       3,
		Concurrency:         4,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.ConfidenceThreshold <= 0 {
		o.ConfidenceThreshold = def.ConfidenceThreshold
	}
	if o.ConfidenceBoost <= 0 {
		o.ConfidenceBoost = def.ConfidenceBoost
	}
	if o.MinDuration <= 0 {
		o.MinDuration = def.MinDuration
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = def.MaxDuration
	}
	if o.MinTextLength <= 0 {
		o.MinTextLength = def.MinTextLength
	}
	if o.Concurrency <= 0 {
		o.Concurrency = def.Concurrency
	}
	return o
}

// Segment is a timeline entry after reprocessing.
type Segment struct {
	transcript.Token
	Issues             []Issue `json:"issues,omitempty" yaml:"issues,omitempty"`
	Reprocessed        bool    `json:"reprocessed,omitempty" yaml:"reprocessed,omitempty"`
	OriginalConfidence float64 `json:"original_confidence,omitempty" yaml:"original_confidence,omitempty"`
	ReprocessingFailed bool    `json:"reprocessing_failed,omitempty" yaml:"reprocessing_failed,omitempty"`
	Retries            int     `json:"retries,omitempty" yaml:"retries,omitempty"`
}

// Result is the reprocessed timeline with counters.
type Result struct {
	Segments    []Segment
	Findings    []Finding
	Attempted   int
	Reprocessed int
	Failed      int
	Retries     int
}

// Tokens returns the reprocessed timeline as plain tokens.
func (r Result) Tokens() []transcript.Token {
	out := make([]transcript.Token, len(r.Segments))
	for i, seg := range r.Segments {
		out[i] = seg.Token
	}
	return out
}

// Reprocessor re-translates problematic segments.
type Reprocessor struct {
	orch       *retry.Orchestrator
	translator collab.Translator
	opts       Options
	logger     *slog.Logger
}

// New builds a Reprocessor.
func New(orch *retry.Orchestrator, translator collab.Translator, opts Options, logger *slog.Logger) *Reprocessor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Reprocessor{
		orch:       orch,
		translator: translator,
		opts:       opts.withDefaults(),
		logger:     logging.NewComponentLogger(logger, "reprocess"),
	}
}

// Run identifies problematic entries of translated and re-translates them
// from the matching entries of source. Both timelines must have the same
// length. Only cancellation of ctx is returned as an error; per-segment
// failures are flagged on the segment.
func (r *Reprocessor) Run(ctx context.Context, source, translated []transcript.Token) (Result, error) {
	if len(source) != len(translated) {
		return Result{}, services.Wrap(services.ErrValidation, "reprocess", "run",
			fmt.Sprintf("source has %d segments, translation has %d", len(source), len(translated)), nil)
	}
	res := Result{
		Segments: make([]Segment, len(translated)),
		Findings: Identify(translated, r.opts),
	}
	for i, tok := range translated {
		res.Segments[i] = Segment{Token: tok}
	}

	logger := logging.WithContext(ctx, r.logger)
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(r.opts.Concurrency)
	for _, finding := range res.Findings {
		seg := &res.Segments[finding.Index]
		seg.Issues = finding.Issues
		if !finding.Problematic() {
			continue
		}
		text := source[finding.Index].Text
		if text == "" {
			logger.Debug("segment skipped",
				logging.Args(logging.DecisionAttrs("reprocess_segment", "skipped", "no source text")...)...)
			continue
		}
		res.Attempted++
		group.Go(func() error {
			return r.reprocessOne(gctx, seg, text)
		})
	}
	if err := group.Wait(); err != nil {
		return res, err
	}

	for _, seg := range res.Segments {
		res.Retries += seg.Retries
		switch {
		case seg.Reprocessed:
			res.Reprocessed++
		case seg.ReprocessingFailed:
			res.Failed++
		}
	}
	logger.Info("segment reprocessing complete",
		logging.Int("findings", len(res.Findings)),
		logging.Int("attempted", res.Attempted),
		logging.Int("reprocessed", res.Reprocessed),
		logging.Int("failed", res.Failed),
	)
	return res, nil
}

// reprocessOne writes only to seg, which no other goroutine touches.
func (r *Reprocessor) reprocessOne(ctx context.Context, seg *Segment, source string) error {
	req, err := collab.NewRequest(source, r.opts.SourceLanguage, r.opts.TargetLanguage, r.opts.Formality)
	if err != nil {
		seg.ReprocessingFailed = true
		return nil
	}
	out, retries, err := retry.Run(ctx, r.orch, Operation, func(ctx context.Context) (string, error) {
		return r.translator.Translate(ctx, req)
	}, retry.NonEmptyText(1))
	seg.Retries = retries
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		seg.ReprocessingFailed = true
		logging.WarnWithContext(logging.WithContext(ctx, r.logger), "segment re-translation failed", "reprocess_failed",
			logging.Seconds("start", seg.Start),
			logging.String(logging.FieldErrorHint, "check the translation backend"),
			logging.String(logging.FieldImpact, "segment keeps its previous translation"),
			logging.Error(err),
		)
		return nil
	}
	seg.OriginalConfidence = seg.Confidence
	seg.Text = out
	seg.Confidence = min(seg.Confidence+r.opts.ConfidenceBoost, 1)
	seg.Reprocessed = true
	return nil
}
