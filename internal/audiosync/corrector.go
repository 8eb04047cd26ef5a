package audiosync

import (
	"context"
	"log/slog"

	"captionsync/internal/logging"
	"captionsync/internal/transcript"
)

// SyncCorrection is the offset chosen for one processing run.
type SyncCorrection struct {
	OffsetSeconds    float64 `json:"offset_seconds" yaml:"offset_seconds"`
	Confidence       float64 `json:"confidence" yaml:"confidence"`
	Method           string  `json:"method" yaml:"method"`
	SegmentsAdjusted int     `json:"segments_adjusted" yaml:"segments_adjusted"`
}

// Corrector runs an ordered estimator chain.
type Corrector struct {
	opts       Options
	estimators []Estimator
	logger     *slog.Logger
}

// CorrectorOption customizes a Corrector.
type CorrectorOption func(*Corrector)

// WithEstimators replaces the default chain.
func WithEstimators(estimators ...Estimator) CorrectorOption {
	return func(c *Corrector) {
		c.estimators = estimators
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) CorrectorOption {
	return func(c *Corrector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCorrector constructs a Corrector using DefaultEstimators unless
// overridden.
func NewCorrector(opts Options, options ...CorrectorOption) *Corrector {
	opts = opts.withDefaults()
	c := &Corrector{opts: opts, logger: logging.NewNop()}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	if len(c.estimators) == 0 {
		c.estimators = DefaultEstimators(opts)
	}
	c.logger = logging.NewComponentLogger(c.logger, "audiosync")
	return c
}

// Options returns the effective options.
func (c *Corrector) Options() Options {
	return c.opts
}

// Estimate returns the first estimate whose confidence reaches
// MinConfidence, otherwise the most confident candidate. Without a profile
// it reports offset 0 with confidence 0. The offset is clipped to
// ±MaxOffset. Cancellation is checked between estimators.
func (c *Corrector) Estimate(ctx context.Context, profile *EnergyProfile, timeline []transcript.Token) (SyncCorrection, error) {
	logger := logging.WithContext(ctx, c.logger)
	if profile.Empty() || len(timeline) == 0 {
		logger.Info("audio offset estimation skipped",
			logging.Args(logging.DecisionAttrs("sync_estimator", "skipped", "no energy profile or empty timeline")...)...,
		)
		return SyncCorrection{Method: MethodNone}, nil
	}

	var best SyncCorrection
	best.Method = MethodNone
	for _, est := range c.estimators {
		if err := ctx.Err(); err != nil {
			return SyncCorrection{}, err
		}
		got := est.Estimate(profile, timeline)
		got.Confidence = clampUnit(got.Confidence)
		got.Offset = clampOffset(got.Offset, c.opts.MaxOffset)
		logger.Debug("offset estimator finished",
			logging.String("estimator", est.Name()),
			logging.Seconds("offset", got.Offset),
			logging.Float64("confidence", got.Confidence),
		)
		if got.Confidence > best.Confidence || best.Method == MethodNone {
			best = SyncCorrection{OffsetSeconds: got.Offset, Confidence: got.Confidence, Method: est.Name()}
		}
		if got.Confidence >= c.opts.MinConfidence {
			best = SyncCorrection{OffsetSeconds: got.Offset, Confidence: got.Confidence, Method: est.Name()}
			break
		}
	}
	best.SegmentsAdjusted = len(timeline)

	logger.Info("audio offset estimated",
		logging.Args(append(logging.DecisionAttrs("sync_estimator", best.Method, "first estimator above minimum confidence or best candidate"),
			logging.Seconds("offset", best.OffsetSeconds),
			logging.Float64("confidence", best.Confidence),
		)...)...,
	)
	return best, nil
}
