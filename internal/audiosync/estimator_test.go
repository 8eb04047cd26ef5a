package audiosync

import (
	"context"
	"errors"
	"math"
	"testing"

	"captionsync/internal/testsupport"
	"captionsync/internal/transcript"
)

var speech = []testsupport.Burst{
	{Start: 1.0, End: 2.2},
	{Start: 3.1, End: 4.0},
	{Start: 5.6, End: 6.3},
	{Start: 7.2, End: 8.9},
	{Start: 10.3, End: 11.0},
	{Start: 12.4, End: 13.8},
}

func burstProfile() *EnergyProfile {
	return &EnergyProfile{Hop: DefaultHop, SampleRate: 16000, Values: testsupport.BurstEnergy(speech, 16, DefaultHop)}
}

// shiftedTimeline returns utterances that run early by shift seconds.
func shiftedTimeline(shift float64) []transcript.Token {
	tokens := make([]transcript.Token, len(speech))
	for i, b := range speech {
		tokens[i] = testsupport.Token("utterance", b.Start-shift, b.End-shift)
	}
	return tokens
}

func TestCorrectorRecoversEarlyTranscript(t *testing.T) {
	c := NewCorrector(DefaultOptions())
	got, err := c.Estimate(context.Background(), burstProfile(), shiftedTimeline(0.3))
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}
	if math.Abs(got.OffsetSeconds-0.3) > 0.05 {
		t.Fatalf("offset = %.3f, want 0.30±0.05", got.OffsetSeconds)
	}
	if got.Confidence <= 0.6 {
		t.Fatalf("confidence = %.3f, want > 0.6", got.Confidence)
	}
	if got.Method != MethodOnset {
		t.Fatalf("method = %q, want %q", got.Method, MethodOnset)
	}
	if got.SegmentsAdjusted != len(speech) {
		t.Fatalf("segments adjusted = %d", got.SegmentsAdjusted)
	}
}

func TestOnsetsFindBurstStarts(t *testing.T) {
	onsets := burstProfile().Onsets(10)
	if len(onsets) != len(speech) {
		t.Fatalf("found %d onsets, want %d: %v", len(onsets), len(speech), onsets)
	}
	for i, o := range onsets {
		if math.Abs(o-speech[i].Start) > DefaultHop+1e-9 {
			t.Fatalf("onset %d at %.3f, want near %.3f", i, o, speech[i].Start)
		}
	}
}

func TestCrossCorrelationEstimator(t *testing.T) {
	est := CrossCorrelationEstimator{MaxOffset: 10, Resolution: 0.1}
	got := est.Estimate(burstProfile(), shiftedTimeline(0.3))
	if math.Abs(got.Offset-0.3) > 0.1+1e-9 {
		t.Fatalf("offset = %.3f, want 0.3±0.1", got.Offset)
	}
	if got.Confidence < 0.5 || got.Confidence > 1 {
		t.Fatalf("confidence = %.3f, want in [0.5, 1]", got.Confidence)
	}
}

func TestRhythmEstimatorStaysInRange(t *testing.T) {
	est := RhythmEstimator{Range: 2, Step: 0.1, MinSeparation: 10}
	got := est.Estimate(burstProfile(), shiftedTimeline(0.3))
	if got.Offset < -2 || got.Offset >= 2 {
		t.Fatalf("offset %.3f outside sweep", got.Offset)
	}
	if got.Confidence < 0 || got.Confidence > 1 {
		t.Fatalf("confidence %.3f outside [0,1]", got.Confidence)
	}
	if math.Abs(got.Offset-0.3) > 0.1+1e-9 {
		t.Fatalf("offset = %.3f, want near 0.3", got.Offset)
	}
}

func TestHeuristicEstimator(t *testing.T) {
	early := HeuristicEstimator{}.Estimate(nil, []transcript.Token{testsupport.Token("a", 0.2, 1)})
	if early.Offset != 0.3 || early.Confidence != 0.4 {
		t.Fatalf("early start estimate = %+v", early)
	}
	late := HeuristicEstimator{}.Estimate(nil, []transcript.Token{testsupport.Token("a", 2, 3)})
	if late.Offset != 0 || late.Confidence != 0.5 {
		t.Fatalf("late start estimate = %+v", late)
	}
}

type fixedEstimator struct {
	name  string
	est   Estimate
	calls *int
}

func (f fixedEstimator) Name() string { return f.name }

func (f fixedEstimator) Estimate(*EnergyProfile, []transcript.Token) Estimate {
	if f.calls != nil {
		*f.calls++
	}
	return f.est
}

func TestCorrectorChain(t *testing.T) {
	profile := burstProfile()
	timeline := shiftedTimeline(0)

	var lateCalls int
	c := NewCorrector(DefaultOptions(), WithEstimators(
		fixedEstimator{name: "weak", est: Estimate{Offset: 1, Confidence: 0.1}},
		fixedEstimator{name: "good", est: Estimate{Offset: 2, Confidence: 0.35}},
		fixedEstimator{name: "later", est: Estimate{Offset: 3, Confidence: 0.9}, calls: &lateCalls},
	))
	got, err := c.Estimate(context.Background(), profile, timeline)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if got.Method != "good" || got.OffsetSeconds != 2 {
		t.Fatalf("expected first estimator above threshold, got %+v", got)
	}
	if lateCalls != 0 {
		t.Fatal("chain should stop at the first acceptable estimate")
	}

	c = NewCorrector(DefaultOptions(), WithEstimators(
		fixedEstimator{name: "weak", est: Estimate{Offset: 1, Confidence: 0.1}},
		fixedEstimator{name: "less weak", est: Estimate{Offset: 25, Confidence: 0.2}},
	))
	got, _ = c.Estimate(context.Background(), profile, timeline)
	if got.Method != "less weak" || got.Confidence != 0.2 {
		t.Fatalf("expected best candidate fallback, got %+v", got)
	}
	if got.OffsetSeconds != 10 {
		t.Fatalf("offset should be clipped to max offset, got %v", got.OffsetSeconds)
	}
}

func TestCorrectorWithoutProfile(t *testing.T) {
	got, err := NewCorrector(DefaultOptions()).Estimate(context.Background(), nil, shiftedTimeline(0))
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	if got.OffsetSeconds != 0 || got.Confidence != 0 || got.Method != MethodNone {
		t.Fatalf("expected no correction, got %+v", got)
	}
}

func TestCorrectorHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewCorrector(DefaultOptions()).Estimate(ctx, burstProfile(), shiftedTimeline(0))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestEstimatesStayBounded(t *testing.T) {
	profile := burstProfile()
	for _, shift := range []float64{-3, -0.5, 0, 0.7, 4} {
		for _, est := range DefaultEstimators(DefaultOptions()) {
			got := est.Estimate(profile, shiftedTimeline(shift))
			if got.Confidence < 0 || got.Confidence > 1 {
				t.Fatalf("%s confidence %v out of range", est.Name(), got.Confidence)
			}
			if math.Abs(got.Offset) > 10+1e-9 {
				t.Fatalf("%s offset %v beyond max", est.Name(), got.Offset)
			}
		}
	}
}
