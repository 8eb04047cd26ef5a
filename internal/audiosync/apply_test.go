package audiosync

import (
	"math"
	"testing"

	"captionsync/internal/testsupport"
	"captionsync/internal/transcript"
)

const eps = 1e-9

func TestApplySkipsLowConfidence(t *testing.T) {
	in := []transcript.Token{testsupport.Token("a", 1, 2)}
	out, res := Apply(in, SyncCorrection{OffsetSeconds: 1, Confidence: 0.29}, DefaultOptions())
	if !res.Skipped || out[0].Start != 1 || out[0].End != 2 {
		t.Fatalf("expected skipped correction, got %+v %+v", res, out)
	}
}

func TestApplyDampsMidConfidence(t *testing.T) {
	in := []transcript.Token{
		testsupport.Token("a", 1, 3),
		testsupport.Token("b", 4, 6),
		testsupport.Token("c", 7, 9),
	}
	out, res := Apply(in, SyncCorrection{OffsetSeconds: 1, Confidence: 0.5}, DefaultOptions())
	if !res.Damped || math.Abs(res.AppliedOffset-0.5) > eps {
		t.Fatalf("expected damped offset 0.5, got %+v", res)
	}
	if math.Abs(out[1].Start-4.5) > eps {
		t.Fatalf("middle utterance start = %v, want 4.5", out[1].Start)
	}
}

func TestApplyAdaptiveFactors(t *testing.T) {
	in := []transcript.Token{
		testsupport.SpeakerToken("first", 0, 2, 0.9, "A"),
		testsupport.SpeakerToken("short", 3, 3.5, 0.9, "A"),
		testsupport.SpeakerToken("long", 5, 11, 0.5, "A"),
	}
	out, res := Apply(in, SyncCorrection{OffsetSeconds: 1, Confidence: 0.9}, DefaultOptions())
	if res.Damped || res.Adjusted != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	want := []float64{0.7, 3.8, 5 + 1*0.7*1.1*0.5}
	for i, w := range want {
		if math.Abs(out[i].Start-w) > eps {
			t.Fatalf("utterance %d start = %v, want %v", i, out[i].Start, w)
		}
		if math.Abs(out[i].Duration()-in[i].Duration()) > eps {
			t.Fatalf("utterance %d duration changed", i)
		}
	}
}

func TestApplyHalvesOversizedShift(t *testing.T) {
	in := []transcript.Token{
		testsupport.Token("a", 0, 2),
		testsupport.Token("b", 10, 12),
		testsupport.Token("c", 20, 22),
	}
	out, res := Apply(in, SyncCorrection{OffsetSeconds: 5, Confidence: 0.9}, DefaultOptions())
	if res.Halved != 3 || res.Adjusted != 3 {
		t.Fatalf("expected all three halved, got %+v", res)
	}
	if math.Abs(out[1].Start-12.5) > eps {
		t.Fatalf("middle start = %v, want 12.5", out[1].Start)
	}
	if math.Abs(out[0].Start-1.75) > eps {
		t.Fatalf("first start = %v, want 1.75", out[0].Start)
	}
}

func TestApplyKeepsTimingWhenShiftStaysInvalid(t *testing.T) {
	in := []transcript.Token{testsupport.Token("a", 1, 2)}
	out, res := Apply(in, SyncCorrection{OffsetSeconds: -8, Confidence: 0.9}, DefaultOptions())
	if len(res.Unadjusted) != 1 || res.Unadjusted[0] != 0 {
		t.Fatalf("expected utterance 0 flagged, got %+v", res)
	}
	if out[0].Start != 1 || out[0].End != 2 {
		t.Fatalf("timing should be unchanged, got %+v", out[0])
	}
}

func TestFixOverlaps(t *testing.T) {
	in := []transcript.Token{
		testsupport.Token("a", 0, 2),
		testsupport.Token("b", 1.5, 2.2),
		testsupport.Token("c", 5, 6),
	}
	out, fixed := FixOverlaps(in, 0.1, 0.5)
	if fixed != 1 {
		t.Fatalf("fixed = %d, want 1", fixed)
	}
	if math.Abs(out[1].Start-2.1) > eps || math.Abs(out[1].End-2.6) > eps {
		t.Fatalf("overlap not resolved: %+v", out[1])
	}
}

func TestFineTuneSnapsToEnergyExtremes(t *testing.T) {
	values := make([]float64, 200)
	for i := range values {
		values[i] = 0.5
	}
	values[44] = 1.0  // loudest near 1.0s start -> 1.1s
	values[118] = 0.1 // quietest near 3.0s end -> 2.95s
	profile := &EnergyProfile{Hop: DefaultHop, Values: values}

	out := FineTune([]transcript.Token{testsupport.Token("a", 1.0, 3.0)}, profile)
	if math.Abs(out[0].Start-1.1) > eps {
		t.Fatalf("start = %v, want 1.1", out[0].Start)
	}
	if math.Abs(out[0].End-2.95) > eps {
		t.Fatalf("end = %v, want 2.95", out[0].End)
	}

	same := FineTune([]transcript.Token{testsupport.Token("a", 1.0, 3.0)}, nil)
	if same[0].Start != 1 || same[0].End != 3 {
		t.Fatal("nil profile must leave timing unchanged")
	}
}

func TestValidateSyncQuality(t *testing.T) {
	profile := burstProfile()
	aligned := ValidateSyncQuality(shiftedTimeline(0), profile)
	if aligned.Quality != SyncExcellent || aligned.Coverage < 0.8 {
		t.Fatalf("aligned timeline quality = %+v", aligned)
	}
	silent := []transcript.Token{testsupport.Token("a", 14, 15), testsupport.Token("b", 15.2, 15.8)}
	poor := ValidateSyncQuality(silent, profile)
	if poor.Quality != SyncPoor || len(poor.Issues) != 2 {
		t.Fatalf("silent timeline quality = %+v", poor)
	}
	if got := ValidateSyncQuality(nil, profile); got.Quality != SyncUnknown {
		t.Fatalf("empty timeline quality = %+v", got)
	}
}
