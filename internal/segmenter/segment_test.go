package segmenter

import (
	"math"
	"testing"

	"captionsync/internal/testsupport"
	"captionsync/internal/transcript"
)

const eps = 1e-9

func TestSegmentMergesShortSameSpeakerUtterance(t *testing.T) {
	tokens := []transcript.Token{
		testsupport.Token("Hi.", 0.0, 0.2),
		testsupport.Token("there.", 0.3, 0.6),
	}
	res := Segment(tokens, DefaultOptions())
	if len(res.Utterances) != 1 || res.Merged != 1 {
		t.Fatalf("expected one merged utterance, got %d (merged %d)", len(res.Utterances), res.Merged)
	}
	u := res.Utterances[0]
	if u.Start != 0 || u.End != 0.6 {
		t.Fatalf("merged span = [%v, %v], want [0, 0.6]", u.Start, u.End)
	}
	if u.Text != "Hi. there." || len(u.Tokens) != 2 {
		t.Fatalf("merged content = %q with %d tokens", u.Text, len(u.Tokens))
	}
}

func TestSegmentBreaksOnPause(t *testing.T) {
	tokens := []transcript.Token{
		testsupport.Token("so", 0, 0.4),
		testsupport.Token("anyway", 0.5, 0.9),
		testsupport.Token("we", 1.6, 2.0),
		testsupport.Token("left", 2.1, 2.5),
	}
	res := Segment(tokens, DefaultOptions())
	if len(res.Utterances) != 2 {
		t.Fatalf("got %d utterances, want 2", len(res.Utterances))
	}
	first, second := res.Utterances[0], res.Utterances[1]
	if !first.IsNaturalBreak || second.IsNaturalBreak {
		t.Fatalf("natural break flags = %v, %v", first.IsNaturalBreak, second.IsNaturalBreak)
	}
	if math.Abs(second.PauseBefore-0.7) > eps || math.Abs(first.PauseAfter-0.7) > eps {
		t.Fatalf("pauses = %v / %v, want 0.7", first.PauseAfter, second.PauseBefore)
	}
	if first.PauseBefore != 0 || second.PauseAfter != 0 {
		t.Fatal("edge pauses must be zero")
	}
}

func TestSegmentBreaksAfterQuotedPunctuation(t *testing.T) {
	tokens := []transcript.Token{
		testsupport.Token("He", 0, 0.4),
		testsupport.Token("said", 0.5, 0.9),
		testsupport.Token(`"Stop."`, 1.0, 1.4),
		testsupport.Token("Then", 1.5, 1.9),
		testsupport.Token("(quietly?)", 2.0, 2.6),
		testsupport.Token("we", 2.7, 3.1),
		testsupport.Token("left", 3.2, 3.6),
	}
	res := Segment(tokens, DefaultOptions())
	if len(res.Utterances) != 3 {
		t.Fatalf("got %d utterances, want 3", len(res.Utterances))
	}
	want := []string{`He said "Stop."`, "Then (quietly?)", "we left"}
	for i, u := range res.Utterances {
		if u.Text != want[i] {
			t.Fatalf("utterance %d = %q, want %q", i, u.Text, want[i])
		}
	}
	if !res.Utterances[0].IsNaturalBreak || !res.Utterances[0].Token().IsPunctuated {
		t.Fatalf("quoted sentence end should be a punctuated natural break: %+v", res.Utterances[0])
	}
}

func TestSegmentKeepsSpeakersApart(t *testing.T) {
	tokens := []transcript.Token{
		testsupport.SpeakerToken("yes.", 0, 0.3, 0.9, "A"),
		testsupport.SpeakerToken("no.", 0.4, 0.6, 0.9, "B"),
		testsupport.SpeakerToken("Hello", 0.8, 1.5, 0.9, "A"),
		testsupport.SpeakerToken("there.", 1.6, 2.0, 0.9, "A"),
		testsupport.SpeakerToken("ok.", 3.2, 3.5, 0.9, "A"),
	}
	res := Segment(tokens, DefaultOptions())
	if res.Merged != 0 {
		t.Fatalf("merged %d utterances, want none", res.Merged)
	}
	want := []string{"A", "B", "A", "A"}
	if len(res.Utterances) != len(want) {
		t.Fatalf("got %d utterances, want %d", len(res.Utterances), len(want))
	}
	for i, u := range res.Utterances {
		if u.Speaker != want[i] {
			t.Fatalf("utterance %d speaker = %q, want %q", i, u.Speaker, want[i])
		}
	}
}

func longTokens() []transcript.Token {
	tokens := testsupport.EvenTokens(30, 0.4, 0.1)
	tokens[9].Text = "word,"
	tokens[20].Text = "and"
	return tokens
}

func TestSegmentSplitsLongUtterance(t *testing.T) {
	res := Segment(longTokens(), DefaultOptions())
	if res.Split != 1 || len(res.Utterances) != 2 {
		t.Fatalf("got %d utterances (split %d), want 2", len(res.Utterances), res.Split)
	}
	first, second := res.Utterances[0], res.Utterances[1]
	if math.Abs(first.End-4.9) > eps || len(first.Tokens) != 10 {
		t.Fatalf("first piece ends at %v with %d tokens", first.End, len(first.Tokens))
	}
	if first.IsNaturalBreak {
		t.Fatal("a split piece is not a natural break")
	}
	if math.Abs(second.Start-5.0) > eps || math.Abs(second.End-14.9) > eps {
		t.Fatalf("second piece = [%v, %v]", second.Start, second.End)
	}
}

func TestSegmentLeavesLongUtteranceWithoutBreakPoint(t *testing.T) {
	res := Segment(testsupport.EvenTokens(30, 0.4, 0.1), DefaultOptions())
	if len(res.Utterances) != 1 || res.Split != 0 {
		t.Fatalf("got %d utterances, want the original one", len(res.Utterances))
	}
}

func TestSegmentPartitionsInput(t *testing.T) {
	tokens := longTokens()
	tokens = append(tokens,
		testsupport.Token("Then.", 16, 16.3),
		testsupport.Token("Later", 18, 18.6),
		testsupport.Token("on.", 18.7, 19.4),
	)
	res := Segment(tokens, DefaultOptions())
	count := 0
	for i, u := range res.Utterances {
		count += len(u.Tokens)
		if u.ID != i {
			t.Fatalf("utterance %d has id %d", i, u.ID)
		}
		if i > 0 && res.Utterances[i-1].End > u.Start {
			t.Fatalf("utterances %d and %d overlap", i-1, i)
		}
	}
	if count != len(tokens) {
		t.Fatalf("utterances hold %d tokens, want %d", count, len(tokens))
	}
	first, last := res.Utterances[0], res.Utterances[len(res.Utterances)-1]
	if first.Start != tokens[0].Start || last.End != tokens[len(tokens)-1].End {
		t.Fatalf("span [%v, %v] differs from input", first.Start, last.End)
	}
}

func TestSegmentEmpty(t *testing.T) {
	if res := Segment(nil, DefaultOptions()); len(res.Utterances) != 0 {
		t.Fatalf("expected no utterances, got %d", len(res.Utterances))
	}
}

func TestQuality(t *testing.T) {
	utterances := []Utterance{
		{Start: 0, End: 2, Confidence: 0.9, IsNaturalBreak: true},
		{Start: 2.5, End: 4, Confidence: 0.7, PauseBefore: 0.5},
	}
	if got := Quality(utterances); math.Abs(got-0.825) > eps {
		t.Fatalf("quality = %v, want 0.825", got)
	}
	if Quality(nil) != 0 {
		t.Fatal("empty segmentation should score 0")
	}
}

func TestPauseStats(t *testing.T) {
	utterances := []Utterance{
		{PauseBefore: 0},
		{PauseBefore: 2.5},
		{PauseBefore: 0.5},
		{PauseBefore: 1.5},
	}
	got := PauseStats(utterances)
	want := PauseStatistics{Count: 3, Average: 1.5, Median: 1.5, Min: 0.5, Max: 2.5, Total: 4.5, OverOne: 2, OverTwo: 1}
	if got != want {
		t.Fatalf("stats = %+v, want %+v", got, want)
	}
	if PauseStats(nil) != (PauseStatistics{}) {
		t.Fatal("expected zero stats without pauses")
	}
}
