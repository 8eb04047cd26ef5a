package pipeline

import (
	"math"
	"testing"

	"captionsync/internal/transcript"
)

func TestShiftWordsFollowsContainingSegment(t *testing.T) {
	before := []transcript.Token{{Start: 0, End: 1}, {Start: 2, End: 3}}
	after := []transcript.Token{{Start: 0.5, End: 1.5}, {Start: 2.2, End: 3.2}}
	words := []transcript.Token{
		{Text: "a", Start: 0.2, End: 0.6},
		{Text: "b", Start: 2, End: 2.4},
		{Text: "c", Start: 2.5, End: 2.9},
	}

	got := shiftWords(words, before, after)
	want := []float64{0.7, 2.2, 2.7}
	for i, w := range want {
		if math.Abs(got[i].Start-w) > 1e-9 {
			t.Fatalf("word %d start = %v want %v", i, got[i].Start, w)
		}
	}
	if words[0].Start != 0.2 {
		t.Fatal("input must not be modified")
	}
}

func TestShiftWordsMismatchedTimelines(t *testing.T) {
	words := []transcript.Token{{Text: "a", Start: 1, End: 2}}
	got := shiftWords(words, []transcript.Token{{Start: 0, End: 1}}, nil)
	if got[0].Start != 1 {
		t.Fatalf("mismatched timelines must leave words unchanged, got %v", got[0].Start)
	}
}
