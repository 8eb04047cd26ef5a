package textutil

import (
	"math"
	"reflect"
	"testing"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "   ", nil},
		{"single without terminator", "hello there", []string{"hello there"}},
		{"two sentences", "Hello there. How are you?", []string{"Hello there.", "How are you?"}},
		{"ellipsis run", "Wait... what!  Really", []string{"Wait...", "what!", "Really"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitSentences(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("SplitSentences(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestWrapRespectsWidth(t *testing.T) {
	lines := Wrap("the quick brown fox jumps over the lazy dog", 10)
	want := []string{"the quick", "brown fox", "jumps over", "the lazy", "dog"}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("Wrap = %#v, want %#v", lines, want)
	}
	long := Wrap("supercalifragilistic word", 5)
	if len(long) != 2 || long[0] != "supercalifragilistic" {
		t.Fatalf("expected overlong word on its own line, got %#v", long)
	}
	if got := Wrap("a b", 0); len(got) != 1 || got[0] != "a b" {
		t.Fatalf("expected no wrapping for zero width, got %#v", got)
	}
}

func TestReadableLengthNormalizesDecomposedRunes(t *testing.T) {
	composed := "caf\u00e9"
	decomposed := "cafe\u0301"
	if ReadableLength(composed) != 4 || ReadableLength(decomposed) != 4 {
		t.Fatalf("expected 4 readable chars, got %d and %d", ReadableLength(composed), ReadableLength(decomposed))
	}
}

func TestTextSimilarity(t *testing.T) {
	if got := TextSimilarity("", "hello world"); got != 0 {
		t.Fatalf("empty similarity = %v, want 0", got)
	}
	if got := TextSimilarity("The quick brown fox", "the QUICK brown fox!"); math.Abs(got-1) > 1e-9 {
		t.Fatalf("identical similarity = %v, want 1", got)
	}
	if got := TextSimilarity("apple banana cherry", "dog elephant frog"); got != 0 {
		t.Fatalf("disjoint similarity = %v, want 0", got)
	}
	if got := TextSimilarity("the quick brown fox", "the slow brown cat"); got <= 0 || got >= 1 {
		t.Fatalf("partial similarity = %v, want (0,1)", got)
	}
}

func TestSanitizeLabel(t *testing.T) {
	tests := map[string]string{
		"":              "unknown",
		"Speaker A":     "speaker_a",
		"--low conf--":  "low_conf",
		"quality-check": "quality-check",
	}
	for in, want := range tests {
		if got := SanitizeLabel(in); got != want {
			t.Errorf("SanitizeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBare(t *testing.T) {
	if got := Bare("And,"); got != "and" {
		t.Fatalf("Bare = %q", got)
	}
}
