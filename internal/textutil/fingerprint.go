package textutil

import (
	"math"
	"regexp"
	"strings"
)

var tokenSplitPattern = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Fingerprint is a term-frequency vector used to compare two texts.
type Fingerprint struct {
	terms map[string]float64
	norm  float64
}

// NewFingerprint builds a fingerprint from text. It returns nil when text
// yields no terms.
func NewFingerprint(text string) *Fingerprint {
	terms := Terms(text)
	if len(terms) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(terms))
	for _, term := range terms {
		counts[term]++
	}
	var sum float64
	for _, c := range counts {
		sum += c * c
	}
	return &Fingerprint{terms: counts, norm: math.Sqrt(sum)}
}

// Terms lowercases text and splits it on non letter/digit runs, dropping
// terms shorter than three runes.
func Terms(text string) []string {
	raw := tokenSplitPattern.Split(strings.ToLower(Normalize(text)), -1)
	out := make([]string, 0, len(raw))
	for _, term := range raw {
		if len([]rune(term)) < 3 {
			continue
		}
		out = append(out, term)
	}
	return out
}

// Similarity returns the cosine similarity of two fingerprints, or 0 when
// either is empty.
func Similarity(a, b *Fingerprint) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	var dot float64
	for term, count := range a.terms {
		dot += count * b.terms[term]
	}
	if dot == 0 {
		return 0
	}
	return math.Min(1, dot/(a.norm*b.norm))
}

// TextSimilarity fingerprints both texts and compares them.
func TextSimilarity(a, b string) float64 {
	return Similarity(NewFingerprint(a), NewFingerprint(b))
}
