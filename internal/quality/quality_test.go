package quality

import (
	"math"
	"strings"
	"testing"
	"time"

	"captionsync/internal/testsupport"
	"captionsync/internal/transcript"
)

const eps = 1e-9

func meetingSegments() ([]transcript.Token, []transcript.Token) {
	lines := [][2]string{
		{"Good morning everyone.", "Buenos dias a todos!!"},
		{"The meeting starts now.", "La reunion empieza ya."},
		{"Please take a seat.", "Por favor, sientense."},
		{"We have a lot to cover.", "Tenemos mucho que ver."},
	}
	var original, translated []transcript.Token
	for i, pair := range lines {
		start := float64(i) * 2.5
		original = append(original, testsupport.SpeakerToken(pair[0], start, start+2, 0.85, "A"))
		translated = append(translated, testsupport.SpeakerToken(pair[1], start, start+2, 0.85, "A"))
	}
	return original, translated
}

func TestBuildReportExcellent(t *testing.T) {
	original, translated := meetingSegments()
	r := BuildReport(ReportInput{
		TranscriptionConfidence: 0.85,
		Segments:                original,
		Translated:              translated,
		RetryCount:              1,
		ProcessingTime:          1500 * time.Millisecond,
	}, DefaultOptions())

	if r.OverallQuality != Excellent {
		t.Fatalf("overall quality = %s (confidence %.3f, issues %v)", r.OverallQuality, r.Confidence.Overall, r.Issues())
	}
	if !r.AllValid() {
		t.Fatalf("expected all validations to pass: %v", r.Issues())
	}
	if r.RetryCount != 1 || r.ProcessingSeconds != 1.5 {
		t.Fatalf("retry count %d, processing %.2fs", r.RetryCount, r.ProcessingSeconds)
	}
	if len(r.Recommendations) != 0 {
		t.Fatalf("unexpected recommendations %v", r.Recommendations)
	}
}

func TestBuildReportCapsExcellentWhenValidationFails(t *testing.T) {
	original, translated := meetingSegments()
	translated[1].Start = 1.9
	r := BuildReport(ReportInput{
		TranscriptionConfidence: 0.85,
		Segments:                original,
		Translated:              translated,
	}, DefaultOptions())
	if r.Confidence.Label != Excellent {
		t.Fatalf("combined label = %s, want excellent", r.Confidence.Label)
	}
	if r.Timing.Valid {
		t.Fatal("overlapping captions must fail timing validation")
	}
	if r.OverallQuality != Good {
		t.Fatalf("overall quality = %s, want good", r.OverallQuality)
	}
	if !containsSubstring(r.Recommendations, "segmentation and block timing") {
		t.Fatalf("recommendations %v", r.Recommendations)
	}
}

func TestBuildReportLowConfidence(t *testing.T) {
	original, _ := meetingSegments()
	r := BuildReport(ReportInput{
		TranscriptionConfidence: 0.1,
		Segments:                original,
		StageMetrics:            map[string]float64{MetricSyncConfidence: 0.2},
	}, DefaultOptions())
	if r.OverallQuality.AtLeast(Acceptable) {
		t.Fatalf("overall quality = %s (%.3f)", r.OverallQuality, r.Confidence.Overall)
	}
	if !containsSubstring(r.Recommendations, "Manual review") || !containsSubstring(r.Recommendations, "verify sync") {
		t.Fatalf("recommendations %v", r.Recommendations)
	}
	if !r.Translation.Valid {
		t.Fatal("missing translation should not fail translation validation")
	}
}

func TestLabelFor(t *testing.T) {
	tests := []struct {
		score float64
		want  Label
	}{
		{0.95, Excellent},
		{0.9, Excellent},
		{0.85, Good},
		{0.6, Acceptable},
		{0.45, Poor},
		{0.3, Failed},
		{0, Failed},
	}
	for _, tt := range tests {
		if got := LabelFor(tt.score); got != tt.want {
			t.Errorf("LabelFor(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
	if !Good.AtLeast(Poor) || Poor.AtLeast(Good) {
		t.Fatal("label ordering is wrong")
	}
	if l, err := ParseLabel(" GOOD "); err != nil || l != Good {
		t.Fatalf("ParseLabel = %v, %v", l, err)
	}
	if _, err := ParseLabel("great"); err == nil {
		t.Fatal("expected error for unknown label")
	}
}

func TestValidateTranscription(t *testing.T) {
	good := testsupport.SpeakerToken("ok", 0, 2, 0.9, "A")
	lowConf := testsupport.SpeakerToken("ok", 0, 2, 0.5, "A")
	tooShort := testsupport.SpeakerToken("ok", 0, 0.2, 0.9, "A")

	tests := []struct {
		name       string
		confidence float64
		segments   []transcript.Token
		issue      string
	}{
		{"valid", 0.9, []transcript.Token{good, good, good}, ""},
		{"low overall", 0.6, []transcript.Token{good}, "low overall"},
		{"no segments", 0.9, nil, "no segments"},
		{"low confidence share", 0.9, []transcript.Token{good, lowConf, lowConf}, "low-confidence"},
		{"duration share", 0.9, []transcript.Token{good, good, good, tooShort}, "timing problems"},
		{"tolerated share", 0.9, []transcript.Token{good, good, good, good, good, tooShort}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ValidateTranscription(tt.confidence, tt.segments, DefaultOptions())
			if tt.issue == "" {
				if !v.Valid {
					t.Fatalf("unexpected issues %v", v.Issues)
				}
				return
			}
			if v.Valid || !containsSubstring(v.Issues, tt.issue) {
				t.Fatalf("issues %v, want one containing %q", v.Issues, tt.issue)
			}
		})
	}
}

func TestValidateTranslation(t *testing.T) {
	src := []transcript.Token{
		testsupport.Token("This is a long original sentence.", 0, 3),
		testsupport.Token("Short line here.", 3.5, 5),
	}
	tests := []struct {
		name  string
		dst   []string
		issue string
	}{
		{"count mismatch", []string{"Una frase original bastante larga."}, "count mismatch"},
		{"empty", []string{"Una frase original bastante larga.", "  "}, "empty translation"},
		{"too short", []string{"Si.", "Linea corta aqui."}, "too short"},
		{"too long", []string{"Una frase original bastante larga.", strings.Repeat("muy larga ", 6)}, "too long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := make([]transcript.Token, len(tt.dst))
			for i, text := range tt.dst {
				dst[i] = src[i]
				dst[i].Text = text
			}
			v := ValidateTranslation(src, dst, DefaultOptions())
			if v.Valid || !containsSubstring(v.Issues, tt.issue) {
				t.Fatalf("issues %v, want one containing %q", v.Issues, tt.issue)
			}
		})
	}
}

func TestValidateTranslationWarnings(t *testing.T) {
	src := []transcript.Token{
		testsupport.Token("Welcome to the evening news broadcast.", 0, 3),
		testsupport.Token("Tonight we cover the weather forecast.", 3.5, 6),
		testsupport.Token("Sports results follow after the break.", 6.5, 9),
	}
	dst := transcript.Clone(src)
	dst[0].Text = "Welcome to the evening news broadcast."
	dst[1].Text = "Esta noche hablamos del tiempo."
	dst[2].Text = "Esta noche hablamos del tiempo."
	v := ValidateTranslation(src, dst, DefaultOptions())
	if !v.Valid {
		t.Fatalf("warnings must not invalidate: %v", v.Issues)
	}
	if len(v.Warnings) != 2 {
		t.Fatalf("warnings = %v, want 2", v.Warnings)
	}
	if !strings.Contains(v.Warnings[0], "segment 0") || !strings.Contains(v.Warnings[1], "segment 2") {
		t.Fatalf("unexpected warnings %v", v.Warnings)
	}
}

func TestValidateTiming(t *testing.T) {
	tests := []struct {
		name     string
		segments []transcript.Token
		issue    string
	}{
		{"comfortable", []transcript.Token{testsupport.Token("Twenty characters ok", 0, 2)}, ""},
		{"too fast", []transcript.Token{testsupport.Token("This caption has far too many characters", 0, 1)}, "too fast"},
		{"too slow", []transcript.Token{testsupport.Token("A sluggish caption", 0, 9)}, "too slow"},
		{"short text may be slow", []transcript.Token{testsupport.Token("Yes.", 0, 3)}, ""},
		{"overlap", []transcript.Token{testsupport.Token("First caption", 0, 2), testsupport.Token("Second caption", 1.5, 3)}, "overlaps"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ValidateTiming(tt.segments, DefaultOptions())
			if tt.issue == "" {
				if !v.Valid {
					t.Fatalf("unexpected issues %v", v.Issues)
				}
				return
			}
			if v.Valid || !containsSubstring(v.Issues, tt.issue) {
				t.Fatalf("issues %v, want one containing %q", v.Issues, tt.issue)
			}
		})
	}
}

func TestScoreConfidence(t *testing.T) {
	segments := []transcript.Token{
		testsupport.Token("a", 0, 2),
		testsupport.Token("b", 3, 3.6),
		testsupport.Token("c", 4, 13),
	}
	if got := TimingConfidence(segments); math.Abs(got-0.7) > eps {
		t.Fatalf("timing confidence = %v, want 0.7", got)
	}
	m := ScoreConfidence(0.8, segments, 0.9)
	if want := 0.4*0.8 + 0.4*0.9 + 0.2*0.7; math.Abs(m.Overall-want) > eps {
		t.Fatalf("overall = %v, want %v", m.Overall, want)
	}
	if m.Label != Good {
		t.Fatalf("label = %s", m.Label)
	}
	if TimingConfidence(nil) != 0.5 {
		t.Fatal("no segments should rate 0.5")
	}
}

func TestTranslationEstimate(t *testing.T) {
	opts := DefaultOptions()
	src := []transcript.Token{testsupport.Token("0123456789", 0, 1)}
	tests := []struct {
		dst  string
		want float64
	}{
		{"abcdefghij", 1},
		{"abc", 0.5},
		{"ab", 0},
		{strings.Repeat("x", 20), 0.75},
		{strings.Repeat("x", 31), 0},
	}
	for _, tt := range tests {
		dst := []transcript.Token{testsupport.Token(tt.dst, 0, 1)}
		if got := TranslationEstimate(src, dst, opts); math.Abs(got-tt.want) > eps {
			t.Errorf("estimate for %q = %v, want %v", tt.dst, got, tt.want)
		}
	}
	if got := TranslationEstimate(src, nil, opts); got != DefaultTranslationEstimate {
		t.Fatalf("no translation estimate = %v", got)
	}
}

func TestAnalyzeSpeakers(t *testing.T) {
	segments := []transcript.Token{
		testsupport.SpeakerToken("a", 0, 2, 0.8, "B"),
		testsupport.SpeakerToken("b", 2, 3, 0.6, "A"),
		testsupport.SpeakerToken("c", 3, 6, 1.0, "B"),
		testsupport.SpeakerToken("d", 6, 7, 0.5, ""),
	}
	got := AnalyzeSpeakers(segments)
	if len(got) != 2 {
		t.Fatalf("got %d speakers: %+v", len(got), got)
	}
	b, a := got[0], got[1]
	if b.Speaker != "B" || b.Segments != 2 || math.Abs(b.Confidence-0.9) > eps || b.TotalDuration != 5 {
		t.Fatalf("speaker B = %+v", b)
	}
	if a.Speaker != "A" || a.Segments != 2 || math.Abs(a.Confidence-0.55) > eps {
		t.Fatalf("speaker A = %+v", a)
	}
}

func containsSubstring(values []string, needle string) bool {
	for _, v := range values {
		if strings.Contains(v, needle) {
			return true
		}
	}
	return false
}
