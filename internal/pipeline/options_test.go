package pipeline_test

import (
	"path/filepath"
	"testing"
	"time"

	"captionsync/internal/captions"
	"captionsync/internal/language"
	"captionsync/internal/pipeline"
	"captionsync/internal/testsupport"
)

func TestRetryOptionsConvertsSeconds(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Retry.BaseDelay = 1.5
	cfg.Retry.MaxDelay = 30
	cfg.Retry.TimeoutSeconds = 120

	opts := pipeline.RetryOptions(cfg)
	if opts.BaseDelay != 1500*time.Millisecond {
		t.Fatalf("base delay = %v", opts.BaseDelay)
	}
	if opts.MaxDelay != 30*time.Second || opts.Timeout != 2*time.Minute {
		t.Fatalf("unexpected delays: %+v", opts)
	}
	if opts.MaxRetries != cfg.Retry.MaxRetries || !opts.Exponential {
		t.Fatalf("policy not carried over: %+v", opts)
	}
}

func TestCaptionOptionsFallsBackToSRT(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCaptionFormat("ass"))
	if got := pipeline.CaptionOptions(cfg).Format; got != captions.FormatASS {
		t.Fatalf("format = %q", got)
	}
	cfg.Captions.Format = "sub"
	opts := pipeline.CaptionOptions(cfg)
	if opts.Format != captions.FormatSRT {
		t.Fatalf("unknown format should fall back to srt, got %q", opts.Format)
	}
	if opts.Style.FontName != cfg.Captions.FontName || opts.MaxCharsPerLine != cfg.Captions.MaxCharsPerLine {
		t.Fatalf("style not carried over: %+v", opts)
	}
}

func TestReprocessOptionsCarriesLanguages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Translation.SourceLanguage = "en"
	cfg.Translation.TargetLanguage = "de"
	cfg.Translation.Formality = "more"

	opts := pipeline.ReprocessOptions(cfg)
	if opts.TargetLanguage != "de" || opts.Formality != language.FormalityMore {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if opts.Concurrency != cfg.Reprocess.Concurrency || opts.ConfidenceBoost != cfg.Reprocess.ConfidenceBoost {
		t.Fatalf("thresholds not carried over: %+v", opts)
	}
}

func TestSegmenterOptionsCopiesConjunctions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	opts := pipeline.SegmenterOptions(cfg)
	if len(opts.Conjunctions) == 0 {
		t.Fatal("expected default conjunctions")
	}
	opts.Conjunctions[0] = "changed"
	if cfg.Segmentation.Conjunctions[0] == "changed" {
		t.Fatal("options must not alias the config")
	}
}

func TestOutputPathFor(t *testing.T) {
	tests := []struct {
		name   string
		audio  string
		dir    string
		format captions.Format
		want   string
	}{
		{"beside audio", "/media/show/ep1.wav", "", captions.FormatSRT, "/media/show/ep1.srt"},
		{"into dir", "/media/show/ep1.wav", "/out", captions.FormatVTT, filepath.Join("/out", "ep1.vtt")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pipeline.OutputPathFor(tt.audio, tt.dir, tt.format); got != tt.want {
				t.Fatalf("got %q want %q", got, tt.want)
			}
		})
	}
}
