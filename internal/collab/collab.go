package collab

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"captionsync/internal/language"
	"captionsync/internal/services"
	"captionsync/internal/transcript"
)

// Recognizer turns audio into a timestamped transcript.
type Recognizer interface {
	Name() string
	Transcribe(ctx context.Context, audioPath string) (transcript.Transcript, error)
}

// TranslateRequest is one call to a Translator.
type TranslateRequest struct {
	Text   string
	Source string
	Target string
	// Formality is empty unless the target supports it.
	Formality language.Formality
}

// Translator turns source text into target-language text.
type Translator interface {
	Name() string
	Translate(ctx context.Context, req TranslateRequest) (string, error)
}

// NewRequest builds a request with normalized language codes. Formality is
// dropped for targets that do not accept it.
func NewRequest(text, source, target string, formality language.Formality) (TranslateRequest, error) {
	targetCode := language.ToISO2(target)
	if targetCode == "" {
		return TranslateRequest{}, services.Wrap(services.ErrConfiguration, "translate", "request", fmt.Sprintf("unknown target language %q", target), nil)
	}
	return TranslateRequest{
		Text:      text,
		Source:    language.ToISO2(source),
		Target:    targetCode,
		Formality: language.FormalityFor(targetCode, formality),
	}, nil
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(ctx context.Context, req TranslateRequest) (string, error)

// Name identifies the adapter.
func (TranslatorFunc) Name() string { return "func" }

// Translate calls f.
func (f TranslatorFunc) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	return f(ctx, req)
}

// RecognizerFunc adapts a function to Recognizer.
type RecognizerFunc func(ctx context.Context, audioPath string) (transcript.Transcript, error)

// Name identifies the adapter.
func (RecognizerFunc) Name() string { return "func" }

// Transcribe calls f.
func (f RecognizerFunc) Transcribe(ctx context.Context, audioPath string) (transcript.Transcript, error) {
	return f(ctx, audioPath)
}

// Chain tries each translator in order and returns the first success.
type Chain []Translator

// Name lists the chained translators.
func (c Chain) Name() string {
	names := make([]string, 0, len(c))
	for _, t := range c {
		names = append(names, t.Name())
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// Translate returns the first successful translation. Cancellation stops
// the chain; otherwise every failure is joined into the returned error.
func (c Chain) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	if len(c) == 0 {
		return "", services.Wrap(services.ErrConfiguration, "translate", "chain", "no translators configured", nil)
	}
	var errs []error
	for _, t := range c {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		out, err := t.Translate(ctx, req)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		errs = append(errs, fmt.Errorf("%s: %w", t.Name(), err))
	}
	return "", errors.Join(errs...)
}
