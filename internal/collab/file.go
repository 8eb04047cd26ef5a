package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"captionsync/internal/fileutil"
	"captionsync/internal/services"
	"captionsync/internal/textutil"
	"captionsync/internal/transcript"
)

// FileRecognizer reads a transcript produced ahead of time by an external
// recognizer. With Path empty, the transcript is expected next to the audio
// file with a .json extension.
type FileRecognizer struct {
	Path string
	Unit transcript.Unit
}

// Name identifies the adapter.
func (FileRecognizer) Name() string { return "file" }

// Transcribe decodes the transcript file.
func (r FileRecognizer) Transcribe(ctx context.Context, audioPath string) (transcript.Transcript, error) {
	if err := ctx.Err(); err != nil {
		return transcript.Transcript{}, err
	}
	path := r.Path
	if path == "" {
		if strings.TrimSpace(audioPath) == "" {
			return transcript.Transcript{}, services.Wrap(services.ErrMissingInput, "transcribe", "file", "no transcript or audio path", nil)
		}
		path = fileutil.ReplaceExt(audioPath, ".json")
	}
	tr, err := transcript.DecodeFile(path, r.Unit)
	if err != nil {
		return transcript.Transcript{}, err
	}
	if tr.Empty() {
		return transcript.Transcript{}, services.Wrap(services.ErrValidation, "transcribe", "file", fmt.Sprintf("%s has no segments or words", filepath.Base(path)), nil)
	}
	return tr, nil
}

// Glossary translates line by line from a dictionary keyed by normalized
// source text.
type Glossary struct {
	name    string
	entries map[string]string
}

// NewGlossary builds a Glossary from source/target pairs.
func NewGlossary(name string, entries map[string]string) *Glossary {
	g := &Glossary{name: name, entries: make(map[string]string, len(entries))}
	for src, dst := range entries {
		g.entries[glossaryKey(src)] = strings.TrimSpace(dst)
	}
	return g
}

// LoadGlossary reads a JSON object mapping source lines to translations.
func LoadGlossary(path string) (*Glossary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, services.Wrap(services.ErrMissingInput, "translate", "glossary", "glossary not found", err)
		}
		return nil, fmt.Errorf("read glossary: %w", err)
	}
	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, services.Wrap(services.ErrValidation, "translate", "glossary", "invalid glossary JSON", err)
	}
	return NewGlossary("glossary:"+filepath.Base(path), entries), nil
}

// Name identifies the glossary.
func (g *Glossary) Name() string { return g.name }

// Len reports the number of entries.
func (g *Glossary) Len() int { return len(g.entries) }

// Translate maps every non-empty line of req.Text. An unknown line fails
// the whole request with services.ErrNotFound.
func (g *Glossary) Translate(ctx context.Context, req TranslateRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out []string
	for _, line := range strings.Split(req.Text, "\n") {
		key := glossaryKey(line)
		if key == "" {
			continue
		}
		dst, ok := g.entries[key]
		if !ok {
			return "", services.Wrap(services.ErrNotFound, "translate", g.name, fmt.Sprintf("no entry for %q", strings.TrimSpace(line)), nil)
		}
		out = append(out, dst)
	}
	return strings.Join(out, "\n"), nil
}

func glossaryKey(text string) string {
	return strings.ToLower(strings.Join(textutil.Words(textutil.Normalize(text)), " "))
}
