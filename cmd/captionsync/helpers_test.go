package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleTranscriptJSON = `{
  "text": "Hello there. How are you?",
  "confidence": 0.9,
  "language_code": "en",
  "segments": [
    {"text": "Hello there.", "start": 0, "end": 1.1, "confidence": 0.9, "speaker": "A"},
    {"text": "How are you?", "start": 2.2, "end": 3.9, "confidence": 0.9, "speaker": "A"}
  ],
  "words": [
    {"word": "Hello", "start": 0, "end": 0.5, "confidence": 0.9, "speaker": "A"},
    {"word": "there.", "start": 0.6, "end": 1.1, "confidence": 0.9, "speaker": "A"},
    {"word": "How", "start": 2.2, "end": 2.7, "confidence": 0.9, "speaker": "A"},
    {"word": "are", "start": 2.8, "end": 3.3, "confidence": 0.9, "speaker": "A"},
    {"word": "you?", "start": 3.4, "end": 3.9, "confidence": 0.9, "speaker": "A"}
  ]
}`

type cliTestEnv struct {
	baseDir    string
	configPath string
	mediaDir   string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		mediaDir:   filepath.Join(base, "media"),
	}
	if err := os.MkdirAll(env.mediaDir, 0o755); err != nil {
		t.Fatalf("mkdir media: %v", err)
	}
	content := fmt.Sprintf(`[paths]
log_dir = %q
cache_dir = %q
retry_db = %q

[sync]
enabled = false

[retry]
base_delay = 0.0
max_delay = 0.0

[logging]
format = "json"
level = "error"
`, filepath.Join(base, "logs"), filepath.Join(base, "cache"), filepath.Join(base, "retries.db"))
	writeTestFile(t, env.configPath, content)
	return env
}

// writeTranscript places a recognizer transcript next to name.wav and
// returns the audio path.
func (e *cliTestEnv) writeTranscript(t *testing.T, name string) string {
	t.Helper()
	writeTestFile(t, filepath.Join(e.mediaDir, name+".json"), sampleTranscriptJSON)
	return filepath.Join(e.mediaDir, name+".wav")
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n%s", needle, haystack)
	}
}
