package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"
)

type processRecorder struct {
	mu    sync.Mutex
	paths []string
	ch    chan string
}

func newProcessRecorder() *processRecorder {
	return &processRecorder{ch: make(chan string, 16)}
}

func (r *processRecorder) process(_ context.Context, path string) error {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
	r.ch <- path
	return nil
}

func (r *processRecorder) await(t *testing.T, want string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-r.ch:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestWatcherMatches(t *testing.T) {
	w := &transcriptWatcher{pattern: "*.json"}
	cases := map[string]bool{
		"/x/talk.json":    true,
		"/x/.hidden.json": false,
		"/x/talk.srt":     false,
	}
	for path, want := range cases {
		if got := w.matches(path); got != want {
			t.Fatalf("matches(%q) = %v want %v", path, got, want)
		}
	}
}

func TestWatcherProcessesExistingAndNewTranscripts(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "first.json")
	writeTestFile(t, existing, sampleTranscriptJSON)

	rec := newProcessRecorder()
	w := &transcriptWatcher{
		dir:         dir,
		pattern:     "*.json",
		concurrency: 2,
		poll:        100 * time.Millisecond,
		settle:      10 * time.Millisecond,
		process:     rec.process,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	rec.await(t, existing)

	added := filepath.Join(dir, "second.json")
	writeTestFile(t, added, sampleTranscriptJSON)
	rec.await(t, added)

	writeTestFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	time.Sleep(300 * time.Millisecond)

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watcher returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for _, p := range rec.paths {
		if strings.HasSuffix(p, ".txt") {
			t.Fatalf("unexpected processing of %s", p)
		}
	}
}

func TestWatcherRefusesLockedDirectory(t *testing.T) {
	dir := t.TempDir()
	held := flock.New(filepath.Join(dir, watchLockName))
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("take lock: ok=%v err=%v", ok, err)
	}
	defer held.Unlock()

	w := &transcriptWatcher{
		dir:         dir,
		pattern:     "*.json",
		concurrency: 1,
		poll:        time.Second,
		process:     newProcessRecorder().process,
	}
	err = w.Run(context.Background())
	if err == nil {
		t.Fatal("expected lock conflict")
	}
	requireContains(t, err.Error(), "already running")
}

func TestWatcherWaitsForWritesToSettle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slow.json")

	var (
		mu       sync.Mutex
		contents []string
	)
	processed := make(chan struct{}, 8)
	w := &transcriptWatcher{
		dir:         dir,
		pattern:     "*.json",
		concurrency: 2,
		poll:        20 * time.Millisecond,
		settle:      200 * time.Millisecond,
		process: func(_ context.Context, p string) error {
			data, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			mu.Lock()
			contents = append(contents, string(data))
			mu.Unlock()
			processed <- struct{}{}
			return nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)

	var written strings.Builder
	for i := range 5 {
		fmt.Fprintf(&written, "chunk-%d\n", i)
		writeTestFile(t, path, written.String())
		time.Sleep(40 * time.Millisecond)
	}

	select {
	case <-processed:
	case <-time.After(5 * time.Second):
		t.Fatal("transcript was never processed")
	}
	time.Sleep(400 * time.Millisecond)
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watcher returned error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(contents) != 1 {
		t.Fatalf("expected one job for a file written in bursts, got %d", len(contents))
	}
	if contents[0] != written.String() {
		t.Fatalf("processed partial content %q", contents[0])
	}
}

func TestWatcherSerializesJobsForOnePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "talk.json")
	writeTestFile(t, path, "v1")

	var (
		mu        sync.Mutex
		active    int
		maxActive int
		calls     int
	)
	started := make(chan struct{})
	release := make(chan struct{})
	second := make(chan struct{})
	w := &transcriptWatcher{
		dir:         dir,
		pattern:     "*.json",
		concurrency: 4,
		poll:        20 * time.Millisecond,
		settle:      10 * time.Millisecond,
		process: func(_ context.Context, _ string) error {
			mu.Lock()
			active++
			maxActive = max(maxActive, active)
			calls++
			n := calls
			mu.Unlock()
			switch n {
			case 1:
				close(started)
				<-release
			case 2:
				close(second)
			}
			mu.Lock()
			active--
			mu.Unlock()
			return nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("first job never started")
	}
	time.Sleep(20 * time.Millisecond)
	writeTestFile(t, path, "v2 with more content")
	time.Sleep(200 * time.Millisecond)
	close(release)

	select {
	case <-second:
	case <-time.After(5 * time.Second):
		t.Fatal("changed transcript was not processed again")
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watcher returned error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if maxActive != 1 {
		t.Fatalf("jobs for one path overlapped: max active %d", maxActive)
	}
}
