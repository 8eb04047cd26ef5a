package audiosync

import (
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"captionsync/internal/services"
	"captionsync/internal/testsupport"
)

func TestLoadWAVComputesEnergy(t *testing.T) {
	const rate = 8000
	bursts := []testsupport.Burst{{Start: 0.5, End: 1.0}}
	path := testsupport.WriteWAV(t, filepath.Join(t.TempDir(), "speech.wav"), testsupport.BurstSamples(bursts, 1.5, rate), rate)

	profile, err := LoadWAV(path, DefaultHop)
	if err != nil {
		t.Fatalf("LoadWAV: %v", err)
	}
	if profile.SampleRate != rate {
		t.Fatalf("sample rate = %d", profile.SampleRate)
	}
	if n := len(profile.Values); n != 60 {
		t.Fatalf("frames = %d, want 60", n)
	}
	loud, quiet := profile.At(0.75), profile.At(0.2)
	if loud < 0.4 || quiet > 0.05 {
		t.Fatalf("unexpected energy: loud %.3f quiet %.3f", loud, quiet)
	}
}

func TestLoadWAVErrors(t *testing.T) {
	_, err := LoadWAV(filepath.Join(t.TempDir(), "missing.wav"), DefaultHop)
	if !errors.Is(err, services.ErrMissingInput) {
		t.Fatalf("expected missing input, got %v", err)
	}
	bogus := testsupport.WriteFile(t, filepath.Join(t.TempDir(), "bogus.wav"), "not audio")
	if _, err := LoadWAV(bogus, DefaultHop); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestComputeProfileRMS(t *testing.T) {
	samples := []float64{1, -1, 1, -1, 0, 0, 0, 0}
	p := ComputeProfile(samples, 160, DefaultHop)
	if len(p.Values) != 2 || p.Values[0] != 1 || p.Values[1] != 0 {
		t.Fatalf("unexpected profile %+v", p.Values)
	}
}

func TestProfileCacheSharesWork(t *testing.T) {
	dir := t.TempDir()
	audioPath := testsupport.WriteFile(t, filepath.Join(dir, "a.wav"), "placeholder")
	var loads atomic.Int32
	loader := func(string) (*EnergyProfile, error) {
		loads.Add(1)
		return burstProfile(), nil
	}

	cacheDir := filepath.Join(dir, "cache")
	cache := NewProfileCache(cacheDir, DefaultHop, loader, nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Get(audioPath); err != nil {
				t.Errorf("Get: %v", err)
			}
		}()
	}
	wg.Wait()
	if got := loads.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
	if cache.Len() != 1 {
		t.Fatalf("cache holds %d entries", cache.Len())
	}

	fresh := NewProfileCache(cacheDir, DefaultHop, loader, nil)
	profile, err := fresh.Get(audioPath)
	if err != nil {
		t.Fatalf("Get from disk: %v", err)
	}
	if loads.Load() != 1 {
		t.Fatal("second cache should read the persisted profile")
	}
	if len(profile.Values) != len(burstProfile().Values) {
		t.Fatalf("persisted profile has %d frames", len(profile.Values))
	}
}
