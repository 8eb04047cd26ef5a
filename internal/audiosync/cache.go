package audiosync

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"golang.org/x/sync/singleflight"

	"captionsync/internal/fileutil"
	"captionsync/internal/logging"
)

// ProfileLoader computes a profile for a source path.
type ProfileLoader func(path string) (*EnergyProfile, error)

// ProfileCache memoizes energy profiles by source file. Entries are keyed by
// path, size, and modification time, so an edited file is recomputed.
// Concurrent requests for the same file share one computation. When dir is
// set, profiles are also persisted as JSON under a per-entry file lock.
type ProfileCache struct {
	dir    string
	hop    float64
	load   ProfileLoader
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]*EnergyProfile
	group   singleflight.Group
}

// NewProfileCache builds a cache. An empty dir keeps the cache in memory
// only. A nil loader decodes WAV files with LoadWAV.
func NewProfileCache(dir string, hop float64, load ProfileLoader, logger *slog.Logger) *ProfileCache {
	if logger == nil {
		logger = logging.NewNop()
	}
	if hop <= 0 {
		hop = DefaultHop
	}
	c := &ProfileCache{
		dir:     dir,
		hop:     hop,
		logger:  logging.NewComponentLogger(logger, "audiosync"),
		entries: make(map[string]*EnergyProfile),
	}
	if load == nil {
		load = func(path string) (*EnergyProfile, error) { return LoadWAV(path, c.hop) }
	}
	c.load = load
	return c
}

// Get returns the cached profile for path, computing it on a miss.
func (c *ProfileCache) Get(path string) (*EnergyProfile, error) {
	key, err := fileutil.StatKey(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c.load(path)
		}
		return nil, fmt.Errorf("stat audio: %w", err)
	}

	c.mu.RLock()
	profile, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return profile, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if profile, ok := c.readDisk(key); ok {
			c.remember(key, profile)
			c.logger.Debug("energy profile cache hit",
				logging.String(logging.FieldDecisionType, "energy_cache"),
				logging.String("decision_result", "disk_hit"),
				logging.String("audio_path", path),
			)
			return profile, nil
		}
		profile, err := c.load(path)
		if err != nil {
			return nil, err
		}
		c.remember(key, profile)
		if err := c.writeDisk(key, profile); err != nil {
			c.logger.Warn("energy profile cache write failed",
				logging.String(logging.FieldEventType, "energy_cache_write_failed"),
				logging.String(logging.FieldErrorHint, "check permissions on the cache directory"),
				logging.String(logging.FieldImpact, "profile will be recomputed next run"),
				logging.Error(err),
			)
		}
		return profile, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*EnergyProfile), nil
}

// Len reports the number of in-memory entries.
func (c *ProfileCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *ProfileCache) remember(key string, profile *EnergyProfile) {
	c.mu.Lock()
	c.entries[key] = profile
	c.mu.Unlock()
}

func (c *ProfileCache) entryPath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

func (c *ProfileCache) readDisk(key string) (*EnergyProfile, bool) {
	if c.dir == "" {
		return nil, false
	}
	lock := flock.New(c.entryPath(key) + ".lock")
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return nil, false
	}
	if err := lock.RLock(); err != nil {
		return nil, false
	}
	defer func() { _ = lock.Unlock() }()

	data, err := os.ReadFile(c.entryPath(key))
	if err != nil {
		return nil, false
	}
	var profile EnergyProfile
	if err := json.Unmarshal(data, &profile); err != nil || profile.Empty() {
		return nil, false
	}
	return &profile, true
}

func (c *ProfileCache) writeDisk(key string, profile *EnergyProfile) error {
	if c.dir == "" || profile.Empty() {
		return nil
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	lock := flock.New(c.entryPath(key) + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock cache entry: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	return fileutil.WriteFileAtomic(c.entryPath(key), data, 0o644)
}
