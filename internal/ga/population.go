package ga

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/timetable-ga/pkg/storage"
)

// Snapshot is the gob-encoded unit persisted between generations, letting a
// run resume after a process restart instead of starting from scratch.
type Snapshot struct {
	RunID      string
	Generation int
	Population []Scored
	HallOfFame []Scored
	SavedAt    time.Time
}

// PopulationStore persists and restores Snapshots for named runs. Files are
// the durable record; Redis, when present, only caches the pointer to the
// most recent snapshot per run for fast status lookups.
type PopulationStore struct {
	files *storage.LocalStorage
	cache *redis.Client
}

// NewPopulationStore builds a store; cache may be nil to run file-only.
func NewPopulationStore(files *storage.LocalStorage, cache *redis.Client) *PopulationStore {
	return &PopulationStore{files: files, cache: cache}
}

func snapshotFilename(runID string) string {
	return fmt.Sprintf("population_%s.gob", runID)
}

func resultFilename(runID string) string {
	return fmt.Sprintf("result_%s.json", runID)
}

// Save gob-encodes snap and writes it under its run's snapshot file, then
// best-effort refreshes the Redis pointer to the generation reached.
func (s *PopulationStore) Save(ctx context.Context, snap Snapshot) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if _, err := s.files.Save(snapshotFilename(snap.RunID), buf.Bytes()); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	if s.cache != nil {
		key := fmt.Sprintf("ga:run:%s:generation", snap.RunID)
		if err := s.cache.Set(ctx, key, snap.Generation, 24*time.Hour).Err(); err != nil {
			return nil // cache is a convenience, never fatal
		}
	}
	return nil
}

// Load reads back a previously saved snapshot for runID.
func (s *PopulationStore) Load(runID string) (Snapshot, error) {
	file, err := s.files.Open(snapshotFilename(runID))
	if err != nil {
		return Snapshot{}, fmt.Errorf("open snapshot: %w", err)
	}
	defer file.Close() //nolint:errcheck

	var snap Snapshot
	if err := gob.NewDecoder(file).Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// LatestGeneration returns the cached generation pointer for runID, if any.
func (s *PopulationStore) LatestGeneration(ctx context.Context, runID string) (int, bool) {
	if s.cache == nil {
		return 0, false
	}
	key := fmt.Sprintf("ga:run:%s:generation", runID)
	v, err := s.cache.Get(ctx, key).Int()
	if err != nil {
		return 0, false
	}
	return v, true
}
