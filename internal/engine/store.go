package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// storeRecord is the on-disk shape of one (id, entry) pair, matching the
// spec's recommended "sequence of [id, entry] pairs" interoperable form.
type storeRecord struct {
	ID    string `json:"id"`
	Entry *Entry `json:"entry"`
}

// store is the Persistent Store: a durable snapshot of the registry.
type store struct {
	path string
	log  zerolog.Logger
}

func newStore(path string, log zerolog.Logger) *store {
	return &store{path: path, log: log.With().Str("component", "store").Logger()}
}

// load reads the store file if present and applies recovery normalization
// (spec §4.1) to every entry. A malformed file yields ErrLoadFailed and an
// empty registry rather than failing startup.
func (s *store) load() ([]*Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var records []storeRecord
	if err := json.Unmarshal(data, &records); err != nil {
		s.log.Error().Err(err).Msg("malformed persistent store, starting with empty registry")
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}
	entries := make([]*Entry, 0, len(records))
	for _, rec := range records {
		if rec.Entry == nil {
			continue
		}
		normalizeOnLoad(rec.Entry)
		entries = append(entries, rec.Entry)
	}
	return entries, nil
}

// normalizeOnLoad applies the §4.1 recovery rules in place.
func normalizeOnLoad(e *Entry) {
	if e.Status == StatusDownloading || e.Status == StatusQueued || e.Status == StatusAssembling {
		e.Status = StatusQueued
	}
	tempDirPresent := e.TempDir != ""
	if tempDirPresent {
		if info, err := os.Stat(e.TempDir); err != nil || !info.IsDir() {
			tempDirPresent = false
		}
	}
	for i, c := range e.Chunks {
		if tempDirPresent {
			partPath := filepath.Join(e.TempDir, partFileName(i))
			if info, err := os.Stat(partPath); err == nil {
				c.Downloaded = info.Size()
			} else {
				c.Downloaded = 0
			}
			if c.Status == ChunkDownloading {
				c.Status = ChunkQueued
			}
		} else {
			c.Downloaded = 0
			if c.Status == ChunkDownloading || c.Status == ChunkPaused {
				c.Status = ChunkQueued
			}
		}
	}
	e.recomputeAggregate()
}

// save serializes the full registry and replaces the store file atomically:
// write to a sibling temp path, then rename, so a crash never leaves a
// partially-written store.
func (s *store) save(entries []*Entry) error {
	records := make([]storeRecord, len(entries))
	for i, e := range entries {
		records[i] = storeRecord{ID: e.ID, Entry: e}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	tmp, err := os.CreateTemp(dir, ".downloads-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	return nil
}

func partFileName(chunkID int) string {
	return fmt.Sprintf("part_%d", chunkID)
}
