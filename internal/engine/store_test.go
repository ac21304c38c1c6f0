package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	st := newStore(filepath.Join(dir, "downloads.json"), zerolog.Nop())

	entries := []*Entry{
		{
			ID:        "1",
			URL:       "http://example.com/a.bin",
			Filename:  "a.bin",
			FinalPath: filepath.Join(dir, "a.bin"),
			TotalSize: 100,
			Status:    StatusComplete,
			Chunks:    planChunks(100),
		},
	}
	if err := st.save(entries); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := st.load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(loaded))
	}
	if loaded[0].ID != "1" || loaded[0].Status != StatusComplete {
		t.Errorf("unexpected loaded entry: %+v", loaded[0])
	}
}

func TestStoreLoadMissingFileIsEmptyNotError(t *testing.T) {
	st := newStore(filepath.Join(t.TempDir(), "nonexistent.json"), zerolog.Nop())
	entries, err := st.load()
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if entries != nil {
		t.Errorf("expected nil entries, got %v", entries)
	}
}

func TestStoreLoadMalformedFileYieldsLoadFailed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "downloads.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	st := newStore(path, zerolog.Nop())
	_, err := st.load()
	if !errors.Is(err, ErrLoadFailed) {
		t.Fatalf("expected ErrLoadFailed for malformed store file, got %v", err)
	}
}

func TestNormalizeOnLoadRecoversDownloadedFromPartFiles(t *testing.T) {
	tempDir := t.TempDir()
	e := &Entry{
		ID:        "1",
		TotalSize: 800,
		TempDir:   tempDir,
		Status:    StatusDownloading,
		Chunks:    planChunks(800),
	}
	for _, c := range e.Chunks {
		c.Status = ChunkDownloading
	}
	// chunk 0 has a part file with 50 of its bytes on disk
	partPath := filepath.Join(tempDir, partFileName(0))
	if err := os.WriteFile(partPath, make([]byte, 50), 0o644); err != nil {
		t.Fatalf("write part file: %v", err)
	}

	normalizeOnLoad(e)

	if e.Status != StatusQueued {
		t.Errorf("expected entry status queued after recovery, got %s", e.Status)
	}
	if e.Chunks[0].Downloaded != 50 {
		t.Errorf("expected chunk 0 downloaded=50, got %d", e.Chunks[0].Downloaded)
	}
	if e.Chunks[0].Status != ChunkQueued {
		t.Errorf("expected chunk 0 queued, got %s", e.Chunks[0].Status)
	}
	if e.Chunks[1].Downloaded != 0 {
		t.Errorf("expected chunk 1 downloaded=0 (no part file), got %d", e.Chunks[1].Downloaded)
	}
	if e.DownloadedSize != 50 {
		t.Errorf("expected aggregate downloaded=50, got %d", e.DownloadedSize)
	}
}

func TestNormalizeOnLoadZeroesProgressWhenTempDirGone(t *testing.T) {
	e := &Entry{
		ID:        "1",
		TotalSize: 300,
		TempDir:   filepath.Join(t.TempDir(), "gone"),
		Status:    StatusDownloading,
		Chunks:    planChunks(300),
	}
	for _, c := range e.Chunks {
		c.Downloaded = 10
		c.Status = ChunkPaused
	}

	normalizeOnLoad(e)

	for i, c := range e.Chunks {
		if c.Downloaded != 0 {
			t.Errorf("chunk %d: expected downloaded=0, got %d", i, c.Downloaded)
		}
		if c.Status != ChunkQueued {
			t.Errorf("chunk %d: expected queued, got %s", i, c.Status)
		}
	}
}
