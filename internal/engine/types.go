package engine

import (
	"sync"
	"time"
)

// EntryStatus is the lifecycle state of a download entry.
type EntryStatus string

const (
	StatusQueued      EntryStatus = "queued"
	StatusDownloading EntryStatus = "downloading"
	StatusPaused      EntryStatus = "paused"
	StatusAssembling  EntryStatus = "assembling"
	StatusComplete    EntryStatus = "complete"
	StatusError       EntryStatus = "error"
)

// ChunkStatus is the lifecycle state of a single chunk.
type ChunkStatus string

const (
	ChunkPending     ChunkStatus = "pending"
	ChunkQueued      ChunkStatus = "queued"
	ChunkDownloading ChunkStatus = "downloading"
	ChunkPaused      ChunkStatus = "paused"
	ChunkComplete    ChunkStatus = "complete"
	ChunkError       ChunkStatus = "error"
)

// Chunk is a contiguous byte range of the source fetched by one worker.
type Chunk struct {
	ID         int         `json:"id"`
	Start      int64       `json:"start"`
	End        int64       `json:"end"`
	Downloaded int64       `json:"downloaded"`
	Status     ChunkStatus `json:"status"`

	// transient speed-window state, not meaningfully persisted
	CurrentSpeed       float64   `json:"-"`
	LastTimestamp      time.Time `json:"-"`
	LastDownloadedSize int64     `json:"-"`
}

// Size returns the number of bytes this chunk is responsible for.
func (c *Chunk) Size() int64 {
	return c.End - c.Start + 1
}

// Entry is one download the user submitted.
type Entry struct {
	ID             string      `json:"id"`
	URL            string      `json:"url"`
	Filename       string      `json:"filename"`
	FinalPath      string      `json:"finalPath"`
	TempDir        string      `json:"tempDir,omitempty"`
	TotalSize      int64       `json:"totalSize"`
	DownloadedSize int64       `json:"downloadedSize"`
	Status         EntryStatus `json:"status"`
	CurrentSpeed   float64     `json:"currentSpeed"`
	Error          string      `json:"error,omitempty"`
	Chunks         []*Chunk    `json:"chunks"`

	registeredAt int64      // insertion sequence, for FIFO promotion
	mu           sync.Mutex // guards Status, Chunks' mutable fields and the aggregate fields above
}

// withChunks runs fn with the entry's chunk-mutation lock held, then
// recomputes the aggregate downloaded size and speed. Chunk Workers use
// this for every progress update; it is the one mutation path that
// bypasses the Registry's single-writer command queue, since per-chunk
// progress is high-frequency and each chunk has exactly one writer.
func (e *Entry) withChunks(fn func()) {
	e.mu.Lock()
	fn()
	e.recomputeAggregate()
	e.mu.Unlock()
}

// setStatus and getStatus guard Status under the same mutex as the chunk
// fields: the driver goroutine writes it, Chunk Workers read it as a
// precondition check, and both must share one mutual-exclusion domain
// per spec §5.
func (e *Entry) setStatus(s EntryStatus) {
	e.mu.Lock()
	e.Status = s
	e.mu.Unlock()
}

func (e *Entry) getStatus() EntryStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Status
}

// ETA returns the estimated seconds remaining, and whether it is defined
// (it is undefined when CurrentSpeed is zero).
func (e *Entry) ETA() (float64, bool) {
	if e.CurrentSpeed <= 0 {
		return 0, false
	}
	return float64(e.TotalSize-e.DownloadedSize) / e.CurrentSpeed, true
}

// Progress returns the completion percentage in [0, 100].
func (e *Entry) Progress() float64 {
	if e.TotalSize <= 0 {
		return 0
	}
	return float64(e.DownloadedSize) / float64(e.TotalSize) * 100
}

// recomputeAggregate recomputes DownloadedSize and CurrentSpeed from chunk
// state, restoring the §3 invariant ∑ chunks[i].downloaded == downloadedSize.
func (e *Entry) recomputeAggregate() {
	var downloaded int64
	var speed float64
	for _, c := range e.Chunks {
		downloaded += c.Downloaded
		speed += c.CurrentSpeed
	}
	e.DownloadedSize = downloaded
	e.CurrentSpeed = speed
}

// snapshot returns a deep-enough copy safe to hand to event subscribers
// without risking a data race against chunk workers or the driver goroutine.
func (e *Entry) snapshot() *Entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := &Entry{
		ID:             e.ID,
		URL:            e.URL,
		Filename:       e.Filename,
		FinalPath:      e.FinalPath,
		TempDir:        e.TempDir,
		TotalSize:      e.TotalSize,
		DownloadedSize: e.DownloadedSize,
		Status:         e.Status,
		CurrentSpeed:   e.CurrentSpeed,
		Error:          e.Error,
		registeredAt:   e.registeredAt,
	}
	cp.Chunks = make([]*Chunk, len(e.Chunks))
	for i, c := range e.Chunks {
		chunkCopy := *c
		cp.Chunks[i] = &chunkCopy
	}
	return cp
}
