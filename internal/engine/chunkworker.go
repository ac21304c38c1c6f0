package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// chunkBufferSize is the read buffer for one chunk's body. Smaller than a
// single-stream downloader would use, since up to NumChunks of these run
// concurrently against the same origin.
const chunkBufferSize = 256 * 1024

// speedWindow is 0.5s per spec §4.2.
const speedWindow = 500 * time.Millisecond

// chunkOutcome is what a Chunk Worker reports back to its supervisor.
type chunkOutcome struct {
	chunk *Chunk
	err   error
	fatal bool // true if the entry itself should go to error (request-time failure)
}

// runChunkWorker executes exactly one chunk fetch, appending to its part
// file, honoring ctx for cancellation (pause). It never retries; a failed
// chunk is a failed download (spec §4.2, §7).
func runChunkWorker(ctx context.Context, client *httpClient, entry *Entry, chunk *Chunk, tempDir string, log zerolog.Logger) chunkOutcome {
	log = log.With().Str("entry", entry.ID).Int("chunk", chunk.ID).Logger()

	if entry.getStatus() != StatusDownloading {
		return chunkOutcome{chunk: chunk}
	}
	if chunk.Start+chunk.Downloaded > chunk.End {
		entry.withChunks(func() { chunk.Status = ChunkComplete })
		return chunkOutcome{chunk: chunk}
	}

	partPath := filepath.Join(tempDir, partFileName(chunk.ID))
	file, err := os.OpenFile(partPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return chunkOutcome{chunk: chunk, err: fmt.Errorf("%w: open part file: %v", ErrChunkNetworkError, err), fatal: true}
	}
	defer file.Close()

	startByte := chunk.Start + chunk.Downloaded
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, entry.URL, nil)
	if err != nil {
		return chunkOutcome{chunk: chunk, err: fmt.Errorf("%w: %v", ErrChunkNetworkError, err), fatal: true}
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", startByte, chunk.End))
	req.Header.Set("Connection", "keep-alive")

	entry.withChunks(func() { chunk.Status = ChunkDownloading })

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			entry.withChunks(func() { chunk.Status = ChunkPaused })
			return chunkOutcome{chunk: chunk}
		}
		return chunkOutcome{chunk: chunk, err: fmt.Errorf("%w: %v", ErrChunkNetworkError, err), fatal: true}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPartialContent {
		return chunkOutcome{chunk: chunk, err: fmt.Errorf("%w: unexpected status %d", ErrChunkNetworkError, resp.StatusCode), fatal: true}
	}

	entry.withChunks(func() {
		chunk.LastTimestamp = time.Now()
		chunk.LastDownloadedSize = chunk.Downloaded
	})

	buffer := make([]byte, chunkBufferSize)
	for {
		select {
		case <-ctx.Done():
			entry.withChunks(func() {
				chunk.Status = ChunkPaused
				chunk.CurrentSpeed = 0
			})
			return chunkOutcome{chunk: chunk}
		default:
		}

		n, readErr := resp.Body.Read(buffer)
		if n > 0 {
			if _, writeErr := file.Write(buffer[:n]); writeErr != nil {
				return chunkOutcome{chunk: chunk, err: fmt.Errorf("%w: %v", ErrChunkStreamError, writeErr)}
			}
			entry.withChunks(func() {
				chunk.Downloaded += int64(n)
				elapsed := time.Since(chunk.LastTimestamp)
				if elapsed > speedWindow {
					chunk.CurrentSpeed = float64(chunk.Downloaded-chunk.LastDownloadedSize) / elapsed.Seconds()
					chunk.LastTimestamp = time.Now()
					chunk.LastDownloadedSize = chunk.Downloaded
				}
			})
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				break
			}
			if ctx.Err() != nil {
				// the read unblocked because pause canceled ctx, not because
				// of a real stream failure.
				entry.withChunks(func() {
					chunk.Status = ChunkPaused
					chunk.CurrentSpeed = 0
				})
				return chunkOutcome{chunk: chunk}
			}
			entry.withChunks(func() {
				chunk.Status = ChunkError
				chunk.CurrentSpeed = 0
			})
			return chunkOutcome{chunk: chunk, err: fmt.Errorf("%w: %v", ErrChunkStreamError, readErr)}
		}
	}

	if entry.getStatus() != StatusDownloading {
		return chunkOutcome{chunk: chunk}
	}
	entry.withChunks(func() {
		chunk.Status = ChunkComplete
		chunk.CurrentSpeed = 0
	})
	log.Debug().Int64("downloaded", chunk.Downloaded).Msg("chunk complete")
	return chunkOutcome{chunk: chunk}
}
