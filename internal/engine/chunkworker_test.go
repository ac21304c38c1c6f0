package engine

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func rangeServer(t *testing.T, data []byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rangeHeader := strings.TrimPrefix(r.Header.Get("Range"), "bytes=")
		parts := strings.SplitN(rangeHeader, "-", 2)
		start, _ := strconv.ParseInt(parts[0], 10, 64)
		end, _ := strconv.ParseInt(parts[1], 10, 64)
		if end >= int64(len(data)) {
			end = int64(len(data)) - 1
		}
		w.Header().Set("Content-Length", strconv.Itoa(int(end-start+1)))
		w.WriteHeader(http.StatusPartialContent)
		w.Write(data[start : end+1])
	}))
}

func TestRunChunkWorkerDownloadsRange(t *testing.T) {
	data := bytes.Repeat([]byte{7}, 100)
	server := rangeServer(t, data)
	defer server.Close()

	tempDir := t.TempDir()
	entry := &Entry{URL: server.URL, Status: StatusDownloading}
	chunk := &Chunk{ID: 0, Start: 0, End: 99, Status: ChunkPending}
	entry.Chunks = []*Chunk{chunk}

	client := newHTTPClient(HTTPClientConfig{})
	outcome := runChunkWorker(context.Background(), client, entry, chunk, tempDir, zerolog.Nop())
	if outcome.err != nil {
		t.Fatalf("unexpected error: %v", outcome.err)
	}
	if chunk.Status != ChunkComplete {
		t.Errorf("expected chunk complete, got %s", chunk.Status)
	}
	if chunk.Downloaded != 100 {
		t.Errorf("expected 100 bytes downloaded, got %d", chunk.Downloaded)
	}

	got, err := os.ReadFile(filepath.Join(tempDir, partFileName(0)))
	if err != nil {
		t.Fatalf("read part file: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("part file content mismatch")
	}
}

func TestRunChunkWorkerHonorsCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000000")
		w.WriteHeader(http.StatusPartialContent)
		flusher, _ := w.(http.Flusher)
		for i := 0; i < 1000; i++ {
			if _, err := w.Write(bytes.Repeat([]byte{1}, 1024)); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
			time.Sleep(5 * time.Millisecond)
		}
	}))
	defer server.Close()

	tempDir := t.TempDir()
	entry := &Entry{URL: server.URL, Status: StatusDownloading}
	chunk := &Chunk{ID: 0, Start: 0, End: 999999, Status: ChunkPending}
	entry.Chunks = []*Chunk{chunk}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	client := newHTTPClient(HTTPClientConfig{})
	outcome := runChunkWorker(ctx, client, entry, chunk, tempDir, zerolog.Nop())
	if outcome.err != nil {
		t.Fatalf("cancellation should not be reported as an error: %v", outcome.err)
	}
	if chunk.Status != ChunkPaused {
		t.Errorf("expected chunk paused after cancellation, got %s", chunk.Status)
	}
}

func TestRunChunkWorkerFatalOnBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	tempDir := t.TempDir()
	entry := &Entry{URL: server.URL, Status: StatusDownloading}
	chunk := &Chunk{ID: 0, Start: 0, End: 99, Status: ChunkPending}
	entry.Chunks = []*Chunk{chunk}

	client := newHTTPClient(HTTPClientConfig{})
	outcome := runChunkWorker(context.Background(), client, entry, chunk, tempDir, zerolog.Nop())
	if !errors.Is(outcome.err, ErrChunkNetworkError) {
		t.Fatalf("expected ErrChunkNetworkError, got %v", outcome.err)
	}
	if !outcome.fatal {
		t.Error("expected fatal=true for a bad response status")
	}
}
