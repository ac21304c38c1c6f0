package engine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestProbeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD request, got %s", r.Method)
		}
		w.Header().Set("Accept-Ranges", "bytes")
		w.Header().Set("Content-Length", "2048")
	}))
	defer server.Close()

	client := newHTTPClient(HTTPClientConfig{})
	meta, err := probe(context.Background(), client, server.URL+"/file.bin")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if meta.totalSize != 2048 {
		t.Errorf("expected totalSize 2048, got %d", meta.totalSize)
	}
	if meta.filename != "file.bin" {
		t.Errorf("expected filename file.bin, got %q", meta.filename)
	}
}

func TestProbeRejectsMissingAcceptRanges(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "2048")
	}))
	defer server.Close()

	client := newHTTPClient(HTTPClientConfig{})
	_, err := probe(context.Background(), client, server.URL)
	if !errors.Is(err, ErrUnsupportedRangedFetch) {
		t.Fatalf("expected ErrUnsupportedRangedFetch, got %v", err)
	}
}

func TestProbeRejectsMissingContentLength(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Accept-Ranges", "bytes")
	}))
	defer server.Close()

	client := newHTTPClient(HTTPClientConfig{})
	_, err := probe(context.Background(), client, server.URL)
	if !errors.Is(err, ErrMetadataMissing) {
		t.Fatalf("expected ErrMetadataMissing, got %v", err)
	}
}
