package engine

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAssembleConcatenatesPartsInOrder(t *testing.T) {
	tempDir := t.TempDir()
	outDir := t.TempDir()

	chunks := planChunks(30)
	want := make([]byte, 0, 30)
	for _, c := range chunks {
		data := bytes.Repeat([]byte{byte(c.ID + 1)}, int(c.Size()))
		if err := os.WriteFile(filepath.Join(tempDir, partFileName(c.ID)), data, 0o644); err != nil {
			t.Fatalf("write part %d: %v", c.ID, err)
		}
		want = append(want, data...)
	}

	entry := &Entry{
		TotalSize: 30,
		TempDir:   tempDir,
		FinalPath: filepath.Join(outDir, "out.bin"),
		Chunks:    chunks,
	}
	if err := assemble(entry); err != nil {
		t.Fatalf("assemble: %v", err)
	}

	got, err := os.ReadFile(entry.FinalPath)
	if err != nil {
		t.Fatalf("read final path: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("assembled file doesn't match expected bytes")
	}
}

func TestAssembleFailsOnShortPart(t *testing.T) {
	tempDir := t.TempDir()
	outDir := t.TempDir()

	chunks := planChunks(30)
	for _, c := range chunks {
		size := c.Size()
		if c.ID == 1 {
			size-- // short by one byte
		}
		data := bytes.Repeat([]byte{1}, int(size))
		if err := os.WriteFile(filepath.Join(tempDir, partFileName(c.ID)), data, 0o644); err != nil {
			t.Fatalf("write part %d: %v", c.ID, err)
		}
	}

	entry := &Entry{
		TotalSize: 30,
		TempDir:   tempDir,
		FinalPath: filepath.Join(outDir, "out.bin"),
		Chunks:    chunks,
	}
	err := assemble(entry)
	if !errors.Is(err, ErrAssemblyFailed) {
		t.Fatalf("expected ErrAssemblyFailed, got %v", err)
	}
}
