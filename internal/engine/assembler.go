package engine

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// assemble concatenates tempDir/part_0 … part_{N-1} into finalPath in
// index order, sequentially, per spec §4.6. It fails with ErrAssemblyFailed
// if any part file's size doesn't match its chunk's assigned range.
func assemble(entry *Entry) error {
	for _, c := range entry.Chunks {
		if c.Size() <= 0 {
			// past totalSize (file smaller than NumChunks); the Chunk
			// Worker never ran for it, so there's no part file to check.
			continue
		}
		partPath := filepath.Join(entry.TempDir, partFileName(c.ID))
		info, err := os.Stat(partPath)
		if err != nil {
			return fmt.Errorf("%w: stat chunk %d: %v", ErrAssemblyFailed, c.ID, err)
		}
		if info.Size() != c.Size() {
			return fmt.Errorf("%w: chunk %d has %d bytes, want %d", ErrAssemblyFailed, c.ID, info.Size(), c.Size())
		}
	}

	if err := os.MkdirAll(filepath.Dir(entry.FinalPath), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrAssemblyFailed, err)
	}
	out, err := os.Create(entry.FinalPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAssemblyFailed, err)
	}
	defer out.Close()

	var written int64
	for _, c := range entry.Chunks {
		if c.Size() <= 0 {
			continue
		}
		partPath := filepath.Join(entry.TempDir, partFileName(c.ID))
		part, err := os.Open(partPath)
		if err != nil {
			return fmt.Errorf("%w: open chunk %d: %v", ErrAssemblyFailed, c.ID, err)
		}
		n, err := io.Copy(out, part)
		part.Close()
		if err != nil {
			return fmt.Errorf("%w: copy chunk %d: %v", ErrAssemblyFailed, c.ID, err)
		}
		written += n
	}
	if written != entry.TotalSize {
		return fmt.Errorf("%w: wrote %d bytes, want %d", ErrAssemblyFailed, written, entry.TotalSize)
	}
	return nil
}
