package engine

import "testing"

func TestPlanChunksEvenSplit(t *testing.T) {
	chunks := planChunks(800)
	if len(chunks) != NumChunks {
		t.Fatalf("expected %d chunks, got %d", NumChunks, len(chunks))
	}
	var total int64
	for i, c := range chunks {
		if c.ID != i {
			t.Errorf("chunk %d has id %d", i, c.ID)
		}
		if c.Status != ChunkPending {
			t.Errorf("chunk %d should start pending, got %s", i, c.Status)
		}
		total += c.Size()
	}
	if total != 800 {
		t.Errorf("chunk sizes sum to %d, want 800", total)
	}
	if chunks[0].Start != 0 || chunks[len(chunks)-1].End != 799 {
		t.Errorf("chunks don't cover [0,799]: first=%d last=%d", chunks[0].Start, chunks[len(chunks)-1].End)
	}
}

func TestPlanChunksUnevenSplit(t *testing.T) {
	chunks := planChunks(1001)
	var total int64
	for i, c := range chunks {
		if i > 0 && c.Start != chunks[i-1].End+1 {
			t.Errorf("chunk %d doesn't start where chunk %d ended: %d vs %d", i, i-1, c.Start, chunks[i-1].End)
		}
		total += c.Size()
	}
	if total != 1001 {
		t.Errorf("chunk sizes sum to %d, want 1001", total)
	}
	if chunks[len(chunks)-1].End != 1000 {
		t.Errorf("last chunk ends at %d, want 1000", chunks[len(chunks)-1].End)
	}
}

func TestPlanChunksSmallerThanChunkCount(t *testing.T) {
	chunks := planChunks(3)
	if len(chunks) != NumChunks {
		t.Fatalf("expected %d chunks regardless of file size, got %d", NumChunks, len(chunks))
	}
	var total int64
	for i, c := range chunks {
		if c.ID != i {
			t.Errorf("chunk %d has id %d", i, c.ID)
		}
		switch {
		case i < 3:
			if c.Size() != 1 {
				t.Errorf("expected chunk %d to be 1 byte, got size %d", i, c.Size())
			}
			total += c.Size()
		default:
			if c.Start <= c.End {
				t.Errorf("expected chunk %d past totalSize to have start > end, got start=%d end=%d", i, c.Start, c.End)
			}
		}
	}
	if total != 3 {
		t.Errorf("in-range chunks sum to %d, want 3", total)
	}
}
