package engine

// planChunks partitions [0, totalSize-1] into exactly NumChunks
// contiguous ranges per spec §3: chunk size c = ceil(size/N), start =
// i*c, end = min((i+1)*c - 1, size-1). When the file is smaller than
// NumChunks, the trailing chunks fall entirely past totalSize and come
// out with start > end; the Chunk Worker's precondition (§4.2) marks
// those complete without ever touching the network.
func planChunks(totalSize int64) []*Chunk {
	n := int64(NumChunks)
	chunkSize := (totalSize + n - 1) / n // ceil
	if chunkSize < 1 {
		chunkSize = 1
	}
	chunks := make([]*Chunk, 0, NumChunks)
	for i := int64(0); i < n; i++ {
		start := i * chunkSize
		end := (i+1)*chunkSize - 1
		if end > totalSize-1 {
			end = totalSize - 1
		}
		chunks = append(chunks, &Chunk{
			ID:     int(i),
			Start:  start,
			End:    end,
			Status: ChunkPending,
		})
	}
	return chunks
}
