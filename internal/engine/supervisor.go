package engine

import (
	"context"

	"github.com/rs/zerolog"
)

// supervisor owns the in-flight Chunk Workers for exactly one entry. It
// exists only while that entry is downloading; the driver goroutine
// creates one on admission and discards it once the entry leaves the
// downloading state.
type supervisor struct {
	entryID string
	cancel  context.CancelFunc
}

// startSupervisor launches one goroutine per not-yet-complete chunk and
// returns the supervisor handle plus how many cmdChunkDone reports the
// driver should expect back.
func startSupervisor(client *httpClient, commands chan<- any, entry *Entry, log zerolog.Logger) (*supervisor, int) {
	ctx, cancel := context.WithCancel(context.Background())
	sup := &supervisor{entryID: entry.ID, cancel: cancel}

	pending := 0
	for _, c := range entry.Chunks {
		if c.Status == ChunkComplete {
			continue
		}
		pending++
		go func(c *Chunk) {
			outcome := runChunkWorker(ctx, client, entry, c, entry.TempDir, log)
			commands <- cmdChunkDone{entryID: entry.ID, chunk: outcome.chunk, err: outcome.err, fatal: outcome.fatal}
		}(c)
	}
	return sup, pending
}

// pause cancels every chunk goroutine under this supervisor. They will
// still report back via cmdChunkDone once they notice ctx.Done().
func (s *supervisor) pause() {
	s.cancel()
}
