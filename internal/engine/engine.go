package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// registerResult is what a cmdRegister reports back to Submit.
type registerResult struct {
	entry *Entry
	err   error
}

// command is the closed set of messages the driver goroutine accepts.
// It is the single mutation path for registry-level state (status
// transitions, membership), per spec §5 and §9's redesign note; only
// per-chunk progress bypasses it, via Entry.withChunks.
type (
	cmdRegister struct {
		url    string
		meta   probedMeta
		result chan<- registerResult
	}
	cmdPause struct {
		id     string
		result chan<- error
	}
	cmdResume struct {
		id     string
		result chan<- error
	}
	cmdPauseAll struct {
		result chan<- error
	}
	cmdResumeAll struct {
		result chan<- error
	}
	cmdRemove struct {
		id     string
		result chan<- error
	}
	cmdList struct {
		result chan<- []*Entry
	}
	cmdChunkDone struct {
		entryID string
		chunk   *Chunk
		err     error
		fatal   bool
	}
	cmdAssembleDone struct {
		entryID string
		err     error
	}
	cmdShutdown struct {
		done chan<- struct{}
	}
)

// Engine is the Download Engine: the public face of the Registry, Queue
// Scheduler and Persistent Store described in the spec. All registry
// mutation happens on one internal goroutine; everything below is safe
// to call from any number of caller goroutines.
type Engine struct {
	cfg      Config
	store    *store
	hub      *Hub
	client   *httpClient
	log      zerolog.Logger
	commands chan any
}

// New builds an Engine, loads the persistent store, and starts the
// driver goroutine. It does not block on network I/O.
func New(cfg Config, httpCfg HTTPClientConfig, log zerolog.Logger) *Engine {
	en := &Engine{
		cfg:      cfg,
		store:    newStore(cfg.storePath(), log),
		hub:      newHub(),
		client:   newHTTPClient(httpCfg),
		log:      log.With().Str("component", "engine").Logger(),
		commands: make(chan any, 64),
	}
	go en.run()
	return en
}

// Submit probes the URL (a blocking network call, run on the caller's
// goroutine per spec §9) and, if ranged fetch is supported, registers a
// new entry and admits it into the queue.
func (en *Engine) Submit(ctx context.Context, rawURL string) (*Entry, error) {
	meta, err := probe(ctx, en.client, rawURL)
	if err != nil {
		return nil, err
	}
	result := make(chan registerResult, 1)
	en.commands <- cmdRegister{url: rawURL, meta: meta, result: result}
	res := <-result
	return res.entry, res.err
}

// Pause cancels an entry's in-flight chunk workers and marks it paused.
func (en *Engine) Pause(id string) error {
	result := make(chan error, 1)
	en.commands <- cmdPause{id: id, result: result}
	return <-result
}

// Resume re-queues a paused, errored or complete entry for admission;
// entries in any other state are left as they are.
func (en *Engine) Resume(id string) error {
	result := make(chan error, 1)
	en.commands <- cmdResume{id: id, result: result}
	return <-result
}

// PauseAll pauses every downloading or queued download.
func (en *Engine) PauseAll() error {
	result := make(chan error, 1)
	en.commands <- cmdPauseAll{result: result}
	return <-result
}

// ResumeAll re-queues every paused download.
func (en *Engine) ResumeAll() error {
	result := make(chan error, 1)
	en.commands <- cmdResumeAll{result: result}
	return <-result
}

// Remove deletes an entry's record and temp directory. It refuses to
// remove a downloading entry; pause it first.
func (en *Engine) Remove(id string) error {
	result := make(chan error, 1)
	en.commands <- cmdRemove{id: id, result: result}
	return <-result
}

// List returns a point-in-time snapshot of every entry, in registration
// order.
func (en *Engine) List() []*Entry {
	result := make(chan []*Entry, 1)
	en.commands <- cmdList{result: result}
	return <-result
}

// Subscribe registers an event listener and immediately sends it a
// download-list snapshot of the full registry, per spec §4.5's "on new
// client attach" rule.
func (en *Engine) Subscribe() (string, <-chan Event) {
	id, ch := en.hub.Subscribe()
	en.hub.sendTo(id, Event{Name: EventDownloadList, Payload: ListPayload{Entries: en.List()}})
	return id, ch
}

// Unsubscribe removes an event listener. See Hub.Unsubscribe.
func (en *Engine) Unsubscribe(id string) {
	en.hub.Unsubscribe(id)
}

// Shutdown persists the registry and stops the driver goroutine.
func (en *Engine) Shutdown() {
	done := make(chan struct{})
	en.commands <- cmdShutdown{done: done}
	<-done
}

// run is the driver goroutine. All registry state below is local to it;
// nothing outside this function ever touches entries, order, supervisors
// or pending directly.
func (en *Engine) run() {
	entries := map[string]*Entry{}
	order := []string{}
	supervisors := map[string]*supervisor{}
	pending := map[string]int{}
	var seq int64

	loaded, err := en.store.load()
	if err != nil {
		en.log.Error().Err(err).Msg("starting with empty registry")
	}
	for i, e := range loaded {
		// registeredAt is not persisted; the store keeps registration
		// order, and the next id continues past the highest loaded one.
		e.registeredAt = int64(i)
		if n, err := strconv.ParseInt(e.ID, 10, 64); err == nil && n >= seq {
			seq = n + 1
		}
		entries[e.ID] = e
		order = append(order, e.ID)
	}
	sort.Slice(order, func(i, j int) bool {
		return entries[order[i]].registeredAt < entries[order[j]].registeredAt
	})

	persist := func() {
		if err := en.store.save(entriesSlice(entries, order)); err != nil {
			en.log.Error().Err(err).Msg("persist failed")
		}
	}

	startAssembly := func(e *Entry) {
		e.setStatus(StatusAssembling)
		go func() {
			err := assemble(e)
			en.commands <- cmdAssembleDone{entryID: e.ID, err: err}
		}()
	}

	promote := func() {
		promoted := admitQueued(entries, order)
		for _, id := range promoted {
			e := entries[id]
			sup, n := startSupervisor(en.client, en.commands, e, en.log)
			supervisors[id] = sup
			pending[id] = n
			en.hub.publish(Event{Name: EventDownloadStarted, Payload: progressPayload(e)})
			if n == 0 {
				delete(supervisors, id)
				delete(pending, id)
				startAssembly(e)
			}
		}
		if len(promoted) > 0 {
			persist()
		}
	}

	pauseEntry := func(e *Entry) {
		if sup, ok := supervisors[e.ID]; ok {
			sup.pause()
		}
		e.setStatus(StatusPaused)
	}

	// kick off whatever the recovered registry can admit immediately.
	promote()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			en.broadcastProgress(entries)

		case raw := <-en.commands:
			switch cmd := raw.(type) {

			case cmdRegister:
				id := fmt.Sprintf("%d", seq)
				filename := cmd.meta.filename
				if filename == "" {
					filename = fmt.Sprintf("download-%s", id)
				}
				tempDir := filepath.Join(en.cfg.TempFolder, id)
				if err := os.MkdirAll(tempDir, 0o755); err != nil {
					cmd.result <- registerResult{err: err}
					continue
				}
				e := &Entry{
					ID:           id,
					URL:          cmd.url,
					Filename:     filename,
					FinalPath:    filepath.Join(en.cfg.DownloadFolder, filename),
					TempDir:      tempDir,
					TotalSize:    cmd.meta.totalSize,
					Status:       StatusQueued,
					Chunks:       planChunks(cmd.meta.totalSize),
					registeredAt: seq,
				}
				seq++
				entries[id] = e
				order = append(order, id)
				persist()
				promote()
				cmd.result <- registerResult{entry: e.snapshot()}

			case cmdPause:
				e, ok := entries[cmd.id]
				if !ok {
					cmd.result <- ErrNotFound
					continue
				}
				if status := e.getStatus(); status != StatusDownloading && status != StatusQueued {
					cmd.result <- nil
					continue
				}
				pauseEntry(e)
				persist()
				en.hub.publish(Event{Name: EventDownloadProgress, Payload: progressPayload(e)})
				cmd.result <- nil

			case cmdResume:
				e, ok := entries[cmd.id]
				if !ok {
					cmd.result <- ErrNotFound
					continue
				}
				if status := e.getStatus(); status != StatusPaused && status != StatusError && status != StatusComplete {
					cmd.result <- nil
					continue
				}
				e.Error = ""
				e.setStatus(StatusQueued)
				persist()
				promote()
				cmd.result <- nil

			case cmdPauseAll:
				for _, e := range entries {
					if status := e.getStatus(); status == StatusDownloading || status == StatusQueued {
						pauseEntry(e)
					}
				}
				persist()
				cmd.result <- nil

			case cmdResumeAll:
				for _, e := range entries {
					if e.getStatus() == StatusPaused {
						e.Error = ""
						e.setStatus(StatusQueued)
					}
				}
				persist()
				promote()
				cmd.result <- nil

			case cmdRemove:
				e, ok := entries[cmd.id]
				if !ok {
					cmd.result <- ErrNotFound
					continue
				}
				if e.getStatus() == StatusDownloading {
					cmd.result <- ErrEntryBusy
					continue
				}
				if sup, ok := supervisors[cmd.id]; ok {
					sup.pause()
					delete(supervisors, cmd.id)
				}
				delete(pending, cmd.id)
				delete(entries, cmd.id)
				for i, id := range order {
					if id == cmd.id {
						order = append(order[:i], order[i+1:]...)
						break
					}
				}
				if e.TempDir != "" {
					os.RemoveAll(e.TempDir)
				}
				persist()
				cmd.result <- nil

			case cmdList:
				cmd.result <- snapshotAll(entries, order)

			case cmdChunkDone:
				e, ok := entries[cmd.entryID]
				if !ok {
					continue
				}
				if cmd.err != nil && e.getStatus() == StatusDownloading {
					if e.Error == "" {
						chunkID := -1
						if cmd.chunk != nil {
							chunkID = cmd.chunk.ID
						}
						e.Error = fmt.Sprintf("Chunk %d failed: %v", chunkID, cmd.err)
					}
					if cmd.fatal {
						// request-time failure: the entry can never
						// succeed, so cancel every sibling chunk now
						// instead of waiting for them to drain.
						e.setStatus(StatusError)
						if sup, ok := supervisors[cmd.entryID]; ok {
							sup.pause()
						}
						persist()
						en.hub.publish(Event{Name: EventDownloadError, Payload: ErrorPayload{ID: e.ID, Error: e.Error}})
					}
				}
				pending[cmd.entryID]--
				if pending[cmd.entryID] <= 0 {
					delete(pending, cmd.entryID)
					delete(supervisors, cmd.entryID)
					switch {
					case e.Error != "" && e.getStatus() == StatusDownloading:
						// a mid-stream chunk failure let its siblings run
						// to completion; only now, with nothing left
						// in flight, does the entry fail.
						e.setStatus(StatusError)
						persist()
						promote()
						en.hub.publish(Event{Name: EventDownloadError, Payload: ErrorPayload{ID: e.ID, Error: e.Error}})
					case e.getStatus() == StatusDownloading:
						startAssembly(e)
					default:
						persist()
						promote()
					}
				}

			case cmdAssembleDone:
				e, ok := entries[cmd.entryID]
				if !ok {
					continue
				}
				if cmd.err != nil {
					e.setStatus(StatusError)
					e.Error = cmd.err.Error()
					en.hub.publish(Event{Name: EventDownloadError, Payload: ErrorPayload{ID: e.ID, Error: e.Error}})
				} else {
					e.setStatus(StatusComplete)
					if e.TempDir != "" {
						os.RemoveAll(e.TempDir)
					}
					en.hub.publish(Event{Name: EventDownloadComplete, Payload: CompletePayload{ID: e.ID, FilePath: e.FinalPath}})
				}
				persist()
				promote()

			case cmdShutdown:
				persist()
				close(cmd.done)
				return
			}
		}
	}
}

// broadcastProgress publishes download-progress for every active entry
// and a total-speed-update summing their current speeds, per spec §6.
func (en *Engine) broadcastProgress(entries map[string]*Entry) {
	var total float64
	for _, e := range entries {
		if e.getStatus() == StatusDownloading {
			snap := e.snapshot()
			en.hub.publish(Event{Name: EventDownloadProgress, Payload: progressPayload(snap)})
			total += snap.CurrentSpeed
		}
	}
	en.hub.publish(Event{Name: EventTotalSpeedUpdate, Payload: TotalSpeedPayload{TotalSpeed: total}})
}

func entriesSlice(entries map[string]*Entry, order []string) []*Entry {
	out := make([]*Entry, 0, len(order))
	for _, id := range order {
		if e, ok := entries[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

func snapshotAll(entries map[string]*Entry, order []string) []*Entry {
	out := make([]*Entry, 0, len(order))
	for _, id := range order {
		if e, ok := entries[id]; ok {
			out = append(out, e.snapshot())
		}
	}
	return out
}
