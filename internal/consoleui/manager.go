package consoleui

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tanq16/fetchd/internal/engine"
)

// refreshTick mirrors the teacher's Manager.displayTick, at a slower rate
// since our rows carry less volatile text.
const refreshTick = 300 * time.Millisecond

// row is one rendered download, adapted from the teacher's
// output.FunctionOutput to the fields an Engine ProgressPayload carries.
type row struct {
	filename   string
	status     string
	progress   float64
	downloaded int64
	totalSize  int64
	speed      float64
	eta        float64
	hasETA     bool
	errMsg     string
	index      int
}

// Client is the reference terminal renderer for an Engine's event
// stream. It is not required for the engine to function; it exists to
// exercise the Event Hub the way an external client would.
type Client struct {
	eng *engine.Engine

	mu         sync.RWMutex
	rows       map[string]*row
	order      []string
	nextIndex  int
	totalSpeed float64
	numLines   int

	done chan struct{}
	wg   sync.WaitGroup
}

func NewClient(eng *engine.Engine) *Client {
	return &Client{
		eng:  eng,
		rows: make(map[string]*row),
		done: make(chan struct{}),
	}
}

// Run subscribes to the engine's events and starts the render loop. It
// returns immediately; call Stop to unwind it.
func (c *Client) Run() {
	id, events := c.eng.Subscribe()
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.eng.Unsubscribe(id)
		ticker := time.NewTicker(refreshTick)
		defer ticker.Stop()
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				c.handle(ev)
			case <-ticker.C:
				c.render()
			case <-c.done:
				c.render()
				return
			}
		}
	}()
}

// Stop tears down the render loop and waits for it to exit.
func (c *Client) Stop() {
	close(c.done)
	c.wg.Wait()
}

func (c *Client) handle(ev engine.Event) {
	switch ev.Name {
	case engine.EventDownloadList:
		if p, ok := ev.Payload.(engine.ListPayload); ok {
			for _, e := range p.Entries {
				c.upsertEntry(e)
			}
		}
	case engine.EventDownloadStarted, engine.EventDownloadProgress:
		if p, ok := ev.Payload.(engine.ProgressPayload); ok {
			c.upsert(p)
		}
	case engine.EventDownloadComplete:
		if p, ok := ev.Payload.(engine.CompletePayload); ok {
			c.markComplete(p.ID)
		}
	case engine.EventDownloadError:
		if p, ok := ev.Payload.(engine.ErrorPayload); ok {
			c.markError(p.ID, p.Error)
		}
	case engine.EventTotalSpeedUpdate:
		if p, ok := ev.Payload.(engine.TotalSpeedPayload); ok {
			c.mu.Lock()
			c.totalSpeed = p.TotalSpeed
			c.mu.Unlock()
		}
	}
}

func (c *Client) upsert(p engine.ProgressPayload) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.rows[p.ID]
	if !ok {
		r = &row{index: c.nextIndex}
		c.nextIndex++
		c.rows[p.ID] = r
		c.order = append(c.order, p.ID)
	}
	r.filename = p.Filename
	r.status = p.Status
	r.progress = p.Progress
	r.downloaded = p.Downloaded
	r.totalSize = p.TotalSize
	r.speed = p.Speed
	r.eta = p.ETA
	r.hasETA = p.ETA > 0
	r.errMsg = p.Error
}

// upsertEntry hydrates a row directly from a registry Entry, for the
// one-shot download-list snapshot a new subscriber receives on attach
// (entries recovered from a restart may never emit another progress
// event if they're sitting at paused/complete/error).
func (c *Client) upsertEntry(e *engine.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.rows[e.ID]
	if !ok {
		r = &row{index: c.nextIndex}
		c.nextIndex++
		c.rows[e.ID] = r
		c.order = append(c.order, e.ID)
	}
	eta, hasETA := e.ETA()
	r.filename = e.Filename
	r.status = string(e.Status)
	r.progress = e.Progress()
	r.downloaded = e.DownloadedSize
	r.totalSize = e.TotalSize
	r.speed = e.CurrentSpeed
	r.eta = eta
	r.hasETA = hasETA
	r.errMsg = e.Error
}

func (c *Client) markComplete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.rows[id]; ok {
		r.status = "complete"
		r.progress = 100
	}
}

func (c *Client) markError(id, errMsg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.rows[id]; ok {
		r.status = "error"
		r.errMsg = errMsg
	}
}

func (c *Client) render() {
	c.mu.RLock()
	defer c.mu.RUnlock()

	available := terminalHeight() - 3
	if c.numLines > 0 {
		fmt.Printf("\033[%dA\033[J", c.numLines)
	}

	rows := make([]*row, 0, len(c.order))
	for _, id := range c.order {
		if r, ok := c.rows[id]; ok {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].index < rows[j].index })

	lineCount := 0
	for _, r := range rows {
		if lineCount >= available {
			break
		}
		line := fmt.Sprintf("  %s %-24s %s %s %s eta %s",
			statusIndicator(r.status), r.filename, progressBar(r.progress, 24),
			debugStyle.Render(formatBytes(r.downloaded)+"/"+formatBytes(r.totalSize)),
			formatSpeed(r.speed), formatETA(r.eta, r.hasETA))
		if r.status == "error" && r.errMsg != "" {
			line += " " + errorStyle.Render(r.errMsg)
		}
		fmt.Println(line)
		lineCount++
	}
	fmt.Println(headerStyle.Render(fmt.Sprintf("  total speed: %s", formatSpeed(c.totalSpeed))))
	lineCount++
	c.numLines = lineCount
}
