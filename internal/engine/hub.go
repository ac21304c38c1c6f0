package engine

import (
	"sync"

	"github.com/google/uuid"
)

// subscriberBuffer is how many undelivered events a slow subscriber may
// accumulate before new events are dropped for it. Dropping an event never
// affects engine state (spec §4.5, §5).
const subscriberBuffer = 64

// Hub is the best-effort fan-out point for engine events. Subscribing or
// publishing never blocks the driver goroutine.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]chan Event
}

func newHub() *Hub {
	return &Hub{subs: make(map[string]chan Event)}
}

// Subscribe registers a new client and returns its channel and session id.
// The channel is closed by Unsubscribe; while its buffer is full, new
// events for this subscriber are dropped.
func (h *Hub) Subscribe() (string, <-chan Event) {
	id := uuid.New().String()
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	h.subs[id] = ch
	h.mu.Unlock()
	return id, ch
}

// Unsubscribe removes a client and closes its channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	ch, ok := h.subs[id]
	delete(h.subs, id)
	h.mu.Unlock()
	if ok {
		close(ch)
	}
}

// publish fans an event out to every subscriber, dropping it for any
// subscriber whose buffer is full instead of blocking.
func (h *Hub) publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// sendTo delivers an event to exactly one subscriber, dropping it if
// that subscriber's buffer is full or it has already unsubscribed.
// Used for the one-shot download-list snapshot on attach.
func (h *Hub) sendTo(id string, ev Event) {
	h.mu.RLock()
	ch, ok := h.subs[id]
	h.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case ch <- ev:
	default:
	}
}
