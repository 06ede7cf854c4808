// Package events carries catalog change notifications to interested
// subscribers. It replaces an ambient cross-component refresh signal
// with an explicit publish/subscribe hub scoped to the process.
package events

import (
	"sync"
	"time"
)

const (
	TypeCatalogChanged = "catalog.changed"
	TypeVideoDeleted   = "video.deleted"
)

type Event struct {
	Type      string    `json:"type"`
	VideoID   string    `json:"videoId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const subscriberBuffer = 16

// Hub fans events out to subscribers. Each subscriber gets a buffered
// channel; one that stops draining loses events rather than blocking
// publishers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[int]chan Event),
	}
}

// Subscribe registers a new subscriber. The returned cancel func must
// be called when the subscriber goes away.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		ch := make(chan Event)
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	ch := make(chan Event, subscriberBuffer)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers the event to every live subscriber. Subscribers
// with full buffers are skipped.
func (h *Hub) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}

	for _, ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Close terminates all subscriptions.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
