package events

import (
	"sync"
	"sync/atomic"
)

const defaultBuffer = 10

// Hub fans encoded events out to SSE subscribers. A subscriber whose buffer
// is full misses the event; a refresh never waits on a slow browser.
type Hub struct {
	mu      sync.Mutex
	subs    map[chan string]struct{}
	buffer  int
	closed  bool
	dropped atomic.Int64
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan string]struct{}), buffer: defaultBuffer}
}

// Subscribe registers a new listener. After Close the returned channel is
// already closed.
func (h *Hub) Subscribe() chan string {
	ch := make(chan string, h.buffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch
	}
	h.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe is safe to call more than once and after Close.
func (h *Hub) Unsubscribe(ch chan string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
}

// Publish returns how many subscribers received evt.
func (h *Hub) Publish(evt string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for ch := range h.subs {
		select {
		case ch <- evt:
			n++
		default:
			h.dropped.Add(1)
		}
	}
	return n
}

// Close ends every open stream. Later subscribers get a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subs {
		close(ch)
	}
	h.subs = map[chan string]struct{}{}
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Dropped counts deliveries skipped because a subscriber was full.
func (h *Hub) Dropped() int64 { return h.dropped.Load() }
