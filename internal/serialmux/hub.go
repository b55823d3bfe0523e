package serialmux

import (
	"sync"

	"github.com/google/uuid"
)

// subscriberBuffer is the per-subscriber channel depth.
const subscriberBuffer = 16

// lineHub fans lines out to subscribers. A subscriber whose buffer is full
// misses the line; publish never blocks the reader.
type lineHub struct {
	mu     sync.Mutex
	subs   map[string]chan string
	closed bool
}

func newLineHub() *lineHub {
	return &lineHub{subs: make(map[string]chan string)}
}

// subscribe registers a channel. After close the channel comes back
// already closed so readers never hang.
func (h *lineHub) subscribe() (string, chan string) {
	id := uuid.NewString()
	ch := make(chan string, subscriberBuffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return id, ch
	}
	h.subs[id] = ch
	return id, ch
}

func (h *lineHub) unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		close(ch)
		delete(h.subs, id)
	}
}

// publish delivers line and returns how many subscribers missed it.
func (h *lineHub) publish(line string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	missed := 0
	for _, ch := range h.subs {
		select {
		case ch <- line:
		default:
			missed++
		}
	}
	return missed
}

// close closes every subscriber and reports whether this call did it.
func (h *lineHub) close() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.closed = true
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
	return true
}

func (h *lineHub) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *lineHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
