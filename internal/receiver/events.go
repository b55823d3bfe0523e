package receiver

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// subscriberBuffer is the channel depth per subscriber. Events for a
// subscriber whose buffer is full are dropped.
const subscriberBuffer = 32

// AngleEvent is published each time a new reading is applied.
type AngleEvent struct {
	Raw       float64   `json:"raw"`
	Processed float64   `json:"processed"`
	Source    string    `json:"source"`
	At        time.Time `json:"at"`
}

// ConnectionEvent is published when the sensor is found or lost.
type ConnectionEvent struct {
	Connected bool      `json:"connected"`
	Address   string    `json:"address"`
	At        time.Time `json:"at"`
}

// hub fans events out to subscribers without ever blocking the publisher.
type hub[T any] struct {
	mu     sync.Mutex
	subs   map[string]chan T
	closed bool
}

func newHub[T any]() *hub[T] {
	return &hub[T]{subs: make(map[string]chan T)}
}

func (h *hub[T]) subscribe() (string, <-chan T) {
	id := uuid.NewString()
	ch := make(chan T, subscriberBuffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return id, ch
	}
	h.subs[id] = ch
	return id, ch
}

func (h *hub[T]) unsubscribe(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch, ok := h.subs[id]
	if ok {
		close(ch)
		delete(h.subs, id)
	}
	return ok
}

func (h *hub[T]) publish(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- v:
		default:
		}
	}
}

func (h *hub[T]) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
}

func (h *hub[T]) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
