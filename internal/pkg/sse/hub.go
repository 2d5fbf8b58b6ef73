package sse

import (
	"context"
	"sync"

	"github.com/cmlabs-hris/workforce-core/internal/pkg/events"
)

// AllEmployees subscribes to the events of every employee.
const AllEmployees = "*"

// Hub fans domain events out to live stream subscribers. It is an
// events.Publisher, so the dispatcher can feed it next to Kafka.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan events.Event]struct{}
	bufferSize  int
	closed      bool
}

// NewHub creates a hub whose subscriber channels hold bufferSize events.
// Slow subscribers miss events instead of blocking publishers.
func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	return &Hub{
		subscribers: make(map[string]map[chan events.Event]struct{}),
		bufferSize:  bufferSize,
	}
}

// Subscribe registers a subscriber for employeeID (or AllEmployees) and
// returns the event channel and its cleanup function.
func (h *Hub) Subscribe(employeeID string) (<-chan events.Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan events.Event, h.bufferSize)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	if h.subscribers[employeeID] == nil {
		h.subscribers[employeeID] = make(map[chan events.Event]struct{})
	}
	h.subscribers[employeeID][ch] = struct{}{}

	cleanup := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subscribers[employeeID][ch]; !ok {
			return
		}
		delete(h.subscribers[employeeID], ch)
		close(ch)
		if len(h.subscribers[employeeID]) == 0 {
			delete(h.subscribers, employeeID)
		}
	}

	return ch, cleanup
}

// Publish implements events.Publisher. It never fails.
func (h *Hub) Publish(_ context.Context, event events.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	h.deliver(event.EmployeeID, event)
	if event.EmployeeID != AllEmployees {
		h.deliver(AllEmployees, event)
	}
	return nil
}

func (h *Hub) deliver(key string, event events.Event) {
	for ch := range h.subscribers[key] {
		select {
		case ch <- event:
		default:
			// Skip if channel is full
		}
	}
}

// Close ends every subscription. Later subscriptions are closed at once.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, subs := range h.subscribers {
		for ch := range subs {
			close(ch)
		}
	}
	h.subscribers = make(map[string]map[chan events.Event]struct{})
	h.closed = true
}

// SubscriberCount returns the number of active subscribers for a key
func (h *Hub) SubscriberCount(employeeID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[employeeID])
}

// TotalSubscribers returns the total number of active subscribers
func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, subs := range h.subscribers {
		total += len(subs)
	}
	return total
}
