package sse

import (
	"sync"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/pkg/metrics"
)

// Event is one message pushed to a worker's open streams.
type Event struct {
	RecipientID string
	Event       string
	Data        interface{}
}

// Hub fans events out to the open streams of each recipient.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
	total       int
	metrics     *metrics.Metrics
}

// NewHub creates a Hub. m may be nil.
func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
		metrics:     m,
	}
}

// Subscribe registers a stream for recipientID and returns its channel and the
// function that closes it. The cleanup function is safe to call more than once.
func (h *Hub) Subscribe(recipientID string) (chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, 10)

	if h.subscribers[recipientID] == nil {
		h.subscribers[recipientID] = make(map[chan Event]struct{})
	}
	h.subscribers[recipientID][ch] = struct{}{}
	h.total++
	h.metrics.SetSSESubscribers(h.total)

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subscribers[recipientID], ch)
			close(ch)
			if len(h.subscribers[recipientID]) == 0 {
				delete(h.subscribers, recipientID)
			}
			h.total--
			h.metrics.SetSSESubscribers(h.total)
		})
	}

	return ch, cleanup
}

// Publish delivers event to every stream of recipientID. Full streams are skipped.
func (h *Hub) Publish(recipientID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[recipientID] {
		select {
		case ch <- event:
		default:
		}
	}
}

func (h *Hub) SubscriberCount(recipientID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[recipientID])
}

func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total
}
