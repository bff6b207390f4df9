// Package tail fans newly ingested records out to live tail connections.
package tail

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/logtrail/internal/metrics"
	"github.com/kiranshivaraju/logtrail/pkg/models"
)

// Subscription receives the records published for one application.
// Delivery is at most once; nothing is replayed.
type Subscription struct {
	ApplicationID uuid.UUID

	records chan models.LogRecord
	dropped atomic.Int64
	hub     *Hub
	once    sync.Once
}

// Records is closed once the subscription is removed from the hub.
func (s *Subscription) Records() <-chan models.LogRecord {
	return s.records
}

// Dropped reports how many records were discarded because the buffer was full.
func (s *Subscription) Dropped() int64 {
	return s.dropped.Load()
}

// Close deregisters the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.Unsubscribe(s)
}

// Hub is a per-application subscriber registry.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]map[*Subscription]struct{}
	buffer int
}

// NewHub creates a Hub whose subscriptions buffer up to buffer records each.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 1
	}
	return &Hub{
		subs:   make(map[uuid.UUID]map[*Subscription]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers a new subscriber for applicationID.
func (h *Hub) Subscribe(applicationID uuid.UUID) *Subscription {
	s := &Subscription{
		ApplicationID: applicationID,
		records:       make(chan models.LogRecord, h.buffer),
		hub:           h,
	}

	h.mu.Lock()
	set, ok := h.subs[applicationID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[applicationID] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()

	metrics.TailSubscribed()
	return s
}

// Unsubscribe removes s and closes its channel.
func (h *Hub) Unsubscribe(s *Subscription) {
	s.once.Do(func() {
		h.mu.Lock()
		if set, ok := h.subs[s.ApplicationID]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(h.subs, s.ApplicationID)
			}
		}
		// Closed under the write lock so no Publish can send on it afterwards.
		close(s.records)
		h.mu.Unlock()

		metrics.TailUnsubscribed()
	})
}

// Publish delivers rec to every current subscriber of applicationID in call
// order. A subscriber whose buffer is full misses rec; the others are not
// held up. It returns the number of subscribers that received rec.
func (h *Hub) Publish(applicationID uuid.UUID, rec models.LogRecord) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for s := range h.subs[applicationID] {
		select {
		case s.records <- rec:
			delivered++
		default:
			s.dropped.Add(1)
			metrics.TailDropped()
		}
	}
	return delivered
}

// Subscribers returns the number of open subscriptions for applicationID.
func (h *Hub) Subscribers(applicationID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[applicationID])
}
