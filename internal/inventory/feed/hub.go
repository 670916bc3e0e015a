package feed

import (
	"context"
	"sync"

	"github.com/tair/stockroom/internal/inventory/domain"
	"github.com/tair/stockroom/pkg/logger"
)

// DefaultBuffer is the per-subscriber event buffer used when none is given
const DefaultBuffer = 256

// Hub fans change events out to every live subscription. Publish enqueues an
// event for all subscribers inside one critical section, so every subscriber
// sees the same order.
type Hub struct {
	mu     sync.Mutex
	subs   map[*subscription]struct{}
	buffer int
	closed bool
}

// NewHub creates a hub whose subscribers buffer up to buffer events each
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[*subscription]struct{}),
		buffer: buffer,
	}
}

// Subscribe opens a new subscription starting at the next published event
func (h *Hub) Subscribe() (domain.Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, domain.ErrRemoteUnavailable
	}

	s := &subscription{
		hub:    h,
		events: make(chan domain.ChangeEvent, h.buffer),
	}
	h.subs[s] = struct{}{}
	return s, nil
}

// PublishChange delivers event to every subscriber. A subscriber whose buffer
// is full is dropped with ErrSubscriberLagged rather than stalling the others.
func (h *Hub) PublishChange(ctx context.Context, event domain.ChangeEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return domain.ErrRemoteUnavailable
	}

	for s := range h.subs {
		select {
		case s.events <- event:
		default:
			logger.Warn(ctx).
				Str("event_id", event.ID).
				Int("buffer", h.buffer).
				Msg("Subscriber lagged behind change feed, closing it")
			h.removeLocked(s, domain.ErrSubscriberLagged)
		}
	}
	return nil
}

// Len returns the number of live subscriptions
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription and rejects further publishes
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for s := range h.subs {
		h.removeLocked(s, nil)
	}
}

func (h *Hub) removeLocked(s *subscription, err error) {
	if _, ok := h.subs[s]; !ok {
		return
	}
	delete(h.subs, s)
	s.err = err
	close(s.events)
}

type subscription struct {
	hub    *Hub
	events chan domain.ChangeEvent
	err    error
}

func (s *subscription) Events() <-chan domain.ChangeEvent {
	return s.events
}

func (s *subscription) Err() error {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	return s.err
}

func (s *subscription) Close() error {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	s.hub.removeLocked(s, nil)
	return nil
}
