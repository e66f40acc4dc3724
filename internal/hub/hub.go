// Package hub fans newly indexed donations out to live subscribers.
package hub

import (
	"encoding/json"
	"sync"

	"github.com/goran-ethernal/DonationIndexor/internal/logger"
)

// Subscriber is a live consumer of broadcast messages.
type Subscriber interface {
	ID() string
	// Send queues msg for delivery. It must not block.
	Send(msg []byte) error
	Close() error
}

// Hub keeps the set of active subscribers. It is safe for concurrent use.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]Subscriber
	log  *logger.Logger
}

// New creates an empty Hub.
func New(log *logger.Logger) *Hub {
	return &Hub{
		subs: make(map[string]Subscriber),
		log:  log,
	}
}

// Register adds sub. A subscriber registered twice replaces the previous entry.
func (h *Hub) Register(sub Subscriber) {
	h.mu.Lock()
	h.subs[sub.ID()] = sub
	n := len(h.subs)
	h.mu.Unlock()

	subscribersSet(n)
	h.log.Debugf("subscriber registered: id=%s active=%d", sub.ID(), n)
}

// Unregister removes the subscriber with id and reports whether it was present.
// The subscriber is not closed.
func (h *Hub) Unregister(id string) bool {
	h.mu.Lock()
	_, ok := h.subs[id]
	delete(h.subs, id)
	n := len(h.subs)
	h.mu.Unlock()

	if ok {
		subscribersSet(n)
		h.log.Debugf("subscriber unregistered: id=%s active=%d", id, n)
	}

	return ok
}

// Count returns the number of active subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subs)
}

// Broadcast encodes v once and sends it to every subscriber. Subscribers that fail
// are unregistered and closed; delivery to the others is unaffected.
func (h *Hub) Broadcast(v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		h.log.Errorf("failed to encode broadcast message: %v", err)
		return
	}

	h.mu.RLock()
	subs := make([]Subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	for _, s := range subs {
		if err := s.Send(msg); err != nil {
			h.log.Warnf("dropping subscriber %s: %v", s.ID(), err)
			messagesInc("dropped")
			h.Unregister(s.ID())
			_ = s.Close()
			continue
		}
		messagesInc("sent")
	}
}

// Close closes and removes every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[string]Subscriber)
	h.mu.Unlock()

	for _, s := range subs {
		_ = s.Close()
	}
	subscribersSet(0)
}
