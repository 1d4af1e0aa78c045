// Package hub fans wire messages out to a fixed table of subscriber slots,
// each owning a bounded FIFO queue, and drives best-effort delivery to the
// transport behind each subscriber. A slow subscriber loses its newest
// messages rather than stalling ingestion or its neighbours.
package hub

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"printerd/pkg/types"
)

// Defaults for the slot table; Config overrides them.
const (
	DefaultSlots     = 4
	DefaultQueueSize = 50
	DefaultInterval  = 10 * time.Millisecond
)

// zlog is an optional structured logger. If unset, the hub stays quiet.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used for drop warnings and
// subscriber churn.
func SetLogger(l zerolog.Logger) { zlog = &l }

// Config sizes the hub. Zero values select the defaults.
type Config struct {
	// Slots is the fixed number of subscriber seats.
	Slots int
	// QueueSize bounds each slot's message queue.
	QueueSize int
	// Interval is the idle delay between delivery cycles.
	Interval time.Duration
}

// Hub is the subscriber registry plus the delivery loop state.
type Hub struct {
	slots    []*slot
	interval time.Duration
	catchUp  func() []types.Message
	notify   chan struct{}
}

// slot is one subscriber seat: identity, active flag and the owned queue.
// The mutex covers all three and is never held across a Deliver call.
type slot struct {
	mu       sync.Mutex
	index    int
	capacity int
	id       string
	active   bool
	queue    []types.Message
}

// New builds a hub. catchUp, when non-nil, supplies the per-category
// snapshot messages enqueued for a fresh subscriber so it does not have to
// wait for the next telemetry line.
func New(cfg Config, catchUp func() []types.Message) *Hub {
	if cfg.Slots <= 0 {
		cfg.Slots = DefaultSlots
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	h := &Hub{
		slots:    make([]*slot, cfg.Slots),
		interval: cfg.Interval,
		catchUp:  catchUp,
		notify:   make(chan struct{}, 1),
	}
	for i := range h.slots {
		h.slots[i] = &slot{index: i, capacity: cfg.QueueSize}
	}
	return h
}

// Subscribe claims the lowest free slot for id, clears any stale messages
// from the previous occupant and enqueues the catch-up snapshot. It returns
// the slot index, or an error satisfying IsRegistryFull when every seat is
// taken. The snapshot is computed before the seat is claimed so no two locks
// are ever held together; a broadcast racing the claim is healed by the next
// whole-category update.
func (h *Hub) Subscribe(id string) (int, error) {
	var catch []types.Message
	if h.catchUp != nil {
		catch = h.catchUp()
	}
	for _, s := range h.slots {
		s.mu.Lock()
		if s.active {
			s.mu.Unlock()
			continue
		}
		s.id = id
		s.active = true
		s.queue = s.queue[:0]
		for _, m := range catch {
			s.enqueueLocked(m)
		}
		s.mu.Unlock()
		subscribersActive.Inc()
		if zlog != nil {
			zlog.Info().Int("slot", s.index).Str("client", id).Msg("subscriber attached")
		}
		h.wake()
		return s.index, nil
	}
	subscribeRejected.Inc()
	if zlog != nil {
		zlog.Warn().Str("client", id).Int("slots", len(h.slots)).Msg("subscribe rejected, no free slot")
	}
	return -1, registryFullError{slots: len(h.slots)}
}

// Unsubscribe frees the seat held by id and discards its queued messages.
// Idempotent; unknown ids are ignored. Safe to call concurrently with an
// in-flight broadcast.
func (h *Hub) Unsubscribe(id string) {
	for _, s := range h.slots {
		s.mu.Lock()
		if s.active && s.id == id {
			s.active = false
			s.id = ""
			s.queue = nil
			s.mu.Unlock()
			subscribersActive.Dec()
			if zlog != nil {
				zlog.Info().Int("slot", s.index).Str("client", id).Msg("subscriber detached")
			}
			return
		}
		s.mu.Unlock()
	}
}

// Broadcast enqueues m for every active subscriber. A full queue drops the
// incoming message for that subscriber only (drop-newest) and surfaces a
// warning; other subscribers are unaffected. Never blocks.
func (h *Hub) Broadcast(m types.Message) {
	messagesBroadcast.WithLabelValues(m.Type).Inc()
	enqueued := false
	for _, s := range h.slots {
		s.mu.Lock()
		if !s.active {
			s.mu.Unlock()
			continue
		}
		ok := s.enqueueLocked(m)
		id := s.id
		s.mu.Unlock()
		if !ok {
			messagesDropped.WithLabelValues(m.Type).Inc()
			if zlog != nil {
				zlog.Warn().Int("slot", s.index).Str("client", id).Str("type", m.Type).Msg("queue full, message dropped")
			}
			continue
		}
		enqueued = true
	}
	if enqueued {
		h.wake()
	}
}

// enqueueLocked appends m unless the queue is full. Caller holds s.mu.
func (s *slot) enqueueLocked(m types.Message) bool {
	if len(s.queue) >= s.capacity {
		return false
	}
	s.queue = append(s.queue, m)
	return true
}

// wake nudges the delivery loop without ever blocking the producer.
func (h *Hub) wake() {
	select {
	case h.notify <- struct{}{}:
	default:
	}
}
