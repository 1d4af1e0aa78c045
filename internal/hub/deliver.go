package hub

import (
	"context"
	"time"

	"printerd/pkg/types"
)

// Deliverer hands one drained message to the transport behind a subscriber.
// Implementations must not block indefinitely. A permanent transport failure
// is reported through Unsubscribe by the transport layer, not through the
// error return; the loop never retries a message.
type Deliverer interface {
	Deliver(id string, msg types.Message) error
}

// Run drives delivery until ctx is done. Each cycle dequeues at most one
// message per active slot, FIFO within the slot, and hands it to d with no
// locks held. While work is pending it cycles hot; when idle it blocks on
// the wake signal with the configured interval as a fallback.
func (h *Hub) Run(ctx context.Context, d Deliverer) {
	timer := time.NewTimer(h.interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if h.deliverOnce(d) {
			continue
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(h.interval)
		select {
		case <-ctx.Done():
			return
		case <-h.notify:
		case <-timer.C:
		}
	}
}

// deliverOnce performs one delivery cycle and reports whether any message
// moved.
func (h *Hub) deliverOnce(d Deliverer) bool {
	moved := false
	for _, s := range h.slots {
		s.mu.Lock()
		if !s.active || len(s.queue) == 0 {
			s.mu.Unlock()
			continue
		}
		m := s.queue[0]
		s.queue[0] = types.Message{} // release the payload for GC
		s.queue = s.queue[1:]
		id := s.id
		s.mu.Unlock()
		moved = true
		if err := d.Deliver(id, m); err != nil {
			deliveryFailures.Inc()
			if zlog != nil {
				zlog.Debug().Str("client", id).Err(err).Msg("delivery failed")
			}
			continue
		}
		messagesDelivered.Inc()
	}
	return moved
}
