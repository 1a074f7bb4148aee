package ports

import (
	"context"

	"signalmesh/internal/core/domain"
)

// SignalPusher is the one-way push primitive toward remote peers. Delivery
// is at-most-once: no acknowledgment, no retry, no offline queueing. The
// returned error is advisory (transport-level failure on at least one
// target); callers on the relay path swallow it.
type SignalPusher interface {
	Push(ctx context.Context, payload []byte, targets []domain.Identity) error
}

// EventSink hands derived events to the local listening client. There is no
// buffering and no backpressure: if nothing is listening the event is lost.
type EventSink interface {
	Emit(event domain.Event)
}
