package transport

import (
	"context"
	"sync"

	"signalmesh/internal/core/domain"
	"signalmesh/internal/core/ports"
)

// InboundHandler consumes one pushed payload on the receiving side.
type InboundHandler func(ctx context.Context, from domain.Identity, payload []byte)

// LoopbackBus connects agents living in the same process. Delivery is
// synchronous and still at-most-once: a target with no registered handler
// simply does not receive the payload.
type LoopbackBus struct {
	mu       sync.RWMutex
	handlers map[domain.Identity]InboundHandler
}

func NewLoopbackBus() *LoopbackBus {
	return &LoopbackBus{
		handlers: make(map[domain.Identity]InboundHandler),
	}
}

// Register attaches an agent's inbound handler to the bus.
func (b *LoopbackBus) Register(id domain.Identity, handler InboundHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[id] = handler
}

// Unregister detaches an agent. Payloads pushed to it afterwards are lost.
func (b *LoopbackBus) Unregister(id domain.Identity) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, id)
}

// Pusher returns the push primitive for one sending agent.
func (b *LoopbackBus) Pusher(self domain.Identity) ports.SignalPusher {
	return &loopbackPusher{bus: b, self: self}
}

type loopbackPusher struct {
	bus  *LoopbackBus
	self domain.Identity
}

func (p *loopbackPusher) Push(ctx context.Context, payload []byte, targets []domain.Identity) error {
	for _, target := range targets {
		p.bus.mu.RLock()
		handler, ok := p.bus.handlers[target]
		p.bus.mu.RUnlock()
		if !ok {
			continue
		}
		handler(ctx, p.self, payload)
	}
	return nil
}
