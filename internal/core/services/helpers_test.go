package services

import (
	"context"
	"sync"

	"signalmesh/internal/core/domain"

	"go.uber.org/zap"
)

var testLogger = zap.NewNop().Sugar()

// captureSink records every emitted event for later inspection.
type captureSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (s *captureSink) Emit(event domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *captureSink) Events() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Event, len(s.events))
	copy(out, s.events)
	return out
}

// capturePusher records every push and optionally fails them all.
type capturePusher struct {
	mu     sync.Mutex
	pushes []capturedPush
	err    error
}

type capturedPush struct {
	payload []byte
	targets []domain.Identity
}

func (p *capturePusher) Push(ctx context.Context, payload []byte, targets []domain.Identity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushes = append(p.pushes, capturedPush{payload: payload, targets: targets})
	return p.err
}

func (p *capturePusher) Pushes() []capturedPush {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]capturedPush, len(p.pushes))
	copy(out, p.pushes)
	return out
}
