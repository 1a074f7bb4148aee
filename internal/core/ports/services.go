package ports

import (
	"context"

	"signalmesh/internal/core/domain"
)

// PresenceService derives which peers are currently reachable. Reads are
// always live; there is no caching layer.
type PresenceService interface {
	ActivePeers(ctx context.Context, self domain.Identity) ([]domain.Identity, error)
	MarkActive(ctx context.Context, self, peer domain.Identity) error
	MarkInactive(ctx context.Context, self, peer domain.Identity) error
}

// RelayService pushes a conference signal to the subset of candidates that
// are currently reachable. Fire-and-forget: an empty surviving target set is
// a silent no-op and push failures are never surfaced to the caller.
type RelayService interface {
	Relay(ctx context.Context, sig domain.ConferenceSignal, candidates []domain.Identity)
}

// ConferenceService implements the room protocol from the perspective of
// the local agent.
type ConferenceService interface {
	CreateRoom(ctx context.Context, participants []domain.Identity, title string) (*domain.Room, domain.Hash, error)
	JoinRoom(ctx context.Context, room domain.Hash) error
	SendSignal(ctx context.Context, roomID string, target domain.Identity, payloadType domain.CallSignalType, data string) error
	LeaveRoom(ctx context.Context, room domain.Hash) error
}

// Classifier turns one freshly committed ledger record into at most one
// typed event and emits it. The only surfaced failure is the link-deletion
// origin lookup (domain.ErrMustExist); everything else drops silently.
type Classifier interface {
	HandleCommit(ctx context.Context, record domain.Record) error
}

// Metrics receives operational counters from the core services. Adapters
// may be nil-tolerant no-ops in tests.
type Metrics interface {
	RecordRelaySent(kind domain.SignalKind, targets int)
	RecordRelayDropped(kind domain.SignalKind)
	RecordEventEmitted(t domain.EventType)
	RecordClassifierFailure()
	SetActivePeers(n int)
}
