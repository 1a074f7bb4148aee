package services

import (
	"context"

	"signalmesh/internal/core/domain"
	"signalmesh/internal/core/ports"

	"go.uber.org/zap"
)

type relayService struct {
	self     domain.Identity
	presence ports.PresenceService
	pusher   ports.SignalPusher
	metrics  ports.Metrics
	logger   *zap.SugaredLogger
}

func NewRelayService(
	self domain.Identity,
	presence ports.PresenceService,
	pusher ports.SignalPusher,
	metrics ports.Metrics,
	logger *zap.SugaredLogger,
) ports.RelayService {
	return &relayService{
		self:     self,
		presence: presence,
		pusher:   pusher,
		metrics:  metrics,
		logger:   logger,
	}
}

// Relay pushes sig to the candidates that are present in the local agent's
// active-peer set, and to no one else. Conferencing is synchronous and
// ephemeral: a peer that is not reachable right now gains nothing from a
// stale offer later, so absence means "do not bother", not "queue". Nothing
// on this path is surfaced to the caller; senders have no way to know
// whether a given peer received the signal.
func (r *relayService) Relay(ctx context.Context, sig domain.ConferenceSignal, candidates []domain.Identity) {
	active, err := r.presence.ActivePeers(ctx, r.self)
	if err != nil {
		r.logger.Warnw("failed to read active peers, dropping relay",
			"signal", sig.SignalKind(),
			"error", err,
		)
		if r.metrics != nil {
			r.metrics.RecordRelayDropped(sig.SignalKind())
		}
		return
	}

	activeSet := make(map[domain.Identity]struct{}, len(active))
	for _, peer := range active {
		activeSet[peer] = struct{}{}
	}

	var targets []domain.Identity
	for _, candidate := range candidates {
		if _, ok := activeSet[candidate]; ok {
			targets = append(targets, candidate)
		}
	}

	if len(targets) == 0 {
		r.logger.Debugw("no reachable targets, relay skipped",
			"signal", sig.SignalKind(),
			"candidates", len(candidates),
		)
		if r.metrics != nil {
			r.metrics.RecordRelayDropped(sig.SignalKind())
		}
		return
	}

	payload, err := domain.EncodeConferenceSignal(sig)
	if err != nil {
		r.logger.Warnw("failed to encode signal, dropping relay",
			"signal", sig.SignalKind(),
			"error", err,
		)
		if r.metrics != nil {
			r.metrics.RecordRelayDropped(sig.SignalKind())
		}
		return
	}

	if err := r.pusher.Push(ctx, payload, targets); err != nil {
		// At-most-once, best-effort: transport failures are logged, never
		// surfaced.
		r.logger.Warnw("signal push failed",
			"signal", sig.SignalKind(),
			"targets", len(targets),
			"error", err,
		)
	}

	if r.metrics != nil {
		r.metrics.RecordRelaySent(sig.SignalKind(), len(targets))
	}
}
