package services

import (
	"context"
	"fmt"

	"signalmesh/internal/core/domain"
	"signalmesh/internal/core/ports"

	"go.uber.org/zap"
)

type presenceService struct {
	ledger  ports.Ledger
	metrics ports.Metrics
	logger  *zap.SugaredLogger
}

func NewPresenceService(ledger ports.Ledger, metrics ports.Metrics, logger *zap.SugaredLogger) ports.PresenceService {
	return &presenceService{
		ledger:  ledger,
		metrics: metrics,
		logger:  logger,
	}
}

// ActivePeers lists the targets of active-peer links anchored at self. No
// caching: the result reflects the most recently committed join/leave at
// call time, eventually consistent with concurrent writes by other agents.
func (s *presenceService) ActivePeers(ctx context.Context, self domain.Identity) ([]domain.Identity, error) {
	links, err := s.ledger.Links(ctx, self.Hash(), domain.LinkActivePeer)
	if err != nil {
		return nil, fmt.Errorf("failed to list active links: %w", err)
	}

	peers := make([]domain.Identity, 0, len(links))
	for _, link := range links {
		peers = append(peers, domain.IdentityFromHash(link.Target))
	}

	if s.metrics != nil {
		s.metrics.SetActivePeers(len(peers))
	}
	return peers, nil
}

func (s *presenceService) MarkActive(ctx context.Context, self, peer domain.Identity) error {
	if _, err := s.ledger.CreateLink(ctx, self.Hash(), peer.Hash(), domain.LinkActivePeer); err != nil {
		return fmt.Errorf("failed to mark peer active: %w", err)
	}
	s.logger.Debugw("peer marked active", "self", self, "peer", peer)
	return nil
}

// MarkInactive deletes the active links anchored at self that target peer.
// Presence removal is self-removal: an agent withdraws its own reachability,
// it never evicts someone else. Deleting when no link exists is a no-op, so
// a repeated leave is idempotent.
func (s *presenceService) MarkInactive(ctx context.Context, self, peer domain.Identity) error {
	links, err := s.ledger.Links(ctx, self.Hash(), domain.LinkActivePeer)
	if err != nil {
		return fmt.Errorf("failed to list active links: %w", err)
	}

	for _, link := range links {
		if link.Target != peer.Hash() {
			continue
		}
		if _, err := s.ledger.DeleteLink(ctx, link.Hash); err != nil {
			return fmt.Errorf("failed to delete active link: %w", err)
		}
	}

	s.logger.Debugw("peer marked inactive", "self", self, "peer", peer)
	return nil
}
