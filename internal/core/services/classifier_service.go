package services

import (
	"context"
	"fmt"

	"signalmesh/internal/core/domain"
	"signalmesh/internal/core/ports"

	"go.uber.org/zap"
)

// commitPolicy says what happens when classification of a record kind
// cannot complete: most kinds tolerate missing cross-shard data because
// ledger propagation is asynchronous, but a link deletion always has a
// causally earlier creation, so its lookup failing is a hard error. The
// asymmetry is deliberate and kept visible here rather than buried in
// control flow.
type commitPolicy int

const (
	policyDrop commitPolicy = iota
	policyFail
)

var commitPolicies = map[domain.RecordKind]commitPolicy{
	domain.KindLinkCreate:  policyDrop,
	domain.KindLinkDelete:  policyFail,
	domain.KindEntryCreate: policyDrop,
	domain.KindEntryUpdate: policyDrop,
	domain.KindEntryDelete: policyDrop,
}

type classifierService struct {
	ledger  ports.Ledger
	sink    ports.EventSink
	metrics ports.Metrics
	logger  *zap.SugaredLogger
}

func NewClassifierService(
	ledger ports.Ledger,
	sink ports.EventSink,
	metrics ports.Metrics,
	logger *zap.SugaredLogger,
) ports.Classifier {
	return &classifierService{
		ledger:  ledger,
		sink:    sink,
		metrics: metrics,
		logger:  logger,
	}
}

// HandleCommit derives at most one typed event from a freshly committed
// record and emits it. A failure affects only this one record.
func (c *classifierService) HandleCommit(ctx context.Context, record domain.Record) error {
	event, err := c.classify(ctx, record)
	if err != nil {
		if commitPolicies[record.Kind] == policyFail {
			if c.metrics != nil {
				c.metrics.RecordClassifierFailure()
			}
			return fmt.Errorf("classify %s record %s: %w", record.Kind, record.Hash, err)
		}
		c.logger.Debugw("record dropped during classification",
			"kind", record.Kind,
			"hash", record.Hash,
			"error", err,
		)
		return nil
	}
	if event == nil {
		return nil
	}

	c.sink.Emit(event)
	if c.metrics != nil {
		c.metrics.RecordEventEmitted(event.EventType())
	}
	return nil
}

func (c *classifierService) classify(ctx context.Context, record domain.Record) (domain.Event, error) {
	switch record.Kind {
	case domain.KindLinkCreate:
		// Foreign link types yield no event, not an error.
		if !record.LinkType.Known() {
			return nil, nil
		}
		return domain.LinkCreatedEvent{Record: record, LinkType: record.LinkType}, nil

	case domain.KindLinkDelete:
		origin, err := c.ledger.Get(ctx, record.OriginLink)
		if err != nil {
			return nil, fmt.Errorf("%w: create-link %s: %v", domain.ErrMustExist, record.OriginLink, err)
		}
		if origin.Kind != domain.KindLinkCreate {
			return nil, fmt.Errorf("%w: record %s is not a link creation", domain.ErrMustExist, record.OriginLink)
		}
		if !origin.LinkType.Known() {
			return nil, nil
		}
		return domain.LinkDeletedEvent{Record: record, Origin: *origin, LinkType: origin.LinkType}, nil

	case domain.KindEntryCreate:
		entry, ok := c.resolveEntry(ctx, record.Hash)
		if !ok {
			return nil, nil
		}
		return domain.EntryCreatedEvent{Record: record, Entry: entry}, nil

	case domain.KindEntryUpdate:
		entry, ok := c.resolveEntry(ctx, record.Hash)
		if !ok {
			return nil, nil
		}
		original, ok := c.resolveEntry(ctx, record.OriginalHash)
		if !ok {
			return nil, nil
		}
		return domain.EntryUpdatedEvent{Record: record, Entry: entry, OriginalEntry: original}, nil

	case domain.KindEntryDelete:
		original, ok := c.resolveEntry(ctx, record.OriginalHash)
		if !ok {
			return nil, nil
		}
		return domain.EntryDeletedEvent{Record: record, OriginalEntry: original}, nil
	}

	// Substrate-internal record kinds are of no interest here.
	return nil, nil
}

// resolveEntry follows a record address back to a typed application
// payload. Anything unresolvable (absent record, no entry, foreign entry
// type, undecodable payload) reports false.
func (c *classifierService) resolveEntry(ctx context.Context, h domain.Hash) (domain.Entry, bool) {
	details, err := c.ledger.GetDetails(ctx, h)
	if err != nil {
		return nil, false
	}
	record := details.Record
	if len(record.Entry) == 0 || record.EntryType == "" {
		return nil, false
	}
	entry, err := domain.DecodeEntry(record.EntryType, record.Entry)
	if err != nil {
		return nil, false
	}
	return entry, true
}
