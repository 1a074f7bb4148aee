package services

import (
	"context"
	"encoding/json"
	"fmt"

	"signalmesh/internal/core/domain"
	"signalmesh/internal/core/ports"

	"go.uber.org/zap"
)

// SignalReceiver is the relay-receive entry point exposed to remote peers.
// It accepts either a conference envelope or a message-record envelope,
// enforces the capability table, and emits the corresponding event.
type SignalReceiver struct {
	caps    *CapabilityTable
	sink    ports.EventSink
	metrics ports.Metrics
	logger  *zap.SugaredLogger
}

func NewSignalReceiver(
	caps *CapabilityTable,
	sink ports.EventSink,
	metrics ports.Metrics,
	logger *zap.SugaredLogger,
) *SignalReceiver {
	return &SignalReceiver{
		caps:    caps,
		sink:    sink,
		metrics: metrics,
		logger:  logger,
	}
}

// inboundProbe distinguishes the two envelope shapes carried over the same
// channel: conference envelopes carry a signal_type tag, message envelopes
// carry a record.
type inboundProbe struct {
	SignalType domain.SignalKind `json:"signal_type"`
	Record     *domain.Record    `json:"record"`
	Message    *domain.Message   `json:"message"`
}

// Receive handles one inbound push from a remote peer.
func (r *SignalReceiver) Receive(ctx context.Context, from domain.Identity, payload []byte) error {
	if !r.caps.Allows(from, FunctionReceiveSignal) {
		return fmt.Errorf("peer %s has no %s capability", from, FunctionReceiveSignal)
	}

	var probe inboundProbe
	if err := json.Unmarshal(payload, &probe); err != nil {
		return fmt.Errorf("%w: inbound envelope: %v", domain.ErrSerialization, err)
	}

	var event domain.Event
	switch {
	case probe.SignalType != "":
		sig, err := domain.DecodeConferenceSignal(payload)
		if err != nil {
			return err
		}
		event = sig.Event()

	case probe.Record != nil:
		if probe.Message == nil {
			return fmt.Errorf("%w: message", domain.ErrMissingField)
		}
		event = domain.MessageEvent{
			Record:  *probe.Record,
			Message: *probe.Message,
			From:    from,
		}

	default:
		return fmt.Errorf("%w: unrecognized inbound envelope", domain.ErrSerialization)
	}

	r.sink.Emit(event)
	if r.metrics != nil {
		r.metrics.RecordEventEmitted(event.EventType())
	}
	r.logger.Debugw("inbound signal dispatched",
		"from", from,
		"event", event.EventType(),
	)
	return nil
}
