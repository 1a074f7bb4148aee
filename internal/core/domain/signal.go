package domain

import (
	"encoding/json"
	"fmt"
)

// SignalKind tags a conference signal on the wire.
type SignalKind string

const (
	SignalKindInvite SignalKind = "invite"
	SignalKindJoin   SignalKind = "join"
	SignalKindLeave  SignalKind = "leave"
	SignalKindWebRTC SignalKind = "webrtc"
)

// ConferenceSignal is the typed form of a relayed conference record. Each
// variant holds exactly the payload its kind requires; the legacy
// optional-field envelope exists only at the wire boundary.
type ConferenceSignal interface {
	SignalKind() SignalKind

	// Event maps the signal onto its client-facing event.
	Event() Event
}

// InviteSignal announces a newly created room to its invitees.
type InviteSignal struct {
	Room  Room
	Agent Identity
}

func (InviteSignal) SignalKind() SignalKind { return SignalKindInvite }

// JoinSignal announces that an agent joined a room.
type JoinSignal struct {
	RoomID string
	Agent  Identity
}

func (JoinSignal) SignalKind() SignalKind { return SignalKindJoin }

// LeaveSignal announces that an agent left a room.
type LeaveSignal struct {
	RoomID string
	Agent  Identity
}

func (LeaveSignal) SignalKind() SignalKind { return SignalKindLeave }

// RTCSignal carries one call-setup payload to a single target.
type RTCSignal struct {
	Payload SignalPayload
}

func (RTCSignal) SignalKind() SignalKind { return SignalKindWebRTC }

// signalEnvelope is the wire shape shared with remote agents: a tag plus
// one optional field per possible payload. Which fields must be present is
// a hard protocol invariant enforced by DecodeConferenceSignal.
type signalEnvelope struct {
	Room          *Room          `json:"room,omitempty"`
	RoomID        *string        `json:"room_id,omitempty"`
	Agent         *Identity      `json:"agent,omitempty"`
	SignalType    SignalKind     `json:"signal_type"`
	SignalPayload *SignalPayload `json:"signal_payload,omitempty"`
}

// MessageRecordEnvelope is the wire shape of a directly relayed message
// record.
type MessageRecordEnvelope struct {
	Record  *Record  `json:"record,omitempty"`
	Message *Message `json:"message,omitempty"`
}

// EncodeConferenceSignal serializes a conference signal into the wire
// envelope, populating exactly the fields the kind implies.
func EncodeConferenceSignal(sig ConferenceSignal) ([]byte, error) {
	env := signalEnvelope{SignalType: sig.SignalKind()}
	switch s := sig.(type) {
	case InviteSignal:
		room := s.Room
		agent := s.Agent
		env.Room = &room
		env.Agent = &agent
	case JoinSignal:
		roomID := s.RoomID
		agent := s.Agent
		env.RoomID = &roomID
		env.Agent = &agent
	case LeaveSignal:
		roomID := s.RoomID
		agent := s.Agent
		env.RoomID = &roomID
		env.Agent = &agent
	case RTCSignal:
		payload := s.Payload
		env.SignalPayload = &payload
	default:
		return nil, fmt.Errorf("%w: unsupported signal kind %q", ErrSerialization, sig.SignalKind())
	}
	return json.Marshal(env)
}

// DecodeConferenceSignal parses a wire envelope back into its typed form.
// Every envelope must carry exactly the fields its tag implies; a missing
// field yields ErrMissingField.
func DecodeConferenceSignal(data []byte) (ConferenceSignal, error) {
	var env signalEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: conference envelope: %v", ErrSerialization, err)
	}

	switch env.SignalType {
	case SignalKindInvite:
		if env.Room == nil {
			return nil, fmt.Errorf("%w: room", ErrMissingField)
		}
		if env.Agent == nil {
			return nil, fmt.Errorf("%w: agent", ErrMissingField)
		}
		return InviteSignal{Room: *env.Room, Agent: *env.Agent}, nil
	case SignalKindJoin:
		if env.RoomID == nil {
			return nil, fmt.Errorf("%w: room_id", ErrMissingField)
		}
		if env.Agent == nil {
			return nil, fmt.Errorf("%w: agent", ErrMissingField)
		}
		return JoinSignal{RoomID: *env.RoomID, Agent: *env.Agent}, nil
	case SignalKindLeave:
		if env.RoomID == nil {
			return nil, fmt.Errorf("%w: room_id", ErrMissingField)
		}
		if env.Agent == nil {
			return nil, fmt.Errorf("%w: agent", ErrMissingField)
		}
		return LeaveSignal{RoomID: *env.RoomID, Agent: *env.Agent}, nil
	case SignalKindWebRTC:
		if env.SignalPayload == nil {
			return nil, fmt.Errorf("%w: signal_payload", ErrMissingField)
		}
		return RTCSignal{Payload: *env.SignalPayload}, nil
	}
	return nil, fmt.Errorf("%w: unknown signal type %q", ErrSerialization, env.SignalType)
}

// Event maps a decoded conference signal onto its client-facing event.
func (s InviteSignal) Event() Event {
	return ConferenceInviteEvent{Room: s.Room, Agent: s.Agent}
}

func (s JoinSignal) Event() Event {
	return ConferenceJoinedEvent{RoomID: s.RoomID, Agent: s.Agent}
}

func (s LeaveSignal) Event() Event {
	return ConferenceLeftEvent{RoomID: s.RoomID, Agent: s.Agent}
}

func (s RTCSignal) Event() Event {
	return WebRTCSignalEvent{Payload: s.Payload}
}
