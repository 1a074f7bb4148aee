package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entry is an application payload that can be committed as an entry record.
type Entry interface {
	EntryType() EntryType
}

// Room is a conference room entry. Rooms are created once and never mutated
// or deleted; a room's lifecycle is tracked entirely through ledger links.
type Room struct {
	Initiator    Identity   `json:"initiator"`
	Participants []Identity `json:"participants"`
	CreatedAt    time.Time  `json:"created_at"`
	Title        string     `json:"title"`
	RoomID       string     `json:"room_id"`
}

func (Room) EntryType() EntryType { return EntryTypeRoom }

// CallSignalType is the kind of WebRTC payload carried by a SignalPayload.
type CallSignalType string

const (
	SignalOffer        CallSignalType = "offer"
	SignalAnswer       CallSignalType = "answer"
	SignalIceCandidate CallSignalType = "ice_candidate"
)

// SignalPayload carries one call-setup payload from one agent to another.
// It exists to be relayed; its ledger persistence is incidental, the relay
// push is the real delivery path.
type SignalPayload struct {
	RoomID      string         `json:"room_id"`
	From        Identity       `json:"from"`
	To          Identity       `json:"to"`
	PayloadType CallSignalType `json:"payload_type"`
	// Data is the JSON-stringified SDP or ICE candidate. Never empty.
	Data string `json:"data"`
}

func (SignalPayload) EntryType() EntryType { return EntryTypeSignal }

// Message is a chat message entry.
type Message struct {
	Text string `json:"text"`
}

func (Message) EntryType() EntryType { return EntryTypeMessage }

// DecodeEntry resolves a raw entry payload into its typed form. An unknown
// entry type is not an error to the caller's control flow; it returns
// ErrSerialization and callers decide whether to drop or fail.
func DecodeEntry(t EntryType, raw json.RawMessage) (Entry, error) {
	switch t {
	case EntryTypeRoom:
		var room Room
		if err := json.Unmarshal(raw, &room); err != nil {
			return nil, fmt.Errorf("%w: room entry: %v", ErrSerialization, err)
		}
		return room, nil
	case EntryTypeSignal:
		var payload SignalPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("%w: signal entry: %v", ErrSerialization, err)
		}
		return payload, nil
	case EntryTypeMessage:
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, fmt.Errorf("%w: message entry: %v", ErrSerialization, err)
		}
		return msg, nil
	}
	return nil, fmt.Errorf("%w: unknown entry type %q", ErrSerialization, t)
}
