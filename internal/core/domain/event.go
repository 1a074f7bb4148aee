package domain

// EventType tags the concrete variant of a derived Event.
type EventType string

const (
	EventMessage          EventType = "message"
	EventLinkCreated      EventType = "link_created"
	EventLinkDeleted      EventType = "link_deleted"
	EventEntryCreated     EventType = "entry_created"
	EventEntryUpdated     EventType = "entry_updated"
	EventEntryDeleted     EventType = "entry_deleted"
	EventConferenceInvite EventType = "conference_invite"
	EventConferenceJoined EventType = "conference_joined"
	EventConferenceLeft   EventType = "conference_left"
	EventWebRTCSignal     EventType = "webrtc_signal"
)

// Event is a typed, ephemeral domain event derived from a committed ledger
// record or a relayed conference signal. Events are consumed immediately by
// the emission sink and have no independent storage or identity.
type Event interface {
	EventType() EventType
}

// MessageEvent surfaces a message relayed directly by its author.
type MessageEvent struct {
	Record  Record   `json:"record"`
	Message Message  `json:"message"`
	From    Identity `json:"from"`
}

func (MessageEvent) EventType() EventType { return EventMessage }

// LinkCreatedEvent surfaces a freshly committed link of a known type.
type LinkCreatedEvent struct {
	Record   Record   `json:"record"`
	LinkType LinkType `json:"link_type"`
}

func (LinkCreatedEvent) EventType() EventType { return EventLinkCreated }

// LinkDeletedEvent surfaces a link deletion together with the original
// link-creation record it tombstones.
type LinkDeletedEvent struct {
	Record   Record   `json:"record"`
	Origin   Record   `json:"origin"`
	LinkType LinkType `json:"link_type"`
}

func (LinkDeletedEvent) EventType() EventType { return EventLinkDeleted }

// EntryCreatedEvent surfaces a new entry with its resolved typed payload.
type EntryCreatedEvent struct {
	Record Record `json:"record"`
	Entry  Entry  `json:"entry"`
}

func (EntryCreatedEvent) EventType() EventType { return EventEntryCreated }

// EntryUpdatedEvent surfaces an entry update with both the new and the
// original payload resolved.
type EntryUpdatedEvent struct {
	Record        Record `json:"record"`
	Entry         Entry  `json:"entry"`
	OriginalEntry Entry  `json:"original_entry"`
}

func (EntryUpdatedEvent) EventType() EventType { return EventEntryUpdated }

// EntryDeletedEvent surfaces an entry deletion with the deleted payload.
type EntryDeletedEvent struct {
	Record        Record `json:"record"`
	OriginalEntry Entry  `json:"original_entry"`
}

func (EntryDeletedEvent) EventType() EventType { return EventEntryDeleted }

// ConferenceInviteEvent tells the client it was invited to a room.
type ConferenceInviteEvent struct {
	Room  Room     `json:"room"`
	Agent Identity `json:"agent"`
}

func (ConferenceInviteEvent) EventType() EventType { return EventConferenceInvite }

// ConferenceJoinedEvent tells the client a peer joined a room.
type ConferenceJoinedEvent struct {
	RoomID string   `json:"room_id"`
	Agent  Identity `json:"agent"`
}

func (ConferenceJoinedEvent) EventType() EventType { return EventConferenceJoined }

// ConferenceLeftEvent tells the client a peer left a room.
type ConferenceLeftEvent struct {
	RoomID string   `json:"room_id"`
	Agent  Identity `json:"agent"`
}

func (ConferenceLeftEvent) EventType() EventType { return EventConferenceLeft }

// WebRTCSignalEvent carries a call-setup payload addressed to the client.
type WebRTCSignalEvent struct {
	Payload SignalPayload `json:"payload"`
}

func (WebRTCSignalEvent) EventType() EventType { return EventWebRTCSignal }
