package domain

import (
	"encoding/json"
	"time"
)

// RecordKind identifies what a committed ledger record does. Kinds outside
// this set exist in the substrate (genesis, key management) but are of no
// interest to the signaling plane and are ignored by the classifier.
type RecordKind string

const (
	KindEntryCreate RecordKind = "entry_create"
	KindEntryUpdate RecordKind = "entry_update"
	KindEntryDelete RecordKind = "entry_delete"
	KindLinkCreate  RecordKind = "link_create"
	KindLinkDelete  RecordKind = "link_delete"
)

// EntryType declares the application schema of an entry record's payload.
type EntryType string

const (
	EntryTypeRoom    EntryType = "conference_room"
	EntryTypeSignal  EntryType = "signal_payload"
	EntryTypeMessage EntryType = "message"
)

// LinkType is the relational tag on a directed edge between two
// ledger-addressable values.
type LinkType string

const (
	// LinkRoomParticipant points from a room record to an invited identity.
	// Created once per invitee at room creation, never deleted.
	LinkRoomParticipant LinkType = "room_participant"

	// LinkActivePeer points from one identity to another, meaning the target
	// is currently reachable by the base. This is the only mutable relational
	// state in the system: created on join, deleted on leave.
	LinkActivePeer LinkType = "active_peer"
)

// Known reports whether the link type belongs to this application.
// Foreign link types committed by other zomes classify to no event.
func (t LinkType) Known() bool {
	switch t {
	case LinkRoomParticipant, LinkActivePeer:
		return true
	}
	return false
}

// Record is one committed unit in the ledger, addressed by content hash.
// The populated fields depend on Kind: entry records carry EntryType/Entry
// (and OriginalHash for updates and deletes), link records carry
// LinkType/Base/Target (and OriginLink for deletions).
type Record struct {
	Hash      Hash       `json:"hash"`
	Author    Identity   `json:"author"`
	Timestamp time.Time  `json:"timestamp"`
	Kind      RecordKind `json:"kind"`

	EntryType    EntryType       `json:"entry_type,omitempty"`
	Entry        json.RawMessage `json:"entry,omitempty"`
	OriginalHash Hash            `json:"original_hash,omitempty"`

	LinkType   LinkType `json:"link_type,omitempty"`
	Base       Hash     `json:"base,omitempty"`
	Target     Hash     `json:"target,omitempty"`
	OriginLink Hash     `json:"origin_link,omitempty"`
}

// RecordDetails is a record together with its provenance metadata.
type RecordDetails struct {
	Record    Record `json:"record"`
	Deleted   bool   `json:"deleted"`
	UpdatedBy []Hash `json:"updated_by,omitempty"`
	DeletedBy []Hash `json:"deleted_by,omitempty"`
}

// Link is the indexed view of a live (not yet deleted) link-creation record.
type Link struct {
	Hash      Hash      `json:"hash"`
	Base      Hash      `json:"base"`
	Target    Hash      `json:"target"`
	Type      LinkType  `json:"type"`
	Author    Identity  `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}
