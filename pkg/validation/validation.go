package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	webrtc "github.com/pion/webrtc/v3"
)

var (
	// RoomIDRegex validates room ID format
	RoomIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	// IdentityRegex validates the canonical encoding of an agent public key
	IdentityRegex = regexp.MustCompile(`^[a-zA-Z0-9+/=_-]+$`)
)

// ValidateRoomID validates a room identifier
func ValidateRoomID(roomID string) error {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return fmt.Errorf("room id is required")
	}
	if len(roomID) > 128 {
		return fmt.Errorf("room id is too long (max 128 characters)")
	}
	if !RoomIDRegex.MatchString(roomID) {
		return fmt.Errorf("room id contains invalid characters")
	}
	return nil
}

// ValidateIdentity validates an agent identity string
func ValidateIdentity(identity string) error {
	if identity == "" {
		return fmt.Errorf("identity is required")
	}
	if len(identity) > 256 {
		return fmt.Errorf("identity is too long (max 256 characters)")
	}
	if !IdentityRegex.MatchString(identity) {
		return fmt.Errorf("identity contains invalid characters")
	}
	return nil
}

// ValidateRoomTitle validates a conference room title
func ValidateRoomTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title is required")
	}
	if len(title) > 200 {
		return fmt.Errorf("title is too long (max 200 characters)")
	}
	return nil
}

// ValidateSDP checks that data decodes as a WebRTC session description of
// the expected type (offer or answer) with a non-empty SDP body.
func ValidateSDP(data string, expected webrtc.SDPType) error {
	var desc webrtc.SessionDescription
	if err := json.Unmarshal([]byte(data), &desc); err != nil {
		return fmt.Errorf("not a session description: %w", err)
	}
	if desc.Type != expected {
		return fmt.Errorf("session description type is %q, expected %q", desc.Type, expected)
	}
	if strings.TrimSpace(desc.SDP) == "" {
		return fmt.Errorf("session description has empty sdp")
	}
	return nil
}

// ValidateICECandidate checks that data decodes as an ICE candidate init
// with a non-empty candidate string.
func ValidateICECandidate(data string) error {
	var candidate webrtc.ICECandidateInit
	if err := json.Unmarshal([]byte(data), &candidate); err != nil {
		return fmt.Errorf("not an ice candidate: %w", err)
	}
	if strings.TrimSpace(candidate.Candidate) == "" {
		return fmt.Errorf("ice candidate is empty")
	}
	return nil
}
