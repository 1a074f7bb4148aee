package services

import (
	"context"
	"fmt"
	"time"

	"signalmesh/internal/core/domain"
	"signalmesh/internal/core/ports"
	"signalmesh/pkg/utils"
	"signalmesh/pkg/validation"

	webrtc "github.com/pion/webrtc/v3"
	"go.uber.org/zap"
)

type conferenceService struct {
	self     domain.Identity
	ledger   ports.Ledger
	presence ports.PresenceService
	relay    ports.RelayService
	logger   *zap.SugaredLogger

	now       func() time.Time
	newRoomID func() string
}

func NewConferenceService(
	self domain.Identity,
	ledger ports.Ledger,
	presence ports.PresenceService,
	relay ports.RelayService,
	logger *zap.SugaredLogger,
) ports.ConferenceService {
	return &conferenceService{
		self:      self,
		ledger:    ledger,
		presence:  presence,
		relay:     relay,
		logger:    logger,
		now:       time.Now,
		newRoomID: utils.GenerateRoomID,
	}
}

// CreateRoom persists a new room entry, records every invitee as a
// participant link and relays the invite. The room itself is immutable from
// here on; its lifecycle lives entirely in links.
func (s *conferenceService) CreateRoom(ctx context.Context, participants []domain.Identity, title string) (*domain.Room, domain.Hash, error) {
	if len(participants) == 0 {
		return nil, "", fmt.Errorf("%w: room needs at least one participant", domain.ErrInvalidPayload)
	}
	if err := validation.ValidateRoomTitle(title); err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}

	room := domain.Room{
		Initiator:    s.self,
		Participants: participants,
		CreatedAt:    s.now(),
		Title:        utils.SanitizeString(title),
		RoomID:       s.newRoomID(),
	}

	hash, err := s.ledger.Append(ctx, room)
	if err != nil {
		return nil, "", fmt.Errorf("failed to persist room: %w", err)
	}

	for _, participant := range participants {
		if _, err := s.ledger.CreateLink(ctx, hash, participant.Hash(), domain.LinkRoomParticipant); err != nil {
			return nil, "", fmt.Errorf("failed to link participant %s: %w", participant, err)
		}
	}

	s.relay.Relay(ctx, domain.InviteSignal{Room: room, Agent: s.self}, participants)

	s.logger.Infow("room created",
		"room_id", room.RoomID,
		"hash", hash,
		"participants", len(participants),
	)
	return &room, hash, nil
}

// JoinRoom re-reads the room record (rooms are always revalidated on join
// and leave; see DESIGN.md), registers the caller as reachable and
// announces the join to the room's invite list.
func (s *conferenceService) JoinRoom(ctx context.Context, roomHash domain.Hash) error {
	room, err := s.readRoom(ctx, roomHash)
	if err != nil {
		return err
	}

	if err := s.presence.MarkActive(ctx, s.self, s.self); err != nil {
		return fmt.Errorf("failed to register presence: %w", err)
	}

	s.relay.Relay(ctx, domain.JoinSignal{RoomID: room.RoomID, Agent: s.self}, room.Participants)

	s.logger.Infow("room joined", "room_id", room.RoomID, "agent", s.self)
	return nil
}

// SendSignal relays one call-setup payload to a single target. Validation
// failures abort before any ledger write or relay attempt. The payload is
// also persisted, but that is incidental: the push is the delivery path.
func (s *conferenceService) SendSignal(ctx context.Context, roomID string, target domain.Identity, payloadType domain.CallSignalType, data string) error {
	if data == "" {
		return fmt.Errorf("%w: signal data must not be empty", domain.ErrInvalidPayload)
	}
	if err := validateSignalShape(payloadType, data); err != nil {
		return err
	}

	payload := domain.SignalPayload{
		RoomID:      roomID,
		From:        s.self,
		To:          target,
		PayloadType: payloadType,
		Data:        data,
	}

	if _, err := s.ledger.Append(ctx, payload); err != nil {
		return fmt.Errorf("failed to persist signal payload: %w", err)
	}

	s.relay.Relay(ctx, domain.RTCSignal{Payload: payload}, []domain.Identity{target})

	s.logger.Debugw("signal sent",
		"room_id", roomID,
		"target", target,
		"payload_type", payloadType,
	)
	return nil
}

// LeaveRoom re-reads the room, withdraws the caller's own reachability and
// announces the leave. Leaving twice is not an error: deleting an absent
// active link is a no-op.
func (s *conferenceService) LeaveRoom(ctx context.Context, roomHash domain.Hash) error {
	room, err := s.readRoom(ctx, roomHash)
	if err != nil {
		return err
	}

	if err := s.presence.MarkInactive(ctx, s.self, s.self); err != nil {
		return fmt.Errorf("failed to withdraw presence: %w", err)
	}

	s.relay.Relay(ctx, domain.LeaveSignal{RoomID: room.RoomID, Agent: s.self}, room.Participants)

	s.logger.Infow("room left", "room_id", room.RoomID, "agent", s.self)
	return nil
}

func (s *conferenceService) readRoom(ctx context.Context, roomHash domain.Hash) (*domain.Room, error) {
	record, err := s.ledger.Get(ctx, roomHash)
	if err != nil {
		return nil, fmt.Errorf("conference room %s: %w", roomHash, err)
	}
	entry, err := domain.DecodeEntry(domain.EntryTypeRoom, record.Entry)
	if err != nil {
		return nil, fmt.Errorf("conference room %s: %w", roomHash, err)
	}
	room, ok := entry.(domain.Room)
	if !ok || record.EntryType != domain.EntryTypeRoom {
		return nil, fmt.Errorf("%w: record %s is not a conference room", domain.ErrSerialization, roomHash)
	}
	return &room, nil
}

func validateSignalShape(payloadType domain.CallSignalType, data string) error {
	var err error
	switch payloadType {
	case domain.SignalOffer:
		err = validation.ValidateSDP(data, webrtc.SDPTypeOffer)
	case domain.SignalAnswer:
		err = validation.ValidateSDP(data, webrtc.SDPTypeAnswer)
	case domain.SignalIceCandidate:
		err = validation.ValidateICECandidate(data)
	default:
		return fmt.Errorf("%w: unknown payload type %q", domain.ErrInvalidPayload, payloadType)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSerialization, err)
	}
	return nil
}
