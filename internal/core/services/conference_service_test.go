package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"signalmesh/internal/core/domain"
	"signalmesh/internal/core/ports"
	"signalmesh/internal/infrastructure/ledger/memory"
)

type conferenceFixture struct {
	ledger     ports.Ledger
	presence   ports.PresenceService
	pusher     *capturePusher
	conference ports.ConferenceService
}

func newConferenceFixture(t *testing.T) *conferenceFixture {
	t.Helper()

	ledger := memory.NewLedger(memory.NewStore(), "alice")
	presence := NewPresenceService(ledger, nil, testLogger)
	pusher := &capturePusher{}
	relay := NewRelayService("alice", presence, pusher, nil, testLogger)

	conference := &conferenceService{
		self:      "alice",
		ledger:    ledger,
		presence:  presence,
		relay:     relay,
		logger:    testLogger,
		now:       func() time.Time { return time.Unix(1700000000, 0).UTC() },
		newRoomID: func() string { return "room_fixed" },
	}

	return &conferenceFixture{
		ledger:     ledger,
		presence:   presence,
		pusher:     pusher,
		conference: conference,
	}
}

func (f *conferenceFixture) lastSignal(t *testing.T) domain.ConferenceSignal {
	t.Helper()

	pushes := f.pusher.Pushes()
	if len(pushes) == 0 {
		t.Fatal("no signal pushed")
	}
	sig, err := domain.DecodeConferenceSignal(pushes[len(pushes)-1].payload)
	if err != nil {
		t.Fatalf("pushed payload does not decode: %v", err)
	}
	return sig
}

func TestConferenceService_CreateRoomRoundTrip(t *testing.T) {
	f := newConferenceFixture(t)
	ctx := context.Background()

	room, hash, err := f.conference.CreateRoom(ctx, []domain.Identity{"bob", "carol"}, "standup")
	if err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
	if room.Initiator != "alice" || room.Title != "standup" || room.RoomID != "room_fixed" {
		t.Errorf("room = %+v", room)
	}

	record, err := f.ledger.Get(ctx, hash)
	if err != nil {
		t.Fatalf("Get(room) error = %v", err)
	}
	entry, err := domain.DecodeEntry(record.EntryType, record.Entry)
	if err != nil {
		t.Fatalf("DecodeEntry() error = %v", err)
	}
	stored := entry.(domain.Room)
	if stored.RoomID != room.RoomID || len(stored.Participants) != 2 {
		t.Errorf("stored room = %+v, want %+v", stored, room)
	}

	links, err := f.ledger.Links(ctx, hash, domain.LinkRoomParticipant)
	if err != nil {
		t.Fatalf("Links() error = %v", err)
	}
	if len(links) != 2 {
		t.Errorf("got %d participant links, want 2", len(links))
	}
}

func TestConferenceService_CreateRoomValidation(t *testing.T) {
	f := newConferenceFixture(t)
	ctx := context.Background()

	if _, _, err := f.conference.CreateRoom(ctx, nil, "standup"); !errors.Is(err, domain.ErrInvalidPayload) {
		t.Errorf("CreateRoom(no participants) error = %v, want ErrInvalidPayload", err)
	}
	if _, _, err := f.conference.CreateRoom(ctx, []domain.Identity{"bob"}, ""); !errors.Is(err, domain.ErrInvalidPayload) {
		t.Errorf("CreateRoom(empty title) error = %v, want ErrInvalidPayload", err)
	}
	if pushes := f.pusher.Pushes(); len(pushes) != 0 {
		t.Errorf("got %d pushes, want 0 for rejected rooms", len(pushes))
	}
}

// The invite reaches only invitees that are currently reachable.
func TestConferenceService_InviteTargetsActiveParticipantsOnly(t *testing.T) {
	f := newConferenceFixture(t)
	ctx := context.Background()

	f.presence.MarkActive(ctx, "alice", "bob")

	if _, _, err := f.conference.CreateRoom(ctx, []domain.Identity{"bob", "carol"}, "standup"); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}

	pushes := f.pusher.Pushes()
	if len(pushes) != 1 {
		t.Fatalf("got %d pushes, want 1", len(pushes))
	}
	if len(pushes[0].targets) != 1 || pushes[0].targets[0] != "bob" {
		t.Errorf("invite targets = %v, want [bob]", pushes[0].targets)
	}
	if kind := f.lastSignal(t).SignalKind(); kind != domain.SignalKindInvite {
		t.Errorf("signal kind = %v, want invite", kind)
	}
}

func TestConferenceService_JoinRoom(t *testing.T) {
	f := newConferenceFixture(t)
	ctx := context.Background()

	f.presence.MarkActive(ctx, "alice", "bob")
	_, hash, err := f.conference.CreateRoom(ctx, []domain.Identity{"bob"}, "standup")
	if err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}

	if err := f.conference.JoinRoom(ctx, hash); err != nil {
		t.Fatalf("JoinRoom() error = %v", err)
	}

	// Joining registers the caller in its own active set.
	peers, _ := f.presence.ActivePeers(ctx, "alice")
	found := false
	for _, peer := range peers {
		if peer == "alice" {
			found = true
		}
	}
	if !found {
		t.Errorf("ActivePeers() = %v, want alice present after join", peers)
	}

	sig := f.lastSignal(t)
	join, ok := sig.(domain.JoinSignal)
	if !ok {
		t.Fatalf("signal = %T, want JoinSignal", sig)
	}
	if join.RoomID != "room_fixed" || join.Agent != "alice" {
		t.Errorf("join = %+v", join)
	}
}

func TestConferenceService_JoinRoomMissing(t *testing.T) {
	f := newConferenceFixture(t)

	err := f.conference.JoinRoom(context.Background(), "no-such-room")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("JoinRoom() error = %v, want ErrNotFound", err)
	}
}

func TestConferenceService_SendSignalValidation(t *testing.T) {
	f := newConferenceFixture(t)
	ctx := context.Background()
	f.presence.MarkActive(ctx, "alice", "bob")

	tests := []struct {
		name        string
		payloadType domain.CallSignalType
		data        string
		want        error
	}{
		{"empty data", domain.SignalOffer, "", domain.ErrInvalidPayload},
		{"unknown payload type", "mystery", `{"type":"offer","sdp":"v=0"}`, domain.ErrInvalidPayload},
		{"malformed sdp", domain.SignalOffer, "not json", domain.ErrSerialization},
		{"type mismatch", domain.SignalAnswer, `{"type":"offer","sdp":"v=0"}`, domain.ErrSerialization},
		{"empty candidate", domain.SignalIceCandidate, `{"candidate":""}`, domain.ErrSerialization},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.conference.SendSignal(ctx, "room_fixed", "bob", tt.payloadType, tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("SendSignal() error = %v, want %v", err, tt.want)
			}
		})
	}

	// Validation failures abort before any relay.
	if pushes := f.pusher.Pushes(); len(pushes) != 0 {
		t.Errorf("got %d pushes, want 0 for rejected signals", len(pushes))
	}
}

func TestConferenceService_SendSignalDelivers(t *testing.T) {
	f := newConferenceFixture(t)
	ctx := context.Background()
	f.presence.MarkActive(ctx, "alice", "bob")

	err := f.conference.SendSignal(ctx, "room_fixed", "bob", domain.SignalOffer, `{"type":"offer","sdp":"v=0\r\n"}`)
	if err != nil {
		t.Fatalf("SendSignal() error = %v", err)
	}

	pushes := f.pusher.Pushes()
	if len(pushes) != 1 || len(pushes[0].targets) != 1 || pushes[0].targets[0] != "bob" {
		t.Fatalf("pushes = %+v, want one push to bob", pushes)
	}

	rtc, ok := f.lastSignal(t).(domain.RTCSignal)
	if !ok {
		t.Fatal("pushed signal is not an RTCSignal")
	}
	if rtc.Payload.From != "alice" || rtc.Payload.To != "bob" || rtc.Payload.PayloadType != domain.SignalOffer {
		t.Errorf("payload = %+v", rtc.Payload)
	}
}

// Sending to an unreachable target is silent loss, not an error.
func TestConferenceService_SendSignalToUnreachableTarget(t *testing.T) {
	f := newConferenceFixture(t)
	ctx := context.Background()

	err := f.conference.SendSignal(ctx, "room_fixed", "bob", domain.SignalOffer, `{"type":"offer","sdp":"v=0\r\n"}`)
	if err != nil {
		t.Fatalf("SendSignal() error = %v", err)
	}
	if pushes := f.pusher.Pushes(); len(pushes) != 0 {
		t.Errorf("got %d pushes, want 0", len(pushes))
	}
}

func TestConferenceService_LeaveRoomIdempotent(t *testing.T) {
	f := newConferenceFixture(t)
	ctx := context.Background()

	_, hash, err := f.conference.CreateRoom(ctx, []domain.Identity{"bob"}, "standup")
	if err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
	if err := f.conference.JoinRoom(ctx, hash); err != nil {
		t.Fatalf("JoinRoom() error = %v", err)
	}

	if err := f.conference.LeaveRoom(ctx, hash); err != nil {
		t.Fatalf("LeaveRoom() error = %v", err)
	}
	peers, _ := f.presence.ActivePeers(ctx, "alice")
	for _, peer := range peers {
		if peer == "alice" {
			t.Errorf("ActivePeers() = %v, alice still present after leave", peers)
		}
	}

	// Leaving again changes nothing and reports no error.
	if err := f.conference.LeaveRoom(ctx, hash); err != nil {
		t.Errorf("repeated LeaveRoom() error = %v", err)
	}
}

func TestConferenceService_LeaveRoomMissing(t *testing.T) {
	f := newConferenceFixture(t)

	err := f.conference.LeaveRoom(context.Background(), "no-such-room")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("LeaveRoom() error = %v, want ErrNotFound", err)
	}
}
