package services

import (
	"context"
	"testing"

	"signalmesh/internal/core/domain"
	"signalmesh/internal/core/ports"
	"signalmesh/internal/infrastructure/ledger/memory"
	"signalmesh/internal/infrastructure/transport"
)

// testNode is one agent wired the way the composition root wires a process:
// shared substrate, loopback transport, capability-gated receiver.
type testNode struct {
	self       domain.Identity
	presence   ports.PresenceService
	conference ports.ConferenceService
	sink       *captureSink
}

func newTestNode(t *testing.T, self domain.Identity, store *memory.Store, bus *transport.LoopbackBus) *testNode {
	t.Helper()

	ledger := memory.NewLedger(store, self)
	sink := &captureSink{}

	caps := NewCapabilityTable()
	caps.Bootstrap()
	receiver := NewSignalReceiver(caps, sink, nil, testLogger)
	bus.Register(self, func(ctx context.Context, from domain.Identity, payload []byte) {
		if err := receiver.Receive(ctx, from, payload); err != nil {
			t.Errorf("node %s rejected inbound signal: %v", self, err)
		}
	})

	presence := NewPresenceService(ledger, nil, testLogger)
	relay := NewRelayService(self, presence, bus.Pusher(self), nil, testLogger)
	conference := NewConferenceService(self, ledger, presence, relay, testLogger)

	return &testNode{
		self:       self,
		presence:   presence,
		conference: conference,
		sink:       sink,
	}
}

func TestTwoAgents_ConferenceLifecycle(t *testing.T) {
	store := memory.NewStore()
	bus := transport.NewLoopbackBus()
	ctx := context.Background()

	alice := newTestNode(t, "alice", store, bus)
	bob := newTestNode(t, "bob", store, bus)

	// Both agents consider each other reachable.
	alice.presence.MarkActive(ctx, "alice", "bob")
	bob.presence.MarkActive(ctx, "bob", "alice")

	// Alice opens a room; bob receives the invite through the relay.
	room, hash, err := alice.conference.CreateRoom(ctx, []domain.Identity{"alice", "bob"}, "sync call")
	if err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}

	bobEvents := bob.sink.Events()
	if len(bobEvents) != 1 {
		t.Fatalf("bob got %d events, want 1 invite", len(bobEvents))
	}
	invite, ok := bobEvents[0].(domain.ConferenceInviteEvent)
	if !ok {
		t.Fatalf("bob event = %T, want ConferenceInviteEvent", bobEvents[0])
	}
	if invite.Room.RoomID != room.RoomID || invite.Agent != "alice" {
		t.Errorf("invite = %+v", invite)
	}

	// Bob joins via the shared substrate; alice hears about it.
	if err := bob.conference.JoinRoom(ctx, hash); err != nil {
		t.Fatalf("JoinRoom() error = %v", err)
	}

	aliceEvents := alice.sink.Events()
	if len(aliceEvents) == 0 {
		t.Fatal("alice got no events, want join")
	}
	joined, ok := aliceEvents[len(aliceEvents)-1].(domain.ConferenceJoinedEvent)
	if !ok {
		t.Fatalf("alice event = %T, want ConferenceJoinedEvent", aliceEvents[len(aliceEvents)-1])
	}
	if joined.RoomID != room.RoomID || joined.Agent != "bob" {
		t.Errorf("join = %+v", joined)
	}

	// Alice sends bob an offer; only bob sees it.
	err = alice.conference.SendSignal(ctx, room.RoomID, "bob", domain.SignalOffer, `{"type":"offer","sdp":"v=0\r\n"}`)
	if err != nil {
		t.Fatalf("SendSignal() error = %v", err)
	}

	bobEvents = bob.sink.Events()
	rtc, ok := bobEvents[len(bobEvents)-1].(domain.WebRTCSignalEvent)
	if !ok {
		t.Fatalf("bob event = %T, want WebRTCSignalEvent", bobEvents[len(bobEvents)-1])
	}
	if rtc.Payload.From != "alice" || rtc.Payload.To != "bob" || rtc.Payload.RoomID != room.RoomID {
		t.Errorf("rtc payload = %+v", rtc.Payload)
	}

	// Bob leaves; alice hears the leave and bob withdraws his own presence.
	if err := bob.conference.LeaveRoom(ctx, hash); err != nil {
		t.Fatalf("LeaveRoom() error = %v", err)
	}

	aliceEvents = alice.sink.Events()
	left, ok := aliceEvents[len(aliceEvents)-1].(domain.ConferenceLeftEvent)
	if !ok {
		t.Fatalf("alice event = %T, want ConferenceLeftEvent", aliceEvents[len(aliceEvents)-1])
	}
	if left.Agent != "bob" {
		t.Errorf("leave = %+v", left)
	}

	peers, _ := bob.presence.ActivePeers(ctx, "bob")
	for _, peer := range peers {
		if peer == "bob" {
			t.Errorf("bob still in own active set after leave: %v", peers)
		}
	}
}

// A peer that never joined is invisible to the relay even when invited.
func TestTwoAgents_UnreachableInviteeSeesNothing(t *testing.T) {
	store := memory.NewStore()
	bus := transport.NewLoopbackBus()
	ctx := context.Background()

	alice := newTestNode(t, "alice", store, bus)
	carol := newTestNode(t, "carol", store, bus)

	// Alice never marked carol active.
	if _, _, err := alice.conference.CreateRoom(ctx, []domain.Identity{"carol"}, "quiet room"); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}

	if events := carol.sink.Events(); len(events) != 0 {
		t.Errorf("carol got %d events, want 0", len(events))
	}
}
