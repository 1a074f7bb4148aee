package services

import (
	"context"
	"errors"
	"testing"

	"signalmesh/internal/core/domain"
	"signalmesh/internal/infrastructure/ledger/memory"
)

// newClassifiedLedger wires the classifier as the ledger's commit hook, the
// way the composition root does it.
func newClassifiedLedger(t *testing.T) (*memory.Ledger, *captureSink) {
	t.Helper()

	ledger := memory.NewLedger(memory.NewStore(), "alice")
	sink := &captureSink{}
	classifier := NewClassifierService(ledger, sink, nil, testLogger)
	ledger.SetCommitHook(func(record domain.Record) {
		classifier.HandleCommit(context.Background(), record)
	})
	return ledger, sink
}

func TestClassifier_EntryCreate(t *testing.T) {
	ledger, sink := newClassifiedLedger(t)

	if _, err := ledger.Append(context.Background(), domain.Message{Text: "hi"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	created, ok := events[0].(domain.EntryCreatedEvent)
	if !ok {
		t.Fatalf("event = %T, want EntryCreatedEvent", events[0])
	}
	if msg := created.Entry.(domain.Message); msg.Text != "hi" {
		t.Errorf("Text = %q, want %q", msg.Text, "hi")
	}
}

func TestClassifier_EntryUpdateCarriesBothVersions(t *testing.T) {
	ledger, sink := newClassifiedLedger(t)
	ctx := context.Background()

	original, _ := ledger.Append(ctx, domain.Message{Text: "v1"})
	if _, err := ledger.UpdateEntry(ctx, original, domain.Message{Text: "v2"}); err != nil {
		t.Fatalf("UpdateEntry() error = %v", err)
	}

	events := sink.Events()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	updated, ok := events[1].(domain.EntryUpdatedEvent)
	if !ok {
		t.Fatalf("event = %T, want EntryUpdatedEvent", events[1])
	}
	if updated.Entry.(domain.Message).Text != "v2" || updated.OriginalEntry.(domain.Message).Text != "v1" {
		t.Errorf("update event = %+v", updated)
	}
}

func TestClassifier_LinkLifecycle(t *testing.T) {
	ledger, sink := newClassifiedLedger(t)
	ctx := context.Background()

	base := domain.Identity("alice").Hash()
	linkHash, _ := ledger.CreateLink(ctx, base, base, domain.LinkActivePeer)
	ledger.DeleteLink(ctx, linkHash)

	events := sink.Events()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if created, ok := events[0].(domain.LinkCreatedEvent); !ok || created.LinkType != domain.LinkActivePeer {
		t.Errorf("event 0 = %+v, want active link created", events[0])
	}
	deleted, ok := events[1].(domain.LinkDeletedEvent)
	if !ok {
		t.Fatalf("event 1 = %T, want LinkDeletedEvent", events[1])
	}
	if deleted.Origin.Hash != linkHash || deleted.LinkType != domain.LinkActivePeer {
		t.Errorf("delete event = %+v", deleted)
	}
}

// A record that cannot be resolved is silently dropped for every kind except
// link deletion, whose origin is causally guaranteed and therefore must
// exist.
func TestClassifier_PolicyAsymmetry(t *testing.T) {
	ledger := memory.NewLedger(memory.NewStore(), "alice")
	sink := &captureSink{}
	classifier := NewClassifierService(ledger, sink, nil, testLogger)
	ctx := context.Background()

	drop := domain.Record{
		Kind:         domain.KindEntryUpdate,
		Hash:         "unresolvable",
		OriginalHash: "also-unresolvable",
	}
	if err := classifier.HandleCommit(ctx, drop); err != nil {
		t.Errorf("HandleCommit(unresolvable update) error = %v, want nil", err)
	}

	fail := domain.Record{
		Kind:       domain.KindLinkDelete,
		Hash:       "tombstone",
		OriginLink: "never-created",
	}
	err := classifier.HandleCommit(ctx, fail)
	if !errors.Is(err, domain.ErrMustExist) {
		t.Errorf("HandleCommit(orphan link delete) error = %v, want ErrMustExist", err)
	}

	if events := sink.Events(); len(events) != 0 {
		t.Errorf("got %d events, want 0", len(events))
	}
}

func TestClassifier_LinkDeleteOriginMustBeLinkCreate(t *testing.T) {
	ledger := memory.NewLedger(memory.NewStore(), "alice")
	sink := &captureSink{}
	classifier := NewClassifierService(ledger, sink, nil, testLogger)
	ctx := context.Background()

	entryHash, _ := ledger.Append(ctx, domain.Message{Text: "not a link"})

	err := classifier.HandleCommit(ctx, domain.Record{
		Kind:       domain.KindLinkDelete,
		OriginLink: entryHash,
	})
	if !errors.Is(err, domain.ErrMustExist) {
		t.Errorf("HandleCommit() error = %v, want ErrMustExist", err)
	}
}

// Foreign link types yield no event and no error.
func TestClassifier_UnknownLinkTypeIgnored(t *testing.T) {
	ledger := memory.NewLedger(memory.NewStore(), "alice")
	sink := &captureSink{}
	classifier := NewClassifierService(ledger, sink, nil, testLogger)

	err := classifier.HandleCommit(context.Background(), domain.Record{
		Kind:     domain.KindLinkCreate,
		LinkType: "somebody_elses_link",
	})
	if err != nil {
		t.Errorf("HandleCommit() error = %v, want nil", err)
	}
	if events := sink.Events(); len(events) != 0 {
		t.Errorf("got %d events, want 0", len(events))
	}
}
