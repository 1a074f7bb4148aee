package memory

import (
	"context"
	"errors"
	"testing"

	"signalmesh/internal/core/domain"
)

func TestLedger_AppendGetRoundTrip(t *testing.T) {
	ledger := NewLedger(NewStore(), "alice")
	ctx := context.Background()

	hash, err := ledger.Append(ctx, domain.Message{Text: "hi"})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	record, err := ledger.Get(ctx, hash)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if record.Kind != domain.KindEntryCreate {
		t.Errorf("Kind = %v, want %v", record.Kind, domain.KindEntryCreate)
	}
	if record.EntryType != domain.EntryTypeMessage {
		t.Errorf("EntryType = %v, want %v", record.EntryType, domain.EntryTypeMessage)
	}
	if record.Author != "alice" {
		t.Errorf("Author = %v, want alice", record.Author)
	}

	entry, err := domain.DecodeEntry(record.EntryType, record.Entry)
	if err != nil {
		t.Fatalf("DecodeEntry() error = %v", err)
	}
	if msg := entry.(domain.Message); msg.Text != "hi" {
		t.Errorf("Text = %q, want %q", msg.Text, "hi")
	}
}

func TestLedger_GetMissing(t *testing.T) {
	ledger := NewLedger(NewStore(), "alice")

	_, err := ledger.Get(context.Background(), "no-such-hash")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestLedger_LinksLifecycle(t *testing.T) {
	store := NewStore()
	ledger := NewLedger(store, "alice")
	ctx := context.Background()

	base := domain.Identity("alice").Hash()
	target := domain.Identity("bob").Hash()

	linkHash, err := ledger.CreateLink(ctx, base, target, domain.LinkActivePeer)
	if err != nil {
		t.Fatalf("CreateLink() error = %v", err)
	}

	links, err := ledger.Links(ctx, base, domain.LinkActivePeer)
	if err != nil {
		t.Fatalf("Links() error = %v", err)
	}
	if len(links) != 1 || links[0].Target != target {
		t.Fatalf("Links() = %v, want single link to %s", links, target)
	}

	// Links of another type anchored at the same base stay separate.
	other, _ := ledger.Links(ctx, base, domain.LinkRoomParticipant)
	if len(other) != 0 {
		t.Errorf("Links(room_participant) = %v, want empty", other)
	}

	if _, err := ledger.DeleteLink(ctx, linkHash); err != nil {
		t.Fatalf("DeleteLink() error = %v", err)
	}
	links, _ = ledger.Links(ctx, base, domain.LinkActivePeer)
	if len(links) != 0 {
		t.Errorf("Links() after delete = %v, want empty", links)
	}
}

func TestLedger_DeleteLinkIdempotent(t *testing.T) {
	ledger := NewLedger(NewStore(), "alice")
	ctx := context.Background()

	base := domain.Identity("alice").Hash()
	linkHash, _ := ledger.CreateLink(ctx, base, base, domain.LinkActivePeer)

	if _, err := ledger.DeleteLink(ctx, linkHash); err != nil {
		t.Fatalf("first DeleteLink() error = %v", err)
	}
	if _, err := ledger.DeleteLink(ctx, linkHash); err != nil {
		t.Fatalf("second DeleteLink() error = %v", err)
	}
	if _, err := ledger.DeleteLink(ctx, "never-existed"); err != nil {
		t.Fatalf("DeleteLink(absent) error = %v", err)
	}
}

func TestLedger_CommitHookFiresOncePerCommit(t *testing.T) {
	ledger := NewLedger(NewStore(), "alice")
	ctx := context.Background()

	var committed []domain.Record
	ledger.SetCommitHook(func(record domain.Record) {
		committed = append(committed, record)
	})

	hash, _ := ledger.Append(ctx, domain.Message{Text: "one"})
	linkHash, _ := ledger.CreateLink(ctx, hash, hash, domain.LinkRoomParticipant)
	ledger.DeleteLink(ctx, linkHash)
	// No-op deletion must not fire the hook again.
	ledger.DeleteLink(ctx, linkHash)

	want := []domain.RecordKind{domain.KindEntryCreate, domain.KindLinkCreate, domain.KindLinkDelete}
	if len(committed) != len(want) {
		t.Fatalf("hook fired %d times, want %d", len(committed), len(want))
	}
	for i, kind := range want {
		if committed[i].Kind != kind {
			t.Errorf("commit %d kind = %v, want %v", i, committed[i].Kind, kind)
		}
	}
}

func TestLedger_DetailsTrackUpdatesAndDeletes(t *testing.T) {
	ledger := NewLedger(NewStore(), "alice")
	ctx := context.Background()

	original, _ := ledger.Append(ctx, domain.Message{Text: "v1"})
	updateHash, err := ledger.UpdateEntry(ctx, original, domain.Message{Text: "v2"})
	if err != nil {
		t.Fatalf("UpdateEntry() error = %v", err)
	}
	if _, err := ledger.DeleteEntry(ctx, original); err != nil {
		t.Fatalf("DeleteEntry() error = %v", err)
	}

	details, err := ledger.GetDetails(ctx, original)
	if err != nil {
		t.Fatalf("GetDetails() error = %v", err)
	}
	if !details.Deleted {
		t.Error("Deleted = false, want true")
	}
	if len(details.UpdatedBy) != 1 || details.UpdatedBy[0] != updateHash {
		t.Errorf("UpdatedBy = %v, want [%s]", details.UpdatedBy, updateHash)
	}

	update, err := ledger.Get(ctx, updateHash)
	if err != nil {
		t.Fatalf("Get(update) error = %v", err)
	}
	if update.OriginalHash != original {
		t.Errorf("OriginalHash = %v, want %v", update.OriginalHash, original)
	}
}

func TestStore_SharedAcrossAgents(t *testing.T) {
	store := NewStore()
	alice := NewLedger(store, "alice")
	bob := NewLedger(store, "bob")
	ctx := context.Background()

	hash, _ := alice.Append(ctx, domain.Message{Text: "hello bob"})

	record, err := bob.Get(ctx, hash)
	if err != nil {
		t.Fatalf("Get() from second agent error = %v", err)
	}
	if record.Author != "alice" {
		t.Errorf("Author = %v, want alice", record.Author)
	}
}
