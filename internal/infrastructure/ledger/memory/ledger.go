package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"signalmesh/internal/core/domain"
	"signalmesh/internal/core/ports"
)

type linkKey struct {
	base domain.Hash
	typ  domain.LinkType
}

// Store is the shared record space backing one or more agent-scoped
// ledgers. It stands in for the distributed substrate in tests and
// single-process runs: all agents attached to the same store see each
// other's records immediately.
type Store struct {
	mu        sync.RWMutex
	records   map[domain.Hash]*domain.Record
	links     map[linkKey][]domain.Link
	updatedBy map[domain.Hash][]domain.Hash
	deletedBy map[domain.Hash][]domain.Hash
	seq       uint64
}

func NewStore() *Store {
	return &Store{
		records:   make(map[domain.Hash]*domain.Record),
		links:     make(map[linkKey][]domain.Link),
		updatedBy: make(map[domain.Hash][]domain.Hash),
		deletedBy: make(map[domain.Hash][]domain.Hash),
	}
}

// Ledger is one agent's authoring view over a shared store.
type Ledger struct {
	store  *Store
	author domain.Identity
	hook   ports.CommitHook
	now    func() time.Time
}

func NewLedger(store *Store, author domain.Identity) *Ledger {
	return &Ledger{
		store:  store,
		author: author,
		now:    time.Now,
	}
}

func (l *Ledger) SetCommitHook(hook ports.CommitHook) {
	l.hook = hook
}

// commit assigns a content address, stores the record and runs the commit
// hook synchronously before returning, outside the store lock.
func (l *Ledger) commit(record *domain.Record) domain.Hash {
	l.store.mu.Lock()
	l.store.seq++
	record.Hash = addressOf(record, l.store.seq)
	l.store.records[record.Hash] = record

	switch record.Kind {
	case domain.KindLinkCreate:
		key := linkKey{base: record.Base, typ: record.LinkType}
		l.store.links[key] = append(l.store.links[key], domain.Link{
			Hash:      record.Hash,
			Base:      record.Base,
			Target:    record.Target,
			Type:      record.LinkType,
			Author:    record.Author,
			CreatedAt: record.Timestamp,
		})
	case domain.KindEntryUpdate:
		l.store.updatedBy[record.OriginalHash] = append(l.store.updatedBy[record.OriginalHash], record.Hash)
	case domain.KindEntryDelete:
		l.store.deletedBy[record.OriginalHash] = append(l.store.deletedBy[record.OriginalHash], record.Hash)
	}
	l.store.mu.Unlock()

	if l.hook != nil {
		l.hook(*record)
	}
	return record.Hash
}

func (l *Ledger) Append(ctx context.Context, entry domain.Entry) (domain.Hash, error) {
	record, err := l.entryRecord(domain.KindEntryCreate, entry)
	if err != nil {
		return "", err
	}
	return l.commit(record), nil
}

func (l *Ledger) UpdateEntry(ctx context.Context, original domain.Hash, entry domain.Entry) (domain.Hash, error) {
	record, err := l.entryRecord(domain.KindEntryUpdate, entry)
	if err != nil {
		return "", err
	}
	record.OriginalHash = original
	return l.commit(record), nil
}

func (l *Ledger) DeleteEntry(ctx context.Context, original domain.Hash) (domain.Hash, error) {
	record := &domain.Record{
		Author:       l.author,
		Timestamp:    l.now(),
		Kind:         domain.KindEntryDelete,
		OriginalHash: original,
	}
	return l.commit(record), nil
}

func (l *Ledger) Get(ctx context.Context, h domain.Hash) (*domain.Record, error) {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()

	record, exists := l.store.records[h]
	if !exists {
		return nil, domain.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (l *Ledger) GetDetails(ctx context.Context, h domain.Hash) (*domain.RecordDetails, error) {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()

	record, exists := l.store.records[h]
	if !exists {
		return nil, domain.ErrNotFound
	}
	return &domain.RecordDetails{
		Record:    *record,
		Deleted:   len(l.store.deletedBy[h]) > 0,
		UpdatedBy: append([]domain.Hash(nil), l.store.updatedBy[h]...),
		DeletedBy: append([]domain.Hash(nil), l.store.deletedBy[h]...),
	}, nil
}

func (l *Ledger) CreateLink(ctx context.Context, base, target domain.Hash, t domain.LinkType) (domain.Hash, error) {
	record := &domain.Record{
		Author:    l.author,
		Timestamp: l.now(),
		Kind:      domain.KindLinkCreate,
		LinkType:  t,
		Base:      base,
		Target:    target,
	}
	return l.commit(record), nil
}

// DeleteLink tombstones a live link. Deleting an absent or already-deleted
// link is a no-op: nothing is committed and no error is returned.
func (l *Ledger) DeleteLink(ctx context.Context, linkHash domain.Hash) (domain.Hash, error) {
	l.store.mu.Lock()
	origin, exists := l.store.records[linkHash]
	if !exists || origin.Kind != domain.KindLinkCreate {
		l.store.mu.Unlock()
		return "", nil
	}

	key := linkKey{base: origin.Base, typ: origin.LinkType}
	live := l.store.links[key]
	removed := false
	for i, link := range live {
		if link.Hash == linkHash {
			l.store.links[key] = append(live[:i:i], live[i+1:]...)
			removed = true
			break
		}
	}
	l.store.mu.Unlock()

	if !removed {
		return "", nil
	}

	record := &domain.Record{
		Author:     l.author,
		Timestamp:  l.now(),
		Kind:       domain.KindLinkDelete,
		LinkType:   origin.LinkType,
		OriginLink: linkHash,
	}
	return l.commit(record), nil
}

func (l *Ledger) Links(ctx context.Context, base domain.Hash, t domain.LinkType) ([]domain.Link, error) {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()

	live := l.store.links[linkKey{base: base, typ: t}]
	return append([]domain.Link(nil), live...), nil
}

func (l *Ledger) entryRecord(kind domain.RecordKind, entry domain.Entry) (*domain.Record, error) {
	raw, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entry: %w", err)
	}
	return &domain.Record{
		Author:    l.author,
		Timestamp: l.now(),
		Kind:      kind,
		EntryType: entry.EntryType(),
		Entry:     raw,
	}, nil
}

// addressOf derives a content address. The sequence number keeps otherwise
// identical commits distinct, mirroring the per-chain ordering of the real
// substrate.
func addressOf(record *domain.Record, seq uint64) domain.Hash {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%s|%s|%d|", seq, record.Author, record.Kind, record.Timestamp.UnixNano())
	h.Write(record.Entry)
	fmt.Fprintf(h, "|%s|%s|%s|%s|%s",
		record.EntryType, record.Base, record.Target, record.OriginalHash, record.OriginLink)
	return domain.Hash(hex.EncodeToString(h.Sum(nil)))
}
