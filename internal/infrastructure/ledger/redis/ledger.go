package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"signalmesh/internal/core/domain"
	"signalmesh/internal/core/ports"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Ledger is a redis-backed adapter for the content-addressed substrate,
// scoped to one authoring agent. Records are immutable JSON blobs keyed by
// address; live links are per-(base, type) lists preserving creation order.
// The commit hook contract matches the memory adapter: invoked once,
// synchronously, for every record this agent commits.
type Ledger struct {
	client *redis.Client
	author domain.Identity
	prefix string
	hook   ports.CommitHook
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewLedger(client *redis.Client, author domain.Identity, logger *zap.SugaredLogger) *Ledger {
	return &Ledger{
		client: client,
		author: author,
		prefix: "signalmesh:",
		logger: logger,
		now:    time.Now,
	}
}

func (l *Ledger) SetCommitHook(hook ports.CommitHook) {
	l.hook = hook
}

func (l *Ledger) Append(ctx context.Context, entry domain.Entry) (domain.Hash, error) {
	record, err := l.entryRecord(domain.KindEntryCreate, entry)
	if err != nil {
		return "", err
	}
	return l.commit(ctx, record)
}

func (l *Ledger) UpdateEntry(ctx context.Context, original domain.Hash, entry domain.Entry) (domain.Hash, error) {
	record, err := l.entryRecord(domain.KindEntryUpdate, entry)
	if err != nil {
		return "", err
	}
	record.OriginalHash = original
	return l.commit(ctx, record)
}

func (l *Ledger) DeleteEntry(ctx context.Context, original domain.Hash) (domain.Hash, error) {
	record := &domain.Record{
		Author:       l.author,
		Timestamp:    l.now(),
		Kind:         domain.KindEntryDelete,
		OriginalHash: original,
	}
	return l.commit(ctx, record)
}

func (l *Ledger) Get(ctx context.Context, h domain.Hash) (*domain.Record, error) {
	data, err := l.client.Get(ctx, l.recordKey(h)).Result()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	var record domain.Record
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &record, nil
}

func (l *Ledger) GetDetails(ctx context.Context, h domain.Hash) (*domain.RecordDetails, error) {
	record, err := l.Get(ctx, h)
	if err != nil {
		return nil, err
	}

	updatedBy, err := l.client.LRange(ctx, l.metaKey(h, "updated_by"), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get update provenance: %w", err)
	}
	deletedBy, err := l.client.LRange(ctx, l.metaKey(h, "deleted_by"), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get delete provenance: %w", err)
	}

	details := &domain.RecordDetails{
		Record:  *record,
		Deleted: len(deletedBy) > 0,
	}
	for _, hash := range updatedBy {
		details.UpdatedBy = append(details.UpdatedBy, domain.Hash(hash))
	}
	for _, hash := range deletedBy {
		details.DeletedBy = append(details.DeletedBy, domain.Hash(hash))
	}
	return details, nil
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
	return l.commit(ctx, record)
}

// DeleteLink tombstones a live link. Absent or already-deleted links are a
// no-op: nothing is committed.
func (l *Ledger) DeleteLink(ctx context.Context, linkHash domain.Hash) (domain.Hash, error) {
	origin, err := l.Get(ctx, linkHash)
	if err == domain.ErrNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if origin.Kind != domain.KindLinkCreate {
		return "", nil
	}

	removed, err := l.client.LRem(ctx, l.linkKey(origin.Base, origin.LinkType), 1, string(linkHash)).Result()
	if err != nil {
		return "", fmt.Errorf("failed to remove link from index: %w", err)
	}
	if removed == 0 {
		return "", nil
	}

	record := &domain.Record{
		Author:     l.author,
		Timestamp:  l.now(),
		Kind:       domain.KindLinkDelete,
		LinkType:   origin.LinkType,
		OriginLink: linkHash,
	}
	return l.commit(ctx, record)
}

func (l *Ledger) Links(ctx context.Context, base domain.Hash, t domain.LinkType) ([]domain.Link, error) {
	hashes, err := l.client.LRange(ctx, l.linkKey(base, t), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}

	var links []domain.Link
	for _, hash := range hashes {
		record, err := l.Get(ctx, domain.Hash(hash))
		if err != nil {
			// Index entries whose record has not propagated yet are skipped.
			continue
		}
		links = append(links, domain.Link{
			Hash:      record.Hash,
			Base:      record.Base,
			Target:    record.Target,
			Type:      record.LinkType,
			Author:    record.Author,
			CreatedAt: record.Timestamp,
		})
	}
	return links, nil
}

func (l *Ledger) commit(ctx context.Context, record *domain.Record) (domain.Hash, error) {
	seq, err := l.client.Incr(ctx, l.prefix+"seq").Result()
	if err != nil {
		return "", fmt.Errorf("failed to advance chain sequence: %w", err)
	}
	record.Hash = addressOf(record, uint64(seq))

	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to marshal record: %w", err)
	}

	pipe := l.client.TxPipeline()
	pipe.Set(ctx, l.recordKey(record.Hash), data, 0)
	switch record.Kind {
	case domain.KindLinkCreate:
		pipe.RPush(ctx, l.linkKey(record.Base, record.LinkType), string(record.Hash))
	case domain.KindEntryUpdate:
		pipe.RPush(ctx, l.metaKey(record.OriginalHash, "updated_by"), string(record.Hash))
	case domain.KindEntryDelete:
		pipe.RPush(ctx, l.metaKey(record.OriginalHash, "deleted_by"), string(record.Hash))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to commit record: %w", err)
	}

	if l.hook != nil {
		l.hook(*record)
	}

	l.logger.Debugw("record committed",
		"kind", record.Kind,
		"hash", record.Hash,
	)
	return record.Hash, nil
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

func (l *Ledger) recordKey(h domain.Hash) string {
	return l.prefix + "record:" + string(h)
}

func (l *Ledger) linkKey(base domain.Hash, t domain.LinkType) string {
	return fmt.Sprintf("%slinks:%s:%s", l.prefix, base, t)
}

func (l *Ledger) metaKey(h domain.Hash, kind string) string {
	return fmt.Sprintf("%smeta:%s:%s", l.prefix, h, kind)
}

func addressOf(record *domain.Record, seq uint64) domain.Hash {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%s|%s|%d|", seq, record.Author, record.Kind, record.Timestamp.UnixNano())
	h.Write(record.Entry)
	fmt.Fprintf(h, "|%s|%s|%s|%s|%s",
		record.EntryType, record.Base, record.Target, record.OriginalHash, record.OriginLink)
	return domain.Hash(hex.EncodeToString(h.Sum(nil)))
}
