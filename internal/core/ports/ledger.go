package ports

import (
	"context"

	"signalmesh/internal/core/domain"
)

// CommitHook is invoked exactly once, synchronously, as part of commit
// finalization for every record the local agent commits. It is never
// replayed and never batched.
type CommitHook func(record domain.Record)

// Ledger is the agent-scoped view of the content-addressed substrate. Each
// adapter instance authors records as one identity; reads see the whole
// shared record space. The substrate owns write consistency: each agent's
// chain is strictly ordered by that agent and no cross-agent locking exists.
type Ledger interface {
	// Append commits a new entry record and returns its address.
	Append(ctx context.Context, entry domain.Entry) (domain.Hash, error)

	// UpdateEntry commits an update record carrying a back-reference to the
	// record being updated.
	UpdateEntry(ctx context.Context, original domain.Hash, entry domain.Entry) (domain.Hash, error)

	// DeleteEntry commits a deletion record for an earlier entry record.
	DeleteEntry(ctx context.Context, original domain.Hash) (domain.Hash, error)

	// Get reads a record by address. Absent records yield domain.ErrNotFound.
	Get(ctx context.Context, h domain.Hash) (*domain.Record, error)

	// GetDetails reads a record together with its provenance metadata.
	// Absent records yield domain.ErrNotFound.
	GetDetails(ctx context.Context, h domain.Hash) (*domain.RecordDetails, error)

	// CreateLink commits a typed directed edge between two addresses.
	CreateLink(ctx context.Context, base, target domain.Hash, t domain.LinkType) (domain.Hash, error)

	// DeleteLink tombstones an earlier link-creation record. Deleting an
	// already-deleted or unknown link is a no-op.
	DeleteLink(ctx context.Context, linkHash domain.Hash) (domain.Hash, error)

	// Links lists the live links of one type anchored at base, in creation
	// order.
	Links(ctx context.Context, base domain.Hash, t domain.LinkType) ([]domain.Link, error)

	// SetCommitHook registers the classifier callback for this agent's
	// commits. At most one hook is supported; it runs before the committing
	// call returns.
	SetCommitHook(hook CommitHook)
}
