package services

import (
	"sync"
	"time"

	"signalmesh/internal/core/domain"
)

// FunctionReceiveSignal names the relay-receive entry point in the
// capability table.
const FunctionReceiveSignal = "receive_signal"

// CapabilityAccess is the access level of a grant.
type CapabilityAccess string

const (
	// AccessUnrestricted lets any peer invoke the function.
	AccessUnrestricted CapabilityAccess = "unrestricted"
)

// CapabilityGrant is one entry in the capability table.
type CapabilityGrant struct {
	Function  string
	Access    CapabilityAccess
	GrantedAt time.Time
}

// CapabilityTable is the inspectable access-control table gating inbound
// remote invocations. Its lifecycle is the process lifetime: the bootstrap
// grant for the relay-receive entry point is registered once at startup and
// never revoked.
type CapabilityTable struct {
	mu     sync.RWMutex
	grants map[string]CapabilityGrant
}

func NewCapabilityTable() *CapabilityTable {
	return &CapabilityTable{
		grants: make(map[string]CapabilityGrant),
	}
}

// Bootstrap registers the process-wide grants. Called once at startup.
func (t *CapabilityTable) Bootstrap() {
	t.GrantUnrestricted(FunctionReceiveSignal)
}

// GrantUnrestricted permits any peer to invoke the named function.
func (t *CapabilityTable) GrantUnrestricted(function string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.grants[function] = CapabilityGrant{
		Function:  function,
		Access:    AccessUnrestricted,
		GrantedAt: time.Now(),
	}
}

// Allows reports whether caller may invoke the named function.
func (t *CapabilityTable) Allows(caller domain.Identity, function string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	grant, ok := t.grants[function]
	if !ok {
		return false
	}
	return grant.Access == AccessUnrestricted
}

// Grants returns a snapshot of the table for inspection.
func (t *CapabilityTable) Grants() []CapabilityGrant {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]CapabilityGrant, 0, len(t.grants))
	for _, grant := range t.grants {
		out = append(out, grant)
	}
	return out
}
