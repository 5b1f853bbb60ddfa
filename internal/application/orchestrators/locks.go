package orchestrators

import "sync"

// TenantLocks serializes mutating operations per tenant. The lifecycle
// sweep, payment application, and manual overrides all take the tenant's
// lock, so two concurrent operations on the same tenant cannot interleave
// reads and writes of its subscription.
//
// Locks are created on first use and never removed; the registry grows with
// the tenant count, which is small.
type TenantLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewTenantLocks creates an empty lock registry.
func NewTenantLocks() *TenantLocks {
	return &TenantLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the lock for one tenant, creating it if needed.
// PRE: tenantID is non-empty
// POST: Caller holds the tenant's lock until Unlock
func (t *TenantLocks) Lock(tenantID string) {
	t.get(tenantID).Lock()
}

// Unlock releases the lock for one tenant.
// PRE: Caller holds the tenant's lock
func (t *TenantLocks) Unlock(tenantID string) {
	t.get(tenantID).Unlock()
}

func (t *TenantLocks) get(tenantID string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.locks[tenantID]
	if !ok {
		m = &sync.Mutex{}
		t.locks[tenantID] = m
	}
	return m
}
