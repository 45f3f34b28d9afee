package attendance

import (
	"context"
	"sync"
)

// DedupStore claims keys atomically: the first Claim of a key returns true,
// every later one false. It must live as long as the ledger it guards.
type DedupStore interface {
	Claim(ctx context.Context, key string) (bool, error)
}

// MemoryDedup is an in-process DedupStore.
type MemoryDedup struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemoryDedup creates an empty store.
func NewMemoryDedup() *MemoryDedup {
	return &MemoryDedup{seen: make(map[string]struct{})}
}

func (d *MemoryDedup) Claim(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[key]; ok {
		return false, nil
	}
	d.seen[key] = struct{}{}
	return true, nil
}
