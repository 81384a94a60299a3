// Package dedupe tracks the distinct raw names a linkage pass must resolve.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records names so each is resolved at most once per pass.
type Deduper interface {
	// SeenAndRecord atomically checks if name was seen and records it if not.
	// Returns true if name was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, name string) bool
	// Names returns recorded names in first-recorded order.
	Names() []string
}

// nameSet implements Deduper with a map for membership and a slice for order.
type nameSet struct {
	mu    sync.RWMutex
	index map[string]struct{}
	order []string
}

// NewInMemoryDeduper creates an ordered in-memory name set.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &nameSet{}
	for _, opt := range opts {
		opt(d)
	}
	if d.index == nil {
		d.index = make(map[string]struct{})
	}
	return d
}

// SeenAndRecord atomically checks if name was seen and records it if not.
func (d *nameSet) SeenAndRecord(_ context.Context, name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.index[name]; exists {
		return true
	}
	d.index[name] = struct{}{}
	d.order = append(d.order, name)
	return false
}

// Names returns recorded names in first-recorded order.
func (d *nameSet) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}
