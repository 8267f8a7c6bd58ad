package uistate

import (
	"context"
	"slices"
	"sync"
)

// Order is the last user chosen status card order.
type Order struct {
	mu    sync.RWMutex
	names []string
	store store
}

func loadOrder(ctx context.Context, s store) *Order {
	return &Order{names: dedupe(s.loadList(ctx)), store: s}
}

// Names returns the ordered node names.
func (o *Order) Names() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return slices.Clone(o.names)
}

// Set replaces the order with the new visual order and persists it.
func (o *Order) Set(ctx context.Context, names []string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.names = dedupe(names)
	o.store.saveList(ctx, o.names)
}

func (o *Order) reset(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.names = []string{}
	o.store.clear(ctx)
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
