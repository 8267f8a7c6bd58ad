package uistate

import (
	"context"
	"slices"
	"sync"
)

// persistedSet is a set of strings persisted as a JSON array.
type persistedSet struct {
	mu    sync.RWMutex
	items map[string]struct{}
	store store
}

func loadPersistedSet(ctx context.Context, s store) *persistedSet {
	p := &persistedSet{items: map[string]struct{}{}, store: s}
	for _, it := range s.loadList(ctx) {
		p.items[it] = struct{}{}
	}
	return p
}

func (p *persistedSet) contains(item string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.items[item]
	return ok
}

func (p *persistedSet) toggle(ctx context.Context, item string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, ok := p.items[item]
	if ok {
		delete(p.items, item)
	} else {
		p.items[item] = struct{}{}
	}
	p.store.saveList(ctx, p.sortedLocked())

	return !ok
}

func (p *persistedSet) reset(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = map[string]struct{}{}
	p.store.clear(ctx)
}

func (p *persistedSet) list() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sortedLocked()
}

func (p *persistedSet) sortedLocked() []string {
	out := make([]string, 0, len(p.items))
	for it := range p.items {
		out = append(out, it)
	}
	slices.Sort(out)
	return out
}

// Collapse is the set of collapsed stage tree node ids, nodes are expanded by default.
type Collapse struct{ set *persistedSet }

func loadCollapse(ctx context.Context, s store) *Collapse {
	return &Collapse{set: loadPersistedSet(ctx, s)}
}

// IsCollapsed returns true if the node id is collapsed.
func (c *Collapse) IsCollapsed(id string) bool { return c.set.contains(id) }

// Toggle flips the collapsed state of a node id and returns the new state.
func (c *Collapse) Toggle(ctx context.Context, id string) (collapsed bool) {
	return c.set.toggle(ctx, id)
}

// IDs returns the collapsed node ids sorted.
func (c *Collapse) IDs() []string { return c.set.list() }

// Hidden is the set of node names whose chart series are hidden.
type Hidden struct{ set *persistedSet }

func loadHidden(ctx context.Context, s store) *Hidden {
	return &Hidden{set: loadPersistedSet(ctx, s)}
}

// IsHidden returns true if the node series is hidden.
func (h *Hidden) IsHidden(name string) bool { return h.set.contains(name) }

// Toggle flips the visibility of a node series and returns true if it's hidden now.
func (h *Hidden) Toggle(ctx context.Context, name string) (hidden bool) {
	return h.set.toggle(ctx, name)
}

// Names returns the hidden node names sorted.
func (h *Hidden) Names() []string { return h.set.list() }
