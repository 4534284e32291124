package breakpoint

import (
	"sync"
)

// Registry is an immutable, priority-sorted catalogue of breakpoints.
// Lookups by name and by condition are memoized for the registry's lifetime,
// including misses. The registry is safe for concurrent use.
type Registry struct {
	items []Breakpoint

	mu          sync.Mutex
	byName      map[string]*Breakpoint
	byCondition map[string]*Breakpoint
}

// NewRegistry copies list and stores it sorted by ascending priority.
// Ties keep their input order.
func NewRegistry(list []Breakpoint) *Registry {
	items := make([]Breakpoint, len(list))
	copy(items, list)
	SortAscending(items)

	return &Registry{
		items:       items,
		byName:      make(map[string]*Breakpoint),
		byCondition: make(map[string]*Breakpoint),
	}
}

// Items returns a copy of the registry contents in ascending priority order.
func (r *Registry) Items() []Breakpoint {
	out := make([]Breakpoint, len(r.items))
	copy(out, r.items)
	return out
}

// Len returns the number of registered breakpoints.
func (r *Registry) Len() int {
	return len(r.items)
}

// FindByName returns the breakpoint named name, or nil.
// An empty name is always a miss and is never cached.
// The returned pointer refers to registry storage and must not be modified.
func (r *Registry) FindByName(name string) *Breakpoint {
	if name == "" {
		return nil
	}
	return r.find(r.byName, name, func(bp *Breakpoint) bool { return bp.Name == name })
}

// FindByCondition returns the breakpoint whose condition equals condition, or nil.
func (r *Registry) FindByCondition(condition string) *Breakpoint {
	return r.find(r.byCondition, condition, func(bp *Breakpoint) bool { return bp.Condition == condition })
}

func (r *Registry) find(cache map[string]*Breakpoint, key string, match func(*Breakpoint) bool) *Breakpoint {
	r.mu.Lock()
	defer r.mu.Unlock()

	if bp, ok := cache[key]; ok {
		return bp
	}

	var found *Breakpoint
	for i := range r.items {
		if match(&r.items[i]) {
			found = &r.items[i]
			break
		}
	}
	cache[key] = found
	return found
}

// Overlapping returns every breakpoint whose range overlaps other ranges
// (e.g. gt-sm overlaps md, lg and xl), in registry order.
func (r *Registry) Overlapping() []Breakpoint {
	var out []Breakpoint
	for _, bp := range r.items {
		if bp.Overlapping {
			out = append(out, bp)
		}
	}
	return out
}

// Names returns all breakpoint names in registry order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.items))
	for i, bp := range r.items {
		out[i] = bp.Name
	}
	return out
}

// Suffixes returns all breakpoint suffixes in registry order, index-aligned with Names.
func (r *Registry) Suffixes() []string {
	out := make([]string, len(r.items))
	for i, bp := range r.items {
		out[i] = bp.Suffix
	}
	return out
}

// Conditions returns all breakpoint conditions in registry order.
func (r *Registry) Conditions() []string {
	out := make([]string, len(r.items))
	for i, bp := range r.items {
		out[i] = bp.Condition
	}
	return out
}
