package mediaquery

import (
	"sync"
)

// Manual is a Matcher whose truth values are set explicitly. Any string is a
// valid condition; unknown conditions are false.
type Manual struct {
	mu       sync.Mutex
	states   map[string]bool
	watchers []*watcher
	nextID   uint64

	notifyMu sync.Mutex
}

// Setter records truth-value mutations inside Manual.Batch.
type Setter interface {
	Set(query string, matches bool)
}

type mutation struct {
	query   string
	matches bool
}

type batch struct {
	mutations []mutation
}

func (b *batch) Set(query string, matches bool) {
	b.mutations = append(b.mutations, mutation{query: query, matches: matches})
}

// NewManual creates a Manual matcher seeded with initial truth values.
func NewManual(initial map[string]bool) *Manual {
	states := make(map[string]bool, len(initial))
	for q, v := range initial {
		states[q] = v
	}
	return &Manual{states: states}
}

// Evaluate implements Matcher.
func (m *Manual) Evaluate(query string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[query]
}

// OnChange implements Matcher.
func (m *Manual) OnChange(query string, fn func(Change)) func() {
	m.mu.Lock()
	m.nextID++
	w := &watcher{id: m.nextID, query: query, fn: fn}
	m.watchers = append(m.watchers, w)
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, it := range m.watchers {
				if it.id == w.id {
					m.watchers = append(m.watchers[:i:i], m.watchers[i+1:]...)
					return
				}
			}
		})
	}
}

// Set changes one truth value as a tick of its own.
func (m *Manual) Set(query string, matches bool) {
	m.Batch(func(s Setter) { s.Set(query, matches) })
}

// Batch applies every mutation recorded by fn as a single tick: all truth
// values are committed first, then each effective transition is notified in the
// order it was recorded.
func (m *Manual) Batch(fn func(Setter)) {
	b := &batch{}
	fn(b)

	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	var pending []notification
	for _, mut := range b.mutations {
		if m.states[mut.query] == mut.matches {
			continue
		}
		m.states[mut.query] = mut.matches
		for _, w := range m.watchers {
			if w.query == mut.query {
				pending = append(pending, notification{fn: w.fn, change: Change{Matches: mut.matches, Query: mut.query}})
			}
		}
	}
	m.mu.Unlock()

	for _, n := range pending {
		n.fn(n.change)
	}
}
