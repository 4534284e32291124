package mediaquery

import (
	"sync"
)

// Viewport is a live Matcher that evaluates media queries against a mutable
// Environment. Each environment update is one tick: the new truth value of every
// watched query is committed before any listener is notified, and listeners run
// in registration order.
//
// Listeners must not update the viewport from within a notification.
type Viewport struct {
	mu       sync.Mutex
	env      Environment
	parsed   map[string]*Query
	watchers []*watcher
	nextID   uint64

	before []*signal
	after  []*signal

	// serializes ticks and print signals
	notifyMu    sync.Mutex
	printing    bool
	screenMedia string
}

type watcher struct {
	id      uint64
	query   string
	matches bool
	fn      func(Change)
}

type signal struct {
	id uint64
	fn func()
}

type notification struct {
	fn     func(Change)
	change Change
}

// NewViewport creates a viewport for env. An empty media type defaults to screen.
func NewViewport(env Environment) *Viewport {
	if env.Media == "" {
		env.Media = MediaScreen
	}
	return &Viewport{
		env:    env,
		parsed: make(map[string]*Query),
	}
}

// Environment returns the current environment.
func (v *Viewport) Environment() Environment {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.env
}

// Evaluate implements Matcher. Malformed queries never match.
func (v *Viewport) Evaluate(query string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.evaluateLocked(query)
}

func (v *Viewport) evaluateLocked(query string) bool {
	q, ok := v.parsed[query]
	if !ok {
		q, _ = Parse(query)
		v.parsed[query] = q
	}
	return q != nil && q.Matches(v.env)
}

// OnChange implements Matcher.
func (v *Viewport) OnChange(query string, fn func(Change)) func() {
	v.mu.Lock()
	v.nextID++
	w := &watcher{id: v.nextID, query: query, matches: v.evaluateLocked(query), fn: fn}
	v.watchers = append(v.watchers, w)
	v.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			for i, it := range v.watchers {
				if it.id == w.id {
					v.watchers = append(v.watchers[:i:i], v.watchers[i+1:]...)
					return
				}
			}
		})
	}
}

// SetEnvironment replaces the environment and notifies every transition.
func (v *Viewport) SetEnvironment(env Environment) {
	v.notifyMu.Lock()
	defer v.notifyMu.Unlock()
	v.commit(func(current *Environment) { *current = env })
}

// Resize changes the viewport dimensions.
func (v *Viewport) Resize(width, height float64) {
	v.notifyMu.Lock()
	defer v.notifyMu.Unlock()
	v.commit(func(current *Environment) {
		current.Width = width
		current.Height = height
	})
}

// SetMedia changes the media type (e.g. screen or print).
func (v *Viewport) SetMedia(media string) {
	v.notifyMu.Lock()
	defer v.notifyMu.Unlock()
	v.commit(func(current *Environment) { current.Media = media })
}

// BeginPrint fires the before-print signal and switches the media type to print.
// It is a no-op while a print started by BeginPrint is still in progress.
func (v *Viewport) BeginPrint() {
	v.notifyMu.Lock()
	defer v.notifyMu.Unlock()
	if v.printing {
		return
	}
	v.printing = true
	v.screenMedia = v.Environment().Media

	v.fire(v.snapshotSignals(&v.before))
	v.commit(func(current *Environment) { current.Media = MediaPrint })
}

// EndPrint restores the media type in use before BeginPrint and fires the
// after-print signal.
func (v *Viewport) EndPrint() {
	v.notifyMu.Lock()
	defer v.notifyMu.Unlock()
	if !v.printing {
		return
	}
	v.printing = false

	v.commit(func(current *Environment) { current.Media = v.screenMedia })
	v.fire(v.snapshotSignals(&v.after))
}

// OnBeforePrint registers fn to run when BeginPrint is called.
func (v *Viewport) OnBeforePrint(fn func()) func() {
	return v.addSignal(&v.before, fn)
}

// OnAfterPrint registers fn to run when EndPrint is called.
func (v *Viewport) OnAfterPrint(fn func()) func() {
	return v.addSignal(&v.after, fn)
}

// commit applies update, records every watcher transition, then notifies.
// Callers hold notifyMu.
func (v *Viewport) commit(update func(*Environment)) {
	v.mu.Lock()
	update(&v.env)
	var pending []notification
	for _, w := range v.watchers {
		matches := v.evaluateLocked(w.query)
		if matches == w.matches {
			continue
		}
		w.matches = matches
		pending = append(pending, notification{fn: w.fn, change: Change{Matches: matches, Query: w.query}})
	}
	v.mu.Unlock()

	for _, n := range pending {
		n.fn(n.change)
	}
}

func (v *Viewport) addSignal(list *[]*signal, fn func()) func() {
	v.mu.Lock()
	v.nextID++
	s := &signal{id: v.nextID, fn: fn}
	*list = append(*list, s)
	v.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			for i, it := range *list {
				if it.id == s.id {
					*list = append((*list)[:i:i], (*list)[i+1:]...)
					return
				}
			}
		})
	}
}

func (v *Viewport) snapshotSignals(list *[]*signal) []*signal {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]*signal, len(*list))
	copy(out, *list)
	return out
}

func (v *Viewport) fire(signals []*signal) {
	for _, s := range signals {
		s.fn()
	}
}
