package media

import (
	"sync"

	"github.com/dyluth/mediawatch/pkg/mediaquery"
)

// Tracker bridges per-condition notifications from a mediaquery.Matcher into a
// single broadcast of Changes. Each condition gets exactly one listener on the
// matcher no matter how often it is registered.
//
// Deliveries are serialized. Handlers may query the tracker (IsActive,
// CurrentActivations) and close subscriptions, but must not call Observe.
type Tracker struct {
	matcher mediaquery.Matcher

	mu         sync.Mutex
	registered map[string]struct{}
	order      []string
	cancels    []func()
	subs       []*Subscription
	last       Change
	hasLast    bool
	nextID     uint64
	closed     bool

	deliverMu sync.Mutex
}

// Subscription is a handler attached to a Tracker's change broadcast.
type Subscription struct {
	id      uint64
	handler func(Change)
	tracker *Tracker
	done    chan struct{}
	once    sync.Once
}

// Done is closed when the subscription is closed or the tracker is torn down.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close detaches the handler. Safe to call multiple times.
func (s *Subscription) Close() error {
	s.once.Do(func() {
		close(s.done)
		if s.tracker != nil {
			s.tracker.remove(s.id)
		}
	})
	return nil
}

func (s *Subscription) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// NewTracker creates a tracker over m. A nil matcher falls back to mediaquery.Static.
func NewTracker(m mediaquery.Matcher) *Tracker {
	if m == nil {
		m = mediaquery.Static{}
	}
	return &Tracker{
		matcher:    m,
		registered: make(map[string]struct{}),
	}
}

// IsActive reports whether condition is currently true, registering it first
// if it has never been seen.
func (t *Tracker) IsActive(condition string) bool {
	t.mu.Lock()
	_, ok := t.registered[condition]
	t.mu.Unlock()

	if !ok {
		t.RegisterMany([]string{condition})
	}
	return t.matcher.Evaluate(condition)
}

// RegisterMany attaches one change listener per not-yet-registered condition
// and returns an activation for every given condition that is true right now.
// After Teardown nothing is registered, but truth values are still reported.
func (t *Tracker) RegisterMany(conditions []string) []Change {
	t.mu.Lock()
	defer t.mu.Unlock()

	var matches []Change
	for _, condition := range conditions {
		if _, ok := t.registered[condition]; !ok && !t.closed {
			cond := condition
			cancel := t.matcher.OnChange(cond, func(c mediaquery.Change) {
				t.publish(NewChange(c.Matches, cond))
			})
			t.registered[cond] = struct{}{}
			t.order = append(t.order, cond)
			t.cancels = append(t.cancels, cancel)
		}
		if t.matcher.Evaluate(condition) {
			matches = append(matches, NewChange(true, condition))
		}
	}
	return matches
}

// Registered returns every registered condition in registration order.
func (t *Tracker) Registered() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// CurrentActivations returns the registered conditions that are true now, in
// registration order.
func (t *Tracker) CurrentActivations() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []string
	for _, condition := range t.order {
		if t.matcher.Evaluate(condition) {
			out = append(out, condition)
		}
	}
	return out
}

// Subscribe attaches handler to the change broadcast. The most recent
// broadcast change, if any, is replayed to handler first.
func (t *Tracker) Subscribe(handler func(Change)) *Subscription {
	return t.Observe(nil, handler)
}

// Observe registers conditions and attaches handler to the change broadcast.
//
// Every condition that is true at registration is delivered to handler before
// any live change: all but the last directly, the last through the broadcast so
// that it also becomes the replayed value for later subscribers.
func (t *Tracker) Observe(conditions []string, handler func(Change)) *Subscription {
	t.deliverMu.Lock()
	defer t.deliverMu.Unlock()

	t.mu.Lock()
	t.nextID++
	sub := &Subscription{id: t.nextID, handler: handler, tracker: t, done: make(chan struct{})}
	closed := t.closed
	t.mu.Unlock()

	if closed {
		sub.Close()
		return sub
	}

	if matches := t.RegisterMany(conditions); len(matches) > 0 {
		last := matches[len(matches)-1]
		for _, c := range matches[:len(matches)-1] {
			handler(c)
		}
		t.broadcastLocked(last)
	}

	t.mu.Lock()
	t.subs = append(t.subs, sub)
	last, hasLast := t.last, t.hasLast
	t.mu.Unlock()

	if hasLast {
		handler(last)
	}
	return sub
}

// Teardown detaches every matcher listener and closes every subscription.
// Safe to call multiple times.
func (t *Tracker) Teardown() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	cancels := t.cancels
	subs := t.subs
	t.cancels = nil
	t.subs = nil
	t.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	for _, sub := range subs {
		sub.Close()
	}
}

func (t *Tracker) publish(c Change) {
	t.deliverMu.Lock()
	defer t.deliverMu.Unlock()
	t.broadcastLocked(c)
}

// broadcastLocked records c as the replay value and hands it to every
// subscriber. Callers hold deliverMu.
func (t *Tracker) broadcastLocked(c Change) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.last = c
	t.hasLast = true
	subs := make([]*Subscription, len(t.subs))
	copy(subs, t.subs)
	t.mu.Unlock()

	for _, sub := range subs {
		if !sub.closed() {
			sub.handler(c)
		}
	}
}

func (t *Tracker) remove(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, sub := range t.subs {
		if sub.id == id {
			t.subs = append(t.subs[:i:i], t.subs[i+1:]...)
			return
		}
	}
}
