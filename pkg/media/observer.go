package media

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dyluth/mediawatch/pkg/breakpoint"
)

// Observer turns the tracker's raw per-condition changes into a stream of
// activation lists.
//
// A breakpoint change usually deactivates some conditions and activates others
// in the same tick, so the Observer reacts only to activations, coalesces each
// burst into one recomputation of all current activations, and reports the
// result sorted by descending priority. Consecutive reports never carry the
// same set of conditions.
type Observer struct {
	registry *breakpoint.Registry
	tracker  *Tracker
	hook     *PrintHook

	filterOverlaps atomic.Bool
	conditions     []string

	hookSub     *Subscription
	destroyed   chan struct{}
	destroyOnce sync.Once
}

// ObserverOption configures an Observer.
type ObserverOption func(*Observer)

// WithPrintHook routes every raw change through hook before it reaches any
// stream and lets the hook replace the reported list while printing.
func WithPrintHook(hook *PrintHook) ObserverOption {
	return func(o *Observer) {
		o.hook = hook
	}
}

// WithOverlapFiltering sets the initial overlap-filtering flag.
func WithOverlapFiltering(enabled bool) ObserverOption {
	return func(o *Observer) {
		o.filterOverlaps.Store(enabled)
	}
}

// NewObserver creates an observer for every condition in registry.
func NewObserver(registry *breakpoint.Registry, tracker *Tracker, opts ...ObserverOption) *Observer {
	o := &Observer{
		registry:   registry,
		tracker:    tracker,
		conditions: registry.Conditions(),
		destroyed:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.hook != nil {
		o.conditions = append(o.conditions, PrintCondition)
		o.hookSub = tracker.Observe(o.conditions, o.hook.Intercept)
	}
	return o
}

// SetFilterOverlaps toggles overlap filtering; applies to the next recomputation.
// When enabled, only overlapping breakpoints and unregistered conditions are reported.
func (o *Observer) SetFilterOverlaps(enabled bool) {
	o.filterOverlaps.Store(enabled)
}

// FilterOverlaps returns the overlap-filtering flag.
func (o *Observer) FilterOverlaps() bool {
	return o.filterOverlaps.Load()
}

// Stream starts a new activation stream. The stream completes when ctx is
// done, when it is closed, when the Observer is destroyed or when the tracker
// is torn down.
func (o *Observer) Stream(ctx context.Context) *Stream {
	s := &Stream{
		events: make(chan []Change),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	select {
	case <-o.destroyed:
		close(s.events)
		return s
	default:
	}

	cancelHook := func() {}
	if o.hook != nil {
		cancelHook = o.hook.OnTransition(func(PrintState, PrintState) { s.kick() })
	}
	s.sub = o.tracker.Observe(o.conditions, func(c Change) {
		if c.Matches {
			s.kick()
		}
	})

	go o.run(ctx, s, cancelHook)
	return s
}

func (o *Observer) run(ctx context.Context, s *Stream, cancelHook func()) {
	defer close(s.events)
	defer s.sub.Close()
	defer cancelHook()

	var (
		previous []Change
		emitted  bool
	)
	for {
		select {
		case <-ctx.Done():
			return
		case <-o.destroyed:
			return
		case <-s.done:
			return
		case <-s.sub.Done():
			return
		case <-s.wake:
		}

		changes := o.Activations()
		if !hasConditions(changes) {
			continue
		}
		if emitted && sameConditions(previous, changes) {
			continue
		}
		previous, emitted = changes, true

		select {
		case s.events <- changes:
		case <-ctx.Done():
			return
		case <-o.destroyed:
			return
		case <-s.done:
			return
		case <-s.sub.Done():
			return
		}
	}
}

// Activations recomputes the current activation list, sorted by descending
// priority. While printing it is the print queue.
func (o *Observer) Activations() []Change {
	if o.hook != nil && o.hook.IsPrinting() {
		queue := o.hook.Queue()
		out := make([]Change, 0, len(queue))
		for i := range queue {
			out = append(out, NewChange(true, queue[i].Condition).WithBreakpoint(&queue[i]))
		}
		return out
	}

	filter := o.filterOverlaps.Load()
	var out []Change
	for _, condition := range o.tracker.CurrentActivations() {
		c := NewChange(true, condition)
		if o.hook != nil && !o.hook.Propagates(c) {
			continue
		}
		bp := o.registry.FindByCondition(condition)
		if filter && bp != nil && !bp.Overlapping {
			continue
		}
		out = append(out, c.WithBreakpoint(bp))
	}
	breakpoint.SortDescending(out)
	return out
}

// IsActive reports whether any of values, each a breakpoint name or a
// registered condition (comma-separated lists allowed), is currently active.
// Values unknown to the registry are never active.
func (o *Observer) IsActive(values ...string) bool {
	for _, value := range splitQueries(values) {
		bp := o.registry.FindByName(value)
		if bp == nil {
			bp = o.registry.FindByCondition(value)
		}
		if bp != nil && o.tracker.IsActive(bp.Condition) {
			return true
		}
	}
	return false
}

// IsMatched reports whether any of the raw conditions in values is currently
// true, bypassing the registry.
func (o *Observer) IsMatched(values ...string) bool {
	for _, condition := range splitQueries(values) {
		if o.tracker.IsActive(condition) {
			return true
		}
	}
	return false
}

// Destroy completes every stream and releases the print-hook subscription.
// Safe to call multiple times.
func (o *Observer) Destroy() {
	o.destroyOnce.Do(func() {
		close(o.destroyed)
		if o.hookSub != nil {
			o.hookSub.Close()
		}
	})
}

func hasConditions(changes []Change) bool {
	for _, c := range changes {
		if c.Condition != "" {
			return true
		}
	}
	return false
}

// Stream is one subscription to an Observer's activation lists.
type Stream struct {
	events chan []Change
	wake   chan struct{}
	done   chan struct{}
	once   sync.Once
	sub    *Subscription
}

// Events returns the channel of activation lists. It is closed when the
// stream completes.
func (s *Stream) Events() <-chan []Change {
	return s.events
}

// Close stops the stream. Safe to call multiple times.
func (s *Stream) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

func (s *Stream) kick() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
