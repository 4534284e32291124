package media

import (
	"strings"
	"sync"

	"github.com/dyluth/mediawatch/pkg/breakpoint"
)

// PrintCondition is the condition that drives print-mode transitions.
const PrintCondition = "print"

// PrintBreakpoint is the synthetic breakpoint reported while printing.
var PrintBreakpoint = breakpoint.Breakpoint{
	Name:      PrintCondition,
	Condition: PrintCondition,
	Priority:  1000,
}

// LayoutTarget is the host consumer whose activated breakpoints are swapped
// while printing. The target owns its state: the hook only reads it and sends
// ApplyActivations, once per print-mode transition. Implementations must not
// call back into PrintHook transitions (Intercept, BeginPrint, EndPrint) from
// ApplyActivations.
type LayoutTarget interface {
	ActivatedBreakpoints() []breakpoint.Breakpoint
	ApplyActivations(bps []breakpoint.Breakpoint)
}

// PrintSignals is a source of external begin/end print notifications.
type PrintSignals interface {
	OnBeforePrint(fn func()) (cancel func())
	OnAfterPrint(fn func()) (cancel func())
}

// PrintHookOption configures a PrintHook.
type PrintHookOption func(*PrintHook)

// WithPrintAliases adds breakpoints to report alongside the print breakpoint
// while printing.
func WithPrintAliases(bps ...breakpoint.Breakpoint) PrintHookOption {
	return func(h *PrintHook) {
		for _, bp := range bps {
			h.addAlias(bp)
		}
	}
}

// PrintHook intercepts print activations and forces the target to render the
// print queue until printing ends. See printTransitions for the state machine.
type PrintHook struct {
	registry *breakpoint.Registry
	target   LayoutTarget

	// serializes transitions, held while the target is called
	serial sync.Mutex

	mu            sync.Mutex
	state         PrintState
	aliases       []breakpoint.Breakpoint
	queue         printQueue
	former        []breakpoint.Breakpoint
	hasFormer     bool
	deactivations []breakpoint.Breakpoint
	listeners     []*transitionListener
	nextID        uint64

	signalsOnce   sync.Once
	signalCancels []func()
	closeOnce     sync.Once
}

type transitionListener struct {
	id uint64
	fn func(from, to PrintState)
}

// NewPrintHook creates a hook that drives target. The registry resolves
// breakpoints for print and deactivation events.
func NewPrintHook(registry *breakpoint.Registry, target LayoutTarget, opts ...PrintHookOption) *PrintHook {
	h := &PrintHook{
		registry: registry,
		target:   target,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// AddPrintAlias adds bp to the breakpoints reported while printing. Adding an
// alias with an already known condition is a no-op. Takes effect on the next
// print start.
func (h *PrintHook) AddPrintAlias(bp breakpoint.Breakpoint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.addAlias(bp)
}

func (h *PrintHook) addAlias(bp breakpoint.Breakpoint) {
	if breakpoint.Contains(h.aliases, bp) {
		return
	}
	h.aliases = append(h.aliases, bp)
}

// State returns the current print state.
func (h *PrintHook) State() PrintState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// IsPrinting reports whether the hook is in either printing state.
func (h *PrintHook) IsPrinting() bool {
	return h.State() != Idle
}

// Queue returns the print queue; empty unless printing.
func (h *PrintHook) Queue() []breakpoint.Breakpoint {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.queue.list()
}

// IsPrintEvent reports whether c belongs to the print domain.
func (h *PrintHook) IsPrintEvent(c Change) bool {
	return IsPrintEvent(c)
}

// IsPrintEvent reports whether c's condition is "print" or starts with it,
// which also covers print aliases such as "print-landscape".
func IsPrintEvent(c Change) bool {
	return strings.HasPrefix(c.Condition, PrintCondition)
}

// Propagates reports whether c may be forwarded into the ambient activation
// pipeline: never while printing, and never for print-domain events.
func (h *PrintHook) Propagates(c Change) bool {
	return !(h.IsPrinting() || IsPrintEvent(c))
}

// Intercept feeds one raw change into the state machine.
func (h *PrintHook) Intercept(c Change) {
	h.handle(classify(c), c)
}

// BeginPrint is the external begin-print signal.
func (h *PrintHook) BeginPrint() {
	h.handle(inputBeginSignal, NewChange(true, PrintCondition))
}

// EndPrint is the external end-print signal.
func (h *PrintHook) EndPrint() {
	h.handle(inputEndSignal, NewChange(false, PrintCondition))
}

// RegisterPrintSignals wires src's before/after print notifications to
// BeginPrint and EndPrint. Only the first call has any effect.
func (h *PrintHook) RegisterPrintSignals(src PrintSignals) {
	h.signalsOnce.Do(func() {
		before := src.OnBeforePrint(h.BeginPrint)
		after := src.OnAfterPrint(h.EndPrint)
		h.mu.Lock()
		h.signalCancels = append(h.signalCancels, before, after)
		h.mu.Unlock()
	})
}

// OnTransition calls fn after every state change, once the target has been
// updated.
func (h *PrintHook) OnTransition(fn func(from, to PrintState)) (cancel func()) {
	h.mu.Lock()
	h.nextID++
	l := &transitionListener{id: h.nextID, fn: fn}
	h.listeners = append(h.listeners, l)
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		for i, it := range h.listeners {
			if it.id == l.id {
				h.listeners = append(h.listeners[:i:i], h.listeners[i+1:]...)
				return
			}
		}
	}
}

// Close detaches external print signals. Safe to call multiple times.
func (h *PrintHook) Close() error {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		cancels := h.signalCancels
		h.signalCancels = nil
		h.mu.Unlock()
		for _, cancel := range cancels {
			cancel()
		}
	})
	return nil
}

func (h *PrintHook) handle(input printInput, c Change) {
	h.serial.Lock()
	defer h.serial.Unlock()

	h.mu.Lock()
	from := h.state
	tr, ok := printTransitions[from][input]
	h.mu.Unlock()
	if !ok {
		return
	}

	var apply []breakpoint.Breakpoint
	switch tr.action {
	case actionStart:
		apply = h.startPrinting(h.target.ActivatedBreakpoints(), c)
	case actionStop:
		apply = h.stopPrinting()
	case actionCollect:
		h.collect(c)
	case actionReset:
		h.mu.Lock()
		h.deactivations = nil
		h.mu.Unlock()
	}

	h.mu.Lock()
	h.state = tr.next
	listeners := make([]*transitionListener, len(h.listeners))
	copy(listeners, h.listeners)
	h.mu.Unlock()

	if tr.action == actionStart || tr.action == actionStop {
		h.target.ApplyActivations(apply)
	}
	if from != tr.next {
		for _, l := range listeners {
			l.fn(from, tr.next)
		}
	}
}

// startPrinting saves the current activations and builds the print queue.
func (h *PrintHook) startPrinting(current []breakpoint.Breakpoint, c Change) []breakpoint.Breakpoint {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.former = current
	h.hasFormer = true

	var candidates []breakpoint.Breakpoint
	if bp := h.registry.FindByCondition(c.Condition); bp != nil {
		candidates = append(candidates, *bp)
	}
	candidates = append(candidates, h.aliases...)
	return h.queue.rebuild(candidates)
}

// stopPrinting returns the buffered deactivations and clears all print state.
func (h *PrintHook) stopPrinting() []breakpoint.Breakpoint {
	h.mu.Lock()
	defer h.mu.Unlock()

	restore := make([]breakpoint.Breakpoint, 0, len(h.deactivations))
	for _, bp := range h.deactivations {
		if bp.Condition != PrintCondition {
			restore = append(restore, bp)
		}
	}

	h.deactivations = nil
	h.former = nil
	h.hasFormer = false
	h.queue.clear()
	return restore
}

// collect buffers a deactivated breakpoint that was active before printing so
// the target can be restored to the post-deactivation state.
func (h *PrintHook) collect(c Change) {
	bp := h.registry.FindByCondition(c.Condition)
	if bp == nil {
		return
	}

	h.mu.Lock()
	hasFormer, former := h.hasFormer, h.former
	h.mu.Unlock()

	var wasActive bool
	if hasFormer {
		wasActive = breakpoint.Contains(former, *bp)
	} else {
		wasActive = breakpoint.Contains(h.target.ActivatedBreakpoints(), *bp)
	}
	if !wasActive {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if breakpoint.Contains(h.deactivations, *bp) {
		return
	}
	h.deactivations = append(h.deactivations, *bp)
	breakpoint.SortDescending(h.deactivations)
}
