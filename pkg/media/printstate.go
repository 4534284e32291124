package media

import (
	"github.com/dyluth/mediawatch/pkg/breakpoint"
)

// PrintState is the state of a PrintHook.
type PrintState int

const (
	// Idle reports ambient activations.
	Idle PrintState = iota
	// Printing was entered because the print condition activated.
	Printing
	// PrintingViaSignal was entered through an external begin-print signal;
	// only the matching end-print signal leaves it.
	PrintingViaSignal
)

// String returns the state name.
func (s PrintState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Printing:
		return "printing"
	case PrintingViaSignal:
		return "printing-via-signal"
	default:
		return "unknown"
	}
}

type printInput int

const (
	inputPrintActivated printInput = iota
	inputPrintDeactivated
	inputAliasChanged
	inputBeginSignal
	inputEndSignal
	inputOtherActivated
	inputOtherDeactivated
)

type printAction int

const (
	actionNone printAction = iota
	actionStart
	actionStop
	actionCollect
	actionReset
)

type printTransition struct {
	next   PrintState
	action printAction
}

// printTransitions is the complete state × input table. Only the exact
// "print" condition starts or stops printing; alias events never do.
var printTransitions = map[PrintState]map[printInput]printTransition{
	Idle: {
		inputPrintActivated:   {Printing, actionStart},
		inputPrintDeactivated: {Idle, actionNone},
		inputAliasChanged:     {Idle, actionNone},
		inputBeginSignal:      {PrintingViaSignal, actionStart},
		inputEndSignal:        {Idle, actionNone},
		inputOtherActivated:   {Idle, actionReset},
		inputOtherDeactivated: {Idle, actionReset},
	},
	Printing: {
		inputPrintActivated:   {Printing, actionNone},
		inputPrintDeactivated: {Idle, actionStop},
		inputAliasChanged:     {Printing, actionNone},
		inputBeginSignal:      {Printing, actionNone},
		inputEndSignal:        {Idle, actionStop},
		inputOtherActivated:   {Printing, actionNone},
		inputOtherDeactivated: {Printing, actionCollect},
	},
	PrintingViaSignal: {
		inputPrintActivated:   {PrintingViaSignal, actionNone},
		inputPrintDeactivated: {PrintingViaSignal, actionCollect},
		inputAliasChanged:     {PrintingViaSignal, actionNone},
		inputBeginSignal:      {PrintingViaSignal, actionNone},
		inputEndSignal:        {Idle, actionStop},
		inputOtherActivated:   {PrintingViaSignal, actionNone},
		inputOtherDeactivated: {PrintingViaSignal, actionCollect},
	},
}

func classify(c Change) printInput {
	switch {
	case c.Condition == PrintCondition && c.Matches:
		return inputPrintActivated
	case c.Condition == PrintCondition:
		return inputPrintDeactivated
	case IsPrintEvent(c):
		return inputAliasChanged
	case c.Matches:
		return inputOtherActivated
	default:
		return inputOtherDeactivated
	}
}

// printQueue holds the breakpoints reported while printing: the synthetic
// print breakpoint first, each condition at most once.
type printQueue struct {
	items []breakpoint.Breakpoint
}

func (q *printQueue) add(bp breakpoint.Breakpoint) {
	if breakpoint.Contains(q.items, bp) {
		return
	}
	q.items = append(q.items, bp)
}

// rebuild adds the print breakpoint and candidates, then orders the queue by
// descending priority with print-domain conditions ahead of other aliases.
func (q *printQueue) rebuild(candidates []breakpoint.Breakpoint) []breakpoint.Breakpoint {
	q.add(PrintBreakpoint)

	sorted := make([]breakpoint.Breakpoint, len(candidates))
	copy(sorted, candidates)
	breakpoint.SortDescending(sorted)
	for _, bp := range sorted {
		q.add(bp)
	}

	var printDomain, others []breakpoint.Breakpoint
	for _, bp := range q.items {
		if IsPrintEvent(Change{Condition: bp.Condition}) {
			printDomain = append(printDomain, bp)
		} else {
			others = append(others, bp)
		}
	}
	breakpoint.SortDescending(printDomain)
	breakpoint.SortDescending(others)
	q.items = append(printDomain, others...)

	return q.list()
}

func (q *printQueue) list() []breakpoint.Breakpoint {
	out := make([]breakpoint.Breakpoint, len(q.items))
	copy(out, q.items)
	return out
}

func (q *printQueue) clear() {
	q.items = nil
}
