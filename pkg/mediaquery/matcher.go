// Package mediaquery provides the condition-matching primitive that the media
// package builds on: evaluate a condition string against the current
// environment and get notified when its truth value changes.
//
// Three implementations are provided. Viewport evaluates CSS media queries
// against a simulated environment, Manual holds caller-controlled truth values
// for arbitrary condition strings, and Static is the degraded mode used when no
// environment is available at all.
//
// Implementations commit every state change of one update before notifying any
// listener, so a listener that re-reads state while being notified always sees
// the settled result of the whole update.
package mediaquery

// Change is delivered to OnChange listeners on every transition.
type Change struct {
	Matches bool   `json:"matches"`
	Query   string `json:"query"`
}

// Matcher evaluates condition strings and reports their transitions.
type Matcher interface {
	// Evaluate returns the current truth value of query.
	Evaluate(query string) bool

	// OnChange calls fn on every transition of query until cancel is called.
	// Cancel is safe to call more than once.
	OnChange(query string, fn func(Change)) (cancel func())
}

// Static is the fixed-response matcher used when no environment is available:
// the empty condition matches, everything else never does, and listeners never fire.
type Static struct{}

// Evaluate implements Matcher.
func (Static) Evaluate(query string) bool {
	return query == ""
}

// OnChange implements Matcher. The listener is never called.
func (Static) OnChange(string, func(Change)) func() {
	return func() {}
}
