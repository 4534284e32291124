package media

import (
	"strings"

	"github.com/dyluth/mediawatch/pkg/breakpoint"
)

// Change is one activation or deactivation of a condition, annotated with the
// registry metadata of its breakpoint when there is one. Change is a value
// type: copies never alias each other.
type Change struct {
	Matches   bool   `json:"matches"`
	Condition string `json:"condition"`
	Name      string `json:"name,omitempty"`
	Suffix    string `json:"suffix,omitempty"`
	Priority  int    `json:"priority"`
}

// NewChange creates a bare change for condition.
func NewChange(matches bool, condition string) Change {
	return Change{Matches: matches, Condition: condition}
}

// GetPriority implements breakpoint.Prioritized.
func (c Change) GetPriority() int {
	return c.Priority
}

// WithBreakpoint returns a copy of c carrying the name, condition, suffix and
// priority of bp. A nil bp returns c unchanged.
func (c Change) WithBreakpoint(bp *breakpoint.Breakpoint) Change {
	if bp == nil {
		return c
	}
	c.Name = bp.Name
	c.Condition = bp.Condition
	c.Suffix = bp.Suffix
	c.Priority = bp.Priority
	return c
}

// Breakpoint converts the change back into the breakpoint it describes.
func (c Change) Breakpoint() breakpoint.Breakpoint {
	return breakpoint.Breakpoint{
		Name:      c.Name,
		Condition: c.Condition,
		Suffix:    c.Suffix,
		Priority:  c.Priority,
	}
}

// Conditions returns the condition strings of changes, in order.
func Conditions(changes []Change) []string {
	out := make([]string, len(changes))
	for i, c := range changes {
		out[i] = c.Condition
	}
	return out
}

// sameConditions reports whether a and b hold the same set of condition strings.
func sameConditions(a, b []Change) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]struct{}, len(b))
	for _, c := range b {
		seen[c.Condition] = struct{}{}
	}
	for _, c := range a {
		if _, ok := seen[c.Condition]; !ok {
			return false
		}
	}
	return true
}

// splitQueries splits comma-separated entries and trims each part.
func splitQueries(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			out = append(out, strings.TrimSpace(part))
		}
	}
	return out
}
