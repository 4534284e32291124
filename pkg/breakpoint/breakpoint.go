package breakpoint

import (
	"sort"
)

// Breakpoint is a named condition (usually a viewport range) that can be active
// or inactive. Breakpoints are immutable once placed in a Registry.
type Breakpoint struct {
	Name        string `yaml:"name" json:"name"`
	Condition   string `yaml:"condition" json:"condition"`
	Overlapping bool   `yaml:"overlapping,omitempty" json:"overlapping,omitempty"` // Range overlaps other (base) ranges
	Priority    int    `yaml:"priority,omitempty" json:"priority,omitempty"`       // Higher sorts first in activation reports
	Suffix      string `yaml:"suffix,omitempty" json:"suffix,omitempty"`
}

// Prioritized is anything that carries a breakpoint priority.
type Prioritized interface {
	GetPriority() int
}

// GetPriority implements Prioritized.
func (b Breakpoint) GetPriority() int {
	return b.Priority
}

// SortAscending stable-sorts items by ascending priority.
func SortAscending[T Prioritized](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].GetPriority() < items[j].GetPriority()
	})
}

// SortDescending stable-sorts items by descending priority.
func SortDescending[T Prioritized](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].GetPriority() > items[j].GetPriority()
	})
}

// Contains reports whether list holds a breakpoint with the same condition as bp.
func Contains(list []Breakpoint, bp Breakpoint) bool {
	for _, it := range list {
		if it.Condition == bp.Condition {
			return true
		}
	}
	return false
}
