package filter

import (
	"fmt"
	"path/filepath"

	"github.com/dyluth/mediawatch/pkg/breakpoint"
)

// Kind selects breakpoints by whether their range overlaps others.
type Kind string

const (
	KindAny         Kind = ""
	KindBase        Kind = "base"
	KindOverlapping Kind = "overlapping"
)

// Criteria defines filtering criteria for breakpoints.
// All filters are ANDed together - a breakpoint must match ALL criteria to pass.
type Criteria struct {
	NameGlob string // Glob pattern for the breakpoint name, empty = no filter
	Kind     Kind
}

// ParseKind validates a --kind flag value.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindAny, KindBase, KindOverlapping:
		return Kind(s), nil
	default:
		return KindAny, fmt.Errorf("invalid kind '%s': must be 'base' or 'overlapping'", s)
	}
}

// Validate checks the name pattern is well formed.
func (c *Criteria) Validate() error {
	if c.NameGlob == "" {
		return nil
	}
	if _, err := filepath.Match(c.NameGlob, ""); err != nil {
		return fmt.Errorf("invalid name pattern '%s': %w", c.NameGlob, err)
	}
	return nil
}

// Matches returns true if the breakpoint matches all filter criteria.
func (c *Criteria) Matches(bp *breakpoint.Breakpoint) bool {
	switch c.Kind {
	case KindBase:
		if bp.Overlapping {
			return false
		}
	case KindOverlapping:
		if !bp.Overlapping {
			return false
		}
	}

	if c.NameGlob != "" {
		matched, err := filepath.Match(c.NameGlob, bp.Name)
		if err != nil || !matched {
			return false
		}
	}

	return true
}

// HasFilters returns true if any filters are active.
func (c *Criteria) HasFilters() bool {
	return c.NameGlob != "" || c.Kind != KindAny
}

// Apply returns the breakpoints in bps that match, preserving order.
func (c *Criteria) Apply(bps []breakpoint.Breakpoint) []breakpoint.Breakpoint {
	if !c.HasFilters() {
		return bps
	}
	out := make([]breakpoint.Breakpoint, 0, len(bps))
	for i := range bps {
		if c.Matches(&bps[i]) {
			out = append(out, bps[i])
		}
	}
	return out
}
