// Package breakpoint defines named breakpoints and the immutable registry used
// to look them up.
//
// # Overview
//
// A breakpoint pairs a name ("gt-sm") with a raw condition string, usually a
// media query ("screen and (min-width: 960px)"). Priority decides the order in
// which simultaneously active breakpoints are reported: higher priority first.
// Overlapping breakpoints (lt-*, gt-*) cover several base ranges at once and can
// be filtered out of activation reports.
//
// # Registry
//
// The Registry stores its breakpoints sorted by ascending priority and never
// changes after construction, so lookups by name or condition are memoized for
// its lifetime (misses included):
//
//	reg := breakpoint.NewRegistry(breakpoint.Default())
//	bp := reg.FindByName("gt-sm")
//	// bp.Condition == "screen and (min-width: 960px)"
//
// # Defaults
//
// Build derives the standard family from an ordered list of widths:
//
//	xs  screen and (min-width: 0px) and (max-width: 599.98px)       1000
//	sm  screen and (min-width: 600px) and (max-width: 959.98px)     900
//	...
//	lt-sm  screen and (max-width: 599.98px)                         950
//	gt-xs  screen and (min-width: 600px)                            -950
package breakpoint
