package breakpoint

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Standard breakpoint names.
const (
	XS   = "xs"
	SM   = "sm"
	MD   = "md"
	LG   = "lg"
	XL   = "xl"
	LtSM = "lt-sm"
	LtMD = "lt-md"
	LtLG = "lt-lg"
	LtXL = "lt-xl"
	GtXS = "gt-xs"
	GtSM = "gt-sm"
	GtMD = "gt-md"
	GtLG = "gt-lg"
)

const maxPriority = 1000

// Width is the exclusive upper bound of a base range, e.g. {"xs", "600px"}.
type Width struct {
	Name  string `yaml:"name" json:"name"`
	Width string `yaml:"width" json:"width"`
}

// DefaultWidths are the standard base ranges.
var DefaultWidths = []Width{
	{Name: XS, Width: "600px"},
	{Name: SM, Width: "960px"},
	{Name: MD, Width: "1280px"},
	{Name: LG, Width: "1920px"},
	{Name: XL, Width: "5000px"},
}

// Default returns the standard breakpoint family built from DefaultWidths.
// Smaller ranges have higher priority since the match is more specific.
func Default() []Breakpoint {
	list, _ := Build(DefaultWidths)
	return list
}

// Build derives the base, lt-* and gt-* breakpoints for an ordered list of widths.
//
// Base ranges span [previous width, width) and are not overlapping; lt-<name>
// exists for every entry but the first and gt-<name> for every entry but the last.
func Build(widths []Width) ([]Breakpoint, error) {
	var base, lt, gt []Breakpoint

	for i, w := range widths {
		if w.Name == "" {
			return nil, fmt.Errorf("width %d: name is required", i)
		}
		maxWidth, err := maxWidthOf(w.Width)
		if err != nil {
			return nil, fmt.Errorf("width '%s': %w", w.Name, err)
		}

		minWidth := "0px"
		if i > 0 {
			minWidth = widths[i-1].Width
		}
		base = append(base, Breakpoint{
			Name:      w.Name,
			Condition: fmt.Sprintf("screen and (min-width: %s) and (max-width: %s)", minWidth, maxWidth),
			Priority:  maxPriority - 100*i,
			Suffix:    SuffixFor(w.Name),
		})

		if i > 0 {
			prevMax, _ := maxWidthOf(widths[i-1].Width)
			name := "lt-" + w.Name
			lt = append(lt, Breakpoint{
				Name:        name,
				Condition:   fmt.Sprintf("screen and (max-width: %s)", prevMax),
				Overlapping: true,
				Priority:    (maxPriority - 50) - 100*(i-1),
				Suffix:      SuffixFor(name),
			})
		}

		if i < len(widths)-1 {
			name := "gt-" + w.Name
			gt = append(gt, Breakpoint{
				Name:        name,
				Condition:   fmt.Sprintf("screen and (min-width: %s)", w.Width),
				Overlapping: true,
				Priority:    -1*(maxPriority-50) + 100*i,
				Suffix:      SuffixFor(name),
			})
		}
	}

	out := make([]Breakpoint, 0, len(base)+len(lt)+len(gt))
	out = append(out, base...)
	out = append(out, lt...)
	out = append(out, gt...)
	return out, nil
}

// SuffixFor maps a breakpoint name to its property suffix: "gt-sm" -> "GtSm".
func SuffixFor(name string) string {
	caser := cases.Title(language.Und)
	var sb strings.Builder
	for _, part := range strings.FieldsFunc(name, func(r rune) bool { return r == '-' || r == '.' || r == '_' }) {
		sb.WriteString(caser.String(part))
	}
	return sb.String()
}

// maxWidthOf turns "600px" into "599.98px".
func maxWidthOf(width string) (string, error) {
	unit := strings.TrimLeft(width, "0123456789.")
	value, err := strconv.ParseFloat(strings.TrimSuffix(width, unit), 64)
	if err != nil {
		return "", fmt.Errorf("invalid width %q", width)
	}
	if unit == "" {
		unit = "px"
	}
	upper := math.Round((value-0.02)*100) / 100
	return strconv.FormatFloat(upper, 'f', -1, 64) + unit, nil
}
