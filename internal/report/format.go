package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/dyluth/mediawatch/pkg/breakpoint"
	"github.com/dyluth/mediawatch/pkg/media"
	"gopkg.in/yaml.v3"
)

// OutputFormat selects how breakpoint listings are rendered.
type OutputFormat string

const (
	OutputFormatTable OutputFormat = "table"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatYAML  OutputFormat = "yaml"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format '%s' (valid: table, json, yaml)", s)
}

// WriteBreakpoints renders bps in the given format.
func WriteBreakpoints(w io.Writer, bps []breakpoint.Breakpoint, format OutputFormat) error {
	switch format {
	case OutputFormatJSON:
		return FormatJSON(w, bps)
	case OutputFormatYAML:
		return FormatYAML(w, bps)
	default:
		FormatTable(w, bps)
		return nil
	}
}

// FormatTable writes breakpoints as a formatted table.
// Columns: NAME, PRIORITY, OVERLAP, SUFFIX, CONDITION. Returns the number of rows.
func FormatTable(w io.Writer, bps []breakpoint.Breakpoint) int {
	if len(bps) == 0 {
		fmt.Fprintln(w, "No breakpoints registered")
		return 0
	}

	fmt.Fprintf(w, "%-14s %-8s %-7s %-14s %s\n",
		"NAME", "PRIORITY", "OVERLAP", "SUFFIX", "CONDITION")
	fmt.Fprintf(w, "%-14s %-8s %-7s %-14s %s\n",
		"--------------", "--------", "-------", "--------------", "----------------------------------------")

	for _, bp := range bps {
		fmt.Fprintf(w, "%-14s %-8s %-7s %-14s %s\n",
			truncate(bp.Name, 14),
			strconv.Itoa(bp.Priority),
			formatOverlap(bp.Overlapping),
			truncate(bp.Suffix, 14),
			bp.Condition,
		)
	}

	countMsg := "breakpoint"
	if len(bps) != 1 {
		countMsg = "breakpoints"
	}
	fmt.Fprintf(w, "\n%d %s\n", len(bps), countMsg)

	return len(bps)
}

// FormatActivations writes an activation list, highest priority first.
func FormatActivations(w io.Writer, changes []media.Change) {
	if len(changes) == 0 {
		fmt.Fprintln(w, "No active breakpoints")
		return
	}

	fmt.Fprintf(w, "%-14s %-8s %s\n", "ACTIVE", "PRIORITY", "CONDITION")
	for _, c := range changes {
		name := c.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(w, "%-14s %-8d %s\n", truncate(name, 14), c.Priority, c.Condition)
	}
}

// FormatJSON writes breakpoints as a pretty-printed JSON array.
func FormatJSON(w io.Writer, bps []breakpoint.Breakpoint) error {
	if bps == nil {
		bps = []breakpoint.Breakpoint{}
	}
	data, err := json.MarshalIndent(bps, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal breakpoints to JSON: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	fmt.Fprintln(w)

	return nil
}

// FormatYAML writes breakpoints in the same shape as the breakpoints section
// of mediawatch.yml, so the output can be pasted into a config file.
func FormatYAML(w io.Writer, bps []breakpoint.Breakpoint) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(map[string][]breakpoint.Breakpoint{"breakpoints": bps}); err != nil {
		return fmt.Errorf("failed to write YAML output: %w", err)
	}
	return enc.Close()
}

func formatOverlap(overlapping bool) string {
	if overlapping {
		return "yes"
	}
	return "no"
}

// truncate shortens s to max characters, marking the cut with "..".
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-2] + ".."
}
