package commands

import (
	"fmt"

	"github.com/dyluth/mediawatch/internal/filter"
	"github.com/dyluth/mediawatch/internal/printer"
	"github.com/dyluth/mediawatch/internal/report"
	"github.com/dyluth/mediawatch/pkg/breakpoint"
	"github.com/spf13/cobra"
)

var (
	breakpointsOutputFormat string
	breakpointsMatch        string
	breakpointsKind         string
)

var breakpointsCmd = &cobra.Command{
	Use:   "breakpoints",
	Short: "List the registered breakpoints",
	Long: `List every breakpoint in the registry, highest priority first.

The registry comes from the config file's breakpoints or widths section, or
the standard xs..xl family when no config exists.

Output Formats:
  table - Aligned columns (default)
  json  - JSON array
  yaml  - A breakpoints section ready to paste into mediawatch.yml

Examples:
  # Show the default family
  mediawatch breakpoints

  # Only the overlapping gt-* breakpoints
  mediawatch breakpoints --match 'gt-*' --kind overlapping

  # Freeze the derived family into an explicit config
  mediawatch breakpoints --output=yaml >> mediawatch.yml`,
	Args: cobra.NoArgs,
	RunE: runBreakpoints,
}

func init() {
	breakpointsCmd.Flags().StringVarP(&breakpointsOutputFormat, "output", "o", "table", "Output format (table, json or yaml)")
	breakpointsCmd.Flags().StringVar(&breakpointsMatch, "match", "", "Only list breakpoints whose name matches this glob")
	breakpointsCmd.Flags().StringVar(&breakpointsKind, "kind", "", "Only list 'base' or 'overlapping' breakpoints")
	rootCmd.AddCommand(breakpointsCmd)
}

func runBreakpoints(cmd *cobra.Command, args []string) error {
	format, err := report.ParseOutputFormat(breakpointsOutputFormat)
	if err != nil {
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", breakpointsOutputFormat),
			[]string{"Valid formats: table, json, yaml"},
		)
	}

	kind, err := filter.ParseKind(breakpointsKind)
	if err != nil {
		return printer.Error("invalid kind", err.Error(), []string{"Valid kinds: base, overlapping"})
	}
	criteria := &filter.Criteria{NameGlob: breakpointsMatch, Kind: kind}
	if err := criteria.Validate(); err != nil {
		return printer.Error("invalid name pattern", err.Error(), nil)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reg, err := cfg.Registry()
	if err != nil {
		return fmt.Errorf("failed to build registry: %w", err)
	}

	items := criteria.Apply(reg.Items())
	breakpoint.SortDescending(items)
	return report.WriteBreakpoints(cmd.OutOrStdout(), items, format)
}
