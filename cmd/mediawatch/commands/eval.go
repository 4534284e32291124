package commands

import (
	"fmt"
	"io"

	"github.com/dyluth/mediawatch/internal/config"
	"github.com/dyluth/mediawatch/internal/printer"
	"github.com/dyluth/mediawatch/internal/report"
	"github.com/dyluth/mediawatch/internal/watch"
	"github.com/dyluth/mediawatch/pkg/breakpoint"
	"github.com/dyluth/mediawatch/pkg/media"
	"github.com/dyluth/mediawatch/pkg/mediaquery"
	"github.com/spf13/cobra"
)

var (
	evalWidth          float64
	evalHeight         float64
	evalMedia          string
	evalFilterOverlaps bool
)

var evalCmd = &cobra.Command{
	Use:   "eval [name|query ...]",
	Short: "Evaluate breakpoints for a viewport size",
	Long: `Evaluate the breakpoint registry against a viewport and print the
activation list, highest priority first.

Each argument is checked too: breakpoint names and registered conditions are
looked up in the registry (isActive), anything else is evaluated as a raw
media query (isMatched). Comma-separated lists are accepted.

Examples:
  mediawatch eval --width 1024
  mediawatch eval --width 500 --height 900 "gt-sm" "(orientation: portrait)"
  mediawatch eval --width 1024 --media print`,
	RunE: runEval,
}

func init() {
	evalCmd.Flags().Float64Var(&evalWidth, "width", 1024, "Viewport width in px")
	evalCmd.Flags().Float64Var(&evalHeight, "height", 768, "Viewport height in px")
	evalCmd.Flags().StringVar(&evalMedia, "media", mediaquery.MediaScreen, "Media type (screen or print)")
	evalCmd.Flags().BoolVar(&evalFilterOverlaps, "filter-overlaps", false, "Report only overlapping breakpoints (defaults to the config's filter_overlaps)")
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, args []string) error {
	if evalWidth < 0 || evalHeight < 0 {
		return printer.Error(
			"invalid viewport",
			fmt.Sprintf("Width and height must be >= 0, got %gx%g", evalWidth, evalHeight),
			nil,
		)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	filter := cfg.FilterOverlaps
	if cmd.Flags().Changed("filter-overlaps") {
		filter = evalFilterOverlaps
	}

	viewport := mediaquery.NewViewport(mediaquery.Environment{Media: evalMedia, Width: evalWidth, Height: evalHeight})
	observer, err := newObserver(cfg, viewport, io.Discard, filter)
	if err != nil {
		return err
	}
	defer observer.Destroy()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Viewport: %s %gx%g\n\n", evalMedia, evalWidth, evalHeight)
	report.FormatActivations(out, observer.Activations())

	if len(args) == 0 {
		return nil
	}

	reg, err := cfg.Registry()
	if err != nil {
		return fmt.Errorf("failed to build registry: %w", err)
	}

	fmt.Fprintln(out)
	for _, arg := range args {
		if isRegistered(reg, arg) {
			printer.Fstatus(out, arg, observer.IsActive(arg))
		} else {
			printer.Fstatus(out, arg, observer.IsMatched(arg))
		}
	}
	return nil
}

// newObserver wires a tracker, print hook and observer over viewport. The
// print hook's layout target is a session rendering to w.
func newObserver(cfg *config.Config, viewport *mediaquery.Viewport, w io.Writer, filterOverlaps bool) (*media.Observer, error) {
	session, err := watch.NewSession(w, watch.OutputFormatDefault)
	if err != nil {
		return nil, err
	}
	return newObserverFor(cfg, viewport, session, filterOverlaps)
}

func newObserverFor(cfg *config.Config, viewport *mediaquery.Viewport, target media.LayoutTarget, filterOverlaps bool) (*media.Observer, error) {
	reg, err := cfg.Registry()
	if err != nil {
		return nil, fmt.Errorf("failed to build registry: %w", err)
	}

	hook := media.NewPrintHook(reg, target, media.WithPrintAliases(cfg.PrintAliases()...))
	hook.RegisterPrintSignals(viewport)

	return media.NewObserver(reg, media.NewTracker(viewport),
		media.WithPrintHook(hook),
		media.WithOverlapFiltering(filterOverlaps),
	), nil
}

// isRegistered reports whether every entry of a comma list is a breakpoint
// name or registered condition.
func isRegistered(reg *breakpoint.Registry, value string) bool {
	for _, part := range splitList(value) {
		if reg.FindByName(part) == nil && reg.FindByCondition(part) == nil {
			return false
		}
	}
	return true
}
