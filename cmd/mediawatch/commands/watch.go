package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/dyluth/mediawatch/internal/printer"
	"github.com/dyluth/mediawatch/internal/watch"
	"github.com/dyluth/mediawatch/pkg/mediaquery"
	"github.com/spf13/cobra"
)

var (
	watchOutputFormat string
	watchWidth        float64
	watchHeight       float64
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream breakpoint activations for a viewport",
	Long: `Drive a viewport from environment events published on Redis and print
every layout change as it happens.

The viewport starts from the last stored environment (or --width/--height
when nothing was published yet). While a print is in progress the layout
switches to the print breakpoints and is restored afterwards.

Output Formats:
  default - Human-readable output with timestamps and emojis
  json    - Line-delimited JSON for programmatic processing

Examples:
  # Watch the default instance
  mediawatch watch

  # Watch a specific instance and export JSON
  mediawatch watch --name kiosk --output=json > layout.jsonl`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format (default or json)")
	watchCmd.Flags().Float64Var(&watchWidth, "width", 1024, "Initial viewport width in px when no environment is stored")
	watchCmd.Flags().Float64Var(&watchHeight, "height", 768, "Initial viewport height in px when no environment is stored")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	var outputFormat watch.OutputFormat
	switch watchOutputFormat {
	case "default":
		outputFormat = watch.OutputFormatDefault
	case "json":
		outputFormat = watch.OutputFormatJSON
	default:
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", watchOutputFormat),
			[]string{"Valid formats: default, json"},
		)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus, err := connectBus(ctx, cfg)
	if err != nil {
		return err
	}
	defer bus.Close()

	session, err := watch.NewSession(cmd.OutOrStdout(), outputFormat)
	if err != nil {
		return err
	}

	viewport := mediaquery.NewViewport(mediaquery.Environment{Media: mediaquery.MediaScreen, Width: watchWidth, Height: watchHeight})
	observer, err := newObserverFor(cfg, viewport, session, cfg.FilterOverlaps)
	if err != nil {
		return err
	}
	defer observer.Destroy()

	return watch.Run(ctx, session, observer, viewport, bus)
}
